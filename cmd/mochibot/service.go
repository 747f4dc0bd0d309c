package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kardianos/service"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"mochibot/pkg/channels"
	"mochibot/pkg/chart"
	"mochibot/pkg/commands"
	"mochibot/pkg/community"
	"mochibot/pkg/config"
	"mochibot/pkg/cron"
	"mochibot/pkg/defi"
	"mochibot/pkg/gateway"
	"mochibot/pkg/interaction"
	"mochibot/pkg/logger"
	"mochibot/pkg/state"
)

// GatewayService implements the service.Interface for the gateway.
type GatewayService struct {
	app    *fx.App
	logger service.Logger
}

// NewGatewayService creates a new gateway service.
func NewGatewayService() *GatewayService {
	return &GatewayService{}
}

// Start implements service.Interface.Start
func (s *GatewayService) Start(svc service.Service) error {
	if s.logger != nil {
		s.logger.Info("Starting mochibot gateway service")
	}

	s.app = newApp(fx.NopLogger)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.app.Start(ctx)
}

// Stop implements service.Interface.Stop
func (s *GatewayService) Stop(svc service.Service) error {
	if s.logger != nil {
		s.logger.Info("Stopping mochibot gateway service")
	}
	if s.app == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.app.Stop(ctx); err != nil {
		if s.logger != nil {
			s.logger.Errorf("Error stopping service: %v", err)
		}
		return err
	}
	return nil
}

// newApp assembles the bot: config and logging, the API clients, the
// interaction router, commands, the Discord channel and the ops gateway.
func newApp(opts ...fx.Option) *fx.App {
	modules := []fx.Option{
		fx.Supply(config.Path(configPath)),
		config.Module,
		logger.Module,
		state.Module,
		cron.Module,
		gateway.Module,
		interaction.Module,
		defi.Module,
		community.Module,
		chart.Module,
		commands.Module,
		channels.Module,

		fx.Invoke(func(lc fx.Lifecycle, log *logger.Logger, cm *channels.Manager, cfg *config.Config) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					log.Info("Gateway started",
						zap.String("host", cfg.Gateway.Host),
						zap.Int("port", cfg.Gateway.Port))

					enabled := cm.GetEnabledChannels()
					if len(enabled) == 0 {
						log.Warn("No channels enabled")
						return nil
					}
					names := make([]string, len(enabled))
					for i, ch := range enabled {
						names[i] = ch.Name()
					}
					log.Info("Active channels", zap.Strings("channels", names))
					return nil
				},
			})
		}),
	}
	return fx.New(append(modules, opts...)...)
}

// ServiceConfig returns the service configuration. The config file in use
// is passed on so the service loads the same one.
func ServiceConfig() *service.Config {
	args := []string{"gateway", "run"}
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(config.ConfigPathEnv))
	}
	if path != "" {
		args = append([]string{"-c", path}, args...)
	}

	return &service.Config{
		Name:        "mochibot-gateway",
		DisplayName: "Mochi Bot Gateway",
		Description: "Mochi Discord bot with its ops gateway",
		Arguments:   args,
	}
}

func newService() (service.Service, *GatewayService, error) {
	prg := NewGatewayService()
	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("creating service: %w", err)
	}
	return s, prg, nil
}

// InstallService installs the gateway as a system service.
func InstallService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}
	if err := s.Install(); err != nil {
		return fmt.Errorf("installing service: %w", err)
	}

	fmt.Println("Service installed successfully!")
	fmt.Println("Use 'mochibot gateway start' to start the service")
	return nil
}

// UninstallService uninstalls the gateway service.
func UninstallService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}
	if err := s.Uninstall(); err != nil {
		return fmt.Errorf("uninstalling service: %w", err)
	}

	fmt.Println("Service uninstalled successfully!")
	return nil
}

// StartService starts the gateway service.
func StartService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}

	fmt.Println("Service started successfully!")
	return nil
}

// StopService stops the gateway service.
func StopService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}
	if err := s.Stop(); err != nil {
		return fmt.Errorf("stopping service: %w", err)
	}

	fmt.Println("Service stopped successfully!")
	return nil
}

// RestartService restarts the gateway service.
func RestartService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}
	if err := s.Restart(); err != nil {
		return fmt.Errorf("restarting service: %w", err)
	}

	fmt.Println("Service restarted successfully!")
	return nil
}

// StatusService prints the status of the gateway service.
func StatusService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}
	status, err := s.Status()
	if err != nil {
		return fmt.Errorf("getting service status: %w", err)
	}

	fmt.Printf("Service Status: %s\n", statusName(status))
	return nil
}

func statusName(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "Running"
	case service.StatusStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// RunService runs the gateway under the service manager.
func RunService() error {
	s, prg, err := newService()
	if err != nil {
		return err
	}

	logger, err := s.Logger(nil)
	if err != nil {
		return fmt.Errorf("creating service logger: %w", err)
	}
	prg.logger = logger

	if err := s.Run(); err != nil {
		logger.Error(err)
		return err
	}
	return nil
}

// runGatewayForeground runs the gateway until interrupted.
func runGatewayForeground() {
	app := newApp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting gateway: %v\n", err)
		os.Exit(1)
	}

	<-ctx.Done()
	fmt.Println("\nShutting down gateway...")

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error stopping gateway: %v\n", err)
	}
}
