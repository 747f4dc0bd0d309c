package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mochibot/pkg/interaction"
	"mochibot/pkg/logger"
)

// ErrUnknownCommand is returned by Execute for names nothing is registered
// under.
var ErrUnknownCommand = errors.New("unknown command")

const (
	adminOnlyMessage = "This command is only available to server administrators."
	failureMessage   = "Something went wrong while running this command, please try again later."
)

// Invoker runs commands, sends their first response and registers the
// session a multi-step command leaves behind.
type Invoker struct {
	registry *Registry
	router   *interaction.Router
	log      *logger.Logger
	timeout  func() time.Duration
}

// NewInvoker creates an Invoker. timeout is read on every run so reloads
// apply; nil means 30 seconds.
func NewInvoker(registry *Registry, router *interaction.Router, log *logger.Logger, timeout func() time.Duration) *Invoker {
	if timeout == nil {
		timeout = func() time.Duration { return 30 * time.Second }
	}
	return &Invoker{
		registry: registry,
		router:   router,
		log:      log,
		timeout:  timeout,
	}
}

// Registry returns the command registry.
func (inv *Invoker) Registry() *Registry {
	return inv.registry
}

// Execute runs req.Command and renders its response through out.
func (inv *Invoker) Execute(ctx context.Context, req CommandRequest, out interaction.Renderer) error {
	cmd, ok := inv.registry.Get(req.Command)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, req.Command)
	}

	log := inv.log.WithFields(
		zap.String("command", cmd.Name),
		zap.String("user_id", req.UserID),
		zap.String("channel_id", req.ChannelID))

	ev := interaction.Event{
		UserID:    req.UserID,
		Username:  req.Username,
		GuildID:   req.GuildID,
		ChannelID: req.ChannelID,
		Raw:       req.Raw,
	}

	if cmd.AdminOnly && !req.IsAdmin {
		log.Info("Rejected admin command")
		_, err := out.ApplyRender(ctx, ev, interaction.TargetNew, errorRender(adminOnlyMessage))
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, inv.timeout())
	defer cancel()

	resp, err := cmd.Handler(runCtx, req)
	if err != nil {
		log.Error("Command failed", zap.Error(err))
		if _, renderErr := out.ApplyRender(ctx, ev, interaction.TargetNew, errorRender(failureMessage)); renderErr != nil {
			log.Warn("Failed to send failure notice", zap.Error(renderErr))
		}
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}

	target := interaction.TargetNew
	if resp.Ephemeral {
		target = interaction.TargetEphemeral
	}
	ref, err := out.ApplyRender(ctx, ev, target, resp.Message())
	if err != nil {
		return fmt.Errorf("send %s response: %w", cmd.Name, err)
	}

	if resp.Session == nil {
		return nil
	}

	key := interaction.KeyFor(req.UserID, req.GuildID, req.ChannelID, ref.MessageID)
	ttl := resp.Session.TTL
	if ttl <= 0 {
		ttl = inv.router.DefaultTTL()
	}
	opts := []interaction.SessionOption{interaction.Command(cmd.Name)}
	if resp.Session.Shared {
		opts = append(opts, interaction.Shared())
	}
	if _, err := inv.router.Register(key, resp.Session.Continuation, ttl, opts...); err != nil {
		return fmt.Errorf("register %s session: %w", cmd.Name, err)
	}
	return nil
}
