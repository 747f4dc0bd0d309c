package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the bot with its ops gateway",
	Long: `Connect the bot to Discord and serve the ops gateway (health, open
sessions, scheduled jobs and metrics).

It can run in foreground mode or be installed as a system service.

Examples:
  # Run in foreground (default)
  mochibot gateway

  # Install as system service (requires sudo/admin privileges)
  sudo mochibot gateway install

  # Control the service
  sudo mochibot gateway start
  sudo mochibot gateway stop
  sudo mochibot gateway restart
  mochibot gateway status

  # Uninstall the service
  sudo mochibot gateway uninstall`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Starting mochibot gateway in foreground mode...")
		fmt.Println("To install as a system service, use: mochibot gateway install")
		fmt.Println()

		runGatewayForeground()
	},
}

var gatewayRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run gateway in foreground or as service",
	Long:  `Run the gateway. When installed as a service, this is called automatically.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !runningAsService() {
			runGatewayForeground()
			return
		}
		if err := RunService(); err != nil {
			fmt.Fprintf(os.Stderr, "Error running service: %v\n", err)
			os.Exit(1)
		}
	},
}

// runningAsService reports whether a service manager started the process.
func runningAsService() bool {
	return os.Getenv("INVOCATION_ID") != "" || // systemd
		os.Getenv("_") == "/bin/launchd" || // launchd
		os.Getenv("SERVICE_NAME") != "" // Windows service
}

// serviceCommand builds a subcommand that runs one service manager action.
func serviceCommand(use, short, verb string, privileged bool, action func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Run: func(cmd *cobra.Command, args []string) {
			if err := action(); err != nil {
				fmt.Fprintf(os.Stderr, "Error %s service: %v\n", verb, err)
				if privileged {
					fmt.Fprintln(os.Stderr, "\nNote: managing system services requires administrator privileges.")
					fmt.Fprintln(os.Stderr, "Please run with sudo (Linux/macOS) or as Administrator (Windows).")
				}
				os.Exit(1)
			}
		},
	}
}

func init() {
	gatewayCmd.AddCommand(
		gatewayRunCmd,
		serviceCommand("install", "Install gateway as system service", "installing", true, InstallService),
		serviceCommand("uninstall", "Uninstall gateway service", "uninstalling", true, UninstallService),
		serviceCommand("start", "Start gateway service", "starting", true, StartService),
		serviceCommand("stop", "Stop gateway service", "stopping", true, StopService),
		serviceCommand("restart", "Restart gateway service", "restarting", true, RestartService),
		serviceCommand("status", "Check gateway service status", "checking", false, StatusService),
	)
}
