package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"mochibot/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the config file",
	Long: `Load the config file (creating it with defaults if missing) and report
every invalid field.

Examples:
  mochibot config validate
  mochibot -c ./config.json config validate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := config.NewLoader()
		cfg, err := loader.Load(configPath)
		if err != nil {
			return err
		}

		fmt.Printf("Config file: %s\n", loader.ConfigFileUsed())
		if err := config.ValidateConfig(cfg); err != nil {
			var merr *multierror.Error
			if errors.As(err, &merr) {
				for _, e := range merr.Errors {
					fmt.Fprintf(os.Stderr, "  ✗ %v\n", e)
				}
				return fmt.Errorf("%d invalid field(s)", len(merr.Errors))
			}
			return err
		}
		fmt.Println("✓ Configuration is valid")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
