// Package main is the entry point for the mochibot CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mochibot/pkg/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mochibot",
	Short: "mochibot - Discord bot for crypto prices and community tools",
	Long: `mochibot is a Discord bot that answers prefix commands with price
charts, token lists, NFT lookups and server stats, and continues multi-step
commands through select menus and buttons.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetFullVersion())
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")

	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tickerCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
