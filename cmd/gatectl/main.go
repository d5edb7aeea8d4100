package main

import (
	"fmt"
	"os"

	"github.com/alphafinder/rategate/cmd/gatectl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "gatectl",
		Short: "Operator tool for the rategate admin API",
		Long:  "CLI for managing the rate limiter: whitelist, stats, and clearing throttle state.",
	}

	rootCmd.PersistentFlags().String("server", commands.DefaultServer, "Base URL of the rategate server")
	rootCmd.PersistentFlags().String("api-key", "", "Admin API key (or set GATECTL_API_KEY)")

	rootCmd.AddCommand(commands.NewWhitelistCmd())
	rootCmd.AddCommand(commands.NewStatsCmd())
	rootCmd.AddCommand(commands.NewClearCmd())
	rootCmd.AddCommand(commands.NewAuditCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
