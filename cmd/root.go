/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "adoptly",
	Short: "Pet adoption API server",
	Long: `adoptly serves the pet catalog, adoption requests, favorites and the
contact inbox over HTTP, and ships the tooling to run it:

	adoptly server
	adoptly migrate up
	adoptly worker
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
