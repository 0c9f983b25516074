package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vesta",
	Short: "Vesta - cost-reduction gateway for LLM inference",
	Long: `Vesta is a caching and routing gateway that sits in front of an LLM
inference API and reduces spend without changing client code.

It provides:
  - Two-tier response caching (exact fingerprint + semantic similarity)
  - Cost-, latency-, and capability-aware model routing
  - Per-request cost ceilings and strategy overrides via headers
  - Usage accounting with savings attribution`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when omitted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
