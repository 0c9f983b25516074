package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"lumen-hq/vesta/pkg/cli"
	"lumen-hq/vesta/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a configuration file",
	Long: `Load a configuration file, apply defaults and environment overrides,
and report every validation problem found.

Examples:
  # Check the default config
  vesta validate --config vesta.yaml

  # Check a production config
  vesta validate --config /etc/vesta/vesta.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return cli.NewConfigError("", "no config file specified (use --config)")
	}

	_, err := config.Load(cfgFile)
	if err != nil {
		var validationErr config.ValidationError
		if errors.As(err, &validationErr) {
			fmt.Printf("✗ %s has %d problem(s):\n", cfgFile, len(validationErr.Errors))
			for _, fieldErr := range validationErr.Errors {
				fmt.Printf("  - %s: %s\n", fieldErr.Field, fieldErr.Message)
			}
			return cli.NewCommandError("validate", err)
		}
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	fmt.Printf("✓ %s is valid\n", cfgFile)
	return nil
}
