package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"lumen-hq/vesta/pkg/catalog"
	"lumen-hq/vesta/pkg/cli"
	"lumen-hq/vesta/pkg/config"
)

var modelsFlags struct {
	output string
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the router can choose from",
	Long: `List the model catalog: built-in models plus any overrides from the
configured catalog file.

Examples:
  # Text listing
  vesta models

  # Machine-readable listing
  vesta models --output json

  # With a catalog override file
  vesta models --config vesta.yaml`,
	RunE: listModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().StringVarP(&modelsFlags.output, "output", "o", "text", "output format: text, json")
}

func listModels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cat := catalog.New()
	if cfg.Catalog.Path != "" {
		if err := cat.LoadFile(cfg.Catalog.Path); err != nil {
			return cli.NewCommandError("models", fmt.Errorf("loading catalog: %w", err))
		}
	}

	models := cat.Models()

	if cli.OutputFormat(modelsFlags.output) == cli.FormatJSON {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, map[string]interface{}{"models": models})
	}

	fmt.Printf("%d models\n\n", len(models))
	for _, m := range models {
		fmt.Printf("%-50s %-10s in $%.5f/1k  out $%.5f/1k  ctx %d\n",
			m.ID, m.QualityTier, m.InputPricePer1K, m.OutputPricePer1K, m.MaxContextLength)
	}
	return nil
}

// loadConfig loads the file named by --config, or defaults when omitted.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.NewDefault(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg, nil
}
