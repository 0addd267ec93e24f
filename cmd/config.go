package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/user/foodlog/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect foodlog settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration assembled from defaults, ~/.foodlog.yaml,
./foodlog.yaml (or --config), FOODLOG_* environment variables and flags.

Credentials are masked.`,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, baseOverrides())
	if err != nil {
		return err
	}
	return writeConfig(cmd.OutOrStdout(), cfg)
}

// writeConfig prints cfg as YAML with credentials masked
func writeConfig(w io.Writer, cfg *config.Config) error {
	masked := *cfg
	masked.LLM.APIKey = MaskSecret(cfg.LLM.APIKey)
	masked.Storage.AccessKeyID = MaskSecret(cfg.Storage.AccessKeyID)
	masked.Storage.SecretAccessKey = MaskSecret(cfg.Storage.SecretAccessKey)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
