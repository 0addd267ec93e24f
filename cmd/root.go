package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/user/foodlog/internal/errors"
)

var (
	configFile string
	debugFlag  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "foodlog",
	Short: "Food logging backend with LLM nutrition estimates",
	Long: `Estimate calories and macronutrients for meals using a large language model.

Foodlog serves an HTTP API that accepts a text meal description, a meal photo,
or questionnaire answers and returns a validated nutrition record. The same
pipeline can be run once from the command line with "foodlog estimate".`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the error's exit code
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_ = HandleCommandError(err, os.Stderr)
		os.Exit(errors.ExitCodeOf(err).Int())
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./foodlog.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

// baseOverrides returns the CLI overrides shared by every command
func baseOverrides() map[string]interface{} {
	overrides := map[string]interface{}{}
	if debugFlag {
		overrides["debug"] = true
	}
	return overrides
}
