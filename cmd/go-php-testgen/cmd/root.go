// Package cmd implements the command line interface for the application.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/whit3rabbit/phptestgen/internal/config"
)

var (
	cfgFile string         // --config
	cfg     *config.Config // loaded in PersistentPreRunE
	logger  *slog.Logger

	// Flag variables mapped to config fields for override
	silentMode   bool   // -> cfg.Silent
	debugMode    bool   // -> cfg.DebugMode
	abortOnError bool   // -> cfg.AbortOnError
	pluginPath   string // -> cfg.PluginPath
	moodleRoot   string // -> cfg.MoodleRoot
	component    string // -> cfg.Component
	purge        bool   // -> cfg.Purge
	dryRun       bool   // -> cfg.DryRun
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "go-php-testgen",
	Short: "Generate PHPUnit test skeletons for Moodle plugins",
	Long: `go-php-testgen scans a Moodle plugin, lexically parses every PHP file to
find its classes, functions, includes, namespace and inheritance, and writes
skeleton PHPUnit test files with placeholder assertions.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}
		cfg = loadedCfg
		applyFlagOverrides(cfg, cmd)
		logger = cfg.NewLogger(cmd.ErrOrStderr())
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// applyFlagOverrides applies command-line flag values to the config struct.
// Only overrides if the flag was explicitly set by the user via cmd.Flags().Changed().
func applyFlagOverrides(cfg *config.Config, cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("silent") {
		cfg.Silent = silentMode
	}
	if flags.Changed("debug") {
		cfg.DebugMode = debugMode
	}
	if flags.Changed("abort-on-error") {
		cfg.AbortOnError = abortOnError
	}
	if flags.Changed("plugin-path") {
		cfg.PluginPath = pluginPath
	}
	if flags.Changed("moodle-root") {
		cfg.MoodleRoot = moodleRoot
	}
	if flags.Changed("component") {
		cfg.Component = component
	}
	if flags.Changed("purge") {
		cfg.Purge = purge
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = dryRun
	}
}

// addPluginFlags registers the flags that locate a plugin and control writing.
func addPluginFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&pluginPath, "plugin-path", "p", "", "Plugin path relative to the Moodle root, e.g. local/housekeeping (overrides config)")
	cmd.Flags().StringVarP(&moodleRoot, "moodle-root", "r", ".", "Moodle root directory (overrides config)")
	cmd.Flags().StringVar(&component, "component", "", "Plugin component, read from version.php when empty (overrides config)")
	cmd.Flags().BoolVar(&purge, "purge", false, "Overwrite existing test files (overrides config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be written without writing (overrides config)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&silentMode, "silent", "s", false, "Suppress informational output (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&abortOnError, "abort-on-error", false, "Stop processing on the first error (overrides config)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}
