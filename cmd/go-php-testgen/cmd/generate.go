package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/whit3rabbit/phptestgen/internal/generator"
)

// generateCmd writes test skeletons for every eligible file in a plugin.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate test skeletons for a plugin",
	Long: `Walks the plugin directory and writes a PHPUnit skeleton into the plugin's
tests directory for each PHP file with public functions.

Files are skipped when a test already exists (unless --purge), when they are
UI scripts requiring the Moodle config.php, when they declare more than one
class, or when they extend moodleform.

Example:
  go-php-testgen generate --moodle-root /var/www/moodle --plugin-path local/housekeeping
  go-php-testgen generate -p mod/forum --purge --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		cmd.SilenceUsage = true

		gen, err := newGenerator()
		if err != nil {
			return err
		}

		report, runErr := gen.Run(cmd.Context())
		if report != nil && !cfg.Silent {
			report.Print(cmd.OutOrStdout())
		}
		if runErr != nil {
			return runErr
		}
		if len(report.Errors) > 0 {
			return fmt.Errorf("%d file(s) failed", len(report.Errors))
		}
		return nil
	},
}

// newGenerator builds a generator for the configured plugin.
func newGenerator() (*generator.Generator, error) {
	if cfg.PluginPath == "" {
		return nil, fmt.Errorf("plugin path (-p, --plugin-path) is required")
	}
	plugin, err := generator.NewPlugin(cfg.MoodleRoot, cfg.PluginPath, cfg.Component)
	if err != nil {
		return nil, err
	}
	logger.Debug("plugin resolved", "dir", plugin.Dir, "component", plugin.Component)
	return generator.New(cfg, plugin, logger)
}

func init() {
	addPluginFlags(generateCmd)
}
