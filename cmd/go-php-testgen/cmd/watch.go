package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/whit3rabbit/phptestgen/internal/generator"
	"github.com/whit3rabbit/phptestgen/internal/watcher"
)

// watchCmd generates skeletons for files as they are written.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a plugin and generate test skeletons for changed files",
	Long: `Watches the plugin directory and runs generation for each PHP file that is
created or written. Existing test files are left alone unless --purge is set.
Runs until interrupted.

Example:
  go-php-testgen watch -p local/housekeeping`,
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

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		w, err := watcher.New(gen.Plugin().Dir, cfg.WatchDebounce(), gen.Excluded, func(paths []string) {
			processBatch(cmd, gen, paths)
		}, logger)
		if err != nil {
			return err
		}
		if err := w.Watch(); err != nil {
			w.Close()
			return err
		}

		logger.Info("watching plugin", "dir", gen.Plugin().Dir)
		return w.Run(ctx)
	},
}

func processBatch(cmd *cobra.Command, gen *generator.Generator, paths []string) {
	for _, path := range paths {
		testFile, err := gen.ProcessFile(path)
		switch {
		case err == nil:
			if !cfg.Silent {
				fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", testFile)
			}
		case generator.IsSkip(err):
			logger.Info("skipping file", "path", path, "reason", err)
		default:
			logger.Error("failed to process file", "path", path, "error", err)
		}
	}
}

func init() {
	addPluginFlags(watchCmd)
}
