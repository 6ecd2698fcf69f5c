// Package api provides the public API for generating Moodle PHPUnit test
// skeletons as a library.
//
// The API exposes the same analysis and rendering the command-line tool uses:
// extracting facts from PHP source, rendering a single test file, and running
// generation over a whole plugin.
//
// Basic usage example:
//
//	gen, err := api.NewGenerator(api.Options{
//	    MoodleRoot: "/var/www/moodle",
//	    PluginPath: "local/housekeeping",
//	})
//	if err != nil {
//	    log.Fatalf("Failed to create generator: %v", err)
//	}
//
//	report, err := gen.GeneratePlugin(context.Background())
//	if err != nil {
//	    log.Fatalf("Generation failed: %v", err)
//	}
//	report.Print(os.Stdout)
package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/whit3rabbit/phptestgen/internal/analysis"
	"github.com/whit3rabbit/phptestgen/internal/config"
	"github.com/whit3rabbit/phptestgen/internal/generator"
	"github.com/whit3rabbit/phptestgen/internal/skeleton"
)

// Generator bundles a loaded configuration with the logger used for runs.
type Generator struct {
	// Config holds the settings used for analysis, rendering and generation.
	Config *config.Config

	logger *slog.Logger
}

// Options represents configuration options for creating a new Generator.
type Options struct {
	// ConfigPath is the path to a YAML configuration file.
	// If empty, config.yaml in the working directory is used when present.
	ConfigPath string

	// Silent suppresses informational log messages.
	Silent bool

	// MoodleRoot, PluginPath and Component override the configuration when set.
	MoodleRoot string
	PluginPath string
	Component  string

	// LogOutput receives log output. Defaults to os.Stderr.
	LogOutput io.Writer
}

// NewGenerator loads the configuration and applies options on top of it.
func NewGenerator(options Options) (*Generator, error) {
	cfg, err := config.LoadConfig(options.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if options.Silent {
		cfg.Silent = true
	}
	if options.MoodleRoot != "" {
		cfg.MoodleRoot = options.MoodleRoot
	}
	if options.PluginPath != "" {
		cfg.PluginPath = options.PluginPath
	}
	if options.Component != "" {
		cfg.Component = options.Component
	}

	out := options.LogOutput
	if out == nil {
		out = os.Stderr
	}
	return &Generator{Config: cfg, logger: cfg.NewLogger(out)}, nil
}

// AnalyzeCode extracts facts from a string of PHP code. With syntax
// validation enabled, code the PHP parser rejects returns an error.
func (g *Generator) AnalyzeCode(code string) (*analysis.Facts, error) {
	return g.analyze(analysis.Analyze("", []byte(code)))
}

// AnalyzeFile extracts facts from a PHP file.
func (g *Generator) AnalyzeFile(path string) (*analysis.Facts, error) {
	f, err := analysis.AnalyzeFile(path)
	if err != nil {
		return nil, err
	}
	return g.analyze(f)
}

func (g *Generator) analyze(f *analysis.File) (*analysis.Facts, error) {
	if g.Config.ValidateSyntax {
		if _, err := analysis.Validate(f.Source(), g.Config.ParserMode); err != nil {
			return nil, err
		}
	}
	return f.Facts(), nil
}

// RenderCode renders the test file for PHP code that lives at relPath inside
// the plugin. The configured component is used as the test namespace.
func (g *Generator) RenderCode(code, relPath string) (string, error) {
	facts, err := g.AnalyzeCode(code)
	if err != nil {
		return "", err
	}
	r := &skeleton.Renderer{
		Component:     g.Config.Component,
		EventTriggers: g.Config.EventTriggerTests,
	}
	out, err := r.Render(facts, relPath)
	if err != nil {
		return "", fmt.Errorf("failed to render test for %s: %w", relPath, err)
	}
	return string(out), nil
}

// GeneratePlugin writes test skeletons for the configured plugin.
func (g *Generator) GeneratePlugin(ctx context.Context) (*generator.Report, error) {
	plugin, err := generator.NewPlugin(g.Config.MoodleRoot, g.Config.PluginPath, g.Config.Component)
	if err != nil {
		return nil, err
	}
	gen, err := generator.New(g.Config, plugin, g.logger)
	if err != nil {
		return nil, err
	}
	return gen.Run(ctx)
}
