// Package generator walks a Moodle plugin and writes a PHPUnit skeleton for
// each eligible PHP file.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/whit3rabbit/phptestgen/internal/analysis"
	"github.com/whit3rabbit/phptestgen/internal/config"
	"github.com/whit3rabbit/phptestgen/internal/skeleton"
)

// Generator produces test skeletons for one plugin.
type Generator struct {
	cfg      *config.Config
	plugin   *Plugin
	logger   *slog.Logger
	renderer *skeleton.Renderer

	excludeFiles []pattern
	excludeDirs  []pattern
	extensions   map[string]bool
}

// New prepares a generator. Exclusion patterns are compiled here so bad
// patterns fail before any file is touched.
func New(cfg *config.Config, plugin *Plugin, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		cfg:    cfg,
		plugin: plugin,
		logger: logger,
		renderer: &skeleton.Renderer{
			Component:     plugin.Component,
			EventTriggers: cfg.EventTriggerTests,
		},
		extensions: make(map[string]bool, len(cfg.PhpExtensions)),
	}

	var err error
	if g.excludeFiles, err = compileGlobs(cfg.ExcludeFiles); err != nil {
		return nil, fmt.Errorf("invalid exclude file pattern: %w", err)
	}
	if g.excludeDirs, err = compileGlobs(cfg.ExcludeDirs); err != nil {
		return nil, fmt.Errorf("invalid exclude dir pattern: %w", err)
	}
	for _, ext := range cfg.PhpExtensions {
		g.extensions[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return g, nil
}

// pattern is a compiled exclusion glob. Anchored patterns were written with a
// leading / and only match the path from the plugin root.
type pattern struct {
	glob     glob.Glob
	anchored bool
}

func compileGlobs(patterns []string) ([]pattern, error) {
	compiled := make([]pattern, 0, len(patterns))
	for _, p := range patterns {
		anchored := strings.HasPrefix(p, "/")
		g, err := glob.Compile(strings.TrimPrefix(p, "/"), '/')
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		compiled = append(compiled, pattern{glob: g, anchored: anchored})
	}
	return compiled, nil
}

func matchAny(patterns []pattern, rel string) bool {
	base := path.Base(rel)
	for _, p := range patterns {
		if p.glob.Match(rel) || !p.anchored && p.glob.Match(base) {
			return true
		}
	}
	return false
}

// Plugin returns the plugin being processed.
func (g *Generator) Plugin() *Plugin { return g.plugin }

// Excluded reports whether the plugin-relative path rel is filtered out,
// either by its own name or by one of its parent directories.
func (g *Generator) Excluded(rel string, isDir bool) bool {
	if isDir {
		return matchAny(g.excludeDirs, rel)
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(rel), "."))
	if !g.extensions[ext] {
		return true
	}
	if matchAny(g.excludeFiles, rel) {
		return true
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if matchAny(g.excludeDirs, dir) {
			return true
		}
	}
	return false
}

// TestPath returns the absolute path of the test file for the plugin-relative source rel.
func (g *Generator) TestPath(rel string) string {
	return filepath.Join(g.plugin.Dir, filepath.FromSlash(g.cfg.TestsDir), skeleton.TestBaseName(rel))
}

// Run walks the plugin and processes every eligible file. Per-file failures
// are collected in the report unless AbortOnError is set, in which case the
// first one is returned.
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	report := &Report{DryRun: g.cfg.DryRun}

	walkErr := filepath.WalkDir(g.plugin.Dir, func(entryPath string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			accessErr := fmt.Errorf("error accessing path %q: %w", entryPath, err)
			report.Errors = append(report.Errors, accessErr)
			if g.cfg.AbortOnError {
				return accessErr
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entryPath == g.plugin.Dir {
			return nil
		}

		rel, relErr := g.plugin.Rel(entryPath)
		if relErr != nil {
			report.Errors = append(report.Errors, relErr)
			if g.cfg.AbortOnError {
				return relErr
			}
			return nil
		}

		if d.IsDir() {
			if g.Excluded(rel, true) {
				g.logger.Debug("skipping excluded directory", "path", rel)
				return filepath.SkipDir
			}
			return nil
		}
		if g.Excluded(rel, false) {
			return nil
		}

		g.logger.Info("processing file", "path", rel)
		testFile, procErr := g.ProcessFile(entryPath)
		report.add(rel, testFile, procErr)
		switch {
		case procErr == nil:
		case IsSkip(procErr):
			g.logger.Info("skipping file", "path", rel, "reason", procErr)
		default:
			g.logger.Error("failed to process file", "path", rel, "error", procErr)
			if g.cfg.AbortOnError {
				return procErr
			}
		}
		return nil
	})

	if walkErr != nil {
		return report, fmt.Errorf("generation aborted: %w", walkErr)
	}
	return report, nil
}

// ProcessFile generates the test skeleton for one plugin file and returns the
// plugin-relative test file path. Files that need no test return an error
// wrapping one of the skip reasons; see IsSkip.
func (g *Generator) ProcessFile(file string) (string, error) {
	rel, err := g.plugin.Rel(file)
	if err != nil {
		return "", err
	}
	testPath := g.TestPath(rel)
	testRel, err := g.plugin.Rel(testPath)
	if err != nil {
		return "", err
	}

	if !g.cfg.Purge {
		if _, statErr := os.Stat(testPath); statErr == nil {
			return "", fmt.Errorf("%s: %w (%s)", rel, ErrTestExists, testRel)
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			return "", fmt.Errorf("error checking test file %s: %w", testPath, statErr)
		}
	}

	parsed, err := analysis.AnalyzeFile(file)
	if err != nil {
		return "", err
	}

	classCount := len(parsed.Classes())
	if g.cfg.ValidateSyntax {
		names, valErr := analysis.Validate(parsed.Source(), g.cfg.ParserMode)
		if valErr != nil {
			return "", fmt.Errorf("%s: %w", rel, valErr)
		}
		if len(names) != classCount {
			g.logger.Debug("class count differs between token scan and parser",
				"path", rel, "tokens", classCount, "parser", len(names))
		}
		if len(names) > classCount {
			classCount = len(names)
		}
	}

	if analysis.IsUIFacing(parsed.Requires(), g.plugin.Path+"/"+rel) {
		return "", fmt.Errorf("%s: %w", rel, ErrUIFacing)
	}
	if classCount > 1 {
		return "", fmt.Errorf("%s: %w (%d)", rel, ErrMultipleClasses, classCount)
	}
	if g.cfg.SkipMoodleForms && analysis.IsMoodleForm(parsed.ExtendedClasses()) {
		return "", fmt.Errorf("%s: %w", rel, ErrMoodleForm)
	}
	if len(parsed.Functions()) == 0 {
		return "", fmt.Errorf("%s: %w", rel, ErrNoFunctions)
	}

	content, err := g.renderer.Render(parsed.Facts(), rel)
	if err != nil {
		return "", err
	}

	if g.cfg.DryRun {
		g.logger.Debug("dry run, not writing", "path", testRel, "bytes", len(content))
		return testRel, nil
	}
	if err := os.MkdirAll(filepath.Dir(testPath), 0755); err != nil {
		return "", fmt.Errorf("error creating tests directory %s: %w", filepath.Dir(testPath), err)
	}
	if err := os.WriteFile(testPath, content, 0644); err != nil {
		return "", fmt.Errorf("error writing test file %s: %w", testPath, err)
	}
	g.logger.Debug("wrote test file", "path", testRel)
	return testRel, nil
}
