package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/whit3rabbit/phptestgen/internal/analysis"
)

// Plugin is a Moodle plugin directory inside a Moodle root.
type Plugin struct {
	Root      string // Moodle dirroot
	Path      string // slash separated, relative to Root, e.g. local/demo
	Dir       string // Root joined with Path
	Component string // frankenstyle name, e.g. local_demo
}

// NewPlugin checks that root/path is a plugin directory with a version.php
// and works out its component. An empty component is read from version.php,
// falling back to type_name for two-part paths.
func NewPlugin(root, path, component string) (*Plugin, error) {
	path = strings.Trim(filepath.ToSlash(path), "/")
	if !strings.Contains(path, "/") {
		return nil, fmt.Errorf("%w: %q must be of the form type/name", ErrInvalidPluginPath, path)
	}

	dir := filepath.Join(root, filepath.FromSlash(path))
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotAPlugin, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotAPlugin, dir)
	}

	versionFile := filepath.Join(dir, "version.php")
	versionSrc, err := os.ReadFile(versionFile)
	if err != nil {
		return nil, fmt.Errorf("%w: missing version.php in %s: %w", ErrNotAPlugin, dir, err)
	}

	if component == "" {
		component = analysis.PluginComponent(versionSrc)
	}
	if component == "" {
		parts := strings.Split(path, "/")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: cannot derive a component from %q, set component explicitly", ErrInvalidPluginPath, path)
		}
		component = parts[0] + "_" + parts[1]
	}

	return &Plugin{
		Root:      root,
		Path:      path,
		Dir:       dir,
		Component: component,
	}, nil
}

// Rel returns file's slash separated path relative to the plugin directory.
func (p *Plugin) Rel(file string) (string, error) {
	rel, err := filepath.Rel(p.Dir, file)
	if err != nil {
		return "", fmt.Errorf("error getting relative path for %s: %w", file, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside plugin %s", file, p.Dir)
	}
	return rel, nil
}
