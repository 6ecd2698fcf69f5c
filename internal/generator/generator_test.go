package generator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whit3rabbit/phptestgen/internal/config"
)

const versionPHP = `<?php
defined('MOODLE_INTERNAL') || die();
$plugin->version   = 2024010100;
$plugin->component = 'local_demo';
`

// writeFiles creates files under dir from a path => content map.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
}

// fixturePlugin builds a Moodle root containing local/demo.
func fixturePlugin(t *testing.T) (root string) {
	t.Helper()
	root = t.TempDir()
	writeFiles(t, filepath.Join(root, "local", "demo"), map[string]string{
		"version.php":  versionPHP,
		"settings.php": "<?php function settings_helper() {}",
		"lib.php": `<?php
defined('MOODLE_INTERNAL') || die();
function local_demo_extend_navigation($nav) {}
`,
		"index.php": `<?php
require_once(__DIR__ . '/../../config.php');
function page_helper() {}
`,
		"classes/task/cleanup.php": `<?php
namespace local_demo\task;
class cleanup extends \core\task\scheduled_task {
    public function get_name() { return 'x'; }
    public function execute() {}
}
`,
		"classes/two.php":         "<?php class one { public function a() {} }\nclass two { public function b() {} }\n",
		"classes/form/edit.php":   "<?php class edit extends \\moodleform { public function definition() {} }\n",
		"classes/constants.php":   "<?php class constants { const A = 1; }\n",
		"classes/broken.php":      "<?php class broken { public function a() {\n",
		"db/access.php":           "<?php function db_helper() {}",
		"lang/en/local_demo.php":  "<?php $string['pluginname'] = 'Demo';",
		"tests/existing_test.php": "<?php class existing {}",
		"readme.txt":              "not php",
	})
	return root
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGenerator(t *testing.T, root string, mutate func(*config.Config)) *Generator {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	plugin, err := NewPlugin(root, "local/demo", "")
	require.NoError(t, err)
	g, err := New(cfg, plugin, quietLogger())
	require.NoError(t, err)
	return g
}

func skippedReasons(r *Report) map[string]error {
	out := make(map[string]error, len(r.Skipped))
	for _, s := range r.Skipped {
		out[s.Path] = s.Reason
	}
	return out
}

func TestRun(t *testing.T) {
	root := fixturePlugin(t)
	g := newGenerator(t, root, nil)

	report, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Errors)

	generated := append([]string(nil), report.Generated...)
	sort.Strings(generated)
	assert.Equal(t, []string{"tests/classes_task_test_cleanup.php", "tests/test_lib.php"}, generated)

	skipped := skippedReasons(report)
	assert.True(t, errors.Is(skipped["index.php"], ErrUIFacing))
	assert.True(t, errors.Is(skipped["classes/two.php"], ErrMultipleClasses))
	assert.True(t, errors.Is(skipped["classes/form/edit.php"], ErrMoodleForm))
	assert.True(t, errors.Is(skipped["classes/constants.php"], ErrNoFunctions))
	assert.True(t, errors.Is(skipped["classes/broken.php"], ErrSyntax))
	assert.NotContains(t, skipped, "settings.php")
	assert.NotContains(t, skipped, "version.php")
	assert.NotContains(t, skipped, "db/access.php")

	written, err := os.ReadFile(filepath.Join(root, "local", "demo", "tests", "classes_task_test_cleanup.php"))
	require.NoError(t, err)
	assert.Contains(t, string(written), "namespace local_demo;")
	assert.Contains(t, string(written), "require_once(__DIR__ . '/../classes/task/cleanup.php');")
	assert.Contains(t, string(written), "$cleanup = new \\local_demo\\task\\cleanup();")
	assert.Contains(t, string(written), "public function test_execute() {")
}

func TestRunSkipsExistingUnlessPurge(t *testing.T) {
	root := fixturePlugin(t)
	testFile := filepath.Join(root, "local", "demo", "tests", "test_lib.php")
	writeFiles(t, filepath.Dir(testFile), map[string]string{"test_lib.php": "keep me"})

	report, err := newGenerator(t, root, nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, errors.Is(skippedReasons(report)["lib.php"], ErrTestExists))
	content, _ := os.ReadFile(testFile)
	assert.Equal(t, "keep me", string(content))

	report, err = newGenerator(t, root, func(c *config.Config) { c.Purge = true }).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, report.Generated, "tests/test_lib.php")
	content, _ = os.ReadFile(testFile)
	assert.Contains(t, string(content), "test_local_demo_extend_navigation")
}

func TestRunDryRun(t *testing.T) {
	root := fixturePlugin(t)
	report, err := newGenerator(t, root, func(c *config.Config) { c.DryRun = true }).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Len(t, report.Generated, 2)
	assert.NoFileExists(t, filepath.Join(root, "local", "demo", "tests", "test_lib.php"))

	var out bytes.Buffer
	report.Print(&out)
	assert.Contains(t, out.String(), "Would generate tests/test_lib.php")
	assert.Contains(t, out.String(), "2 generated")
}

func TestRunWithoutValidationOrFormSkip(t *testing.T) {
	root := fixturePlugin(t)
	report, err := newGenerator(t, root, func(c *config.Config) {
		c.ValidateSyntax = false
		c.SkipMoodleForms = false
		c.DryRun = true
	}).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, report.Generated, "tests/classes_form_test_edit.php")
	assert.Contains(t, report.Generated, "tests/classes_test_broken.php")
}

func TestRunCancelled(t *testing.T) {
	root := fixturePlugin(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newGenerator(t, root, nil).Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunAbortOnError(t *testing.T) {
	tests := []struct {
		name       string
		abort      bool
		wantErrors int
		wantErr    bool
	}{
		{"collects every failure", false, 3, false},
		{"stops at the first failure", true, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			dir := filepath.Join(root, "local", "demo")
			writeFiles(t, dir, map[string]string{
				"version.php": versionPHP,
				"a.php":       "<?php function a() {}",
				"b.php":       "<?php function b() {}",
				"c.php":       "<?php function c() {}",
				// A file in place of the tests directory fails every file.
				"tests": "not a directory",
			})

			report, err := newGenerator(t, root, func(c *config.Config) {
				c.AbortOnError = tt.abort
			}).Run(context.Background())

			require.NotNil(t, report)
			assert.Len(t, report.Errors, tt.wantErrors)
			assert.Empty(t, report.Generated)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "generation aborted")
				assert.ErrorIs(t, err, report.Errors[0])
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExcluded(t *testing.T) {
	root := fixturePlugin(t)
	g := newGenerator(t, root, func(c *config.Config) {
		c.ExcludeFiles = append(c.ExcludeFiles, "classes/privacy/*")
		c.PhpExtensions = []string{".php", "inc"}
	})

	tests := []struct {
		rel   string
		isDir bool
		want  bool
	}{
		{"lib.php", false, false},
		{"settings.php", false, true},
		{"classes/privacy/provider.php", false, true},
		{"classes/task/cleanup.php", false, false},
		{"legacy.inc", false, false},
		{"readme.txt", false, true},
		{"tests", true, true},
		{"classes/tests", true, false},
		{"classes/admin/settings.php", false, false},
		{"classes/local/db/helper.php", false, false},
		{"classes/local/db", true, false},
		{"db/access.php", false, true},
		{"lang/en/local_demo.php", false, true},
		{"classes/vendor", true, true},
		{"classes/vendor/lib.php", false, true},
		{"classes", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Excluded(tt.rel, tt.isDir))
		})
	}
}

func TestNewRejectsBadPattern(t *testing.T) {
	root := fixturePlugin(t)
	plugin, err := NewPlugin(root, "local/demo", "")
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	cfg.ExcludeFiles = []string{"[unclosed"}
	_, err = New(cfg, plugin, nil)
	assert.Error(t, err)
}

func TestProcessFileOutsidePlugin(t *testing.T) {
	root := fixturePlugin(t)
	g := newGenerator(t, root, nil)
	_, err := g.ProcessFile(filepath.Join(root, "other.php"))
	require.Error(t, err)
	assert.False(t, IsSkip(err))
}
