package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUIFacing(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		filePath string
		want     bool
	}{
		{"root config from plugin script", `<?php require_once(__DIR__ . '/../../config.php');`, "/local/demo/index.php", true},
		{"dirname form", `<?php require(dirname(dirname(__FILE__)) . '/../../../config.php');`, "local/demo/sub/view.php", true},
		{"config found after other requires", `<?php require_once('lib.php'); require('../../config.php');`, "local/demo/index.php", true},
		{"plugin's own config", `<?php require_once(__DIR__ . '/config.php');`, "local/demo/index.php", false},
		{"depth mismatch", `<?php require_once('../config.php');`, "local/demo/index.php", false},
		{"library file", `<?php require_once($CFG->libdir . '/formslib.php');`, "local/demo/lib.php", false},
		{"no requires", `<?php function a() {}`, "local/demo/lib.php", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Analyze(tt.filePath, []byte(tt.src))
			assert.Equal(t, tt.want, IsUIFacing(f.Requires(), tt.filePath))
		})
	}
}

func TestIsMoodleForm(t *testing.T) {
	assert.True(t, IsMoodleForm(Analyze("f.php", []byte(`<?php class edit_form extends \moodleform {}`)).ExtendedClasses()))
	assert.True(t, IsMoodleForm(Analyze("f.php", []byte(`<?php class edit_form extends \core_form\dynamic_MoodleForm {}`)).ExtendedClasses()))
	assert.False(t, IsMoodleForm(Analyze("f.php", []byte(`<?php class a extends b {}`)).ExtendedClasses()))
	assert.False(t, IsMoodleForm(nil))
}

func TestIsEventClass(t *testing.T) {
	assert.True(t, IsEventClass(Analyze("e.php", []byte(`<?php class thing_viewed extends \core\event\base {}`)).ExtendedClasses()))
	assert.True(t, IsEventClass(Analyze("e.php", []byte(`<?php class thing_viewed extends core\event\base {}`)).ExtendedClasses()))
	assert.False(t, IsEventClass(Analyze("e.php", []byte(`<?php class thing_viewed extends \core\event\course_viewed {}`)).ExtendedClasses()))
}

func TestPluginComponent(t *testing.T) {
	src := `<?php
defined('MOODLE_INTERNAL') || die();

$plugin->version   = 2024010100;
$plugin->component = 'local_demo';
$plugin->requires  = 2022112800;
`
	assert.Equal(t, "local_demo", PluginComponent([]byte(src)))
	assert.Equal(t, "mod_x", PluginComponent([]byte(`<?php $plugin->component="mod_x";`)))
	assert.Empty(t, PluginComponent([]byte(`<?php $plugin->version = 1;`)))
}

func TestValidate(t *testing.T) {
	names, err := Validate([]byte(`<?php
namespace a;
interface i {}
trait t {}
class c implements i { use t; public function m() { return new class {}; } }
enum e: int { case One = 1; }
`), "PREFER_PHP8")
	require.NoError(t, err)
	assert.Equal(t, []string{"i", "t", "c", "e"}, names)

	_, err = Validate([]byte(`<?php class {`), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntax))
}

func TestParserVersion(t *testing.T) {
	assert.EqualValues(t, 5, ParserVersion("prefer_php5").Major)
	assert.EqualValues(t, 7, ParserVersion("ONLY_PHP7").Major)
	assert.EqualValues(t, 8, ParserVersion("").Major)
}
