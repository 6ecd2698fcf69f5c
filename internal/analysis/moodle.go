package analysis

import (
	"path"
	"strings"

	"github.com/VKCOM/php-parser/pkg/token"

	"github.com/whit3rabbit/phptestgen/internal/lexer"
)

const eventBaseClass = `core\event\base`

// IsUIFacing reports whether the file at pluginFilePath (relative to the
// Moodle root, slash separated) requires the root config.php. Such files are
// page scripts rather than library code.
func IsUIFacing(requires []Require, pluginFilePath string) bool {
	fileDepth := depth(path.Dir(strings.TrimLeft(pluginFilePath, "/")))
	for _, r := range requires {
		required := strings.TrimLeft(r.Path(), "/")
		if path.Base(required) != "config.php" {
			continue
		}
		if depth(path.Dir(required)) == fileDepth {
			return true
		}
	}
	return false
}

func depth(dir string) int {
	n := 0
	for _, part := range strings.Split(dir, "/") {
		if part != "" && part != "." {
			n++
		}
	}
	return n
}

// IsMoodleForm reports whether any class directly extends a moodleform.
// Indirect descendants are not detected.
func IsMoodleForm(extended map[string]Extension) bool {
	for _, ext := range extended {
		if strings.Contains(strings.ToLower(ext.Name), "moodleform") {
			return true
		}
	}
	return false
}

// IsEventClass reports whether any class extends \core\event\base.
func IsEventClass(extended map[string]Extension) bool {
	for _, ext := range extended {
		if IsEventBase(ext.Name) {
			return true
		}
	}
	return false
}

// IsEventBase reports whether parent names the Moodle event base class.
func IsEventBase(parent string) bool {
	return strings.EqualFold(strings.TrimLeft(parent, `\`), eventBaseClass)
}

// PluginComponent returns the value assigned to $plugin->component in a
// version.php source, or "" when there is none.
func PluginComponent(src []byte) string {
	var sig []*token.Token
	for _, t := range lexer.Lex(src) {
		if !lexer.IsWhitespace(t.ID) {
			sig = append(sig, t)
		}
	}
	for i := 0; i+4 < len(sig); i++ {
		if sig[i].ID != token.T_VARIABLE || string(sig[i].Value) != "$plugin" {
			continue
		}
		if sig[i+1].ID != token.T_OBJECT_OPERATOR ||
			!strings.EqualFold(string(sig[i+2].Value), "component") ||
			sig[i+3].ID != token.ID('=') ||
			sig[i+4].ID != token.T_CONSTANT_ENCAPSED_STRING {
			continue
		}
		return strings.Trim(string(sig[i+4].Value), `"'`)
	}
	return ""
}
