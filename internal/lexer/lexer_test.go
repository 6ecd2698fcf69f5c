package lexer

import (
	"strings"
	"testing"

	"github.com/VKCOM/php-parser/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// significant drops whitespace and comments so assertions read like the code.
func significant(tokens []*token.Token) []*token.Token {
	var out []*token.Token
	for _, t := range tokens {
		if !IsWhitespace(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

func ids(tokens []*token.Token) []token.ID {
	out := make([]token.ID, len(tokens))
	for i, t := range tokens {
		out[i] = t.ID
	}
	return out
}

func values(tokens []*token.Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = string(t.Value)
	}
	return out
}

func TestLexRoundTrip(t *testing.T) {
	src := `<html><?php
// comment
namespace local_demo\task;
/** Doc */
class cleanup extends \core\task\scheduled_task {
    public static function run(int $a = 0x1F, ...$rest): ?string {
        $s = "hi $name" . 'x\'y' . <<<EOT
body {$a}
EOT;
        return $this->list[1.5e3] ?? null;
    }
}
?>
tail`
	tokens := Lex([]byte(src))

	var rebuilt []byte
	for _, tk := range tokens {
		rebuilt = append(rebuilt, tk.Value...)
	}
	assert.Equal(t, src, string(rebuilt), "token values must concatenate back to the source")

	last := tokens[len(tokens)-1]
	assert.Equal(t, token.T_INLINE_HTML, last.ID)
	assert.Equal(t, "tail", string(last.Value))
	assert.Equal(t, 14, last.Position.StartLine)
}

func TestLexOpenTags(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		first []token.ID
	}{
		{"full tag", "<?php echo 1;", []token.ID{token.T_OPEN_TAG, token.T_ECHO}},
		{"upper case", "<?PHP\necho 1;", []token.ID{token.T_OPEN_TAG, token.T_ECHO}},
		{"echo tag", "<?= $x ?>", []token.ID{token.T_OPEN_TAG_WITH_ECHO, token.T_VARIABLE, token.T_CLOSE_TAG}},
		{"html first", "hi<?php exit;", []token.ID{token.T_INLINE_HTML, token.T_OPEN_TAG, token.T_EXIT}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(significant(Lex([]byte(tt.src))))
			require.GreaterOrEqual(t, len(got), len(tt.first))
			assert.Equal(t, tt.first, got[:len(tt.first)])
		})
	}
}

func TestLexKeywordsAreCaseInsensitive(t *testing.T) {
	got := significant(Lex([]byte("<?php REQUIRE_ONCE 'a.php'; Namespace Foo; CLASS Bar EXTENDS Baz {}")))
	assert.Equal(t, []token.ID{
		token.T_OPEN_TAG,
		token.T_REQUIRE_ONCE, token.T_CONSTANT_ENCAPSED_STRING, token.ID(';'),
		token.T_NAMESPACE, token.T_STRING, token.ID(';'),
		token.T_CLASS, token.T_STRING, token.T_EXTENDS, token.T_STRING, token.ID('{'), token.ID('}'),
	}, ids(got))
}

func TestLexContextualNames(t *testing.T) {
	got := significant(Lex([]byte("<?php $o->class; Foo::class; function list() {} $o->function;")))
	assert.Equal(t, []string{
		"<?php ",
		"$o", "->", "class", ";",
		"Foo", "::", "class", ";",
		"function", "list", "(", ")", "{", "}",
		"$o", "->", "function", ";",
	}, values(got))
	assert.Equal(t, token.T_STRING, got[3].ID, "property named class")
	assert.Equal(t, token.T_CLASS, got[7].ID, "::class keeps its keyword ID")
	assert.Equal(t, token.T_STRING, got[10].ID, "method named list")
	assert.Equal(t, token.T_STRING, got[17].ID)
}

func TestLexReferenceReturningMethodNames(t *testing.T) {
	got := significant(Lex([]byte("<?php public function &list() {} function & print() {} & list;")))
	assert.Equal(t, token.T_STRING, got[4].ID, "list after function &")
	assert.Equal(t, "list", string(got[4].Value))
	assert.Equal(t, token.T_STRING, got[11].ID, "print after function &")
	assert.Equal(t, token.T_LIST, got[17].ID, "a lone & does not make a name")
}

func TestLexEnum(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want token.ID
	}{
		{"declaration", "<?php enum status: string {}", token.T_ENUM},
		{"upper case", "<?php ENUM Suit {}", token.T_ENUM},
		{"function call", "<?php enum($x);", token.T_STRING},
		{"constant", "<?php echo ENUM;", token.T_STRING},
		{"class named enum", "<?php class enum {}", token.T_STRING},
		{"enum extends", "<?php class a extends enum implements b {}", token.T_STRING},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, tok := range Lex([]byte(tt.src)) {
				if strings.EqualFold(string(tok.Value), "enum") {
					assert.Equal(t, tt.want, tok.ID)
					return
				}
			}
			t.Fatal("no enum token")
		})
	}
}

func TestLexStrings(t *testing.T) {
	t.Run("plain double quoted", func(t *testing.T) {
		got := significant(Lex([]byte(`<?php "a\"b";`)))
		require.Len(t, got, 3)
		assert.Equal(t, token.T_CONSTANT_ENCAPSED_STRING, got[1].ID)
		assert.Equal(t, `"a\"b"`, string(got[1].Value))
	})

	t.Run("interpolated", func(t *testing.T) {
		got := significant(Lex([]byte(`<?php "dir/$file.php";`)))
		assert.Equal(t, []token.ID{
			token.T_OPEN_TAG, token.ID('"'), token.T_ENCAPSED_AND_WHITESPACE, token.ID('"'), token.ID(';'),
		}, ids(got))
	})

	t.Run("escaped dollar is plain", func(t *testing.T) {
		got := significant(Lex([]byte(`<?php "cost \$5";`)))
		assert.Equal(t, token.T_CONSTANT_ENCAPSED_STRING, got[1].ID)
	})

	t.Run("unterminated", func(t *testing.T) {
		got := Lex([]byte(`<?php 'abc`))
		assert.Equal(t, token.T_CONSTANT_ENCAPSED_STRING, got[len(got)-1].ID)
		assert.Equal(t, `'abc`, string(got[len(got)-1].Value))
	})

	t.Run("nowdoc", func(t *testing.T) {
		got := significant(Lex([]byte("<?php $x = <<<'TXT'\nrequire 'no.php';\n  TXT;\n")))
		assert.Equal(t, []token.ID{
			token.T_OPEN_TAG, token.T_VARIABLE, token.ID('='),
			token.T_START_HEREDOC, token.T_ENCAPSED_AND_WHITESPACE, token.T_END_HEREDOC, token.ID(';'),
		}, ids(got))
	})

	t.Run("shift is not heredoc", func(t *testing.T) {
		got := significant(Lex([]byte("<?php $a <<= 2;")))
		assert.Equal(t, token.T_SL_EQUAL, got[2].ID)
	})
}

func TestLexComments(t *testing.T) {
	tokens := Lex([]byte("<?php\n/** doc */\n/* block */\n// line ?>\n<?php # hash\n#[Attr]\n"))
	var comments []string
	for _, tk := range tokens {
		if tk.ID == token.T_COMMENT || tk.ID == token.T_DOC_COMMENT {
			comments = append(comments, string(tk.Value))
		}
	}
	assert.Equal(t, []string{"/** doc */", "/* block */", "// line ", "# hash"}, comments)

	var hasClose bool
	for _, tk := range tokens {
		if tk.ID == token.T_CLOSE_TAG {
			hasClose = true
		}
	}
	assert.True(t, hasClose, "?> ends a line comment")
}

func TestLexNumbersAndOperators(t *testing.T) {
	got := significant(Lex([]byte("<?php 10 0xFF 0b1010 1_000 3.14 .5 2e10 $a === $b <=> $c ?? $d -> ...$e;")))
	assert.Equal(t, []token.ID{
		token.T_OPEN_TAG,
		token.T_LNUMBER, token.T_LNUMBER, token.T_LNUMBER, token.T_LNUMBER,
		token.T_DNUMBER, token.T_DNUMBER, token.T_DNUMBER,
		token.T_VARIABLE, token.T_IS_IDENTICAL, token.T_VARIABLE, token.T_SPACESHIP, token.T_VARIABLE,
		token.T_COALESCE, token.T_VARIABLE, token.T_OBJECT_OPERATOR, token.T_ELLIPSIS, token.T_VARIABLE, token.ID(';'),
	}, ids(got))
}

func TestLexHaltCompiler(t *testing.T) {
	got := Lex([]byte("<?php __halt_compiler(); class Junk {}"))
	last := got[len(got)-1]
	assert.Equal(t, token.T_INLINE_HTML, last.ID)
	assert.Equal(t, " class Junk {}", string(last.Value))
}

func TestLexPositions(t *testing.T) {
	got := significant(Lex([]byte("<?php\n\nfunction a() {}\n")))
	require.GreaterOrEqual(t, len(got), 2)
	fn := got[1]
	assert.Equal(t, token.T_FUNCTION, fn.ID)
	assert.Equal(t, 3, fn.Position.StartLine)
	assert.Equal(t, 7, fn.Position.StartPos)
	assert.Equal(t, 15, fn.Position.EndPos)
}
