// Package lexer splits PHP source into the flat token stream walked by the
// fact extractor.
//
// Token IDs, tokens and positions are the ones defined by
// github.com/VKCOM/php-parser, so the stream reads like the parser's own
// scanner output. Single-character tokens use the character code as their ID.
// Whitespace and comments are kept in the stream rather than attached as
// free-floating tokens, because the extractor reasons about adjacency.
package lexer

import (
	"bytes"

	"github.com/VKCOM/php-parser/pkg/position"
	"github.com/VKCOM/php-parser/pkg/token"
)

// Lexer holds the scanning state for a single source buffer.
type Lexer struct {
	src    []byte
	pos    int
	line   int
	inPHP  bool
	halted bool
	tokens []*token.Token

	// prev is the ID of the last token that was neither whitespace nor a
	// comment, prev2 the one before it.
	prev  token.ID
	prev2 token.ID
}

// New returns a lexer positioned at the start of src, in inline HTML mode.
func New(src []byte) *Lexer {
	return &Lexer{src: src, line: 1}
}

// Lex tokenizes src in one call.
func Lex(src []byte) []*token.Token {
	return New(src).Run()
}

// Run scans the whole buffer and returns the tokens. Lexing never fails:
// unterminated strings and comments extend to the end of input.
func (l *Lexer) Run() []*token.Token {
	for l.pos < len(l.src) {
		if l.halted {
			l.emit(token.T_INLINE_HTML, len(l.src))
			break
		}
		if !l.inPHP {
			l.lexInlineHTML()
			continue
		}
		l.lexPHP()
	}
	return l.tokens
}

// IsWhitespace reports whether id is ignorable layout: whitespace or a comment.
func IsWhitespace(id token.ID) bool {
	return id == token.T_WHITESPACE || id == token.T_COMMENT || id == token.T_DOC_COMMENT
}

func (l *Lexer) emit(id token.ID, end int) {
	value := l.src[l.pos:end]
	startLine := l.line
	l.line += bytes.Count(value, []byte{'\n'})

	l.tokens = append(l.tokens, &token.Token{
		ID:    id,
		Value: value,
		Position: &position.Position{
			StartLine: startLine,
			EndLine:   l.line,
			StartPos:  l.pos,
			EndPos:    end,
		},
	})
	l.pos = end

	if !IsWhitespace(id) {
		l.prev2 = l.prev
		l.prev = id
	}
}

func (l *Lexer) peek(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

func (l *Lexer) hasPrefix(s string) bool {
	return bytes.HasPrefix(l.src[l.pos:], []byte(s))
}

func (l *Lexer) hasPrefixFold(s string) bool {
	if len(l.src)-l.pos < len(s) {
		return false
	}
	return bytes.EqualFold(l.src[l.pos:l.pos+len(s)], []byte(s))
}

func (l *Lexer) lexInlineHTML() {
	idx := bytes.Index(l.src[l.pos:], []byte("<?"))
	if idx < 0 {
		l.emit(token.T_INLINE_HTML, len(l.src))
		return
	}
	if idx > 0 {
		l.emit(token.T_INLINE_HTML, l.pos+idx)
	}
	l.lexOpenTag()
}

func (l *Lexer) lexOpenTag() {
	l.inPHP = true
	switch {
	case l.hasPrefixFold("<?php") && (l.pos+5 == len(l.src) || isSpace(l.peek(5))):
		end := l.pos + 5
		if end < len(l.src) {
			if l.src[end] == '\r' && end+1 < len(l.src) && l.src[end+1] == '\n' {
				end += 2
			} else {
				end++
			}
		}
		l.emit(token.T_OPEN_TAG, end)
	case l.hasPrefix("<?="):
		l.emit(token.T_OPEN_TAG_WITH_ECHO, l.pos+3)
	default:
		l.emit(token.T_OPEN_TAG, l.pos+2)
	}
}

func (l *Lexer) lexPHP() {
	c := l.src[l.pos]

	switch {
	case isSpace(c):
		end := l.pos
		for end < len(l.src) && isSpace(l.src[end]) {
			end++
		}
		l.emit(token.T_WHITESPACE, end)

	case l.hasPrefix("?>"):
		end := l.pos + 2
		if l.hasPrefix("?>\r\n") {
			end += 2
		} else if l.peek(2) == '\n' {
			end++
		}
		l.emit(token.T_CLOSE_TAG, end)
		l.inPHP = false
		if l.prev == token.T_CLOSE_TAG && l.haltPending() {
			l.halted = true
		}

	case l.hasPrefix("#["):
		l.emit(token.ID('#'), l.pos+1)

	case c == '#' || l.hasPrefix("//"):
		l.emit(token.T_COMMENT, l.lineCommentEnd())

	case l.hasPrefix("/*"):
		l.lexBlockComment()

	case c == '$' && isIdentStart(l.peek(1)):
		l.emit(token.T_VARIABLE, l.identEnd(l.pos+1))

	case isIdentStart(c):
		l.lexIdentifier()

	case isDigit(c) || (c == '.' && isDigit(l.peek(1))):
		l.lexNumber()

	case c == '\'':
		end, _ := l.quotedEnd('\'')
		l.emit(token.T_CONSTANT_ENCAPSED_STRING, end)

	case c == '"':
		l.lexInterpolated('"', token.T_CONSTANT_ENCAPSED_STRING)

	case c == '`':
		l.lexInterpolated('`', token.T_ENCAPSED_AND_WHITESPACE)

	case l.hasPrefix("<<<") && l.lexHeredoc():

	case c == '\\':
		l.emit(token.T_NS_SEPARATOR, l.pos+1)

	default:
		for _, op := range operators {
			if l.hasPrefix(op.text) {
				l.emit(op.id, l.pos+len(op.text))
				return
			}
		}
		l.emit(token.ID(c), l.pos+1)
		if c == ';' && l.haltPending() {
			l.halted = true
		}
	}
}

// haltPending reports whether the statement just closed is __halt_compiler();
// everything after it is raw data.
func (l *Lexer) haltPending() bool {
	for i := len(l.tokens) - 2; i >= 0; i-- {
		id := l.tokens[i].ID
		if IsWhitespace(id) || id == token.ID('(') || id == token.ID(')') {
			continue
		}
		return id == token.T_HALT_COMPILER
	}
	return false
}

// lineCommentEnd finds the end of a // or # comment: the newline (excluded)
// or a closing tag.
func (l *Lexer) lineCommentEnd() int {
	for i := l.pos; i < len(l.src); i++ {
		switch l.src[i] {
		case '\n', '\r':
			return i
		case '?':
			if i+1 < len(l.src) && l.src[i+1] == '>' {
				return i
			}
		}
	}
	return len(l.src)
}

func (l *Lexer) lexBlockComment() {
	id := token.T_COMMENT
	if l.hasPrefix("/**") && isSpace(l.peek(3)) {
		id = token.T_DOC_COMMENT
	}
	end := len(l.src)
	if idx := bytes.Index(l.src[l.pos+2:], []byte("*/")); idx >= 0 {
		end = l.pos + 2 + idx + 2
	}
	l.emit(id, end)
}

func (l *Lexer) lexIdentifier() {
	end := l.identEnd(l.pos)
	word := string(bytes.ToLower(l.src[l.pos:end]))

	id := token.T_STRING
	switch {
	case l.prev == token.T_OBJECT_OPERATOR || l.prev == token.T_FUNCTION,
		l.prev == token.ID('&') && l.prev2 == token.T_FUNCTION:
		// Property and method names may reuse reserved words.
	case l.prev == token.T_PAAMAYIM_NEKUDOTAYIM:
		if word == "class" {
			id = token.T_CLASS
		}
	case word == "enum":
		if l.enumDeclaration(end) {
			id = token.T_ENUM
		}
	default:
		if kw, ok := keywords[word]; ok {
			id = kw
		}
	}
	l.emit(id, end)
}

// enumDeclaration reports whether the word "enum" ending at end starts an
// enum declaration. PHP only reserves it when a name follows, so enum stays
// usable as a function, constant or class name.
func (l *Lexer) enumDeclaration(end int) bool {
	next := end
	for next < len(l.src) && isSpace(l.src[next]) {
		next++
	}
	if next == end || next >= len(l.src) || !isIdentStart(l.src[next]) {
		return false
	}
	name := l.src[next:l.identEnd(next)]
	return !bytes.EqualFold(name, []byte("extends")) && !bytes.EqualFold(name, []byte("implements"))
}

func (l *Lexer) identEnd(from int) int {
	end := from
	for end < len(l.src) && isIdentPart(l.src[end]) {
		end++
	}
	return end
}

func (l *Lexer) lexNumber() {
	end := l.pos
	src := l.src
	isFloat := false

	if src[end] == '0' && end+1 < len(src) && (src[end+1]|0x20 == 'x' || src[end+1]|0x20 == 'b') {
		end += 2
		for end < len(src) && (isHexDigit(src[end]) || src[end] == '_') {
			end++
		}
		l.emit(token.T_LNUMBER, end)
		return
	}

	digits := func() {
		for end < len(src) && (isDigit(src[end]) || src[end] == '_') {
			end++
		}
	}
	digits()
	if end < len(src) && src[end] == '.' && (end+1 >= len(src) || src[end+1] != '.') {
		isFloat = true
		end++
		digits()
	}
	if end < len(src) && src[end]|0x20 == 'e' {
		exp := end + 1
		if exp < len(src) && (src[exp] == '+' || src[exp] == '-') {
			exp++
		}
		if exp < len(src) && isDigit(src[exp]) {
			isFloat = true
			end = exp
			digits()
		}
	}

	if isFloat {
		l.emit(token.T_DNUMBER, end)
		return
	}
	l.emit(token.T_LNUMBER, end)
}

// quotedEnd returns the offset just past the closing quote, honouring
// backslash escapes. An unterminated string ends at the end of input.
func (l *Lexer) quotedEnd(quote byte) (int, bool) {
	for i := l.pos + 1; i < len(l.src); i++ {
		switch l.src[i] {
		case '\\':
			i++
		case quote:
			return i + 1, true
		}
	}
	return len(l.src), false
}

// lexInterpolated handles double-quoted and backtick strings. A string without
// interpolation becomes a single plainID token; otherwise the delimiters are
// emitted as character tokens around one T_ENCAPSED_AND_WHITESPACE body.
func (l *Lexer) lexInterpolated(quote byte, plainID token.ID) {
	end, terminated := l.quotedEnd(quote)
	bodyEnd := end
	if terminated {
		bodyEnd = end - 1
	}

	if plainID == token.T_CONSTANT_ENCAPSED_STRING && terminated && !hasInterpolation(l.src[l.pos+1:bodyEnd]) {
		l.emit(plainID, end)
		return
	}

	l.emit(token.ID(quote), l.pos+1)
	if bodyEnd > l.pos {
		l.emit(token.T_ENCAPSED_AND_WHITESPACE, bodyEnd)
	}
	if terminated {
		l.emit(token.ID(quote), end)
	}
}

// lexHeredoc scans <<<ID, <<<"ID" and <<<'ID' documents. It reports false when
// the input is not a heredoc opener so the caller can fall back to operators.
func (l *Lexer) lexHeredoc() bool {
	i := l.pos + 3
	for i < len(l.src) && (l.src[i] == ' ' || l.src[i] == '\t') {
		i++
	}
	var quote byte
	if i < len(l.src) && (l.src[i] == '\'' || l.src[i] == '"') {
		quote = l.src[i]
		i++
	}
	if i >= len(l.src) || !isIdentStart(l.src[i]) {
		return false
	}
	labelStart := i
	i = l.identEnd(i)
	label := l.src[labelStart:i]
	if quote != 0 {
		if i >= len(l.src) || l.src[i] != quote {
			return false
		}
		i++
	}
	switch {
	case i < len(l.src) && l.src[i] == '\n':
		i++
	case i+1 < len(l.src) && l.src[i] == '\r' && l.src[i+1] == '\n':
		i += 2
	default:
		return false
	}
	l.emit(token.T_START_HEREDOC, i)

	// The closing label sits on its own line, optionally indented.
	lineStart := l.pos
	for lineStart < len(l.src) {
		j := lineStart
		for j < len(l.src) && (l.src[j] == ' ' || l.src[j] == '\t') {
			j++
		}
		if bytes.HasPrefix(l.src[j:], label) && (j+len(label) == len(l.src) || !isIdentPart(l.src[j+len(label)])) {
			if lineStart > l.pos {
				l.emit(token.T_ENCAPSED_AND_WHITESPACE, lineStart)
			}
			l.emit(token.T_END_HEREDOC, j+len(label))
			return true
		}
		nl := bytes.IndexByte(l.src[lineStart:], '\n')
		if nl < 0 {
			break
		}
		lineStart += nl + 1
	}
	l.emit(token.T_ENCAPSED_AND_WHITESPACE, len(l.src))
	return true
}

func hasInterpolation(body []byte) bool {
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '$':
			if i+1 < len(body) && (isIdentStart(body[i+1]) || body[i+1] == '{') {
				return true
			}
		case '{':
			if i+1 < len(body) && body[i+1] == '$' {
				return true
			}
		}
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c|0x20 >= 'a' && c|0x20 <= 'f')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c|0x20 >= 'a' && c|0x20 <= 'z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
