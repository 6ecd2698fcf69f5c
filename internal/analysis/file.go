// Package analysis recovers syntax-level facts from a PHP file's token stream:
// require/include statements, the namespace, class inheritance and
// per-class/function metadata.
//
// Facts are computed by a single linear pass over the tokens with a small
// state machine per construct, and cached on the File until Reset.
package analysis

import (
	"fmt"
	"os"
	"strings"

	"github.com/VKCOM/php-parser/pkg/token"

	"github.com/whit3rabbit/phptestgen/internal/lexer"
)

// File is one PHP source file and its lazily computed facts.
type File struct {
	path   string
	src    []byte
	tokens []*token.Token

	scanned   bool
	classes   []Class
	functions []Function
	requires  []Require
	includes  []Require
	namespace *Namespace
	extended  map[string]Extension

	// Name of the namespace block the scan is currently in.
	currentNS string

	// Token ranges of anonymous class bodies.
	anonymous [][2]int
}

// Analyze wraps src for analysis. path is informational.
func Analyze(path string, src []byte) *File {
	return &File{path: path, src: src}
}

// AnalyzeFile reads and wraps the file at path.
func AnalyzeFile(path string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	return Analyze(path, src), nil
}

// Path returns the path the file was created with.
func (f *File) Path() string { return f.path }

// Source returns the raw file contents.
func (f *File) Source() []byte { return f.src }

// Reset drops the token stream and every cached fact.
func (f *File) Reset() {
	f.tokens = nil
	f.scanned = false
	f.classes = nil
	f.functions = nil
	f.requires = nil
	f.includes = nil
	f.namespace = nil
	f.extended = nil
	f.currentNS = ""
	f.anonymous = nil
}

// Tokens returns the token stream, lexing on first use.
func (f *File) Tokens() []*token.Token {
	if f.tokens == nil {
		f.tokens = lexer.Lex(f.src)
	}
	return f.tokens
}

// Classes returns the named class, interface, trait and enum declarations in source order.
func (f *File) Classes() []Class {
	f.scan()
	return f.classes
}

// Functions returns named functions and methods in source order. Closures are not included.
func (f *File) Functions() []Function {
	f.scan()
	return f.functions
}

// Requires returns require and require_once statements.
func (f *File) Requires() []Require {
	f.scan()
	return f.requires
}

// Includes returns include and include_once statements.
func (f *File) Includes() []Require {
	f.scan()
	return f.includes
}

// Namespace returns the first namespace declaration, or nil.
func (f *File) Namespace() *Namespace {
	f.scan()
	return f.namespace
}

// ExtendedClasses maps class names to their first extends parent.
func (f *File) ExtendedClasses() map[string]Extension {
	f.scan()
	return f.extended
}

// Facts bundles everything extracted from the file.
func (f *File) Facts() *Facts {
	f.scan()
	facts := &Facts{
		Path:      f.path,
		Classes:   f.classes,
		Functions: f.functions,
		Requires:  f.requires,
		Includes:  f.includes,
		Extends:   f.extended,
	}
	if f.namespace != nil {
		facts.Namespace = f.namespace.Name
	}
	return facts
}

// IsWhitespace reports whether token tid is whitespace or a comment.
func (f *File) IsWhitespace(tid int) bool {
	tokens := f.Tokens()
	return tid >= 0 && tid < len(tokens) && lexer.IsWhitespace(tokens[tid].ID)
}

// NextNonSpace returns the index of the first significant token after tid, or -1.
func (f *File) NextNonSpace(tid int) int {
	tokens := f.Tokens()
	for i := tid + 1; i < len(tokens); i++ {
		if !lexer.IsWhitespace(tokens[i].ID) {
			return i
		}
	}
	return -1
}

// PrevNonSpace returns the index of the last significant token before tid, or -1.
func (f *File) PrevNonSpace(tid int) int {
	tokens := f.Tokens()
	for i := tid - 1; i >= 0; i-- {
		if !lexer.IsWhitespace(tokens[i].ID) {
			return i
		}
	}
	return -1
}

func (f *File) is(tid int, id token.ID) bool {
	tokens := f.Tokens()
	return tid >= 0 && tid < len(tokens) && tokens[tid].ID == id
}

func (f *File) value(tid int) string {
	return string(f.Tokens()[tid].Value)
}

func (f *File) line(tid int) int {
	if p := f.Tokens()[tid].Position; p != nil {
		return p.StartLine
	}
	return 0
}

// scan fills every fact in one pass over the tokens.
func (f *File) scan() {
	if f.scanned {
		return
	}
	f.scanned = true
	f.extended = make(map[string]Extension)

	tokens := f.Tokens()
	for tid := 0; tid < len(tokens); tid++ {
		switch tokens[tid].ID {
		case token.T_REQUIRE, token.T_REQUIRE_ONCE:
			var req Require
			req, tid = f.parseRequire(tid)
			f.requires = append(f.requires, req)
		case token.T_INCLUDE, token.T_INCLUDE_ONCE:
			var req Require
			req, tid = f.parseRequire(tid)
			f.includes = append(f.includes, req)
		case token.T_NAMESPACE:
			tid = f.parseNamespace(tid)
		case token.T_CLASS, token.T_INTERFACE, token.T_TRAIT, token.T_ENUM:
			f.parseClass(tid)
		case token.T_FUNCTION:
			f.parseFunction(tid)
		}
	}
}

// parseRequire walks from the keyword to the first string literal, collecting
// the tokens before it as the path modifier. It returns the index of the last
// token consumed.
func (f *File) parseRequire(start int) (Require, int) {
	tokens := f.Tokens()
	req := Require{TokenIndex: start, Line: f.line(start)}

	var modifier strings.Builder
	tid := start + 1
	for ; tid < len(tokens); tid++ {
		t := tokens[tid]
		if lexer.IsWhitespace(t.ID) || t.ID == token.ID('(') || t.ID == token.ID(')') {
			continue
		}
		if t.ID == token.ID(';') || t.ID == token.T_CLOSE_TAG {
			break
		}
		if t.ID == token.T_CONSTANT_ENCAPSED_STRING {
			req.Name = string(t.Value)
			break
		}
		if t.ID == token.ID('"') {
			// Interpolated path: keep the literal including its variables.
			var name strings.Builder
			name.Write(t.Value)
			for tid++; tid < len(tokens); tid++ {
				name.Write(tokens[tid].Value)
				if tokens[tid].ID == token.ID('"') {
					break
				}
			}
			req.Name = name.String()
			break
		}
		modifier.Write(t.Value)
	}
	req.PathModifier = modifier.String()
	if tid >= len(tokens) {
		tid = len(tokens) - 1
	}
	return req, tid
}

// parseNamespace records the first namespace declaration, makes this one
// current for the declarations that follow, and returns the index of the
// token that ended it.
func (f *File) parseNamespace(start int) int {
	next := f.NextNonSpace(start)
	if next < 0 || f.is(next, token.T_NS_SEPARATOR) {
		// namespace\name() is a relative name, not a declaration.
		return start
	}

	tokens := f.Tokens()
	var name strings.Builder
	tid := next
	for ; tid < len(tokens); tid++ {
		t := tokens[tid]
		if t.ID == token.ID(';') || t.ID == token.ID('{') {
			break
		}
		if !lexer.IsWhitespace(t.ID) {
			name.Write(t.Value)
		}
	}

	f.currentNS = name.String()
	if f.namespace == nil {
		f.namespace = &Namespace{TokenIndex: next, Name: f.currentNS}
	}
	if tid >= len(tokens) {
		return len(tokens) - 1
	}
	// For braced namespaces this is the '{'; scanning continues inside.
	return tid
}

func (f *File) parseClass(start int) {
	if prev := f.PrevNonSpace(start); prev >= 0 {
		switch f.Tokens()[prev].ID {
		case token.T_PAAMAYIM_NEKUDOTAYIM:
			// Foo::class
			return
		case token.T_NEW:
			f.skipAnonymous(start)
			return
		}
	}
	nameTid := f.NextNonSpace(start)
	if nameTid < 0 || !f.is(nameTid, token.T_STRING) {
		return
	}

	tokens := f.Tokens()
	class := Class{
		Name:       f.value(nameTid),
		Namespace:  f.currentNS,
		TokenIndex: nameTid,
		Line:       f.line(start),
		BodyStart:  -1,
		BodyEnd:    -1,
	}
	switch tokens[start].ID {
	case token.T_INTERFACE:
		class.Kind = KindInterface
	case token.T_TRAIT:
		class.Kind = KindTrait
	case token.T_ENUM:
		class.Kind = KindEnum
	default:
		class.Kind = KindClass
	}

	for prev := f.PrevNonSpace(start); prev >= 0; prev = f.PrevNonSpace(prev) {
		if f.is(prev, token.T_ABSTRACT) {
			class.Abstract = true
		} else if f.is(prev, token.T_FINAL) {
			class.Final = true
		} else if !(f.is(prev, token.T_STRING) && strings.EqualFold(f.value(prev), "readonly")) {
			break
		}
	}

	// Header: everything between the name and the opening brace.
	var (
		current   strings.Builder
		target    *[]string
		extendTid = -1
	)
	flush := func() {
		if target != nil && current.Len() > 0 {
			*target = append(*target, current.String())
		}
		current.Reset()
	}
	for tid := nameTid + 1; tid < len(tokens); tid++ {
		t := tokens[tid]
		switch {
		case t.ID == token.ID('{'):
			flush()
			class.BodyStart = tid
			class.BodyEnd = f.matchBrace(tid)
		case t.ID == token.T_EXTENDS:
			flush()
			target = &class.Extends
			extendTid = tid
		case t.ID == token.T_IMPLEMENTS:
			flush()
			target = &class.Implements
		case t.ID == token.ID(':'):
			// Backing type of an enum.
			flush()
			target = nil
		case t.ID == token.ID(','):
			flush()
		case lexer.IsWhitespace(t.ID):
		default:
			current.Write(t.Value)
		}
		if class.BodyStart >= 0 || t.ID == token.ID(';') {
			break
		}
	}

	if len(class.Extends) > 0 {
		f.extended[class.Name] = Extension{TokenIndex: extendTid, Name: class.Extends[0]}
	}
	f.classes = append(f.classes, class)
}

// skipAnonymous records the body of the anonymous class starting at start so
// its methods are not reported.
func (f *File) skipAnonymous(start int) {
	tokens := f.Tokens()
	for tid := start + 1; tid < len(tokens); tid++ {
		switch tokens[tid].ID {
		case token.ID('('):
			tid = f.matchParen(tid)
		case token.ID('{'):
			f.anonymous = append(f.anonymous, [2]int{tid, f.matchBrace(tid)})
			return
		case token.ID(';'):
			return
		}
	}
}

func (f *File) inAnonymous(tid int) bool {
	for _, r := range f.anonymous {
		if r[0] < tid && tid < r[1] {
			return true
		}
	}
	return false
}

// matchBrace returns the index of the '}' closing the '{' at open, or the
// last token index when the file ends first.
func (f *File) matchBrace(open int) int {
	tokens := f.Tokens()
	depth := 0
	for tid := open; tid < len(tokens); tid++ {
		switch tokens[tid].ID {
		case token.ID('{'):
			depth++
		case token.ID('}'):
			depth--
			if depth == 0 {
				return tid
			}
		}
	}
	return len(tokens) - 1
}

// matchParen returns the index of the ')' closing the '(' at open.
func (f *File) matchParen(open int) int {
	tokens := f.Tokens()
	depth := 0
	for tid := open; tid < len(tokens); tid++ {
		switch tokens[tid].ID {
		case token.ID('('):
			depth++
		case token.ID(')'):
			depth--
			if depth == 0 {
				return tid
			}
		}
	}
	return len(tokens) - 1
}

// owner returns the innermost class whose body contains tid.
func (f *File) owner(tid int) *Class {
	var found *Class
	for i := range f.classes {
		c := &f.classes[i]
		if c.BodyStart < tid && tid < c.BodyEnd {
			if found == nil || c.BodyStart > found.BodyStart {
				found = c
			}
		}
	}
	return found
}

var accessModifiers = map[token.ID]bool{
	token.T_PUBLIC:    true,
	token.T_PROTECTED: true,
	token.T_PRIVATE:   true,
	token.T_STATIC:    true,
	token.T_ABSTRACT:  true,
	token.T_FINAL:     true,
}

func (f *File) parseFunction(start int) {
	if prev := f.PrevNonSpace(start); prev >= 0 && f.is(prev, token.T_USE) {
		// use function Foo\bar;
		return
	}
	if f.inAnonymous(start) {
		return
	}
	nameTid := f.NextNonSpace(start)
	if nameTid >= 0 && f.is(nameTid, token.ID('&')) {
		nameTid = f.NextNonSpace(nameTid)
	}
	if nameTid < 0 || !f.is(nameTid, token.T_STRING) {
		// Closure.
		return
	}

	fn := Function{
		Name:       f.value(nameTid),
		TokenIndex: start,
		Line:       f.line(start),
	}

	var modifiers []token.ID
	for prev := f.PrevNonSpace(start); prev >= 0 && accessModifiers[f.Tokens()[prev].ID]; prev = f.PrevNonSpace(prev) {
		modifiers = append(modifiers, f.Tokens()[prev].ID)
	}
	for i := len(modifiers) - 1; i >= 0; i-- {
		fn.AccessModifiers = append(fn.AccessModifiers, modifiers[i])
		fn.Modifiers = append(fn.Modifiers, modifierNames[modifiers[i]])
	}

	prefix := ""
	if f.currentNS != "" {
		prefix = f.currentNS + `\`
	}
	if owner := f.owner(start); owner != nil {
		fn.Class = owner.Name
		fn.FullName = prefix + owner.Name + "::" + fn.Name
	} else {
		fn.FullName = prefix + fn.Name
	}

	open := f.NextNonSpace(nameTid)
	if open < 0 || !f.is(open, token.ID('(')) {
		f.functions = append(f.functions, fn)
		return
	}
	closeTid := f.matchParen(open)
	fn.Arguments = f.parseArguments(open+1, closeTid)

	after := f.NextNonSpace(closeTid)
	if after >= 0 && f.is(after, token.ID(':')) {
		var rt strings.Builder
		tid := after + 1
		for ; tid < len(f.Tokens()); tid++ {
			if f.is(tid, token.ID('{')) || f.is(tid, token.ID(';')) {
				break
			}
			if !f.IsWhitespace(tid) {
				rt.Write(f.Tokens()[tid].Value)
			}
		}
		fn.ReturnType = rt.String()
		after = tid
	}
	fn.HasBody = after >= 0 && f.is(after, token.ID('{'))

	f.functions = append(f.functions, fn)
}

// parseArguments splits the tokens between from and to (exclusive) on
// top-level commas and describes each parameter.
func (f *File) parseArguments(from, to int) []Argument {
	var (
		args  []Argument
		depth int
		begin = from
	)
	for tid := from; tid <= to && tid < len(f.Tokens()); tid++ {
		switch f.Tokens()[tid].ID {
		case token.ID('('), token.ID('['), token.ID('{'):
			depth++
		case token.ID(')'), token.ID(']'), token.ID('}'):
			depth--
		}
		if tid == to || (depth == 0 && f.is(tid, token.ID(','))) {
			if arg, ok := f.parseArgument(begin, tid); ok {
				args = append(args, arg)
			}
			begin = tid + 1
		}
	}
	return args
}

var promotionModifiers = map[token.ID]bool{
	token.T_PUBLIC:    true,
	token.T_PROTECTED: true,
	token.T_PRIVATE:   true,
}

func (f *File) parseArgument(from, to int) (Argument, bool) {
	tokens := f.Tokens()
	var (
		arg      Argument
		typ      strings.Builder
		def      strings.Builder
		sawVar   bool
		sawEqual bool
	)
	for tid := from; tid < to; tid++ {
		t := tokens[tid]
		switch {
		case sawEqual:
			def.Write(t.Value)
		case lexer.IsWhitespace(t.ID):
		case t.ID == token.T_VARIABLE && !sawVar:
			arg.Name = string(t.Value)
			sawVar = true
		case sawVar && t.ID == token.ID('='):
			sawEqual = true
		case sawVar:
		case t.ID == token.ID('&'):
			arg.ByRef = true
		case t.ID == token.T_ELLIPSIS:
			arg.Variadic = true
		case promotionModifiers[t.ID]:
		case t.ID == token.T_STRING && strings.EqualFold(string(t.Value), "readonly"):
		case t.ID == token.ID('#'):
			// Parameter attribute: skip to its closing bracket.
			tid = f.skipAttribute(tid, to)
		default:
			typ.Write(t.Value)
		}
	}
	if !sawVar {
		return Argument{}, false
	}
	arg.Type = typ.String()
	arg.Default = strings.TrimSpace(def.String())
	return arg, true
}

// skipAttribute returns the index of the ']' closing an attribute that starts
// with the '#' at tid.
func (f *File) skipAttribute(tid, limit int) int {
	depth := 0
	for i := tid + 1; i < limit; i++ {
		switch f.Tokens()[i].ID {
		case token.ID('['):
			depth++
		case token.ID(']'):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return limit
}
