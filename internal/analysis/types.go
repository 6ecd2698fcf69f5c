package analysis

import (
	"strings"

	"github.com/VKCOM/php-parser/pkg/token"
)

// ClassKind distinguishes the named class-like declarations.
type ClassKind string

const (
	KindClass     ClassKind = "class"
	KindInterface ClassKind = "interface"
	KindTrait     ClassKind = "trait"
	KindEnum      ClassKind = "enum"
)

// Require is one require/include statement. Name keeps the quotes of the
// string literal; PathModifier is everything in front of it (e.g. "__DIR__.").
type Require struct {
	TokenIndex   int    `yaml:"tid" json:"tid"`
	Line         int    `yaml:"line" json:"line"`
	Name         string `yaml:"name" json:"name"`
	PathModifier string `yaml:"path_modifier,omitempty" json:"path_modifier,omitempty"`
}

// Path returns the required path without quotes.
func (r Require) Path() string {
	return strings.Trim(r.Name, `"'`)
}

// Namespace is the file's namespace declaration.
type Namespace struct {
	TokenIndex int    `yaml:"tid" json:"tid"`
	Name       string `yaml:"name" json:"name"`
}

// Class is a named class, interface, trait or enum declaration.
type Class struct {
	Name       string    `yaml:"name" json:"name"`
	Kind       ClassKind `yaml:"kind" json:"kind"`
	Namespace  string    `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	TokenIndex int       `yaml:"tid" json:"tid"`
	Line       int       `yaml:"line" json:"line"`
	Abstract   bool      `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Final      bool      `yaml:"final,omitempty" json:"final,omitempty"`
	Extends    []string  `yaml:"extends,omitempty" json:"extends,omitempty"`
	Implements []string  `yaml:"implements,omitempty" json:"implements,omitempty"`

	// Token indices of the body braces.
	BodyStart int `yaml:"-" json:"-"`
	BodyEnd   int `yaml:"-" json:"-"`
}

// Extension is the parent named in a class's extends clause.
type Extension struct {
	TokenIndex int    `yaml:"tid" json:"tid"`
	Name       string `yaml:"name" json:"name"`
}

// Argument is one declared function parameter. Name includes the leading $.
type Argument struct {
	Type     string `yaml:"type,omitempty" json:"type,omitempty"`
	Name     string `yaml:"name" json:"name"`
	Default  string `yaml:"default,omitempty" json:"default,omitempty"`
	ByRef    bool   `yaml:"by_ref,omitempty" json:"by_ref,omitempty"`
	Variadic bool   `yaml:"variadic,omitempty" json:"variadic,omitempty"`
}

// Function is a named function or method declaration.
type Function struct {
	Name            string     `yaml:"name" json:"name"`
	FullName        string     `yaml:"fullname" json:"fullname"`
	Class           string     `yaml:"class,omitempty" json:"class,omitempty"`
	TokenIndex      int        `yaml:"tid" json:"tid"`
	Line            int        `yaml:"line" json:"line"`
	AccessModifiers []token.ID `yaml:"-" json:"-"`
	Modifiers       []string   `yaml:"modifiers,omitempty" json:"modifiers,omitempty"`
	Arguments       []Argument `yaml:"arguments,omitempty" json:"arguments,omitempty"`
	ReturnType      string     `yaml:"return_type,omitempty" json:"return_type,omitempty"`
	HasBody         bool       `yaml:"has_body" json:"has_body"`
}

func (fn *Function) hasModifier(id token.ID) bool {
	for _, m := range fn.AccessModifiers {
		if m == id {
			return true
		}
	}
	return false
}

// IsPublic reports whether the function is callable from outside its class.
// Without a visibility keyword PHP treats methods and functions as public.
func (fn *Function) IsPublic() bool {
	return !fn.hasModifier(token.T_PRIVATE) && !fn.hasModifier(token.T_PROTECTED)
}

// IsStatic reports a static method.
func (fn *Function) IsStatic() bool { return fn.hasModifier(token.T_STATIC) }

// IsAbstract reports a declaration without a body (abstract or interface method).
func (fn *Function) IsAbstract() bool { return fn.hasModifier(token.T_ABSTRACT) || !fn.HasBody }

// IsMagic reports a double-underscore method such as __construct.
func (fn *Function) IsMagic() bool { return strings.HasPrefix(fn.Name, "__") }

// Facts is everything extracted from one file, in a shape suitable for
// rendering and for dumping as YAML/JSON.
type Facts struct {
	Path      string               `yaml:"path" json:"path"`
	Namespace string               `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Classes   []Class              `yaml:"classes,omitempty" json:"classes,omitempty"`
	Functions []Function           `yaml:"functions,omitempty" json:"functions,omitempty"`
	Requires  []Require            `yaml:"requires,omitempty" json:"requires,omitempty"`
	Includes  []Require            `yaml:"includes,omitempty" json:"includes,omitempty"`
	Extends   map[string]Extension `yaml:"extends,omitempty" json:"extends,omitempty"`
}

// Constructor returns the __construct method of class, if declared.
func (f *Facts) Constructor(class string) *Function {
	for i := range f.Functions {
		fn := &f.Functions[i]
		if fn.Class == class && strings.EqualFold(fn.Name, "__construct") {
			return fn
		}
	}
	return nil
}

// Class returns the declaration of class, or nil.
func (f *Facts) Class(class string) *Class {
	for i := range f.Classes {
		if f.Classes[i].Name == class {
			return &f.Classes[i]
		}
	}
	return nil
}

// QualifiedClass returns the fully qualified name of class, without a leading separator.
func (f *Facts) QualifiedClass(class string) string {
	ns := f.Namespace
	if c := f.Class(class); c != nil {
		ns = c.Namespace
	}
	if ns == "" {
		return class
	}
	return ns + `\` + class
}

var modifierNames = map[token.ID]string{
	token.T_PUBLIC:    "public",
	token.T_PROTECTED: "protected",
	token.T_PRIVATE:   "private",
	token.T_STATIC:    "static",
	token.T_ABSTRACT:  "abstract",
	token.T_FINAL:     "final",
}
