package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/VKCOM/php-parser/pkg/conf"
	phperrors "github.com/VKCOM/php-parser/pkg/errors"
	"github.com/VKCOM/php-parser/pkg/parser"
	"github.com/VKCOM/php-parser/pkg/version"
	"github.com/VKCOM/php-parser/pkg/visitor"
	"github.com/VKCOM/php-parser/pkg/visitor/traverser"
)

// ErrSyntax marks a file the PHP parser rejected.
var ErrSyntax = errors.New("php syntax error")

// ParserVersion maps a parser_mode setting to the PHP grammar version.
// Unknown or empty modes select PHP 8.1.
func ParserVersion(mode string) version.Version {
	switch strings.ToUpper(mode) {
	case "ONLY_PHP5", "PREFER_PHP5":
		return version.Version{Major: 5, Minor: 6}
	case "ONLY_PHP7", "PREFER_PHP7":
		return version.Version{Major: 7, Minor: 4}
	default:
		return version.Version{Major: 8, Minor: 1}
	}
}

// Validate parses src with the full PHP grammar. It returns the names of the
// named classes, interfaces, traits and enums found in the AST, or an error wrapping
// ErrSyntax describing the first problem.
func Validate(src []byte, mode string) ([]string, error) {
	var parserErrors []*phperrors.Error
	parserVersion := ParserVersion(mode)
	parserConfig := conf.Config{
		Version:          &parserVersion,
		ErrorHandlerFunc: func(e *phperrors.Error) { parserErrors = append(parserErrors, e) },
	}

	root, err := parser.Parse(src, parserConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if len(parserErrors) > 0 {
		first := parserErrors[0]
		line := 0
		if first.Pos != nil {
			line = first.Pos.StartLine
		}
		return nil, fmt.Errorf("%w: line %d: %s (%d errors)", ErrSyntax, line, first.Msg, len(parserErrors))
	}
	if root == nil {
		return nil, nil
	}

	collector := &declarationCollector{}
	root.Accept(traverser.NewTraverser(collector))
	return collector.names, nil
}

// declarationCollector records the names of class-like declarations.
// Anonymous classes have no name and are not counted.
type declarationCollector struct {
	visitor.Null
	names []string
}

func (v *declarationCollector) add(name ast.Vertex) {
	if ident, ok := name.(*ast.Identifier); ok && ident != nil {
		v.names = append(v.names, string(ident.Value))
	}
}

func (v *declarationCollector) StmtClass(n *ast.StmtClass) {
	if n.Name != nil {
		v.add(n.Name)
	}
}

func (v *declarationCollector) StmtInterface(n *ast.StmtInterface) { v.add(n.Name) }

func (v *declarationCollector) StmtTrait(n *ast.StmtTrait) { v.add(n.Name) }

func (v *declarationCollector) StmtEnum(n *ast.StmtEnum) { v.add(n.Name) }
