package lexer

import "github.com/VKCOM/php-parser/pkg/token"

// keywords maps lower-cased reserved words to their token IDs.
// PHP keywords are case-insensitive.
var keywords = map[string]token.ID{
	"abstract":        token.T_ABSTRACT,
	"and":             token.T_LOGICAL_AND,
	"array":           token.T_ARRAY,
	"as":              token.T_AS,
	"break":           token.T_BREAK,
	"callable":        token.T_CALLABLE,
	"case":            token.T_CASE,
	"catch":           token.T_CATCH,
	"class":           token.T_CLASS,
	"clone":           token.T_CLONE,
	"const":           token.T_CONST,
	"continue":        token.T_CONTINUE,
	"declare":         token.T_DECLARE,
	"default":         token.T_DEFAULT,
	"die":             token.T_EXIT,
	"do":              token.T_DO,
	"echo":            token.T_ECHO,
	"else":            token.T_ELSE,
	"elseif":          token.T_ELSEIF,
	"empty":           token.T_EMPTY,
	"enddeclare":      token.T_ENDDECLARE,
	"endfor":          token.T_ENDFOR,
	"endforeach":      token.T_ENDFOREACH,
	"endif":           token.T_ENDIF,
	"endswitch":       token.T_ENDSWITCH,
	"endwhile":        token.T_ENDWHILE,
	"eval":            token.T_EVAL,
	"exit":            token.T_EXIT,
	"extends":         token.T_EXTENDS,
	"final":           token.T_FINAL,
	"finally":         token.T_FINALLY,
	"fn":              token.T_FN,
	"for":             token.T_FOR,
	"foreach":         token.T_FOREACH,
	"function":        token.T_FUNCTION,
	"global":          token.T_GLOBAL,
	"goto":            token.T_GOTO,
	"if":              token.T_IF,
	"implements":      token.T_IMPLEMENTS,
	"include":         token.T_INCLUDE,
	"include_once":    token.T_INCLUDE_ONCE,
	"instanceof":      token.T_INSTANCEOF,
	"insteadof":       token.T_INSTEADOF,
	"interface":       token.T_INTERFACE,
	"isset":           token.T_ISSET,
	"list":            token.T_LIST,
	"namespace":       token.T_NAMESPACE,
	"new":             token.T_NEW,
	"or":              token.T_LOGICAL_OR,
	"print":           token.T_PRINT,
	"private":         token.T_PRIVATE,
	"protected":       token.T_PROTECTED,
	"public":          token.T_PUBLIC,
	"require":         token.T_REQUIRE,
	"require_once":    token.T_REQUIRE_ONCE,
	"return":          token.T_RETURN,
	"static":          token.T_STATIC,
	"switch":          token.T_SWITCH,
	"throw":           token.T_THROW,
	"trait":           token.T_TRAIT,
	"try":             token.T_TRY,
	"unset":           token.T_UNSET,
	"use":             token.T_USE,
	"var":             token.T_VAR,
	"while":           token.T_WHILE,
	"xor":             token.T_LOGICAL_XOR,
	"yield":           token.T_YIELD,
	"__halt_compiler": token.T_HALT_COMPILER,
	"__class__":       token.T_CLASS_C,
	"__dir__":         token.T_DIR,
	"__file__":        token.T_FILE,
	"__function__":    token.T_FUNC_C,
	"__line__":        token.T_LINE,
	"__method__":      token.T_METHOD_C,
	"__namespace__":   token.T_NS_C,
	"__trait__":       token.T_TRAIT_C,
}

// operator is a multi-character operator recognised as a single token.
type operator struct {
	text string
	id   token.ID
}

// operators is ordered longest first so the first prefix match wins.
var operators = []operator{
	{"<=>", token.T_SPACESHIP},
	{"**=", token.T_POW_EQUAL},
	{"...", token.T_ELLIPSIS},
	{"<<=", token.T_SL_EQUAL},
	{">>=", token.T_SR_EQUAL},
	{"===", token.T_IS_IDENTICAL},
	{"!==", token.T_IS_NOT_IDENTICAL},
	{"??=", token.T_COALESCE_EQUAL},
	{"->", token.T_OBJECT_OPERATOR},
	{"=>", token.T_DOUBLE_ARROW},
	{"::", token.T_PAAMAYIM_NEKUDOTAYIM},
	{"==", token.T_IS_EQUAL},
	{"!=", token.T_IS_NOT_EQUAL},
	{"<>", token.T_IS_NOT_EQUAL},
	{"<=", token.T_IS_SMALLER_OR_EQUAL},
	{">=", token.T_IS_GREATER_OR_EQUAL},
	{"&&", token.T_BOOLEAN_AND},
	{"||", token.T_BOOLEAN_OR},
	{"++", token.T_INC},
	{"--", token.T_DEC},
	{"+=", token.T_PLUS_EQUAL},
	{"-=", token.T_MINUS_EQUAL},
	{"*=", token.T_MUL_EQUAL},
	{"/=", token.T_DIV_EQUAL},
	{".=", token.T_CONCAT_EQUAL},
	{"%=", token.T_MOD_EQUAL},
	{"&=", token.T_AND_EQUAL},
	{"|=", token.T_OR_EQUAL},
	{"^=", token.T_XOR_EQUAL},
	{"<<", token.T_SL},
	{">>", token.T_SR},
	{"??", token.T_COALESCE},
	{"**", token.T_POW},
}
