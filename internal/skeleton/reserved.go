package skeleton

// reservedVariables cannot be assigned to inside a test method.
var reservedVariables = map[string]bool{
	"this":                 true,
	"GLOBALS":              true,
	"_SERVER":              true,
	"_GET":                 true,
	"_POST":                true,
	"_FILES":               true,
	"_COOKIE":              true,
	"_SESSION":             true,
	"_REQUEST":             true,
	"_ENV":                 true,
	"http_response_header": true,
	"argc":                 true,
	"argv":                 true,
}

// localVar returns a PHP variable named after name that the generated
// test may assign to. Variable names are case-sensitive in PHP.
func localVar(name string) string {
	if reservedVariables[name] {
		return "$" + name + "_result"
	}
	return "$" + name
}
