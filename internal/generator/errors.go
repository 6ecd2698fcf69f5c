package generator

import (
	"errors"

	"github.com/whit3rabbit/phptestgen/internal/analysis"
	"github.com/whit3rabbit/phptestgen/internal/skeleton"
)

// Reasons a file is skipped. ProcessFile wraps them, so test with errors.Is.
var (
	ErrTestExists      = errors.New("test file exists")
	ErrUIFacing        = errors.New("UI facing script")
	ErrMultipleClasses = errors.New("file declares more than one class")
	ErrMoodleForm      = errors.New("moodleform class")
	ErrNoFunctions     = errors.New("no functions")
	ErrSyntax          = analysis.ErrSyntax
)

// Plugin validation errors.
var (
	ErrInvalidPluginPath = errors.New("invalid plugin path")
	ErrNotAPlugin        = errors.New("not a plugin directory")
)

var skipReasons = []error{
	ErrTestExists,
	ErrUIFacing,
	ErrMultipleClasses,
	ErrMoodleForm,
	ErrNoFunctions,
	ErrSyntax,
	skeleton.ErrNothingToTest,
}

// IsSkip reports whether err is a skip reason rather than a failure.
func IsSkip(err error) bool {
	for _, reason := range skipReasons {
		if errors.Is(err, reason) {
			return true
		}
	}
	return false
}
