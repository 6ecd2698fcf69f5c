package generator

import (
	"fmt"
	"io"
)

// Skipped is a file that produced no test, and why.
type Skipped struct {
	Path   string
	Reason error
}

// Report summarises a generation run. Paths are plugin relative.
type Report struct {
	Generated []string
	Skipped   []Skipped
	Errors    []error
	DryRun    bool
}

func (r *Report) add(rel, testFile string, err error) {
	switch {
	case err == nil:
		r.Generated = append(r.Generated, testFile)
	case IsSkip(err):
		r.Skipped = append(r.Skipped, Skipped{Path: rel, Reason: err})
	default:
		r.Errors = append(r.Errors, err)
	}
}

// Print writes a human readable summary.
func (r *Report) Print(w io.Writer) {
	verb := "Generated"
	if r.DryRun {
		verb = "Would generate"
	}
	for _, f := range r.Generated {
		fmt.Fprintf(w, "%s %s\n", verb, f)
	}
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "Skipped %s: %v\n", s.Path, s.Reason)
	}
	for _, err := range r.Errors {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	fmt.Fprintf(w, "\nTest skeleton generation complete: %d generated, %d skipped, %d errors\n",
		len(r.Generated), len(r.Skipped), len(r.Errors))
}
