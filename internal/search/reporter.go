package search

import (
	"fmt"
	"io"
)

// Reporter receives one notification per matching object
type Reporter interface {
	ReportMatch(term, key string) error
}

// LineReporter writes a human-readable line per match
type LineReporter struct {
	w io.Writer
}

func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

// ReportMatch implements Reporter.ReportMatch
func (r *LineReporter) ReportMatch(term, key string) error {
	_, err := fmt.Fprintf(r.w, "Found %s in %s\n", term, key)
	return err
}
