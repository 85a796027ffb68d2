package diag

import (
	"fmt"
	"os"
)

// Formatter writes diagnostics to the error stream using the textual sink
// contract (spec §6): one line per diagnostic, prefixed `ERROR:` for encoder
// diagnostics, `TypeError(<code>):` for inference diagnostics, `DEBUG:` for
// anything emitted at SeverityNote.
type Formatter struct {
	out *os.File
}

// NewFormatter creates a formatter writing to stderr.
func NewFormatter() *Formatter {
	return &Formatter{out: os.Stderr}
}

// Format prints a single diagnostic line.
func (f *Formatter) Format(d Diagnostic) {
	fmt.Fprintln(f.out, f.Line(d))
}

// Line renders a diagnostic to the textual form the sink contract specifies,
// without writing it anywhere — tests assert against this directly.
func (f *Formatter) Line(d Diagnostic) string {
	prefix := f.prefix(d)
	if d.Span.Filename != "" {
		return fmt.Sprintf("%s %s (%s:%d:%d)", prefix, d.Message, d.Span.Filename, d.Span.Line, d.Span.Column)
	}
	return fmt.Sprintf("%s %s", prefix, d.Message)
}

func (f *Formatter) prefix(d Diagnostic) string {
	switch {
	case d.Severity == SeverityNote:
		return "DEBUG:"
	case d.Stage == StageInfer:
		return fmt.Sprintf("TypeError(%s):", d.Code)
	default:
		return "ERROR:"
	}
}
