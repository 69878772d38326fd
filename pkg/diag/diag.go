// Package diag collects non-fatal decode diagnostics.
//
// Decoders never log. Anything worth reporting that does not abort a parse
// is appended to a List which is returned alongside the decoded result, and
// the caller decides how to surface it.
package diag

import "fmt"

// Severity of a diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is one recorded decode event.
type Diagnostic struct {
	Severity Severity
	Offset   int64 // byte offset in the source buffer, -1 when not applicable
	Message  string
}

func (d Diagnostic) String() string {
	if d.Offset < 0 {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s @0x%X: %s", d.Severity, d.Offset, d.Message)
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// Warnf records a warning at offset.
func (l *List) Warnf(offset int64, format string, args ...any) {
	*l = append(*l, Diagnostic{
		Severity: Warning,
		Offset:   offset,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Infof records an informational note at offset.
func (l *List) Infof(offset int64, format string, args ...any) {
	*l = append(*l, Diagnostic{
		Severity: Info,
		Offset:   offset,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Warnings returns only the warning entries.
func (l List) Warnings() List {
	var out List
	for _, d := range l {
		if d.Severity == Warning {
			out = append(out, d)
		}
	}
	return out
}

// HasWarnings reports whether any warning was recorded.
func (l List) HasWarnings() bool {
	for _, d := range l {
		if d.Severity == Warning {
			return true
		}
	}
	return false
}
