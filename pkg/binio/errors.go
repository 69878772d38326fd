package binio

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrUnexpectedEOF is returned when a read spans past the end of the buffer.
	// It wraps io.ErrUnexpectedEOF so callers may test for either.
	ErrUnexpectedEOF  = fmt.Errorf("binio: %w", io.ErrUnexpectedEOF)
	ErrSeekOutOfRange = errors.New("binio: seek out of range")
	ErrUnterminated   = errors.New("binio: unterminated string")
	ErrInvalidMagic   = errors.New("invalid magic")
	ErrStructural     = errors.New("structural error")
)

// MagicError reports a FourCC mismatch.
type MagicError struct {
	Expected string
	Found    string
}

func (e *MagicError) Error() string {
	return fmt.Sprintf("invalid magic: expected %q, found %q", e.Expected, e.Found)
}

func (e *MagicError) Is(target error) bool { return target == ErrInvalidMagic }

// StructuralError reports a fatal layout inconsistency in a file.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "structural error: " + e.Reason
}

func (e *StructuralError) Is(target error) bool { return target == ErrStructural }

// Structuralf builds a StructuralError with a formatted reason.
func Structuralf(format string, args ...any) error {
	return &StructuralError{Reason: fmt.Sprintf(format, args...)}
}
