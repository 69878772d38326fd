package binio

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

// ShiftJIS decodes a legacy Japanese string. Plain ASCII passes through
// untouched; input that does not decode cleanly is returned as-is.
func ShiftJIS(b []byte) string {
	ascii := true
	for _, c := range b {
		if c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}

	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(b)
	if err != nil || !utf8.Valid(decoded) || bytes.ContainsRune(decoded, utf8.RuneError) {
		return string(b)
	}
	return string(decoded)
}

// FourCC returns the first four bytes of data as a string, or "" when the
// buffer is shorter than four bytes.
func FourCC(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	return string(data[:4])
}

// CheckFourCC validates that data starts with the expected 4-byte tag.
func CheckFourCC(data []byte, expected string) error {
	found := FourCC(data)
	if found != expected {
		if found == "" {
			found = string(data)
		}
		return &MagicError{Expected: expected, Found: found}
	}
	return nil
}
