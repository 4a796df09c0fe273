package rdf

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidBlankNodeLabel is wrapped by ValidateBlankNodeLabel failures.
var ErrInvalidBlankNodeLabel = errors.New("invalid blank node label")

// ValidateBlankNodeLabel checks id against the N-Triples BLANK_NODE_LABEL
// production: a PN_CHARS_U or digit, then PN_CHARS or '.', never ending in
// '.'. Only such labels survive FormatTerm followed by ParseTerm.
func ValidateBlankNodeLabel(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidBlankNodeLabel)
	}
	if labelPrefix(id, 0) != len(id) {
		return fmt.Errorf("%w: %q", ErrInvalidBlankNodeLabel, id)
	}
	return nil
}

// labelPrefix returns the end offset of the longest valid blank node label
// starting at s[pos:], or pos when none starts there.
func labelPrefix(s string, pos int) int {
	r, size := utf8.DecodeRuneInString(s[pos:])
	if size == 0 || r == utf8.RuneError || !(isPNCharsU(r) || isDigit(r)) {
		return pos
	}
	end := pos + size
	valid := end
	for end < len(s) {
		r, size = utf8.DecodeRuneInString(s[end:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		if r != '.' && !isPNChars(r) {
			break
		}
		end += size
		if r != '.' {
			valid = end
		}
	}
	return valid
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isPNCharsBase(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		return true
	case r >= 0x00C0 && r <= 0x00D6, r >= 0x00D8 && r <= 0x00F6, r >= 0x00F8 && r <= 0x02FF:
		return true
	case r >= 0x0370 && r <= 0x037D, r >= 0x037F && r <= 0x1FFF, r >= 0x200C && r <= 0x200D:
		return true
	case r >= 0x2070 && r <= 0x218F, r >= 0x2C00 && r <= 0x2FEF, r >= 0x3001 && r <= 0xD7FF:
		return true
	case r >= 0xF900 && r <= 0xFDCF, r >= 0xFDF0 && r <= 0xFFFD, r >= 0x10000 && r <= 0xEFFFF:
		return true
	}
	return false
}

func isPNCharsU(r rune) bool { return r == '_' || isPNCharsBase(r) }

func isPNChars(r rune) bool {
	switch {
	case isPNCharsU(r), isDigit(r), r == '-', r == 0x00B7:
		return true
	case r >= 0x0300 && r <= 0x036F, r >= 0x203F && r <= 0x2040:
		return true
	}
	return false
}
