package rdf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FormatTerm renders a term in N-Triples syntax.
//
// The rendering is canonical: equal terms always render identically, so the
// result is usable as a storage key.
func FormatTerm(t Term) string {
	switch v := t.(type) {
	case IRI:
		return "<" + escapeIRI(v.Value) + ">"
	case BlankNode:
		return "_:" + v.ID
	case Literal:
		var b strings.Builder
		b.WriteByte('"')
		b.WriteString(EscapeLiteral(v.Lexical))
		b.WriteByte('"')
		if v.Lang != "" {
			b.WriteByte('@')
			b.WriteString(v.Lang)
		} else if v.Datatype != "" && v.Datatype != XSDString {
			b.WriteString("^^<")
			b.WriteString(escapeIRI(v.Datatype))
			b.WriteByte('>')
		}
		return b.String()
	default:
		return ""
	}
}

// EscapeLiteral escapes a lexical form for use between double quotes.
// Control characters are written as \uXXXX so that the output never contains
// raw bytes below 0x20.
func EscapeLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func escapeIRI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r <= 0x20, r == '<', r == '>', r == '"', r == '{', r == '}',
			r == '|', r == '^', r == '`', r == '\\':
			fmt.Fprintf(&b, `\u%04X`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseTerm parses exactly one term in N-Triples syntax.
// Surrounding whitespace is allowed; anything else after the term is an error.
func ParseTerm(s string) (Term, error) {
	t, pos, err := ReadTerm(s, 0)
	if err != nil {
		return nil, err
	}
	pos = SkipSpace(s, pos)
	if pos != len(s) {
		return nil, fmt.Errorf("unexpected %q after term at offset %d", s[pos:], pos)
	}
	return t, nil
}

// MustParseTerm is like ParseTerm but panics on error. Intended for tests and
// package-level fixtures.
func MustParseTerm(s string) Term {
	t, err := ParseTerm(s)
	if err != nil {
		panic(err)
	}
	return t
}

// SkipSpace returns the offset of the first non-whitespace byte at or after pos.
func SkipSpace(s string, pos int) int {
	for pos < len(s) {
		switch s[pos] {
		case ' ', '\t', '\r', '\n':
			pos++
		default:
			return pos
		}
	}
	return pos
}

// ReadTerm reads one N-Triples term starting at pos (leading whitespace is
// skipped) and returns the term and the offset just past it.
func ReadTerm(s string, pos int) (Term, int, error) {
	pos = SkipSpace(s, pos)
	if pos >= len(s) {
		return nil, pos, fmt.Errorf("expected term at offset %d, got end of input", pos)
	}
	switch {
	case s[pos] == '<':
		iri, next, err := ReadIRI(s, pos)
		if err != nil {
			return nil, pos, err
		}
		return iri, next, nil
	case strings.HasPrefix(s[pos:], "_:"):
		return readBlankNode(s, pos)
	case s[pos] == '"':
		return readLiteral(s, pos)
	default:
		return nil, pos, fmt.Errorf("unexpected character %q at offset %d", s[pos], pos)
	}
}

// ReadIRI reads an IRI reference in angle brackets starting at pos.
func ReadIRI(s string, pos int) (IRI, int, error) {
	if pos >= len(s) || s[pos] != '<' {
		return IRI{}, pos, fmt.Errorf("expected '<' at offset %d", pos)
	}
	end := strings.IndexByte(s[pos+1:], '>')
	if end < 0 {
		return IRI{}, pos, fmt.Errorf("unterminated IRI at offset %d", pos)
	}
	raw := s[pos+1 : pos+1+end]
	if strings.ContainsAny(raw, " \t\r\n<\"{}|^`") {
		return IRI{}, pos, fmt.Errorf("invalid character in IRI %q", raw)
	}
	value, err := unescapeNumeric(raw)
	if err != nil {
		return IRI{}, pos, fmt.Errorf("IRI %q: %w", raw, err)
	}
	return IRI{Value: value}, pos + end + 2, nil
}

func readBlankNode(s string, pos int) (Term, int, error) {
	start := pos + 2
	end := labelPrefix(s, start)
	if end == start {
		if start >= len(s) || isLabelBoundary(s[start]) {
			return nil, pos, fmt.Errorf("empty blank node label at offset %d", pos)
		}
		return nil, pos, fmt.Errorf("invalid blank node label at offset %d", pos)
	}
	return BlankNode{ID: s[start:end]}, end, nil
}

func isLabelBoundary(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '.', '<', '>', '"', '(', ')', ',', ';', '{', '}', '[', ']':
		return true
	default:
		return false
	}
}

func readLiteral(s string, pos int) (Term, int, error) {
	i := pos + 1
	var b strings.Builder
	for {
		if i >= len(s) {
			return nil, pos, fmt.Errorf("unterminated literal at offset %d", pos)
		}
		c := s[i]
		if c == '"' {
			i++
			break
		}
		if c == '\\' {
			r, n, err := ReadEscape(s, i)
			if err != nil {
				return nil, pos, err
			}
			b.WriteRune(r)
			i += n
			continue
		}
		if c == '\n' || c == '\r' {
			return nil, pos, fmt.Errorf("line break in literal at offset %d", i)
		}
		b.WriteByte(c)
		i++
	}
	lexical := b.String()

	if i < len(s) && s[i] == '@' {
		start := i + 1
		end := start
		for end < len(s) && (isAlnum(s[end]) || s[end] == '-') {
			end++
		}
		if end == start {
			return nil, pos, fmt.Errorf("empty language tag at offset %d", i)
		}
		return NewLangLiteral(lexical, s[start:end]), end, nil
	}
	if strings.HasPrefix(s[i:], "^^") {
		dt, next, err := ReadIRI(s, i+2)
		if err != nil {
			return nil, pos, fmt.Errorf("literal datatype: %w", err)
		}
		return NewTypedLiteral(lexical, dt.Value), next, nil
	}
	return NewLiteral(lexical), i, nil
}

// ReadEscape decodes a backslash escape (ECHAR or UCHAR) at s[pos] and
// returns the rune and the number of bytes consumed.
func ReadEscape(s string, pos int) (rune, int, error) {
	if pos+1 >= len(s) {
		return 0, 0, fmt.Errorf("unterminated escape at offset %d", pos)
	}
	switch s[pos+1] {
	case 't':
		return '\t', 2, nil
	case 'b':
		return '\b', 2, nil
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 'f':
		return '\f', 2, nil
	case '"':
		return '"', 2, nil
	case '\'':
		return '\'', 2, nil
	case '\\':
		return '\\', 2, nil
	case 'u':
		return readHexEscape(s, pos, 4)
	case 'U':
		return readHexEscape(s, pos, 8)
	default:
		return 0, 0, fmt.Errorf("invalid escape \\%c at offset %d", s[pos+1], pos)
	}
}

func readHexEscape(s string, pos, digits int) (rune, int, error) {
	if pos+2+digits > len(s) {
		return 0, 0, fmt.Errorf("truncated unicode escape at offset %d", pos)
	}
	n, err := strconv.ParseUint(s[pos+2:pos+2+digits], 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid unicode escape at offset %d: %w", pos, err)
	}
	r := rune(n)
	if !utf8.ValidRune(r) {
		return 0, 0, fmt.Errorf("invalid code point U+%X at offset %d", n, pos)
	}
	return r, 2 + digits, nil
}

// unescapeNumeric resolves \u and \U escapes, the only escapes allowed in IRIs.
func unescapeNumeric(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			i++
			continue
		}
		if i+1 >= len(s) || (s[i+1] != 'u' && s[i+1] != 'U') {
			return "", fmt.Errorf("invalid escape at offset %d", i)
		}
		r, n, err := ReadEscape(s, i)
		if err != nil {
			return "", err
		}
		b.WriteRune(r)
		i += n
	}
	return b.String(), nil
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
