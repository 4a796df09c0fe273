package parse

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokBNode
	tokString
	tokLangTag
	tokInteger
	tokDecimal
	tokDouble
	tokTrue
	tokFalse
	tokA
	tokDot
	tokComma
	tokSemicolon
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokCaret
	tokPrefix
	tokBase
	tokGraph
	tokEquals
	tokImplies
)

var tokenNames = map[tokenKind]string{
	tokEOF: "end of input", tokIRI: "IRI", tokPName: "prefixed name", tokBNode: "blank node",
	tokString: "string", tokLangTag: "language tag", tokInteger: "integer", tokDecimal: "decimal",
	tokDouble: "double", tokTrue: "true", tokFalse: "false", tokA: "'a'", tokDot: "'.'",
	tokComma: "','", tokSemicolon: "';'", tokLBracket: "'['", tokRBracket: "']'",
	tokLParen: "'('", tokRParen: "')'", tokLBrace: "'{'", tokRBrace: "'}'", tokCaret: "'^^'",
	tokPrefix: "prefix directive", tokBase: "base directive", tokGraph: "GRAPH",
	tokEquals: "'='", tokImplies: "'=>'",
}

func (k tokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return "token(" + strconv.Itoa(int(k)) + ")"
}

type token struct {
	kind   tokenKind
	value  string // IRI, local name, label, lexical form or tag
	prefix string // prefixed names only
	sparql bool   // PREFIX/BASE without '@'
	line   int
	col    int
}

const eof rune = -1

// lexer tokenizes Turtle, TriG and the Turtle subset of N3 from a stream.
type lexer struct {
	r      *bufio.Reader
	format string
	n3     bool
	buf    []rune
	line   int
	col    int
	last   tokenKind
	ioErr  error
}

func newLexer(r io.Reader, formatName string, n3 bool) *lexer {
	return &lexer{r: bufio.NewReader(r), format: formatName, n3: n3, line: 1, col: 1, last: tokEOF}
}

func (l *lexer) peek(n int) rune {
	for len(l.buf) <= n {
		r, _, err := l.r.ReadRune()
		if err != nil {
			if err != io.EOF && l.ioErr == nil {
				l.ioErr = err
			}
			return eof
		}
		l.buf = append(l.buf, r)
	}
	return l.buf[n]
}

func (l *lexer) read() rune {
	r := l.peek(0)
	if r == eof {
		return eof
	}
	l.buf = l.buf[1:]
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) errorf(line, col int, msg string, args ...any) error {
	return syntaxErrorf(l.format, line, col, msg, args...)
}

func (l *lexer) skipSpaceAndComments() {
	for {
		switch r := l.peek(0); {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '\ufeff':
			l.read()
		case r == '#':
			for r := l.peek(0); r != '\n' && r != eof; r = l.peek(0) {
				l.read()
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	tok, err := l.scan()
	if err == nil {
		l.last = tok.kind
	}
	return tok, err
}

func (l *lexer) scan() (token, error) {
	l.skipSpaceAndComments()
	line, col := l.line, l.col
	tok := token{line: line, col: col}
	punct := func(kind tokenKind, n int) (token, error) {
		for i := 0; i < n; i++ {
			l.read()
		}
		tok.kind = kind
		return tok, nil
	}

	c := l.peek(0)
	switch {
	case c == eof:
		if l.ioErr != nil {
			return tok, wrapSyntax(l.format, line, col, l.ioErr)
		}
		tok.kind = tokEOF
		return tok, nil
	case c == '<':
		v, err := l.lexIRI()
		tok.kind, tok.value = tokIRI, v
		return tok, err
	case c == '"' || c == '\'':
		v, err := l.lexString()
		tok.kind, tok.value = tokString, v
		return tok, err
	case c == '_' && l.peek(1) == ':':
		l.read()
		l.read()
		label := l.lexNameChars(true)
		if label == "" {
			return tok, l.errorf(line, col, "empty blank node label")
		}
		tok.kind, tok.value = tokBNode, label
		return tok, nil
	case c == '@':
		l.read()
		word := l.lexLangTag()
		if l.last == tokString {
			if word == "" {
				return tok, l.errorf(line, col, "empty language tag")
			}
			tok.kind, tok.value = tokLangTag, word
			return tok, nil
		}
		switch word {
		case "prefix":
			tok.kind = tokPrefix
		case "base":
			tok.kind = tokBase
		default:
			return tok, l.errorf(line, col, "unknown directive @%s", word)
		}
		return tok, nil
	case c == '.' && isDigit(l.peek(1)):
		return l.lexNumber(tok)
	case c == '+' || c == '-' || isDigit(c):
		return l.lexNumber(tok)
	case c == '.':
		return punct(tokDot, 1)
	case c == ',':
		return punct(tokComma, 1)
	case c == ';':
		return punct(tokSemicolon, 1)
	case c == '[':
		return punct(tokLBracket, 1)
	case c == ']':
		return punct(tokRBracket, 1)
	case c == '(':
		return punct(tokLParen, 1)
	case c == ')':
		return punct(tokRParen, 1)
	case c == '{':
		return punct(tokLBrace, 1)
	case c == '}':
		return punct(tokRBrace, 1)
	case c == '^' && l.peek(1) == '^':
		return punct(tokCaret, 2)
	case c == '=' && l.n3:
		if l.peek(1) == '>' {
			return punct(tokImplies, 2)
		}
		return punct(tokEquals, 1)
	case c == ':' || isNameStart(c):
		return l.lexName(tok)
	default:
		return tok, l.errorf(line, col, "unexpected character %q", c)
	}
}

func (l *lexer) lexIRI() (string, error) {
	line, col := l.line, l.col
	l.read() // <
	var b strings.Builder
	for {
		r := l.read()
		switch {
		case r == '>':
			return b.String(), nil
		case r == eof:
			return "", l.errorf(line, col, "unterminated IRI")
		case r == '\\':
			e := l.read()
			if e != 'u' && e != 'U' {
				return "", l.errorf(l.line, l.col, "invalid escape in IRI")
			}
			u, err := l.lexHex(e)
			if err != nil {
				return "", err
			}
			b.WriteRune(u)
		case r <= 0x20 || strings.ContainsRune("<\"{}|^`", r):
			return "", l.errorf(l.line, l.col, "invalid character %q in IRI", r)
		default:
			b.WriteRune(r)
		}
	}
}

func (l *lexer) lexHex(kind rune) (rune, error) {
	n := 4
	if kind == 'U' {
		n = 8
	}
	var digits [8]byte
	for i := 0; i < n; i++ {
		r := l.read()
		if !isHex(r) {
			return 0, l.errorf(l.line, l.col, "invalid unicode escape")
		}
		digits[i] = byte(r)
	}
	v, err := strconv.ParseUint(string(digits[:n]), 16, 32)
	if err != nil || v > unicode.MaxRune {
		return 0, l.errorf(l.line, l.col, "invalid code point in escape")
	}
	return rune(v), nil
}

func (l *lexer) lexString() (string, error) {
	line, col := l.line, l.col
	q := l.read()
	long := false
	if l.peek(0) == q && l.peek(1) == q {
		l.read()
		l.read()
		long = true
	}
	var b strings.Builder
	for {
		r := l.read()
		switch {
		case r == eof:
			return "", l.errorf(line, col, "unterminated string")
		case r == q && !long:
			return b.String(), nil
		case r == q && l.peek(0) == q && l.peek(1) == q:
			l.read()
			l.read()
			return b.String(), nil
		case (r == '\n' || r == '\r') && !long:
			return "", l.errorf(line, col, "line break in short string")
		case r == '\\':
			e := l.read()
			switch e {
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 'f':
				b.WriteByte('\f')
			case '"', '\'', '\\':
				b.WriteRune(e)
			case 'u', 'U':
				u, err := l.lexHex(e)
				if err != nil {
					return "", err
				}
				b.WriteRune(u)
			default:
				return "", l.errorf(l.line, l.col, "invalid escape \\%c", e)
			}
		default:
			b.WriteRune(r)
		}
	}
}

func (l *lexer) lexLangTag() string {
	var b strings.Builder
	for r := l.peek(0); isLetter(r) || ((isDigit(r) || r == '-') && b.Len() > 0); r = l.peek(0) {
		b.WriteRune(l.read())
	}
	return b.String()
}

func (l *lexer) lexNumber(tok token) (token, error) {
	var b strings.Builder
	if r := l.peek(0); r == '+' || r == '-' {
		b.WriteRune(l.read())
	}
	intDigits := l.digits(&b)
	kind := tokInteger
	if l.peek(0) == '.' && isDigit(l.peek(1)) {
		b.WriteRune(l.read())
		l.digits(&b)
		kind = tokDecimal
	} else if l.peek(0) == '.' && intDigits > 0 && l.exponentAt(1) {
		b.WriteRune(l.read())
		kind = tokDecimal
	}
	if l.exponentAt(0) && (intDigits > 0 || kind == tokDecimal) {
		b.WriteRune(l.read())
		if r := l.peek(0); r == '+' || r == '-' {
			b.WriteRune(l.read())
		}
		l.digits(&b)
		kind = tokDouble
	}
	if intDigits == 0 && kind == tokInteger {
		return tok, l.errorf(tok.line, tok.col, "invalid number %q", b.String())
	}
	tok.kind, tok.value = kind, b.String()
	return tok, nil
}

func (l *lexer) digits(b *strings.Builder) int {
	n := 0
	for isDigit(l.peek(0)) {
		b.WriteRune(l.read())
		n++
	}
	return n
}

func (l *lexer) exponentAt(i int) bool {
	if r := l.peek(i); r != 'e' && r != 'E' {
		return false
	}
	r := l.peek(i + 1)
	if r == '+' || r == '-' {
		r = l.peek(i + 2)
	}
	return isDigit(r)
}

// lexNameChars reads PN_CHARS with '.' allowed inside but not at the end.
// With local set it also accepts ':' and the PN_LOCAL escapes.
func (l *lexer) lexNameChars(local bool) string {
	var b strings.Builder
	for {
		r := l.peek(0)
		switch {
		case isNameChar(r) || (local && r == ':'):
			b.WriteRune(l.read())
		case r == '.' && (isNameChar(l.peek(1)) || (local && l.peek(1) == ':')):
			b.WriteRune(l.read())
		case local && r == '%' && isHex(l.peek(1)) && isHex(l.peek(2)):
			b.WriteRune(l.read())
			b.WriteRune(l.read())
			b.WriteRune(l.read())
		case local && r == '\\' && strings.ContainsRune("_~.-!$&'()*+,;=/?#@%", l.peek(1)):
			l.read()
			b.WriteRune(l.read())
		default:
			return b.String()
		}
	}
}

func (l *lexer) lexName(tok token) (token, error) {
	prefix := ""
	if l.peek(0) != ':' {
		prefix = l.lexNameChars(false)
	}
	if l.peek(0) == ':' {
		l.read()
		tok.kind, tok.prefix, tok.value = tokPName, prefix, l.lexNameChars(true)
		return tok, nil
	}
	switch {
	case prefix == "a":
		tok.kind = tokA
	case prefix == "true":
		tok.kind = tokTrue
	case prefix == "false":
		tok.kind = tokFalse
	case strings.EqualFold(prefix, "PREFIX"):
		tok.kind, tok.sparql = tokPrefix, true
	case strings.EqualFold(prefix, "BASE"):
		tok.kind, tok.sparql = tokBase, true
	case strings.EqualFold(prefix, "GRAPH"):
		tok.kind = tokGraph
	default:
		return tok, l.errorf(tok.line, tok.col, "unexpected name %q", prefix)
	}
	return tok, nil
}

func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isHex(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isNameStart(r rune) bool {
	return isLetter(r) || r == '_' || (r >= 0x80 && unicode.IsPrint(r) && r != '\ufeff')
}

func isNameChar(r rune) bool {
	return isNameStart(r) || isDigit(r) || r == '-' || r == 0xB7
}

func (t token) String() string {
	switch t.kind {
	case tokPName:
		return fmt.Sprintf("%s:%s", t.prefix, t.value)
	case tokIRI:
		return "<" + t.value + ">"
	case tokString:
		return strconv.Quote(t.value)
	case tokInteger, tokDecimal, tokDouble, tokBNode, tokLangTag:
		return t.value
	default:
		return t.kind.String()
	}
}
