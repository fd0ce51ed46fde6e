package directive

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokEquals
	tokComma
)

func (k tokenKind) String() string {
	switch k {
	case tokWord:
		return "word"
	case tokString:
		return "string"
	case tokEquals:
		return "'='"
	case tokComma:
		return "','"
	default:
		return "end of input"
	}
}

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

func (t token) String() string {
	switch t.kind {
	case tokWord:
		return fmt.Sprintf("%q", t.text)
	case tokString:
		return "quoted string"
	default:
		return t.kind.String()
	}
}

// syntaxError records a position-annotated lexing or parsing failure.
type syntaxError struct {
	line, col int
	msg       string
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.line, e.col, e.msg)
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func lex(src string) ([]token, error) {
	lx := &lexer{src: src, line: 1, col: 1}
	var toks []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) peekRune() (rune, int) {
	if lx.pos >= len(lx.src) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(lx.src[lx.pos:])
}

func (lx *lexer) advance() rune {
	r, size := lx.peekRune()
	lx.pos += size
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) errorf(line, col int, format string, args ...any) error {
	return &syntaxError{line: line, col: col, msg: fmt.Sprintf(format, args...)}
}

func (lx *lexer) next() (token, error) {
	for {
		r, size := lx.peekRune()
		if size == 0 {
			return token{kind: tokEOF, line: lx.line, col: lx.col}, nil
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			lx.advance()
			continue
		}
		break
	}

	line, col := lx.line, lx.col
	r, _ := lx.peekRune()
	switch {
	case r == '=':
		lx.advance()
		return token{kind: tokEquals, text: "=", line: line, col: col}, nil
	case r == ',':
		lx.advance()
		return token{kind: tokComma, text: ",", line: line, col: col}, nil
	case r == '"':
		s, err := lx.lexString()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: s, line: line, col: col}, nil
	case isWordStart(r):
		start := lx.pos
		for {
			r, size := lx.peekRune()
			if size == 0 || !isWordPart(r) {
				break
			}
			lx.advance()
		}
		return token{kind: tokWord, text: lx.src[start:lx.pos], line: line, col: col}, nil
	default:
		return token{}, lx.errorf(line, col, "unexpected character %q", r)
	}
}

func (lx *lexer) lexString() (string, error) {
	line, col := lx.line, lx.col
	lx.advance() // opening quote
	var b strings.Builder
	for {
		r, size := lx.peekRune()
		if size == 0 {
			return "", lx.errorf(line, col, "unterminated string")
		}
		if r == utf8.RuneError && size == 1 {
			return "", lx.errorf(lx.line, lx.col, "invalid UTF-8 in string")
		}
		lx.advance()
		switch r {
		case '"':
			return b.String(), nil
		case '\\':
			escLine, escCol := lx.line, lx.col-1
			e, esize := lx.peekRune()
			if esize == 0 {
				return "", lx.errorf(line, col, "unterminated string")
			}
			lx.advance()
			switch e {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'x':
				hi := lx.peekHex()
				if hi >= 0 {
					lx.advance()
				}
				lo := lx.peekHex()
				if hi < 0 || lo < 0 {
					return "", lx.errorf(escLine, escCol, "\\x must be followed by two hex digits")
				}
				lx.advance()
				b.WriteByte(byte(hi<<4 | lo))
			default:
				return "", lx.errorf(escLine, escCol, "invalid escape sequence \\%c", e)
			}
		default:
			b.WriteRune(r)
		}
	}
}

// peekHex returns the value of the next hex digit, or -1.
func (lx *lexer) peekHex() int {
	r, _ := lx.peekRune()
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	}
	return -1
}

func isWordStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isWordPart(r rune) bool {
	return isWordStart(r) || (r >= '0' && r <= '9')
}

// stripFence unwraps a response that is entirely enclosed in a Markdown
// code fence (```lang ... ```).
func stripFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return text
	}
	body := strings.TrimSuffix(t, "```")
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return text
	}
	return body[nl+1:]
}

// quote renders s as a string literal accepted by the lexer. Newlines and
// tabs are kept verbatim so long CONTENT payloads stay readable. Bytes that
// are not valid UTF-8 are written as \xHH.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(&b, `\x%02x`, s[i])
			i++
			continue
		}
		i += size
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
