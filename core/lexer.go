package core

import (
	"bytes"
	"fmt"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenComment
	TokenKeyword     // true, false, null, obj, endobj, stream, endstream, etc.
	TokenInteger     // 123
	TokenReal        // 3.14
	TokenString      // (hello)
	TokenHexString   // <48656C6C6F>
	TokenName        // /Type
	TokenArrayStart  // [
	TokenArrayEnd    // ]
	TokenDictStart   // <<
	TokenDictEnd     // >>
	TokenIndirectRef // R (after two numbers)
)

// String returns a readable name for the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenComment:
		return "comment"
	case TokenKeyword:
		return "keyword"
	case TokenInteger:
		return "integer"
	case TokenReal:
		return "real"
	case TokenString:
		return "string"
	case TokenHexString:
		return "hex string"
	case TokenName:
		return "name"
	case TokenArrayStart:
		return "'['"
	case TokenArrayEnd:
		return "']'"
	case TokenDictStart:
		return "'<<'"
	case TokenDictEnd:
		return "'>>'"
	case TokenIndirectRef:
		return "'R'"
	default:
		return "unknown"
	}
}

// Token represents a lexical token. For strings, hex strings and names,
// Value holds the decoded bytes.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int // byte offset of the token start
}

// Lexer performs lexical analysis over an in-memory PDF byte slice.
// Because the whole input is addressable, the lexer can be repositioned
// freely, which the parser uses for lookahead and the loader for xref offsets.
type Lexer struct {
	data []byte
	pos  int
}

// NewLexer creates a lexer positioned at the start of data.
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
}

// Pos returns the current byte offset.
func (l *Lexer) Pos() int {
	return l.pos
}

// SetPos moves the lexer to the given byte offset.
func (l *Lexer) SetPos(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(l.data) {
		pos = len(l.data)
	}
	l.pos = pos
}

// Len returns the length of the underlying input.
func (l *Lexer) Len() int {
	return len(l.data)
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.data) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	start := l.pos
	b := l.data[l.pos]

	switch b {
	case '%':
		return l.readComment(), nil
	case '[':
		l.pos++
		return Token{Type: TokenArrayStart, Value: []byte{'['}, Pos: start}, nil
	case ']':
		l.pos++
		return Token{Type: TokenArrayEnd, Value: []byte{']'}, Pos: start}, nil
	case '(':
		return l.readString()
	case '<':
		if l.peekAt(1) == '<' {
			l.pos += 2
			return Token{Type: TokenDictStart, Value: []byte("<<"), Pos: start}, nil
		}
		return l.readHexString()
	case '>':
		if l.peekAt(1) == '>' {
			l.pos += 2
			return Token{Type: TokenDictEnd, Value: []byte(">>"), Pos: start}, nil
		}
		return Token{}, fmt.Errorf("unexpected '>' at position %d", start)
	case '/':
		return l.readName()
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		return l.readNumber(), nil
	}

	if isRegular(b) {
		return l.readKeyword(), nil
	}

	return Token{}, fmt.Errorf("unexpected character %q at position %d", b, start)
}

// peekAt returns the byte n positions ahead, or 0 past the end.
func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.data) {
		return 0
	}
	return l.data[l.pos+n]
}

// skipWhitespace skips all whitespace characters
// PDF whitespace: space (0x20), tab (0x09), LF (0x0A), CR (0x0D), FF (0x0C), null (0x00)
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.data) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
}

// readComment reads a comment (% to end of line); the line break is consumed.
func (l *Lexer) readComment() Token {
	start := l.pos
	for l.pos < len(l.data) && l.data[l.pos] != '\r' && l.data[l.pos] != '\n' {
		l.pos++
	}
	value := l.data[start:l.pos]
	l.skipEOL()
	return Token{Type: TokenComment, Value: value, Pos: start}
}

// readString reads a literal string, resolving escapes and balanced parentheses.
func (l *Lexer) readString() (Token, error) {
	start := l.pos
	l.pos++ // (

	var buf bytes.Buffer
	depth := 1
	for {
		if l.pos >= len(l.data) {
			return Token{}, fmt.Errorf("unterminated string starting at position %d", start)
		}
		b := l.data[l.pos]
		l.pos++

		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return Token{Type: TokenString, Value: buf.Bytes(), Pos: start}, nil
			}
			buf.WriteByte(b)
		case '\\':
			l.readEscape(&buf)
		case '\r':
			// An unescaped end-of-line in a string is read as a single LF.
			if l.peekAt(0) == '\n' {
				l.pos++
			}
			buf.WriteByte('\n')
		default:
			buf.WriteByte(b)
		}
	}
}

func (l *Lexer) readEscape(buf *bytes.Buffer) {
	if l.pos >= len(l.data) {
		return
	}
	next := l.data[l.pos]
	l.pos++

	switch next {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		// line continuation
		if l.peekAt(0) == '\n' {
			l.pos++
		}
	case '\n':
		// line continuation
	default:
		if isOctalDigit(next) {
			val := next - '0'
			for i := 0; i < 2 && l.pos < len(l.data) && isOctalDigit(l.data[l.pos]); i++ {
				val = val*8 + (l.data[l.pos] - '0')
				l.pos++
			}
			buf.WriteByte(val)
			return
		}
		// \( \) \\ and unknown escapes keep the character
		buf.WriteByte(next)
	}
}

// readHexString reads a hexadecimal string <48656C6C6F> and decodes it.
// An odd trailing digit is treated as if followed by 0.
func (l *Lexer) readHexString() (Token, error) {
	start := l.pos
	l.pos++ // <

	var buf bytes.Buffer
	var hi byte
	half := false
	for {
		if l.pos >= len(l.data) {
			return Token{}, fmt.Errorf("unterminated hex string starting at position %d", start)
		}
		b := l.data[l.pos]
		l.pos++

		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		if !isHexDigit(b) {
			return Token{}, fmt.Errorf("invalid hex digit %q at position %d", b, l.pos-1)
		}
		if half {
			buf.WriteByte(hi<<4 | hexValue(b))
		} else {
			hi = hexValue(b)
		}
		half = !half
	}
	if half {
		buf.WriteByte(hi << 4)
	}

	return Token{Type: TokenHexString, Value: buf.Bytes(), Pos: start}, nil
}

// readName reads a name object /Type, decoding #xx escapes.
func (l *Lexer) readName() (Token, error) {
	start := l.pos
	l.pos++ // /

	var buf bytes.Buffer
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if !isRegular(b) {
			break
		}
		l.pos++

		if b == '#' && l.pos+1 < len(l.data) && isHexDigit(l.data[l.pos]) && isHexDigit(l.data[l.pos+1]) {
			buf.WriteByte(hexValue(l.data[l.pos])<<4 | hexValue(l.data[l.pos+1]))
			l.pos += 2
			continue
		}
		buf.WriteByte(b)
	}

	return Token{Type: TokenName, Value: buf.Bytes(), Pos: start}, nil
}

// readNumber reads an integer or real number
func (l *Lexer) readNumber() Token {
	start := l.pos
	hasDecimal := false

	if b := l.data[l.pos]; b == '-' || b == '+' {
		l.pos++
	}
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b == '.' && !hasDecimal {
			hasDecimal = true
		} else if !isDigit(b) {
			break
		}
		l.pos++
	}

	tokenType := TokenInteger
	if hasDecimal {
		tokenType = TokenReal
	}
	return Token{Type: tokenType, Value: l.data[start:l.pos], Pos: start}
}

// readKeyword reads a keyword (true, false, null, R, obj, endobj, etc.)
func (l *Lexer) readKeyword() Token {
	start := l.pos
	for l.pos < len(l.data) && isRegular(l.data[l.pos]) {
		l.pos++
	}
	value := l.data[start:l.pos]

	if len(value) == 1 && value[0] == 'R' {
		return Token{Type: TokenIndirectRef, Value: value, Pos: start}
	}
	return Token{Type: TokenKeyword, Value: value, Pos: start}
}

// skipEOL consumes one end-of-line marker (LF, CR or CR LF) if present.
func (l *Lexer) skipEOL() {
	if l.peekAt(0) == '\r' {
		l.pos++
	}
	if l.peekAt(0) == '\n' {
		l.pos++
	}
}

// SkipStreamEOL consumes the end-of-line that must follow the stream keyword.
// Some writers emit a bare CR or spaces first; those are tolerated.
func (l *Lexer) SkipStreamEOL() {
	for l.peekAt(0) == ' ' {
		l.pos++
	}
	l.skipEOL()
}

// ReadBytes reads exactly n bytes and returns a copy, so the result never
// aliases the input.
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	if n < 0 || l.pos+n > len(l.data) {
		return nil, fmt.Errorf("unexpected EOF: expected %d bytes at position %d, have %d", n, l.pos, len(l.data)-l.pos)
	}
	out := make([]byte, n)
	copy(out, l.data[l.pos:l.pos+n])
	l.pos += n
	return out, nil
}

// Index returns the offset of the next occurrence of sep at or after the
// current position, or -1.
func (l *Lexer) Index(sep []byte) int {
	i := bytes.Index(l.data[l.pos:], sep)
	if i < 0 {
		return -1
	}
	return l.pos + i
}

// Helper functions

func isWhitespace(b byte) bool {
	// PDF whitespace: space, tab, LF, CR, FF, null
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

// isRegular reports whether b is neither whitespace nor a delimiter.
func isRegular(b byte) bool {
	return !isWhitespace(b) && !isDelimiter(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
