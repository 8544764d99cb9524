package core

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// ReferenceResolver is an interface for resolving indirect references.
// This allows the parser to resolve indirect stream lengths when needed.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// maxNesting bounds array and dictionary depth so hostile input cannot
// exhaust the stack.
const maxNesting = 256

// Parser parses PDF objects from an in-memory byte slice using a Lexer for
// tokenization. It supports all PDF object types including indirect objects
// and streams.
type Parser struct {
	lexer    *Lexer
	resolver ReferenceResolver
	depth    int
}

// NewParser creates a new PDF parser positioned at the start of data.
func NewParser(data []byte) *Parser {
	return &Parser{lexer: NewLexer(data)}
}

// SetReferenceResolver sets the reference resolver for the parser.
// This is needed to resolve indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// Seek positions the parser at the given byte offset.
func (p *Parser) Seek(offset int) {
	p.lexer.SetPos(offset)
}

// Pos returns the offset just past the last parsed object.
func (p *Parser) Pos() int {
	return p.lexer.Pos()
}

// next returns the next non-comment token.
func (p *Parser) next() (Token, error) {
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return Token{}, err
		}
		if tok.Type != TokenComment {
			return tok, nil
		}
	}
}

// ParseObject parses and returns the next PDF object from the input.
// It returns io.EOF when the input is exhausted.
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	return p.parseFrom(tok)
}

func (p *Parser) parseFrom(tok Token) (Object, error) {
	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			return Null{}, nil
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		default:
			return nil, fmt.Errorf("unexpected keyword %q at position %d", tok.Value, tok.Pos)
		}

	case TokenInteger:
		return p.parseNumber(tok)

	case TokenReal:
		val, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real number %q at position %d", tok.Value, tok.Pos)
		}
		return Real(val), nil

	case TokenString, TokenHexString:
		return String(tok.Value), nil

	case TokenName:
		return Name(tok.Value), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()

	default:
		return nil, fmt.Errorf("unexpected token %v at position %d", tok.Type, tok.Pos)
	}
}

// parseNumber parses an integer or an indirect reference. References are
// recognized by looking ahead for the "num gen R" pattern; if the pattern
// does not match, the lexer is rewound to just after the first integer.
func (p *Parser) parseNumber(tok Token) (Object, error) {
	first, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(tok.Value), 64)
		if ferr != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", tok.Value, tok.Pos)
		}
		return Real(f), nil
	}

	mark := p.lexer.Pos()
	second, err := p.lexer.NextToken()
	if err == nil && second.Type == TokenInteger && first >= 0 {
		if gen, err := strconv.ParseInt(string(second.Value), 10, 64); err == nil && gen >= 0 {
			third, err := p.lexer.NextToken()
			if err == nil && third.Type == TokenIndirectRef {
				return IndirectRef{Number: int(first), Generation: int(gen)}, nil
			}
		}
	}
	p.lexer.SetPos(mark)
	return Int(first), nil
}

// parseArray parses a PDF array "[obj1 obj2 ...]".
func (p *Parser) parseArray() (Object, error) {
	if p.depth >= maxNesting {
		return nil, fmt.Errorf("objects nested deeper than %d", maxNesting)
	}
	p.depth++
	defer func() { p.depth-- }()

	arr := Array{}
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenArrayEnd:
			return arr, nil
		case TokenEOF:
			return nil, fmt.Errorf("unexpected EOF in array")
		}

		obj, err := p.parseFrom(tok)
		if err != nil {
			return nil, fmt.Errorf("error parsing array element: %w", err)
		}
		arr = append(arr, obj)
	}
}

// parseDict parses a PDF dictionary "<< /Key value ... >>". A key whose
// value is null is dropped, as ISO 32000 treats it as absent.
func (p *Parser) parseDict() (Object, error) {
	if p.depth >= maxNesting {
		return nil, fmt.Errorf("objects nested deeper than %d", maxNesting)
	}
	p.depth++
	defer func() { p.depth-- }()

	dict := make(Dict)
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenDictEnd:
			return dict, nil
		case TokenEOF:
			return nil, fmt.Errorf("unexpected EOF in dictionary")
		case TokenName:
		default:
			return nil, fmt.Errorf("expected name for dictionary key, got %v at position %d", tok.Type, tok.Pos)
		}
		key := string(tok.Value)

		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("error parsing dictionary value for key '%s': %w", key, err)
		}
		if _, isNull := value.(Null); isNull {
			continue
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses an indirect object definition at the current
// position.
// Format: "num gen obj <object> endobj" or "num gen obj <dict> stream ... endstream endobj"
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	num, err := p.expectInt("object number")
	if err != nil {
		return nil, err
	}
	gen, err := p.expectInt("generation number")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("obj"); err != nil {
		return nil, err
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("error parsing indirect object value: %w", err)
	}

	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	if tok.Type == TokenKeyword && string(tok.Value) == "stream" {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("stream must follow a dictionary")
		}
		stream, err := p.parseStream(dict)
		if err != nil {
			return nil, fmt.Errorf("error parsing stream: %w", err)
		}
		obj = stream

		if tok, err = p.next(); err != nil {
			return nil, err
		}
	}

	// A missing endobj is tolerated when the next object starts right away.
	if tok.Type != TokenKeyword || string(tok.Value) != "endobj" {
		if tok.Type != TokenInteger && tok.Type != TokenEOF {
			return nil, fmt.Errorf("expected 'endobj' keyword, got %v at position %d", tok.Type, tok.Pos)
		}
		p.lexer.SetPos(tok.Pos)
	}

	return &IndirectObject{
		Ref:    IndirectRef{Number: num, Generation: gen},
		Object: obj,
	}, nil
}

func (p *Parser) expectInt(what string) (int, error) {
	tok, err := p.next()
	if err != nil {
		return 0, err
	}
	if tok.Type != TokenInteger {
		return 0, fmt.Errorf("expected %s, got %v at position %d", what, tok.Type, tok.Pos)
	}
	n, err := strconv.Atoi(string(tok.Value))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", what, tok.Value)
	}
	return n, nil
}

func (p *Parser) expectKeyword(kw string) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok.Type != TokenKeyword || string(tok.Value) != kw {
		return fmt.Errorf("expected '%s' keyword, got %v at position %d", kw, tok.Type, tok.Pos)
	}
	return nil
}

var endstream = []byte("endstream")

// parseStream reads the binary data following the stream keyword. The
// declared /Length is trusted when "endstream" follows it; otherwise the
// data is taken up to the next "endstream" marker.
func (p *Parser) parseStream(dict Dict) (*Stream, error) {
	p.lexer.SkipStreamEOL()
	start := p.lexer.Pos()

	if length, ok := p.streamLength(dict); ok && p.endsAt(start+length) {
		data, err := p.lexer.ReadBytes(length)
		if err != nil {
			return nil, err
		}
		p.skipEndstream()
		return &Stream{Dict: dict, Data: data}, nil
	}

	end := p.lexer.Index(endstream)
	if end < 0 {
		return nil, fmt.Errorf("stream starting at position %d has no endstream", start)
	}
	data, err := p.lexer.ReadBytes(trimEOL(p.lexer.data[start:end]))
	if err != nil {
		return nil, err
	}
	p.lexer.SetPos(end)
	p.skipEndstream()
	return &Stream{Dict: dict, Data: data}, nil
}

// streamLength returns the /Length entry, resolving an indirect value.
func (p *Parser) streamLength(dict Dict) (int, bool) {
	switch v := dict.Get("Length").(type) {
	case Int:
		return int(v), v >= 0
	case IndirectRef:
		if p.resolver == nil {
			return 0, false
		}
		resolved, err := p.resolver.ResolveReference(v)
		if err != nil {
			return 0, false
		}
		n, ok := resolved.(Int)
		return int(n), ok && n >= 0
	default:
		return 0, false
	}
}

// endsAt reports whether "endstream" follows offset, allowing whitespace.
func (p *Parser) endsAt(offset int) bool {
	data := p.lexer.data
	if offset > len(data) {
		return false
	}
	rest := data[offset:]
	i := 0
	for i < len(rest) && isWhitespace(rest[i]) {
		i++
	}
	return bytes.HasPrefix(rest[i:], endstream)
}

func (p *Parser) skipEndstream() {
	p.lexer.skipWhitespace()
	if bytes.HasPrefix(p.lexer.data[p.lexer.pos:], endstream) {
		p.lexer.pos += len(endstream)
	}
}

// trimEOL returns the length of data without one trailing EOL marker.
func trimEOL(data []byte) int {
	n := len(data)
	if n > 0 && data[n-1] == '\n' {
		n--
	}
	if n > 0 && data[n-1] == '\r' {
		n--
	}
	return n
}
