package core

import (
	"bytes"
	"fmt"
	"strconv"
)

// EntryKind classifies a cross-reference entry.
type EntryKind int

const (
	EntryFree       EntryKind = iota // free object
	EntryInUse                       // object stored at a byte offset
	EntryCompressed                  // object stored inside an object stream
)

// XRefEntry represents a single cross-reference entry
type XRefEntry struct {
	Kind       EntryKind
	Offset     int64 // byte offset of the object (EntryInUse)
	Generation int   // generation number (EntryFree, EntryInUse)
	Stream     int   // object number of the containing object stream (EntryCompressed)
	Index      int   // index within the object stream (EntryCompressed)
}

// XRefTable maps object numbers to their locations, along with the
// trailer dictionary that accompanied them.
type XRefTable struct {
	Entries map[int]XRefEntry
	Trailer Dict
}

// NewXRefTable creates a new empty XRef table
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]XRefEntry),
		Trailer: make(Dict),
	}
}

// Get retrieves an XRef entry by object number
func (x *XRefTable) Get(objNum int) (XRefEntry, bool) {
	entry, ok := x.Entries[objNum]
	return entry, ok
}

// Set adds or updates an XRef entry
func (x *XRefTable) Set(objNum int, entry XRefEntry) {
	x.Entries[objNum] = entry
}

// Size returns the number of entries in the table
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// tailWindow is how far from the end of the file startxref is searched for.
const tailWindow = 1024

// XRefParser parses PDF cross-reference sections from an in-memory file.
type XRefParser struct {
	data []byte
}

// NewXRefParser creates a new XRef parser over the complete file contents.
func NewXRefParser(data []byte) *XRefParser {
	return &XRefParser{data: data}
}

// FindXRef returns the offset recorded after the last "startxref" keyword
// near the end of the file.
func (x *XRefParser) FindXRef() (int64, error) {
	from := len(x.data) - tailWindow
	if from < 0 {
		from = 0
	}
	tail := x.data[from:]

	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx == -1 {
		return 0, fmt.Errorf("startxref not found in PDF")
	}

	lexer := NewLexer(tail)
	lexer.SetPos(idx + len("startxref"))
	tok, err := lexer.NextToken()
	if err != nil || tok.Type != TokenInteger {
		return 0, fmt.Errorf("invalid startxref format")
	}
	offset, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil || offset < 0 || offset >= int64(len(x.data)) {
		return 0, fmt.Errorf("invalid xref offset %q", tok.Value)
	}
	return offset, nil
}

// ParseXRef parses the single xref section at offset, which may be a
// traditional table or an xref stream. For hybrid files, entries from the
// stream named by /XRefStm fill in objects the table leaves out.
func (x *XRefParser) ParseXRef(offset int64) (*XRefTable, error) {
	if offset < 0 || offset >= int64(len(x.data)) {
		return nil, fmt.Errorf("xref offset %d outside file of %d bytes", offset, len(x.data))
	}

	isStream, err := x.isXRefStream(offset)
	if err != nil {
		return nil, err
	}
	if isStream {
		return x.parseXRefStream(offset)
	}

	table, err := x.parseTable(offset)
	if err != nil {
		return nil, err
	}

	if stmOffset, ok := table.Trailer.GetInt("XRefStm"); ok {
		hidden, err := x.parseXRefStream(int64(stmOffset))
		if err != nil {
			return nil, fmt.Errorf("failed to parse /XRefStm: %w", err)
		}
		for num, entry := range hidden.Entries {
			if existing, ok := table.Get(num); !ok || existing.Kind == EntryFree {
				table.Set(num, entry)
			}
		}
	}
	return table, nil
}

// isXRefStream reports whether offset starts an indirect object (an xref
// stream) rather than the "xref" keyword.
func (x *XRefParser) isXRefStream(offset int64) (bool, error) {
	lexer := NewLexer(x.data)
	lexer.SetPos(int(offset))
	tok, err := lexer.NextToken()
	if err != nil {
		return false, err
	}
	switch {
	case tok.Type == TokenKeyword && string(tok.Value) == "xref":
		return false, nil
	case tok.Type == TokenInteger:
		return true, nil
	default:
		return false, fmt.Errorf("expected xref table or stream at offset %d", offset)
	}
}

// parseTable parses a traditional xref table and its trailer.
// Entries have the form "nnnnnnnnnn ggggg n" or "nnnnnnnnnn ggggg f".
func (x *XRefParser) parseTable(offset int64) (*XRefTable, error) {
	lexer := NewLexer(x.data)
	lexer.SetPos(int(offset))
	if tok, _ := lexer.NextToken(); string(tok.Value) != "xref" {
		return nil, fmt.Errorf("expected 'xref' keyword at offset %d", offset)
	}

	table := NewXRefTable()
	for {
		tok, err := lexer.NextToken()
		if err != nil {
			return nil, fmt.Errorf("invalid xref table: %w", err)
		}
		if tok.Type == TokenKeyword && string(tok.Value) == "trailer" {
			break
		}
		if tok.Type != TokenInteger {
			return nil, fmt.Errorf("invalid subsection header at position %d", tok.Pos)
		}
		first, _ := strconv.Atoi(string(tok.Value))

		countTok, err := lexer.NextToken()
		if err != nil || countTok.Type != TokenInteger {
			return nil, fmt.Errorf("invalid subsection count at position %d", tok.Pos)
		}
		count, _ := strconv.Atoi(string(countTok.Value))

		for i := 0; i < count; i++ {
			entry, err := parseTableEntry(lexer)
			if err != nil {
				return nil, fmt.Errorf("failed to parse xref entry %d: %w", first+i, err)
			}
			table.Set(first+i, entry)
		}
	}

	parser := &Parser{lexer: lexer}
	obj, err := parser.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse trailer: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("trailer is not a dictionary, got %T", obj)
	}
	table.Trailer = trailer
	return table, nil
}

func parseTableEntry(lexer *Lexer) (XRefEntry, error) {
	offTok, err := lexer.NextToken()
	if err != nil || offTok.Type != TokenInteger {
		return XRefEntry{}, fmt.Errorf("expected offset")
	}
	genTok, err := lexer.NextToken()
	if err != nil || genTok.Type != TokenInteger {
		return XRefEntry{}, fmt.Errorf("expected generation")
	}
	flagTok, err := lexer.NextToken()
	if err != nil || flagTok.Type != TokenKeyword {
		return XRefEntry{}, fmt.Errorf("expected in-use flag")
	}

	offset, err := strconv.ParseInt(string(offTok.Value), 10, 64)
	if err != nil {
		return XRefEntry{}, fmt.Errorf("invalid offset %q", offTok.Value)
	}
	generation, err := strconv.Atoi(string(genTok.Value))
	if err != nil {
		return XRefEntry{}, fmt.Errorf("invalid generation %q", genTok.Value)
	}

	switch string(flagTok.Value) {
	case "n":
		return XRefEntry{Kind: EntryInUse, Offset: offset, Generation: generation}, nil
	case "f":
		return XRefEntry{Kind: EntryFree, Generation: generation}, nil
	default:
		return XRefEntry{}, fmt.Errorf("invalid in-use flag: %q", flagTok.Value)
	}
}

// parseXRefStream parses a cross-reference stream (PDF 1.5+) at offset.
// The stream dictionary doubles as the trailer.
func (x *XRefParser) parseXRefStream(offset int64) (*XRefTable, error) {
	parser := NewParser(x.data)
	parser.Seek(int(offset))
	indObj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse xref stream object: %w", err)
	}
	stream, ok := indObj.Object.(*Stream)
	if !ok {
		return nil, fmt.Errorf("xref stream object is %T, not a stream", indObj.Object)
	}
	if name, _ := stream.Dict.GetName("Type"); name != "XRef" {
		return nil, fmt.Errorf("stream at offset %d is not an xref stream", offset)
	}

	w, err := xrefWidths(stream.Dict)
	if err != nil {
		return nil, err
	}
	index, err := xrefIndex(stream.Dict)
	if err != nil {
		return nil, err
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode xref stream: %w", err)
	}

	table := NewXRefTable()
	table.Trailer = stream.Dict
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		for num := index[i]; num < index[i]+index[i+1]; num++ {
			entry, n, err := parseXRefStreamEntry(data[pos:], w)
			if err != nil {
				return nil, fmt.Errorf("xref stream entry for object %d: %w", num, err)
			}
			pos += n
			table.Set(num, entry)
		}
	}
	return table, nil
}

func xrefWidths(dict Dict) ([]int, error) {
	arr, ok := dict.GetArray("W")
	if !ok || len(arr) != 3 {
		return nil, fmt.Errorf("xref stream /W must be an array of three integers")
	}
	w := make([]int, 3)
	for i := range w {
		v, ok := arr.Get(i).(Int)
		if !ok || v < 0 || v > 8 {
			return nil, fmt.Errorf("invalid xref stream /W entry %d", i)
		}
		w[i] = int(v)
	}
	return w, nil
}

func xrefIndex(dict Dict) ([]int, error) {
	arr, ok := dict.GetArray("Index")
	if !ok {
		size, ok := dict.GetInt("Size")
		if !ok {
			return nil, fmt.Errorf("xref stream missing /Size")
		}
		return []int{0, int(size)}, nil
	}
	if len(arr)%2 != 0 {
		return nil, fmt.Errorf("xref stream /Index has odd length %d", len(arr))
	}
	index := make([]int, len(arr))
	for i := range arr {
		v, ok := arr.Get(i).(Int)
		if !ok || v < 0 {
			return nil, fmt.Errorf("invalid xref stream /Index entry %d", i)
		}
		index[i] = int(v)
	}
	return index, nil
}

// parseXRefStreamEntry decodes one binary entry laid out by /W. A zero
// width for the type field means type 1.
func parseXRefStreamEntry(data []byte, w []int) (XRefEntry, int, error) {
	total := w[0] + w[1] + w[2]
	if len(data) < total {
		return XRefEntry{}, 0, fmt.Errorf("truncated entry: need %d bytes, have %d", total, len(data))
	}

	kind := int64(1)
	if w[0] > 0 {
		kind = readBigEndianInt(data[:w[0]], w[0])
	}
	f1 := readBigEndianInt(data[w[0]:], w[1])
	f2 := readBigEndianInt(data[w[0]+w[1]:], w[2])

	switch kind {
	case 0:
		return XRefEntry{Kind: EntryFree, Generation: int(f2)}, total, nil
	case 1:
		return XRefEntry{Kind: EntryInUse, Offset: f1, Generation: int(f2)}, total, nil
	case 2:
		return XRefEntry{Kind: EntryCompressed, Stream: int(f1), Index: int(f2)}, total, nil
	default:
		// Unknown types are reserved and must be treated as null references.
		return XRefEntry{Kind: EntryFree}, total, nil
	}
}

// readBigEndianInt reads a width-byte big-endian unsigned integer.
func readBigEndianInt(data []byte, width int) int64 {
	var v int64
	for i := 0; i < width && i < len(data); i++ {
		v = v<<8 | int64(data[i])
	}
	return v
}

// ParseAll parses the newest xref section and every older section reached
// through /Prev, returning the merged table. Loops in the /Prev chain are
// reported as errors.
func (x *XRefParser) ParseAll() (*XRefTable, error) {
	offset, err := x.FindXRef()
	if err != nil {
		return nil, err
	}

	var sections []*XRefTable
	seen := make(map[int64]bool)
	for {
		if seen[offset] {
			return nil, fmt.Errorf("xref /Prev chain loops at offset %d", offset)
		}
		seen[offset] = true

		table, err := x.ParseXRef(offset)
		if err != nil {
			return nil, fmt.Errorf("failed to parse xref at offset %d: %w", offset, err)
		}
		sections = append(sections, table)

		prev, ok := table.Trailer.GetInt("Prev")
		if !ok {
			break
		}
		offset = int64(prev)
	}

	// oldest first
	for i, j := 0, len(sections)-1; i < j; i, j = i+1, j-1 {
		sections[i], sections[j] = sections[j], sections[i]
	}
	return MergeXRefTables(sections...), nil
}

// trailerOnlyKeys are xref-section keys that lose their meaning once
// sections are merged.
var trailerOnlyKeys = []string{
	"Prev", "XRefStm", "Type", "W", "Index", "Length", "Filter", "DecodeParms",
}

// MergeXRefTables merges xref sections given oldest first. Entries and
// trailer keys from later sections override earlier ones.
func MergeXRefTables(tables ...*XRefTable) *XRefTable {
	merged := NewXRefTable()
	for _, table := range tables {
		for num, entry := range table.Entries {
			merged.Set(num, entry)
		}
		for k, v := range table.Trailer {
			merged.Trailer[k] = v
		}
	}
	for _, k := range trailerOnlyKeys {
		delete(merged.Trailer, k)
	}
	return merged
}
