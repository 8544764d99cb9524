package reader

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"

	"github.com/tsawler/pdfedit/core"
)

var objHeader = regexp.MustCompile(`(\d+)[\x00\t\n\f\r ]+(\d+)[\x00\t\n\f\r ]+obj\b`)

// rebuildXRef reconstructs the cross-reference data by scanning the file
// for "n g obj" headers. The last definition of a number wins. Objects
// held in object streams are registered unless a direct definition
// exists. The trailer is the last "trailer" dictionary that names a
// /Root, or failing that a synthesized one pointing at a /Catalog object.
func rebuildXRef(data []byte) (*core.XRefTable, error) {
	table := core.NewXRefTable()

	for _, m := range objHeader.FindAllSubmatchIndex(data, -1) {
		start := m[0]
		if start > 0 && !isSpaceOrDelim(data[start-1]) {
			continue
		}
		num, err := strconv.Atoi(string(data[m[2]:m[3]]))
		if err != nil || num <= 0 {
			continue
		}
		gen, err := strconv.Atoi(string(data[m[4]:m[5]]))
		if err != nil {
			continue
		}
		table.Set(num, core.XRefEntry{Kind: core.EntryInUse, Offset: int64(start), Generation: gen})
	}
	if len(table.Entries) == 0 {
		return nil, errors.New("no objects found while rebuilding xref")
	}

	objects := make(map[int]core.Object, len(table.Entries))
	for num, entry := range table.Entries {
		parser := core.NewParser(data)
		parser.Seek(int(entry.Offset))
		indObj, err := parser.ParseIndirectObject()
		if err != nil || indObj.Ref.Number != num {
			delete(table.Entries, num)
			continue
		}
		objects[num] = indObj.Object
	}

	registerObjectStreams(table, objects)

	trailer := lastTrailer(data)
	if trailer == nil {
		trailer = synthesizeTrailer(objects)
	}
	if trailer == nil {
		return nil, errors.New("no catalog found while rebuilding xref")
	}
	for _, key := range []string{"Prev", "XRefStm", "Type", "W", "Index", "Length", "Filter", "DecodeParms"} {
		delete(trailer, key)
	}
	table.Trailer = trailer
	return table, nil
}

// registerObjectStreams adds compressed entries for objects that only
// exist inside an object stream.
func registerObjectStreams(table *core.XRefTable, objects map[int]core.Object) {
	for num, obj := range objects {
		stream, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		if t, _ := stream.Dict.GetName("Type"); t != "ObjStm" {
			continue
		}
		os, err := core.NewObjectStream(stream)
		if err != nil {
			continue
		}
		for i := 0; i < os.N(); i++ {
			inner, err := os.ObjectNumber(i)
			if err != nil {
				break
			}
			if _, exists := table.Get(inner); exists {
				continue
			}
			table.Set(inner, core.XRefEntry{Kind: core.EntryCompressed, Stream: num, Index: i})
		}
	}
}

// lastTrailer returns the last trailer dictionary carrying a /Root, taken
// from either a "trailer" keyword or a cross-reference stream.
func lastTrailer(data []byte) core.Dict {
	end := len(data)
	for {
		i := bytes.LastIndex(data[:end], []byte("trailer"))
		if i < 0 {
			break
		}
		parser := core.NewParser(data)
		parser.Seek(i + len("trailer"))
		if obj, err := parser.ParseObject(); err == nil {
			if dict, ok := obj.(core.Dict); ok && dict.Has("Root") {
				return dict.Clone()
			}
		}
		end = i
	}
	return nil
}

// synthesizeTrailer prefers the dictionary of the highest-numbered
// cross-reference stream and otherwise points /Root at the
// highest-numbered catalog object.
func synthesizeTrailer(objects map[int]core.Object) core.Dict {
	catalog, xrefStream, max := 0, 0, 0
	for num, obj := range objects {
		if num > max {
			max = num
		}
		switch v := obj.(type) {
		case *core.Stream:
			if t, _ := v.Dict.GetName("Type"); t == "XRef" && v.Dict.Has("Root") && num > xrefStream {
				xrefStream = num
			}
		case core.Dict:
			if t, _ := v.GetName("Type"); t == "Catalog" && num > catalog {
				catalog = num
			}
		}
	}

	switch {
	case xrefStream > 0:
		return objects[xrefStream].(*core.Stream).Dict.Clone()
	case catalog > 0:
		return core.Dict{
			"Root": core.IndirectRef{Number: catalog},
			"Size": core.Int(max + 1),
		}
	}
	return nil
}

func isSpaceOrDelim(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ', '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
