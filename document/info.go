package document

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/tsawler/pdfedit/core"
)

// Info holds the standard document information entries as UTF-8 text.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
}

// Info decodes the document information dictionary. Missing entries are
// empty.
func (d *Document) Info() Info {
	get := func(key string) string {
		obj, _ := d.Resolve(d.info.Get(key))
		s, _ := obj.(core.String)
		return DecodeText(s)
	}
	return Info{
		Title:    get("Title"),
		Author:   get("Author"),
		Subject:  get("Subject"),
		Keywords: get("Keywords"),
		Creator:  get("Creator"),
		Producer: get("Producer"),
	}
}

var (
	utf16BOM = []byte{0xfe, 0xff}
	utf8BOM  = []byte{0xef, 0xbb, 0xbf}
)

// DecodeText decodes a PDF text string: UTF-16BE when it starts with a
// byte order mark, UTF-8 with the PDF 2.0 marker, PDFDocEncoding
// otherwise. PDFDocEncoding is read as Latin-1, which agrees with it
// outside 0x18-0x1f and 0x80-0x9f.
func DecodeText(s core.String) string {
	b := []byte(s)
	switch {
	case bytes.HasPrefix(b, utf16BOM):
		out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
		if err != nil {
			return string(b)
		}
		return string(out)
	case bytes.HasPrefix(b, utf8BOM):
		return string(b[len(utf8BOM):])
	default:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		if err != nil {
			return string(b)
		}
		return string(out)
	}
}
