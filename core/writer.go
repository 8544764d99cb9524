package core

import (
	"bytes"
	"fmt"
	"strconv"
)

// WriteObject appends the PDF encoding of obj to buf. Dictionary keys are
// written in sorted order so equal objects encode identically. Streams are
// written with a direct /Length matching their data.
func WriteObject(buf *bytes.Buffer, obj Object) error {
	switch o := obj.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(o)))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(o), 10))
	case Real:
		buf.WriteString(formatReal(float64(o)))
	case String:
		writeString(buf, []byte(o))
	case Name:
		writeName(buf, string(o))
	case Array:
		buf.WriteByte('[')
		for i, elem := range o {
			if i > 0 {
				buf.WriteByte(' ')
			}
			if err := WriteObject(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Dict:
		return writeDict(buf, o)
	case *Stream:
		dict := o.Dict.Clone()
		if dict == nil {
			dict = make(Dict)
		}
		dict["Length"] = Int(len(o.Data))
		if err := writeDict(buf, dict); err != nil {
			return err
		}
		buf.WriteString("\nstream\n")
		buf.Write(o.Data)
		buf.WriteString("\nendstream")
	case IndirectRef:
		fmt.Fprintf(buf, "%d %d R", o.Number, o.Generation)
	default:
		return fmt.Errorf("cannot encode object of type %T", obj)
	}
	return nil
}

func writeDict(buf *bytes.Buffer, d Dict) error {
	buf.WriteString("<<")
	for _, k := range d.Keys() {
		writeName(buf, k)
		buf.WriteByte(' ')
		if err := WriteObject(buf, d[k]); err != nil {
			return fmt.Errorf("key /%s: %w", k, err)
		}
		buf.WriteByte(' ')
	}
	if len(d) > 0 {
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteString(">>")
	return nil
}

// formatReal writes a real without an exponent, which PDF does not allow.
func formatReal(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

// writeString uses a literal string for mostly printable data and a hex
// string otherwise.
func writeString(buf *bytes.Buffer, s []byte) {
	binary := 0
	for _, b := range s {
		if b < 0x20 && b != '\n' && b != '\r' && b != '\t' || b > 0x7e {
			binary++
		}
	}
	if binary > len(s)/4 {
		buf.WriteByte('<')
		const hexDigits = "0123456789ABCDEF"
		for _, b := range s {
			buf.WriteByte(hexDigits[b>>4])
			buf.WriteByte(hexDigits[b&0x0f])
		}
		buf.WriteByte('>')
		return
	}

	buf.WriteByte('(')
	for _, b := range s {
		switch b {
		case '\\':
			buf.WriteString(`\\`)
		case '(':
			buf.WriteString(`\(`)
		case ')':
			buf.WriteString(`\)`)
		case '\r':
			buf.WriteString(`\r`)
		case '\n':
			buf.WriteString(`\n`)
		default:
			if b < 0x20 || b > 0x7e {
				fmt.Fprintf(buf, `\%03o`, b)
			} else {
				buf.WriteByte(b)
			}
		}
	}
	buf.WriteByte(')')
}

// writeName writes a name, escaping delimiters and non-regular bytes as #xx.
func writeName(buf *bytes.Buffer, name string) {
	buf.WriteByte('/')
	for i := 0; i < len(name); i++ {
		b := name[i]
		if b == '#' || b < 0x21 || b > 0x7e || isDelimiter(b) {
			fmt.Fprintf(buf, "#%02X", b)
		} else {
			buf.WriteByte(b)
		}
	}
}
