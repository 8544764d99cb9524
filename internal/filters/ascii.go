package filters

import (
	"fmt"
)

// ASCIIHexDecode decodes ASCII hexadecimal data. Whitespace is ignored, '>'
// ends the data, and an odd final digit is treated as if followed by 0.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)/2)
	var hi byte
	half := false

	for _, c := range data {
		if isWhitespace(c) {
			continue
		}
		if c == '>' {
			break
		}
		v, ok := hexNibble(c)
		if !ok {
			return nil, fmt.Errorf("invalid hex digit: %q", c)
		}
		if half {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		out = append(out, hi<<4)
	}
	return out, nil
}

// ASCII85Decode decodes ASCII base-85 data. Groups of five characters in
// the range '!'..'u' encode four bytes, 'z' encodes four zero bytes, and
// "~>" ends the data. A final partial group of n characters yields n-1 bytes.
func ASCII85Decode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*4/5)
	var group [5]byte
	n := 0

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case isWhitespace(c):
			continue
		case c == '~':
			if i+1 < len(data) && data[i+1] == '>' {
				return flush85(out, group, n)
			}
			return nil, fmt.Errorf("invalid ASCII85 end marker at offset %d", i)
		case c == 'z' && n == 0:
			out = append(out, 0, 0, 0, 0)
		case c >= '!' && c <= 'u':
			group[n] = c - '!'
			n++
			if n == 5 {
				out = appendGroup(out, group, 4)
				n = 0
			}
		default:
			return nil, fmt.Errorf("invalid ASCII85 character: %q", c)
		}
	}
	return flush85(out, group, n)
}

func flush85(out []byte, group [5]byte, n int) ([]byte, error) {
	if n == 0 {
		return out, nil
	}
	if n == 1 {
		return nil, fmt.Errorf("ASCII85 final group has a single character")
	}
	for i := n; i < 5; i++ {
		group[i] = 84
	}
	return appendGroup(out, group, n-1), nil
}

func appendGroup(out []byte, group [5]byte, count int) []byte {
	var v uint32
	for _, d := range group {
		v = v*85 + uint32(d)
	}
	for j := 0; j < count; j++ {
		out = append(out, byte(v>>(24-8*j)))
	}
	return out
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
