package filters

import "fmt"

// rowLayout describes the sample geometry a predictor operates on.
type rowLayout struct {
	colors  int
	bpc     int
	columns int
}

func newRowLayout(params Params) rowLayout {
	return rowLayout{
		colors:  getIntParam(params, "Colors", 1),
		bpc:     getIntParam(params, "BitsPerComponent", 8),
		columns: getIntParam(params, "Columns", 1),
	}
}

// pixelBytes is the distance in bytes between corresponding samples of
// adjacent pixels, never less than one.
func (l rowLayout) pixelBytes() int {
	n := (l.colors*l.bpc + 7) / 8
	if n < 1 {
		return 1
	}
	return n
}

// rowBytes is the number of bytes of sample data in one row.
func (l rowLayout) rowBytes() int {
	return (l.columns*l.colors*l.bpc + 7) / 8
}

func (l rowLayout) validate() error {
	if l.colors < 1 || l.columns < 1 {
		return fmt.Errorf("invalid predictor geometry: colors=%d columns=%d", l.colors, l.columns)
	}
	switch l.bpc {
	case 1, 2, 4, 8, 16:
		return nil
	default:
		return fmt.Errorf("invalid BitsPerComponent: %d", l.bpc)
	}
}

// unpredict reverses predictor 2 (TIFF) or 10-15 (PNG).
func unpredict(data []byte, predictor int, layout rowLayout) ([]byte, error) {
	if err := layout.validate(); err != nil {
		return nil, err
	}
	switch {
	case predictor == 2:
		return unpredictTIFF(data, layout)
	case predictor >= 10 && predictor <= 15:
		return unpredictPNG(data, layout)
	default:
		return nil, fmt.Errorf("unsupported predictor: %d", predictor)
	}
}

// unpredictTIFF reverses TIFF Predictor 2 for 8-bit samples, where each
// sample is stored as the difference from the sample one pixel to its left.
func unpredictTIFF(data []byte, layout rowLayout) ([]byte, error) {
	if layout.bpc != 8 {
		return nil, fmt.Errorf("TIFF predictor supports 8 bits per component, got %d", layout.bpc)
	}
	row := layout.rowBytes()
	if len(data)%row != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), row)
	}

	out := make([]byte, len(data))
	copy(out, data)
	for start := 0; start < len(out); start += row {
		for i := layout.colors; i < row; i++ {
			out[start+i] += out[start+i-layout.colors]
		}
	}
	return out, nil
}

// unpredictPNG reverses the PNG filters. Every row carries a leading tag
// byte selecting None, Sub, Up, Average or Paeth for that row. A short
// final row is decoded as far as it goes.
func unpredictPNG(data []byte, layout rowLayout) ([]byte, error) {
	row := layout.rowBytes()
	bpp := layout.pixelBytes()
	stride := row + 1

	out := make([]byte, 0, len(data)/stride*row)
	prev := make([]byte, row)
	cur := make([]byte, row)

	for start := 0; start < len(data); start += stride {
		end := start + stride
		if end > len(data) {
			end = len(data)
		}
		tag := data[start]
		raw := data[start+1 : end]

		for i := range cur {
			cur[i] = 0
		}
		copy(cur, raw)

		for i := 0; i < len(raw); i++ {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]

			switch tag {
			case 0:
			case 1:
				cur[i] += left
			case 2:
				cur[i] += up
			case 3:
				cur[i] += byte((int(left) + int(up)) / 2)
			case 4:
				cur[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG predictor tag %d in row %d", tag, start/stride)
			}
		}

		out = append(out, cur[:len(raw)]...)
		prev, cur = cur, prev
	}
	return out, nil
}

// paeth picks whichever of left, up and upper-left is closest to the
// linear estimate left+up-upLeft.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
