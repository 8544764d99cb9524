package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// maxDimension is the largest page side, in points, PDF viewers accept.
const maxDimension = 14400

// PageSize is a page width and height in points.
type PageSize struct {
	Width  float64
	Height float64
}

// Common page sizes, portrait.
var (
	A3     = PageSize{Width: 842, Height: 1191}
	A4     = PageSize{Width: 595, Height: 842}
	A5     = PageSize{Width: 420, Height: 595}
	Letter = PageSize{Width: 612, Height: 792}
	Legal  = PageSize{Width: 612, Height: 1008}
)

var namedSizes = map[string]PageSize{
	"a3":     A3,
	"a4":     A4,
	"a5":     A5,
	"letter": Letter,
	"legal":  Legal,
}

func (s PageSize) String() string {
	return strconv.FormatFloat(s.Width, 'f', -1, 64) + "x" + strconv.FormatFloat(s.Height, 'f', -1, 64)
}

// Validate reports whether both sides are positive and within viewer limits.
func (s PageSize) Validate() error {
	if !(s.Width > 0 && s.Width <= maxDimension && s.Height > 0 && s.Height <= maxDimension) {
		return fmt.Errorf("%w: %v", ErrInvalidPageSize, s)
	}
	return nil
}

// ParsePageSize accepts a size name (A3, A4, A5, Letter, Legal, any case)
// or explicit dimensions in points such as "500x700".
func ParsePageSize(s string) (PageSize, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if size, ok := namedSizes[name]; ok {
		return size, nil
	}

	w, h, ok := strings.Cut(name, "x")
	if !ok {
		return PageSize{}, fmt.Errorf("%w: unknown size %q", ErrInvalidPageSize, s)
	}
	width, err := strconv.ParseFloat(w, 64)
	if err != nil {
		return PageSize{}, fmt.Errorf("%w: %q", ErrInvalidPageSize, s)
	}
	height, err := strconv.ParseFloat(h, 64)
	if err != nil {
		return PageSize{}, fmt.Errorf("%w: %q", ErrInvalidPageSize, s)
	}

	size := PageSize{Width: width, Height: height}
	if err := size.Validate(); err != nil {
		return PageSize{}, err
	}
	return size, nil
}
