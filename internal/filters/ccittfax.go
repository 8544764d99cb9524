package filters

import (
	"bytes"
	"io"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes CCITT Group 3/4 fax data, the usual encoding of
// bi-level scanned pages.
//
// Parameters from the PDF decode parameters dictionary:
//   - K: group selector (<0 Group 4, >=0 Group 3)
//   - Columns: image width in pixels (default 1728)
//   - Rows: image height in pixels (default 0, auto-detected)
//   - BlackIs1: bit interpretation (default false, maps to ccitt.Options.Invert)
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	columns := getIntParam(params, "Columns", 1728)
	rows := getIntParam(params, "Rows", 0)
	if rows == 0 {
		rows = ccitt.AutoDetectHeight
	}

	sf := ccitt.Group3
	if getIntParam(params, "K", 0) < 0 {
		sf = ccitt.Group4
	}

	opts := &ccitt.Options{Invert: getBoolParam(params, "BlackIs1", false)}
	r := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, opts)
	return io.ReadAll(r)
}
