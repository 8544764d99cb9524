// Package filters provides the PDF stream decompression filters needed to
// read cross-reference streams, object streams and page content.
//
// # Supported Filters
//
// FlateDecode (zlib/deflate), with TIFF and PNG predictors:
//
//	decoded, err := filters.Decode("FlateDecode", data, params)
//
// ASCIIHexDecode and ASCII85Decode decode the two text encodings. Whitespace
// is ignored and the end-of-data markers are honored.
//
// CCITTFaxDecode decodes Group 3 and Group 4 fax data using
// golang.org/x/image/ccitt.
//
// # Decode Parameters
//
// Filters accept a Params map holding the values of a /DecodeParms
// dictionary converted to Go primitives:
//
//	params := filters.Params{
//	    "Predictor": 12,
//	    "Columns":   5,
//	}
//
// Image-only filters (DCTDecode, JPXDecode) pass their data through
// unchanged; the engine never needs decoded image samples.
package filters
