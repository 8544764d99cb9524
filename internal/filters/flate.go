package filters

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// FlateDecode decompresses zlib/deflate data and then undoes the predictor
// named by the Predictor parameter, if any.
//
// Truncated streams are common in the wild; when the zlib reader stops with
// an unexpected EOF after producing output, the recovered bytes are returned.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	decompressed, err := inflate(data)
	if err != nil {
		return nil, fmt.Errorf("zlib decompression failed: %w", err)
	}

	predictor := getIntParam(params, "Predictor", 1)
	if predictor == 1 {
		return decompressed, nil
	}

	out, err := unpredict(decompressed, predictor, newRowLayout(params))
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return out, nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, zr)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) && buf.Len() > 0 {
			return buf.Bytes(), nil
		}
		return nil, err
	}
	return buf.Bytes(), nil
}
