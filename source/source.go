package source

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Buffer is an owned, read-only byte buffer holding one PDF file.
// The slice returned by Bytes must not be modified.
type Buffer struct {
	data  []byte
	unmap func() error
}

// FromBytes copies data into a new Buffer.
func FromBytes(data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	owned := make([]byte, len(data))
	copy(owned, data)
	return &Buffer{data: owned}, nil
}

// FromReader reads r to EOF into a new Buffer. A limit greater than zero
// bounds the number of bytes accepted.
func FromReader(r io.Reader, limit int64) (*Buffer, error) {
	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(src); err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	if buf.Len() == 0 {
		return nil, ErrEmpty
	}
	if limit > 0 && int64(buf.Len()) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return &Buffer{data: buf.Bytes()}, nil
}

// Open maps the file at path read-only. The mapping stays valid until
// Close.
func Open(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}
	if info.Size() == 0 {
		return nil, ErrEmpty
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to map source: %w", err)
	}
	return &Buffer{data: m, unmap: m.Unmap}, nil
}

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Close releases a file mapping. It is a no-op for in-memory buffers and
// safe to call more than once.
func (b *Buffer) Close() error {
	if b.unmap == nil {
		return nil
	}
	err := b.unmap()
	b.unmap = nil
	b.data = nil
	return err
}
