package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const maxLineBytes = 1 << 20

// Reader yields the lines of a rotation file, one per Scan.
// Compressed inputs (.zst, .gz) are decoded on the fly.
type Reader struct {
	sc      *bufio.Scanner
	closers []func() error
}

// Open opens path for line reading. The compression is chosen from the
// file extension.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	r := &Reader{closers: []func() error{f.Close}}

	var src io.Reader = f
	switch {
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		r.closers = append(r.closers, func() error { dec.Close(); return nil })
		src = dec
	case strings.HasSuffix(path, ".gz"):
		dec, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		r.closers = append(r.closers, dec.Close)
		src = dec
	}

	r.sc = newScanner(src)
	return r, nil
}

// NewReader reads lines from an already open, uncompressed stream.
func NewReader(src io.Reader) *Reader {
	return &Reader{sc: newScanner(src)}
}

func newScanner(src io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return sc
}

// Scan advances to the next line.
func (r *Reader) Scan() bool {
	return r.sc.Scan()
}

// Text returns the current line without its line terminator.
func (r *Reader) Text() string {
	return strings.TrimSuffix(r.sc.Text(), "\r")
}

// Err returns the first read error, if any.
func (r *Reader) Err() error {
	return r.sc.Err()
}

// Close releases the decoders and the underlying file.
func (r *Reader) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}
