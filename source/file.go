package source

import (
	"context"
	"fmt"
	"io"
	"os"
)

// FileSource reads ranges from an io.ReaderAt such as an *os.File.
type FileSource struct {
	r     io.ReaderAt
	close func() error
}

// NewFileSource wraps r. The caller keeps ownership of r.
func NewFileSource(r io.ReaderAt) *FileSource {
	return &FileSource{r: r}
}

// OpenFile opens path for range reads. Close releases the file.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, unavailable(err, "open %s", path)
	}
	return &FileSource{r: f, close: f.Close}, nil
}

// Close closes the underlying file when it was opened by OpenFile.
func (s *FileSource) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// ReadRanges implements Source.
func (s *FileSource) ReadRanges(ctx context.Context, ranges []Range) ([]byte, error) {
	if err := validate(ranges); err != nil {
		return nil, err
	}
	out := make([]byte, TotalLength(ranges))
	pos := int64(0)
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return nil, unavailable(err, "read %v", r)
		}
		n, err := s.r.ReadAt(out[pos:pos+r.Length], r.Offset)
		if int64(n) < r.Length {
			if err == nil || err == io.EOF {
				err = fmt.Errorf("short read: %d of %d bytes", n, r.Length)
			}
			return nil, unavailable(err, "read %v", r)
		}
		pos += r.Length
	}
	Logger().Debug("source: file ranges read", "ranges", len(ranges), "bytes", len(out))
	return out, nil
}

// MemorySource serves ranges from a byte slice.
type MemorySource []byte

// ReadRanges implements Source.
func (m MemorySource) ReadRanges(ctx context.Context, ranges []Range) ([]byte, error) {
	if err := validate(ranges); err != nil {
		return nil, err
	}
	out := make([]byte, 0, TotalLength(ranges))
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return nil, unavailable(err, "read %v", r)
		}
		if r.End() > int64(len(m)) {
			return nil, unavailable(io.ErrUnexpectedEOF, "read %v of %d bytes", r, len(m))
		}
		out = append(out, m[r.Offset:r.End()]...)
	}
	return out, nil
}
