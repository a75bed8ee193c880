// Package source defines the byte-range contract used to load canvas data
// lazily, together with file, HTTP, in-memory and caching implementations.
//
// A Source resolves a list of ranges into the concatenation of their bytes.
// All failures wrap ErrSourceUnavailable so callers can tell a missing
// backing store from a malformed document.
package source

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable is returned when range data cannot be fetched.
	ErrSourceUnavailable = errors.New("source: unavailable")

	// ErrInvalidRange is returned for ranges with negative offset or length.
	ErrInvalidRange = errors.New("source: invalid range")
)

// Range is a contiguous span of bytes in a backing store.
type Range struct {
	Offset int64 `json:"offset" yaml:"offset"`
	Length int64 `json:"length" yaml:"length"`
}

// End returns the exclusive end offset.
func (r Range) End() int64 {
	return r.Offset + r.Length
}

// Validate returns ErrInvalidRange for negative offsets or lengths.
func (r Range) Validate() error {
	if r.Offset < 0 || r.Length < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRange, r)
	}
	return nil
}

// HeaderValue formats the range for an HTTP Range header.
// The range must not be empty.
func (r Range) HeaderValue() string {
	return fmt.Sprintf("bytes=%d-%d", r.Offset, r.End()-1)
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Offset, r.End())
}

// TotalLength returns the summed length of ranges.
func TotalLength(ranges []Range) int64 {
	var n int64
	for _, r := range ranges {
		n += r.Length
	}
	return n
}

// Source fetches byte ranges.
//
// ReadRanges returns the bytes of every range concatenated in order.
// Implementations must honor ctx cancellation and be safe for concurrent use.
type Source interface {
	ReadRanges(ctx context.Context, ranges []Range) ([]byte, error)
}

// unavailable wraps err with ErrSourceUnavailable unless it already is one.
func unavailable(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, ErrSourceUnavailable) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, msg, err)
}

func validate(ranges []Range) error {
	for _, r := range ranges {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
	}
	return nil
}
