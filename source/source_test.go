package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
)

var payload = []byte("0123456789abcdefghij")

func TestRangeHeader(t *testing.T) {
	r := Range{Offset: 4, Length: 3}
	if got := r.HeaderValue(); got != "bytes=4-6" {
		t.Errorf("HeaderValue() = %q", got)
	}
	if err := (Range{Offset: -1, Length: 1}).Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Validate() = %v", err)
	}
}

func TestMemorySource(t *testing.T) {
	src := MemorySource(payload)
	got, err := src.ReadRanges(context.Background(), []Range{{Offset: 10, Length: 3}, {Offset: 0, Length: 2}, {Offset: 5, Length: 0}})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abc01" {
		t.Errorf("ReadRanges = %q", got)
	}

	_, err = src.ReadRanges(context.Background(), []Range{{Offset: 18, Length: 5}})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("out of range error = %v", err)
	}
	_, err = src.ReadRanges(context.Background(), []Range{{Offset: 0, Length: -1}})
	if !errors.Is(err, ErrSourceUnavailable) || !errors.Is(err, ErrInvalidRange) {
		t.Errorf("invalid range error = %v", err)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatal(err)
	}
	src, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	got, err := src.ReadRanges(context.Background(), []Range{{Offset: 1, Length: 2}, {Offset: 19, Length: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "12j" {
		t.Errorf("ReadRanges = %q", got)
	}

	if _, err := src.ReadRanges(context.Background(), []Range{{Offset: 15, Length: 10}}); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("short read error = %v", err)
	}

	if _, err := OpenFile(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestFileSourceCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := NewFileSource(bytes.NewReader(payload))
	_, err := src.ReadRanges(ctx, []Range{{Offset: 0, Length: 1}})
	if !errors.Is(err, context.Canceled) || !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("error = %v", err)
	}
}

// rangeServer serves payload honoring single "bytes=a-b" ranges.
func rangeServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		spec, ok := strings.CutPrefix(r.Header.Get("Range"), "bytes=")
		if !ok {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(payload)
			return
		}
		a, b, _ := strings.Cut(spec, "-")
		start, _ := strconv.Atoi(a)
		end, _ := strconv.Atoi(b)
		if end >= len(payload) {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(payload)))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(payload[start : end+1])
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource(t *testing.T) {
	var requests atomic.Int32
	srv := rangeServer(t, &requests)
	src := NewHTTPSource(srv.URL, WithHTTPClient(srv.Client()))

	got, err := src.ReadRanges(context.Background(), []Range{{Offset: 2, Length: 3}, {Offset: 0, Length: 0}, {Offset: 10, Length: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "234a" {
		t.Errorf("ReadRanges = %q", got)
	}
	if requests.Load() != 2 {
		t.Errorf("requests = %d, want 2 (empty ranges are skipped)", requests.Load())
	}

	_, err = src.ReadRanges(context.Background(), []Range{{Offset: 18, Length: 10}})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("416 error = %v", err)
	}
}

func TestHTTPSourceRequiresPartialContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL)
	if _, err := src.ReadRanges(context.Background(), []Range{{Offset: 0, Length: 2}}); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("error = %v, want ErrSourceUnavailable", err)
	}
}

// countingSource counts ranges requested from it.
type countingSource struct {
	MemorySource
	ranges int
}

func (c *countingSource) ReadRanges(ctx context.Context, ranges []Range) ([]byte, error) {
	c.ranges += len(ranges)
	return c.MemorySource.ReadRanges(ctx, ranges)
}

func TestCachedSource(t *testing.T) {
	inner := &countingSource{MemorySource: MemorySource(payload)}
	src := NewCachedSource(inner, 1024)
	ctx := context.Background()

	first, err := src.ReadRanges(ctx, []Range{{Offset: 0, Length: 4}, {Offset: 8, Length: 2}})
	if err != nil {
		t.Fatal(err)
	}
	second, err := src.ReadRanges(ctx, []Range{{Offset: 8, Length: 2}, {Offset: 12, Length: 1}, {Offset: 0, Length: 4}})
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != "012389" || string(second) != "89c0123" {
		t.Errorf("results = %q, %q", first, second)
	}
	if inner.ranges != 3 {
		t.Errorf("inner served %d ranges, want 3", inner.ranges)
	}
	if s := src.Stats(); s.Hits != 2 || s.Len != 3 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestCachedSourcePropagatesErrors(t *testing.T) {
	src := NewCachedSource(MemorySource(payload), 1024)
	if _, err := src.ReadRanges(context.Background(), []Range{{Offset: 100, Length: 1}}); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("error = %v", err)
	}
}
