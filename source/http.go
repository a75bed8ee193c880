package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHTTPTimeout bounds a single range request.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPSource fetches ranges from a URL with one Range request per range.
// The server must answer 206 Partial Content.
type HTTPSource struct {
	url    string
	client *http.Client
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.client = c
	}
}

// NewHTTPSource creates a source reading from url.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadRanges implements Source.
func (s *HTTPSource) ReadRanges(ctx context.Context, ranges []Range) ([]byte, error) {
	if err := validate(ranges); err != nil {
		return nil, err
	}
	out := make([]byte, 0, TotalLength(ranges))
	for _, r := range ranges {
		if r.Length == 0 {
			continue
		}
		b, err := s.fetch(ctx, r)
		if err != nil {
			Logger().Warn("source: range request failed", "url", s.url, "range", r.String(), "err", err)
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func (s *HTTPSource) fetch(ctx context.Context, r Range) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, unavailable(err, "create request")
	}
	req.Header.Set("Range", r.HeaderValue())

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, unavailable(err, "get %v", r)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		return nil, unavailable(fmt.Errorf("status %d", resp.StatusCode), "get %v", r)
	}

	b := make([]byte, r.Length)
	if _, err := io.ReadFull(resp.Body, b); err != nil {
		return nil, unavailable(err, "read body of %v", r)
	}

	Logger().Debug("source: range fetched",
		"url", s.url,
		"range", r.String(),
		"duration", time.Since(start))
	return b, nil
}
