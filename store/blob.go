package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gogpu/pxdoc/source"
)

// blobSource serves ranges of one document's pixel blob.
type blobSource struct {
	db *sql.DB
	id string
}

// ReadRanges implements source.Source with one substr query per range.
func (b *blobSource) ReadRanges(ctx context.Context, ranges []source.Range) ([]byte, error) {
	out := make([]byte, 0, source.TotalLength(ranges))
	for _, r := range ranges {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", source.ErrSourceUnavailable, err)
		}
		if r.Length == 0 {
			continue
		}
		var chunk []byte
		err := b.db.QueryRowContext(ctx,
			`SELECT substr(data, ?, ?) FROM documents WHERE id = ?`,
			r.Offset+1, r.Length, b.id).Scan(&chunk)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: document %s is gone", source.ErrSourceUnavailable, b.id)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %v: %w", source.ErrSourceUnavailable, r, err)
		}
		if int64(len(chunk)) != r.Length {
			return nil, fmt.Errorf("%w: read %v: got %d bytes", source.ErrSourceUnavailable, r, len(chunk))
		}
		out = append(out, chunk...)
	}
	Logger().Debug("store: blob ranges read", "document", b.id, "ranges", len(ranges), "bytes", len(out))
	return out, nil
}
