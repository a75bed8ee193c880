package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/pxdoc/node"
	"github.com/gogpu/pxdoc/pixel"
	"github.com/gogpu/pxdoc/source"
)

// Info summarizes a stored document.
type Info struct {
	ID        uuid.UUID
	Name      string
	UpdatedAt time.Time
	DataBytes int64
	Patches   int
}

// Save writes doc as the new snapshot of its document and clears the
// document's patch log. Layers are dehydrated into the document blob.
// Unloaded placeholders are read from src first; src may be nil when doc
// has none. doc itself is not modified.
func (s *Store) Save(ctx context.Context, doc *node.Document, src source.Source) error {
	tree, err := node.NewTree(doc.Clone().(*node.Document))
	if err != nil {
		return fmt.Errorf("store: save: %w", err)
	}

	var (
		data  []byte
		swaps []node.Node
	)
	for n := range tree.All() {
		var layer *node.Layer
		switch n := n.(type) {
		case *node.Layer:
			layer = n
		case *node.Unloaded:
			if src == nil {
				return fmt.Errorf("store: save %q: %w: no source for unloaded layer", n.Name(), source.ErrSourceUnavailable)
			}
			b, err := src.ReadRanges(ctx, n.Ranges())
			if err != nil {
				return fmt.Errorf("store: save %q: %w", n.Name(), err)
			}
			if layer, err = n.Materialize(b); err != nil {
				return fmt.Errorf("store: save %q: %w", n.Name(), err)
			}
		default:
			continue
		}
		var ranges []source.Range
		bufs := []*pixel.Buffer{layer.Canvas().Primary()}
		if aux := layer.Canvas().Aux(); aux != nil {
			bufs = append(bufs, aux)
		}
		for _, b := range bufs {
			// ranges are in bytes, Buffer.Len counts pixels
			ranges = append(ranges, source.Range{Offset: int64(len(data)), Length: int64(len(b.Bytes()))})
			data = append(data, b.Bytes()...)
		}
		swaps = append(swaps, node.Dehydrate(layer, ranges))
	}
	for _, u := range swaps {
		if err := tree.Replace(u.ID(), u); err != nil {
			return fmt.Errorf("store: save: %w", err)
		}
	}

	body, err := node.Marshal(tree.Root())
	if err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	id := doc.ID().String()
	err = runTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, name, tree, data, updated_at)
			VALUES (?, ?, ?, COALESCE(?, x''), ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				tree = excluded.tree,
				data = excluded.data,
				updated_at = excluded.updated_at`,
			id, doc.Name(), body, data, time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("store: save: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM patches WHERE document_id = ?`, id); err != nil {
			return fmt.Errorf("store: save: clear log: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	Logger().Debug("store: saved", "document", id, "layers", len(swaps), "bytes", len(data))
	return nil
}

// Load returns the saved snapshot of document id, with every layer as an
// Unloaded placeholder, and a source serving their pixel data.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*node.Document, source.Source, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT tree FROM documents WHERE id = ?`, id.String()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %v", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("store: load %v: %w", id, err)
	}
	n, err := node.Unmarshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("store: load %v: %w", id, err)
	}
	doc, ok := n.(*node.Document)
	if !ok {
		return nil, nil, fmt.Errorf("store: load %v: %w: root is %v", id, node.ErrMalformed, n.Kind())
	}
	return doc, s.Source(id), nil
}

// Source returns a source reading the pixel blob of document id, behind
// the configured range cache.
func (s *Store) Source(id uuid.UUID) source.Source {
	var src source.Source = &blobSource{db: s.db, id: id.String()}
	if s.cacheBytes > 0 {
		src = source.NewCachedSource(src, s.cacheBytes)
	}
	return src
}

// Documents lists stored documents, most recently saved first.
func (s *Store) Documents(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.updated_at, length(d.data),
			(SELECT COUNT(*) FROM patches p WHERE p.document_id = d.id)
		FROM documents d
		ORDER BY d.updated_at DESC, d.id`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var (
			info    Info
			id      string
			updated int64
		)
		if err := rows.Scan(&id, &info.Name, &updated, &info.DataBytes, &info.Patches); err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		if info.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		info.UpdatedAt = time.UnixMilli(updated)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes document id and its patch log.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("store: delete %v: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %v", ErrDocumentNotFound, id)
	}
	return nil
}
