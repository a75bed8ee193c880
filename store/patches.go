package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/pxdoc/patch"
)

// Record is one entry of a document's patch log.
type Record struct {
	Seq   int64
	Patch patch.Patch
	Time  time.Time
}

// AppendPatch adds ps to the patch log of document id in one transaction
// and returns the sequence number of the last one.
func (s *Store) AppendPatch(ctx context.Context, id uuid.UUID, ps ...patch.Patch) (int64, error) {
	bodies := make([][]byte, len(ps))
	for i, p := range ps {
		b, err := s.codec.Encode(p)
		if err != nil {
			return 0, fmt.Errorf("store: append: %w", err)
		}
		bodies[i] = b
	}

	var seq int64
	err := runTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE((SELECT MAX(seq) FROM patches WHERE document_id = d.id), 0)
			FROM documents d WHERE d.id = ?`, id.String()).Scan(&seq)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %v", ErrDocumentNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("store: append: %w", err)
		}
		now := time.Now().UnixMilli()
		for i, p := range ps {
			seq++
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO patches (document_id, seq, kind, codec, body, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				id.String(), seq, p.Kind().String(), s.codecName, bodies[i], now); err != nil {
				return fmt.Errorf("store: append: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// Patches returns the log entries of document id with a sequence number
// greater than after, in order.
func (s *Store) Patches(ctx context.Context, id uuid.UUID, after int64) ([]Record, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = ?`, id.String()).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: patches: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, codec, body, created_at FROM patches
		WHERE document_id = ? AND seq > ?
		ORDER BY seq`, id.String(), after)
	if err != nil {
		return nil, fmt.Errorf("store: patches: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r         Record
			codecName string
			body      []byte
			created   int64
		)
		if err := rows.Scan(&r.Seq, &codecName, &body, &created); err != nil {
			return nil, fmt.Errorf("store: patches: %w", err)
		}
		codec, err := patch.LookupCodec(codecName)
		if err != nil {
			return nil, fmt.Errorf("store: patch %d: %w", r.Seq, err)
		}
		if r.Patch, err = codec.Decode(body); err != nil {
			return nil, fmt.Errorf("store: patch %d: %w", r.Seq, err)
		}
		r.Time = time.UnixMilli(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// TruncatePatches drops the log entries of document id with a sequence
// number greater than after and returns how many were removed.
func (s *Store) TruncatePatches(ctx context.Context, id uuid.UUID, after int64) (int64, error) {
	var n int64
	err := runTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = ?`, id.String()).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %v", ErrDocumentNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("store: truncate: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM patches WHERE document_id = ? AND seq > ?`, id.String(), after)
		if err != nil {
			return fmt.Errorf("store: truncate: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}
