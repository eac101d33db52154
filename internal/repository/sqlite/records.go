package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/openlecture/internal/repository"
)

// compile-time check that *DB implements repository.Backend
var _ repository.Backend = (*DB)(nil)

// List returns every document of kind in insertion order (rowid).
//
// An upsert through ON CONFLICT DO UPDATE keeps the original rowid, so a
// record keeps its place in the listing when it is rewritten.
func (db *DB) List(ctx context.Context, kind repository.Kind) ([][]byte, error) {
	var docs []string
	err := db.conn.SelectContext(ctx, &docs,
		`SELECT doc FROM records WHERE kind = ? ORDER BY rowid`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s: %w", kind, err)
	}

	out := make([][]byte, len(docs))
	for i, d := range docs {
		out[i] = []byte(d)
	}
	return out, nil
}

// Get returns repository.ErrNoRecord when the id is unknown.
func (db *DB) Get(ctx context.Context, kind repository.Kind, id string) ([]byte, error) {
	var doc string
	err := db.conn.GetContext(ctx, &doc,
		`SELECT doc FROM records WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoRecord
		}
		return nil, fmt.Errorf("sqlite: getting %s %s: %w", kind, id, err)
	}
	return []byte(doc), nil
}

// Put inserts the document or replaces it whole.
func (db *DB) Put(ctx context.Context, kind repository.Kind, id string, doc []byte) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO records (kind, id, doc, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (kind, id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		string(kind), id, string(doc), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: putting %s %s: %w", kind, id, err)
	}
	return nil
}

// Delete removes the document. Deleting an unknown id affects no rows and
// is not an error.
func (db *DB) Delete(ctx context.Context, kind repository.Kind, id string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM records WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s %s: %w", kind, id, err)
	}
	return nil
}
