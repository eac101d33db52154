package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sakif/openlecture/internal/apperror"
)

// Table is the typed view of one kind.
type Table[T Record] struct {
	backend Backend
	kind    Kind
}

// NewTable binds a record type to a kind on backend.
func NewTable[T Record](backend Backend, kind Kind) *Table[T] {
	return &Table[T]{backend: backend, kind: kind}
}

// Kind returns the kind this table reads and writes.
func (t *Table[T]) Kind() Kind {
	return t.kind
}

// ListAll returns every record of the kind, soft-deleted ones included.
func (t *Table[T]) ListAll(ctx context.Context) ([]T, error) {
	docs, err := t.backend.List(ctx, t.kind)
	if err != nil {
		return nil, apperror.Unavailable("record store", fmt.Errorf("listing %s: %w", t.kind, err))
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var rec T
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("repository: decoding %s record: %w", t.kind, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get returns the record with id, or an apperror.NotFound.
func (t *Table[T]) Get(ctx context.Context, id string) (*T, error) {
	doc, err := t.backend.Get(ctx, t.kind, id)
	if errors.Is(err, ErrNoRecord) {
		return nil, apperror.NotFound(t.kind.Resource(), id)
	}
	if err != nil {
		return nil, apperror.Unavailable("record store", fmt.Errorf("getting %s %s: %w", t.kind, id, err))
	}

	var rec T
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("repository: decoding %s %s: %w", t.kind, id, err)
	}
	return &rec, nil
}

// Put creates or fully replaces the record under rec.RecordID().
func (t *Table[T]) Put(ctx context.Context, rec *T) error {
	id := (*rec).RecordID()
	if id == "" {
		return fmt.Errorf("repository: %s record has no id", t.kind)
	}

	doc, err := encode(*rec)
	if err != nil {
		return fmt.Errorf("repository: encoding %s %s: %w", t.kind, id, err)
	}

	if err := t.backend.Put(ctx, t.kind, id, doc); err != nil {
		return apperror.Unavailable("record store", fmt.Errorf("putting %s %s: %w", t.kind, id, err))
	}
	return nil
}

// Delete physically removes the record. Unknown ids are not an error.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	if err := t.backend.Delete(ctx, t.kind, id); err != nil {
		return apperror.Unavailable("record store", fmt.Errorf("deleting %s %s: %w", t.kind, id, err))
	}
	return nil
}

// encode marshals rec and enforces the empty-set rule on the document
// actually written: a declared set attribute may be absent, never [].
func encode(rec Record) ([]byte, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	sv, ok := rec.(SetValued)
	if !ok {
		return doc, nil
	}

	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(doc, &attrs); err != nil {
		return nil, err
	}
	for _, name := range sv.SetAttributes() {
		raw, present := attrs[name]
		if !present {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if bytes.Equal(raw, []byte("[]")) || bytes.Equal(raw, []byte("null")) {
			return nil, fmt.Errorf("%w: %s", ErrEmptySet, name)
		}
	}
	return doc, nil
}
