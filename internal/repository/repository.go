// Package repository is the storage port: a schemaless record store with one
// logical table per kind, keyed by a single string id.
//
// TWO LEVELS:
//
//	Backend     byte-level: list/get/put/delete JSON documents per kind.
//	            Implemented by repository/sqlite, repository/redis and
//	            repository/memory.
//	Table[T]    typed view over a Backend for one record type. Encodes and
//	            decodes JSON, maps "no record" to apperror.NotFound and
//	            backend failures to apperror.ErrUnavailable.
//
// There are no secondary indexes and no query-by-filter: callers ListAll and
// filter in Go. Put is an upsert of the whole document, so an attribute that
// encodes to nothing (omitempty) is removed from the stored record.
package repository

import (
	"context"
	"errors"
	"strings"
)

// Kind names one logical table.
type Kind string

const (
	Users     Kind = "users"
	Videos    Kind = "videos"
	Comments  Kind = "comments"
	Reactions Kind = "reactions"
	Playlists Kind = "playlists"
)

// Resource is the singular noun used in error messages ("video").
func (k Kind) Resource() string {
	return strings.TrimSuffix(string(k), "s")
}

// ErrNoRecord is returned by a Backend when the id has no document.
var ErrNoRecord = errors.New("repository: no record")

// ErrEmptySet is returned when a record would persist a set-typed attribute
// holding no members. Such attributes must be absent instead.
var ErrEmptySet = errors.New("repository: empty set attribute")

// Backend stores opaque JSON documents.
//
// Get returns ErrNoRecord when the id is unknown. Delete of an unknown id is
// not an error. List returns documents in a stable, backend-defined order.
type Backend interface {
	List(ctx context.Context, kind Kind) ([][]byte, error)
	Get(ctx context.Context, kind Kind, id string) ([]byte, error)
	Put(ctx context.Context, kind Kind, id string, doc []byte) error
	Delete(ctx context.Context, kind Kind, id string) error
	Close() error
}

// Record is implemented by every persisted model type.
type Record interface {
	RecordID() string
}

// SetValued is implemented by records that carry set-typed attributes.
type SetValued interface {
	SetAttributes() []string
}

// Collection is the typed storage port one service depends on.
// *Table[T] is the implementation.
type Collection[T Record] interface {
	ListAll(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Put(ctx context.Context, rec *T) error
	Delete(ctx context.Context, id string) error
}
