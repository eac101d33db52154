// Package redis implements repository.Backend on Redis hashes.
//
// Each kind is one hash, "<prefix>:<kind>", whose fields are record ids and
// whose values are the JSON documents. HGETALL over a kind is the list
// operation; there are no secondary indexes.
//
// Hash field order is unspecified, so List sorts by id to stay stable
// across calls.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sakif/openlecture/internal/repository"
)

// compile-time check that *Store implements repository.Backend
var _ repository.Backend = (*Store)(nil)

// Options configures the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // key prefix, default "openlecture"
}

// Store is a Redis-backed record store.
type Store struct {
	client *goredis.Client
	prefix string
}

// New connects and pings the server.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: connecting to %s: %w", opts.Addr, err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "openlecture"
	}
	return &Store{client: client, prefix: prefix}, nil
}

func (s *Store) key(kind repository.Kind) string {
	return s.prefix + ":" + string(kind)
}

func (s *Store) List(ctx context.Context, kind repository.Kind) ([][]byte, error) {
	fields, err := s.client.HGetAll(ctx, s.key(kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: listing %s: %w", kind, err)
	}

	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		out = append(out, []byte(fields[id]))
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, kind repository.Kind, id string) ([]byte, error) {
	doc, err := s.client.HGet(ctx, s.key(kind), id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("redis: getting %s %s: %w", kind, id, err)
	}
	return doc, nil
}

func (s *Store) Put(ctx context.Context, kind repository.Kind, id string, doc []byte) error {
	if err := s.client.HSet(ctx, s.key(kind), id, doc).Err(); err != nil {
		return fmt.Errorf("redis: putting %s %s: %w", kind, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, kind repository.Kind, id string) error {
	if err := s.client.HDel(ctx, s.key(kind), id).Err(); err != nil {
		return fmt.Errorf("redis: deleting %s %s: %w", kind, id, err)
	}
	return nil
}

// Close closes the client's connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
