// Package storage persists application state as whole JSON documents under
// independent keys. SQLite, PostgreSQL and Redis backends are provided.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is returned by Get for a key that was never written.
var ErrNotFound = errors.New("key not found")

// Store is a durable key/value store. PutMany writes all entries or none.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	PutMany(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Driver string
	// Path is the SQLite database file.
	Path string
	// DSN is the PostgreSQL connection string.
	DSN string
	// Redis connection settings.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open connects to the configured backend. PostgreSQL migrations are applied
// before the store is returned.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		return OpenSQLite(opts.Path)
	case DriverPostgres:
		if err := RunMigrations(opts.DSN); err != nil {
			return nil, err
		}
		return OpenPostgres(ctx, opts.DSN)
	case DriverRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	}
	return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
}

func sortedKeys(entries map[string][]byte) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
