// Package metadata stores small key/value records of client state
// (for example the logged-in user) in the local SQLite database.
package metadata

import (
	"context"
)

// Repository is a byte-valued key/value store.
// Get returns (nil, nil) for an absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// SessionRepository is the slice of the table the session store needs.
// Session returns nil when no record exists.
type SessionRepository interface {
	Session(ctx context.Context) ([]byte, error)
	SetSession(ctx context.Context, raw []byte) error
	ClearSession(ctx context.Context) error
}

var (
	_ Repository        = (*SQLiteRepository)(nil)
	_ SessionRepository = (*SQLiteRepository)(nil)
)
