package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/qryptovault/internal/common"
	"github.com/dmitrijs2005/qryptovault/internal/dbx"
)

// ErrEmptyKey is returned for writes under an empty key.
var ErrEmptyKey = errors.New("metadata key is empty")

const (
	qGet    = `SELECT value FROM metadata WHERE key = ?`
	qUpsert = `INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	qDelete = `DELETE FROM metadata WHERE key = ?`
	qClear  = `DELETE FROM metadata`
	qList   = `SELECT key, value FROM metadata ORDER BY key`
)

// SQLiteRepository is the metadata table of the client database. It
// runs on a *sql.DB or inside a transaction.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	switch err := r.db.QueryRowContext(ctx, qGet, key).Scan(&value); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("metadata: get %q: %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Set upserts key. A nil value is stored as an empty blob.
func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := r.db.ExecContext(ctx, qUpsert, key, value); err != nil {
		return fmt.Errorf("metadata: set %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, qDelete, key); err != nil {
		return fmt.Errorf("metadata: delete %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, qClear); err != nil {
		return fmt.Errorf("metadata: clear: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, qList)
	if err != nil {
		return nil, fmt.Errorf("metadata: list: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("metadata: list: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metadata: list: %w", err)
	}
	return out, nil
}

// GetJSON decodes the value under key into v. It reports false, leaving v
// untouched, when the key is absent.
func (r *SQLiteRepository) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := r.Get(ctx, key)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("metadata: decode %q: %w", key, err)
	}
	return true, nil
}

// SetJSON stores the JSON encoding of v under key.
func (r *SQLiteRepository) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("metadata: encode %q: %w", key, err)
	}
	return r.Set(ctx, key, raw)
}

// Session returns the raw session record kept under common.SessionKey, or
// nil when nobody is logged in. The record is returned undecoded because
// older clients stored a bare username there.
func (r *SQLiteRepository) Session(ctx context.Context) ([]byte, error) {
	return r.Get(ctx, common.SessionKey)
}

// SetSession replaces the session record.
func (r *SQLiteRepository) SetSession(ctx context.Context, raw []byte) error {
	if len(raw) == 0 {
		return r.ClearSession(ctx)
	}
	return r.Set(ctx, common.SessionKey, raw)
}

func (r *SQLiteRepository) ClearSession(ctx context.Context) error {
	return r.Delete(ctx, common.SessionKey)
}
