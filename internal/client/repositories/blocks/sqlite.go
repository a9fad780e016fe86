package blocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/dbx"
)

// SQLiteRepository stores each block as its JSON payload plus a few
// indexed columns. Arrival order is the autoincrement seq.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ReplaceAll runs in a single transaction, so readers never see a
// half-replaced cache.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, blocks []models.Block) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM blocks`); err != nil {
			return fmt.Errorf("failed to clear blocks: %w", err)
		}
		for _, b := range blocks {
			if err := insert(ctx, tx, b); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Append(ctx context.Context, b models.Block) error {
	return insert(ctx, r.db, b)
}

func insert(ctx context.Context, db dbx.DBTX, b models.Block) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode block: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO blocks (stable_id, owner, timestamp, payload) VALUES (?, ?, ?, ?)`,
		b.StableID(), b.Owner, b.Timestamp, payload)
	if err != nil {
		return fmt.Errorf("failed to insert block: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Block, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM blocks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to select blocks: %w", err)
	}
	defer rows.Close()

	result := []models.Block{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan block row: %w", err)
		}
		var b models.Block
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, fmt.Errorf("failed to decode cached block: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count blocks: %w", err)
	}
	return n, nil
}
