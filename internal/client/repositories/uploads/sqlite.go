package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/common"
	"github.com/dmitrijs2005/qryptovault/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *models.UploadRecord) error {
	query := `INSERT INTO uploads (file_id, file_name, shared_with, owner, size, digest, uploaded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(file_id) DO UPDATE SET file_name = excluded.file_name,
				shared_with = excluded.shared_with,
				owner = excluded.owner,
				size = excluded.size,
				digest = excluded.digest,
				uploaded_at = excluded.uploaded_at
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.FileID, rec.FileName, strings.Join(rec.SharedWith, ","), rec.Owner, rec.Size, rec.Digest,
		rec.UploadedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert upload %s: %w", rec.FileID, err)
	}
	return nil
}

const selectColumns = `SELECT file_id, file_name, shared_with, owner, size, digest, uploaded_at FROM uploads`

func (r *SQLiteRepository) GetByID(ctx context.Context, fileID string) (*models.UploadRecord, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE file_id = ?`, fileID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get upload %s: %w", fileID, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.UploadRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY uploaded_at DESC, file_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select uploads: %w", err)
	}
	defer rows.Close()

	result := []models.UploadRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload row: %w", err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.UploadRecord, error) {
	var (
		rec        models.UploadRecord
		sharedWith string
		uploadedAt int64
	)
	if err := s.Scan(&rec.FileID, &rec.FileName, &sharedWith, &rec.Owner, &rec.Size, &rec.Digest, &uploadedAt); err != nil {
		return nil, err
	}
	rec.SharedWith = common.SplitList(sharedWith)
	rec.UploadedAt = time.Unix(0, uploadedAt)
	return &rec, nil
}
