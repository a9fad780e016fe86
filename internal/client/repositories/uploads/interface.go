// Package uploads keeps a local history of files sent from this client.
package uploads

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
)

var ErrNotFound = errors.New("upload record not found")

type Repository interface {
	// Insert stores a record; an existing record with the same FileID is replaced.
	Insert(ctx context.Context, rec *models.UploadRecord) error

	// GetByID returns ErrNotFound when no record exists.
	GetByID(ctx context.Context, fileID string) (*models.UploadRecord, error)

	// GetAll returns records newest first.
	GetAll(ctx context.Context) ([]models.UploadRecord, error)
}
