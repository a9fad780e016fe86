// Package blocks caches the last-known inbox blocks locally so the inbox
// survives restarts and stays readable while the backend is unreachable.
package blocks

import (
	"context"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
)

// Repository keeps blocks in arrival order.
type Repository interface {
	// ReplaceAll drops every cached block and stores blocks in the given order.
	ReplaceAll(ctx context.Context, blocks []models.Block) error

	// Append stores one block after all existing ones.
	Append(ctx context.Context, block models.Block) error

	// GetAll returns blocks in arrival order.
	GetAll(ctx context.Context) ([]models.Block, error)

	// Count returns the number of cached blocks.
	Count(ctx context.Context) (int, error)
}
