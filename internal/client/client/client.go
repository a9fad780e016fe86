package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
)

// Client is the transport-agnostic contract of the Qrypto Vault backend.
type Client interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.SessionIdentity, error)
	Signup(ctx context.Context, req models.SignupRequest) (string, error)
	CheckEmail(ctx context.Context, email string) error
	CheckUsername(ctx context.Context, username string) error
	Blocks(ctx context.Context) ([]models.Block, error)
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
	Download(ctx context.Context, fileID, userID string, w io.Writer) (string, error)
}

// UploadRequest describes one multipart upload.
type UploadRequest struct {
	FileName   string
	Content    io.Reader
	SharedWith []string
	Owner      string
}

// UploadResult is the backend acknowledgment of an upload.
type UploadResult struct {
	FileID string `json:"file_id"`
	Status string `json:"status"`
}
