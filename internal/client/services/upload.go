package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/qryptovault/internal/client/client"
	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/qryptovault/internal/client/session"
	"github.com/dmitrijs2005/qryptovault/internal/cryptox"
	"github.com/dmitrijs2005/qryptovault/internal/filex"
	"github.com/dmitrijs2005/qryptovault/internal/logging"
)

// UploadSuccessFormat renders the confirmation shown after an upload.
const UploadSuccessFormat = "File uploaded successfully! File ID: %s"

// UploadService shares files through the backend and remembers what this
// client sent, so downloads of those files can be verified.
type UploadService struct {
	client  client.Client
	store   session.Store
	records uploads.Repository
	log     logging.Logger
	now     func() time.Time
}

// NewUploadService builds the service. records may be nil, which disables
// history and download verification.
func NewUploadService(c client.Client, store session.Store, records uploads.Repository, log logging.Logger) *UploadService {
	if log == nil {
		log = logging.Nop()
	}
	return &UploadService{client: c, store: store, records: records, log: log.With("service", "upload"), now: time.Now}
}

// Upload sends the file at path to recipients on behalf of the logged-in user.
func (s *UploadService) Upload(ctx context.Context, path string, recipients []string) (*models.UploadRecord, error) {
	recipients = cleanRecipients(recipients)
	if strings.TrimSpace(path) == "" || len(recipients) == 0 {
		return nil, ErrUploadIncomplete
	}

	id, err := s.store.Get(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return nil, fmt.Errorf("%w: %w", ErrUploadIncomplete, err)
	}
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	h := cryptox.NewDigest()
	res, err := s.client.Upload(ctx, client.UploadRequest{
		FileName:   filepath.Base(path),
		Content:    io.TeeReader(f, h),
		SharedWith: recipients,
		Owner:      id.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}

	rec := &models.UploadRecord{
		FileID:     res.FileID,
		FileName:   filepath.Base(path),
		SharedWith: recipients,
		Owner:      id.Username,
		Size:       info.Size(),
		Digest:     h.Sum(nil),
		UploadedAt: s.now(),
	}
	if s.records != nil {
		if err := s.records.Insert(ctx, rec); err != nil {
			s.log.Warn(ctx, "failed to record upload", "file_id", rec.FileID, "error", err)
		}
	}
	s.log.Info(ctx, "file uploaded", "file_id", rec.FileID, "recipients", len(recipients))
	return rec, nil
}

// Download saves the file into dir and returns the written path. When this
// client uploaded the file, the content is checked against the recorded
// digest and ErrIntegrity is returned on mismatch.
func (s *UploadService) Download(ctx context.Context, fileID, dir string) (string, error) {
	if strings.TrimSpace(fileID) == "" {
		return "", errors.New("file id is required")
	}

	id, err := s.store.Get(ctx)
	if err != nil {
		return "", err
	}

	dir, err = filex.EnsureDir(dir)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	h := cryptox.NewDigest()
	name, err := s.client.Download(ctx, fileID, id.Username, io.MultiWriter(tmp, h))
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("write %s: %w", tmpName, cerr)
	}
	if err != nil {
		return "", fmt.Errorf("download %s: %w", fileID, err)
	}

	if s.records != nil {
		rec, err := s.records.GetByID(ctx, fileID)
		switch {
		case err == nil:
			if len(rec.Digest) > 0 && !cryptox.Equal(rec.Digest, h.Sum(nil)) {
				return "", fmt.Errorf("%s: %w", fileID, ErrIntegrity)
			}
			if name == "" {
				name = rec.FileName
			}
		case !errors.Is(err, uploads.ErrNotFound):
			s.log.Warn(ctx, "failed to look up upload record", "file_id", fileID, "error", err)
		}
	}
	if name == "" {
		name = fileID
	}

	dest, err := filex.SafeJoin(dir, name)
	if err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("move into place: %w", err)
	}
	committed = true

	s.log.Info(ctx, "file downloaded", "file_id", fileID, "path", dest)
	return dest, nil
}

// History lists uploads from this client, newest first.
func (s *UploadService) History(ctx context.Context) ([]models.UploadRecord, error) {
	if s.records == nil {
		return []models.UploadRecord{}, nil
	}
	return s.records.GetAll(ctx)
}

func cleanRecipients(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, r := range in {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// UploadSuccessMessage is the confirmation text for rec.
func UploadSuccessMessage(rec *models.UploadRecord) string {
	return fmt.Sprintf(UploadSuccessFormat, rec.FileID)
}
