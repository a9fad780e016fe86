package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/qryptovault/internal/client/client"
	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/qryptovault/internal/client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func newUploadService(t *testing.T, fc *fakeClient, loggedIn bool) (*UploadService, *uploads.SQLiteRepository) {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := session.NewMemoryStore()
	if loggedIn {
		require.NoError(t, store.Set(context.Background(), models.SessionIdentity{Username: "alice"}))
	}
	repo := uploads.NewSQLiteRepository(db)
	svc := NewUploadService(fc, store, repo, nil)
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestUpload_SendsAndRecords(t *testing.T) {
	var got client.UploadRequest
	var body string
	fc := &fakeClient{UploadFn: func(_ context.Context, req client.UploadRequest) (*client.UploadResult, error) {
		got = req
		b, err := io.ReadAll(req.Content)
		require.NoError(t, err)
		body = string(b)
		return &client.UploadResult{FileID: "f-42", Status: "File uploaded and encrypted"}, nil
	}}
	svc, _ := newUploadService(t, fc, true)
	path := writeFile(t, "report.txt", "hello vault")

	rec, err := svc.Upload(context.Background(), path, []string{" bob ", "", "carol", "bob"})
	require.NoError(t, err)

	assert.Equal(t, "report.txt", got.FileName)
	assert.Equal(t, []string{"bob", "carol"}, got.SharedWith)
	assert.Equal(t, "alice", got.Owner)
	assert.Equal(t, "hello vault", body)

	want := sha3.Sum256([]byte("hello vault"))
	assert.Equal(t, want[:], rec.Digest)
	assert.Equal(t, int64(len("hello vault")), rec.Size)
	assert.Equal(t, "File uploaded successfully! File ID: f-42", UploadSuccessMessage(rec))

	hist, err := svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "f-42", hist[0].FileID)
	assert.Equal(t, []string{"bob", "carol"}, hist[0].SharedWith)
}

func TestUpload_Prerequisites(t *testing.T) {
	path := writeFile(t, "a.txt", "x")

	tests := []struct {
		name       string
		loggedIn   bool
		path       string
		recipients []string
	}{
		{name: "no file", loggedIn: true, path: "", recipients: []string{"bob"}},
		{name: "no recipient", loggedIn: true, path: path, recipients: []string{" ", ""}},
		{name: "not logged in", loggedIn: false, path: path, recipients: []string{"bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeClient{}
			svc, _ := newUploadService(t, fc, tt.loggedIn)

			_, err := svc.Upload(context.Background(), tt.path, tt.recipients)
			require.ErrorIs(t, err, ErrUploadIncomplete)
			assert.Equal(t, "Please select a file, log in, and specify a recipient", UserMessage(err))
			assert.Zero(t, fc.calls.Load())
		})
	}
}

func TestUpload_MissingFileAndDirectory(t *testing.T) {
	fc := &fakeClient{}
	svc, _ := newUploadService(t, fc, true)

	_, err := svc.Upload(context.Background(), filepath.Join(t.TempDir(), "nope"), []string{"bob"})
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = svc.Upload(context.Background(), t.TempDir(), []string{"bob"})
	require.ErrorContains(t, err, "is a directory")
	assert.Zero(t, fc.calls.Load())
}

func TestUpload_ServerRejects(t *testing.T) {
	fc := &fakeClient{UploadFn: func(_ context.Context, req client.UploadRequest) (*client.UploadResult, error) {
		return nil, &client.APIError{Status: 403, Message: "User 'zed' in shared_with is not registered"}
	}}
	svc, _ := newUploadService(t, fc, true)

	_, err := svc.Upload(context.Background(), writeFile(t, "a.txt", "x"), []string{"zed"})
	require.Error(t, err)
	assert.Equal(t, "User 'zed' in shared_with is not registered", UserMessage(err))

	hist, err := svc.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestDownload_VerifiesAgainstRecord(t *testing.T) {
	content := "top secret"
	fc := &fakeClient{DownloadFn: func(_ context.Context, fileID, userID string, w io.Writer) (string, error) {
		assert.Equal(t, "f-1", fileID)
		assert.Equal(t, "alice", userID)
		_, err := io.WriteString(w, content)
		return "../../etc/report.txt", err
	}}
	svc, repo := newUploadService(t, fc, true)
	digest := sha3.Sum256([]byte("top secret"))
	require.NoError(t, repo.Insert(context.Background(), &models.UploadRecord{
		FileID: "f-1", FileName: "report.txt", Digest: digest[:], UploadedAt: time.Now(),
	}))
	dir := t.TempDir()

	path, err := svc.Download(context.Background(), "f-1", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.txt"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "top secret", string(b))

	// tampered content
	content = "tampered"
	_, err = svc.Download(context.Background(), "f-1", dir)
	require.ErrorIs(t, err, ErrIntegrity)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}

func TestDownload_UnknownRecordAndNoName(t *testing.T) {
	fc := &fakeClient{DownloadFn: func(_ context.Context, _, _ string, w io.Writer) (string, error) {
		_, err := io.WriteString(w, "data")
		return "", err
	}}
	svc, _ := newUploadService(t, fc, true)
	dir := filepath.Join(t.TempDir(), "nested", "out")

	path, err := svc.Download(context.Background(), "f-77", dir)
	require.NoError(t, err)
	assert.Equal(t, "f-77", filepath.Base(path))
}

func TestDownload_Errors(t *testing.T) {
	fc := &fakeClient{DownloadFn: func(context.Context, string, string, io.Writer) (string, error) {
		return "", &client.APIError{Status: 403, Message: "File not found or access denied"}
	}}
	svc, _ := newUploadService(t, fc, true)
	dir := t.TempDir()

	_, err := svc.Download(context.Background(), "f-1", dir)
	require.ErrorIs(t, err, client.ErrUnauthorized)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)

	_, err = svc.Download(context.Background(), " ", dir)
	require.Error(t, err)

	anon, _ := newUploadService(t, &fakeClient{}, false)
	_, err = anon.Download(context.Background(), "f-1", dir)
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestHistory_NoRepository(t *testing.T) {
	svc := NewUploadService(&fakeClient{}, session.NewMemoryStore(), nil, nil)
	hist, err := svc.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, hist)
}
