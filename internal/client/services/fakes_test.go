package services

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/qryptovault/internal/client/client"
	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/client/pushchan"
)

// ---- fake client ----

// fakeClient implements client.Client for unit tests. Zero-value funcs
// succeed with empty results; calls counts every request made.
type fakeClient struct {
	calls atomic.Int32

	LoginFn         func(ctx context.Context, req models.LoginRequest) (*models.SessionIdentity, error)
	SignupFn        func(ctx context.Context, req models.SignupRequest) (string, error)
	CheckEmailFn    func(ctx context.Context, email string) error
	CheckUsernameFn func(ctx context.Context, username string) error
	BlocksFn        func(ctx context.Context) ([]models.Block, error)
	UploadFn        func(ctx context.Context, req client.UploadRequest) (*client.UploadResult, error)
	DownloadFn      func(ctx context.Context, fileID, userID string, w io.Writer) (string, error)
}

func (f *fakeClient) Login(ctx context.Context, req models.LoginRequest) (*models.SessionIdentity, error) {
	f.calls.Add(1)
	if f.LoginFn == nil {
		return &models.SessionIdentity{Username: "user"}, nil
	}
	return f.LoginFn(ctx, req)
}

func (f *fakeClient) Signup(ctx context.Context, req models.SignupRequest) (string, error) {
	f.calls.Add(1)
	if f.SignupFn == nil {
		return "", nil
	}
	return f.SignupFn(ctx, req)
}

func (f *fakeClient) CheckEmail(ctx context.Context, email string) error {
	f.calls.Add(1)
	if f.CheckEmailFn == nil {
		return nil
	}
	return f.CheckEmailFn(ctx, email)
}

func (f *fakeClient) CheckUsername(ctx context.Context, username string) error {
	f.calls.Add(1)
	if f.CheckUsernameFn == nil {
		return nil
	}
	return f.CheckUsernameFn(ctx, username)
}

func (f *fakeClient) Blocks(ctx context.Context) ([]models.Block, error) {
	f.calls.Add(1)
	if f.BlocksFn == nil {
		return []models.Block{}, nil
	}
	return f.BlocksFn(ctx)
}

func (f *fakeClient) Upload(ctx context.Context, req client.UploadRequest) (*client.UploadResult, error) {
	f.calls.Add(1)
	if f.UploadFn == nil {
		_, _ = io.Copy(io.Discard, req.Content)
		return &client.UploadResult{FileID: "file-1"}, nil
	}
	return f.UploadFn(ctx, req)
}

func (f *fakeClient) Download(ctx context.Context, fileID, userID string, w io.Writer) (string, error) {
	f.calls.Add(1)
	if f.DownloadFn == nil {
		return "", nil
	}
	return f.DownloadFn(ctx, fileID, userID, w)
}

// ---- fake navigator ----

type fakeNavigator struct {
	mu      sync.Mutex
	visited []models.SessionIdentity
}

func (n *fakeNavigator) ToInbox(id models.SessionIdentity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.visited = append(n.visited, id)
}

func (n *fakeNavigator) Visited() []models.SessionIdentity {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.SessionIdentity(nil), n.visited...)
}

// ---- manual timer ----

// manualTimer captures scheduled callbacks so tests decide when they fire.
type manualTimer struct {
	mu      sync.Mutex
	pending []func()
	delays  []time.Duration
	stopped int
}

func (m *manualTimer) after(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := len(m.pending)
	m.pending = append(m.pending, f)
	m.delays = append(m.delays, d)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.pending[idx] == nil {
			return false
		}
		m.pending[idx] = nil
		m.stopped++
		return true
	}
}

// fireAll runs every callback that was not stopped.
func (m *manualTimer) fireAll() {
	m.mu.Lock()
	fns := append([]func(){}, m.pending...)
	for i := range m.pending {
		m.pending[i] = nil
	}
	m.mu.Unlock()
	for _, f := range fns {
		if f != nil {
			f()
		}
	}
}

// ---- fake push channel ----

type fakeChannel struct {
	state  atomic.Int32
	closed atomic.Int32
	script func(ctx context.Context, h pushchan.Handler)
}

func (c *fakeChannel) Run(ctx context.Context, h pushchan.Handler) error {
	if c.script != nil {
		c.script(ctx, h)
	}
	<-ctx.Done()
	return nil
}

func (c *fakeChannel) State() pushchan.State { return pushchan.State(c.state.Load()) }

func (c *fakeChannel) Close() error {
	c.closed.Add(1)
	return nil
}

// ---- fake block cache ----

type memCache struct {
	mu      sync.Mutex
	blocks  []models.Block
	failErr error
}

func (c *memCache) ReplaceAll(_ context.Context, blocks []models.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failErr != nil {
		return c.failErr
	}
	c.blocks = append([]models.Block(nil), blocks...)
	return nil
}

func (c *memCache) Append(_ context.Context, b models.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failErr != nil {
		return c.failErr
	}
	c.blocks = append(c.blocks, b)
	return nil
}

func (c *memCache) GetAll(_ context.Context) ([]models.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failErr != nil {
		return nil, c.failErr
	}
	return append([]models.Block{}, c.blocks...), nil
}

func (c *memCache) hashes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.blocks))
	for _, b := range c.blocks {
		out = append(out, b.Hash)
	}
	return out
}

// ---- helpers ----

func blk(hash, owner string, ts float64) models.Block {
	return models.Block{Hash: hash, Owner: owner, Timestamp: ts, FileID: "f-" + hash}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func senders(entries []models.InboxEntry) string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Sender)
	}
	return strings.Join(out, ",")
}
