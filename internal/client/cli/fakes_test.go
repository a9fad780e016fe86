package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/qryptovault/internal/client/config"
	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/client/pushchan"
	"github.com/dmitrijs2005/qryptovault/internal/client/services"
	"github.com/dmitrijs2005/qryptovault/internal/client/session"
	"github.com/dmitrijs2005/qryptovault/internal/logging"
)

type fakeAuth struct {
	mu           sync.Mutex
	user         *models.SessionIdentity
	loginEmail   string
	loginErr     error
	signupCreds  models.Credentials
	signupStatus string
	signupErr    error
	logoutErr    error
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (*models.SessionIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginEmail = email
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.user = &models.SessionIdentity{Username: strings.Split(email, "@")[0]}
	id := *f.user
	return &id, nil
}

func (f *fakeAuth) Signup(_ context.Context, creds models.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signupCreds = creds
	return f.signupStatus, f.signupErr
}

func (f *fakeAuth) CheckAvailability(context.Context, string, string) error { return nil }

func (f *fakeAuth) CurrentUser(context.Context) (*models.SessionIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil {
		return nil, session.ErrNoSession
	}
	id := *f.user
	return &id, nil
}

func (f *fakeAuth) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logoutErr != nil {
		return f.logoutErr
	}
	f.user = nil
	return nil
}

type fakeFiles struct {
	uploadPath       string
	uploadRecipients []string
	uploadRec        *models.UploadRecord
	uploadErr        error

	downloadID   string
	downloadDir  string
	downloadPath string
	downloadErr  error

	history    []models.UploadRecord
	historyErr error
}

func (f *fakeFiles) Upload(_ context.Context, path string, recipients []string) (*models.UploadRecord, error) {
	f.uploadPath, f.uploadRecipients = path, recipients
	return f.uploadRec, f.uploadErr
}

func (f *fakeFiles) Download(_ context.Context, fileID, dir string) (string, error) {
	f.downloadID, f.downloadDir = fileID, dir
	return f.downloadPath, f.downloadErr
}

func (f *fakeFiles) History(context.Context) ([]models.UploadRecord, error) {
	return f.history, f.historyErr
}

// fakeInbox blocks in Run until its context is cancelled.
type fakeInbox struct {
	view    models.InboxView
	entries []models.InboxEntry
	state   pushchan.State

	restores atomic.Int32
	inits    atomic.Int32
	runs     atomic.Int32
	active   atomic.Int32
}

func (f *fakeInbox) Restore(context.Context) error    { f.restores.Add(1); return nil }
func (f *fakeInbox) Initialize(context.Context) error { f.inits.Add(1); return nil }
func (f *fakeInbox) Run(ctx context.Context) error {
	f.runs.Add(1)
	f.active.Add(1)
	defer f.active.Add(-1)
	<-ctx.Done()
	return ctx.Err()
}
func (f *fakeInbox) State() pushchan.State        { return f.state }
func (f *fakeInbox) Preview() models.InboxView    { return f.view }
func (f *fakeInbox) Entries() []models.InboxEntry { return f.entries }

type testApp struct {
	*App
	auth  *fakeAuth
	files *fakeFiles
	inbox *fakeInbox
	out   *bytes.Buffer
}

func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DownloadDir = t.TempDir()

	ta := &testApp{
		auth:  &fakeAuth{},
		files: &fakeFiles{},
		inbox: &fakeInbox{},
		out:   &bytes.Buffer{},
	}
	a := newApp(cfg, logging.Nop())
	a.session = ta.auth
	a.form = services.NewFormController(ta.auth, a, services.FormOptions{
		RequireConfirmPassword: true,
		SwitchDelay:            time.Hour,
	}, nil)
	a.files = ta.files
	a.inbox = ta.inbox
	a.reader = bufio.NewReader(strings.NewReader(input))
	a.out = ta.out
	ta.App = a

	t.Cleanup(func() { a.form.Close() })
	return ta
}

// stubPasswords makes getPassword return secrets in order.
func stubPasswords(t *testing.T, secrets ...string) {
	t.Helper()
	orig := getPassword
	t.Cleanup(func() { getPassword = orig })

	var mu sync.Mutex
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(secrets) == 0 {
			return nil, io.EOF
		}
		s := secrets[0]
		secrets = secrets[1:]
		return []byte(s), nil
	}
}

// pendingInbox returns the queued inbox request without blocking.
func pendingInbox(a *App) (id *models.SessionIdentity, ok bool) {
	select {
	case id = <-a.inboxReq:
		return id, true
	default:
		return nil, false
	}
}
