package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/qryptovault/internal/client/client"
	"github.com/dmitrijs2005/qryptovault/internal/client/config"
	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/client/pushchan"
	"github.com/dmitrijs2005/qryptovault/internal/client/repositories/blocks"
	"github.com/dmitrijs2005/qryptovault/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/qryptovault/internal/client/services"
	"github.com/dmitrijs2005/qryptovault/internal/logging"
)

// sessionService is the part of services.AuthService the commands use
// outside the auth form.
type sessionService interface {
	CurrentUser(ctx context.Context) (*models.SessionIdentity, error)
	Logout(ctx context.Context) error
}

type fileService interface {
	Upload(ctx context.Context, path string, recipients []string) (*models.UploadRecord, error)
	Download(ctx context.Context, fileID, dir string) (string, error)
	History(ctx context.Context) ([]models.UploadRecord, error)
}

type inboxService interface {
	Restore(ctx context.Context) error
	Initialize(ctx context.Context) error
	Run(ctx context.Context) error
	State() pushchan.State
	Preview() models.InboxView
	Entries() []models.InboxEntry
}

// App is the interactive client. It implements services.Navigator: a
// successful login starts the live inbox.
type App struct {
	config  *config.Config
	log     logging.Logger
	session sessionService
	form    *services.FormController
	files   fileService
	inbox   inboxService
	reader  *bufio.Reader
	out     io.Writer

	// inboxReq hands identities to the inbox supervisor; nil stops the sync.
	inboxReq chan *models.SessionIdentity
	closers  []func() error
}

// NewApp opens the local database and session store and builds the services.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	a := newApp(c, log)
	a.closers = append(a.closers, db.Close)

	if err := a.wire(ctx, db); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func newApp(c *config.Config, log logging.Logger) *App {
	return &App{
		config:   c,
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		inboxReq: make(chan *models.SessionIdentity, 1),
	}
}

func (a *App) wire(ctx context.Context, db *sql.DB) error {
	store, closeStore, err := newSessionStore(ctx, a.config, db)
	if err != nil {
		return err
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	apiClient, err := client.NewHTTPClient(a.config.ServerURL, client.WithTimeout(a.config.RequestTimeout))
	if err != nil {
		return err
	}

	auth := services.NewAuthService(apiClient, store, a.log)
	a.session = auth
	a.form = services.NewFormController(auth, a, services.FormOptions{
		RequireConfirmPassword: a.config.RequireConfirmPassword,
		CheckUniqueness:        a.config.CheckUniqueness,
		SwitchDelay:            a.config.SignupSwitchDelay,
	}, a.log)
	a.files = services.NewUploadService(apiClient, store, uploads.NewSQLiteRepository(db), a.log)
	a.inbox = services.NewInboxSynchronizer(apiClient, blocks.NewSQLiteRepository(db), a.newChannel,
		services.InboxOptions{PreviewSize: a.config.InboxPreviewSize}, a.log)
	return nil
}

func (a *App) newChannel() (pushchan.Channel, error) {
	return pushchan.New(a.config.ServerURL,
		pushchan.WithBackoff(a.config.ReconnectMinBackoff, a.config.ReconnectMaxBackoff),
		pushchan.WithLogger(a.log),
	)
}

// Run resumes a persisted session, then serves the REPL until the user
// exits or ctx is cancelled. The inbox sync is stopped before Run returns.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.Close(); err != nil {
			a.log.Warn(ctx, "failed to release resources", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.superviseInbox(gctx) })

	fmt.Fprintln(a.out, "Welcome to Qrypto Vault (type 'help' for commands)")
	if id, err := a.session.CurrentUser(gctx); err == nil {
		fmt.Fprintf(a.out, "Logged in as %s\n", id.Username)
		a.ToInbox(*id)
	}

	// The REPL blocks on stdin, which cannot be interrupted; it is left
	// behind when ctx is cancelled and the process exits.
	replDone := make(chan struct{})
	go func() {
		defer close(replDone)
		runREPL(gctx, a, func() string { return a.status(gctx) }, a.reader)
	}()

	select {
	case <-replDone:
	case <-gctx.Done():
	}
	cancel()
	return g.Wait()
}

// ToInbox starts (or restarts) the live inbox for id.
func (a *App) ToInbox(id models.SessionIdentity) {
	a.requestInbox(&id)
}

// requestInbox replaces any pending request so the supervisor only sees
// the latest one.
func (a *App) requestInbox(id *models.SessionIdentity) {
	for {
		select {
		case a.inboxReq <- id:
			return
		default:
			select {
			case <-a.inboxReq:
			default:
			}
		}
	}
}

func (a *App) superviseInbox(ctx context.Context) error {
	var (
		cancel = context.CancelFunc(func() {})
		done   chan struct{}
	)
	stop := func() {
		cancel()
		if done != nil {
			<-done
			done = nil
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case id := <-a.inboxReq:
			stop()
			if id == nil {
				continue
			}
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(ctx)
			done = make(chan struct{})
			go func(d chan struct{}, id models.SessionIdentity) {
				defer close(d)
				a.syncInbox(runCtx, id)
			}(done, *id)
		}
	}
}

func (a *App) syncInbox(ctx context.Context, id models.SessionIdentity) {
	if err := a.inbox.Restore(ctx); err != nil {
		a.log.Warn(ctx, "failed to restore inbox", "username", id.Username, "error", err)
	}
	// Initialize logs its own failure; the push channel still delivers
	// new entries.
	_ = a.inbox.Initialize(ctx)

	if err := a.inbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Error(ctx, "inbox sync stopped", "username", id.Username, "error", err)
	}
}

// Close cancels pending form timers and releases the store and database.
func (a *App) Close() error {
	if a.form != nil {
		a.form.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	_, err := a.session.CurrentUser(ctx)
	return err == nil
}

func (a *App) status(ctx context.Context) string {
	id, err := a.session.CurrentUser(ctx)
	if err != nil {
		return "(guest)"
	}
	return fmt.Sprintf("(%s, inbox %s)", id.Username, a.inbox.State())
}
