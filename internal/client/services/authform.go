package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/logging"
)

// Mode selects which form is shown.
type Mode int

const (
	ModeLogin Mode = iota
	ModeSignup
)

func (m Mode) String() string {
	if m == ModeSignup {
		return "signup"
	}
	return "login"
}

const (
	minPasswordLength = 6

	msgLoginOK  = "Login successful!"
	msgSignupOK = "Signup successful! Please login."
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Navigator moves the user to another view after a successful action.
type Navigator interface {
	ToInbox(id models.SessionIdentity)
}

// FormOptions selects between the auth form variants.
type FormOptions struct {
	// RequireConfirmPassword adds the confirmPassword field to signup.
	RequireConfirmPassword bool
	// CheckUniqueness pre-checks email and username before signup.
	CheckUniqueness bool
	// SwitchDelay is how long a successful signup waits before the form
	// flips back to login.
	SwitchDelay time.Duration
}

func DefaultFormOptions() FormOptions {
	return FormOptions{RequireConfirmPassword: true, SwitchDelay: time.Second}
}

// afterFunc schedules f after d and returns a stop function.
type afterFunc func(d time.Duration, f func()) (stop func() bool)

func timeAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// FormController holds the login/signup form state and runs submissions.
// It is safe for concurrent use.
type FormController struct {
	auth  Authenticator
	nav   Navigator
	log   logging.Logger
	opts  FormOptions
	after afterFunc

	mu          sync.Mutex
	mode        Mode
	creds       models.Credentials
	errs        models.FieldErrors
	msg         models.Message
	submitting  bool
	stopSwitch  func() bool
	switchEpoch uint64
}

func NewFormController(auth Authenticator, nav Navigator, opts FormOptions, log logging.Logger) *FormController {
	if log == nil {
		log = logging.Nop()
	}
	return &FormController{
		auth:  auth,
		nav:   nav,
		log:   log.With("component", "authform"),
		opts:  opts,
		after: timeAfterFunc,
		errs:  models.FieldErrors{},
	}
}

// UpdateField sets a credential and clears its error. Unknown names are ignored.
func (f *FormController) UpdateField(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.creds.Set(name, value) {
		return
	}
	delete(f.errs, name)
}

// Validate recomputes the field errors and reports whether there are none.
func (f *FormController) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *FormController) validateLocked() bool {
	errs := models.FieldErrors{}
	c := f.creds

	switch {
	case c.Email == "":
		errs[models.FieldEmail] = "Email is required"
	case !emailPattern.MatchString(c.Email):
		errs[models.FieldEmail] = "Email is invalid"
	}

	switch {
	case c.Password == "":
		errs[models.FieldPassword] = "Password is required"
	case len(c.Password) < minPasswordLength:
		errs[models.FieldPassword] = "Password must be at least 6 characters"
	}

	if f.mode == ModeSignup {
		if c.Username == "" {
			errs[models.FieldUsername] = "Username is required"
		}
		if f.opts.RequireConfirmPassword {
			switch {
			case c.ConfirmPassword == "":
				errs[models.FieldConfirmPassword] = "Please confirm your password"
			case c.ConfirmPassword != c.Password:
				errs[models.FieldConfirmPassword] = "Passwords do not match"
			}
		}
	}

	f.errs = errs
	return len(errs) == 0
}

// Submit validates and sends the form for the current mode.
//
// In login mode it returns the new identity and calls Navigator.ToInbox.
// In signup mode it returns (nil, nil) on success and flips back to login
// after SwitchDelay, keeping the email. Any failure is also recorded as the
// form error message; the form stays usable.
func (f *FormController) Submit(ctx context.Context) (*models.SessionIdentity, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	if !f.validateLocked() {
		err := &ValidationError{Fields: f.errs.Clone()}
		f.mu.Unlock()
		return nil, err
	}
	f.submitting = true
	f.msg = models.Message{}
	mode, creds := f.mode, f.creds
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	if mode == ModeLogin {
		return f.login(ctx, creds)
	}
	return nil, f.signup(ctx, creds)
}

func (f *FormController) login(ctx context.Context, creds models.Credentials) (*models.SessionIdentity, error) {
	id, err := f.auth.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, f.fail(ctx, err)
	}

	text := msgLoginOK
	if id.Status != "" {
		text = id.Status
	}
	f.setMessage(models.MessageSuccess, text)
	if f.nav != nil {
		f.nav.ToInbox(*id)
	}
	return id, nil
}

func (f *FormController) signup(ctx context.Context, creds models.Credentials) error {
	if f.opts.CheckUniqueness {
		if err := f.auth.CheckAvailability(ctx, creds.Email, creds.Username); err != nil {
			var ce *ConflictError
			if errors.As(err, &ce) {
				f.mu.Lock()
				f.errs[ce.Field] = ce.Message
				f.mu.Unlock()
			}
			return f.fail(ctx, err)
		}
	}

	status, err := f.auth.Signup(ctx, creds)
	if err != nil {
		return f.fail(ctx, err)
	}
	if status == "" {
		status = msgSignupOK
	}
	f.setMessage(models.MessageSuccess, status)
	f.scheduleSwitchToLogin()
	return nil
}

func (f *FormController) fail(ctx context.Context, err error) error {
	f.log.Warn(ctx, "auth request failed", "error", err)
	f.setMessage(models.MessageError, UserMessage(err))
	return err
}

func (f *FormController) setMessage(kind models.MessageKind, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msg = models.Message{Kind: kind, Text: text}
}

func (f *FormController) scheduleSwitchToLogin() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancelSwitchLocked()
	epoch := f.switchEpoch

	f.stopSwitch = f.after(f.opts.SwitchDelay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.switchEpoch != epoch {
			return
		}
		f.stopSwitch = nil
		f.mode = ModeLogin
		f.creds = models.Credentials{Email: f.creds.Email}
		f.errs = models.FieldErrors{}
	})
}

// cancelSwitchLocked stops a pending post-signup switch. The epoch bump
// covers a timer that already fired and is waiting on the lock.
func (f *FormController) cancelSwitchLocked() {
	f.switchEpoch++
	if f.stopSwitch != nil {
		f.stopSwitch()
		f.stopSwitch = nil
	}
}

// ToggleMode flips login/signup, clearing errors and the message.
// Credentials are kept.
func (f *FormController) ToggleMode() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancelSwitchLocked()
	if f.mode == ModeLogin {
		f.mode = ModeSignup
	} else {
		f.mode = ModeLogin
	}
	f.errs = models.FieldErrors{}
	f.msg = models.Message{}
}

// Close cancels a pending post-signup switch.
func (f *FormController) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelSwitchLocked()
}

func (f *FormController) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

func (f *FormController) Credentials() models.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds
}

// Errors returns a copy of the current field errors.
func (f *FormController) Errors() models.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs.Clone()
}

func (f *FormController) Message() models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msg
}

func (f *FormController) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}
