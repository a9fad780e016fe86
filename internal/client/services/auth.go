// Package services contains the application services of the Qrypto Vault
// client: authentication and the auth form controller, the live inbox
// synchronizer, and file upload/download.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/qryptovault/internal/client/client"
	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/client/session"
	"github.com/dmitrijs2005/qryptovault/internal/logging"
)

// Authenticator is what the form controller needs from the auth layer.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.SessionIdentity, error)
	Signup(ctx context.Context, creds models.Credentials) (string, error)
	CheckAvailability(ctx context.Context, email, username string) error
}

// AuthService authenticates against the backend and keeps the resulting
// identity in a session.Store.
//
// Contract:
//   - Login: authenticate and persist the SessionIdentity.
//   - Signup: register a new account; nothing is persisted.
//   - CheckAvailability: uniqueness pre-check of email and username.
//   - CurrentUser: the persisted identity, or session.ErrNoSession.
//   - Logout: drop the persisted identity.
type AuthService struct {
	client client.Client
	store  session.Store
	log    logging.Logger
}

func NewAuthService(c client.Client, store session.Store, log logging.Logger) *AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthService{client: c, store: store, log: log.With("service", "auth")}
}

func (a *AuthService) Login(ctx context.Context, email, password string) (*models.SessionIdentity, error) {
	id, err := a.client.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := a.store.Set(ctx, *id); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	a.log.Info(ctx, "logged in", "username", id.Username)
	return id, nil
}

// Signup returns the server acknowledgment text (may be empty).
func (a *AuthService) Signup(ctx context.Context, creds models.Credentials) (string, error) {
	status, err := a.client.Signup(ctx, models.SignupRequest{
		Username: creds.Username,
		Email:    creds.Email,
		Password: creds.Password,
	})
	if err != nil {
		return "", fmt.Errorf("signup: %w", err)
	}
	a.log.Info(ctx, "signed up", "username", creds.Username)
	return status, nil
}

// CheckAvailability returns a *ConflictError for the first taken value.
// An empty username is not checked.
func (a *AuthService) CheckAvailability(ctx context.Context, email, username string) error {
	if err := a.client.CheckEmail(ctx, email); err != nil {
		if errors.Is(err, client.ErrConflict) {
			return &ConflictError{Field: models.FieldEmail, Value: email, Message: "Email is already registered", Err: err}
		}
		return fmt.Errorf("check email: %w", err)
	}

	if username == "" {
		return nil
	}
	if err := a.client.CheckUsername(ctx, username); err != nil {
		if errors.Is(err, client.ErrConflict) {
			return &ConflictError{Field: models.FieldUsername, Value: username, Message: "Username is already taken", Err: err}
		}
		return fmt.Errorf("check username: %w", err)
	}
	return nil
}

func (a *AuthService) CurrentUser(ctx context.Context) (*models.SessionIdentity, error) {
	return a.store.Get(ctx)
}

func (a *AuthService) Logout(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.log.Info(ctx, "logged out")
	return nil
}
