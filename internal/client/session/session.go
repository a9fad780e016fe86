// Package session persists the logged-in identity between runs.
//
// Every store keeps a single record under common.SessionKey. The value is
// the JSON form of models.SessionIdentity; a bare username (the format the
// web front-end kept in localStorage) is accepted on read.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
)

var (
	ErrNoSession      = errors.New("no active session")
	ErrEmptyUsername  = errors.New("session identity without username")
	ErrUnknownBackend = errors.New("unknown session backend")
)

// Store is the injected persistence for SessionIdentity.
type Store interface {
	// Get returns ErrNoSession when nobody is logged in.
	Get(ctx context.Context) (*models.SessionIdentity, error)
	Set(ctx context.Context, id models.SessionIdentity) error
	// Clear is a no-op when there is no session.
	Clear(ctx context.Context) error
}

func encode(id models.SessionIdentity) ([]byte, error) {
	if strings.TrimSpace(id.Username) == "" {
		return nil, ErrEmptyUsername
	}
	return json.Marshal(id)
}

func decode(raw []byte) (*models.SessionIdentity, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return nil, ErrNoSession
	}

	if strings.HasPrefix(s, "{") {
		var id models.SessionIdentity
		if err := json.Unmarshal([]byte(s), &id); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		if id.Username == "" {
			return nil, ErrNoSession
		}
		return &id, nil
	}

	// legacy: plain username, possibly JSON-quoted
	var name string
	if err := json.Unmarshal([]byte(s), &name); err != nil {
		name = s
	}
	if name == "" {
		return nil, ErrNoSession
	}
	return &models.SessionIdentity{Username: name}, nil
}
