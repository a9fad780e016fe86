package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/qryptovault/internal/client/client"
	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/client/session"
)

// GenericErrorMessage is shown when nothing more specific is known.
const GenericErrorMessage = "Something went wrong. Please try again."

var (
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrUploadIncomplete = errors.New("upload needs a file, a logged-in user and a recipient")
	ErrIntegrity        = errors.New("downloaded content does not match the uploaded digest")
)

// ValidationError reports local, field-scoped input problems.
type ValidationError struct {
	Fields models.FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages lists the field messages in models.FieldOrder. Fields outside
// that order are not reported.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range models.FieldOrder {
		if msg := e.Fields[f]; msg != "" {
			out = append(out, msg)
		}
	}
	return out
}

// First returns the message of the first invalid field in form order.
func (e *ValidationError) First() string {
	if msgs := e.Messages(); len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// ConflictError reports that an email or username is already taken.
type ConflictError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q is taken: %v", e.Field, e.Value, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// UserMessage turns any error surfaced by the services into one line of
// text fit for display. It never returns "" for a non-nil error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		ve  *ValidationError
		ce  *ConflictError
		api *client.APIError
	)
	switch {
	case errors.As(err, &ve):
		if msg := ve.First(); msg != "" {
			return msg
		}
	case errors.As(err, &ce):
		return ce.Message
	case errors.As(err, &api):
		return api.Message
	case errors.Is(err, ErrSubmitInProgress):
		return "Please wait, a request is already in progress."
	case errors.Is(err, ErrUploadIncomplete):
		return "Please select a file, log in, and specify a recipient"
	case errors.Is(err, ErrIntegrity):
		return "Downloaded file failed the integrity check."
	case errors.Is(err, session.ErrNoSession):
		return "Please log in first."
	case errors.Is(err, client.ErrMissingUsername):
		return "Login successful but username missing."
	case errors.Is(err, client.ErrMalformedResponse):
		return "Unexpected response from the server. Please try again."
	case errors.Is(err, client.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return "Unable to reach the server. Please try again."
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	}
	return GenericErrorMessage
}
