// Package models defines client-side data models used by the Qrypto Vault client.
package models

// Field names accepted by the auth form. They match the JSON keys the
// backend and the original web form use.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldUsername        = "username"
)

// FieldOrder is the order fields appear on the signup form. Field errors
// are reported in this order.
var FieldOrder = []string{FieldUsername, FieldEmail, FieldPassword, FieldConfirmPassword}

// Credentials holds transient auth form input.
type Credentials struct {
	Email           string
	Password        string
	ConfirmPassword string
	Username        string
}

// Set assigns the named field. It reports false for unknown names.
func (c *Credentials) Set(name, value string) bool {
	switch name {
	case FieldEmail:
		c.Email = value
	case FieldPassword:
		c.Password = value
	case FieldConfirmPassword:
		c.ConfirmPassword = value
	case FieldUsername:
		c.Username = value
	default:
		return false
	}
	return true
}

// Get returns the named field value, or "" for unknown names.
func (c Credentials) Get(name string) string {
	switch name {
	case FieldEmail:
		return c.Email
	case FieldPassword:
		return c.Password
	case FieldConfirmPassword:
		return c.ConfirmPassword
	case FieldUsername:
		return c.Username
	}
	return ""
}

// FieldErrors maps a field name to a human-readable message.
type FieldErrors map[string]string

// Clone returns an independent copy.
func (fe FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(fe))
	for k, v := range fe {
		out[k] = v
	}
	return out
}

// SessionIdentity is the persisted logged-in user.
type SessionIdentity struct {
	Username string `json:"username"`
	// Status is the server's acknowledgment text from login. It is not persisted.
	Status string `json:"-"`
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
