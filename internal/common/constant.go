// Package common contains shared constants and small helpers used across
// the Qrypto Vault client packages.
package common

// RequestIDHeader carries a per-request correlation id on outbound HTTP calls.
const RequestIDHeader = "X-Request-ID"

// SessionKey is the canonical storage key for the logged-in username.
const SessionKey = "loggedInUser"

// AppName is shown in prompts and used as a storage namespace.
const AppName = "qryptovault"
