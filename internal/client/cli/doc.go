// Package cli provides the interactive Qrypto Vault command-line client.
//
// It wires configuration, local storage, the session store, API services and
// an interactive REPL. Typical flow: log in (or sign up), which starts the
// live inbox in the background, then upload, download and browse files.
//
// Key features:
//   - Login / Signup / Logout through the shared auth form controller
//   - Live inbox kept current over the push channel
//   - Upload with recipients, download with integrity check, upload history
//
// The client is started via App.Run(ctx), which blocks until the user exits
// or ctx is cancelled. See App and runREPL for details.
package cli
