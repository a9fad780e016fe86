// Package pushchan delivers backend push events to the client.
//
// The backend publishes block notifications through Socket.IO, so the
// concrete Channel speaks Engine.IO v4 / Socket.IO v4 framing over a plain
// WebSocket connection and reconnects on its own until it is closed.
package pushchan
