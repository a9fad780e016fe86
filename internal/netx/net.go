// Package netx holds URL helpers shared by the HTTP client and the push channel.
package netx

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseBaseURL validates a backend base URL such as "http://localhost:8000".
// Only http and https are accepted; a trailing slash is dropped.
func ParseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q in %q", u.Scheme, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// Endpoint resolves path (e.g. "/login") against base, keeping any path
// prefix of base and attaching query.
func Endpoint(base *url.URL, path string, query url.Values) string {
	u := *base
	u.Path = base.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// WebSocketURL converts base to its ws/wss counterpart and resolves path
// against it.
func WebSocketURL(base *url.URL, path string, query url.Values) string {
	u := *base
	switch base.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return Endpoint(&u, path, query)
}
