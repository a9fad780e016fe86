// Package config loads runtime configuration for the Qrypto Vault client.
//
// Sources & precedence (later wins)
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected by -c / -config, or the QV_CONFIG
//     environment variable.
//  3. Environment variables with the QV_ prefix. A .env file in the working
//     directory is loaded first when present; it never overrides variables
//     that are already set.
//  4. Command-line flags.
//
// Supported flags
//
//	-a string   backend base URL (e.g. http://localhost:8000)
//	-t int      request timeout (seconds)
//	-d string   path of the local SQLite database
//	-s string   session backend: sqlite, redis or memory
//	-l string   log level: debug, info, warn, error
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "10s" or integer
// nanoseconds. Keys that are absent keep their previous value:
//
//	{
//	  "server_url": "http://localhost:8000",
//	  "request_timeout": "10s",
//	  "session_backend": "redis",
//	  "redis_addr": "127.0.0.1:6379"
//	}
package config
