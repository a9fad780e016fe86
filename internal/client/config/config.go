package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/qryptovault/internal/netx"
)

// Session backends.
const (
	SessionSQLite = "sqlite"
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

// Config holds runtime settings for the Qrypto Vault CLI.
type Config struct {
	ServerURL      string        `env:"SERVER_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	SignupSwitchDelay      time.Duration `env:"SIGNUP_SWITCH_DELAY"`
	RequireConfirmPassword bool          `env:"REQUIRE_CONFIRM_PASSWORD"`
	CheckUniqueness        bool          `env:"CHECK_UNIQUENESS"`

	InboxPreviewSize    int           `env:"INBOX_PREVIEW_SIZE"`
	ReconnectMinBackoff time.Duration `env:"RECONNECT_MIN_BACKOFF"`
	ReconnectMaxBackoff time.Duration `env:"RECONNECT_MAX_BACKOFF"`

	DatabasePath   string        `env:"DB_PATH"`
	SessionBackend string        `env:"SESSION_BACKEND"`
	SessionTTL     time.Duration `env:"SESSION_TTL"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB"`

	DownloadDir string `env:"DOWNLOAD_DIR"`

	LogBackend string `env:"LOG_BACKEND"`
	LogLevel   string `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8000"
	c.RequestTimeout = 10 * time.Second
	c.SignupSwitchDelay = time.Second
	c.RequireConfirmPassword = true
	c.CheckUniqueness = false
	c.InboxPreviewSize = 5
	c.ReconnectMinBackoff = 500 * time.Millisecond
	c.ReconnectMaxBackoff = 30 * time.Second
	c.DatabasePath = "vault.db"
	c.SessionBackend = SessionSQLite
	c.SessionTTL = 0
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisPassword = ""
	c.RedisDB = 0
	c.DownloadDir = "downloads"
	c.LogBackend = "slog"
	c.LogLevel = "warn"
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if _, err := netx.ParseBaseURL(c.ServerURL); err != nil {
		return fmt.Errorf("server url: %w", err)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.InboxPreviewSize <= 0 {
		return fmt.Errorf("inbox preview size must be positive, got %d", c.InboxPreviewSize)
	}
	if c.ReconnectMinBackoff <= 0 || c.ReconnectMaxBackoff < c.ReconnectMinBackoff {
		return fmt.Errorf("invalid reconnect backoff %s..%s", c.ReconnectMinBackoff, c.ReconnectMaxBackoff)
	}
	switch c.SessionBackend {
	case SessionSQLite, SessionRedis, SessionMemory:
	default:
		return fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}
	return nil
}

// Load builds a Config from defaults, then the JSON file, the environment
// and args (without the program name). Later sources take precedence.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}
