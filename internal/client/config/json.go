package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/qryptovault/internal/flagx"
	"github.com/dmitrijs2005/qryptovault/internal/timex"
)

const configPathEnv = envPrefix + "CONFIG"

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell "absent" from "zero".
type JSONConfig struct {
	ServerURL      *string         `json:"server_url"`
	RequestTimeout *timex.Duration `json:"request_timeout"`

	SignupSwitchDelay      *timex.Duration `json:"signup_switch_delay"`
	RequireConfirmPassword *bool           `json:"require_confirm_password"`
	CheckUniqueness        *bool           `json:"check_uniqueness"`

	InboxPreviewSize    *int            `json:"inbox_preview_size"`
	ReconnectMinBackoff *timex.Duration `json:"reconnect_min_backoff"`
	ReconnectMaxBackoff *timex.Duration `json:"reconnect_max_backoff"`

	DatabasePath   *string         `json:"database_path"`
	SessionBackend *string         `json:"session_backend"`
	SessionTTL     *timex.Duration `json:"session_ttl"`
	RedisAddr      *string         `json:"redis_addr"`
	RedisPassword  *string         `json:"redis_password"`
	RedisDB        *int            `json:"redis_db"`

	DownloadDir *string `json:"download_dir"`

	LogBackend *string `json:"log_backend"`
	LogLevel   *string `json:"log_level"`
}

// parseJSON overlays cfg with the JSON file named by -c/-config or QV_CONFIG.
// No file configured means no changes.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args, configPathEnv)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	jc.apply(cfg)
	return nil
}

func (jc *JSONConfig) apply(cfg *Config) {
	setString(&cfg.ServerURL, jc.ServerURL)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.SignupSwitchDelay, jc.SignupSwitchDelay)
	setBool(&cfg.RequireConfirmPassword, jc.RequireConfirmPassword)
	setBool(&cfg.CheckUniqueness, jc.CheckUniqueness)
	setInt(&cfg.InboxPreviewSize, jc.InboxPreviewSize)
	setDuration(&cfg.ReconnectMinBackoff, jc.ReconnectMinBackoff)
	setDuration(&cfg.ReconnectMaxBackoff, jc.ReconnectMaxBackoff)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.SessionBackend, jc.SessionBackend)
	setDuration(&cfg.SessionTTL, jc.SessionTTL)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.RedisPassword, jc.RedisPassword)
	setInt(&cfg.RedisDB, jc.RedisDB)
	setString(&cfg.DownloadDir, jc.DownloadDir)
	setString(&cfg.LogBackend, jc.LogBackend)
	setString(&cfg.LogLevel, jc.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
