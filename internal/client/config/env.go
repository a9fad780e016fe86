package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const envPrefix = "QV_"

// parseEnv overlays cfg with QV_* environment variables, after loading an
// optional .env file. Unset variables leave fields untouched.
func parseEnv(cfg *Config, dotenvFiles ...string) error {
	if err := godotenv.Load(dotenvFiles...); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("load .env file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
