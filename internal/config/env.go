package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvDataDir = "CBUDGET_DATA_DIR"
	EnvPayday  = "CBUDGET_PAYDAY"
	EnvAMQPURL = "CBUDGET_AMQP_URL"
)

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with any CBUDGET_* variables set in the environment.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.General.DataDir = v
	}
	if v := os.Getenv(EnvPayday); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPayday, err)
		}
		cfg.Period.Payday = n
	}
	if v := os.Getenv(EnvAMQPURL); v != "" {
		cfg.Daemon.AMQPURL = v
	}
	return nil
}
