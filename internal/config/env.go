package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LoadDotEnv loads the first readable .env file. Variables already set in the
// process environment win. Missing files are not an error.
func LoadDotEnv(paths ...string) (string, error) {
	for _, path := range paths {
		err := godotenv.Load(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("load %s: %w", path, err)
		}
	}
	return "", nil
}

// ApplyEnv overlays SIMBRIDGE_* variables onto cfg. Unset variables leave the
// existing value in place.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
