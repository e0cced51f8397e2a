// Package userconfig persists CLI preferences in ~/.config/mansap/config.json.
package userconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// UserConfig is the on-disk preference file. A missing file is an empty config.
type UserConfig struct {
	APIURL    string `json:"api_url,omitempty"`
	LastEmail string `json:"last_email,omitempty"`
}

func path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "mansap", "config.json"), nil
}

// Load reads the preference file
func Load() (*UserConfig, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	cfg := &UserConfig{}
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}
	return cfg, nil
}

// SetLastEmail remembers the email of the last successful login
func SetLastEmail(email string) error {
	return update(func(cfg *UserConfig) { cfg.LastEmail = email })
}

// SetAPIURL stores the API root used when no flag or env var overrides it
func SetAPIURL(apiURL string) error {
	return update(func(cfg *UserConfig) { cfg.APIURL = apiURL })
}

// update applies fn to the stored config and writes the result back.
func update(fn func(*UserConfig)) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	fn(cfg)

	p, err := path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	return nil
}
