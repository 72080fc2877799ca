// Package project persists run settings and layout reports as JSON.
package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/StickerPack/internal/model"
)

const configDirName = ".stickerpack"

// DefaultConfigDir returns ~/.stickerpack, or .stickerpack in the working
// directory when the home directory is unknown.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configDirName
	}
	return filepath.Join(home, configDirName)
}

// DefaultConfigPath returns the config file used when -config is not given.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig validates cfg and writes it to path as indented JSON,
// creating parent directories. An invalid config is never written.
func SaveAppConfig(path string, cfg model.AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save config %s: %w", path, err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// LoadAppConfig reads the settings at path on top of DefaultAppConfig. A
// missing file yields the defaults and keys absent from the file keep their
// default. Unknown keys are an error. The merged result is validated.
func LoadAppConfig(path string) (model.AppConfig, error) {
	cfg := model.DefaultAppConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return model.AppConfig{}, fmt.Errorf("failed to read config: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if dec.More() {
		return model.AppConfig{}, fmt.Errorf("failed to parse config %s: trailing data after settings object", path)
	}

	if err := cfg.Validate(); err != nil {
		return model.AppConfig{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
