// Package config loads and saves the Mohini daemon configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the daemon configuration.
type Config struct {
	// ServerAddr is the HTTP listen address.
	ServerAddr string `json:"server_addr"`
	// DeviceID selects the default capture device.
	DeviceID string `json:"device_id"`
	// EnableAudio requests audio capture on recordings.
	EnableAudio bool `json:"enable_audio"`
	// ResolutionPreset caps the preview resolution: low, medium, high,
	// veryHigh, ultraHigh or auto.
	ResolutionPreset string `json:"resolution_preset"`
	// DataDir holds the capture index database.
	DataDir string `json:"data_dir"`
	// MediaDir is where captured photos and recordings are written.
	MediaDir string `json:"media_dir"`
}

// defaultConfig returns the configuration used when no config file
// exists. Directories live under ~/.mohini.
func defaultConfig() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("unable to determine user home directory: %w", err)
	}

	baseDir := filepath.Join(homeDir, ".mohini")
	return &Config{
		ServerAddr:       ":8080",
		DeviceID:         "0",
		ResolutionPreset: "auto",
		DataDir:          baseDir,
		MediaDir:         filepath.Join(baseDir, "media"),
	}, nil
}

// configPath returns the config file path, creating the config
// directory if needed.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".mohini")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("error creating config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the config file from ~/.mohini, filling missing fields
// from defaults. A missing file yields the default configuration.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	config, err := defaultConfig()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}

// Save writes the config to ~/.mohini/config.json.
func Save(config *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
