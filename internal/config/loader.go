package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".topicrelay"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("TOPICRELAY_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// DefaultConfig returns the built-in defaults. Paths are resolved
// relative to the state directory when left empty.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ConfigDir)
	return &Config{
		Paths: PathsConfig{
			StateDir: stateDir,
			DBPath:   filepath.Join(stateDir, "config.db"),
			MediaDir: filepath.Join(stateDir, "media"),
		},
		Telegram: TelegramConfig{
			PollSeconds:  25,
			RetrySeconds: 5,
		},
		Relay: RelayConfig{
			HTTPTimeoutSeconds: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the effective configuration: defaults, then the JSON
// config file if present, then environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Load process env vars from ~/.config/topicrelay/env (and fallbacks) first.
	LoadEnvFileCandidates()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil // Use defaults if we can't find config path
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Override with environment variables for each group.
	envconfig.Process("TOPICRELAY_PATHS", &cfg.Paths)
	envconfig.Process("TOPICRELAY", &cfg.Telegram)
	envconfig.Process("TOPICRELAY_RELAY", &cfg.Relay)
	envconfig.Process("TOPICRELAY", &cfg.Log)

	if cfg.Paths.DBPath == "" {
		cfg.Paths.DBPath = filepath.Join(cfg.Paths.StateDir, "config.db")
	}
	if cfg.Paths.MediaDir == "" {
		cfg.Paths.MediaDir = filepath.Join(cfg.Paths.StateDir, "media")
	}
	return cfg, nil
}

// Save writes the configuration to the config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
