package config

import (
	"fmt"
	"os"
	"path/filepath"

	"SetCodeGen/wallet"

	"github.com/pelletier/go-toml"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Account AccountConfig `toml:"account"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig holds the HTTP API settings
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// AccountConfig points at the signing account
type AccountConfig struct {
	Path           string `toml:"path"`
	DerivationPath string `toml:"derivation_path"`
}

type LogConfig struct {
	Level string `toml:"level"` // logrus level name
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		Account: AccountConfig{
			Path:           "Account.json",
			DerivationPath: wallet.DefaultDerivationPath,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the TOML file at path on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	file, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(file, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path as TOML.
func (c Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
