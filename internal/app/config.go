package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
)

// ClientConfig defines the parameters the chat client needs. Environment
// variables seed the defaults; flags in cmd/electrocord override them.
type ClientConfig struct {
	APIBase   string `env:"ELECTROCORD_API" envDefault:"https://electrocord.onrender.com"`
	SocketURL string `env:"ELECTROCORD_SOCKET" envDefault:"wss://electrocord.onrender.com/ws"`
	StatePath string `env:"ELECTROCORD_STATE_PATH"`
	Email     string `env:"ELECTROCORD_EMAIL"`
	LogPath   string `env:"ELECTROCORD_LOG"`
}

// LoadConfig reads the environment into a ClientConfig.
func LoadConfig() (ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.StatePath == "" {
		cfg.StatePath = DefaultStatePath()
	}
	return cfg, nil
}

// DefaultStatePath returns a per-user data path for the bundled SQLite file.
func DefaultStatePath() string {
	if env := os.Getenv("ELECTROCORD_DATA_DIR"); env != "" {
		return filepath.Join(env, "electrocord.db")
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "electrocord", "electrocord.db")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Electrocord", "electrocord.db")
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "Electrocord", "electrocord.db")
		}
		return filepath.Join(home, ".local", "share", "electrocord", "electrocord.db")
	}
	return filepath.Join(".", ".electrocord", "electrocord.db")
}
