// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Game       GameConfig       `toml:"game"`
	Difficulty DifficultyConfig `toml:"difficulty"`
}

// GameConfig maps session settings. Nil means unset.
type GameConfig struct {
	DurationSec   *int   `toml:"duration"`
	BatchWindowMs *int   `toml:"batch-window-ms"`
	TickMs        *int   `toml:"tick-ms"`
	Seed          *int64 `toml:"seed"`
}

// DifficultyConfig maps the latency band of the difficulty controller.
type DifficultyConfig struct {
	FastMs *float64 `toml:"fast-ms"`
	SlowMs *float64 `toml:"slow-ms"`
	Window *int     `toml:"window"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
