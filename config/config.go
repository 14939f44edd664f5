package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	coretypes "github.com/projecteru2/core/types"
)

// defaultRebuildBinary is the name of the external XOR rebuild program,
// expected on PATH unless overridden.
const defaultRebuildBinary = "scr_rebuild_xor"

// Config holds scrindex's process-wide configuration.
type Config struct {
	// RebuildBinary is the path (or PATH-resolved name) of the external
	// XOR repair program invoked by the repair executor.
	RebuildBinary string `json:"rebuild_binary"`
	// RepairConcurrency bounds how many rebuild children run at once.
	// Defaults to runtime.NumCPU() if zero.
	RepairConcurrency int `json:"repair_concurrency"`
	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `json:"log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RebuildBinary:     defaultRebuildBinary,
		RepairConcurrency: runtime.NumCPU(),
		Log: coretypes.ServerLogConfig{
			Level:      "info",
			MaxSize:    500,
			MaxAge:     28,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from file, falling back to defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // config path from SCRINDEX_CONFIG
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.RepairConcurrency <= 0 {
		cfg.RepairConcurrency = runtime.NumCPU()
	}
	if cfg.RebuildBinary == "" {
		cfg.RebuildBinary = defaultRebuildBinary
	}
	return cfg, nil
}
