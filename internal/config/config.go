package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Snapshot      SnapshotConfig   `json:"snapshot"`
	Search        SearchConfig     `json:"search"`
	Cache         CacheConfig      `json:"cache"`
	Generative    GenerativeConfig `json:"generative"`
	CORSAllowlist []string         `json:"cors_allowlist"`
}

type SnapshotConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type SearchConfig struct {
	DefaultTopK         int     `json:"default_top_k"`
	BoostMultiplier     float64 `json:"boost_multiplier"`
	FastDeadlineSeconds int     `json:"fast_deadline_seconds"`
}

type CacheConfig struct {
	Capacity       int `json:"capacity"`
	TTLSeconds     int `json:"ttl_seconds"`
	FastTTLSeconds int `json:"fast_ttl_seconds"`
}

type GenerativeConfig struct {
	Provider       string      `json:"provider"`
	Model          string      `json:"model"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	Data           interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Snapshot.Type == "" {
		return nil, fmt.Errorf("snapshot.type is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 10
	}
	if cfg.Search.FastDeadlineSeconds == 0 {
		cfg.Search.FastDeadlineSeconds = 15
	}
	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = 100
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 3600
	}
	if cfg.Cache.FastTTLSeconds == 0 {
		cfg.Cache.FastTTLSeconds = 600
	}
	if cfg.Generative.TimeoutSeconds == 0 {
		cfg.Generative.TimeoutSeconds = 30
	}
	if cfg.Generative.Provider != "" && cfg.Generative.Model == "" {
		return nil, fmt.Errorf("generative.model is required when a provider is configured")
	}
	return &cfg, nil
}
