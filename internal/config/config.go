package config

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"discord-antinuke-bot/internal/database"
	"discord-antinuke-bot/internal/models"
	"discord-antinuke-bot/internal/redis"
)

// Config is the top-level bot configuration, loaded from config.json.
type Config struct {
	Token       string                  `json:"token"`
	Redis       redis.Config            `json:"redis"`
	Postgres    database.PostgresConfig `json:"postgres"`
	MetricsAddr string                  `json:"metrics_addr"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("%s: token is required", path)
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}

	return &cfg, nil
}

// thresholdOverride is one entry in thresholds.yaml.
type thresholdOverride struct {
	Action      string `yaml:"action"`
	Count       int    `yaml:"count"`
	WindowHours int    `yaml:"window_hours"`
}

// LoadThresholdOverrides applies deployment-wide default threshold overrides
// from a YAML file. A missing file is not an error; per-guild settings in the
// database still take precedence over everything loaded here.
func LoadThresholdOverrides(path string) (int, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	var overrides []thresholdOverride
	if err := yaml.Unmarshal(file, &overrides); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	applied := 0
	for _, o := range overrides {
		action, err := models.ParseActionType(o.Action)
		if err != nil {
			return applied, fmt.Errorf("%s: %w", path, err)
		}
		t := models.Threshold{Action: action, Count: o.Count, WindowHours: o.WindowHours}
		if err := t.Validate(); err != nil {
			return applied, fmt.Errorf("%s: action %s: %w", path, o.Action, err)
		}
		models.SetDefaultThreshold(t)
		applied++
	}
	return applied, nil
}
