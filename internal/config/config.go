// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"bodash/internal/model"
)

// SimulateConfig holds defaults for single runs.
type SimulateConfig struct {
	Duration int `yaml:"duration"`
}

// OptimizeConfig holds defaults for optimizer runs.
type OptimizeConfig struct {
	Goal        string `yaml:"goal"`
	TargetTime  int    `yaml:"target_time"`
	Duration    int    `yaml:"duration"`
	Generations int    `yaml:"generations"`
	PopSize     int    `yaml:"pop_size"`
}

// ChartConfig sets the raster size of exported charts.
type ChartConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ExportConfig configures where snapshot rows are written.
type ExportConfig struct {
	GreptimeEndpoint string `yaml:"greptime_endpoint"`
	Database         string `yaml:"database"`
	Table            string `yaml:"table"`
	LogFile          string `yaml:"log_file"`
}

// Config is the root dashboard configuration.
type Config struct {
	BackendURL     string          `yaml:"backend_url"`
	RequestTimeout time.Duration   `yaml:"request_timeout"`
	AdminAddr      string          `yaml:"admin_addr"`
	ChartDir       string          `yaml:"chart_dir"`
	HistoryDB      string          `yaml:"history_db"`
	LogLevel       string          `yaml:"log_level"`
	Checkpoints    []int           `yaml:"checkpoints"`
	Simulate       SimulateConfig  `yaml:"simulate"`
	Optimize       OptimizeConfig  `yaml:"optimize"`
	Map            model.MapConfig `yaml:"map"`
	Chart          ChartConfig     `yaml:"chart"`
	Export         ExportConfig    `yaml:"export"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		BackendURL:     "http://localhost:8080",
		RequestTimeout: 60 * time.Second,
		AdminAddr:      ":8090",
		ChartDir:       "charts",
		HistoryDB:      "bodash.db",
		LogLevel:       "info",
		Checkpoints:    []int{180, 300, 420},
		Simulate:       SimulateConfig{Duration: 600},
		Optimize: OptimizeConfig{
			Goal:        "max_metal",
			TargetTime:  300,
			Duration:    600,
			Generations: 100,
			PopSize:     60,
		},
		Map:    model.DefaultMapConfig(),
		Chart:  ChartConfig{Width: 960, Height: 360},
		Export: ExportConfig{Database: "public", Table: "bo_snapshots"},
	}
}

// Load reads a YAML config, validates it against the CUE schema and applies
// it over Default. An empty configPath yields Default with env overrides.
// An empty schemaPath uses the built-in schema.
func Load(configPath, schemaPath string) (*Config, error) {
	cfg := Default()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		schema, err := readSchema(schemaPath)
		if err != nil {
			return nil, err
		}
		if err := ValidateWithCue(configPath, data, schema); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func readSchema(path string) ([]byte, error) {
	if path == "" {
		return schemaFS.ReadFile(schemaFile)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read CUE schema: %w", err)
	}
	return b, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BODASH_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("GREPTIMEDB_ENDPOINT"); v != "" {
		cfg.Export.GreptimeEndpoint = v
	}
	if v := os.Getenv("GREPTIMEDB_TABLE"); v != "" {
		cfg.Export.Table = v
	}
}
