package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeFile(t, "bodash.yaml", `
backend_url: http://sim.local:8080
request_timeout: 15s
log_level: debug
checkpoints: [120, 240]
optimize:
  goal: min_factory_time
  generations: 20
map:
  avg_wind: 18
  mex_spots: 8
`)
	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.BackendURL != "http://sim.local:8080" || cfg.RequestTimeout != 15*time.Second {
		t.Errorf("unexpected backend settings: %+v", cfg)
	}
	if cfg.Optimize.Goal != "min_factory_time" || cfg.Optimize.Generations != 20 {
		t.Errorf("unexpected optimize settings: %+v", cfg.Optimize)
	}
	if cfg.Optimize.PopSize != 60 {
		t.Errorf("default pop size lost: %d", cfg.Optimize.PopSize)
	}
	if cfg.Map.AvgWind != 18 || cfg.Map.MexSpots != 8 || cfg.Map.MexValue != 2.0 {
		t.Errorf("unexpected map settings: %+v", cfg.Map)
	}
	if len(cfg.Checkpoints) != 2 || cfg.Checkpoints[1] != 240 {
		t.Errorf("checkpoints = %v", cfg.Checkpoints)
	}
}

func TestLoadConfig_SchemaViolation(t *testing.T) {
	cases := map[string]string{
		"bad url":     "backend_url: ftp://nope\n",
		"bad level":   "log_level: loud\n",
		"bad pop":     "optimize:\n  pop_size: 1\n",
		"unknown key": "colour: blue\n",
	}
	for name, body := range cases {
		path := writeFile(t, "bad.yaml", body)
		if _, err := Load(path, ""); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("BODASH_BACKEND_URL", "http://env:9000")
	t.Setenv("GREPTIMEDB_ENDPOINT", "greptime:4001")
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackendURL != "http://env:9000" {
		t.Errorf("env override not applied: %s", cfg.BackendURL)
	}
	if cfg.Export.GreptimeEndpoint != "greptime:4001" || cfg.Export.Table != "bo_snapshots" {
		t.Errorf("export = %+v", cfg.Export)
	}
	if cfg.Simulate.Duration != 600 {
		t.Errorf("simulate duration = %d", cfg.Simulate.Duration)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml"), ""); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadConfig_SampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "bodash.yaml"), "")
	if err != nil {
		t.Fatalf("sample config rejected: %v", err)
	}
	if cfg.Export.Table != "bo_snapshots" || cfg.Simulate.Duration != 600 {
		t.Errorf("unexpected sample values: %+v", cfg)
	}
}
