package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testYAML = `environment: test
server:
  port: 9000
binance:
  base_url: http://localhost:9999
  symbol: BTCUSDT
  interval: 1h
  default_limit: 50
  timeout: 2s
  max_retries: 2
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Environment != "test" || cfg.Server.Port != 9000 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Binance.Symbol != "BTCUSDT" || cfg.Binance.Interval != "1h" {
		t.Fatalf("unexpected binance config %+v", cfg.Binance)
	}
	if cfg.Binance.Timeout != 2*time.Second || cfg.Binance.MaxRetries != 2 {
		t.Fatalf("unexpected binance config %+v", cfg.Binance)
	}
	// defaults fill the gaps
	if cfg.Binance.MaxLimit != 1000 {
		t.Fatalf("expected default max_limit 1000, got %d", cfg.Binance.MaxLimit)
	}
	if cfg.Binance.RetryDelay != 500*time.Millisecond {
		t.Fatalf("expected default retry_delay, got %v", cfg.Binance.RetryDelay)
	}
	if cfg.Export.Dir != "exports" {
		t.Fatalf("expected default export dir, got %s", cfg.Export.Dir)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BINANCE_BASE_URL", "http://stub:1234")
	t.Setenv("SYMBOL", "ETHUSDT")
	t.Setenv("API_PORT", "8081")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadWithEnv(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Binance.BaseURL != "http://stub:1234" {
		t.Fatalf("base url override not applied: %s", cfg.Binance.BaseURL)
	}
	if cfg.Binance.Symbol != "ETHUSDT" {
		t.Fatalf("symbol override not applied: %s", cfg.Binance.Symbol)
	}
	if cfg.Server.Port != 8081 {
		t.Fatalf("port override not applied: %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level override not applied: %s", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	if _, err := Load(writeConfig(t, "server:\n  port: 1\n")); err == nil {
		t.Fatalf("expected validation error for missing environment")
	}
	if _, err := Load(writeConfig(t, "environment: test\n")); err == nil {
		t.Fatalf("expected validation error for missing base_url")
	}
	bad := testYAML + "  max_limit: 10\n"
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("expected validation error for default_limit > max_limit")
	}
}
