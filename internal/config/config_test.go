package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
exchange:
  symbols: ["EUR/USDT", "GBP/USDT"]
strategy:
  magic_number: 777
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if got := cfg.Exchange.Symbols; len(got) != 2 || got[0] != "EUR/USDT" || got[1] != "GBP/USDT" {
		t.Fatalf("unexpected symbols: %v", got)
	}
	if cfg.Strategy.MagicNumber != 777 {
		t.Errorf("magic_number=%d, want 777", cfg.Strategy.MagicNumber)
	}
	if cfg.Director.SleepInterval != 10*time.Millisecond {
		t.Errorf("sleep_interval=%v, want 10ms", cfg.Director.SleepInterval)
	}
	if cfg.Exchange.PollInterval != time.Second {
		t.Errorf("poll_interval=%v, want 1s", cfg.Exchange.PollInterval)
	}
	if cfg.Strategy.Signal.Method != "ma_crossover" {
		t.Errorf("signal method=%q, want ma_crossover", cfg.Strategy.Signal.Method)
	}
	if cfg.Strategy.Signal.MACrossover.FastPeriod != 5 || cfg.Strategy.Signal.MACrossover.SlowPeriod != 10 {
		t.Errorf("unexpected ma periods: %+v", cfg.Strategy.Signal.MACrossover)
	}
	if cfg.Execution.Mode != ExecutionModeDryRun {
		t.Errorf("execution mode=%q, want dry_run", cfg.Execution.Mode)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
account:
  currency: EUR
`)
	t.Setenv("TRADES_ACCOUNT_CURRENCY", "USD")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Account.Currency != "USD" {
		t.Fatalf("account.currency=%q, want USD", cfg.Account.Currency)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "未找到配置文件") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestLoad_ValidationAggregatesErrors(t *testing.T) {
	path := writeConfig(t, `
execution:
  mode: paper
director:
  sleep_interval: 0s
strategy:
  signal:
    method: ai_advisor
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"execution.mode", "director.sleep_interval", "openai.api_key"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err.Error(), want)
		}
	}
}

func TestErrorf_WrapsConfigurationError(t *testing.T) {
	err := Errorf("fast_period %d >= slow_period %d", 5, 3)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if !strings.Contains(err.Error(), "fast_period 5 >= slow_period 3") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TRADES_TEST_ENV_FILE_KEY=secret\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("TRADES_TEST_ENV_FILE_KEY", "")
	os.Unsetenv("TRADES_TEST_ENV_FILE_KEY")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile returned error: %v", err)
	}
	if got := os.Getenv("TRADES_TEST_ENV_FILE_KEY"); got != "secret" {
		t.Fatalf("env not loaded, got %q", got)
	}
}
