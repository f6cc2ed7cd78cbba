package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("APP_LIMIT_PER_SECOND")
	os.Setenv("API_KEY", "RGAPI-test-key")
	defer os.Unsetenv("API_KEY")

	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AppLimitPerSecond != 20 {
		t.Fatalf("expected default app_limit_per_second 20, got %d", cfg.AppLimitPerSecond)
	}
	if cfg.StoreURL == "" {
		t.Fatalf("expected default store_url")
	}
}

func TestValidateFails(t *testing.T) {
	cfg := defaultConfig()
	cfg.ApiKey = ""
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for missing api_key")
	}

	cfg = defaultConfig()
	cfg.ApiKey = "wrong-prefix"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for bad api_key prefix")
	}

	cfg = defaultConfig()
	cfg.ApiKey = "RGAPI-ok"
	cfg.Regions = []string{"mars1"}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for unknown region")
	}

	cfg = defaultConfig()
	cfg.ApiKey = "RGAPI-ok"
	cfg.AppLimitPerSecond = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for zero app_limit_per_second")
	}
}
