package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Thresholds.MinPotential != 6 {
		t.Errorf("expected default min potential 6, got %v", cfg.Thresholds.MinPotential)
	}
	if cfg.Thresholds.ScoreWeights.Potential != 0.6 || cfg.Thresholds.ScoreWeights.Ease != 0.4 {
		t.Errorf("unexpected default weights: %+v", cfg.Thresholds.ScoreWeights)
	}
	if len(cfg.Buckets) != 3 {
		t.Errorf("expected 3 default buckets, got %d", len(cfg.Buckets))
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store_path: /tmp/custom.csv
thresholds:
  min_potential: 8
buckets:
  - key: massage
    title: Massage
    feeds:
      - https://example.com/feed
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.StorePath != "/tmp/custom.csv" {
		t.Errorf("store_path not applied: %q", cfg.StorePath)
	}
	if cfg.Thresholds.MinPotential != 8 {
		t.Errorf("min_potential not applied: %v", cfg.Thresholds.MinPotential)
	}
	if len(cfg.Buckets) != 1 || cfg.Buckets[0].Key != "massage" {
		t.Errorf("buckets not applied: %+v", cfg.Buckets)
	}
	// Untouched defaults survive.
	if cfg.Ingest.TakePerBucket != 2 {
		t.Errorf("expected default take_per_bucket, got %d", cfg.Ingest.TakePerBucket)
	}
}

func TestAutoPopulateFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TG_BOT_TOKEN", "bot-token")
	t.Setenv("TG_CHAT_ID", "-100123")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("api key not populated: %q", cfg.OpenAI.APIKey)
	}
	if cfg.Telegram.BotToken != "bot-token" || cfg.Telegram.ChatID != "-100123" {
		t.Errorf("telegram settings not populated: %+v", cfg.Telegram)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config")
	}
}
