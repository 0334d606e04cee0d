package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Database.Path == "" {
		t.Error("default database path empty")
	}
	if len(cfg.Feeds) == 0 {
		t.Error("default config carries no feeds")
	}
	if cfg.Grouping.HoursWindow != 48 || cfg.Grouping.SimilarityThreshold != 0.42 {
		t.Errorf("grouping defaults = %+v", cfg.Grouping)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Schedule.ParseIngestInterval() != time.Hour {
		t.Errorf("ingest interval = %v, want 1h", cfg.Schedule.ParseIngestInterval())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database:
  path: /tmp/other.db
grouping:
  similarity_threshold: 0.5
feeds:
  - name: Test Feed
    url: https://example.com/feed
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Path != "/tmp/other.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Grouping.SimilarityThreshold != 0.5 {
		t.Errorf("threshold = %v", cfg.Grouping.SimilarityThreshold)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0].Name != "Test Feed" {
		t.Errorf("feeds = %+v", cfg.Feeds)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Grouping.HoursWindow != 48 {
		t.Errorf("hours window = %d, want default 48", cfg.Grouping.HoursWindow)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AGGREGATOR_DB_PATH", "/tmp/env.db")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("AI_DISABLED", "1")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.example/T/B/x")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Detection.Groq.APIKey != "gsk_test" {
		t.Errorf("groq key = %q", cfg.Detection.Groq.APIKey)
	}
	if !cfg.Summary.Disabled {
		t.Error("AI_DISABLED=1 did not disable summaries")
	}
	if !cfg.Alerts.Slack.Enabled || cfg.Alerts.Slack.WebhookURL == "" {
		t.Errorf("slack alert not enabled from env: %+v", cfg.Alerts.Slack)
	}
}
