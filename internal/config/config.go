package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Feeds     []FeedConfig    `yaml:"feeds"`
	Grouping  GroupingConfig  `yaml:"grouping"`
	Detection DetectionConfig `yaml:"detection"`
	Summary   SummaryConfig   `yaml:"summary"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Server    ServerConfig    `yaml:"server"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures the daemon intervals.
type ScheduleConfig struct {
	IngestInterval    string `yaml:"ingest_interval"`
	AnalyzeInterval   string `yaml:"analyze_interval"`
	SummarizeInterval string `yaml:"summarize_interval"`
}

// ParseIngestInterval returns the ingest+group interval as time.Duration.
func (s ScheduleConfig) ParseIngestInterval() time.Duration {
	d, err := time.ParseDuration(s.IngestInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// ParseAnalyzeInterval returns the analysis interval as time.Duration.
func (s ScheduleConfig) ParseAnalyzeInterval() time.Duration {
	d, err := time.ParseDuration(s.AnalyzeInterval)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// ParseSummarizeInterval returns the summarization interval as time.Duration.
func (s ScheduleConfig) ParseSummarizeInterval() time.Duration {
	d, err := time.ParseDuration(s.SummarizeInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// FeedConfig is a single RSS feed entry.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// GroupingConfig tunes the event clustering pass.
type GroupingConfig struct {
	HoursWindow         int     `yaml:"hours_window"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxItems            int     `yaml:"max_items"`
}

// DetectionConfig tunes breaking-news and duplicate analysis.
type DetectionConfig struct {
	Limit int        `yaml:"limit"`
	Groq  GroqConfig `yaml:"groq"`
}

// GroqConfig configures the Groq client used for duplicate confirmation.
type GroqConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// SummaryConfig configures Ollama-backed summary generation.
type SummaryConfig struct {
	Disabled         bool    `yaml:"disabled"`
	Model            string  `yaml:"model"`
	BaseURL          string  `yaml:"base_url"`
	TimeoutMS        int     `yaml:"timeout_ms"`
	MaxEvents        int     `yaml:"max_events"`
	MaxEventItems    int     `yaml:"max_event_items"`
	MaxHeadlineChars int     `yaml:"max_headline_chars"`
	MaxExcerptChars  int     `yaml:"max_excerpt_chars"`
	NumCtx           int     `yaml:"num_ctx"`
	NumPredict       int     `yaml:"num_predict"`
	Temperature      float64 `yaml:"temperature"`
	TopP             float64 `yaml:"top_p"`
}

// AlertsConfig configures breaking-event alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./aggregator.db"},
		Schedule: ScheduleConfig{
			IngestInterval:    "1h",
			AnalyzeInterval:   "30m",
			SummarizeInterval: "1h",
		},
		Feeds: []FeedConfig{
			{Name: "Premium Times", URL: "https://www.premiumtimesng.com/feed"},
			{Name: "Punch", URL: "https://punchng.com/feed"},
			{Name: "Vanguard", URL: "https://www.vanguardngr.com/feed/"},
			{Name: "Channels TV", URL: "https://www.channelstv.com/feed/"},
			{Name: "BusinessDay", URL: "https://businessday.ng/feed/"},
			{Name: "ThisDay", URL: "https://www.thisdaylive.com/feed/"},
			{Name: "Nigerian Tribune", URL: "https://tribuneonlineng.com/feed/"},
			{Name: "Nairametrics", URL: "https://nairametrics.com/feed/"},
			{Name: "Daily Post", URL: "https://dailypost.ng/feed/"},
		},
		Grouping: GroupingConfig{
			HoursWindow:         48,
			SimilarityThreshold: 0.42,
			MaxItems:            200,
		},
		Detection: DetectionConfig{
			Limit: 20,
			Groq: GroqConfig{
				Model:     "llama-3.3-70b-versatile",
				TimeoutMS: 30_000,
			},
		},
		Summary: SummaryConfig{
			Model:            "llama3.2:latest",
			BaseURL:          "http://localhost:11434",
			TimeoutMS:        60_000,
			MaxEvents:        20,
			MaxEventItems:    12,
			MaxHeadlineChars: 180,
			MaxExcerptChars:  220,
			NumCtx:           1024,
			NumPredict:       350,
			Temperature:      0.2,
			TopP:             0.9,
		},
		Alerts: AlertsConfig{},
		Server: ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AGGREGATOR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.Detection.Groq.APIKey = v
	}
	if v := os.Getenv("GROQ_MODEL"); v != "" {
		cfg.Detection.Groq.Model = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.Summary.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Summary.Model = v
	}
	if os.Getenv("AI_DISABLED") == "1" {
		cfg.Summary.Disabled = true
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
}
