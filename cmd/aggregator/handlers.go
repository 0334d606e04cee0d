package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/TaiwoAjibola/aggregator/internal/config"
	"github.com/TaiwoAjibola/aggregator/internal/scheduler"
	"github.com/TaiwoAjibola/aggregator/internal/store"
	"github.com/TaiwoAjibola/aggregator/pkg/alert"
	"github.com/TaiwoAjibola/aggregator/pkg/cluster"
	"github.com/TaiwoAjibola/aggregator/pkg/detect"
	"github.com/TaiwoAjibola/aggregator/pkg/feed"
	"github.com/TaiwoAjibola/aggregator/pkg/ingest"
	"github.com/TaiwoAjibola/aggregator/pkg/oracle"
	"github.com/TaiwoAjibola/aggregator/pkg/server"
	"github.com/TaiwoAjibola/aggregator/pkg/summary"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func groupingOptions(cfg *config.Config) cluster.Options {
	return cluster.Options{
		HoursWindow:         cfg.Grouping.HoursWindow,
		SimilarityThreshold: cfg.Grouping.SimilarityThreshold,
		MaxItems:            cfg.Grouping.MaxItems,
	}
}

// buildAnalyzer wires the duplicate-confirmation oracle when a Groq key
// is configured; without one the analyzer falls back to conservative
// flagging.
func buildAnalyzer(cfg *config.Config, db store.Store) *detect.Analyzer {
	var groq oracle.Generator
	if cfg.Detection.Groq.APIKey != "" {
		groq = oracle.NewGroq(
			cfg.Detection.Groq.APIKey,
			cfg.Detection.Groq.Model,
			cfg.Detection.Groq.BaseURL,
			time.Duration(cfg.Detection.Groq.TimeoutMS)*time.Millisecond,
		)
		fmt.Fprintf(os.Stderr, "duplicate oracle: groq/%s\n", cfg.Detection.Groq.Model)
	}
	return detect.NewAnalyzer(db, groq)
}

func buildGenerator(cfg *config.Config, db store.Store) *summary.Generator {
	ollama := oracle.NewOllama(
		cfg.Summary.BaseURL,
		cfg.Summary.Model,
		time.Duration(cfg.Summary.TimeoutMS)*time.Millisecond,
		oracle.OllamaOptions{
			NumCtx:      cfg.Summary.NumCtx,
			NumPredict:  cfg.Summary.NumPredict,
			Temperature: cfg.Summary.Temperature,
			TopP:        cfg.Summary.TopP,
		},
	)
	return summary.NewGenerator(db, ollama, summary.Options{
		MaxEventItems:    cfg.Summary.MaxEventItems,
		MaxHeadlineChars: cfg.Summary.MaxHeadlineChars,
		MaxExcerptChars:  cfg.Summary.MaxExcerptChars,
		Disabled:         cfg.Summary.Disabled,
	})
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func runIngest() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ing := ingest.New(db, feed.NewFetcher())
	ctx := context.Background()
	totalCreated := 0

	for _, f := range cfg.Feeds {
		fmt.Fprintf(os.Stderr, "ingesting %s...\n", f.Name)
		res, err := ing.IngestFeed(ctx, f.Name, f.URL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  error: %v\n", err)
			continue
		}
		fmt.Fprintf(os.Stderr, "  %d new, %d skipped of %d\n", res.Created, res.Skipped, res.Total)
		totalCreated += res.Created
	}

	fmt.Fprintf(os.Stderr, "\ntotal: %d new items from %d feeds\n", totalCreated, len(cfg.Feeds))
	return nil
}

func runGroup(hoursWindow int, threshold float64, maxItems int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	opts := groupingOptions(cfg)
	if hoursWindow > 0 {
		opts.HoursWindow = hoursWindow
	}
	if threshold > 0 {
		opts.SimilarityThreshold = threshold
	}
	if maxItems > 0 {
		opts.MaxItems = maxItems
	}

	res, err := cluster.NewEngine(db).Group(context.Background(), opts)
	if err != nil {
		return fmt.Errorf("group items: %w", err)
	}

	fmt.Fprintf(os.Stderr, "created %d events, linked %d of %d considered items\n",
		res.CreatedEvents, res.LinkedItems, res.ConsideredItems)
	return nil
}

func runAnalyze(limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if limit <= 0 {
		limit = cfg.Detection.Limit
	}

	res, err := buildAnalyzer(cfg, db).AnalyzeRecent(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("analyze events: %w", err)
	}

	fmt.Fprintf(os.Stderr, "analyzed %d events: %d breaking, %d with duplicate coverage\n",
		res.Analyzed, res.Breaking, res.Duplicates)
	return nil
}

func runGenerate(eventIDArg string) error {
	eventID, err := strconv.ParseInt(eventIDArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid event id %q", eventIDArg)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	out, err := buildGenerator(cfg, db).Generate(context.Background(), eventID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "saved output %d (model %s, prompt %s)\n\n", out.ID, out.Model, out.PromptVersion)
	fmt.Println(out.OutputText)
	return nil
}

func runEvents(jsonOutput bool, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	events, err := db.ListRecentEvents(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	if len(events) == 0 {
		fmt.Println("no events found (try: aggregator ingest && aggregator group)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tITEMS\tSCORE\tBREAKING\tDUPES\tLAST SEEN")
	for _, ev := range events {
		lastSeen := ""
		if ev.EndAt != nil {
			lastSeen = ev.EndAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%v\t%s\n",
			ev.ID, ev.ItemCount, ev.BreakingScore, ev.IsBreaking, ev.HasDuplicates, lastSeen)
	}
	return w.Flush()
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	srv := server.New(
		db,
		ingest.New(db, feed.NewFetcher()),
		cfg.Feeds,
		cluster.NewEngine(db),
		groupingOptions(cfg),
		buildAnalyzer(cfg, db),
		cfg.Detection.Limit,
		buildGenerator(cfg, db),
		port,
	)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ing := ingest.New(db, feed.NewFetcher())
	engine := cluster.NewEngine(db)
	analyzer := buildAnalyzer(cfg, db)
	generator := buildGenerator(cfg, db)
	alertMgr := buildAlertManager(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(
		db,
		ing,
		cfg.Feeds,
		engine,
		groupingOptions(cfg),
		analyzer,
		cfg.Detection.Limit,
		generator,
		cfg.Summary.MaxEvents,
		alertMgr,
		cfg.Schedule.ParseIngestInterval(),
		cfg.Schedule.ParseAnalyzeInterval(),
		cfg.Schedule.ParseSummarizeInterval(),
	)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	srv := server.New(
		db,
		ing,
		cfg.Feeds,
		engine,
		groupingOptions(cfg),
		analyzer,
		cfg.Detection.Limit,
		generator,
		port,
	)
	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	return srv.ListenAndServe()
}
