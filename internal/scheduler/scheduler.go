package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/TaiwoAjibola/aggregator/internal/config"
	"github.com/TaiwoAjibola/aggregator/internal/store"
	"github.com/TaiwoAjibola/aggregator/pkg/alert"
	"github.com/TaiwoAjibola/aggregator/pkg/cluster"
	"github.com/TaiwoAjibola/aggregator/pkg/detect"
	"github.com/TaiwoAjibola/aggregator/pkg/ingest"
	"github.com/TaiwoAjibola/aggregator/pkg/summary"
)

// Scheduler runs the periodic ingest/group, analyze, and summarize
// passes. Passes never overlap: everything runs on one loop, which
// preserves the at-most-one-link-per-item contract of grouping.
type Scheduler struct {
	store        store.Store
	ingester     *ingest.Ingester
	feeds        []config.FeedConfig
	engine       *cluster.Engine
	grouping     cluster.Options
	analyzer     *detect.Analyzer
	analyzeLimit int
	generator    *summary.Generator
	summarizeMax int
	alertMgr     *alert.Manager

	ingestInt    time.Duration
	analyzeInt   time.Duration
	summarizeInt time.Duration
}

// New creates a scheduler.
func New(
	s store.Store,
	ingester *ingest.Ingester,
	feeds []config.FeedConfig,
	engine *cluster.Engine,
	grouping cluster.Options,
	analyzer *detect.Analyzer,
	analyzeLimit int,
	generator *summary.Generator,
	summarizeMax int,
	alertMgr *alert.Manager,
	ingestInt, analyzeInt, summarizeInt time.Duration,
) *Scheduler {
	if ingestInt == 0 {
		ingestInt = time.Hour
	}
	if analyzeInt == 0 {
		analyzeInt = 30 * time.Minute
	}
	if summarizeInt == 0 {
		summarizeInt = time.Hour
	}
	if analyzeLimit <= 0 {
		analyzeLimit = 20
	}
	if summarizeMax <= 0 {
		summarizeMax = 20
	}
	return &Scheduler{
		store:        s,
		ingester:     ingester,
		feeds:        feeds,
		engine:       engine,
		grouping:     grouping,
		analyzer:     analyzer,
		analyzeLimit: analyzeLimit,
		generator:    generator,
		summarizeMax: summarizeMax,
		alertMgr:     alertMgr,
		ingestInt:    ingestInt,
		analyzeInt:   analyzeInt,
		summarizeInt: summarizeInt,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ingestTicker := time.NewTicker(s.ingestInt)
	analyzeTicker := time.NewTicker(s.analyzeInt)
	summarizeTicker := time.NewTicker(s.summarizeInt)
	defer ingestTicker.Stop()
	defer analyzeTicker.Stop()
	defer summarizeTicker.Stop()

	// Run immediately on start.
	fmt.Fprintln(os.Stderr, "scheduler: initial ingest...")
	s.ingestAndGroup(ctx)
	fmt.Fprintln(os.Stderr, "scheduler: initial analysis...")
	s.analyzeAndAlert(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (ingest every %s, analyze every %s, summarize every %s)\n",
		s.ingestInt, s.analyzeInt, s.summarizeInt)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-ingestTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: ingesting...")
			s.ingestAndGroup(ctx)
		case <-analyzeTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: analyzing...")
			s.analyzeAndAlert(ctx)
		case <-summarizeTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: summarizing...")
			s.summarize(ctx)
		}
	}
}

func (s *Scheduler) ingestAndGroup(ctx context.Context) {
	totalCreated := 0
	for _, f := range s.feeds {
		res, err := s.ingester.IngestFeed(ctx, f.Name, f.URL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s error: %v\n", f.Name, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "  %s: %d new, %d skipped\n", f.Name, res.Created, res.Skipped)
		totalCreated += res.Created
	}
	fmt.Fprintf(os.Stderr, "  total: %d new items\n", totalCreated)

	res, err := s.engine.Group(ctx, s.grouping)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  grouping error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  grouped: %d events created, %d items linked, %d considered\n",
		res.CreatedEvents, res.LinkedItems, res.ConsideredItems)
}

func (s *Scheduler) analyzeAndAlert(ctx context.Context) {
	res, err := s.analyzer.AnalyzeRecent(ctx, s.analyzeLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  analysis error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  analyzed %d events (%d breaking, %d with duplicates)\n",
		res.Analyzed, res.Breaking, res.Duplicates)

	if !s.alertMgr.HasNotifiers() {
		return
	}

	events, err := s.store.ListRecentEvents(ctx, s.analyzeLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  alert listing error: %v\n", err)
		return
	}

	for _, ev := range events {
		if !ev.IsBreaking || ev.Alerted {
			continue
		}

		detail, err := s.store.GetEventWithItems(ctx, ev.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  alert load error for event %d: %v\n", ev.ID, err)
			continue
		}
		if len(detail.Items) == 0 {
			continue
		}

		sources := make(map[string]bool)
		for _, li := range detail.Items {
			sources[li.SourceName] = true
		}
		names := make([]string, 0, len(sources))
		for name := range sources {
			names = append(names, name)
		}

		notification := &alert.Notification{
			EventID:  ev.ID,
			Headline: detail.Items[0].Title,
			Body:     fmt.Sprintf("Covered by %d sources across %d reports", len(sources), len(detail.Items)),
			Score:    ev.BreakingScore,
			Sources:  names,
			Items:    detail.Items,
		}

		if err := s.alertMgr.Broadcast(ctx, notification); err != nil {
			fmt.Fprintf(os.Stderr, "  alert error for event %d: %v\n", ev.ID, err)
			continue
		}

		_ = s.store.MarkEventAlerted(ctx, ev.ID)
		fmt.Fprintf(os.Stderr, "  alerted: event %d (score %d)\n", ev.ID, ev.BreakingScore)
	}
}

func (s *Scheduler) summarize(ctx context.Context) {
	if s.generator == nil {
		return
	}

	generated, failed, err := s.generator.GenerateMissing(ctx, s.summarizeMax)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  summarize error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  summarized %d events (%d failed)\n", generated, failed)
}
