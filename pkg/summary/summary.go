// Package summary generates canonical event summaries from a
// generative-text backend and repairs its output into a fixed shape.
package summary

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/TaiwoAjibola/aggregator/internal/store"
	"github.com/TaiwoAjibola/aggregator/pkg/oracle"
)

// Options bounds how much event content is fed into the prompt.
type Options struct {
	MaxEventItems    int
	MaxHeadlineChars int
	MaxExcerptChars  int
	Disabled         bool
}

func (o Options) withDefaults() Options {
	if o.MaxEventItems <= 0 {
		o.MaxEventItems = 12
	}
	if o.MaxHeadlineChars <= 0 {
		o.MaxHeadlineChars = 180
	}
	if o.MaxExcerptChars <= 0 {
		o.MaxExcerptChars = 220
	}
	return o
}

// Generator produces and persists canonical summary documents.
type Generator struct {
	store  store.Store
	oracle oracle.Generator
	opts   Options
}

// NewGenerator creates a summary generator.
func NewGenerator(s store.Store, o oracle.Generator, opts Options) *Generator {
	return &Generator{store: s, oracle: o, opts: opts.withDefaults()}
}

// Generate builds the prompt for an event, calls the oracle, canonicalizes
// the response, and appends the result to the event's output history.
// Oracle failures surface to the caller; they are not retried here.
func (g *Generator) Generate(ctx context.Context, eventID int64) (*store.AiOutput, error) {
	if g.opts.Disabled {
		return nil, fmt.Errorf("summary generation is disabled")
	}
	if g.oracle == nil {
		return nil, fmt.Errorf("summary generation: no oracle configured")
	}

	detail, err := g.store.GetEventWithItems(ctx, eventID)
	if err != nil {
		return nil, err
	}

	linked := detail.Items
	if len(linked) > g.opts.MaxEventItems {
		linked = linked[len(linked)-g.opts.MaxEventItems:]
	}

	items := make([]InputItem, len(linked))
	for i, li := range linked {
		items[i] = InputItem{
			SourceName: truncate(li.SourceName, 80),
			Headline:   truncate(li.Title, g.opts.MaxHeadlineChars),
			Excerpt:    truncate(li.Excerpt, g.opts.MaxExcerptChars),
			Timestamp:  li.EffectiveAt().UTC().Format(time.RFC3339),
		}
	}

	sources := uniqueSourceNames(items)

	inferred := LensStraight
	if len(sources) < 2 {
		inferred = InferLens(items)
	}

	raw, err := g.oracle.Generate(ctx, BuildPrompt(items))
	if err != nil {
		return nil, fmt.Errorf("generate summary for event %d: %w", eventID, err)
	}

	out := &store.AiOutput{
		EventID:       eventID,
		Model:         g.oracle.Model(),
		PromptVersion: PromptVersion,
		OutputText:    Canonicalize(raw, sources, inferred),
	}
	if err := g.store.CreateAiOutput(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateMissing summarizes recent events that have no output yet.
// Per-event oracle failures are counted, not fatal.
func (g *Generator) GenerateMissing(ctx context.Context, limit int) (generated, failed int, err error) {
	events, err := g.store.ListEventsWithoutSummary(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("list events without summary: %w", err)
	}

	for _, ev := range events {
		if _, genErr := g.Generate(ctx, ev.ID); genErr != nil {
			failed++
			continue
		}
		generated++
	}
	return generated, failed, nil
}

func truncate(s string, maxChars int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:maxChars-1]), " ") + "…"
}
