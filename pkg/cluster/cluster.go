// Package cluster assigns recently ingested items to events using a
// greedy, single-pass, online pass over title token overlap. Re-running
// the pass is safe: already-linked items are never reconsidered.
package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/TaiwoAjibola/aggregator/internal/store"
	"github.com/TaiwoAjibola/aggregator/pkg/text"
)

// Options tunes a grouping pass.
type Options struct {
	// HoursWindow bounds how far apart in time an item and an event may
	// be and still be compared.
	HoursWindow int
	// SimilarityThreshold is the minimum Jaccard score for an item to
	// join an existing event.
	SimilarityThreshold float64
	// MaxItems caps how many recent items one pass considers.
	MaxItems int
	// OpenEventLimit caps how many open events are loaded.
	OpenEventLimit int
	// SampleSize caps how many recent items per event are compared.
	SampleSize int
}

func (o Options) withDefaults() Options {
	if o.HoursWindow <= 0 {
		o.HoursWindow = 48
	}
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = 0.42
	}
	if o.MaxItems <= 0 {
		o.MaxItems = 200
	}
	if o.OpenEventLimit <= 0 {
		o.OpenEventLimit = 120
	}
	if o.SampleSize <= 0 {
		o.SampleSize = 6
	}
	return o
}

// Result reports what one grouping pass did.
type Result struct {
	CreatedEvents   int `json:"created_events"`
	LinkedItems     int `json:"linked_items"`
	ConsideredItems int `json:"considered_items"`
}

// Engine groups recent items into events.
type Engine struct {
	store store.Store
}

// NewEngine creates a new grouping engine.
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// candidate is an open event plus the tokenized titles of its sample.
type candidate struct {
	event  store.EventWithSample
	tokens [][]string
}

func (c *candidate) repTime() *time.Time {
	if c.event.EndAt != nil {
		return c.event.EndAt
	}
	return c.event.StartAt
}

// withinHours reports whether two timestamps are at most the given number
// of hours apart. A missing timestamp never excludes a pairing.
func withinHours(a time.Time, b *time.Time, hours int) bool {
	if b == nil {
		return true
	}
	delta := a.Sub(*b)
	if delta < 0 {
		delta = -delta
	}
	return delta <= time.Duration(hours)*time.Hour
}

// Group runs one grouping pass over recent items and open events.
func (e *Engine) Group(ctx context.Context, opts Options) (Result, error) {
	opts = opts.withDefaults()

	items, err := e.store.ListRecentItems(ctx, opts.MaxItems)
	if err != nil {
		return Result{}, fmt.Errorf("load recent items: %w", err)
	}

	cutoff := time.Now().UTC().Add(-time.Duration(opts.HoursWindow) * time.Hour)
	openEvents, err := e.store.ListOpenEvents(ctx, cutoff, opts.OpenEventLimit, opts.SampleSize)
	if err != nil {
		return Result{}, fmt.Errorf("load open events: %w", err)
	}

	candidates := make([]*candidate, 0, len(openEvents))
	for _, ev := range openEvents {
		c := &candidate{event: ev}
		for _, li := range ev.Sample {
			c.tokens = append(c.tokens, text.Tokenize(li.Title))
		}
		candidates = append(candidates, c)
	}

	itemIDs := make([]int64, len(items))
	for i := range items {
		itemIDs[i] = items[i].ID
	}
	linked, err := e.store.LinkedItemIDs(ctx, itemIDs)
	if err != nil {
		return Result{}, fmt.Errorf("load linked item ids: %w", err)
	}

	result := Result{ConsideredItems: len(items)}

	for i := range items {
		item := &items[i]
		if linked[item.ID] {
			continue
		}

		itemTokens := text.Tokenize(item.Title)
		if len(itemTokens) == 0 {
			// Nothing to compare against; leave unlinked for a later pass.
			continue
		}

		effectiveAt := item.EffectiveAt()

		var best *candidate
		bestScore := 0.0
		for _, c := range candidates {
			if !withinHours(effectiveAt, c.repTime(), opts.HoursWindow) {
				continue
			}

			localBest := 0.0
			for _, sampleTokens := range c.tokens {
				if score := text.Jaccard(itemTokens, sampleTokens); score > localBest {
					localBest = score
				}
			}
			if localBest > bestScore {
				bestScore = localBest
				best = c
			}
		}

		if best == nil || bestScore < opts.SimilarityThreshold {
			at := effectiveAt
			ev := store.Event{StartAt: &at, EndAt: &at}
			if err := e.store.CreateEvent(ctx, &ev); err != nil {
				return result, err
			}

			// The new event joins the candidate pool so later items in
			// this pass can cluster onto it.
			best = &candidate{event: store.EventWithSample{Event: ev}}
			candidates = append([]*candidate{best}, candidates...)
			bestScore = 1
			result.CreatedEvents++
		}

		if err := e.store.CreateEventItem(ctx, best.event.ID, item.ID, bestScore); err != nil {
			return result, err
		}

		startAt, endAt := effectiveAt, effectiveAt
		if best.event.StartAt != nil && best.event.StartAt.Before(startAt) {
			startAt = *best.event.StartAt
		}
		if best.event.EndAt != nil && best.event.EndAt.After(endAt) {
			endAt = *best.event.EndAt
		}
		if err := e.store.UpdateEventBounds(ctx, best.event.ID, startAt, endAt); err != nil {
			return result, err
		}
		best.event.StartAt = &startAt
		best.event.EndAt = &endAt
		best.event.ItemCount++

		// The linked item becomes part of the event's comparison sample,
		// newest first, so similar items later in this pass can join it.
		best.tokens = append([][]string{itemTokens}, best.tokens...)
		if len(best.tokens) > opts.SampleSize {
			best.tokens = best.tokens[:opts.SampleSize]
		}

		linked[item.ID] = true
		result.LinkedItems++
	}

	return result, nil
}
