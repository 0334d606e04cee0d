// Package detect scores events for breaking-news coverage and flags
// duplicate reporting from a single source.
package detect

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/TaiwoAjibola/aggregator/internal/store"
	"github.com/TaiwoAjibola/aggregator/pkg/oracle"
)

// BreakingThreshold is the score at or above which an event is breaking.
const BreakingThreshold = 50

// BreakingScore computes the breaking-news score from source diversity,
// item volume, and how quickly the coverage arrived. Deterministic:
// re-running on unchanged inputs reproduces the same score.
func BreakingScore(distinctSources, itemCount int, elapsed time.Duration) int {
	score := 0

	// Source diversity (max 40 points).
	switch {
	case distinctSources >= 5:
		score += 40
	case distinctSources >= 3:
		score += 30
	case distinctSources >= 2:
		score += 15
	}

	// Item count (max 30 points).
	switch {
	case itemCount >= 10:
		score += 30
	case itemCount >= 5:
		score += 20
	case itemCount >= 3:
		score += 10
	}

	// Time urgency (max 30 points): fast coverage indicates breaking news.
	switch {
	case elapsed <= time.Hour:
		score += 30
	case elapsed <= 2*time.Hour:
		score += 20
	case elapsed <= 6*time.Hour:
		score += 10
	}

	return score
}

// Result reports one analysis pass over recent events.
type Result struct {
	Analyzed   int `json:"analyzed"`
	Breaking   int `json:"breaking"`
	Duplicates int `json:"duplicates"`
}

// Analyzer scores recent events. The oracle confirms suspected duplicate
// coverage; when it is nil or failing, suspicion stands.
type Analyzer struct {
	store  store.Store
	oracle oracle.Generator
}

// NewAnalyzer creates an analyzer. oracle may be nil.
func NewAnalyzer(s store.Store, o oracle.Generator) *Analyzer {
	return &Analyzer{store: s, oracle: o}
}

// ScoreEvent computes and persists the breaking score for one event.
// Elapsed time is measured between the first and last link creations.
func (a *Analyzer) ScoreEvent(ctx context.Context, eventID int64) (int, error) {
	detail, err := a.store.GetEventWithItems(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if len(detail.Items) == 0 {
		return 0, nil
	}

	sources := make(map[string]bool)
	for _, li := range detail.Items {
		sources[li.SourceName] = true
	}

	first := detail.Items[0].LinkedAt
	last := detail.Items[len(detail.Items)-1].LinkedAt
	elapsed := last.Sub(first)

	score := BreakingScore(len(sources), len(detail.Items), elapsed)
	isBreaking := score >= BreakingThreshold

	if err := a.store.SetEventScore(ctx, eventID, score, isBreaking); err != nil {
		return 0, err
	}
	return score, nil
}

// DetectDuplicates checks whether any single source contributed more than
// one item to the event and, when possible, asks the oracle to confirm.
// Oracle failures degrade to a conservative positive flag; only storage
// failures are returned.
func (a *Analyzer) DetectDuplicates(ctx context.Context, eventID int64) (bool, error) {
	detail, err := a.store.GetEventWithItems(ctx, eventID)
	if err != nil {
		return false, err
	}

	bySource := make(map[string][]store.LinkedItem)
	var order []string
	for _, li := range detail.Items {
		if _, seen := bySource[li.SourceName]; !seen {
			order = append(order, li.SourceName)
		}
		bySource[li.SourceName] = append(bySource[li.SourceName], li)
	}

	hasDuplicates := false
	for _, sourceName := range order {
		items := bySource[sourceName]
		if len(items) <= 1 {
			continue
		}

		if a.oracle == nil {
			// No credential configured; assume duplicates to be safe.
			hasDuplicates = true
			break
		}

		answer, err := a.oracle.Generate(ctx, duplicatePrompt(sourceName, items))
		if err != nil {
			fmt.Fprintf(os.Stderr, "  duplicate check failed for event %d: %v\n", eventID, err)
			hasDuplicates = true
			break
		}

		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(answer)), "YES") {
			hasDuplicates = true
			break
		}
	}

	if err := a.store.SetEventDuplicates(ctx, eventID, hasDuplicates); err != nil {
		return false, err
	}
	return hasDuplicates, nil
}

func duplicatePrompt(sourceName string, items []store.LinkedItem) string {
	titles := make([]string, len(items))
	for i, li := range items {
		titles[i] = li.Title
	}
	return fmt.Sprintf(`Are these %d headlines from %q about the exact same news event? Answer with only "YES" or "NO".

Headlines:
%s`, len(items), sourceName, strings.Join(titles, "\n"))
}

// AnalyzeRecent runs breaking and duplicate scoring over the most
// recently updated events.
func (a *Analyzer) AnalyzeRecent(ctx context.Context, limit int) (Result, error) {
	events, err := a.store.ListRecentEvents(ctx, limit)
	if err != nil {
		return Result{}, fmt.Errorf("list recent events: %w", err)
	}

	result := Result{Analyzed: len(events)}
	for _, ev := range events {
		score, err := a.ScoreEvent(ctx, ev.ID)
		if err != nil {
			return result, err
		}
		if score >= BreakingThreshold {
			result.Breaking++
		}

		hasDuplicates, err := a.DetectDuplicates(ctx, ev.ID)
		if err != nil {
			return result, err
		}
		if hasDuplicates {
			result.Duplicates++
		}
	}

	return result, nil
}
