package detect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TaiwoAjibola/aggregator/internal/store"
)

func TestBreakingScore(t *testing.T) {
	tests := []struct {
		name     string
		sources  int
		items    int
		elapsed  time.Duration
		want     int
		breaking bool
	}{
		{"five sources ten items within hour", 5, 10, 30 * time.Minute, 100, true},
		{"three sources three items two hours", 3, 3, 90 * time.Minute, 60, true},
		{"two sources two items slow", 2, 2, 12 * time.Hour, 15, false},
		{"single source single item", 1, 1, 10 * time.Minute, 30, false},
		{"three sources five items six hours", 3, 5, 6 * time.Hour, 60, true},
		{"boundary two sources three items one hour", 2, 3, time.Hour, 55, true},
		{"nothing scored", 1, 1, 7 * time.Hour, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BreakingScore(tt.sources, tt.items, tt.elapsed)
			if got != tt.want {
				t.Errorf("BreakingScore(%d, %d, %v) = %d, want %d",
					tt.sources, tt.items, tt.elapsed, got, tt.want)
			}
			if (got >= BreakingThreshold) != tt.breaking {
				t.Errorf("breaking = %v, want %v (score %d)", got >= BreakingThreshold, tt.breaking, got)
			}
		})
	}
}

func TestBreakingScoreDeterministic(t *testing.T) {
	a := BreakingScore(4, 7, 45*time.Minute)
	b := BreakingScore(4, 7, 45*time.Minute)
	if a != b {
		t.Errorf("score varies across runs: %d vs %d", a, b)
	}
}

// fakeStore serves canned event details and records score writes.
type fakeStore struct {
	store.Store

	detail     *store.EventDetail
	score      int
	isBreaking bool
	duplicates bool
	dupSet     bool
}

func (f *fakeStore) GetEventWithItems(ctx context.Context, eventID int64) (*store.EventDetail, error) {
	if f.detail == nil {
		return nil, store.ErrNotFound
	}
	return f.detail, nil
}

func (f *fakeStore) SetEventScore(ctx context.Context, eventID int64, score int, isBreaking bool) error {
	f.score = score
	f.isBreaking = isBreaking
	return nil
}

func (f *fakeStore) SetEventDuplicates(ctx context.Context, eventID int64, hasDuplicates bool) error {
	f.duplicates = hasDuplicates
	f.dupSet = true
	return nil
}

type fakeOracle struct {
	answer string
	err    error
	calls  int
}

func (f *fakeOracle) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func (f *fakeOracle) Model() string { return "fake" }

func linked(source, title string, at time.Time) store.LinkedItem {
	return store.LinkedItem{SourceName: source, Title: title, FetchedAt: at, LinkedAt: at}
}

func TestScoreEvent(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fs := &fakeStore{detail: &store.EventDetail{
		Event: store.Event{ID: 1},
		Items: []store.LinkedItem{
			linked("Punch", "CBN raises MPR", base),
			linked("Vanguard", "CBN raises benchmark rate", base.Add(20*time.Minute)),
			linked("Channels TV", "MPR raised again", base.Add(40*time.Minute)),
		},
	}}

	score, err := NewAnalyzer(fs, nil).ScoreEvent(context.Background(), 1)
	if err != nil {
		t.Fatalf("ScoreEvent: %v", err)
	}
	// 3 sources (30) + 3 items (10) + 40 minutes elapsed (30).
	if score != 70 {
		t.Errorf("score = %d, want 70", score)
	}
	if fs.score != 70 || !fs.isBreaking {
		t.Errorf("persisted score=%d breaking=%v, want 70/true", fs.score, fs.isBreaking)
	}
}

func TestScoreEventEmpty(t *testing.T) {
	fs := &fakeStore{detail: &store.EventDetail{Event: store.Event{ID: 2}}}
	score, err := NewAnalyzer(fs, nil).ScoreEvent(context.Background(), 2)
	if err != nil {
		t.Fatalf("ScoreEvent: %v", err)
	}
	if score != 0 {
		t.Errorf("score = %d, want 0 for empty event", score)
	}
}

func TestDetectDuplicates(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	multi := []store.LinkedItem{
		linked("Punch", "Fuel scarcity hits Lagos", base),
		linked("Punch", "Queues return to Lagos filling stations", base.Add(time.Hour)),
		linked("Vanguard", "Fuel queues resurface", base.Add(2*time.Hour)),
	}
	single := []store.LinkedItem{
		linked("Punch", "Fuel scarcity hits Lagos", base),
		linked("Vanguard", "Fuel queues resurface", base.Add(time.Hour)),
	}

	tests := []struct {
		name      string
		items     []store.LinkedItem
		oracle    *fakeOracle
		want      bool
		wantCalls int
	}{
		{"all sources distinct", single, &fakeOracle{answer: "YES"}, false, 0},
		{"oracle confirms", multi, &fakeOracle{answer: "YES"}, true, 1},
		{"oracle confirms lowercase", multi, &fakeOracle{answer: "yes, same event"}, true, 1},
		{"oracle denies", multi, &fakeOracle{answer: "NO"}, false, 1},
		{"oracle fails", multi, &fakeOracle{err: errors.New("timeout")}, true, 1},
		{"no oracle", multi, nil, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{detail: &store.EventDetail{Event: store.Event{ID: 3}, Items: tt.items}}
			var a *Analyzer
			if tt.oracle != nil {
				a = NewAnalyzer(fs, tt.oracle)
			} else {
				a = NewAnalyzer(fs, nil)
			}

			got, err := a.DetectDuplicates(context.Background(), 3)
			if err != nil {
				t.Fatalf("DetectDuplicates: %v", err)
			}
			if got != tt.want {
				t.Errorf("hasDuplicates = %v, want %v", got, tt.want)
			}
			if !fs.dupSet || fs.duplicates != tt.want {
				t.Errorf("persisted flag = %v (set %v), want %v", fs.duplicates, fs.dupSet, tt.want)
			}
			if tt.oracle != nil && tt.oracle.calls != tt.wantCalls {
				t.Errorf("oracle calls = %d, want %d", tt.oracle.calls, tt.wantCalls)
			}
		})
	}
}
