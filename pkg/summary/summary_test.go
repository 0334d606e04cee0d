package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/TaiwoAjibola/aggregator/internal/store"
)

type fakeStore struct {
	store.Store

	detail  *store.EventDetail
	pending []store.Event
	saved   []*store.AiOutput
}

func (f *fakeStore) GetEventWithItems(ctx context.Context, eventID int64) (*store.EventDetail, error) {
	if f.detail == nil {
		return nil, store.ErrNotFound
	}
	return f.detail, nil
}

func (f *fakeStore) CreateAiOutput(ctx context.Context, out *store.AiOutput) error {
	out.ID = int64(len(f.saved) + 1)
	f.saved = append(f.saved, out)
	return nil
}

func (f *fakeStore) ListEventsWithoutSummary(ctx context.Context, limit int) ([]store.Event, error) {
	return f.pending, nil
}

type fakeOracle struct {
	response string
	err      error
	prompt   string
}

func (f *fakeOracle) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func (f *fakeOracle) Model() string { return "fake-model" }

func detailWith(items ...store.LinkedItem) *store.EventDetail {
	return &store.EventDetail{Event: store.Event{ID: 7}, Items: items}
}

func li(source, title string) store.LinkedItem {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return store.LinkedItem{SourceName: source, Title: title, FetchedAt: at, LinkedAt: at}
}

func TestGenerate(t *testing.T) {
	fs := &fakeStore{detail: detailWith(
		li("Punch", "CBN raises MPR"),
		li("Vanguard", "MPR raised to new high"),
	)}
	fo := &fakeOracle{response: "Event Title: CBN raises MPR\n\nEvent Summary:\nThe rate was raised."}

	out, err := NewGenerator(fs, fo, Options{}).Generate(context.Background(), 7)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if out.Model != "fake-model" || out.PromptVersion != PromptVersion {
		t.Errorf("output metadata = %s/%s", out.Model, out.PromptVersion)
	}
	if !strings.HasPrefix(out.OutputText, "Event Title:\nCBN raises MPR") {
		t.Errorf("output not canonicalized:\n%s", out.OutputText)
	}
	if strings.Contains(out.OutputText, "Coverage Note") {
		t.Error("two-source event must not carry a Coverage Note")
	}
	if len(fs.saved) != 1 {
		t.Errorf("saved %d outputs, want 1", len(fs.saved))
	}
	if !strings.Contains(fo.prompt, "Unique sources: 2") {
		t.Error("prompt missing unique source count")
	}
}

func TestGenerateSingleSourceCoverageNote(t *testing.T) {
	fs := &fakeStore{detail: detailWith(li("Punch", "Residents protest power outage"))}
	fo := &fakeOracle{response: "Event Title: Protest\n\nEvent Summary:\nA protest happened."}

	out, err := NewGenerator(fs, fo, Options{}).Generate(context.Background(), 7)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out.OutputText, DefaultCoverageNote) {
		t.Errorf("single-source output missing coverage note:\n%s", out.OutputText)
	}
	if !strings.Contains(out.OutputText, string(LensPublicReaction)) {
		t.Errorf("inferred lens not applied:\n%s", out.OutputText)
	}
}

func TestGenerateDisabledAndNoOracle(t *testing.T) {
	fs := &fakeStore{detail: detailWith(li("Punch", "X"))}

	if _, err := NewGenerator(fs, &fakeOracle{}, Options{Disabled: true}).Generate(context.Background(), 7); err == nil {
		t.Error("expected error when disabled")
	}
	if _, err := NewGenerator(fs, nil, Options{}).Generate(context.Background(), 7); err == nil {
		t.Error("expected error without an oracle")
	}
	if len(fs.saved) != 0 {
		t.Errorf("saved %d outputs, want 0", len(fs.saved))
	}
}

func TestGenerateTruncatesInputs(t *testing.T) {
	long := strings.Repeat("a", 500)
	fs := &fakeStore{detail: detailWith(li("Punch", long))}
	fo := &fakeOracle{response: "Event Title: X\n\nEvent Summary:\nY."}

	if _, err := NewGenerator(fs, fo, Options{MaxHeadlineChars: 50}).Generate(context.Background(), 7); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(fo.prompt, long) {
		t.Error("headline not truncated in prompt")
	}
	if !strings.Contains(fo.prompt, "…") {
		t.Error("truncated headline missing ellipsis")
	}
}

func TestGenerateMissing(t *testing.T) {
	fs := &fakeStore{
		detail:  detailWith(li("Punch", "X")),
		pending: []store.Event{{ID: 1}, {ID: 2}},
	}
	fo := &fakeOracle{err: errors.New("down")}

	generated, failed, err := NewGenerator(fs, fo, Options{}).GenerateMissing(context.Background(), 10)
	if err != nil {
		t.Fatalf("GenerateMissing: %v", err)
	}
	if generated != 0 || failed != 2 {
		t.Errorf("generated=%d failed=%d, want 0/2", generated, failed)
	}

	fo.err = nil
	fo.response = "Event Title: X\n\nEvent Summary:\nY."
	generated, failed, err = NewGenerator(fs, fo, Options{}).GenerateMissing(context.Background(), 10)
	if err != nil {
		t.Fatalf("GenerateMissing: %v", err)
	}
	if generated != 2 || failed != 0 {
		t.Errorf("generated=%d failed=%d, want 2/0", generated, failed)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	got := truncate(strings.Repeat("é", 20), 10)
	if n := len([]rune(got)); n != 10 {
		t.Errorf("rune length = %d, want 10", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("missing ellipsis: %q", got)
	}
}
