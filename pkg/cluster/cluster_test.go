package cluster

import (
	"context"
	"testing"
	"time"

	"github.com/TaiwoAjibola/aggregator/internal/store"
)

// fakeStore holds the grouping inputs in memory and records writes.
type fakeStore struct {
	store.Store

	items  []store.Item
	open   []store.EventWithSample
	linked map[int64]bool

	nextEventID int64
	events      map[int64]*store.Event
	links       []link
}

type link struct {
	eventID, itemID int64
	similarity      float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		linked:      map[int64]bool{},
		nextEventID: 100,
		events:      map[int64]*store.Event{},
	}
}

func (f *fakeStore) ListRecentItems(ctx context.Context, limit int) ([]store.Item, error) {
	return f.items, nil
}

func (f *fakeStore) ListOpenEvents(ctx context.Context, cutoff time.Time, limit, sampleSize int) ([]store.EventWithSample, error) {
	var out []store.EventWithSample
	for _, ev := range f.open {
		if ev.EndAt == nil || !ev.EndAt.Before(cutoff) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeStore) LinkedItemIDs(ctx context.Context, itemIDs []int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	for _, id := range itemIDs {
		if f.linked[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeStore) CreateEvent(ctx context.Context, ev *store.Event) error {
	f.nextEventID++
	ev.ID = f.nextEventID
	copied := *ev
	f.events[ev.ID] = &copied
	return nil
}

func (f *fakeStore) CreateEventItem(ctx context.Context, eventID, itemID int64, similarity float64) error {
	f.links = append(f.links, link{eventID, itemID, similarity})
	f.linked[itemID] = true
	return nil
}

func (f *fakeStore) UpdateEventBounds(ctx context.Context, eventID int64, startAt, endAt time.Time) error {
	if ev, ok := f.events[eventID]; ok {
		ev.StartAt = &startAt
		ev.EndAt = &endAt
		ev.ItemCount++
	}
	return nil
}

func item(id int64, title string, at time.Time) store.Item {
	return store.Item{ID: id, Title: title, PublishedAt: &at, FetchedAt: at}
}

func TestGroupLinksSimilarItemsIntoOneEvent(t *testing.T) {
	base := time.Now().UTC().Add(-time.Hour)
	fs := newFakeStore()
	fs.items = []store.Item{
		item(1, "CBN raises interest rate to 27.5 percent", base),
		item(2, "CBN raises benchmark interest rate again", base.Add(30*time.Minute)),
	}

	res, err := NewEngine(fs).Group(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Group: %v", err)
	}

	if res.CreatedEvents != 1 {
		t.Errorf("created %d events, want 1", res.CreatedEvents)
	}
	if res.LinkedItems != 2 {
		t.Errorf("linked %d items, want 2", res.LinkedItems)
	}
	if len(fs.links) != 2 || fs.links[0].eventID != fs.links[1].eventID {
		t.Errorf("links = %+v, want both on one event", fs.links)
	}
	if fs.links[0].similarity != 1 {
		t.Errorf("founding item similarity = %v, want 1", fs.links[0].similarity)
	}
}

func TestGroupCreatesSeparateEventsForDissimilarItems(t *testing.T) {
	base := time.Now().UTC().Add(-time.Hour)
	fs := newFakeStore()
	fs.items = []store.Item{
		item(1, "CBN raises interest rate to new high", base),
		item(2, "Flooding displaces thousands in Benue communities", base),
	}

	res, err := NewEngine(fs).Group(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if res.CreatedEvents != 2 {
		t.Errorf("created %d events, want 2", res.CreatedEvents)
	}
}

func TestGroupIsIdempotent(t *testing.T) {
	base := time.Now().UTC().Add(-time.Hour)
	fs := newFakeStore()
	fs.items = []store.Item{
		item(1, "ASUU suspends nationwide strike after talks", base),
		item(2, "ASUU suspends strike following agreement", base.Add(10*time.Minute)),
	}

	engine := NewEngine(fs)
	if _, err := engine.Group(context.Background(), Options{}); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	res, err := engine.Group(context.Background(), Options{})
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if res.CreatedEvents != 0 || res.LinkedItems != 0 {
		t.Errorf("second pass created %d events, linked %d items; want 0/0", res.CreatedEvents, res.LinkedItems)
	}
}

func TestGroupSkipsItemsWithNoTokens(t *testing.T) {
	base := time.Now().UTC().Add(-time.Hour)
	fs := newFakeStore()
	fs.items = []store.Item{item(1, "??!", base)}

	res, err := NewEngine(fs).Group(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if res.CreatedEvents != 0 || res.LinkedItems != 0 {
		t.Errorf("empty-token item produced events=%d links=%d, want 0/0", res.CreatedEvents, res.LinkedItems)
	}
	if res.ConsideredItems != 1 {
		t.Errorf("considered %d, want 1", res.ConsideredItems)
	}
}

func TestGroupJoinsOpenEventAndWidensBounds(t *testing.T) {
	start := time.Now().UTC().Add(-3 * time.Hour)
	end := start.Add(time.Hour)
	fs := newFakeStore()
	fs.events[50] = &store.Event{ID: 50, StartAt: &start, EndAt: &end, ItemCount: 1}
	fs.open = []store.EventWithSample{{
		Event: store.Event{ID: 50, StartAt: &start, EndAt: &end, ItemCount: 1},
		Sample: []store.LinkedItem{
			{ItemID: 9, Title: "Tanker explosion kills dozens on Lagos-Ibadan expressway", FetchedAt: start, LinkedAt: start},
		},
	}}

	at := end.Add(time.Hour)
	fs.items = []store.Item{item(1, "Dozens killed in Lagos-Ibadan expressway tanker explosion", at)}

	res, err := NewEngine(fs).Group(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if res.CreatedEvents != 0 {
		t.Errorf("created %d events, want 0", res.CreatedEvents)
	}
	if len(fs.links) != 1 || fs.links[0].eventID != 50 {
		t.Fatalf("links = %+v, want one link to event 50", fs.links)
	}
	if fs.links[0].similarity < 0.42 {
		t.Errorf("similarity = %v, want >= threshold", fs.links[0].similarity)
	}

	ev := fs.events[50]
	if ev.StartAt == nil || !ev.StartAt.Equal(start) {
		t.Errorf("start moved to %v, want %v", ev.StartAt, start)
	}
	if ev.EndAt == nil || !ev.EndAt.Equal(at) {
		t.Errorf("end = %v, want widened to %v", ev.EndAt, at)
	}
}

func TestGroupRespectsTimeWindow(t *testing.T) {
	start := time.Now().UTC().Add(-200 * time.Hour)
	fs := newFakeStore()
	// Event is loaded despite its age to prove the per-item window check,
	// not just the open-event cutoff, excludes it.
	fs.open = []store.EventWithSample{{
		Event: store.Event{ID: 60, StartAt: &start, EndAt: nil},
		Sample: []store.LinkedItem{
			{ItemID: 9, Title: "Governors meet over minimum wage deadlock", FetchedAt: start, LinkedAt: start},
		},
	}}

	at := time.Now().UTC().Add(-time.Hour)
	fs.items = []store.Item{item(1, "Governors meet again over minimum wage deadlock", at)}

	res, err := NewEngine(fs).Group(context.Background(), Options{HoursWindow: 48})
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if res.CreatedEvents != 1 {
		t.Errorf("created %d events, want 1 (stale event must not attract the item)", res.CreatedEvents)
	}
	if len(fs.links) != 1 || fs.links[0].eventID == 60 {
		t.Errorf("links = %+v, want link to a fresh event", fs.links)
	}
}
