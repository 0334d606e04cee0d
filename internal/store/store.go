package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// Source is a named publisher. Created on first sight, never deleted.
type Source struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	FeedURL   string    `db:"feed_url" json:"feed_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Item is one ingested headline.
type Item struct {
	ID          int64      `db:"id" json:"id"`
	SourceID    int64      `db:"source_id" json:"source_id"`
	SourceName  string     `db:"source_name" json:"source_name"`
	Title       string     `db:"title" json:"title"`
	Excerpt     string     `db:"excerpt" json:"excerpt"`
	Body        string     `db:"body" json:"-"`
	URL         string     `db:"url" json:"url"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
	FetchedAt   time.Time  `db:"fetched_at" json:"fetched_at"`
	Hash        string     `db:"hash" json:"-"`
}

// EffectiveAt is the published timestamp when present, else the fetch time.
func (it *Item) EffectiveAt() time.Time {
	if it.PublishedAt != nil {
		return *it.PublishedAt
	}
	return it.FetchedAt
}

// Event is a cluster of items believed to describe one happening.
type Event struct {
	ID            int64      `db:"id" json:"id"`
	StartAt       *time.Time `db:"start_at" json:"start_at,omitempty"`
	EndAt         *time.Time `db:"end_at" json:"end_at,omitempty"`
	ItemCount     int        `db:"item_count" json:"item_count"`
	BreakingScore int        `db:"breaking_score" json:"breaking_score"`
	IsBreaking    bool       `db:"is_breaking" json:"is_breaking"`
	HasDuplicates bool       `db:"has_duplicates" json:"has_duplicates"`
	Alerted       bool       `db:"alerted" json:"alerted"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// LinkedItem is an item joined to an event, with the similarity score
// recorded when the link was made.
type LinkedItem struct {
	ItemID      int64      `db:"item_id" json:"item_id"`
	SourceName  string     `db:"source_name" json:"source_name"`
	Title       string     `db:"title" json:"title"`
	Excerpt     string     `db:"excerpt" json:"excerpt"`
	URL         string     `db:"url" json:"url"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
	FetchedAt   time.Time  `db:"fetched_at" json:"fetched_at"`
	Similarity  float64    `db:"similarity" json:"similarity"`
	LinkedAt    time.Time  `db:"linked_at" json:"linked_at"`
}

// EffectiveAt is the published timestamp when present, else the fetch time.
func (li *LinkedItem) EffectiveAt() time.Time {
	if li.PublishedAt != nil {
		return *li.PublishedAt
	}
	return li.FetchedAt
}

// EventWithSample is an open event plus a bounded sample of its most
// recently linked items, used as comparison targets during grouping.
type EventWithSample struct {
	Event
	Sample []LinkedItem `json:"sample"`
}

// EventDetail is an event with all linked items in link-creation order
// and its most recent AI outputs.
type EventDetail struct {
	Event
	Items   []LinkedItem `json:"items"`
	Outputs []AiOutput   `json:"outputs"`
}

// AiOutput is one generated-and-canonicalized summary document for an
// event. Append-only; the most recent is authoritative for display.
type AiOutput struct {
	ID            int64     `db:"id" json:"id"`
	EventID       int64     `db:"event_id" json:"event_id"`
	Model         string    `db:"model" json:"model"`
	PromptVersion string    `db:"prompt_version" json:"prompt_version"`
	OutputText    string    `db:"output_text" json:"output_text"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Store is the persistence interface.
type Store interface {
	UpsertSource(ctx context.Context, name, feedURL string) (*Source, error)
	CreateItem(ctx context.Context, item *Item) (bool, error)
	ListRecentItems(ctx context.Context, limit int) ([]Item, error)
	CountItemsBySource(ctx context.Context) (map[string]int, error)

	CreateEvent(ctx context.Context, ev *Event) error
	ListOpenEvents(ctx context.Context, cutoff time.Time, limit, sampleSize int) ([]EventWithSample, error)
	ListRecentEvents(ctx context.Context, limit int) ([]Event, error)
	ListEventsWithoutSummary(ctx context.Context, limit int) ([]Event, error)
	GetEventWithItems(ctx context.Context, eventID int64) (*EventDetail, error)
	UpdateEventBounds(ctx context.Context, eventID int64, startAt, endAt time.Time) error
	SetEventScore(ctx context.Context, eventID int64, score int, isBreaking bool) error
	SetEventDuplicates(ctx context.Context, eventID int64, hasDuplicates bool) error
	MarkEventAlerted(ctx context.Context, eventID int64) error

	LinkedItemIDs(ctx context.Context, itemIDs []int64) (map[int64]bool, error)
	CreateEventItem(ctx context.Context, eventID, itemID int64, similarity float64) error

	CreateAiOutput(ctx context.Context, out *AiOutput) error
	ListAiOutputs(ctx context.Context, eventID int64, limit int) ([]AiOutput, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertSource(ctx context.Context, name, feedURL string) (*Source, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (name, feed_url, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET feed_url = excluded.feed_url
	`, name, feedURL, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("upsert source %s: %w", name, err)
	}

	var src Source
	if err := s.db.GetContext(ctx, &src, "SELECT * FROM sources WHERE name = ?", name); err != nil {
		return nil, fmt.Errorf("get source %s: %w", name, err)
	}
	return &src, nil
}

// CreateItem inserts an item, skipping silently when the same dedup hash
// already exists for the source. Returns whether a row was created.
func (s *SQLiteStore) CreateItem(ctx context.Context, item *Item) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO items (source_id, title, excerpt, body, url, published_at, fetched_at, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, hash) DO NOTHING
	`, item.SourceID, item.Title, item.Excerpt, item.Body, item.URL,
		item.PublishedAt, item.FetchedAt, item.Hash)
	if err != nil {
		return false, fmt.Errorf("create item %q: %w", item.Title, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create item rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	item.ID, _ = res.LastInsertId()
	return true, nil
}

func (s *SQLiteStore) ListRecentItems(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 200
	}

	var items []Item
	err := s.db.SelectContext(ctx, &items, `
		SELECT i.*, s.name AS source_name
		FROM items i
		JOIN sources s ON s.id = i.source_id
		ORDER BY COALESCE(i.published_at, i.fetched_at) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent items: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) CountItemsBySource(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT s.name, COUNT(i.id) AS cnt
		FROM sources s
		LEFT JOIN items i ON i.source_id = s.id
		GROUP BY s.name
	`)
	if err != nil {
		return nil, fmt.Errorf("count items by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var cnt int
		if err := rows.Scan(&name, &cnt); err != nil {
			return nil, err
		}
		counts[name] = cnt
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) CreateEvent(ctx context.Context, ev *Event) error {
	now := time.Now().UTC()
	ev.CreatedAt = now
	ev.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (start_at, end_at, item_count, breaking_score, is_breaking, has_duplicates, created_at, updated_at)
		VALUES (?, ?, ?, 0, 0, 0, ?, ?)
	`, ev.StartAt, ev.EndAt, ev.ItemCount, ev.CreatedAt, ev.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	ev.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) ListOpenEvents(ctx context.Context, cutoff time.Time, limit, sampleSize int) ([]EventWithSample, error) {
	if limit <= 0 {
		limit = 120
	}
	if sampleSize <= 0 {
		sampleSize = 6
	}

	var events []Event
	err := s.db.SelectContext(ctx, &events, `
		SELECT * FROM events
		WHERE end_at >= ? OR end_at IS NULL
		ORDER BY updated_at DESC
		LIMIT ?
	`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list open events: %w", err)
	}

	out := make([]EventWithSample, 0, len(events))
	for _, ev := range events {
		sample, err := s.eventItems(ctx, ev.ID, "DESC", sampleSize)
		if err != nil {
			return nil, err
		}
		out = append(out, EventWithSample{Event: ev, Sample: sample})
	}
	return out, nil
}

func (s *SQLiteStore) ListRecentEvents(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}

	var events []Event
	err := s.db.SelectContext(ctx, &events,
		"SELECT * FROM events ORDER BY updated_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list recent events: %w", err)
	}
	return events, nil
}

func (s *SQLiteStore) ListEventsWithoutSummary(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}

	var events []Event
	err := s.db.SelectContext(ctx, &events, `
		SELECT e.* FROM events e
		WHERE NOT EXISTS (SELECT 1 FROM event_ai_outputs o WHERE o.event_id = e.id)
		ORDER BY e.updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events without summary: %w", err)
	}
	return events, nil
}

func (s *SQLiteStore) GetEventWithItems(ctx context.Context, eventID int64) (*EventDetail, error) {
	var ev Event
	err := s.db.GetContext(ctx, &ev, "SELECT * FROM events WHERE id = ?", eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", eventID, err)
	}

	items, err := s.eventItems(ctx, eventID, "ASC", 0)
	if err != nil {
		return nil, err
	}

	outputs, err := s.ListAiOutputs(ctx, eventID, 5)
	if err != nil {
		return nil, err
	}

	return &EventDetail{Event: ev, Items: items, Outputs: outputs}, nil
}

func (s *SQLiteStore) eventItems(ctx context.Context, eventID int64, order string, limit int) ([]LinkedItem, error) {
	query := fmt.Sprintf(`
		SELECT i.id AS item_id, s.name AS source_name, i.title, i.excerpt, i.url,
		       i.published_at, i.fetched_at, ei.similarity, ei.created_at AS linked_at
		FROM event_items ei
		JOIN items i ON i.id = ei.item_id
		JOIN sources s ON s.id = i.source_id
		WHERE ei.event_id = ?
		ORDER BY ei.created_at %s, ei.id %s
	`, order, order)

	args := []any{eventID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var items []LinkedItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("event %d items: %w", eventID, err)
	}
	return items, nil
}

// UpdateEventBounds widens an event's time bounds and bumps its item count
// by one. Callers compute the min/max against the current bounds.
func (s *SQLiteStore) UpdateEventBounds(ctx context.Context, eventID int64, startAt, endAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events
		SET start_at = ?, end_at = ?, item_count = item_count + 1, updated_at = ?
		WHERE id = ?
	`, startAt, endAt, time.Now().UTC(), eventID)
	if err != nil {
		return fmt.Errorf("update event %d bounds: %w", eventID, err)
	}
	return nil
}

func (s *SQLiteStore) SetEventScore(ctx context.Context, eventID int64, score int, isBreaking bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events SET breaking_score = ?, is_breaking = ?, updated_at = ? WHERE id = ?
	`, score, isBreaking, time.Now().UTC(), eventID)
	if err != nil {
		return fmt.Errorf("set event %d score: %w", eventID, err)
	}
	return nil
}

func (s *SQLiteStore) SetEventDuplicates(ctx context.Context, eventID int64, hasDuplicates bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events SET has_duplicates = ?, updated_at = ? WHERE id = ?
	`, hasDuplicates, time.Now().UTC(), eventID)
	if err != nil {
		return fmt.Errorf("set event %d duplicates: %w", eventID, err)
	}
	return nil
}

func (s *SQLiteStore) MarkEventAlerted(ctx context.Context, eventID int64) error {
	_, err := s.db.ExecContext(ctx, "UPDATE events SET alerted = 1 WHERE id = ?", eventID)
	if err != nil {
		return fmt.Errorf("mark event %d alerted: %w", eventID, err)
	}
	return nil
}

func (s *SQLiteStore) LinkedItemIDs(ctx context.Context, itemIDs []int64) (map[int64]bool, error) {
	linked := make(map[int64]bool)
	if len(itemIDs) == 0 {
		return linked, nil
	}

	query, args, err := sqlx.In("SELECT item_id FROM event_items WHERE item_id IN (?)", itemIDs)
	if err != nil {
		return nil, fmt.Errorf("linked item ids: %w", err)
	}

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("linked item ids: %w", err)
	}

	for _, id := range ids {
		linked[id] = true
	}
	return linked, nil
}

func (s *SQLiteStore) CreateEventItem(ctx context.Context, eventID, itemID int64, similarity float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_items (event_id, item_id, similarity, created_at)
		VALUES (?, ?, ?, ?)
	`, eventID, itemID, similarity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("link item %d to event %d: %w", itemID, eventID, err)
	}
	return nil
}

func (s *SQLiteStore) CreateAiOutput(ctx context.Context, out *AiOutput) error {
	out.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO event_ai_outputs (event_id, model, prompt_version, output_text, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, out.EventID, out.Model, out.PromptVersion, out.OutputText, out.CreatedAt)
	if err != nil {
		return fmt.Errorf("create ai output for event %d: %w", out.EventID, err)
	}

	out.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) ListAiOutputs(ctx context.Context, eventID int64, limit int) ([]AiOutput, error) {
	if limit <= 0 {
		limit = 5
	}

	var outputs []AiOutput
	err := s.db.SelectContext(ctx, &outputs, `
		SELECT * FROM event_ai_outputs WHERE event_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
	`, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ai outputs for event %d: %w", eventID, err)
	}
	return outputs, nil
}
