package ingest

import (
	"testing"
	"time"

	"github.com/TaiwoAjibola/aggregator/pkg/feed"
)

func TestDedupHash(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := feed.Item{Title: "CBN raises MPR", URL: "https://example.com/a", PublishedAt: &at}

	if dedupHash("Punch", a) != dedupHash("Punch", a) {
		t.Error("hash not stable for identical input")
	}
	if dedupHash("Punch", a) == dedupHash("Vanguard", a) {
		t.Error("same item from different sources must hash differently")
	}

	b := a
	b.URL = "https://example.com/b"
	if dedupHash("Punch", a) == dedupHash("Punch", b) {
		t.Error("URL change must produce a new hash")
	}

	// Missing publish time still hashes, on the empty-string slot.
	c := a
	c.PublishedAt = nil
	if dedupHash("Punch", a) == dedupHash("Punch", c) {
		t.Error("publish-time change must produce a new hash")
	}

	// Excerpt and body edits must not invalidate dedup.
	d := a
	d.Excerpt = "updated excerpt"
	d.Body = "updated body"
	if dedupHash("Punch", a) != dedupHash("Punch", d) {
		t.Error("excerpt or body change must not produce a new hash")
	}
}
