// Package ingest writes fetched feed items into the store, deduplicating
// on a stable content hash per source.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/TaiwoAjibola/aggregator/internal/store"
	"github.com/TaiwoAjibola/aggregator/pkg/feed"
	"github.com/TaiwoAjibola/aggregator/pkg/text"
)

// Result reports one feed ingestion.
type Result struct {
	Source  string `json:"source"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Total   int    `json:"total"`
}

// Ingester pulls feeds into the store.
type Ingester struct {
	store   store.Store
	fetcher *feed.Fetcher
}

// New creates an ingester.
func New(s store.Store, f *feed.Fetcher) *Ingester {
	return &Ingester{store: s, fetcher: f}
}

// IngestFeed fetches one feed and stores its items under the named
// source, creating the source on first sight. Items whose dedup hash
// already exists are skipped.
func (ing *Ingester) IngestFeed(ctx context.Context, sourceName, feedURL string) (Result, error) {
	src, err := ing.store.UpsertSource(ctx, sourceName, feedURL)
	if err != nil {
		return Result{}, err
	}

	items, err := ing.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return Result{Source: sourceName}, fmt.Errorf("ingest %s: %w", sourceName, err)
	}

	fetchedAt := time.Now().UTC()
	result := Result{Source: src.Name, Total: len(items)}

	for _, fi := range items {
		item := store.Item{
			SourceID:    src.ID,
			Title:       fi.Title,
			Excerpt:     fi.Excerpt,
			Body:        fi.Body,
			URL:         fi.URL,
			PublishedAt: fi.PublishedAt,
			FetchedAt:   fetchedAt,
			Hash:        dedupHash(sourceName, fi),
		}

		created, err := ing.store.CreateItem(ctx, &item)
		if err != nil {
			return result, err
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}

	return result, nil
}

func dedupHash(sourceName string, fi feed.Item) string {
	publishedAt := ""
	if fi.PublishedAt != nil {
		publishedAt = fi.PublishedAt.UTC().Format(time.RFC3339)
	}
	key := strings.Join([]string{sourceName, fi.Title, fi.URL, publishedAt}, "|")
	return text.StableHash(key)
}
