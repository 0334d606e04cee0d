// Package feed fetches and cleans RSS/Atom headlines from configured
// publisher feeds.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is one parsed feed entry.
type Item struct {
	Title       string
	URL         string
	PublishedAt *time.Time
	Excerpt     string
	Body        string
}

// Fetcher retrieves items from RSS/Atom feeds.
type Fetcher struct {
	client       *http.Client
	parser       *gofeed.Parser
	maxItems     int
	excerptChars int
	bodyChars    int
}

// NewFetcher creates a feed fetcher with per-feed item and length caps.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client:       &http.Client{Timeout: 15 * time.Second},
		parser:       gofeed.NewParser(),
		maxItems:     40,
		excerptChars: 240,
		bodyChars:    1200,
	}
}

// Fetch downloads and parses one feed. Entries without a title are
// dropped.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "aggregator/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s status %d", url, resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	entries := parsed.Items
	if len(entries) > f.maxItems {
		entries = entries[:f.maxItems]
	}

	var items []Item
	for _, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			continue
		}

		var publishedAt *time.Time
		if entry.PublishedParsed != nil {
			t := entry.PublishedParsed.UTC()
			publishedAt = &t
		} else if entry.UpdatedParsed != nil {
			t := entry.UpdatedParsed.UTC()
			publishedAt = &t
		}

		items = append(items, Item{
			Title:       title,
			URL:         strings.TrimSpace(entry.Link),
			PublishedAt: publishedAt,
			Excerpt:     cleanFragment(pickExcerpt(entry), f.excerptChars),
			Body:        cleanFragment(pickBody(entry), f.bodyChars),
		})
	}

	return items, nil
}

func pickExcerpt(entry *gofeed.Item) string {
	if entry.Description != "" {
		return entry.Description
	}
	return entry.Content
}

func pickBody(entry *gofeed.Item) string {
	if entry.Content != "" {
		return entry.Content
	}
	return entry.Description
}

var (
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)

	// Common WordPress / newsletter boilerplate that pollutes excerpts.
	// Intentionally small and conservative.
	cmsNoiseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bThe post\b[^.]*\bappeared first on\b[^.]*\.?`),
		regexp.MustCompile(`(?i)\bappeared first on\b[^.]*\.?`),
		regexp.MustCompile(`(?i)\bRead more\b\s*$`),
		regexp.MustCompile(`(?i)\bContinue reading\b\s*$`),
		regexp.MustCompile(`(?i)\bSubscribe\b[^.]*\.?`),
		regexp.MustCompile(`(?i)\bShare this\b[^.]*\.?`),
	}
)

// cleanFragment strips HTML tags and CMS boilerplate, collapses
// whitespace, and caps the length.
func cleanFragment(raw string, maxChars int) string {
	if raw == "" {
		return ""
	}

	cleaned := htmlTagRe.ReplaceAllString(raw, " ")
	for _, re := range cmsNoiseRes {
		cleaned = re.ReplaceAllString(cleaned, " ")
	}
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if len(cleaned) > maxChars {
		cleaned = cleaned[:maxChars]
	}
	return cleaned
}
