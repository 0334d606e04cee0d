package alert

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	var links []string
	for _, li := range n.topItems(5) {
		links = append(links, fmt.Sprintf("• [%s](%s) [%s]", li.Title, li.URL, li.SourceName))
	}

	embed := map[string]any{
		"title":       fmt.Sprintf("🚨 %s", n.Headline),
		"description": fmt.Sprintf("**Breaking score:** %d | **Sources:** %d\n\n%s\n\n%s", n.Score, len(n.Sources), n.Body, strings.Join(links, "\n")),
		"color":       0xE53935,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}

	payload := map[string]any{
		"embeds": []map[string]any{embed},
	}
	return postJSON(ctx, d.client, "discord webhook", d.webhookURL, payload, nil)
}
