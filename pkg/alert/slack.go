package alert

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Slack sends notifications via Slack incoming webhook.
type Slack struct {
	client     *http.Client
	webhookURL string
}

// NewSlack creates a new Slack notifier.
func NewSlack(webhookURL string) *Slack {
	return &Slack{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, n *Notification) error {
	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": fmt.Sprintf("🚨 %s", n.Headline),
			},
		},
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Breaking score:* %d | *Sources:* %d\n%s", n.Score, len(n.Sources), n.Body),
			},
		},
	}

	// Link the first few headlines for context.
	if items := n.topItems(5); len(items) > 0 {
		var elements []map[string]any
		for _, li := range items {
			elements = append(elements, map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("<%s|%s> [%s]", li.URL, li.Title, li.SourceName),
			})
		}
		blocks = append(blocks, map[string]any{
			"type":     "context",
			"elements": elements,
		})
	}

	return postJSON(ctx, s.client, "slack webhook", s.webhookURL, map[string]any{"blocks": blocks}, nil)
}
