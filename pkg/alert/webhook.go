package alert

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"
)

// Webhook sends notifications to a generic HTTP endpoint. When a secret
// is configured, the request body is signed with HMAC-SHA256 so the
// receiver can verify it.
type Webhook struct {
	client *http.Client
	url    string
	secret string
}

// NewWebhook creates a new generic webhook notifier.
func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		secret: secret,
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, n *Notification) error {
	return postJSON(ctx, w.client, "webhook", w.url, n, func(body []byte, req *http.Request) {
		req.Header.Set("User-Agent", "aggregator/1.0")
		if w.secret == "" {
			return
		}
		mac := hmac.New(sha256.New, []byte(w.secret))
		mac.Write(body)
		req.Header.Set("X-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	})
}
