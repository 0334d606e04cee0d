// Package alert pushes breaking-event notifications to configured
// destinations.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/TaiwoAjibola/aggregator/internal/store"
)

// Notification describes one newly breaking event.
type Notification struct {
	EventID  int64              `json:"event_id"`
	Headline string             `json:"headline"`
	Body     string             `json:"body"`
	Score    int                `json:"score"`
	Sources  []string           `json:"sources"`
	Items    []store.LinkedItem `json:"items"`
}

// topItems returns at most max linked items for rendering.
func (n *Notification) topItems(max int) []store.LinkedItem {
	if len(n.Items) <= max {
		return n.Items
	}
	return n.Items[:max]
}

// Notifier delivers notifications to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers. Every
// notifier is attempted; failures are joined into one error.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// postJSON marshals payload and POSTs it, treating any non-2xx status as
// an error. headers are applied on top of Content-Type.
func postJSON(ctx context.Context, client *http.Client, name, url string, payload any, headers func(body []byte, req *http.Request)) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if headers != nil {
		headers(body, req)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s status %d", name, resp.StatusCode)
	}
	return nil
}
