package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Webhook POSTs the notification as JSON.
type Webhook struct {
	name   string
	URL    string
	Client *http.Client
}

func NewWebhook(name, url string) *Webhook {
	return &Webhook{
		name:   name,
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Name() string { return w.name }

func (w *Webhook) Deliver(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return postJSON(ctx, w.Client, w.URL, body)
}
