package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Slack struct {
	name    string
	Webhook string
	Client  *http.Client
}

func NewSlack(name, webhook string) *Slack {
	return &Slack{
		name:    name,
		Webhook: webhook,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

func (s *Slack) Name() string { return s.name }

func (s *Slack) Deliver(ctx context.Context, n Notification) error {
	body, err := json.Marshal(slackPayload{Text: "*" + n.Title() + "*\n" + n.Summary})
	if err != nil {
		return err
	}
	return postJSON(ctx, s.Client, s.Webhook, body)
}

func postJSON(ctx context.Context, client *http.Client, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("non-2xx response: %s", resp.Status)
	}
	return nil
}
