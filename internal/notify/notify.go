package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

// Notification describes one unhealthy resource at the moment it was checked.
type Notification struct {
	ResourceID string        `json:"resource_id"`
	Resource   string        `json:"resource"`
	Slug       string        `json:"slug"`
	Status     domain.Status `json:"status"`
	Summary    string        `json:"summary"`
	Action     string        `json:"action"`
	CheckedAt  time.Time     `json:"checked_at"`
}

func (n Notification) Title() string {
	return fmt.Sprintf("[%s] %s", n.Status.Upper(), n.Resource)
}

// Channel is one configured delivery destination.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}

// Reporter receives failures that were caught and not returned to the caller.
type Reporter interface {
	Report(ctx context.Context, err error)
}

// ReporterFunc adapts a function to a Reporter.
type ReporterFunc func(ctx context.Context, err error)

func (f ReporterFunc) Report(ctx context.Context, err error) { f(ctx, err) }

// DeliveryError is reported when a channel fails to deliver.
type DeliveryError struct {
	Channel  string
	Resource string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s to %s: %v", e.Resource, e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
