package resource

import (
	"context"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/resourcewatch/internal/domain"
	"github.com/hamed0406/resourcewatch/internal/notify"
	"github.com/hamed0406/resourcewatch/internal/probe"
)

// Resource is a monitored entity made of one or more targets. Its status is
// always derived from the targets' latest results.
type Resource struct {
	id             string
	name           string
	slug           string
	abbreviation   string
	global         bool
	notify         bool
	errorMessage   string
	warningMessage string
	style          map[string]string
	graph          domain.TriState
	graphDefault   bool
	targets        []*Target
	checker        probe.Checker

	gate       Gate
	dispatcher *notify.Dispatcher
	logger     *zap.Logger

	// checkMu serialises Check calls; mu guards the fields below it.
	checkMu   sync.Mutex
	mu        sync.RWMutex
	action    string
	notified  bool
	checkedAt time.Time
	fleet     []probe.Member
}

func (r *Resource) ID() string               { return r.id }
func (r *Resource) Name() string             { return r.name }
func (r *Resource) Slug() string             { return r.slug }
func (r *Resource) Abbreviation() string     { return r.abbreviation }
func (r *Resource) IsGlobal() bool           { return r.global }
func (r *Resource) NotifyEnabled() bool      { return r.notify }
func (r *Resource) Checker() probe.Checker   { return r.checker }
func (r *Resource) Style() map[string]string { return maps.Clone(r.style) }

// GraphEnabled resolves the graph tri-state against the global default.
func (r *Resource) GraphEnabled() bool { return r.graph.Resolve(r.graphDefault) }

// Targets returns the targets in declared order.
func (r *Resource) Targets() []*Target {
	out := make([]*Target, len(r.targets))
	copy(out, r.targets)
	return out
}

func (r *Resource) Target(name string) (*Target, bool) {
	for _, t := range r.targets {
		if t.name == name {
			return t, true
		}
	}
	return nil, false
}

// Action is the action that started the latest check, e.g. "cron" or "cli".
func (r *Resource) Action() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.action
}

func (r *Resource) CheckedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.checkedAt
}

// Notified reports whether a notification was already sent for the
// current unhealthy streak.
func (r *Resource) Notified() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.notified
}

// SetNotified restores a persisted latch.
func (r *Resource) SetNotified(v bool) {
	r.mu.Lock()
	r.notified = v
	r.mu.Unlock()
}

// ResetNotified ends the episode; the next unhealthy check may notify again.
func (r *Resource) ResetNotified() { r.SetNotified(false) }

// IsHealthy is true only when every target's latest result is OK.
func (r *Resource) IsHealthy() bool {
	for _, t := range r.targets {
		res, ok := t.Result()
		if !ok || !res.Healthy() {
			return false
		}
	}
	return true
}

// Status is the worst status across targets; unchecked targets count as UNKNOWN.
func (r *Resource) Status() domain.Status {
	statuses := make([]domain.Status, 0, len(r.targets))
	for _, t := range r.targets {
		statuses = append(statuses, t.Status())
	}
	return domain.Worst(statuses...)
}

// ExitCode maps the current status through codes.
func (r *Resource) ExitCode(codes domain.ExitCodes) int { return codes.Code(r.Status()) }

// CanNotify asks the gate whether a notification may be sent now.
func (r *Resource) CanNotify() bool { return r.gate.Allow(r) }

// Check evaluates every target in declared order, then notifies if the
// gate allows it. Delivery failures are reported, never returned, and
// delivery is not bound by ctx's deadline.
func (r *Resource) Check(ctx context.Context, action string) *Resource {
	r.checkMu.Lock()
	defer r.checkMu.Unlock()

	r.mu.Lock()
	r.action = action
	fleet := r.fleet
	r.mu.Unlock()

	if fleet != nil {
		ctx = probe.WithFleet(ctx, fleet)
	}

	for _, t := range r.targets {
		t.Check(ctx)
		r.logger.Debug("target_checked",
			zap.String("resource", r.slug),
			zap.String("target", t.name),
			zap.String("status", t.Status().String()),
		)
	}

	r.mu.Lock()
	r.checkedAt = time.Now()
	r.mu.Unlock()

	status := r.Status()
	r.logger.Info("resource_checked",
		zap.String("resource", r.slug),
		zap.String("action", action),
		zap.String("status", status.String()),
		zap.Bool("healthy", r.IsHealthy()),
	)

	if r.CanNotify() {
		r.SetNotified(true)
		_ = r.dispatcher.Send(ctx, r.notification())
	}
	return r
}

// CheckGlobal gives a global resource a snapshot of the other resources
// before checking it. Other resources are checked normally.
func (r *Resource) CheckGlobal(ctx context.Context, action string, all []*Resource) *Resource {
	if r.global {
		snap := Snapshot(all, r)
		r.mu.Lock()
		r.fleet = snap
		r.mu.Unlock()
	}
	return r.Check(ctx, action)
}

func (r *Resource) notification() notify.Notification {
	return notify.Notification{
		ResourceID: r.id,
		Resource:   r.name,
		Slug:       r.slug,
		Status:     r.Status(),
		Summary:    r.Summary(),
		Action:     r.Action(),
		CheckedAt:  r.CheckedAt(),
	}
}
