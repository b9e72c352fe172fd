package probe

import (
	"context"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

// Checker is implemented by every probe (HTTP, DNS, database, ...).
//
// Name is the stable display name used in summaries. Check returns the
// observed result; a returned error means the probe itself could not run
// and is reported as UNKNOWN by the caller.
type Checker interface {
	Name() string
	Check(ctx context.Context) (domain.Result, error)
}

// Func adapts a plain function to a Checker.
type Func struct {
	name string
	fn   func(context.Context) (domain.Result, error)
}

func NewFunc(name string, fn func(context.Context) (domain.Result, error)) *Func {
	return &Func{name: name, fn: fn}
}

func (f *Func) Name() string { return f.name }

func (f *Func) Check(ctx context.Context) (domain.Result, error) { return f.fn(ctx) }

// Member is a read-only view of another resource, taken right before a
// global resource is checked.
type Member struct {
	Name    string
	Slug    string
	Status  domain.Status
	Healthy bool
}

type fleetKey struct{}

// WithFleet attaches a snapshot of sibling resources for global checkers.
func WithFleet(ctx context.Context, members []Member) context.Context {
	return context.WithValue(ctx, fleetKey{}, members)
}

// FleetFromContext returns the snapshot set by WithFleet.
func FleetFromContext(ctx context.Context) ([]Member, bool) {
	m, ok := ctx.Value(fleetKey{}).([]Member)
	return m, ok
}
