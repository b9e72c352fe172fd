package resource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hamed0406/resourcewatch/internal/domain"
	"github.com/hamed0406/resourcewatch/internal/probe"
)

// DefaultTargetName names the implicit target of a resource that declares none.
const DefaultTargetName = "default"

// Target is one check bound to a checker. It keeps only the latest result.
type Target struct {
	name       string
	position   int
	checker    probe.Checker
	resourceID string

	mu     sync.RWMutex
	result *domain.Result
}

func newTarget(name string, position int, checker probe.Checker, resourceID string) *Target {
	return &Target{name: name, position: position, checker: checker, resourceID: resourceID}
}

func (t *Target) Name() string           { return t.name }
func (t *Target) Position() int          { return t.position }
func (t *Target) Checker() probe.Checker { return t.checker }

// ResourceID identifies the owning resource; look it up, don't hold it.
func (t *Target) ResourceID() string { return t.resourceID }

// Result returns the latest result; ok is false before the first check.
func (t *Target) Result() (res domain.Result, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.result == nil {
		return domain.Result{}, false
	}
	return *t.result, true
}

// Status is the latest status, UNKNOWN before the first check.
func (t *Target) Status() domain.Status {
	if res, ok := t.Result(); ok {
		return res.Status
	}
	return domain.StatusUnknown
}

// Check runs the checker and replaces the stored result. Errors and panics
// from the checker become an UNKNOWN result; nothing escapes.
func (t *Target) Check(ctx context.Context) *Target {
	res, err := t.run(ctx)
	if err != nil {
		res = domain.Unknown(err.Error())
	}
	if !res.Status.Valid() {
		res.Status = domain.StatusUnknown
	}
	if res.CheckedAt.IsZero() {
		res.CheckedAt = time.Now()
	}

	t.mu.Lock()
	t.result = &res
	t.mu.Unlock()
	return t
}

func (t *Target) run(ctx context.Context) (res domain.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("checker %s panicked: %v", t.checker.Name(), r)
		}
	}()
	return t.checker.Check(ctx)
}
