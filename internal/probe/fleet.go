package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

var errNoFleet = errors.New("no fleet snapshot available; mark the resource as global")

// MinHealthy is a global checker: it is CRITICAL when fewer than Min of the
// other resources are healthy, WARNING when fewer than Warn are.
type MinHealthy struct {
	Min  int
	Warn int
}

type minHealthyOptions struct {
	Min  int `mapstructure:"min"`
	Warn int `mapstructure:"warn"`
}

func NewMinHealthy(opts Options) (Checker, error) {
	var o minHealthyOptions
	if err := opts.Decode(&o); err != nil {
		return nil, err
	}
	if o.Min < 1 {
		return nil, fmt.Errorf("min must be >= 1, got %d", o.Min)
	}
	if o.Warn != 0 && o.Warn < o.Min {
		return nil, fmt.Errorf("warn (%d) must not be below min (%d)", o.Warn, o.Min)
	}
	return &MinHealthy{Min: o.Min, Warn: o.Warn}, nil
}

func (m *MinHealthy) Name() string { return fmt.Sprintf("at least %d healthy resources", m.Min) }

func (m *MinHealthy) Check(ctx context.Context) (domain.Result, error) {
	members, ok := FleetFromContext(ctx)
	if !ok {
		return domain.Result{}, errNoFleet
	}
	healthy := 0
	for _, mb := range members {
		if mb.Healthy {
			healthy++
		}
	}
	switch {
	case healthy < m.Min:
		return domain.Critical(fmt.Sprintf("only %d of %d resources are healthy (need %d)", healthy, len(members), m.Min)), nil
	case m.Warn > 0 && healthy < m.Warn:
		return domain.Warning(fmt.Sprintf("%d of %d resources are healthy (want %d)", healthy, len(members), m.Warn)), nil
	}
	return domain.OK(), nil
}
