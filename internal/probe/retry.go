package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

// Retry re-runs Inner until it reports OK or Attempts are used up.
type Retry struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *Retry) Name() string { return r.Inner.Name() }

func (r *Retry) Check(ctx context.Context) (domain.Result, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var (
		last domain.Result
		err  error
	)
	for i := 0; i < attempts; i++ {
		last, err = r.Inner.Check(ctx)
		if err == nil && last.Healthy() {
			return last, nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return last, err
			case <-time.After(r.Backoff):
			}
		}
	}
	if err != nil {
		return last, fmt.Errorf("%w (after %d attempts)", err, attempts)
	}
	if attempts > 1 && last.Message != "" {
		last.Message += fmt.Sprintf(" (after %d attempts)", attempts)
	}
	return last, nil
}
