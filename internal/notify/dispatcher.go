package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single channel delivery.
const DefaultTimeout = 10 * time.Second

// Dispatcher delivers a notification to each channel in order. A failing
// channel never prevents delivery to the ones after it.
type Dispatcher struct {
	logger   *zap.Logger
	reporter Reporter
	channels []Channel
	timeout  time.Duration
}

func NewDispatcher(logger *zap.Logger, reporter Reporter, channels ...Channel) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = &LogReporter{Logger: logger}
	}
	return &Dispatcher{logger: logger, reporter: reporter, channels: channels, timeout: DefaultTimeout}
}

// WithTimeout sets the per-channel delivery timeout. Zero or less keeps the default.
func (d *Dispatcher) WithTimeout(timeout time.Duration) *Dispatcher {
	if timeout > 0 {
		d.timeout = timeout
	}
	return d
}

// Channels returns the channel names in delivery order.
func (d *Dispatcher) Channels() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		if ch != nil {
			out = append(out, channelName(ch))
		}
	}
	return out
}

// Send attempts every channel once. Each failure is handed to the reporter;
// the combined failures are also returned for callers that want them.
//
// Deliveries do not inherit the caller's cancellation or deadline: a check
// that used up its own time budget must still be able to report. Each
// channel gets its own timeout instead.
func (d *Dispatcher) Send(ctx context.Context, n Notification) error {
	if d == nil {
		return nil
	}
	base := context.WithoutCancel(ctx)

	var errs error
	for _, ch := range d.channels {
		if ch == nil {
			continue
		}
		name, err := d.deliver(base, ch, n)
		if err != nil {
			derr := &DeliveryError{Channel: name, Resource: n.Slug, Err: err}
			d.reporter.Report(base, derr)
			errs = multierr.Append(errs, derr)
			continue
		}
		d.logger.Info("notification_sent",
			zap.String("channel", name),
			zap.String("resource", n.Slug),
			zap.String("status", n.Status.String()),
			zap.String("action", n.Action),
		)
	}
	return errs
}

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, n Notification) (name string, err error) {
	timeout := d.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	name = channelName(ch)
	return name, ch.Deliver(ctx, n)
}

// channelName falls back to the channel's type when Name panics.
func channelName(ch Channel) (name string) {
	defer func() {
		if recover() != nil {
			name = fmt.Sprintf("%T", ch)
		}
	}()
	return ch.Name()
}
