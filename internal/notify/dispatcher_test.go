package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

type recChannel struct {
	name  string
	err   error
	panic bool
	got   []Notification
}

func (c *recChannel) Name() string { return c.name }

func (c *recChannel) Deliver(_ context.Context, n Notification) error {
	if c.panic {
		panic("sink exploded")
	}
	c.got = append(c.got, n)
	return c.err
}

type recReporter struct{ errs []error }

func (r *recReporter) Report(_ context.Context, err error) { r.errs = append(r.errs, err) }

func sample() Notification {
	return Notification{Resource: "DB", Slug: "db", Status: domain.StatusCritical, Summary: "CRITICAL: DB"}
}

func TestDispatcher_FailingChannelDoesNotBlockOthers(t *testing.T) {
	a := &recChannel{name: "a"}
	b := &recChannel{name: "b", err: errors.New("503")}
	c := &recChannel{name: "c"}
	rep := &recReporter{}

	err := NewDispatcher(zap.NewNop(), rep, a, b, c).Send(context.Background(), sample())

	if len(a.got) != 1 || len(c.got) != 1 {
		t.Fatalf("healthy channels must receive: a=%d c=%d", len(a.got), len(c.got))
	}
	if len(rep.errs) != 1 {
		t.Fatalf("want 1 reported failure, got %d", len(rep.errs))
	}
	var derr *DeliveryError
	if !errors.As(rep.errs[0], &derr) || derr.Channel != "b" || derr.Resource != "db" {
		t.Fatalf("unexpected report: %v", rep.errs[0])
	}
	if len(multierr.Errors(err)) != 1 {
		t.Fatalf("want one combined error, got %v", err)
	}
}

func TestDispatcher_PanicIsIsolated(t *testing.T) {
	a := &recChannel{name: "a", panic: true}
	b := &recChannel{name: "b"}
	rep := &recReporter{}

	err := NewDispatcher(nil, rep, a, nil, b).Send(context.Background(), sample())
	if err == nil || len(rep.errs) != 1 {
		t.Fatalf("panic should be reported: err=%v reports=%d", err, len(rep.errs))
	}
	if len(b.got) != 1 {
		t.Fatal("channel after a panicking one must still receive")
	}
}

func TestDispatcher_OrderAndNames(t *testing.T) {
	var order []string
	mk := func(name string) Channel {
		return &funcChannel{name: name, fn: func() { order = append(order, name) }}
	}
	d := NewDispatcher(nil, nil, mk("x"), mk("y"), mk("z"))
	if err := d.Send(context.Background(), sample()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := d.Channels(); len(got) != 3 || got[0] != "x" || got[2] != "z" {
		t.Fatalf("channels=%v", got)
	}
	if len(order) != 3 || order[0] != "x" || order[1] != "y" || order[2] != "z" {
		t.Fatalf("order=%v", order)
	}
}

func TestDispatcher_IgnoresCallerDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	var sawDeadline bool
	ch := &ctxChannel{name: "ops", fn: func(ctx context.Context) error {
		_, sawDeadline = ctx.Deadline()
		return ctx.Err()
	}}
	if err := NewDispatcher(nil, nil, ch).Send(ctx, sample()); err != nil {
		t.Fatalf("expired caller context leaked into delivery: %v", err)
	}
	if !sawDeadline {
		t.Fatal("delivery should carry its own timeout")
	}
}

func TestDispatcher_TimeoutPerChannel(t *testing.T) {
	slow := &ctxChannel{name: "slow", fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	fast := &recChannel{name: "fast"}
	rep := &recReporter{}

	d := NewDispatcher(nil, rep, slow, fast).WithTimeout(20 * time.Millisecond)
	_ = d.Send(context.Background(), sample())

	if len(rep.errs) != 1 || !errors.Is(rep.errs[0], context.DeadlineExceeded) {
		t.Fatalf("want one deadline failure, got %v", rep.errs)
	}
	if len(fast.got) != 1 {
		t.Fatal("channel after a timed out one must still receive")
	}
}

func TestDispatcher_NamePanicIsIsolated(t *testing.T) {
	bad := &namePanicChannel{}
	b := &recChannel{name: "b"}
	rep := &recReporter{}

	d := NewDispatcher(nil, rep, bad, b)
	if got := d.Channels(); len(got) != 2 || got[0] != "*notify.namePanicChannel" || got[1] != "b" {
		t.Fatalf("channels=%v", got)
	}
	if err := d.Send(context.Background(), sample()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if bad.delivered != 1 || len(b.got) != 1 {
		t.Fatalf("both channels must receive: bad=%d b=%d", bad.delivered, len(b.got))
	}
}

func TestDispatcher_Nil(t *testing.T) {
	var d *Dispatcher
	if err := d.Send(context.Background(), sample()); err != nil {
		t.Fatalf("nil dispatcher should be a no-op: %v", err)
	}
}

func TestLogReporter_WritesChannelField(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	d := NewDispatcher(zap.New(core), nil, &recChannel{name: "ops", err: errors.New("down")})
	_ = d.Send(context.Background(), sample())

	entries := logs.FilterMessage("channel_delivery_failed").All()
	if len(entries) != 1 {
		t.Fatalf("want 1 log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["channel"] != "ops" {
		t.Fatalf("fields=%v", entries[0].ContextMap())
	}
}

func TestLogChannel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	if err := NewLog("audit", zap.New(core)).Deliver(context.Background(), sample()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if logs.FilterMessage("resource_unhealthy").Len() != 1 {
		t.Fatal("expected resource_unhealthy entry")
	}
}

type funcChannel struct {
	name string
	fn   func()
}

func (f *funcChannel) Name() string { return f.name }

func (f *funcChannel) Deliver(context.Context, Notification) error {
	f.fn()
	return nil
}

type ctxChannel struct {
	name string
	fn   func(context.Context) error
}

func (c *ctxChannel) Name() string { return c.name }

func (c *ctxChannel) Deliver(ctx context.Context, _ Notification) error { return c.fn(ctx) }

type namePanicChannel struct{ delivered int }

func (*namePanicChannel) Name() string { panic("no name") }

func (c *namePanicChannel) Deliver(context.Context, Notification) error {
	c.delivered++
	return nil
}
