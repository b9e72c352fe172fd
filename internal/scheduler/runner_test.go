package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/resourcewatch/internal/config"
	"github.com/hamed0406/resourcewatch/internal/domain"
	"github.com/hamed0406/resourcewatch/internal/notify"
	"github.com/hamed0406/resourcewatch/internal/probe"
	"github.com/hamed0406/resourcewatch/internal/repo"
	"github.com/hamed0406/resourcewatch/internal/repo/memory"
	"github.com/hamed0406/resourcewatch/internal/resource"
)

// ---- shared helpers ----

// switchable reports whatever status it currently holds.
type switchable struct {
	name string
	mu   sync.Mutex
	res  domain.Result
	n    atomic.Int32
}

func (s *switchable) Name() string { return s.name }

func (s *switchable) Check(ctx context.Context) (domain.Result, error) {
	s.n.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.res, nil
}

func (s *switchable) set(r domain.Result) {
	s.mu.Lock()
	s.res = r
	s.mu.Unlock()
}

type countChannel struct {
	mu sync.Mutex
	n  int
}

func (c *countChannel) Name() string { return "count" }

func (c *countChannel) Deliver(context.Context, notify.Notification) error {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return nil
}

func (c *countChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// ctxErrChannel fails with the delivery context's error, if any.
type ctxErrChannel struct{ record func(error) }

func (c *ctxErrChannel) Name() string { return "ctx" }

func (c *ctxErrChannel) Deliver(ctx context.Context, _ notify.Notification) error {
	err := ctx.Err()
	c.record(err)
	return err
}

type failingLatches struct{}

func (failingLatches) Get(context.Context, string) (*repo.LatchRecord, error) {
	return nil, errors.New("db down")
}

func (failingLatches) Set(context.Context, string, bool, time.Time) error {
	return errors.New("db down")
}

func fleet(t *testing.T, ch notify.Channel, checkers ...*switchable) []*resource.Resource {
	t.Helper()
	reg := probe.DefaultRegistry()
	var specs []config.ResourceSpec
	for _, c := range checkers {
		c := c
		reg.Register(c.name, func(probe.Options) (probe.Checker, error) { return c, nil })
		specs = append(specs, config.ResourceSpec{
			Name: c.name, Abbreviation: strings.ToUpper(c.name), Checker: config.CheckerSpec{Type: c.name},
		})
	}
	specs = append(specs, config.ResourceSpec{
		Name: "fleet", Abbreviation: "F", Global: true,
		Checker: config.CheckerSpec{Type: "min_healthy", Options: map[string]any{"min": len(checkers)}},
	})

	var d *notify.Dispatcher
	if ch != nil {
		d = notify.NewDispatcher(zap.NewNop(), nil, ch)
	}
	f := resource.NewFactory(reg, config.Defaults{}, config.Notifications{Enabled: true}, d, zap.NewNop())
	rs, err := f.NewAll(specs)
	if err != nil {
		t.Fatalf("NewAll: %v", err)
	}
	return rs
}

func bySlug(rs []*resource.Resource, slug string) *resource.Resource {
	for _, r := range rs {
		if r.Slug() == slug {
			return r
		}
	}
	return nil
}

// ---- tests ----

func TestRunner_RunOnce_GlobalSeesSettledFleet(t *testing.T) {
	a := &switchable{name: "api", res: domain.OK()}
	b := &switchable{name: "db", res: domain.OK()}
	rs := fleet(t, nil, a, b)

	rn := NewRunner(zap.NewNop(), rs, memory.New(), "@every 1m", time.Second, 4)
	if got := rn.RunOnce(context.Background(), "cli"); got != domain.StatusOK {
		t.Fatalf("fleet status = %s", got)
	}
	if !bySlug(rs, "fleet").IsHealthy() {
		t.Fatalf("global should see both healthy: %s", bySlug(rs, "fleet").Summary())
	}

	b.set(domain.Critical("down"))
	if got := rn.RunOnce(context.Background(), "cli"); got != domain.StatusCritical {
		t.Fatalf("fleet status = %s", got)
	}
	if bySlug(rs, "fleet").Status() != domain.StatusCritical {
		t.Fatalf("global should react in the same pass")
	}
	if bySlug(rs, "db").Action() != "cli" {
		t.Fatalf("action not recorded")
	}
}

func TestRunner_LatchLifecycle(t *testing.T) {
	a := &switchable{name: "api", res: domain.Critical("down")}
	ch := &countChannel{}
	rs := fleet(t, ch, a)
	store := memory.New()
	rn := NewRunner(zap.NewNop(), rs, store, "@every 1m", time.Second, 1)
	ctx := context.Background()

	rn.RunOnce(ctx, ActionCron)
	rn.RunOnce(ctx, ActionCron)
	// api and the global fleet resource each notify once
	if ch.count() != 2 {
		t.Fatalf("want 2 notifications, got %d", ch.count())
	}
	rec, _ := store.Get(ctx, "api")
	if rec == nil || !rec.Notified || rec.LastSentAt == nil {
		t.Fatalf("latch not persisted: %+v", rec)
	}

	a.set(domain.OK())
	rn.RunOnce(ctx, ActionCron)
	rec, _ = store.Get(ctx, "api")
	if rec.Notified || bySlug(rs, "api").Notified() {
		t.Fatalf("recovery must end the episode: %+v", rec)
	}

	a.set(domain.Critical("down again"))
	rn.RunOnce(ctx, ActionCron)
	if ch.count() != 4 {
		t.Fatalf("new episode should notify again, got %d", ch.count())
	}
}

func TestRunner_RestoresLatches(t *testing.T) {
	a := &switchable{name: "api", res: domain.Critical("down")}
	ch := &countChannel{}
	rs := fleet(t, ch, a)
	store := memory.New()
	_ = store.Set(context.Background(), "api", true, time.Now())
	_ = store.Set(context.Background(), "fleet", true, time.Now())

	NewRunner(zap.NewNop(), rs, store, "@every 1m", time.Second, 1).RunOnce(context.Background(), ActionCron)
	if ch.count() != 0 {
		t.Fatalf("restored latch must suppress notification, got %d", ch.count())
	}
}

func TestRunner_CheckSingleResourceUsesLatches(t *testing.T) {
	a := &switchable{name: "api", res: domain.Critical("down")}
	b := &switchable{name: "db", res: domain.Critical("down")}
	ch := &countChannel{}
	rs := fleet(t, ch, a, b)
	store := memory.New()
	ctx := context.Background()
	_ = store.Set(ctx, "api", true, time.Now())

	rn := NewRunner(zap.NewNop(), rs, store, "@every 1m", time.Second, 1)
	if got := rn.Check(ctx, bySlug(rs, "api"), "cli"); got != domain.StatusCritical {
		t.Fatalf("status = %s", got)
	}
	if ch.count() != 0 {
		t.Fatalf("stored latch must suppress notification, got %d", ch.count())
	}
	if b.n.Load() != 0 {
		t.Fatal("only the requested resource should be checked")
	}

	rn.Check(ctx, bySlug(rs, "db"), "cli")
	if ch.count() != 1 {
		t.Fatalf("want 1 notification, got %d", ch.count())
	}
	rec, _ := store.Get(ctx, "db")
	if rec == nil || !rec.Notified {
		t.Fatalf("latch not persisted: %+v", rec)
	}

	a.set(domain.OK())
	rn.Check(ctx, bySlug(rs, "api"), "cli")
	if rec, _ := store.Get(ctx, "api"); rec.Notified {
		t.Fatalf("recovery must clear the stored latch: %+v", rec)
	}
}

func TestRunner_CheckGlobalRunsFullPass(t *testing.T) {
	a := &switchable{name: "api", res: domain.OK()}
	rs := fleet(t, nil, a)
	rn := NewRunner(zap.NewNop(), rs, memory.New(), "@every 1m", time.Second, 1)

	if got := rn.Check(context.Background(), bySlug(rs, "fleet"), "cli"); got != domain.StatusOK {
		t.Fatalf("status = %s", got)
	}
	if a.n.Load() != 1 {
		t.Fatalf("siblings should be checked once, got %d", a.n.Load())
	}
}

func TestRunner_StoreErrorsAreLogged(t *testing.T) {
	a := &switchable{name: "api", res: domain.Critical("down")}
	rs := fleet(t, nil, a)
	rn := NewRunner(nil, rs, failingLatches{}, "@every 1m", 0, 0)

	if got := rn.RunOnce(context.Background(), ActionCron); got != domain.StatusCritical {
		t.Fatalf("status = %s", got)
	}
	if rn.Concurrency != 1 || rn.Timeout != 30*time.Second {
		t.Fatalf("defaults not applied: %+v", rn)
	}
}

func TestRunner_TimeoutReachesChecker(t *testing.T) {
	reg := probe.DefaultRegistry()
	reg.Register("slow", func(probe.Options) (probe.Checker, error) {
		return probe.NewFunc("slow", func(ctx context.Context) (domain.Result, error) {
			<-ctx.Done()
			return domain.Result{}, ctx.Err()
		}), nil
	})
	f := resource.NewFactory(reg, config.Defaults{}, config.Notifications{}, nil, nil)
	rs, err := f.NewAll([]config.ResourceSpec{{Name: "slow", Abbreviation: "S", Checker: config.CheckerSpec{Type: "slow"}}})
	if err != nil {
		t.Fatal(err)
	}

	rn := NewRunner(zap.NewNop(), rs, nil, "@every 1m", 20*time.Millisecond, 1)
	if got := rn.RunOnce(context.Background(), "cli"); got != domain.StatusUnknown {
		t.Fatalf("timed out check should be UNKNOWN, got %s", got)
	}
}

func TestRunner_HungCheckStillNotifies(t *testing.T) {
	reg := probe.DefaultRegistry()
	reg.Register("hung", func(probe.Options) (probe.Checker, error) {
		return probe.NewFunc("hung", func(ctx context.Context) (domain.Result, error) {
			<-ctx.Done()
			return domain.Critical("no answer"), nil
		}), nil
	})
	var (
		mu   sync.Mutex
		errs []error
	)
	ch := &ctxErrChannel{record: func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}}
	d := notify.NewDispatcher(zap.NewNop(), nil, ch)
	f := resource.NewFactory(reg, config.Defaults{}, config.Notifications{Enabled: true}, d, nil)
	rs, err := f.NewAll([]config.ResourceSpec{{Name: "hung", Abbreviation: "H", Checker: config.CheckerSpec{Type: "hung"}}})
	if err != nil {
		t.Fatal(err)
	}

	rn := NewRunner(zap.NewNop(), rs, memory.New(), "@every 1m", 50*time.Millisecond, 1)
	rn.RunOnce(context.Background(), ActionCron)
	rn.RunOnce(context.Background(), ActionCron)

	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 1 {
		t.Fatalf("want exactly one delivery, got %d", len(errs))
	}
	if errs[0] != nil {
		t.Fatalf("delivery saw the check deadline: %v", errs[0])
	}
	if !rs[0].Notified() || rs[0].Status() != domain.StatusCritical {
		t.Fatalf("status=%s notified=%v", rs[0].Status(), rs[0].Notified())
	}
}

func TestRunner_Start(t *testing.T) {
	a := &switchable{name: "api", res: domain.OK()}
	rs := fleet(t, nil, a)
	rn := NewRunner(zap.NewNop(), rs, memory.New(), "@every 1h", time.Second, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rn.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for a.n.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if a.n.Load() == 0 {
		t.Fatalf("Start should run an immediate pass")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestRunner_StartRejectsBadSpec(t *testing.T) {
	rn := NewRunner(zap.NewNop(), nil, nil, "every now and then", time.Second, 1)
	if err := rn.Start(context.Background()); err == nil {
		t.Fatal("expected schedule error")
	}
}
