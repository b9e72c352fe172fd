package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/resourcewatch/internal/domain"
	"github.com/hamed0406/resourcewatch/internal/repo"
	"github.com/hamed0406/resourcewatch/internal/resource"
)

// ActionCron is the action recorded for scheduled passes.
const ActionCron = "cron"

// Runner evaluates the whole fleet: regular resources in parallel, then
// global ones against a snapshot of the rest. It owns the notification
// latches: it restores them from the store, ends an episode when a resource
// recovers and persists every change.
type Runner struct {
	Logger      *zap.Logger
	Resources   []*resource.Resource
	Latches     repo.LatchStore
	Spec        string
	Timeout     time.Duration
	Concurrency int

	mu     sync.Mutex // one pass at a time
	loaded bool
}

func NewRunner(
	logger *zap.Logger,
	resources []*resource.Resource,
	latches repo.LatchStore,
	spec string,
	timeout time.Duration,
	concurrency int,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		Logger:      logger,
		Resources:   resources,
		Latches:     latches,
		Spec:        spec,
		Timeout:     timeout,
		Concurrency: concurrency,
	}
}

// Start runs a pass immediately and then on every tick of Spec until ctx
// is cancelled. Passes never overlap.
func (r *Runner) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(r.Spec, func() { r.RunOnce(ctx, ActionCron) }); err != nil {
		return fmt.Errorf("schedule %q: %w", r.Spec, err)
	}
	r.Logger.Info("scheduler_started", zap.String("spec", r.Spec), zap.Int("resources", len(r.Resources)))

	c.Start()
	r.RunOnce(ctx, ActionCron)

	<-ctx.Done()
	<-c.Stop().Done()
	r.Logger.Info("scheduler_stopped")
	return nil
}

// RunOnce checks every resource once and returns the fleet status.
func (r *Runner) RunOnce(ctx context.Context, action string) domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	r.ensureLoaded(ctx)

	var regular, global []*resource.Resource
	for _, res := range r.Resources {
		if res.IsGlobal() {
			global = append(global, res)
		} else {
			regular = append(regular, res)
		}
	}

	var g errgroup.Group
	g.SetLimit(r.Concurrency)
	for _, res := range regular {
		res := res
		g.Go(func() error {
			r.checkOne(ctx, res, func(cctx context.Context) { res.Check(cctx, action) })
			return nil
		})
	}
	_ = g.Wait()

	// globals run one by one so each sees a settled fleet
	for _, res := range global {
		r.checkOne(ctx, res, func(cctx context.Context) { res.CheckGlobal(cctx, action, r.Resources) })
	}

	status := resource.FleetStatus(r.Resources)
	r.Logger.Info("fleet_checked",
		zap.String("action", action),
		zap.String("status", status.String()),
		zap.Int("resources", len(r.Resources)),
		zap.Duration("took", time.Since(start)),
	)
	return status
}

// Check evaluates a single resource with the same latch handling as a full
// pass. A global resource needs its siblings settled, so it triggers one.
func (r *Runner) Check(ctx context.Context, res *resource.Resource, action string) domain.Status {
	if res.IsGlobal() {
		r.RunOnce(ctx, action)
		return res.Status()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureLoaded(ctx)
	r.checkOne(ctx, res, func(cctx context.Context) { res.Check(cctx, action) })
	return res.Status()
}

func (r *Runner) ensureLoaded(ctx context.Context) {
	if !r.loaded {
		r.restoreLatches(ctx)
		r.loaded = true
	}
}

func (r *Runner) checkOne(ctx context.Context, res *resource.Resource, check func(context.Context)) {
	cctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	before := res.Notified()
	check(cctx)

	switch {
	case res.Notified() && res.IsHealthy():
		// episode over
		res.ResetNotified()
		r.persist(ctx, res, false, time.Time{})
	case !before && res.Notified():
		r.persist(ctx, res, true, time.Now())
	}
}

func (r *Runner) restoreLatches(ctx context.Context) {
	if r.Latches == nil {
		return
	}
	for _, res := range r.Resources {
		rec, err := r.Latches.Get(ctx, res.Slug())
		if err != nil {
			r.Logger.Warn("latch_load_error", zap.String("resource", res.Slug()), zap.Error(err))
			continue
		}
		if rec != nil {
			res.SetNotified(rec.Notified)
		}
	}
}

func (r *Runner) persist(ctx context.Context, res *resource.Resource, notified bool, sentAt time.Time) {
	if r.Latches == nil {
		return
	}
	if err := r.Latches.Set(ctx, res.Slug(), notified, sentAt); err != nil {
		r.Logger.Warn("latch_save_error",
			zap.String("resource", res.Slug()),
			zap.Bool("notified", notified),
			zap.Error(err),
		)
	}
}
