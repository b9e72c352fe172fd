package app

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/hamed0406/resourcewatch/internal/config"
	"github.com/hamed0406/resourcewatch/internal/domain"
	"github.com/hamed0406/resourcewatch/internal/resource"
)

func sampleConfig() *config.Config {
	return &config.Config{
		Schedule: config.ScheduleConfig{Spec: "@every 1m", Concurrency: 2},
		Store:    config.StoreConfig{Driver: "memory"},
		Notifications: config.Notifications{
			Enabled:  true,
			Channels: []config.ChannelConfig{{Name: "ops-log", Type: "log"}},
		},
		Resources: []config.ResourceSpec{
			{Name: "Web", Abbreviation: "W", Checker: config.CheckerSpec{Type: "static"}},
			{Name: "Queue", Abbreviation: "Q", Checker: config.CheckerSpec{Type: "static", Options: map[string]any{
				"status": "warning", "message": "backlog", "retries": 1,
			}}},
		},
	}
}

func TestBuild(t *testing.T) {
	a, err := Build(context.Background(), sampleConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer a.Close()

	if len(a.Resources) != 2 || a.Runner == nil || a.Latches == nil {
		t.Fatalf("incomplete app: %+v", a)
	}
	if got := a.Dispatcher.Channels(); len(got) != 1 || got[0] != "ops-log" {
		t.Fatalf("channels = %v", got)
	}
	if got := a.Runner.RunOnce(context.Background(), "cli"); got != domain.StatusWarning {
		t.Fatalf("status = %s", got)
	}
	if a.Codes.Code(domain.StatusWarning) != 1 {
		t.Fatalf("default exit codes expected")
	}
	q, ok := a.Find("queue")
	if !ok || !q.Notified() {
		t.Fatalf("queue should have notified once")
	}
	if _, ok := a.Find("nope"); ok {
		t.Fatal("unexpected resource")
	}
}

func TestBuild_ResourceErrors(t *testing.T) {
	cfg := sampleConfig()
	cfg.Resources = append(cfg.Resources, config.ResourceSpec{Name: "Broken", Abbreviation: "B", Checker: config.CheckerSpec{Type: "telepathy"}})

	_, err := Build(context.Background(), cfg, nil)
	if !errors.Is(err, resource.ErrConfiguration) {
		t.Fatalf("want configuration error, got %v", err)
	}
}

func TestBuild_NoResources(t *testing.T) {
	cfg := sampleConfig()
	cfg.Resources = nil
	if _, err := Build(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuild_UnknownDriver(t *testing.T) {
	cfg := sampleConfig()
	cfg.Store.Driver = "floppy"
	if _, err := Build(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error")
	}
}
