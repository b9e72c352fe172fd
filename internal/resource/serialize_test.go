package resource

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hamed0406/resourcewatch/internal/config"
	"github.com/hamed0406/resourcewatch/internal/domain"
)

func checkedDB(t *testing.T) *Resource {
	t.Helper()
	a := &script{name: "A", res: domain.Critical("disk full")}
	b := &script{name: "B", res: domain.OK()}
	f := NewFactory(registryWith(a, b), config.Defaults{}, config.Notifications{}, nil, nil)
	r := build(t, f, config.ResourceSpec{Name: "db", Abbreviation: "DB", Checker: config.CheckerSpec{Type: "A"}, Targets: targets("A", "B")})
	r.Check(context.Background(), "cli")
	return r
}

func TestSerialize_StatusMatches(t *testing.T) {
	r := checkedDB(t)
	m := r.Serialize(0)

	if m["status"] != r.Status().String() {
		t.Fatalf("status = %v, want %s", m["status"], r.Status())
	}
	ts, ok := m["targets"].([]any)
	if !ok || len(ts) != 2 {
		t.Fatalf("targets = %#v", m["targets"])
	}
	first := ts[0].(map[string]any)
	if first["name"] != "A" || first["resource_id"] != r.ID() {
		t.Fatalf("first target = %#v", first)
	}
	res := first["result"].(map[string]any)
	if res["status"] != "critical" || res["message"] != "disk full" || res["healthy"] != false {
		t.Fatalf("result = %#v", res)
	}
}

func TestSerialize_DepthLimit(t *testing.T) {
	r := checkedDB(t)

	m := r.Serialize(2)
	first := m["targets"].([]any)[0].(map[string]any)
	if first["result"] != truncated {
		t.Fatalf("result below depth 2 should be truncated, got %#v", first["result"])
	}

	m = r.Serialize(1)
	if m["targets"].([]any)[0] != truncated {
		t.Fatalf("targets below depth 1 should be truncated")
	}
	if m["status"] != "critical" {
		t.Fatalf("scalars are never truncated")
	}
}

func TestResource_MarshalJSON(t *testing.T) {
	r := checkedDB(t)
	raw, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var back struct {
		Slug    string `json:"slug"`
		Status  string `json:"status"`
		Targets []struct {
			Name   string `json:"name"`
			Result struct {
				Status string `json:"status"`
			} `json:"result"`
		} `json:"targets"`
	}
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back.Slug != "db" || back.Status != "critical" || len(back.Targets) != 2 || back.Targets[1].Result.Status != "ok" {
		t.Fatalf("decoded = %+v", back)
	}
}
