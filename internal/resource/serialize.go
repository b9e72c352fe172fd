package resource

import (
	"encoding/json"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

// DefaultDepth bounds Serialize when no depth is given.
const DefaultDepth = 6

// truncated replaces nodes below the depth limit.
const truncated = "..."

type node interface {
	fields() map[string]any
}

// Serialize returns the resource as nested maps for JSON/YAML output.
// Nodes deeper than depth (the resource itself is level 1) become "...".
func (r *Resource) Serialize(depth int) map[string]any {
	if depth <= 0 {
		depth = DefaultDepth
	}
	out, _ := expand(r, 1, depth).(map[string]any)
	return out
}

func (r *Resource) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Serialize(DefaultDepth))
}

func expand(v any, depth, limit int) any {
	switch x := v.(type) {
	case node:
		if depth > limit {
			return truncated
		}
		f := x.fields()
		out := make(map[string]any, len(f))
		for k, fv := range f {
			out[k] = expand(fv, depth+1, limit)
		}
		return out
	case []node:
		list := make([]any, len(x))
		for i, item := range x {
			list[i] = expand(item, depth, limit)
		}
		return list
	default:
		return v
	}
}

func (r *Resource) fields() map[string]any {
	targets := make([]node, len(r.targets))
	for i, t := range r.targets {
		targets[i] = t
	}
	var checkedAt any
	if at := r.CheckedAt(); !at.IsZero() {
		checkedAt = at
	}
	return map[string]any{
		"id":           r.id,
		"name":         r.name,
		"slug":         r.slug,
		"abbreviation": r.abbreviation,
		"global":       r.global,
		"notify":       r.notify,
		"notified":     r.Notified(),
		"action":       r.Action(),
		"status":       r.Status().String(),
		"healthy":      r.IsHealthy(),
		"graph":        r.GraphEnabled(),
		"style":        r.Style(),
		"checker":      r.checker.Name(),
		"checked_at":   checkedAt,
		"summary":      r.Summary(),
		"targets":      targets,
	}
}

func (t *Target) fields() map[string]any {
	var result any
	if res, ok := t.Result(); ok {
		result = resultNode(res)
	}
	return map[string]any{
		"name":        t.name,
		"position":    t.position,
		"checker":     t.checker.Name(),
		"resource_id": t.resourceID,
		"result":      result,
	}
}

type resultNode domain.Result

func (n resultNode) fields() map[string]any {
	res := domain.Result(n)
	return map[string]any{
		"status":     res.Status.String(),
		"healthy":    res.Healthy(),
		"message":    res.Message,
		"checked_at": res.CheckedAt,
	}
}
