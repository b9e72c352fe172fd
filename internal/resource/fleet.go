package resource

import (
	"github.com/hamed0406/resourcewatch/internal/domain"
	"github.com/hamed0406/resourcewatch/internal/probe"
)

// Snapshot captures the state of every resource except self.
func Snapshot(all []*Resource, self *Resource) []probe.Member {
	out := make([]probe.Member, 0, len(all))
	for _, o := range all {
		if o == nil || o == self {
			continue
		}
		out = append(out, probe.Member{
			Name:    o.name,
			Slug:    o.slug,
			Status:  o.Status(),
			Healthy: o.IsHealthy(),
		})
	}
	return out
}

// FleetStatus is the worst status across resources.
func FleetStatus(resources []*Resource) domain.Status {
	statuses := make([]domain.Status, 0, len(resources))
	for _, r := range resources {
		statuses = append(statuses, r.Status())
	}
	return domain.Worst(statuses...)
}
