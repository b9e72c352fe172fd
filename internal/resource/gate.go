package resource

import "github.com/hamed0406/resourcewatch/internal/config"

// Gate decides whether a resource may notify now. It only reads the latch;
// resetting it when the resource recovers is up to the caller.
type Gate struct {
	Notifications config.Notifications
}

func (g Gate) Allow(r *Resource) bool {
	return !r.Notified() &&
		g.Notifications.Enabled &&
		r.notify &&
		g.Notifications.ActionEnabled(r.Action()) &&
		!r.IsHealthy()
}
