package app

import (
	"context"

	"darkwave/internal/connectivity"
)

// Health is the body of /healthz.
type Health struct {
	Status string              `json:"status"`
	Remote connectivity.Status `json:"remote"`
}

// Health reports liveness. A down remote store degrades the service but
// does not fail it, since the cache keeps answering.
func (a *App) Health(ctx context.Context) Health {
	a.monitor.Available(ctx)
	st := a.monitor.Status()
	status := "ok"
	if !st.Up {
		status = "degraded"
	}
	return Health{Status: status, Remote: st}
}
