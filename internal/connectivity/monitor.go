package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Probe reports whether the remote side answers.
type Probe func(ctx context.Context) error

// Options tunes a Monitor.
type Options struct {
	// Interval is how long a result stays fresh. Defaults to 30s.
	Interval time.Duration
	// Timeout bounds a single probe. Defaults to 3s.
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

// Status is a snapshot of the cached state.
type Status struct {
	Up        bool      `json:"up"`
	CheckedAt time.Time `json:"checkedAt"`
	LastError string    `json:"lastError,omitempty"`
}

// Monitor caches remote reachability so callers do not probe before every
// call. A stale result is refreshed on the next Available call; MarkDown
// invalidates it immediately. A nil Monitor always reports available.
type Monitor struct {
	probe    Probe
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	up        bool
	checkedAt time.Time
	lastErr   error
	probing   bool
}

// New builds a monitor around probe.
func New(probe Probe, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Monitor{
		probe:    probe,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// Available returns the cached state, probing first when it is stale.
// Concurrent callers do not stack probes: while one runs, others get the
// previous answer.
func (m *Monitor) Available(ctx context.Context) bool {
	if m == nil {
		return true
	}
	m.mu.Lock()
	fresh := !m.checkedAt.IsZero() && m.now().Sub(m.checkedAt) < m.interval
	if fresh || m.probing {
		up := m.up || m.checkedAt.IsZero()
		m.mu.Unlock()
		return up
	}
	m.probing = true
	m.mu.Unlock()
	return m.Check(ctx)
}

// Check probes now and stores the result.
func (m *Monitor) Check(ctx context.Context) bool {
	if m == nil {
		return true
	}
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.probe(probeCtx)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	wasUp := m.up
	first := m.checkedAt.IsZero()
	m.probing = false
	m.up = err == nil
	m.lastErr = err
	m.checkedAt = m.now()
	switch {
	case err != nil && (wasUp || first):
		m.logger.Warn("remote store unreachable", "err", err)
	case err == nil && !wasUp && !first:
		m.logger.Info("remote store reachable again")
	}
	return m.up
}

// MarkDown records a failure seen by a caller. The state stays down until
// the next refresh after Interval.
func (m *Monitor) MarkDown(err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.up || m.checkedAt.IsZero() {
		m.logger.Warn("remote store marked down", "err", err)
	}
	m.up = false
	m.lastErr = err
	m.checkedAt = m.now()
}

// MarkUp records a successful remote call.
func (m *Monitor) MarkUp() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.up = true
	m.lastErr = nil
	m.checkedAt = m.now()
}

// Status returns the cached state without probing.
func (m *Monitor) Status() Status {
	if m == nil {
		return Status{Up: true}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{Up: m.up, CheckedAt: m.checkedAt}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	return st
}

// Run rechecks every Interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	if m == nil {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
