// Package reachability tracks whether the backend is actually
// reachable, as opposed to the link merely being up. The link signal
// alone lies: a captive portal or dead upstream keeps it true while
// every request fails.
package reachability

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the monitor's confirmed view of connectivity.
type State string

const (
	// StateOffline: link down, or a probe failed while the link was up.
	StateOffline State = "offline"
	// StateOnlineUnconfirmed: link reports up but no probe has
	// succeeded yet.
	StateOnlineUnconfirmed State = "online_unconfirmed"
	// StateOnlineConfirmed: a probe reached the backend.
	StateOnlineConfirmed State = "online_confirmed"
)

// Pinger probes the backend health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor owns the reachability state machine and fan-out to
// subscribers.
type Monitor struct {
	pinger       Pinger
	probeTimeout time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	linkUp  bool
	state   State
	subs    map[int]chan State
	nextSub int
}

// New creates a monitor starting in the offline state with the link
// assumed up (the daemon just started; the first probe settles it).
func New(pinger Pinger, probeTimeout time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		pinger:       pinger,
		probeTimeout: probeTimeout,
		logger:       logger,
		linkUp:       true,
		state:        StateOnlineUnconfirmed,
		subs:         make(map[int]chan State),
	}
}

// IsOnline returns the raw link signal.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.linkUp
}

// State returns the current confirmed state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetLinkUp feeds the raw connectivity signal. A rising edge moves to
// unconfirmed (a probe must still succeed); a falling edge is
// immediately offline.
func (m *Monitor) SetLinkUp(up bool) {
	m.mu.Lock()
	m.linkUp = up
	var next State
	if up {
		if m.state == StateOffline {
			next = StateOnlineUnconfirmed
		} else {
			next = m.state
		}
	} else {
		next = StateOffline
	}
	m.transitionLocked(next)
	m.mu.Unlock()
}

// CheckServerReachable actively probes the backend. Timeouts and
// non-success statuses mean unreachable; they never propagate as
// errors.
func (m *Monitor) CheckServerReachable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	err := m.pinger.Ping(probeCtx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.logger.Debug("backend probe failed", zap.Error(err))
		// The link may still claim up; for sync purposes we are offline.
		m.transitionLocked(StateOffline)
		return false
	}
	if m.linkUp {
		m.transitionLocked(StateOnlineConfirmed)
	}
	return true
}

// Subscribe returns a channel carrying state transitions and an
// unsubscribe func. The channel holds at most the latest state: a slow
// consumer sees the newest transition, never a backlog of stale ones.
func (m *Monitor) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan State, 1)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
}

// Run drives periodic probes until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.CheckServerReachable(ctx)
	for {
		select {
		case <-ticker.C:
			m.CheckServerReachable(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// transitionLocked updates state and notifies subscribers on change.
// Caller holds m.mu.
func (m *Monitor) transitionLocked(next State) {
	if next == m.state {
		return
	}
	m.logger.Info("reachability changed",
		zap.String("from", string(m.state)),
		zap.String("to", string(next)))
	m.state = next

	for _, ch := range m.subs {
		// Drop the stale value, then deliver the latest.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- next:
		default:
		}
	}
}
