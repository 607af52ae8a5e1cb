// Package ratelimit enforces the minimum interval between accepted telemetry
// submissions of a team.
package ratelimit

import (
	"errors"
	"sync"
	"time"
)

// DefaultInterval is the 2 Hz ceiling minus a small tolerance.
const DefaultInterval = 490 * time.Millisecond

// ErrRateExceeded is returned when a team submits faster than allowed.
var ErrRateExceeded = errors.New("telemetry rate exceeded")

type teamClock struct {
	mu       sync.Mutex
	last     int64
	seen     bool
	inFlight bool
}

// Governor tracks the last accepted submission time per team.
type Governor struct {
	intervalMs int64

	mu    sync.RWMutex
	teams map[int]*teamClock
}

// NewGovernor creates a governor with the given minimum interval.
func NewGovernor(interval time.Duration) *Governor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Governor{
		intervalMs: interval.Milliseconds(),
		teams:      make(map[int]*teamClock),
	}
}

// Interval returns the minimum inter-arrival interval.
func (g *Governor) Interval() time.Duration {
	return time.Duration(g.intervalMs) * time.Millisecond
}

func (g *Governor) clock(teamID int) *teamClock {
	g.mu.RLock()
	tc, ok := g.teams[teamID]
	g.mu.RUnlock()
	if ok {
		return tc
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if tc, ok = g.teams[teamID]; !ok {
		tc = &teamClock{}
		g.teams[teamID] = tc
	}
	return tc
}

// Admit checks a submission arriving at nowMs. On success the caller holds a
// reservation for the team and must Commit or Release it; until then any other
// submission of the same team is rejected. Rejections never move the clock.
func (g *Governor) Admit(teamID int, nowMs int64) (*Reservation, error) {
	tc := g.clock(teamID)

	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.inFlight {
		return nil, ErrRateExceeded
	}
	if tc.seen && nowMs-tc.last < g.intervalMs {
		return nil, ErrRateExceeded
	}
	tc.inFlight = true
	return &Reservation{clock: tc, at: nowMs}, nil
}

// Last returns the last accepted time of a team.
func (g *Governor) Last(teamID int) (int64, bool) {
	g.mu.RLock()
	tc, ok := g.teams[teamID]
	g.mu.RUnlock()
	if !ok {
		return 0, false
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.last, tc.seen
}

// Reservation is an admitted, not yet settled submission.
type Reservation struct {
	clock *teamClock
	at    int64
	done  bool
}

// Commit records the submission as accepted.
func (r *Reservation) Commit() {
	r.settle(true)
}

// Release drops the reservation without moving the team's clock. It is a
// no-op after Commit, so it can be deferred.
func (r *Reservation) Release() {
	r.settle(false)
}

func (r *Reservation) settle(accept bool) {
	tc := r.clock
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if r.done {
		return
	}
	r.done = true
	tc.inFlight = false
	if accept {
		tc.last = r.at
		tc.seen = true
	}
}
