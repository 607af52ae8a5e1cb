package session

import (
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	// ErrUnauthenticated is returned when no session is bound to a caller.
	ErrUnauthenticated = errors.New("no session bound to caller")
	// ErrIdentityMismatch is returned when a payload claims a team other than
	// the one bound to the caller.
	ErrIdentityMismatch = errors.New("claimed team does not match session")
)

// DefaultExempt lists the loopback addresses that may submit on behalf of any
// logged-in team, so several simulated teams can share one machine.
var DefaultExempt = []string{"127.0.0.1", "::1", "localhost"}

// Caller identifies the origin of a request.
type Caller struct {
	Identity string // key the session is bound under
	Address  string // network address of the request
}

// Binding is a caller identity bound to a team.
type Binding struct {
	TeamID   int
	BoundAt  time.Time
	LastSeen time.Time
}

// Registry maps caller identities to teams. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]*Binding
	exempt   map[string]struct{}
	now      func() time.Time
}

// NewRegistry creates a registry with the given exemption allow-list.
func NewRegistry(exempt []string) *Registry {
	return NewRegistryWithClock(exempt, time.Now)
}

// NewRegistryWithClock creates a registry using now as its time source.
func NewRegistryWithClock(exempt []string, now func() time.Time) *Registry {
	set := make(map[string]struct{}, len(exempt))
	for _, addr := range exempt {
		if addr = strings.TrimSpace(addr); addr != "" {
			set[addr] = struct{}{}
		}
	}
	return &Registry{
		bindings: make(map[string]*Binding),
		exempt:   set,
		now:      now,
	}
}

// Bind associates identity with teamID, replacing any earlier binding.
func (r *Registry) Bind(identity string, teamID int) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[identity] = &Binding{TeamID: teamID, BoundAt: now, LastSeen: now}
}

// Resolve returns the team bound to identity and refreshes its last-seen time.
func (r *Registry) Resolve(identity string) (int, error) {
	if identity == "" {
		return 0, ErrUnauthenticated
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[identity]
	if !ok {
		return 0, ErrUnauthenticated
	}
	b.LastSeen = r.now()
	return b.TeamID, nil
}

// Authorize checks that the caller's session may act for the claimed team.
// Callers on the exemption list may act for any team once logged in.
func (r *Registry) Authorize(caller Caller, claimed int) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[caller.Identity]
	if !ok {
		return ErrUnauthenticated
	}
	if b.TeamID == claimed {
		return nil
	}
	if _, exempt := r.exempt[caller.Address]; exempt {
		return nil
	}
	return ErrIdentityMismatch
}

// IsExempt reports whether address is on the exemption allow-list.
func (r *Registry) IsExempt(address string) bool {
	_, ok := r.exempt[address]
	return ok
}

// Unbind removes the session for identity.
func (r *Registry) Unbind(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.bindings[identity]
	delete(r.bindings, identity)
	return ok
}

// CleanupExpired removes sessions idle for longer than maxIdle and returns how
// many were dropped. A non-positive maxIdle disables expiry.
func (r *Registry) CleanupExpired(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, b := range r.bindings {
		if b.LastSeen.Before(cutoff) {
			delete(r.bindings, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of bound sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}
