package session

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRegistry_BindResolve(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Resolve("10.0.0.5")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	r.Bind("10.0.0.5", 4)
	team, err := r.Resolve("10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, 4, team)

	// A later login from the same identity overwrites the binding.
	r.Bind("10.0.0.5", 9)
	team, err = r.Resolve("10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, 9, team)
	assert.Equal(t, 1, r.Len())

	_, err = r.Resolve("")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRegistry_Authorize(t *testing.T) {
	r := NewRegistry(DefaultExempt)
	r.Bind("10.0.0.5", 4)
	r.Bind("127.0.0.1", 1)

	tests := []struct {
		name    string
		caller  Caller
		claimed int
		wantErr error
	}{
		{"matching team", Caller{Identity: "10.0.0.5", Address: "10.0.0.5"}, 4, nil},
		{"mismatched team", Caller{Identity: "10.0.0.5", Address: "10.0.0.5"}, 5, ErrIdentityMismatch},
		{"loopback may claim another team", Caller{Identity: "127.0.0.1", Address: "127.0.0.1"}, 2, nil},
		{"no session", Caller{Identity: "10.0.0.6", Address: "10.0.0.6"}, 4, ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Authorize(tt.caller, tt.claimed)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_ExemptListIsConfigurable(t *testing.T) {
	r := NewRegistry([]string{" 192.168.1.50 ", ""})
	assert.True(t, r.IsExempt("192.168.1.50"))
	assert.False(t, r.IsExempt("127.0.0.1"))

	r.Bind("127.0.0.1", 1)
	err := r.Authorize(Caller{Identity: "127.0.0.1", Address: "127.0.0.1"}, 2)
	assert.ErrorIs(t, err, ErrIdentityMismatch)
}

func TestRegistry_CleanupExpired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)}
	r := NewRegistryWithClock(nil, clock.Now)

	r.Bind("a", 1)
	r.Bind("b", 2)

	clock.Advance(10 * time.Minute)
	_, err := r.Resolve("b")
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 0, r.CleanupExpired(0), "zero ttl never expires")
	assert.Equal(t, 1, r.CleanupExpired(15*time.Minute))

	_, err = r.Resolve("a")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = r.Resolve("b")
	assert.NoError(t, err)
}

func TestRegistry_Unbind(t *testing.T) {
	r := NewRegistry(nil)
	r.Bind("a", 1)
	assert.True(t, r.Unbind("a"))
	assert.False(t, r.Unbind("a"))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ConcurrentTeams(t *testing.T) {
	r := NewRegistry(nil)
	var wg sync.WaitGroup
	for team := 1; team <= 20; team++ {
		wg.Add(1)
		go func(team int) {
			defer wg.Done()
			id := string(rune('A' + team))
			r.Bind(id, team)
			for i := 0; i < 100; i++ {
				got, err := r.Resolve(id)
				if err != nil || got != team {
					t.Errorf("team %d resolved to %d (%v)", team, got, err)
					return
				}
			}
		}(team)
	}
	wg.Wait()
	assert.Equal(t, 20, r.Len())
}

func TestIdentifiers(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/giris", nil)

	addr, err := NewIdentifier("address")
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1", addr.Issue(req, "10.1.1.1"))
	assert.Equal(t, "10.1.1.1", addr.Identify(req, "10.1.1.1"))

	tok, err := NewIdentifier("token")
	require.NoError(t, err)
	issued := tok.Issue(req, "10.1.1.1")
	assert.Len(t, issued, 36)
	assert.NotEqual(t, issued, tok.Issue(req, "10.1.1.1"))

	rec := httptest.NewRecorder()
	tok.Expose(rec.Header(), issued)
	assert.Equal(t, issued, rec.Header().Get(TokenHeader))

	req.Header.Set(TokenHeader, issued)
	assert.Equal(t, issued, tok.Identify(req, "10.9.9.9"))

	_, err = NewIdentifier("cookie")
	assert.Error(t, err)
}
