package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func admitAndCommit(t *testing.T, g *Governor, team int, now int64) error {
	t.Helper()
	res, err := g.Admit(team, now)
	if err != nil {
		return err
	}
	res.Commit()
	return nil
}

func TestGovernor_Interval(t *testing.T) {
	g := NewGovernor(490 * time.Millisecond)

	require.NoError(t, admitAndCommit(t, g, 1, 0))
	assert.ErrorIs(t, admitAndCommit(t, g, 1, 400), ErrRateExceeded)
	assert.NoError(t, admitAndCommit(t, g, 1, 900))

	last, ok := g.Last(1)
	assert.True(t, ok)
	assert.Equal(t, int64(900), last)
}

func TestGovernor_Boundary(t *testing.T) {
	g := NewGovernor(490 * time.Millisecond)
	require.NoError(t, admitAndCommit(t, g, 1, 1000))

	assert.ErrorIs(t, admitAndCommit(t, g, 1, 1489), ErrRateExceeded)
	assert.NoError(t, admitAndCommit(t, g, 1, 1490))
}

func TestGovernor_RejectionDoesNotMoveClock(t *testing.T) {
	g := NewGovernor(490 * time.Millisecond)
	require.NoError(t, admitAndCommit(t, g, 1, 0))

	// Rejected at 300; had it reset the clock, 600 would be refused.
	assert.ErrorIs(t, admitAndCommit(t, g, 1, 300), ErrRateExceeded)
	assert.NoError(t, admitAndCommit(t, g, 1, 600))
}

func TestGovernor_ReleaseKeepsPreviousClock(t *testing.T) {
	g := NewGovernor(490 * time.Millisecond)
	require.NoError(t, admitAndCommit(t, g, 1, 0))

	res, err := g.Admit(1, 500)
	require.NoError(t, err)
	res.Release()
	res.Commit() // settled already, ignored

	last, _ := g.Last(1)
	assert.Equal(t, int64(0), last)

	// Still admissible at the same instant after a release.
	assert.NoError(t, admitAndCommit(t, g, 1, 500))
}

func TestGovernor_FirstSubmissionAlwaysAdmitted(t *testing.T) {
	g := NewGovernor(0)
	assert.Equal(t, DefaultInterval, g.Interval())

	_, ok := g.Last(7)
	assert.False(t, ok)
	assert.NoError(t, admitAndCommit(t, g, 7, 0))
}

func TestGovernor_TeamsAreIndependent(t *testing.T) {
	g := NewGovernor(490 * time.Millisecond)
	require.NoError(t, admitAndCommit(t, g, 1, 0))
	assert.NoError(t, admitAndCommit(t, g, 2, 10))
	assert.ErrorIs(t, admitAndCommit(t, g, 1, 20), ErrRateExceeded)
}

func TestGovernor_InFlightBlocksSameTeam(t *testing.T) {
	g := NewGovernor(490 * time.Millisecond)

	res, err := g.Admit(1, 0)
	require.NoError(t, err)

	_, err = g.Admit(1, 1000)
	assert.ErrorIs(t, err, ErrRateExceeded)

	res.Commit()
	assert.NoError(t, admitAndCommit(t, g, 1, 1000))
}

func TestGovernor_ConcurrentSameTeamAdmitsOne(t *testing.T) {
	g := NewGovernor(490 * time.Millisecond)

	var admitted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := g.Admit(1, 5000)
			if err == nil {
				admitted.Add(1)
				res.Commit()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())
}

func TestGovernor_ConcurrentTeams(t *testing.T) {
	g := NewGovernor(490 * time.Millisecond)

	var wg sync.WaitGroup
	for team := 1; team <= 30; team++ {
		wg.Add(1)
		go func(team int) {
			defer wg.Done()
			for i := int64(0); i < 10; i++ {
				if err := admitAndCommit(t, g, team, i*500); err != nil {
					t.Errorf("team %d submission %d rejected: %v", team, i, err)
				}
			}
		}(team)
	}
	wg.Wait()

	for team := 1; team <= 30; team++ {
		last, ok := g.Last(team)
		assert.True(t, ok)
		assert.Equal(t, int64(4500), last)
	}
}
