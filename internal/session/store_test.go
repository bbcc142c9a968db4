package session

import (
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
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func TestCreateAndGet(t *testing.T) {
	store := NewStore(time.Hour)

	e := store.Create()
	require.NotEmpty(t, e.ID)
	require.NotNil(t, e.State.Master)
	require.NotNil(t, e.State.Ledger)

	got, ok := store.Get(e.ID)
	require.True(t, ok)
	assert.Same(t, e, got)

	_, ok = store.Get("nope")
	assert.False(t, ok)
}

func TestSessionsAreIsolated(t *testing.T) {
	store := NewStore(time.Hour)
	a, b := store.Create(), store.Create()

	require.NoError(t, a.State.Master.Register("Widget", 1, 0, 0))

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 1, a.State.Master.Len())
	assert.Equal(t, 0, b.State.Master.Len())
}

func TestWithInitSeedsNewSessions(t *testing.T) {
	store := NewStore(time.Hour, WithInit(func(s *State) {
		_ = s.Master.Register("Seeded", 10, 1, 1)
	}))

	e := store.Create()
	_, ok := e.State.Master.Lookup("Seeded")
	assert.True(t, ok)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	clock := newClock()
	store := NewStore(30*time.Minute, WithClock(clock.Now))

	idle := store.Create()
	clock.Advance(20 * time.Minute)
	active := store.Create()
	clock.Advance(15 * time.Minute)
	_, ok := store.Get(active.ID)
	require.True(t, ok)

	assert.Equal(t, 1, store.Sweep(clock.Now()))
	_, ok = store.Get(idle.ID)
	assert.False(t, ok)
	_, ok = store.Get(active.ID)
	assert.True(t, ok)
}

func TestDeleteEndsSession(t *testing.T) {
	store := NewStore(time.Hour)
	e := store.Create()

	store.Delete(e.ID)
	_, ok := store.Get(e.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())

	store.Delete("unknown")
}

func TestGetExpiresLazily(t *testing.T) {
	clock := newClock()
	store := NewStore(time.Minute, WithClock(clock.Now))

	e := store.Create()
	clock.Advance(2 * time.Minute)

	_, ok := store.Get(e.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestGetOrCreate(t *testing.T) {
	store := NewStore(time.Hour)

	e, created := store.GetOrCreate("")
	require.True(t, created)

	again, created := store.GetOrCreate(e.ID)
	assert.False(t, created)
	assert.Same(t, e, again)

	_, created = store.GetOrCreate("unknown")
	assert.True(t, created)
	assert.Equal(t, 2, store.Len())
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	_, err := NewSweeper(NewStore(time.Hour), "every tuesday", nil)
	assert.Error(t, err)
}

func TestSweeperSweepUsesStoreClock(t *testing.T) {
	clock := newClock()
	store := NewStore(time.Minute, WithClock(clock.Now))
	store.Create()

	sweeper, err := NewSweeper(store, "*/10 * * * *", nil)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	sweeper.sweep()
	assert.Equal(t, 0, store.Len())

	sweeper.Start()
	sweeper.Stop()
}
