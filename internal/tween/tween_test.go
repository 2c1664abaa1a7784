package tween

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/cardwall/internal/layout"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

func newTestScheduler() (*Scheduler, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	return NewScheduler(WithClock(clock.Now)), clock
}

func TestExponentialInOut(t *testing.T) {
	assert.Equal(t, 0.0, ExponentialInOut(0))
	assert.Equal(t, 1.0, ExponentialInOut(1))
	assert.InDelta(t, 0.5, ExponentialInOut(0.5), 1e-12)
	assert.Less(t, ExponentialInOut(0.1), 0.01)
	assert.Greater(t, ExponentialInOut(0.9), 0.99)

	prev := 0.0
	for k := 0.05; k < 1; k += 0.05 {
		v := ExponentialInOut(k)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestUpdateInterpolates(t *testing.T) {
	s, clock := newTestScheduler()

	var got layout.Vec3
	var doneCalls int
	tw := s.Schedule(Spec{
		From:     layout.Vec3{X: 0},
		To:       layout.Vec3{X: 100, Y: -50},
		Duration: time.Second,
		Apply:    func(v layout.Vec3) { got = v },
		OnDone:   func(cancelled bool) { doneCalls++; assert.False(t, cancelled) },
	})

	assert.True(t, s.Update(clock.Advance(250*time.Millisecond)))
	assert.InDelta(t, 25, got.X, 1e-9)
	assert.InDelta(t, -12.5, got.Y, 1e-9)
	assert.Equal(t, Running, tw.State())

	assert.False(t, s.Update(clock.Advance(time.Second)))
	assert.Equal(t, layout.Vec3{X: 100, Y: -50}, got)
	assert.Equal(t, Done, tw.State())
	assert.Equal(t, 1, doneCalls)
	assert.Equal(t, 0, s.Len())

	// nothing left to advance
	assert.False(t, s.Update(clock.Advance(time.Second)))
	assert.Equal(t, 1, doneCalls)
}

func TestZeroDurationCompletesOnFirstUpdate(t *testing.T) {
	s, clock := newTestScheduler()
	var got layout.Vec3
	tw := s.Schedule(Spec{To: layout.Vec3{Z: 3}, Apply: func(v layout.Vec3) { got = v }})

	s.Update(clock.now)
	assert.Equal(t, layout.Vec3{Z: 3}, got)
	assert.Equal(t, Done, tw.State())
}

func TestBookkeepingTweenOnlyUpdates(t *testing.T) {
	s, clock := newTestScheduler()
	updates := 0
	s.Schedule(Spec{Duration: 100 * time.Millisecond, OnUpdate: func() { updates++ }})

	for i := 0; i < 5; i++ {
		s.Update(clock.Advance(30 * time.Millisecond))
	}
	// 30, 60, 90 running; 120 completes
	assert.Equal(t, 4, updates)
	assert.Equal(t, 0, s.Len())
}

func TestCancelAll(t *testing.T) {
	s, clock := newTestScheduler()

	applied := 0
	var cancelled []bool
	for i := 0; i < 3; i++ {
		s.Schedule(Spec{
			To:       layout.Vec3{X: 1},
			Duration: time.Second,
			Apply:    func(layout.Vec3) { applied++ },
			OnDone:   func(c bool) { cancelled = append(cancelled, c) },
		})
	}
	s.Update(clock.Advance(100 * time.Millisecond))
	require.Equal(t, 3, applied)

	handles := s.Pending()
	s.CancelAll()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, []bool{true, true, true}, cancelled)
	for _, h := range handles {
		assert.Equal(t, Cancelled, h.State())
	}

	s.Update(clock.Advance(100 * time.Millisecond))
	assert.Equal(t, 3, applied, "cancelled tweens must not apply again")
}

func TestCancelOne(t *testing.T) {
	s, clock := newTestScheduler()
	a := s.Schedule(Spec{Duration: time.Second, Tag: "a"})
	b := s.Schedule(Spec{Duration: time.Second, Tag: "b"})

	a.Cancel()
	a.Cancel()

	require.Equal(t, 1, s.Len())
	assert.Equal(t, "b", s.Pending()[0].Tag())
	assert.Equal(t, Cancelled, a.State())

	s.Update(clock.Advance(2 * time.Second))
	assert.Equal(t, Done, b.State())
	b.Cancel()
	assert.Equal(t, Done, b.State())
}

func TestScheduleFromCallback(t *testing.T) {
	s, clock := newTestScheduler()

	var second *Tween
	s.Schedule(Spec{
		Duration: 10 * time.Millisecond,
		OnDone: func(bool) {
			second = s.Schedule(Spec{Duration: time.Second, Tag: "next"})
		},
	})

	assert.True(t, s.Update(clock.Advance(20*time.Millisecond)))
	require.NotNil(t, second)
	assert.Equal(t, []*Tween{second}, s.Pending())
}
