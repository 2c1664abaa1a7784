// Package tween schedules value interpolations over time. A Scheduler is
// owned by one session and advanced explicitly; nothing here is global.
// Schedulers are not safe for concurrent use.
package tween

import (
	"time"

	"github.com/arcanaland/cardwall/internal/layout"
)

// State of a scheduled tween
type State int

const (
	Running State = iota
	Done
	Cancelled
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Spec describes one interpolation from From to To
type Spec struct {
	From     layout.Vec3
	To       layout.Vec3
	Duration time.Duration
	Easing   Easing

	// Apply receives the interpolated value on every update
	Apply func(layout.Vec3)
	// OnUpdate runs after Apply on every update
	OnUpdate func()
	// OnDone runs once, when the tween completes or is cancelled
	OnDone func(cancelled bool)

	// Tag is free-form and only used for inspection
	Tag string
}

// Tween is a handle on a scheduled interpolation
type Tween struct {
	spec  Spec
	start time.Time
	state State
	owner *Scheduler
}

// State reports whether the tween is running, done or cancelled
func (t *Tween) State() State { return t.state }

// To returns the destination value
func (t *Tween) To() layout.Vec3 { return t.spec.To }

// Duration returns the scheduled length
func (t *Tween) Duration() time.Duration { return t.spec.Duration }

// Tag returns the spec tag
func (t *Tween) Tag() string { return t.spec.Tag }

// Cancel stops the tween where it is. Cancelling a finished tween is a no-op.
func (t *Tween) Cancel() {
	if t.state != Running {
		return
	}
	t.owner.remove(t)
	t.finish(Cancelled)
}

func (t *Tween) finish(s State) {
	t.state = s
	if t.spec.OnDone != nil {
		t.spec.OnDone(s == Cancelled)
	}
}

// progress returns linear progress at now, clamped to [0,1]
func (t *Tween) progress(now time.Time) float64 {
	if t.spec.Duration <= 0 {
		return 1
	}
	k := float64(now.Sub(t.start)) / float64(t.spec.Duration)
	if k < 0 {
		return 0
	}
	if k > 1 {
		return 1
	}
	return k
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock sets the time source used to stamp new tweens
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// Scheduler holds the pending tweens of one session
type Scheduler struct {
	clock   func() time.Time
	pending []*Tween
}

// NewScheduler returns an empty scheduler using the wall clock by default
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule starts a tween now
func (s *Scheduler) Schedule(spec Spec) *Tween {
	if spec.Easing == nil {
		spec.Easing = Linear
	}
	t := &Tween{spec: spec, start: s.clock(), owner: s}
	s.pending = append(s.pending, t)
	return t
}

// Update advances every pending tween to now, drops the finished ones and
// reports whether any are still running.
func (s *Scheduler) Update(now time.Time) bool {
	if len(s.pending) == 0 {
		return false
	}

	// callbacks may schedule or cancel, so walk a snapshot
	batch := make([]*Tween, len(s.pending))
	copy(batch, s.pending)

	for _, t := range batch {
		if t.state != Running {
			continue
		}

		k := t.progress(now)
		if t.spec.Apply != nil {
			t.spec.Apply(t.spec.From.Lerp(t.spec.To, t.spec.Easing(k)))
		}
		if t.spec.OnUpdate != nil {
			t.spec.OnUpdate()
		}
		if k >= 1 && t.state == Running {
			t.finish(Done)
		}
	}

	kept := s.pending[:0]
	for _, t := range s.pending {
		if t.state == Running {
			kept = append(kept, t)
		}
	}
	clear(s.pending[len(kept):])
	s.pending = kept

	return len(s.pending) > 0
}

// CancelAll abandons every pending tween mid-flight
func (s *Scheduler) CancelAll() {
	batch := s.pending
	s.pending = nil
	for _, t := range batch {
		if t.state == Running {
			t.finish(Cancelled)
		}
	}
}

// Len returns the number of pending tweens
func (s *Scheduler) Len() int { return len(s.pending) }

// Pending returns a copy of the pending tweens in schedule order
func (s *Scheduler) Pending() []*Tween {
	out := make([]*Tween, len(s.pending))
	copy(out, s.pending)
	return out
}

func (s *Scheduler) remove(t *Tween) {
	for i, p := range s.pending {
		if p == t {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}
