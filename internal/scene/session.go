// Package scene holds the live state of one card wall: the card poses,
// the cached arrangements, the animation scheduler, camera and controls.
//
// A Session is single-threaded. Every method must be called from the
// goroutine that owns it; render.Loop provides that goroutine.
package scene

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arcanaland/cardwall/internal/card"
	"github.com/arcanaland/cardwall/internal/deck"
	"github.com/arcanaland/cardwall/internal/layout"
	"github.com/arcanaland/cardwall/internal/tween"
)

// ErrClosed is returned by operations on a closed session
var ErrClosed = errors.New("session closed")

// DefaultScatter bounds the random starting position on each axis
const DefaultScatter = 2000

// Renderer draws frames. Implementations live outside this package.
type Renderer interface {
	Render(Frame) error
	SetSize(width, height int)
}

// Controls moves the camera between frames and reports whether it did
type Controls interface {
	Update(cam *Camera) bool
}

// Steerable controls accept orbit input
type Steerable interface {
	Rotate(azimuth, polar float64)
	Zoom(factor float64)
}

// CardFrame is one card as drawn in a frame
type CardFrame struct {
	Index  int         `json:"index"`
	Name   string      `json:"name"`
	Bucket card.Bucket `json:"bucket"`
	Pose   layout.Pose `json:"pose"`
}

// Frame is a snapshot of everything a renderer needs
type Frame struct {
	Seq    uint64      `json:"seq"`
	Camera Camera      `json:"camera"`
	Cards  []CardFrame `json:"cards"`
}

// Option configures a Session
type Option func(*Session)

// WithRand sets the random source for scatter and durations
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// WithClock sets the time source tweens are stamped with
func WithClock(clock func() time.Time) Option {
	return func(s *Session) { s.clock = clock }
}

// WithLogger sets the session logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithControls replaces the default orbit controls; nil disables them
func WithControls(c Controls) Option {
	return func(s *Session) { s.controls = c }
}

// WithScatter sets the half-width of the random starting cube
func WithScatter(extent float64) Option {
	return func(s *Session) { s.scatter = extent }
}

// Session is the live card wall
type Session struct {
	ID string

	deck      *deck.Deck
	objects   []layout.Pose
	targets   layout.Set
	scheduler *tween.Scheduler
	camera    Camera
	controls  Controls
	renderer  Renderer

	rng     *rand.Rand
	clock   func() time.Time
	logger  *zap.Logger
	scatter float64

	current *Transition
	dirty   bool
	frames  uint64
	closed  bool
}

// New builds a session for d. Each card starts at a random position with
// no rotation; the arrangements are computed once here.
func New(d *deck.Deck, renderer Renderer, opts ...Option) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		deck:     d,
		camera:   NewCamera(1),
		controls: NewOrbit(),
		renderer: renderer,
		clock:    time.Now,
		logger:   zap.NewNop(),
		scatter:  DefaultScatter,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s.logger = s.logger.With(zap.String("session", s.ID))
	s.scheduler = tween.NewScheduler(tween.WithClock(s.clock))

	n := d.Len()
	s.objects = make([]layout.Pose, n)
	for i := range s.objects {
		s.objects[i].Position = layout.Vec3{
			X: s.scatterCoord(),
			Y: s.scatterCoord(),
			Z: s.scatterCoord(),
		}
	}
	s.targets = layout.Compute(n)

	s.logger.Debug("session created", zap.Int("cards", n))
	return s
}

func (s *Session) scatterCoord() float64 {
	return s.rng.Float64()*2*s.scatter - s.scatter
}

// Transform cancels every in-flight tween and animates all cards toward
// the named arrangement. Each card's position and rotation get their own
// random duration in [duration, 2*duration). The returned Transition
// resolves after 2*duration, or early when superseded.
func (s *Session) Transform(name layout.Arrangement, duration time.Duration) (*Transition, error) {
	if s.closed {
		return nil, ErrClosed
	}
	targets, err := s.targets.Targets(name)
	if err != nil {
		return nil, err
	}

	s.scheduler.CancelAll()

	for i := range s.objects {
		s.scheduler.Schedule(tween.Spec{
			From:     s.objects[i].Position,
			To:       targets[i].Position,
			Duration: s.randomDuration(duration),
			Easing:   tween.ExponentialInOut,
			Apply:    func(v layout.Vec3) { s.objects[i].Position = v },
			Tag:      fmt.Sprintf("position/%d", i),
		})
		s.scheduler.Schedule(tween.Spec{
			From:     s.objects[i].Rotation.Vec(),
			To:       targets[i].Rotation.Vec(),
			Duration: s.randomDuration(duration),
			Easing:   tween.ExponentialInOut,
			Apply:    func(v layout.Vec3) { s.objects[i].Rotation = layout.EulerFrom(v) },
			Tag:      fmt.Sprintf("rotation/%d", i),
		})
	}

	t := newTransition(name, duration)
	s.scheduler.Schedule(tween.Spec{
		Duration: 2 * duration,
		OnUpdate: func() { s.dirty = true },
		OnDone:   t.resolve,
		Tag:      "frame",
	})
	s.current = t

	s.logger.Debug("transform scheduled",
		zap.String("arrangement", string(name)),
		zap.Duration("duration", duration),
		zap.Int("tweens", s.scheduler.Len()))

	return t, nil
}

func (s *Session) randomDuration(d time.Duration) time.Duration {
	return d + time.Duration(s.rng.Float64()*float64(d))
}

// Step advances the animation to now, lets the controls move the camera
// and draws at most one frame if anything changed. It reports whether a
// frame was drawn.
func (s *Session) Step(now time.Time) bool {
	if s.closed {
		return false
	}

	s.scheduler.Update(now)
	if s.controls != nil && s.controls.Update(&s.camera) {
		s.dirty = true
	}

	if !s.dirty {
		return false
	}
	s.dirty = false
	s.render()
	return true
}

// Resize re-projects the camera for the new viewport and redraws at once
func (s *Session) Resize(width, height int) {
	if s.closed || width <= 0 || height <= 0 {
		return
	}
	s.camera.Aspect = float64(width) / float64(height)
	if s.renderer != nil {
		s.renderer.SetSize(width, height)
	}
	s.render()
}

// Steer feeds orbit input to the controls. It returns false when the
// controls do not accept it.
func (s *Session) Steer(azimuth, polar, zoom float64) bool {
	c, ok := s.controls.(Steerable)
	if !ok || s.closed {
		return false
	}
	c.Rotate(azimuth, polar)
	c.Zoom(zoom)
	return true
}

// Frame snapshots the current camera and card poses
func (s *Session) Frame() Frame {
	f := Frame{
		Seq:    s.frames,
		Camera: s.camera,
		Cards:  make([]CardFrame, len(s.objects)),
	}
	for i, pose := range s.objects {
		c := s.deck.Cards[i]
		f.Cards[i] = CardFrame{Index: i, Name: c.Name, Bucket: c.Bucket, Pose: pose}
	}
	return f
}

func (s *Session) render() {
	if s.renderer == nil {
		return
	}
	s.frames++
	if err := s.renderer.Render(s.Frame()); err != nil {
		s.logger.Warn("render failed", zap.Uint64("frame", s.frames), zap.Error(err))
	}
}

// Close cancels all animation and detaches the renderer
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.scheduler.CancelAll()
	s.renderer = nil
	s.closed = true
	s.logger.Debug("session closed", zap.Uint64("frames", s.frames))
}

// Deck returns the cards behind the session
func (s *Session) Deck() *deck.Deck { return s.deck }

// Len returns the number of cards
func (s *Session) Len() int { return len(s.objects) }

// Poses returns a copy of the live card poses
func (s *Session) Poses() []layout.Pose {
	out := make([]layout.Pose, len(s.objects))
	copy(out, s.objects)
	return out
}

// Arrangements returns the cached target poses
func (s *Session) Arrangements() layout.Set { return s.targets }

// Camera returns the current camera
func (s *Session) Camera() Camera { return s.camera }

// Pending returns the scheduled tweens
func (s *Session) Pending() []*tween.Tween { return s.scheduler.Pending() }

// Current returns the latest transition, or nil before the first one
func (s *Session) Current() *Transition { return s.current }

// Transition tracks one Transform call
type Transition struct {
	Arrangement layout.Arrangement
	Duration    time.Duration

	done      chan struct{}
	cancelled bool
}

func newTransition(name layout.Arrangement, d time.Duration) *Transition {
	return &Transition{Arrangement: name, Duration: d, done: make(chan struct{})}
}

func (t *Transition) resolve(cancelled bool) {
	t.cancelled = cancelled
	close(t.done)
}

// Done is closed when the transition window elapses or a newer transform
// supersedes it
func (t *Transition) Done() <-chan struct{} { return t.done }

// Cancelled reports whether the transition was superseded. Only
// meaningful after Done is closed.
func (t *Transition) Cancelled() bool {
	select {
	case <-t.done:
		return t.cancelled
	default:
		return false
	}
}
