package render

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/arcanaland/cardwall/internal/scene"
)

// ErrStopped is returned when work is submitted to a loop that has exited
var ErrStopped = errors.New("render loop stopped")

// DefaultFrameRate is used when a loop is built with a non-positive rate
const DefaultFrameRate = 60

// Loop owns a session and steps it on a single goroutine. All session
// mutations from other goroutines go through Submit or Do.
type Loop struct {
	session  *scene.Session
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger

	requests chan func(*scene.Session)
	stopped  chan struct{}
}

// LoopOption configures a Loop
type LoopOption func(*Loop)

// WithLoopClock sets the time passed to Session.Step
func WithLoopClock(now func() time.Time) LoopOption {
	return func(l *Loop) { l.now = now }
}

// WithLoopLogger sets the loop logger
func WithLoopLogger(logger *zap.Logger) LoopOption {
	return func(l *Loop) { l.logger = logger }
}

// NewLoop builds a loop that steps s frameRate times per second
func NewLoop(s *scene.Session, frameRate int, opts ...LoopOption) *Loop {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	l := &Loop{
		session:  s,
		interval: time.Second / time.Duration(frameRate),
		now:      time.Now,
		logger:   zap.NewNop(),
		requests: make(chan func(*scene.Session)),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run steps the session until ctx is done. It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Debug("render loop started", zap.Duration("interval", l.interval))

	var steps, drawn uint64
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("render loop stopped", zap.Uint64("steps", steps), zap.Uint64("frames", drawn))
			return ctx.Err()
		case fn := <-l.requests:
			fn(l.session)
		case <-ticker.C:
			steps++
			if l.session.Step(l.now()) {
				drawn++
			}
		}
	}
}

// Submit queues fn to run on the loop goroutine without waiting for it
func (l *Loop) Submit(ctx context.Context, fn func(*scene.Session)) error {
	select {
	case l.requests <- fn:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the loop goroutine and waits for its result
func (l *Loop) Do(ctx context.Context, fn func(*scene.Session) error) error {
	result := make(chan error, 1)
	if err := l.Submit(ctx, func(s *scene.Session) { result <- fn(s) }); err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-l.stopped:
		// fn may have run right before the loop exited
		select {
		case err := <-result:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
