package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/arcanaland/cardwall/internal/card"
	"github.com/arcanaland/cardwall/internal/deck"
	"github.com/arcanaland/cardwall/internal/layout"
	"github.com/arcanaland/cardwall/internal/scene"
	"github.com/arcanaland/cardwall/internal/sheet"
)

type countingRenderer struct {
	mu     sync.Mutex
	frames int
}

func (r *countingRenderer) Render(scene.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
	return nil
}

func (r *countingRenderer) SetSize(int, int) {}

func (r *countingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func smallDeck() *deck.Deck {
	return deck.FromRows("test", []sheet.Row{
		{"name": "ada", "net_worth": "$10"},
		{"name": "bob", "net_worth": "$150,000"},
		{"name": "cy", "net_worth": "$500,000"},
	})
}

func TestLoopRunsTransforms(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := &countingRenderer{}
	s := scene.New(smallDeck(), r)
	loop := NewLoop(s, 200)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	var tr *scene.Transition
	err := loop.Do(ctx, func(s *scene.Session) error {
		var err error
		tr, err = s.Transform(layout.SphereArrangement, 20*time.Millisecond)
		return err
	})
	require.NoError(t, err)

	select {
	case <-tr.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("transition never finished")
	}
	assert.False(t, tr.Cancelled())

	err = loop.Do(ctx, func(s *scene.Session) error {
		_, err := s.Transform("cube", time.Millisecond)
		return err
	})
	assert.ErrorIs(t, err, layout.ErrUnknownArrangement)

	var poses []layout.Pose
	require.NoError(t, loop.Do(ctx, func(s *scene.Session) error {
		poses = s.Poses()
		return nil
	}))
	assert.Equal(t, layout.Sphere(3), poses)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Greater(t, r.count(), 0)

	assert.ErrorIs(t, loop.Submit(context.Background(), func(*scene.Session) {}), ErrStopped)
	assert.True(t, errors.Is(loop.Do(context.Background(), func(*scene.Session) error { return nil }), ErrStopped))
}

func TestTerminalRender(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()

	var buf bytes.Buffer
	term := NewTerminal(&buf, 21, 12, false)

	f := scene.Frame{
		Seq:    3,
		Camera: scene.NewCamera(1),
		Cards: []scene.CardFrame{
			{Index: 0, Name: "zed", Bucket: card.Green},
			{Index: 1, Name: "  ada", Bucket: card.Red, Pose: layout.Pose{Position: layout.Vec3{Z: 500}}},
			{Index: 2, Name: "far away", Bucket: card.Red, Pose: layout.Pose{Position: layout.Vec3{X: 1e6}}},
			{Index: 3, Name: "behind", Bucket: card.Red, Pose: layout.Pose{Position: layout.Vec3{Z: 4000}}},
		},
	}
	require.NoError(t, term.Render(f))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 12)

	// the nearer card at the center hides the one behind it
	center := []rune(lines[5])
	assert.Equal(t, 'A', center[10])
	assert.NotContains(t, buf.String(), "Z")
	assert.Contains(t, lines[11], "frame 3")
	assert.Contains(t, lines[11], "4 cards  2 visible")
}

func TestInitial(t *testing.T) {
	assert.Equal(t, 'J', initial("  jo"))
	assert.Equal(t, '#', initial("--"))
	assert.Equal(t, '#', initial(""))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestTerminalWriteError(t *testing.T) {
	term := NewTerminal(failingWriter{}, 10, 5, true)
	assert.Error(t, term.Render(scene.Frame{Camera: scene.NewCamera(1)}))
}
