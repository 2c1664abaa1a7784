package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arcanaland/cardwall/internal/config"
	"github.com/arcanaland/cardwall/internal/layout"
	"github.com/arcanaland/cardwall/internal/render"
	"github.com/arcanaland/cardwall/internal/scene"
)

// resizePoll is how often play checks the terminal size
const resizePoll = 500 * time.Millisecond

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Animate the cards in the terminal",
	Long: `Play draws the wall in the terminal and animates it into the start
arrangement. With --cycle it moves on to the next arrangement every interval,
in the order table, sphere, helix, grid. Press Ctrl-C to stop.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := startArrangement(cmd)
		if err != nil {
			return err
		}
		cycle, _ := cmd.Flags().GetDuration("cycle")

		// stderr shares the screen with the animation
		if err := logToFile(filepath.Join(config.GetCacheDir(), "play.log")); err != nil {
			return err
		}

		d, err := loadDeck(cmd.Context())
		if err != nil {
			return err
		}

		fd := int(os.Stdout.Fd())
		width, height := render.TerminalSize(fd)
		terminal := render.NewTerminal(os.Stdout, width, height, true)

		session := scene.New(d, terminal, scene.WithLogger(logger))
		session.Resize(width, height)
		loop := render.NewLoop(session, settings.FrameRate, render.WithLoopLogger(logger))

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			return loop.Run(ctx)
		})
		g.Go(func() error {
			return drive(ctx, loop, start, cycle)
		})
		g.Go(func() error {
			return watchSize(ctx, loop, fd, width, height)
		})

		err = g.Wait()
		// the loop has returned, so the session has no other owner
		session.Close()
		if errors.Is(err, context.Canceled) || errors.Is(err, render.ErrStopped) {
			return nil
		}
		return err
	},
}

func init() {
	RootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("arrangement", "a", "", "Arrangement to start with (defaults to start_arrangement)")
	playCmd.Flags().Duration("cycle", 0, "Move to the next arrangement at this interval (0 disables)")
}

// logToFile swaps the command logger for one appending to path
func logToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	fileLogger, err := newLogger(path)
	if err != nil {
		return err
	}
	_ = logger.Sync()
	logger = fileLogger
	return nil
}

// startArrangement resolves the --arrangement flag, falling back to config
func startArrangement(cmd *cobra.Command) (layout.Arrangement, error) {
	name, _ := cmd.Flags().GetString("arrangement")
	if name == "" {
		return settings.Arrangement()
	}
	return layout.ParseArrangement(name)
}

// drive starts the first transform and, when cycle is positive, rotates
// through the arrangements until ctx is done
func drive(ctx context.Context, loop *render.Loop, start layout.Arrangement, cycle time.Duration) error {
	transform := func(name layout.Arrangement) error {
		return loop.Do(ctx, func(s *scene.Session) error {
			_, err := s.Transform(name, settings.Duration())
			return err
		})
	}

	if err := transform(start); err != nil {
		return fmt.Errorf("error starting %s: %w", start, err)
	}
	if cycle <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	names := layout.Names()
	next := 0
	for i, name := range names {
		if name == start {
			next = i
		}
	}

	ticker := time.NewTicker(cycle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			next = (next + 1) % len(names)
			logger.Debug("cycling arrangement", zap.String("arrangement", string(names[next])))
			if err := transform(names[next]); err != nil {
				return err
			}
		}
	}
}

// watchSize polls the terminal and resizes the session when it changes
func watchSize(ctx context.Context, loop *render.Loop, fd, width, height int) error {
	ticker := time.NewTicker(resizePoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w, h := render.TerminalSize(fd)
			if w == width && h == height {
				continue
			}
			width, height = w, h
			if err := loop.Submit(ctx, func(s *scene.Session) { s.Resize(w, h) }); err != nil {
				return err
			}
		}
	}
}
