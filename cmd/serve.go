package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arcanaland/cardwall/internal/render"
	"github.com/arcanaland/cardwall/internal/scene"
	"github.com/arcanaland/cardwall/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the wall to browsers over HTTP and websocket",
	Long: `Serve runs one shared wall and streams every frame to connected browsers
on /ws. Clients switch arrangements by sending {"type":"transform","arrangement":"helix"}
or through POST /api/transform/{name}; GET /api/cards lists the cards.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			settings.Listen = listen
		}
		start, err := startArrangement(cmd)
		if err != nil {
			return err
		}

		d, err := loadDeck(cmd.Context())
		if err != nil {
			return err
		}

		hub := server.NewHub(logger)
		session := scene.New(d, hub, scene.WithLogger(logger))
		loop := render.NewLoop(session, settings.FrameRate, render.WithLoopLogger(logger))
		srv := server.New(d, session.Arrangements(), loop, hub, settings.Duration(), logger)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			return loop.Run(ctx)
		})
		g.Go(func() error {
			return loop.Do(ctx, func(s *scene.Session) error {
				_, err := s.Transform(start, settings.Duration())
				return err
			})
		})
		g.Go(func() error {
			return srv.ListenAndServe(ctx, settings.Listen)
		})

		err = g.Wait()
		session.Close()
		logger.Info("server stopped", zap.Uint64("dropped_frames", hub.Dropped()))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides listen)")
	serveCmd.Flags().StringP("arrangement", "a", "", "Arrangement to start with (defaults to start_arrangement)")
}
