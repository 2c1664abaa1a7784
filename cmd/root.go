package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arcanaland/cardwall/internal/card"
	"github.com/arcanaland/cardwall/internal/config"
	"github.com/arcanaland/cardwall/internal/deck"
)

var (
	configPath string
	sourceFlag string
	verbose    bool

	settings *config.Config
	logger   = zap.NewNop()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cardwall",
	Short: "Arrange a sheet of people as cards in 3D",
	Long: `Cardwall loads a published spreadsheet of people and lays them out as cards
in one of four 3D arrangements: table, sphere, helix or grid.

Cards are colored by net worth: red below $100K, yellow up to $200K and
green above. Transitions between arrangements are animated in the terminal
(play) or streamed to browsers over a websocket (serve).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger()
		if err != nil {
			return err
		}

		settings, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if sourceFlag != "" {
			settings.SourceURL = sourceFlag
		}
		if err := settings.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}

		logger.Debug("config loaded",
			zap.String("path", configPath),
			zap.String("source", settings.SourceURL),
			zap.Int("duration_ms", settings.DurationMS))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", config.GetConfigFilePath(), "Path to the config file")
	RootCmd.PersistentFlags().StringVarP(&sourceFlag, "source", "s", "", "Sheet URL or local CSV file (overrides source_url)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	RootCmd.AddCommand(validateCmd)
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RootCmd.ExecuteContext(ctx)
}

// newLogger builds the production logger, at debug level with --verbose.
// outputs replace stderr when given.
func newLogger(outputs ...string) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if verbose {
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if len(outputs) > 0 {
		zapConfig.OutputPaths = outputs
		zapConfig.ErrorOutputPaths = outputs
	}

	l, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// loadDeck fetches the configured sheet once and builds the deck
func loadDeck(ctx context.Context) (*deck.Deck, error) {
	logger.Info("loading sheet", zap.String("source", settings.SourceURL))

	d, err := deck.Load(ctx, http.DefaultClient, settings.SourceURL)
	if err != nil {
		return nil, err
	}

	counts := d.Counts()
	logger.Info("sheet loaded",
		zap.Int("cards", d.Len()),
		zap.Int("red", counts[card.Red]),
		zap.Int("yellow", counts[card.Yellow]),
		zap.Int("green", counts[card.Green]))
	return d, nil
}
