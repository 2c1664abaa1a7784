package cmd

import (
	"fmt"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arcanaland/cardwall/internal/card"
)

var bucketColors = map[card.Bucket]*colorize.Color{
	card.Red:    colorize.New(colorize.FgHiRed),
	card.Yellow: colorize.New(colorize.FgHiYellow),
	card.Green:  colorize.New(colorize.FgHiGreen),
}

// cardsCmd represents the cards command group
var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Inspect the cards built from the sheet",
}

// cardsListCmd represents the cards ls command
var cardsListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List every card with its net worth band",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDeck(cmd.Context())
		if err != nil {
			return err
		}

		if d.Len() == 0 {
			fmt.Println("The sheet has no rows.")
			return nil
		}

		for _, c := range d.Cards {
			marker := bucketColors[c.Bucket].Sprint("●")
			fmt.Printf("%s %3d  %-24s %-14s %4s  %-20s %s\n",
				marker, c.Index, truncate(c.Name, 24), truncate(c.Country, 14), c.Age,
				truncate(c.Interest, 20), formatMoney(c.NetWorth))
		}
		return nil
	},
}

// cardsStatsCmd represents the cards stats command
var cardsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count cards per net worth band",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDeck(cmd.Context())
		if err != nil {
			return err
		}

		counts := d.Counts()
		labels := map[card.Bucket]string{
			card.Red:    "under $100K",
			card.Yellow: "$100K to $200K",
			card.Green:  "$200K and up",
		}
		for _, b := range []card.Bucket{card.Red, card.Yellow, card.Green} {
			fmt.Printf("%s %-7s %-15s %d\n", bucketColors[b].Sprint("●"), b, labels[b], counts[b])
		}
		fmt.Printf("  %-23s %d\n", "total", d.Len())
		return nil
	},
}

// cardsPrefetchCmd represents the cards prefetch command
var cardsPrefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Download every photo and cache its ANSI art",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDeck(cmd.Context())
		if err != nil {
			return err
		}
		parallel, _ := cmd.Flags().GetInt("parallel")

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(max(parallel, 1))

		photos := uniquePhotos(d.Cards)
		failed := make([]bool, len(photos))
		for i, c := range photos {
			g.Go(func() error {
				if _, err := cardArt(ctx, c); err != nil {
					// one bad photo should not stop the rest
					logger.Warn("photo prefetch failed", zap.Int("card", c.Index), zap.Error(err))
					failed[i] = true
				}
				return ctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		misses := 0
		for _, f := range failed {
			if f {
				misses++
			}
		}
		fmt.Printf("Cached %d photos (%d failed).\n", len(photos)-misses, misses)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(cardsCmd)
	cardsCmd.AddCommand(cardsListCmd)
	cardsCmd.AddCommand(cardsStatsCmd)
	cardsCmd.AddCommand(cardsPrefetchCmd)

	cardsPrefetchCmd.Flags().IntP("parallel", "p", 4, "Number of photos to download at once")
}

// uniquePhotos returns the first card for each distinct photo URL, so no
// two downloads share a cache file
func uniquePhotos(cards []*card.Card) []*card.Card {
	seen := make(map[string]bool)
	var photos []*card.Card
	for _, c := range cards {
		if !c.HasPhoto() || seen[c.PhotoURL] {
			continue
		}
		seen[c.PhotoURL] = true
		photos = append(photos, c)
	}
	return photos
}

// truncate shortens s to width runes with an ellipsis
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// formatMoney renders a net worth as $1,234,567
func formatMoney(v float64) string {
	digits := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return "$" + b.String()
}
