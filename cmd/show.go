package cmd

import (
	"context"
	"crypto/md5"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/arcanaland/cardwall/internal/ansi"
	"github.com/arcanaland/cardwall/internal/card"
	"github.com/arcanaland/cardwall/internal/config"
)

const (
	artWidth  = 40
	artHeight = 20
)

var showCmd = &cobra.Command{
	Use:   "show [index]",
	Short: "Display one card with its photo as ANSI art",
	Long: `Show displays every field of a card next to its photo rendered as ANSI
terminal art. Cards are numbered from 0 in sheet order.

Photos are converted once and cached under XDG_CACHE_HOME/cardwall/ansi_cache.
A card without a photo, or whose photo cannot be fetched, is drawn as a block
in its net worth color.

Examples:
  cardwall show 0
  cardwall show --source ./people.csv 12`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid card index %q: %w", args[0], err)
		}

		d, err := loadDeck(cmd.Context())
		if err != nil {
			return err
		}

		c, err := d.Card(index)
		if err != nil {
			return fmt.Errorf("error getting card: %w", err)
		}

		art, err := cardArt(cmd.Context(), c)
		if err != nil {
			logger.Warn("using placeholder art", zap.Int("card", c.Index), zap.Error(err))
			art = ansi.Placeholder(c.Bucket.Color(), artWidth, artHeight)
		}

		displayCard(c, art)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)
}

// cardArt returns the ANSI art for a card's photo, converting and caching it
// on first use. Cards without a photo get a placeholder.
func cardArt(ctx context.Context, c *card.Card) (string, error) {
	if !c.HasPhoto() {
		return ansi.Placeholder(c.Bucket.Color(), artWidth, artHeight), nil
	}

	cacheDir := filepath.Join(config.GetCacheDir(), "ansi_cache")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create ANSI cache directory: %w", err)
	}

	// Create a cache filename based on the photo URL
	cacheFilename := fmt.Sprintf("%x.ansi", md5.Sum([]byte(c.PhotoURL)))
	cachePath := filepath.Join(cacheDir, cacheFilename)

	if data, err := os.ReadFile(cachePath); err == nil {
		return string(data), nil
	}

	img, err := ansi.FetchImage(ctx, http.DefaultClient, c.PhotoURL)
	if err != nil {
		return "", err
	}

	art := ansi.FromImage(img, artWidth, artHeight)
	if err := writeCacheFile(cachePath, []byte(art)); err != nil {
		return "", err
	}
	logger.Debug("cached photo", zap.String("url", c.PhotoURL), zap.String("path", cachePath))

	return art, nil
}

// writeCacheFile writes data next to path and renames it into place, so
// readers never see a partial file
func writeCacheFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create ANSI cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ANSI art to file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write ANSI art to file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write ANSI art to file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move ANSI art into the cache: %w", err)
	}
	return nil
}

// wrapText wraps text to a specified width
func wrapText(text string, width int) []string {
	// Ensure width is reasonable
	if width < 10 {
		width = 40
	}

	var result []string
	var currentLine string
	for _, word := range strings.Fields(text) {
		switch {
		case currentLine == "":
			currentLine = word
		case len(currentLine)+1+len(word) <= width:
			currentLine += " " + word
		default:
			result = append(result, currentLine)
			currentLine = word
		}
	}

	if currentLine != "" {
		result = append(result, currentLine)
	}
	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// infoLines builds the text shown beside the art, wrapping long values to width
func infoLines(c *card.Card, width int) []string {
	label := func(name string) string {
		return colorize.CyanString("%-10s", name+":")
	}

	lines := []string{
		label("Name") + colorize.HiWhiteString("%s", c.Name),
		label("Card") + colorize.HiWhiteString("#%d", c.Index),
		label("Country") + colorize.HiWhiteString("%s", c.Country),
		label("Age") + colorize.HiWhiteString("%s", c.Age),
		label("Worth") + bucketColors[c.Bucket].Sprintf("%s (%s)", formatMoney(c.NetWorth), c.Bucket),
	}

	if c.Interest != "" {
		lines = append(lines, "", colorize.CyanString("Interest:"))
		lines = append(lines, wrapText(c.Interest, width)...)
	}
	return lines
}

// displayCard prints the ANSI art on the left and the card fields on the right
func displayCard(c *card.Card, art string) {
	artLines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	maxArtWidth := ansi.Width(art)

	// Get terminal width
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}

	spacing := 4
	infoStartCol := maxArtWidth + spacing
	infoWidth := max(width-infoStartCol-2, 20)
	info := infoLines(c, infoWidth)

	fmt.Println()

	maxLines := max(len(artLines), len(info))
	for i := 0; i < maxLines; i++ {
		fmt.Print("  ")
		if i < len(artLines) {
			fmt.Print(artLines[i])
			visibleWidth := len([]rune(ansi.Strip(artLines[i])))
			fmt.Print(strings.Repeat(" ", max(infoStartCol-visibleWidth, 0)))
		} else {
			fmt.Print(strings.Repeat(" ", infoStartCol))
		}

		if i < len(info) {
			fmt.Print(info[i])
		}
		fmt.Println()
	}

	fmt.Println()
}
