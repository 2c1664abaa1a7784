package ansi

import (
	"context"
	"fmt"
	"image"
	"image/color" // This is the standard library color package
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// FetchImage downloads and decodes a card photo
func FetchImage(ctx context.Context, client *http.Client, url string) (image.Image, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build photo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch photo: unexpected status %s", resp.Status)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}
	return img, nil
}

// FromImage converts an image to ANSI art of width x height cells using
// upper half blocks, two pixel rows per cell
func FromImage(img image.Image, width, height int) string {
	// Resize image to desired dimensions (doubled for half-block characters)
	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var buffer strings.Builder

	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			// Get the four pixels that will make up one character cell
			col1, _ := colorful.MakeColor(colorAt(resized, x, y))
			col2, _ := colorful.MakeColor(colorAt(resized, x+1, y))
			col3, _ := colorful.MakeColor(colorAt(resized, x, y+1))
			col4, _ := colorful.MakeColor(colorAt(resized, x+1, y+1))

			// Top pixels as foreground, bottom pixels as background
			fg := average(col1, col2)
			bg := average(col3, col4)

			buffer.WriteString(halfBlock(fg, bg))
		}
		buffer.WriteString("\n")
	}

	return buffer.String()
}

// Placeholder renders a solid block of c, used when a card has no photo
func Placeholder(c colorful.Color, width, height int) string {
	var buffer strings.Builder
	cell := halfBlock(c, c)
	for y := 0; y < height; y++ {
		buffer.WriteString(strings.Repeat(cell, width))
		buffer.WriteString("\n")
	}
	return buffer.String()
}

// Strip removes ANSI escape sequences from a string
func Strip(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		if inEscape {
			if c == 'm' {
				inEscape = false
			}
		} else if c == '\033' {
			inEscape = true
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}

// Width returns the visible width of the widest line
func Width(art string) int {
	widest := 0
	for _, line := range strings.Split(art, "\n") {
		widest = max(widest, len([]rune(Strip(line))))
	}
	return widest
}

// colorAt returns the color at a specific coordinate, black when out of bounds
func colorAt(img image.Image, x, y int) color.Color {
	bounds := img.Bounds()
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		return img.At(x, y)
	}
	return color.RGBA{0, 0, 0, 255}
}

// average calculates the mean of colors in RGB space
func average(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	count := float64(len(colors))
	return colorful.Color{R: r / count, G: g / count, B: b / count}
}

func halfBlock(fg, bg colorful.Color) string {
	r1, g1, b1 := fg.Clamped().RGB255()
	r2, g2, b2 := bg.Clamped().RGB255()
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m",
		r1, g1, b1, r2, g2, b2, '▀')
}
