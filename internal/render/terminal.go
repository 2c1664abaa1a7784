package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/arcanaland/cardwall/internal/card"
	"github.com/arcanaland/cardwall/internal/scene"
)

// CellAspect is the height of a terminal cell relative to its width
const CellAspect = 2.0

var bucketPainters = map[card.Bucket]*color.Color{
	card.Red:    color.New(color.FgHiRed, color.Bold),
	card.Yellow: color.New(color.FgHiYellow, color.Bold),
	card.Green:  color.New(color.FgHiGreen, color.Bold),
}

// TerminalSize returns the size of the terminal on fd, or 80x24 when it
// cannot be determined
func TerminalSize(fd int) (int, int) {
	width, height, err := term.GetSize(fd)
	if err != nil || width <= 0 || height <= 0 {
		return 80, 24
	}
	return width, height
}

// Terminal draws frames as a character grid: each card is the initial of
// its name in its bucket color. The last row is a status line.
type Terminal struct {
	out    io.Writer
	width  int
	height int
	wipe   bool
}

// NewTerminal returns a renderer writing to out. With wipe set every
// frame starts by homing the cursor and clearing the screen.
func NewTerminal(out io.Writer, width, height int, wipe bool) *Terminal {
	t := &Terminal{out: out, wipe: wipe}
	t.SetSize(width, height)
	return t
}

// SetSize sets the grid size in cells
func (t *Terminal) SetSize(width, height int) {
	t.width = max(width, 1)
	t.height = max(height, 2)
}

type cell struct {
	glyph  rune
	bucket card.Bucket
	set    bool
}

// Render draws the frame far cards first so nearer cards overwrite them
func (t *Terminal) Render(f scene.Frame) error {
	rows := t.height - 1
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, t.width)
	}

	cam := f.Camera
	cam.Aspect = float64(t.width) / (float64(rows) * CellAspect)

	type projected struct {
		x, y  int
		depth float64
		card  scene.CardFrame
	}
	visible := make([]projected, 0, len(f.Cards))
	for _, c := range f.Cards {
		nx, ny, depth, ok := cam.Project(c.Pose.Position)
		if !ok || nx < -1 || nx > 1 || ny < -1 || ny > 1 {
			continue
		}
		sx := int((nx + 1) / 2 * float64(t.width))
		sy := int((1 - ny) / 2 * float64(rows))
		visible = append(visible, projected{
			x:     min(sx, t.width-1),
			y:     min(sy, rows-1),
			depth: depth,
			card:  c,
		})
	}
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].depth > visible[j].depth })

	for _, p := range visible {
		grid[p.y][p.x] = cell{glyph: initial(p.card.Name), bucket: p.card.Bucket, set: true}
	}

	var b strings.Builder
	if t.wipe {
		b.WriteString("\x1b[H\x1b[2J")
	}
	for _, row := range grid {
		for _, c := range row {
			if !c.set {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(bucketPainters[c.bucket].Sprint(string(c.glyph)))
		}
		b.WriteByte('\n')
	}
	b.WriteString(color.CyanString("frame %d", f.Seq))
	fmt.Fprintf(&b, "  %d cards  %d visible", len(f.Cards), len(visible))
	b.WriteByte('\n')

	_, err := io.WriteString(t.out, b.String())
	return err
}

func initial(name string) rune {
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
	}
	return '#'
}
