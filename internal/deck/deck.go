package deck

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/arcanaland/cardwall/internal/card"
	"github.com/arcanaland/cardwall/internal/sheet"
)

// ErrNoCard is returned when a card index is out of range
var ErrNoCard = errors.New("card not found")

// Deck is the ordered set of cards built from one sheet load.
// It is never mutated after construction.
type Deck struct {
	ID     string
	Source string
	Cards  []*card.Card
}

// Load reads the sheet at source and builds a deck from its rows
func Load(ctx context.Context, client *http.Client, source string) (*Deck, error) {
	rows, err := sheet.Load(ctx, client, source)
	if err != nil {
		return nil, fmt.Errorf("error loading sheet: %w", err)
	}
	return FromRows(source, rows), nil
}

// FromRows builds a deck with one card per row, in row order
func FromRows(source string, rows []sheet.Row) *Deck {
	d := &Deck{
		ID:     uuid.NewString(),
		Source: source,
		Cards:  make([]*card.Card, len(rows)),
	}
	for i, row := range rows {
		d.Cards[i] = card.Build(i, row)
	}
	return d
}

// Len returns the number of cards
func (d *Deck) Len() int {
	return len(d.Cards)
}

// Card gets a card by its position in the sheet
func (d *Deck) Card(index int) (*card.Card, error) {
	if index < 0 || index >= len(d.Cards) {
		return nil, fmt.Errorf("%w: index %d (deck has %d cards)", ErrNoCard, index, len(d.Cards))
	}
	return d.Cards[index], nil
}

// Counts tallies cards per net worth bucket
func (d *Deck) Counts() map[card.Bucket]int {
	counts := map[card.Bucket]int{card.Red: 0, card.Yellow: 0, card.Green: 0}
	for _, c := range d.Cards {
		counts[c.Bucket]++
	}
	return counts
}
