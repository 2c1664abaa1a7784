package deck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/cardwall/internal/card"
	"github.com/arcanaland/cardwall/internal/sheet"
)

func TestFromRows(t *testing.T) {
	rows := []sheet.Row{
		{"name": "A", "net_worth": "$10"},
		{"name": "B", "net_worth": "$150,000"},
		{"name": "C", "net_worth": "$900,000"},
		{"name": "D"},
	}

	d := FromRows("mem", rows)

	require.Equal(t, 4, d.Len())
	assert.NotEmpty(t, d.ID)
	for i, c := range d.Cards {
		assert.Equal(t, i, c.Index)
	}
	assert.Equal(t, map[card.Bucket]int{card.Red: 2, card.Yellow: 1, card.Green: 1}, d.Counts())

	c, err := d.Card(2)
	require.NoError(t, err)
	assert.Equal(t, "C", c.Name)

	_, err = d.Card(4)
	assert.ErrorIs(t, err, ErrNoCard)
	_, err = d.Card(-1)
	assert.ErrorIs(t, err, ErrNoCard)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,Net Worth\nA,\"$1,000\"\nB,$300000\n"), 0644))

	d, err := Load(context.Background(), nil, path)
	require.NoError(t, err)
	assert.Equal(t, path, d.Source)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, card.Green, d.Cards[1].Bucket)

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0644))
	_, err = Load(context.Background(), nil, empty)
	assert.ErrorIs(t, err, sheet.ErrEmptySheet)
}
