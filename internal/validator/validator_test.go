package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/cardwall/internal/sheet"
)

func hasMessage(msgs []string, fragment string) bool {
	for _, m := range msgs {
		if strings.Contains(m, fragment) {
			return true
		}
	}
	return false
}

func TestValidateClean(t *testing.T) {
	text := "Name,Country,Age,Interest,Photo,Net Worth\n" +
		`Ada,UK,36,Engines,https://example.com/a.jpg,"$150,000"` + "\n" +
		"Alan,UK,41,Machines,,$0\n"

	results, err := NewValidator("mem", text).Validate()
	require.NoError(t, err)
	assert.Empty(t, results.Errors)
	assert.Empty(t, results.Warnings)
}

func TestValidateEmpty(t *testing.T) {
	_, err := NewValidator("mem", "\n\n").Validate()
	assert.ErrorIs(t, err, sheet.ErrEmptySheet)
}

func TestValidateProblems(t *testing.T) {
	text := "Name,Name,,Net Worth,Photo\n" +
		"Ada\n" +
		"Bob,x,y,lots,ftp://nope,extra\n" +
		`"Cy ""the guy""",a,b,$5,` + "\n" +
		`"Dee,a,b,$5,` + "\n"

	results, err := NewValidator("mem", text).Validate()
	require.NoError(t, err)

	t.Run("errors", func(t *testing.T) {
		assert.True(t, hasMessage(results.Errors, "column 2 duplicates header \"name\""))
		assert.True(t, hasMessage(results.Errors, "column 3 has an empty header"))
		assert.True(t, hasMessage(results.Errors, "line 5 has an unbalanced quote"))
	})

	t.Run("warnings", func(t *testing.T) {
		assert.True(t, hasMessage(results.Warnings, `column "country" not found`))
		assert.True(t, hasMessage(results.Warnings, "line 2 has 1 fields, header has 5"))
		assert.True(t, hasMessage(results.Warnings, "line 3 has 6 fields"))
		assert.True(t, hasMessage(results.Warnings, `net worth "lots" is not a number`))
		assert.True(t, hasMessage(results.Warnings, `photo "ftp://nope"`))
		assert.True(t, hasMessage(results.Warnings, "line 4 contains doubled quotes"))
	})
}

func TestValidateHeaderOnly(t *testing.T) {
	results, err := NewValidator("mem", "name,country,age,interest,photo,net_worth").Validate()
	require.NoError(t, err)
	assert.Equal(t, []string{"sheet has a header but no rows"}, results.Warnings)
}

func TestValidateEmptyQuotedFields(t *testing.T) {
	text := "name,country,age,interest,photo,net_worth\n" +
		`"",UK,36,Engines,,$1` + "\n" +
		`Ada,UK,36,Engines,,""` + "\n" +
		`Ada, "" ,36,Engines,,$1` + "\n"

	results, err := NewValidator("mem", text).Validate()
	require.NoError(t, err)
	assert.False(t, hasMessage(results.Warnings, "doubled quotes"), results.Warnings)
}

func TestHasDoubledQuote(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{`"",UK`, false},
		{`UK,""`, false},
		{`a,"",b`, false},
		{`"Cy ""the guy""",a`, true},
		{`a""b,c`, true},
		{`"""",a`, true},
		{`"x"",a`, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, hasDoubledQuote(tt.line))
		})
	}
}
