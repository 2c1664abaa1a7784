package card

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/arcanaland/cardwall/internal/sheet"
)

// Bucket is the net worth color band of a card
type Bucket int

const (
	Red    Bucket = iota // below 100k
	Yellow               // 100k up to 200k
	Green                // 200k and above
)

// Net worth thresholds between buckets
const (
	YellowThreshold = 100000
	GreenThreshold  = 200000
)

var bucketColors = map[Bucket]colorful.Color{
	Red:    rgb(239, 48, 34),
	Yellow: rgb(253, 202, 53),
	Green:  rgb(58, 159, 72),
}

// BucketFor returns the color band for a net worth value
func BucketFor(netWorth float64) Bucket {
	switch {
	case netWorth < YellowThreshold:
		return Red
	case netWorth < GreenThreshold:
		return Yellow
	default:
		return Green
	}
}

func (b Bucket) String() string {
	switch b {
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	case Green:
		return "green"
	default:
		return fmt.Sprintf("bucket(%d)", int(b))
	}
}

// Color returns the bucket's base color
func (b Bucket) Color() colorful.Color {
	return bucketColors[b]
}

// RGB returns the bucket color as 8-bit channels
func (b Bucket) RGB() (uint8, uint8, uint8) {
	return b.Color().RGB255()
}

// Hex returns the bucket color as #rrggbb
func (b Bucket) Hex() string {
	return b.Color().Hex()
}

// RGBA formats the bucket color as a CSS rgba() value
func (b Bucket) RGBA(alpha float64) string {
	r, g, bl := b.RGB()
	return fmt.Sprintf("rgba(%d,%d,%d,%g)", r, g, bl, alpha)
}

func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bucket) UnmarshalText(text []byte) error {
	for _, candidate := range []Bucket{Red, Yellow, Green} {
		if candidate.String() == string(text) {
			*b = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown bucket %q", text)
}

// Card represents one person from the sheet
type Card struct {
	Index    int     `json:"index" yaml:"index"`
	Name     string  `json:"name" yaml:"name"`
	Country  string  `json:"country" yaml:"country"`
	Age      string  `json:"age" yaml:"age"`
	Interest string  `json:"interest" yaml:"interest"`
	PhotoURL string  `json:"photo,omitempty" yaml:"photo,omitempty"`
	NetWorth float64 `json:"net_worth" yaml:"net_worth"`
	Bucket   Bucket  `json:"bucket" yaml:"bucket"`

	// Fields keeps every column of the source row, recognized or not
	Fields sheet.Row `json:"-" yaml:"-"`
}

// HasPhoto reports whether the card carries a photo URL
func (c *Card) HasPhoto() bool {
	return c.PhotoURL != ""
}

// Build derives a card from a sheet row. It never fails: a malformed
// net worth counts as zero and missing fields are empty.
func Build(index int, row sheet.Row) *Card {
	netWorthField := row.Get("net_worth")
	if netWorthField == "" {
		netWorthField = row.Get("Net Worth")
	}
	netWorth := ParseNetWorth(netWorthField)

	return &Card{
		Index:    index,
		Name:     row.Get("name"),
		Country:  row.Get("country"),
		Age:      row.Get("age"),
		Interest: row.Get("interest"),
		PhotoURL: row.Get("photo"),
		NetWorth: netWorth,
		Bucket:   BucketFor(netWorth),
		Fields:   row,
	}
}

// ParseNetWorth strips "$" and "," and reads the leading decimal number,
// ignoring any text after it. Anything without a number, negative or
// non-finite yields 0.
func ParseNetWorth(s string) float64 {
	v, _ := LookupNetWorth(s)
	return v
}

// LookupNetWorth is ParseNetWorth that also reports whether s held a usable
// value. A literal zero is usable; "lots" or "-5" are not.
func LookupNetWorth(s string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(s))
	prefix := decimalPrefix(cleaned)
	if prefix == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// decimalPrefix returns the longest leading [sign]digits[.digits][exponent]
// run of s. Hex and special values like "Inf" are not numbers here.
func decimalPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
			digits++
		}
		if digits > 0 {
			i = j
		}
	}
	if digits == 0 {
		return ""
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return s[:i]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}
