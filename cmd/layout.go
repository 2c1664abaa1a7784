package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arcanaland/cardwall/internal/layout"
)

type layoutEntry struct {
	Index       int `json:"index" yaml:"index"`
	layout.Pose `yaml:",inline"`
}

type layoutOutput struct {
	Arrangement layout.Arrangement `json:"arrangement" yaml:"arrangement"`
	Count       int                `json:"count" yaml:"count"`
	Poses       []layoutEntry      `json:"poses" yaml:"poses"`
}

var layoutCmd = &cobra.Command{
	Use:   "layout <arrangement>",
	Short: "Print the target poses of an arrangement",
	Long: `Layout prints the position and rotation every card takes in one of the
arrangements: table, sphere, helix or grid.

By default the card count comes from the configured sheet. Pass --count to
compute poses for an arbitrary number of cards without fetching anything.

Examples:
  cardwall layout sphere --count 10
  cardwall layout grid --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arrangement, err := layout.ParseArrangement(args[0])
		if err != nil {
			return err
		}

		count, _ := cmd.Flags().GetInt("count")
		format, _ := cmd.Flags().GetString("format")
		if format != "json" && format != "yaml" {
			return fmt.Errorf("unknown format %q, expected json or yaml", format)
		}

		if count < 0 {
			d, err := loadDeck(cmd.Context())
			if err != nil {
				return err
			}
			count = d.Len()
		}

		poses, err := layout.Compute(count).Targets(arrangement)
		if err != nil {
			return err
		}

		out := layoutOutput{Arrangement: arrangement, Count: count, Poses: make([]layoutEntry, len(poses))}
		for i, p := range poses {
			out.Poses[i] = layoutEntry{Index: i, Pose: p}
		}
		return writeLayout(os.Stdout, format, out)
	},
}

func init() {
	RootCmd.AddCommand(layoutCmd)

	layoutCmd.Flags().IntP("count", "n", -1, "Number of cards (defaults to the sheet's row count)")
	layoutCmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
}

func writeLayout(w io.Writer, format string, out layoutOutput) error {
	if format == "yaml" {
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(out); err != nil {
			return fmt.Errorf("error encoding layout: %w", err)
		}
		return encoder.Close()
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("error encoding layout: %w", err)
	}
	return nil
}
