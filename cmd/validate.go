package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardwall/internal/sheet"
	"github.com/arcanaland/cardwall/internal/validator"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [source]",
	Short: "Validate a people sheet",
	Long: `Validate checks that a sheet has the columns cardwall reads (name, country,
age, interest, photo, net_worth), that every row lines up with the header and
that net worth values parse. The source defaults to the configured sheet.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := settings.SourceURL
		if len(args) == 1 {
			source = args[0]
		}

		text, err := sheet.Read(cmd.Context(), nil, source)
		if err != nil {
			return err
		}

		// Create validator and run validation
		v := validator.NewValidator(source, text)
		results, err := v.Validate()
		if err != nil {
			return fmt.Errorf("validation error: %w", err)
		}

		// Display validation results
		fmt.Println("Validation Results:")
		fmt.Println("-------------------")

		if len(results.Errors) == 0 {
			fmt.Printf("✅ Sheet '%s' is valid.\n", source)
		} else {
			fmt.Printf("❌ Sheet '%s' has %d validation errors:\n", source, len(results.Errors))
			for i, err := range results.Errors {
				fmt.Printf("%d. %s\n", i+1, err)
			}
		}

		if len(results.Warnings) > 0 {
			fmt.Println("\nWarnings:")
			for i, warn := range results.Warnings {
				fmt.Printf("%d. %s\n", i+1, warn)
			}
		}

		if len(results.Errors) > 0 {
			return fmt.Errorf("validation failed")
		}
		return nil
	},
}
