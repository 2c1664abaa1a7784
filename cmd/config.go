package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/arcanaland/cardwall/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the cardwall configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file and photo cache directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		// The root command has already written defaults if the file was missing
		cacheDir := config.GetCacheDir()
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}

		fmt.Println("Cardwall initialized successfully.")
		fmt.Printf("Config file: %s\n", configPath)
		fmt.Printf("Photo cache: %s\n", cacheDir)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Show prints the configuration after the config file, CARDWALL_*
environment variables and command line flags have been applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("# %s\n", configPath)
		return toml.NewEncoder(os.Stdout).Encode(settings)
	},
}

var configSetStartCmd = &cobra.Command{
	Use:   "set-start <arrangement>",
	Short: "Set the arrangement the wall starts in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetStartArrangement(configPath, args[0]); err != nil {
			return err
		}
		fmt.Printf("Start arrangement set to %s\n", args[0])
		return nil
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetStartCmd)
}
