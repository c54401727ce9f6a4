package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/notevault/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "notevault.json"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.SaveExample(path); err != nil {
			return err
		}
		printSuccess("Wrote %s", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !jsonOutput {
			fmt.Printf("notes:    %s\nusers:    %s\nformat:   %s\n",
				cfg.NotesPath(), cfg.DatabasePath(), cfg.Vault.RecordFormat)
			return nil
		}
		printJSON(cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
}
