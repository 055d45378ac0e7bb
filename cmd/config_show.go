package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/pocketbot/internal/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration (secrets redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, usedPath, err := config.Load(config.Options{
			File:  flagConfig,
			Debug: flagDebug,
		})
		if err != nil {
			return err
		}

		if usedPath != "" {
			fmt.Printf("Config file: %s\n", usedPath)
		} else {
			fmt.Println("No config file found, showing defaults and environment.")
		}
		cfg.Print()

		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
