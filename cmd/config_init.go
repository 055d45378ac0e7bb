package cmd

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/brogergvhs/pocketbot/internal/config"
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultConfig()

		tokenPrompt := promptui.Prompt{
			Label: "Bot token",
			Mask:  '*',
			Validate: func(s string) error {
				if s == "" {
					return fmt.Errorf("token is required")
				}
				return nil
			},
		}
		token, err := tokenPrompt.Run()
		if err != nil {
			return err
		}
		cfg.Token = token

		emailPrompt := promptui.Prompt{
			Label: "Site email (empty for anonymous fetching)",
		}
		email, err := emailPrompt.Run()
		if err != nil {
			return err
		}
		cfg.EmailAddress = email

		if email != "" {
			passwordPrompt := promptui.Prompt{
				Label: "Site password",
				Mask:  '*',
			}
			password, err := passwordPrompt.Run()
			if err != nil {
				return err
			}
			cfg.Password = password
		}

		path := flagConfig
		if path == "" {
			path = config.DefaultPath()
		}

		if err := config.Save(cfg, path); err != nil {
			return err
		}

		fmt.Printf("Config written to %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
