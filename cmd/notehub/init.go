package main

import (
	"errors"
	"fmt"

	"github.com/lexicalmathical/notehub/config"
	"github.com/lexicalmathical/notehub/internal/db"
	"github.com/lexicalmathical/notehub/internal/sync"
	"github.com/spf13/cobra"
)

var (
	initTokenFlag string
	initRepoFlag  string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Configure the GitHub token and default repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if initTokenFlag == "" && initRepoFlag == "" {
			return errors.New("init requires --token and/or --repo")
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.close()

		if initTokenFlag != "" {
			app.cfg.GitHubToken = initTokenFlag
			if err := config.Save(app.cfg, app.configPath); err != nil {
				return err
			}
			fmt.Printf("Configuration saved to %s\n", app.configPath)
		}

		if initRepoFlag != "" {
			owner, name, err := sync.ParseRepositoryString(initRepoFlag)
			if err != nil {
				return err
			}
			if _, err := app.db.AddRepository(owner, name); err != nil && !errors.Is(err, db.ErrAlreadyTracked) {
				return err
			}
			if err := app.db.SetDefaultRepository(initRepoFlag); err != nil {
				return err
			}
			fmt.Printf("Default repository set to %s\n", initRepoFlag)
		}

		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initTokenFlag, "token", "", "GitHub personal access token used for API calls")
	initCmd.Flags().StringVar(&initRepoFlag, "repo", "", "Default repository to work with (owner/name)")
	rootCmd.AddCommand(initCmd)
}
