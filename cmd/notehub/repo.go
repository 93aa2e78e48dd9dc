package main

import (
	"fmt"

	"github.com/lexicalmathical/notehub/internal/sync"
	"github.com/spf13/cobra"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage tracked repositories",
}

var repoAddCmd = &cobra.Command{
	Use:   "add <owner/name>",
	Short: "Track a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, name, err := sync.ParseRepositoryString(args[0])
		if err != nil {
			return err
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.close()

		repo, err := app.db.AddRepository(owner, name)
		if err != nil {
			return err
		}

		fmt.Printf("Tracking %s\n", repo.FullName)
		return nil
	},
}

var repoUseCmd = &cobra.Command{
	Use:   "use <owner/name>",
	Short: "Set the default repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, _, err := sync.ParseRepositoryString(args[0]); err != nil {
			return err
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.db.SetDefaultRepository(args[0]); err != nil {
			return err
		}

		fmt.Printf("Default repository set to %s\n", args[0])
		return nil
	},
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked repositories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.close()

		repos, err := app.db.ListRepositories()
		if err != nil {
			return err
		}

		for _, repo := range repos {
			marker := " "
			if repo.IsDefault {
				marker = "*"
			}

			cursor, err := app.db.GetCursor(repo.ID)
			if err != nil {
				return err
			}
			lastSync := "never synced"
			if cursor != nil {
				lastSync = "synced " + cursor.LastSyncedAt.Local().Format("2006-01-02 15:04")
			}

			fmt.Printf("%s %s (%s)\n", marker, repo.FullName, lastSync)
		}
		return nil
	},
}

func init() {
	repoCmd.AddCommand(repoAddCmd)
	repoCmd.AddCommand(repoUseCmd)
	repoCmd.AddCommand(repoListCmd)
	rootCmd.AddCommand(repoCmd)
}
