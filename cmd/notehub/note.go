package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lexicalmathical/notehub/internal/db"
	"github.com/spf13/cobra"
)

var noteRepoFlag string

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage local-only notes tied to issues",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <number> <text>",
	Short: "Attach a note to a cached issue",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid issue number %q", args[0])
		}
		body := strings.Join(args[1:], " ")

		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.close()

		repo, err := app.targetRepo(noteRepoFlag)
		if err != nil {
			return err
		}

		note, err := app.db.AddNote(repo.ID, number, body)
		if err != nil {
			if errors.Is(err, db.ErrIssueNotFound) {
				return fmt.Errorf("%v (run 'notehub issue view %d' to fetch it first)", err, number)
			}
			return err
		}

		fmt.Printf("Added note %d to %s#%d\n", note.ID, repo.FullName, number)
		return nil
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list <number>",
	Short: "List notes for an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid issue number %q", args[0])
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.close()

		repo, err := app.targetRepo(noteRepoFlag)
		if err != nil {
			return err
		}

		notes, err := app.db.ListNotes(repo.ID, number)
		if err != nil {
			return err
		}
		for _, note := range notes {
			fmt.Printf("[%d] %s  %s\n", note.ID, note.CreatedAt.Local().Format("2006-01-02 15:04"), note.Body)
		}
		return nil
	},
}

func init() {
	noteCmd.PersistentFlags().StringVar(&noteRepoFlag, "repo", "", "Repository the issue belongs to (default: the default repository)")
	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteListCmd)
	rootCmd.AddCommand(noteCmd)
}
