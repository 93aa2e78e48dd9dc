package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lexicalmathical/notehub/internal/api"
	"github.com/lexicalmathical/notehub/internal/models"
	"github.com/lexicalmathical/notehub/internal/resolve"
	"github.com/spf13/cobra"
)

var (
	issueStateFlag    string
	issueRepoFlag     string
	issueAllReposFlag bool
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Inspect GitHub issues",
}

var issueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues from the local cache",
	Long: `List cached issues, most recent number first. Reads only from the
cache; run 'notehub sync' to refresh it. An empty result can mean the
repository has no matching issues or has simply never been synced.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateStateFilter(issueStateFlag); err != nil {
			return err
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.close()

		resolver := resolve.New(app.db, api.NewClient(app.cfg.GitHubToken))

		if issueAllReposFlag {
			entries, err := resolver.ListAll(issueStateFlag)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Printf("%s#%d [%s] %s\n", entry.RepoFullName, entry.Issue.Number, entry.Issue.State, entry.Issue.Title)
			}
			return nil
		}

		repo, err := app.targetRepo(issueRepoFlag)
		if err != nil {
			return err
		}

		issues, err := resolver.List(repo, issueStateFlag)
		if err != nil {
			return err
		}
		for _, issue := range issues {
			fmt.Printf("#%d [%s] %s\n", issue.Number, issue.State, issue.Title)
		}
		return nil
	},
}

var issueViewCmd = &cobra.Command{
	Use:   "view <number>",
	Short: "View a single issue by number",
	Long: `Show one issue from the cache. If the issue is not cached yet it is
fetched from GitHub once and stored before being displayed.`,
	Args: cobra.ExactArgs(1),
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

		repo, err := app.targetRepo(issueRepoFlag)
		if err != nil {
			return err
		}

		resolver := resolve.New(app.db, api.NewClient(app.cfg.GitHubToken))
		issue, err := resolver.View(cmd.Context(), repo, number)
		if err != nil {
			return err
		}

		printIssue(repo.FullName, issue)
		return nil
	},
}

func printIssue(repoFullName string, issue *models.Issue) {
	fmt.Printf("%s#%d %s\n", repoFullName, issue.Number, issue.Title)
	fmt.Printf("State:    %s\n", issue.State)
	fmt.Printf("Author:   %s\n", issue.Author)
	fmt.Printf("Created:  %s\n", issue.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Printf("Updated:  %s\n", issue.UpdatedAt.Local().Format("2006-01-02 15:04"))
	if issue.ClosedAt != nil {
		fmt.Printf("Closed:   %s\n", issue.ClosedAt.Local().Format("2006-01-02 15:04"))
	}
	if len(issue.Labels) > 0 {
		fmt.Printf("Labels:   %s\n", strings.Join(issue.Labels, ", "))
	}
	fmt.Printf("Comments: %d\n", issue.CommentCount)
	if issue.Body != "" {
		fmt.Printf("\n%s\n", issue.Body)
	}
}

func validateStateFilter(state string) error {
	switch state {
	case models.StateOpen, models.StateClosed, models.StateAll:
		return nil
	}
	return fmt.Errorf("invalid state filter %q, expected open, closed or all", state)
}

func init() {
	issueListCmd.Flags().StringVar(&issueStateFlag, "state", models.StateAll, "Filter by issue state (open|closed|all)")
	issueListCmd.Flags().StringVar(&issueRepoFlag, "repo", "", "Repository to list (default: the default repository)")
	issueListCmd.Flags().BoolVar(&issueAllReposFlag, "all-repos", false, "List issues across every tracked repository")

	issueViewCmd.Flags().StringVar(&issueRepoFlag, "repo", "", "Repository the issue belongs to (default: the default repository)")

	issueCmd.AddCommand(issueListCmd)
	issueCmd.AddCommand(issueViewCmd)
	rootCmd.AddCommand(issueCmd)
}
