package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lexicalmathical/notehub/internal/api"
	"github.com/lexicalmathical/notehub/internal/models"
	"github.com/lexicalmathical/notehub/internal/sync"
	"github.com/spf13/cobra"
)

var (
	syncAllFlag         bool
	syncIncrementalFlag bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [owner/name]",
	Short: "Synchronize GitHub issues into the local cache",
	Long: `Run a reconciliation pass that fetches open and closed issues from
GitHub and merges them into the local cache. Without arguments the default
repository is synced; --all syncs every tracked repository, reporting each
failure individually without aborting the others.

--incremental fetches only issues updated since the last completed pass.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.close()

		engine := sync.New(app.db, api.NewClient(app.cfg.GitHubToken))
		ctx := cmd.Context()

		if syncAllFlag {
			results, err := engine.SyncAll(ctx, syncIncrementalFlag)
			if err != nil {
				return err
			}

			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					reportSyncError(res.Repo, res.Err)
					continue
				}
				fmt.Printf("%s: %d issues\n", res.Repo, res.Synced)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d repositories failed to sync", failed, len(results))
			}
			return nil
		}

		var repo *models.Repository
		if len(args) == 1 {
			if _, _, err := sync.ParseRepositoryString(args[0]); err != nil {
				return err
			}
			repo, err = app.db.GetRepository(args[0])
		} else {
			repo, err = app.db.DefaultRepository()
		}
		if err != nil {
			return err
		}

		var synced int
		if syncIncrementalFlag {
			synced, err = engine.SyncRepositoryIncremental(ctx, repo)
		} else {
			synced, err = engine.SyncRepository(ctx, repo)
		}
		if err != nil {
			reportSyncError(repo.FullName, err)
			return fmt.Errorf("sync failed")
		}

		fmt.Printf("%s: %d issues\n", repo.FullName, synced)
		return nil
	},
}

// reportSyncError prints a per-repository failure, calling out rate limits so
// the user knows the sync is worth retrying after the reset.
func reportSyncError(repo string, err error) {
	var rateErr *api.RateLimitError
	if errors.As(err, &rateErr) {
		fmt.Fprintf(os.Stderr, "%s: rate limited, retry after %s\n", repo, rateErr.ResetTime.Format(time.RFC3339))
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", repo, err)
}

func init() {
	syncCmd.Flags().BoolVar(&syncAllFlag, "all", false, "Sync every tracked repository")
	syncCmd.Flags().BoolVar(&syncIncrementalFlag, "incremental", false, "Only fetch issues updated since the last completed sync")
	rootCmd.AddCommand(syncCmd)
}
