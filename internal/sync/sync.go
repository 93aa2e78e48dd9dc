package sync

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lexicalmathical/notehub/internal/db"
	"github.com/lexicalmathical/notehub/internal/models"
)

// Source is the remote capability the engine reconciles from. Both listings
// return one page at a time with an opaque continuation token; an empty token
// in a response means the listing is drained.
type Source interface {
	ListIssues(ctx context.Context, owner, name, state string, page models.PageToken) ([]models.Issue, models.PageToken, error)
	ListIssuesByUpdated(ctx context.Context, owner, name string, page models.PageToken) ([]models.Issue, models.PageToken, error)
}

// Engine reconciles remote issue state into the local cache.
type Engine struct {
	db     *db.DB
	source Source
}

// New creates a new sync engine
func New(database *db.DB, source Source) *Engine {
	return &Engine{db: database, source: source}
}

// Result reports the outcome of one repository's sync pass.
type Result struct {
	Repo   string
	Synced int
	Err    error
}

// SyncRepository runs a full reconciliation pass for one repository: every
// page (open and closed issues) is fetched and upserted page by page, then
// the repository's cursor is updated. A failed page fetch aborts the pass
// without touching the cursor; records already upserted from earlier pages
// stay in the cache and the next pass overwrites them.
func (e *Engine) SyncRepository(ctx context.Context, repo *models.Repository) (int, error) {
	started := time.Now().UTC()
	var (
		total      int
		maxUpdated time.Time
		page       models.PageToken
	)

	for {
		issues, next, err := e.source.ListIssues(ctx, repo.Owner, repo.Name, models.StateAll, page)
		if err != nil {
			return total, fmt.Errorf("sync %s: %w", repo.FullName, err)
		}

		for i := range issues {
			if err := e.db.UpsertIssue(repo.ID, &issues[i]); err != nil {
				return total, fmt.Errorf("sync %s: %w", repo.FullName, err)
			}
			if issues[i].UpdatedAt.After(maxUpdated) {
				maxUpdated = issues[i].UpdatedAt
			}
			total++
		}

		if next == "" {
			break
		}
		page = next
	}

	// The cursor records when the pass started; anything updated after that
	// instant is picked up by the next pass.
	cursor := &models.SyncCursor{LastSyncedAt: started, LastSeenUpdate: maxUpdated}
	if err := e.db.SetCursor(repo.ID, cursor); err != nil {
		return total, fmt.Errorf("sync %s: %w", repo.FullName, err)
	}

	log.Printf("Synced %s (%d issues)", repo.FullName, total)
	return total, nil
}

// SyncRepositoryIncremental fetches only issues updated since the last fully
// completed pass, walking the updated-at-ordered listing until it reaches
// records older than the cursor. Falls back to a full pass when the
// repository has no cursor yet. The cursor rule is the same as for a full
// pass: it advances only when the incremental pass completes.
func (e *Engine) SyncRepositoryIncremental(ctx context.Context, repo *models.Repository) (int, error) {
	cursor, err := e.db.GetCursor(repo.ID)
	if err != nil {
		return 0, fmt.Errorf("sync %s: %w", repo.FullName, err)
	}
	if cursor == nil || cursor.LastSeenUpdate.IsZero() {
		return e.SyncRepository(ctx, repo)
	}

	since := cursor.LastSeenUpdate
	started := time.Now().UTC()
	maxUpdated := since
	var (
		total int
		page  models.PageToken
	)

	for {
		issues, next, err := e.source.ListIssuesByUpdated(ctx, repo.Owner, repo.Name, page)
		if err != nil {
			return total, fmt.Errorf("sync %s: %w", repo.FullName, err)
		}

		reachedKnown := false
		for i := range issues {
			// Records at exactly the cursor time are re-fetched; upserts are
			// idempotent, and skipping them could miss same-instant updates.
			if issues[i].UpdatedAt.Before(since) {
				reachedKnown = true
				break
			}
			if err := e.db.UpsertIssue(repo.ID, &issues[i]); err != nil {
				return total, fmt.Errorf("sync %s: %w", repo.FullName, err)
			}
			if issues[i].UpdatedAt.After(maxUpdated) {
				maxUpdated = issues[i].UpdatedAt
			}
			total++
		}

		if reachedKnown || next == "" {
			break
		}
		page = next
	}

	if err := e.db.SetCursor(repo.ID, &models.SyncCursor{LastSyncedAt: started, LastSeenUpdate: maxUpdated}); err != nil {
		return total, fmt.Errorf("sync %s: %w", repo.FullName, err)
	}

	log.Printf("Synced %s incrementally (%d issues updated)", repo.FullName, total)
	return total, nil
}

// SyncAll runs a pass for every tracked repository in registry order. A
// failure in one repository never aborts the others; each repository's
// outcome is reported in its own Result so callers surface every failure.
func (e *Engine) SyncAll(ctx context.Context, incremental bool) ([]Result, error) {
	repos, err := e.db.ListRepositories()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(repos))
	for i := range repos {
		repo := &repos[i]

		var (
			synced int
			err    error
		)
		if incremental {
			synced, err = e.SyncRepositoryIncremental(ctx, repo)
		} else {
			synced, err = e.SyncRepository(ctx, repo)
		}
		if err != nil {
			log.Printf("Failed to sync %s: %v", repo.FullName, err)
		}

		results = append(results, Result{Repo: repo.FullName, Synced: synced, Err: err})
	}

	return results, nil
}

// ParseRepositoryString parses a repository string in the format "owner/name"
func ParseRepositoryString(repoStr string) (string, string, error) {
	parts := strings.Split(repoStr, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format, expected 'owner/name', got '%s'", repoStr)
	}
	return parts[0], parts[1], nil
}
