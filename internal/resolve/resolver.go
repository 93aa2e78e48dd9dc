// Package resolve serves read requests from the local cache, backfilling
// single issues from the remote on a cache miss.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexicalmathical/notehub/internal/db"
	"github.com/lexicalmathical/notehub/internal/models"
)

// Fetcher is the targeted single-issue capability used for on-demand
// backfill.
type Fetcher interface {
	GetIssue(ctx context.Context, owner, name string, number int) (models.Issue, error)
}

// Resolver answers list and view requests against the cache store.
type Resolver struct {
	db      *db.DB
	fetcher Fetcher
}

// New creates a new resolver
func New(database *db.DB, fetcher Fetcher) *Resolver {
	return &Resolver{db: database, fetcher: fetcher}
}

// List returns the cached issues of one repository. It never touches the
// network; an empty cache yields an empty result, which is also what a
// never-synced repository looks like.
func (r *Resolver) List(repo *models.Repository, stateFilter string) ([]models.Issue, error) {
	return r.db.ListIssues(repo.ID, stateFilter)
}

// ListAll returns cached issues across every tracked repository, cache only.
func (r *Resolver) ListAll(stateFilter string) ([]db.RepoIssue, error) {
	return r.db.ListAllIssues(stateFilter)
}

// View returns one issue: cache lookup first, and on a miss exactly one
// targeted remote fetch whose result is written back before returning. A
// failed fetch is surfaced as-is (remote not found, rate limited,
// unavailable) with no retry; the caller decides what to do.
func (r *Resolver) View(ctx context.Context, repo *models.Repository, number int) (*models.Issue, error) {
	issue, err := r.db.GetIssue(repo.ID, number)
	if err == nil {
		return issue, nil
	}
	if !errors.Is(err, db.ErrIssueNotFound) {
		return nil, err
	}

	fetched, err := r.fetcher.GetIssue(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return nil, fmt.Errorf("issue #%d: %w", number, err)
	}

	if err := r.db.UpsertIssue(repo.ID, &fetched); err != nil {
		return nil, err
	}
	return &fetched, nil
}
