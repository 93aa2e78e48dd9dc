package resolve

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/lexicalmathical/notehub/internal/api"
	"github.com/lexicalmathical/notehub/internal/db"
	"github.com/lexicalmathical/notehub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	issue models.Issue
	err   error
	calls int
}

func (f *fakeFetcher) GetIssue(_ context.Context, _, _ string, _ int) (models.Issue, error) {
	f.calls++
	if f.err != nil {
		return models.Issue{}, f.err
	}
	return f.issue, nil
}

func newTestDB(t *testing.T) (*db.DB, *models.Repository) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "notehub.db"))
	require.NoError(t, err)
	require.NoError(t, database.Initialize())
	t.Cleanup(func() { database.Close() })

	repo, err := database.AddRepository("octo", "widgets")
	require.NoError(t, err)
	return database, repo
}

func makeIssue(number int) models.Issue {
	now := time.Now().UTC().Truncate(time.Second)
	return models.Issue{
		Number:    number,
		Title:     "A cached issue",
		State:     models.StateOpen,
		Author:    "alice",
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now,
		FetchedAt: now,
	}
}

func TestViewCacheHitSkipsRemote(t *testing.T) {
	database, repo := newTestDB(t)
	cached := makeIssue(7)
	require.NoError(t, database.UpsertIssue(repo.ID, &cached))

	fetcher := &fakeFetcher{err: fmt.Errorf("%w: must not be called", api.ErrRemoteUnavailable)}
	resolver := New(database, fetcher)

	issue, err := resolver.View(context.Background(), repo, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, issue.Number)
	assert.Zero(t, fetcher.calls)
}

func TestViewBackfillsOnMiss(t *testing.T) {
	database, repo := newTestDB(t)
	fetcher := &fakeFetcher{issue: makeIssue(42)}
	resolver := New(database, fetcher)

	issue, err := resolver.View(context.Background(), repo, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, issue.Number)
	assert.Equal(t, 1, fetcher.calls)

	// The backfilled record is now served from the cache, no further network.
	listed, err := resolver.List(repo, models.StateAll)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 42, listed[0].Number)

	_, err = resolver.View(context.Background(), repo, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
}

func TestViewRemoteNotFound(t *testing.T) {
	database, repo := newTestDB(t)
	fetcher := &fakeFetcher{err: api.ErrRemoteNotFound}
	resolver := New(database, fetcher)

	_, err := resolver.View(context.Background(), repo, 99)
	require.ErrorIs(t, err, api.ErrRemoteNotFound)
	assert.Equal(t, 1, fetcher.calls)

	// The failed fetch left nothing behind.
	listed, err := resolver.List(repo, models.StateAll)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestViewRemoteUnavailable(t *testing.T) {
	database, repo := newTestDB(t)
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: connection refused", api.ErrRemoteUnavailable)}
	resolver := New(database, fetcher)

	_, err := resolver.View(context.Background(), repo, 99)
	require.ErrorIs(t, err, api.ErrRemoteUnavailable)
}

func TestViewRateLimited(t *testing.T) {
	database, repo := newTestDB(t)
	fetcher := &fakeFetcher{err: &api.RateLimitError{ResetTime: time.Now().Add(time.Minute)}}
	resolver := New(database, fetcher)

	_, err := resolver.View(context.Background(), repo, 99)
	var rateErr *api.RateLimitError
	require.ErrorAs(t, err, &rateErr)
}

func TestListNeverTouchesRemote(t *testing.T) {
	database, repo := newTestDB(t)
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: must not be called", api.ErrRemoteUnavailable)}
	resolver := New(database, fetcher)

	// Empty cache is a valid, empty result, not an error and not a fetch.
	listed, err := resolver.List(repo, models.StateAll)
	require.NoError(t, err)
	assert.Empty(t, listed)
	assert.Zero(t, fetcher.calls)

	all, err := resolver.ListAll(models.StateAll)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Zero(t, fetcher.calls)
}
