package db

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/lexicalmathical/notehub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "notehub.db"))
	require.NoError(t, err)
	require.NoError(t, database.Initialize())
	t.Cleanup(func() { database.Close() })
	return database
}

func testIssue(number int, state string, updatedAt time.Time) *models.Issue {
	issue := &models.Issue{
		Number:       number,
		Title:        fmt.Sprintf("Issue %d", number),
		Body:         "body text",
		State:        state,
		Author:       "alice",
		Labels:       []string{"bug", "help wanted"},
		CommentCount: 2,
		CreatedAt:    updatedAt.Add(-time.Hour),
		UpdatedAt:    updatedAt,
		FetchedAt:    updatedAt,
	}
	if state == models.StateClosed {
		closedAt := updatedAt
		issue.ClosedAt = &closedAt
	}
	return issue
}

func TestAddRepository(t *testing.T) {
	database := newTestDB(t)

	repo, err := database.AddRepository("octo", "widgets")
	require.NoError(t, err)
	assert.Equal(t, "octo/widgets", repo.FullName)
	assert.False(t, repo.IsDefault)

	_, err = database.AddRepository("octo", "widgets")
	require.ErrorIs(t, err, ErrAlreadyTracked)

	// GitHub treats owner/name case-insensitively, so does the registry.
	_, err = database.AddRepository("Octo", "Widgets")
	require.ErrorIs(t, err, ErrAlreadyTracked)
}

func TestGetRepository(t *testing.T) {
	database := newTestDB(t)

	_, err := database.GetRepository("octo/widgets")
	require.ErrorIs(t, err, ErrNotTracked)

	added, err := database.AddRepository("octo", "widgets")
	require.NoError(t, err)

	got, err := database.GetRepository("OCTO/WIDGETS")
	require.NoError(t, err)
	assert.Equal(t, added.ID, got.ID)
	assert.Equal(t, "octo/widgets", got.FullName)
}

func TestDefaultRepository(t *testing.T) {
	database := newTestDB(t)

	_, err := database.DefaultRepository()
	require.ErrorIs(t, err, ErrNoDefaultRepo)

	err = database.SetDefaultRepository("octo/widgets")
	require.ErrorIs(t, err, ErrNotTracked)

	_, err = database.AddRepository("octo", "widgets")
	require.NoError(t, err)
	_, err = database.AddRepository("octo", "gadgets")
	require.NoError(t, err)

	require.NoError(t, database.SetDefaultRepository("octo/widgets"))
	def, err := database.DefaultRepository()
	require.NoError(t, err)
	assert.Equal(t, "octo/widgets", def.FullName)

	// Switching the default clears the previous one.
	require.NoError(t, database.SetDefaultRepository("octo/gadgets"))
	def, err = database.DefaultRepository()
	require.NoError(t, err)
	assert.Equal(t, "octo/gadgets", def.FullName)

	repos, err := database.ListRepositories()
	require.NoError(t, err)
	defaults := 0
	for _, repo := range repos {
		if repo.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestListRepositoriesInsertionOrder(t *testing.T) {
	database := newTestDB(t)

	for _, name := range []string{"zebra", "alpha", "mango"} {
		_, err := database.AddRepository("octo", name)
		require.NoError(t, err)
	}

	repos, err := database.ListRepositories()
	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, "octo/zebra", repos[0].FullName)
	assert.Equal(t, "octo/alpha", repos[1].FullName)
	assert.Equal(t, "octo/mango", repos[2].FullName)
}

func TestUpsertIssueIdempotent(t *testing.T) {
	database := newTestDB(t)
	repo, err := database.AddRepository("octo", "widgets")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	issue := testIssue(7, models.StateOpen, now)

	require.NoError(t, database.UpsertIssue(repo.ID, issue))
	require.NoError(t, database.UpsertIssue(repo.ID, issue))

	issues, err := database.ListIssues(repo.ID, models.StateAll)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	got, err := database.GetIssue(repo.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, issue.Title, got.Title)
	assert.Equal(t, issue.Labels, got.Labels)
	assert.Equal(t, issue.CommentCount, got.CommentCount)
	assert.True(t, got.UpdatedAt.Equal(issue.UpdatedAt))
	assert.Nil(t, got.ClosedAt)
}

func TestUpsertIssueOverwrites(t *testing.T) {
	database := newTestDB(t)
	repo, err := database.AddRepository("octo", "widgets")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, database.UpsertIssue(repo.ID, testIssue(7, models.StateOpen, now)))

	updated := testIssue(7, models.StateClosed, now.Add(time.Hour))
	updated.Title = "Closed now"
	updated.Labels = []string{"wontfix"}
	require.NoError(t, database.UpsertIssue(repo.ID, updated))

	got, err := database.GetIssue(repo.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, "Closed now", got.Title)
	assert.Equal(t, models.StateClosed, got.State)
	assert.Equal(t, []string{"wontfix"}, got.Labels)
	require.NotNil(t, got.ClosedAt)
}

func TestGetIssueNotFound(t *testing.T) {
	database := newTestDB(t)
	repo, err := database.AddRepository("octo", "widgets")
	require.NoError(t, err)

	_, err = database.GetIssue(repo.ID, 99)
	require.ErrorIs(t, err, ErrIssueNotFound)
}

func TestListIssuesOrderAndFilter(t *testing.T) {
	database := newTestDB(t)
	repo, err := database.AddRepository("octo", "widgets")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, database.UpsertIssue(repo.ID, testIssue(1, models.StateOpen, now)))
	require.NoError(t, database.UpsertIssue(repo.ID, testIssue(3, models.StateClosed, now)))
	require.NoError(t, database.UpsertIssue(repo.ID, testIssue(2, models.StateOpen, now)))

	all, err := database.ListIssues(repo.ID, models.StateAll)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].Number)
	assert.Equal(t, 2, all[1].Number)
	assert.Equal(t, 1, all[2].Number)

	open, err := database.ListIssues(repo.ID, models.StateOpen)
	require.NoError(t, err)
	require.Len(t, open, 2)

	closed, err := database.ListIssues(repo.ID, models.StateClosed)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, 3, closed[0].Number)
}

func TestListIssuesPartitionedByRepository(t *testing.T) {
	database := newTestDB(t)
	repoA, err := database.AddRepository("a", "x")
	require.NoError(t, err)
	repoB, err := database.AddRepository("a", "y")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, database.UpsertIssue(repoA.ID, testIssue(1, models.StateOpen, now)))
	require.NoError(t, database.UpsertIssue(repoB.ID, testIssue(1, models.StateOpen, now)))
	require.NoError(t, database.UpsertIssue(repoB.ID, testIssue(2, models.StateOpen, now)))

	issuesA, err := database.ListIssues(repoA.ID, models.StateAll)
	require.NoError(t, err)
	require.Len(t, issuesA, 1)

	issuesB, err := database.ListIssues(repoB.ID, models.StateAll)
	require.NoError(t, err)
	require.Len(t, issuesB, 2)

	all, err := database.ListAllIssues(models.StateAll)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a/x", all[0].RepoFullName)
	assert.Equal(t, "a/y", all[1].RepoFullName)
	assert.Equal(t, 2, all[1].Issue.Number)
	assert.Equal(t, "a/y", all[2].RepoFullName)
}

func TestCursorRoundTrip(t *testing.T) {
	database := newTestDB(t)
	repo, err := database.AddRepository("octo", "widgets")
	require.NoError(t, err)

	cursor, err := database.GetCursor(repo.ID)
	require.NoError(t, err)
	assert.Nil(t, cursor)

	syncedAt := time.Now().UTC().Truncate(time.Second)
	lastSeen := syncedAt.Add(-time.Minute)
	require.NoError(t, database.SetCursor(repo.ID, &models.SyncCursor{
		LastSyncedAt:   syncedAt,
		LastSeenUpdate: lastSeen,
	}))

	cursor, err = database.GetCursor(repo.ID)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.True(t, cursor.LastSyncedAt.Equal(syncedAt))
	assert.True(t, cursor.LastSeenUpdate.Equal(lastSeen))

	// A zero LastSeenUpdate survives as zero, not as some epoch value.
	require.NoError(t, database.SetCursor(repo.ID, &models.SyncCursor{LastSyncedAt: syncedAt}))
	cursor, err = database.GetCursor(repo.ID)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.True(t, cursor.LastSeenUpdate.IsZero())
}

func TestNotes(t *testing.T) {
	database := newTestDB(t)
	repo, err := database.AddRepository("octo", "widgets")
	require.NoError(t, err)

	_, err = database.AddNote(repo.ID, 7, "orphan note")
	require.ErrorIs(t, err, ErrIssueNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, database.UpsertIssue(repo.ID, testIssue(7, models.StateOpen, now)))

	first, err := database.AddNote(repo.ID, 7, "first note")
	require.NoError(t, err)
	_, err = database.AddNote(repo.ID, 7, "second note")
	require.NoError(t, err)

	notes, err := database.ListNotes(repo.ID, 7)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, first.ID, notes[0].ID)
	assert.Equal(t, "first note", notes[0].Body)
	assert.Equal(t, "second note", notes[1].Body)

	// Notes on another issue stay invisible here.
	require.NoError(t, database.UpsertIssue(repo.ID, testIssue(8, models.StateOpen, now)))
	_, err = database.AddNote(repo.ID, 8, "other issue")
	require.NoError(t, err)
	notes, err = database.ListNotes(repo.ID, 7)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestConcurrentErrorsAreNotSilent(t *testing.T) {
	database := newTestDB(t)
	repo, err := database.AddRepository("octo", "widgets")
	require.NoError(t, err)

	require.NoError(t, database.Close())

	_, err = database.ListIssues(repo.ID, models.StateAll)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrIssueNotFound))
}
