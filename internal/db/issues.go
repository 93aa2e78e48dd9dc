package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lexicalmathical/notehub/internal/models"
)

// UpsertIssue saves an issue keyed by (repository, number). Existing records
// are overwritten wholesale with the newer fetched data; there is no
// field-level merging. The write is a single statement, so concurrent readers
// see either the old record or the new one, never a mix.
func (db *DB) UpsertIssue(repoID int64, issue *models.Issue) error {
	query := `
	INSERT INTO issues (repository_id, number, title, body, state, author, labels, comment_count, created_at, updated_at, closed_at, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(repository_id, number) DO UPDATE SET
		title = excluded.title,
		body = excluded.body,
		state = excluded.state,
		author = excluded.author,
		labels = excluded.labels,
		comment_count = excluded.comment_count,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		closed_at = excluded.closed_at,
		fetched_at = excluded.fetched_at
	`

	_, err := db.Exec(
		query,
		repoID,
		issue.Number,
		issue.Title,
		issue.Body,
		issue.State,
		issue.Author,
		strings.Join(issue.Labels, ","),
		issue.CommentCount,
		issue.CreatedAt,
		issue.UpdatedAt,
		issue.ClosedAt,
		issue.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save issue #%d: %w", issue.Number, err)
	}

	return nil
}

// GetIssue returns the cached record for one issue, or ErrIssueNotFound.
func (db *DB) GetIssue(repoID int64, number int) (*models.Issue, error) {
	query := `SELECT number, title, body, state, author, labels, comment_count, created_at, updated_at, closed_at, fetched_at
	FROM issues WHERE repository_id = ? AND number = ?`

	issue, err := scanIssue(db.QueryRow(query, repoID, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("issue #%d: %w", number, ErrIssueNotFound)
		}
		return nil, fmt.Errorf("failed to get issue #%d: %w", number, err)
	}

	return issue, nil
}

// ListIssues returns the cached issues of one repository, most recent number
// first. stateFilter is one of models.StateOpen, StateClosed or StateAll.
func (db *DB) ListIssues(repoID int64, stateFilter string) ([]models.Issue, error) {
	query := `SELECT number, title, body, state, author, labels, comment_count, created_at, updated_at, closed_at, fetched_at
	FROM issues WHERE repository_id = ?`
	args := []interface{}{repoID}

	if stateFilter != models.StateAll {
		query += ` AND state = ?`
		args = append(args, stateFilter)
	}
	query += ` ORDER BY number DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []models.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, *issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	return issues, nil
}

// RepoIssue pairs a cached issue with the repository it belongs to, for
// listings that span every tracked repository.
type RepoIssue struct {
	RepoFullName string
	Issue        models.Issue
}

// ListAllIssues returns cached issues across all tracked repositories,
// grouped by repository in registry insertion order, most recent number
// first within each repository.
func (db *DB) ListAllIssues(stateFilter string) ([]RepoIssue, error) {
	query := `SELECT r.full_name, i.number, i.title, i.body, i.state, i.author, i.labels, i.comment_count, i.created_at, i.updated_at, i.closed_at, i.fetched_at
	FROM issues i
	JOIN repositories r ON r.id = i.repository_id`
	var args []interface{}

	if stateFilter != models.StateAll {
		query += ` WHERE i.state = ?`
		args = append(args, stateFilter)
	}
	query += ` ORDER BY r.id, i.number DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []RepoIssue
	for rows.Next() {
		var (
			fullName string
			issue    models.Issue
			labels   string
			closedAt sql.NullTime
		)
		err := rows.Scan(
			&fullName, &issue.Number, &issue.Title, &issue.Body, &issue.State,
			&issue.Author, &labels, &issue.CommentCount,
			&issue.CreatedAt, &issue.UpdatedAt, &closedAt, &issue.FetchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issue.Labels = splitLabels(labels)
		if closedAt.Valid {
			t := closedAt.Time
			issue.ClosedAt = &t
		}
		issues = append(issues, RepoIssue{RepoFullName: fullName, Issue: issue})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	return issues, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIssue(row rowScanner) (*models.Issue, error) {
	var (
		issue    models.Issue
		labels   string
		closedAt sql.NullTime
	)
	err := row.Scan(
		&issue.Number, &issue.Title, &issue.Body, &issue.State, &issue.Author,
		&labels, &issue.CommentCount,
		&issue.CreatedAt, &issue.UpdatedAt, &closedAt, &issue.FetchedAt,
	)
	if err != nil {
		return nil, err
	}
	issue.Labels = splitLabels(labels)
	if closedAt.Valid {
		t := closedAt.Time
		issue.ClosedAt = &t
	}
	return &issue, nil
}

func splitLabels(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
