package db

import (
	"fmt"
	"time"

	"github.com/lexicalmathical/notehub/internal/models"
)

// AddNote attaches a local note to a cached issue. The issue must already be
// in the cache; notes never reference remote state directly.
func (db *DB) AddNote(repoID int64, issueNumber int, body string) (*models.Note, error) {
	var exists int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM issues WHERE repository_id = ? AND number = ?`,
		repoID, issueNumber,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("issue #%d: %w", issueNumber, ErrIssueNotFound)
	}

	createdAt := time.Now().UTC()
	res, err := db.Exec(
		`INSERT INTO notes (repository_id, issue_number, body, created_at) VALUES (?, ?, ?, ?)`,
		repoID, issueNumber, body, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}

	return &models.Note{
		ID:          id,
		IssueNumber: issueNumber,
		Body:        body,
		CreatedAt:   createdAt,
	}, nil
}

// ListNotes returns the notes attached to an issue, oldest first.
func (db *DB) ListNotes(repoID int64, issueNumber int) ([]models.Note, error) {
	query := `SELECT id, issue_number, body, created_at
	FROM notes WHERE repository_id = ? AND issue_number = ? ORDER BY id`

	rows, err := db.Query(query, repoID, issueNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var note models.Note
		if err := rows.Scan(&note.ID, &note.IssueNumber, &note.Body, &note.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	return notes, nil
}
