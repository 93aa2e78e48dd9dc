package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lexicalmathical/notehub/internal/models"
	"github.com/mattn/go-sqlite3"
)

// AddRepository registers a repository in the tracking registry. Repositories
// are only ever created here, never implicitly by sync. Adding an
// already-tracked repository fails with ErrAlreadyTracked; full names compare
// case-insensitively, matching GitHub's own rules.
func (db *DB) AddRepository(owner, name string) (*models.Repository, error) {
	fullName := owner + "/" + name
	addedAt := time.Now().UTC()

	res, err := db.Exec(
		`INSERT INTO repositories (owner, name, full_name, is_default, added_at)
		VALUES (?, ?, ?, 0, ?)`,
		owner, name, fullName, addedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("%s: %w", fullName, ErrAlreadyTracked)
		}
		return nil, fmt.Errorf("failed to add repository %s: %w", fullName, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to add repository %s: %w", fullName, err)
	}

	return &models.Repository{
		ID:       id,
		Owner:    owner,
		Name:     name,
		FullName: fullName,
		AddedAt:  addedAt,
	}, nil
}

// GetRepository looks up a tracked repository by its owner/name identifier.
func (db *DB) GetRepository(fullName string) (*models.Repository, error) {
	query := `SELECT id, owner, name, full_name, is_default, added_at
	FROM repositories WHERE full_name = ?`

	var repo models.Repository
	err := db.QueryRow(query, fullName).Scan(
		&repo.ID, &repo.Owner, &repo.Name, &repo.FullName, &repo.IsDefault, &repo.AddedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", fullName, ErrNotTracked)
		}
		return nil, fmt.Errorf("failed to get repository %s: %w", fullName, err)
	}

	return &repo, nil
}

// SetDefaultRepository makes the named repository the default target for
// commands that take no explicit repository. The previous default is cleared
// in the same transaction, so at most one repository is ever the default.
func (db *DB) SetDefaultRepository(fullName string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to set default repository: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE repositories SET is_default = 0 WHERE is_default = 1`); err != nil {
		return fmt.Errorf("failed to clear default repository: %w", err)
	}

	res, err := tx.Exec(`UPDATE repositories SET is_default = 1 WHERE full_name = ?`, fullName)
	if err != nil {
		return fmt.Errorf("failed to set default repository: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set default repository: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", fullName, ErrNotTracked)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to set default repository: %w", err)
	}
	return nil
}

// ListRepositories returns all tracked repositories in insertion order.
func (db *DB) ListRepositories() ([]models.Repository, error) {
	query := `SELECT id, owner, name, full_name, is_default, added_at
	FROM repositories ORDER BY id`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	defer rows.Close()

	var repos []models.Repository
	for rows.Next() {
		var repo models.Repository
		if err := rows.Scan(&repo.ID, &repo.Owner, &repo.Name, &repo.FullName, &repo.IsDefault, &repo.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	return repos, nil
}

// DefaultRepository returns the repository marked as default, or
// ErrNoDefaultRepo when none is set.
func (db *DB) DefaultRepository() (*models.Repository, error) {
	query := `SELECT id, owner, name, full_name, is_default, added_at
	FROM repositories WHERE is_default = 1`

	var repo models.Repository
	err := db.QueryRow(query).Scan(
		&repo.ID, &repo.Owner, &repo.Name, &repo.FullName, &repo.IsDefault, &repo.AddedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoDefaultRepo
		}
		return nil, fmt.Errorf("failed to get default repository: %w", err)
	}

	return &repo, nil
}
