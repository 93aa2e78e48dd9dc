package models

import (
	"time"
)

// Repository represents a tracked GitHub repository
type Repository struct {
	ID        int64
	Owner     string
	Name      string
	FullName  string
	IsDefault bool
	AddedAt   time.Time
}

// Issue represents the last successfully fetched state of a remote issue.
// The cache holds this snapshot, not necessarily the current remote state.
type Issue struct {
	Number       int
	Title        string
	Body         string
	State        string
	Author       string
	Labels       []string
	CommentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
	FetchedAt    time.Time
}

// SyncCursor records the completion of the last fully successful sync pass
// for a repository. LastSeenUpdate is the max updated_at observed across that
// pass and drives incremental sync.
type SyncCursor struct {
	LastSyncedAt   time.Time
	LastSeenUpdate time.Time
}

// Note is a local-only annotation attached to a cached issue. Notes are never
// pushed to the remote.
type Note struct {
	ID          int64
	IssueNumber int
	Body        string
	CreatedAt   time.Time
}

// PageToken is an opaque continuation value for paginated listings. The empty
// token requests the first page; an empty token in a response means the
// listing is drained. Callers must not inspect its contents.
type PageToken string

// Issue state filters accepted by list operations.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)
