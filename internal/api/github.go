package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/lexicalmathical/notehub/internal/models"
	"golang.org/x/oauth2"
)

// GitHubClient is the remote source adapter backed by the GitHub REST API.
type GitHubClient struct {
	client *github.Client
}

// NewGitHubClient creates a new GitHub API client
func NewGitHubClient(token string) *GitHubClient {
	var tc *http.Client

	if token != "" {
		// Create an authenticated client if a token is provided
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(tc)
	return &GitHubClient{client: client}
}

// ListIssues fetches one page of a repository's issues. The returned token
// continues the listing; an empty token means the listing is drained. Pull
// requests share the issues endpoint and are filtered out.
func (c *GitHubClient) ListIssues(ctx context.Context, owner, name, state string, page models.PageToken) ([]models.Issue, models.PageToken, error) {
	opts := &github.IssueListByRepoOptions{
		State:     state,
		Sort:      "created",
		Direction: "desc",
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}
	if page != "" {
		n, err := strconv.Atoi(string(page))
		if err != nil {
			return nil, "", fmt.Errorf("malformed page token %q", page)
		}
		opts.Page = n
	}

	issues, resp, err := c.client.Issues.ListByRepo(ctx, owner, name, opts)
	if err != nil {
		return nil, "", mapError(err)
	}

	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		out = append(out, ConvertGitHubIssue(issue))
	}

	var next models.PageToken
	if resp.NextPage != 0 {
		next = models.PageToken(strconv.Itoa(resp.NextPage))
	}
	return out, next, nil
}

// GetIssue fetches a single issue by number. Pull requests occupy the same
// numbering space but are not issues, so they report ErrRemoteNotFound.
func (c *GitHubClient) GetIssue(ctx context.Context, owner, name string, number int) (models.Issue, error) {
	issue, _, err := c.client.Issues.Get(ctx, owner, name, number)
	if err != nil {
		return models.Issue{}, mapError(err)
	}
	if issue.IsPullRequest() {
		return models.Issue{}, fmt.Errorf("#%d is a pull request: %w", number, ErrRemoteNotFound)
	}

	return ConvertGitHubIssue(issue), nil
}

// ConvertGitHubIssue converts a GitHub issue to our model
func ConvertGitHubIssue(issue *github.Issue) models.Issue {
	var closedAt *time.Time
	if issue.ClosedAt != nil {
		t := issue.ClosedAt.Time
		closedAt = &t
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}

	return models.Issue{
		Number:       issue.GetNumber(),
		Title:        issue.GetTitle(),
		Body:         issue.GetBody(),
		State:        issue.GetState(),
		Author:       issue.GetUser().GetLogin(),
		Labels:       labels,
		CommentCount: issue.GetComments(),
		CreatedAt:    issue.GetCreatedAt().Time,
		UpdatedAt:    issue.GetUpdatedAt().Time,
		ClosedAt:     closedAt,
		FetchedAt:    time.Now().UTC(),
	}
}

// mapError translates go-github errors into the adapter's taxonomy. go-github
// already converts primary rate-limit 403s into *github.RateLimitError, so a
// remaining 403 is a credentials/permission problem.
func mapError(err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &RateLimitError{ResetTime: rateErr.Rate.Reset.Time}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		reset := time.Now()
		if abuseErr.RetryAfter != nil {
			reset = reset.Add(*abuseErr.RetryAfter)
		}
		return &RateLimitError{ResetTime: reset}
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound, http.StatusGone:
			return ErrRemoteNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrUnauthorized
		}
	}

	return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
}
