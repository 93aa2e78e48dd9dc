package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lexicalmathical/notehub/internal/models"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// GraphQLClient is the GraphQL variant of the remote source adapter. It
// exists for updated-at-ordered listings: the REST issues endpoint cannot
// order by update time with cursor pagination, the GraphQL API can.
type GraphQLClient struct {
	client *githubv4.Client
}

// NewGraphQLClient creates a new GraphQL client
func NewGraphQLClient(token string) *GraphQLClient {
	src := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	httpClient := oauth2.NewClient(context.Background(), src)
	client := githubv4.NewClient(httpClient)
	return &GraphQLClient{client: client}
}

// gqlIssue mirrors the issue fields the cache stores.
type gqlIssue struct {
	Number    githubv4.Int
	Title     githubv4.String
	Body      githubv4.String
	State     githubv4.String
	CreatedAt githubv4.DateTime
	UpdatedAt githubv4.DateTime
	ClosedAt  *githubv4.DateTime
	Author    struct {
		Login githubv4.String
	}
	Labels struct {
		Nodes []struct {
			Name githubv4.String
		}
	} `graphql:"labels(first: 50)"`
	Comments struct {
		TotalCount githubv4.Int
	}
}

// ListIssuesByUpdated fetches one page of a repository's issues, open and
// closed, ordered by most recently updated first. The returned token is the
// GraphQL end cursor, opaque to callers; empty means the listing is drained.
func (c *GraphQLClient) ListIssuesByUpdated(ctx context.Context, owner, name string, page models.PageToken) ([]models.Issue, models.PageToken, error) {
	var query struct {
		Repository struct {
			Issues struct {
				Nodes    []gqlIssue
				PageInfo struct {
					EndCursor   githubv4.String
					HasNextPage githubv4.Boolean
				}
			} `graphql:"issues(first: 50, after: $after, states: [OPEN, CLOSED], orderBy: {field: UPDATED_AT, direction: DESC})"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	var after *githubv4.String
	if page != "" {
		cursor := githubv4.String(page)
		after = &cursor
	}
	variables := map[string]interface{}{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(name),
		"after": after,
	}

	if err := c.client.Query(ctx, &query, variables); err != nil {
		return nil, "", mapGraphQLError(err)
	}

	fetchedAt := time.Now().UTC()
	out := make([]models.Issue, 0, len(query.Repository.Issues.Nodes))
	for _, node := range query.Repository.Issues.Nodes {
		out = append(out, convertGraphQLIssue(node, fetchedAt))
	}

	var next models.PageToken
	if bool(query.Repository.Issues.PageInfo.HasNextPage) {
		next = models.PageToken(query.Repository.Issues.PageInfo.EndCursor)
	}
	return out, next, nil
}

func convertGraphQLIssue(node gqlIssue, fetchedAt time.Time) models.Issue {
	var closedAt *time.Time
	if node.ClosedAt != nil {
		t := node.ClosedAt.Time
		closedAt = &t
	}

	labels := make([]string, 0, len(node.Labels.Nodes))
	for _, label := range node.Labels.Nodes {
		labels = append(labels, string(label.Name))
	}

	return models.Issue{
		Number:       int(node.Number),
		Title:        string(node.Title),
		Body:         string(node.Body),
		State:        strings.ToLower(string(node.State)),
		Author:       string(node.Author.Login),
		Labels:       labels,
		CommentCount: int(node.Comments.TotalCount),
		CreatedAt:    node.CreatedAt.Time,
		UpdatedAt:    node.UpdatedAt.Time,
		ClosedAt:     closedAt,
		FetchedAt:    fetchedAt,
	}
}

// mapGraphQLError translates githubv4 errors into the adapter's taxonomy.
// The GraphQL transport surfaces errors as flat strings, so classification
// falls back to the error codes GitHub embeds in the message.
func mapGraphQLError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limited"):
		return &RateLimitError{ResetTime: time.Now().Add(time.Minute)}
	case strings.Contains(msg, "could not resolve"):
		return ErrRemoteNotFound
	case strings.Contains(msg, "bad credentials") || strings.Contains(msg, "401"):
		return ErrUnauthorized
	}
	return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
}
