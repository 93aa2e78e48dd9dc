package api

// Client bundles the REST and GraphQL adapters behind one surface. The sync
// engine uses REST listing for full passes and the GraphQL listing for
// incremental passes; on-demand single fetches go through REST.
type Client struct {
	*GitHubClient
	*GraphQLClient
}

// NewClient creates the combined remote source adapter.
func NewClient(token string) *Client {
	return &Client{
		GitHubClient:  NewGitHubClient(token),
		GraphQLClient: NewGraphQLClient(token),
	}
}
