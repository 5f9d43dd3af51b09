package github

import (
	"context"
	"fmt"
	"strings"

	gogithub "github.com/google/go-github/v68/github"
)

// RepoAccess describes what the configured token may do in the repository.
type RepoAccess struct {
	FullName      string
	DefaultBranch string
	IsFork        bool
	CanPush       bool
}

// CheckAccess reads the repository with the client's token and reports
// fork status and push permission. Permissions are only populated for
// authenticated requests, so an empty token always reports CanPush false.
func (c *Client) CheckAccess(ctx context.Context) (*RepoAccess, error) {
	client := gogithub.NewClient(c.HTTPClient)
	if c.Token != "" {
		client = client.WithAuthToken(c.Token)
	}
	if c.BaseURL != "" && c.BaseURL != DefaultAPIEndpoint {
		base := strings.TrimSuffix(c.BaseURL, "/") + "/"
		var err error
		client, err = client.WithEnterpriseURLs(base, base)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL %q: %w", c.BaseURL, err)
		}
	}

	repo, _, err := client.Repositories.Get(ctx, c.Owner, c.Repo)
	if err != nil {
		return nil, fmt.Errorf("failed to read repository %s/%s: %w", c.Owner, c.Repo, err)
	}

	access := &RepoAccess{
		FullName:      repo.GetFullName(),
		DefaultBranch: repo.GetDefaultBranch(),
		IsFork:        repo.GetFork(),
	}
	if repo.Permissions != nil {
		access.CanPush = repo.Permissions["push"]
	}
	return access, nil
}
