package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
)

// NewClient creates a new GitHub client.
func NewClient(token, owner, repo string) *Client {
	return &Client{
		Token:   token,
		Owner:   owner,
		Repo:    repo,
		BaseURL: DefaultAPIEndpoint,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithHTTPClient returns a new client with a custom HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	return &Client{
		Token:      c.Token,
		Owner:      c.Owner,
		Repo:       c.Repo,
		BaseURL:    c.BaseURL,
		HTTPClient: httpClient,
	}
}

// WithBaseURL returns a new client with a custom base URL (for testing or GitHub Enterprise).
func (c *Client) WithBaseURL(baseURL string) *Client {
	return &Client{
		Token:      c.Token,
		Owner:      c.Owner,
		Repo:       c.Repo,
		BaseURL:    baseURL,
		HTTPClient: c.HTTPClient,
	}
}

// repoPath returns the "/repos/owner/repo" path prefix.
func (c *Client) repoPath() string {
	return "/repos/" + c.Owner + "/" + c.Repo
}

// buildURL constructs a full API URL.
func (c *Client) buildURL(path string, params map[string]string) string {
	u := c.BaseURL + path

	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		u += "?" + values.Encode()
	}

	return u
}

// doRequest performs one authenticated request. Non-2xx responses become
// *APIError; nothing is retried.
func (c *Client) doRequest(ctx context.Context, method, urlStr string, body interface{}) ([]byte, http.Header, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", APIVersion)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	const maxResponseSize = 50 * 1024 * 1024
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &payload) == nil {
			apiErr.Message = payload.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		return nil, nil, apiErr
	}

	return respBody, resp.Header, nil
}

// linkNextPattern matches the "next" relation in GitHub Link headers.
var linkNextPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// hasNextPage checks the Link header for a next page URL and returns it.
func hasNextPage(headers http.Header) (string, bool) {
	link := headers.Get("Link")
	if link == "" {
		return "", false
	}
	matches := linkNextPattern.FindStringSubmatch(link)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// fetchAll walks a paginated GET endpoint, decoding each page with decode.
func fetchAll[T any](ctx context.Context, c *Client, path string, params map[string]string, decode func([]byte) ([]T, error)) ([]T, error) {
	var all []T
	page := 1

	for {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		query := map[string]string{
			"per_page": strconv.Itoa(MaxPageSize),
			"page":     strconv.Itoa(page),
		}
		for k, v := range params {
			query[k] = v
		}

		respBody, headers, err := c.doRequest(ctx, http.MethodGet, c.buildURL(path, query), nil)
		if err != nil {
			return nil, err
		}
		items, err := decode(respBody)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)

		if _, ok := hasNextPage(headers); !ok {
			break
		}
		page++

		if page > MaxPages {
			return nil, fmt.Errorf("pagination limit exceeded: stopped after %d pages", MaxPages)
		}
	}

	return all, nil
}

// decodeList decodes a plain JSON array page.
func decodeList[T any](what string) func([]byte) ([]T, error) {
	return func(data []byte) ([]T, error) {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to parse %s response: %w", what, err)
		}
		return items, nil
	}
}

// ListPulls returns open pull requests. head ("owner:branch") and base
// narrow the result when non-empty.
func (c *Client) ListPulls(ctx context.Context, head, base string) ([]PullRequest, error) {
	params := map[string]string{"state": "open"}
	if head != "" {
		params["head"] = head
	}
	if base != "" {
		params["base"] = base
	}

	pulls, err := fetchAll(ctx, c, c.repoPath()+"/pulls", params, decodeList[PullRequest]("pulls"))
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests: %w", err)
	}
	return pulls, nil
}

// CreatePull opens a new pull request.
func (c *Client) CreatePull(ctx context.Context, pr NewPullRequest) (*PullRequest, error) {
	urlStr := c.buildURL(c.repoPath()+"/pulls", nil)
	respBody, _, err := c.doRequest(ctx, http.MethodPost, urlStr, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}

	var created PullRequest
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("failed to parse create response: %w", err)
	}
	return &created, nil
}

// GetPull retrieves a single pull request, including its mergeability.
func (c *Client) GetPull(ctx context.Context, number int) (*PullRequest, error) {
	urlStr := c.buildURL(c.repoPath()+"/pulls/"+strconv.Itoa(number), nil)
	respBody, _, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull request #%d: %w", number, err)
	}

	var pr PullRequest
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse pull request response: %w", err)
	}
	return &pr, nil
}

// MergePull merges a pull request with the given method and commit text.
func (c *Client) MergePull(ctx context.Context, number int, title, message, method string) (*MergeResult, error) {
	reqBody := map[string]string{
		"commit_title":   title,
		"commit_message": message,
		"merge_method":   method,
	}

	urlStr := c.buildURL(c.repoPath()+"/pulls/"+strconv.Itoa(number)+"/merge", nil)
	respBody, _, err := c.doRequest(ctx, http.MethodPut, urlStr, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to merge pull request #%d: %w", number, err)
	}

	var result MergeResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse merge response: %w", err)
	}
	return &result, nil
}

// ListPullCommits returns the commits of a pull request, oldest first.
func (c *Client) ListPullCommits(ctx context.Context, number int) ([]Commit, error) {
	path := c.repoPath() + "/pulls/" + strconv.Itoa(number) + "/commits"
	commits, err := fetchAll(ctx, c, path, nil, decodeList[Commit]("commits"))
	if err != nil {
		return nil, fmt.Errorf("failed to list commits of #%d: %w", number, err)
	}
	return commits, nil
}

// CombinedStatus returns the legacy status rollup for ref.
func (c *Client) CombinedStatus(ctx context.Context, ref string) (*CombinedStatus, error) {
	urlStr := c.buildURL(c.repoPath()+"/commits/"+url.PathEscape(ref)+"/status", nil)
	respBody, _, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch combined status of %s: %w", ref, err)
	}

	var status CombinedStatus
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}
	return &status, nil
}

// CheckRuns returns every check run reported for ref.
func (c *Client) CheckRuns(ctx context.Context, ref string) ([]CheckRun, error) {
	path := c.repoPath() + "/commits/" + url.PathEscape(ref) + "/check-runs"
	runs, err := fetchAll(ctx, c, path, nil, func(data []byte) ([]CheckRun, error) {
		var list checkRunList
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to parse check runs response: %w", err)
		}
		return list.CheckRuns, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list check runs of %s: %w", ref, err)
	}
	return runs, nil
}

// GetLabel retrieves a repository label by name. A missing label is an
// *APIError for which IsNotFound is true.
func (c *Client) GetLabel(ctx context.Context, name string) (*Label, error) {
	urlStr := c.buildURL(c.repoPath()+"/labels/"+url.PathEscape(name), nil)
	respBody, _, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch label %q: %w", name, err)
	}

	var label Label
	if err := json.Unmarshal(respBody, &label); err != nil {
		return nil, fmt.Errorf("failed to parse label response: %w", err)
	}
	return &label, nil
}

// CreateLabel creates a repository label.
func (c *Client) CreateLabel(ctx context.Context, label Label) (*Label, error) {
	urlStr := c.buildURL(c.repoPath()+"/labels", nil)
	respBody, _, err := c.doRequest(ctx, http.MethodPost, urlStr, label)
	if err != nil {
		return nil, fmt.Errorf("failed to create label %q: %w", label.Name, err)
	}

	var created Label
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("failed to parse label response: %w", err)
	}
	return &created, nil
}

// AddLabels adds labels to an issue or pull request.
func (c *Client) AddLabels(ctx context.Context, number int, labels []string) ([]Label, error) {
	urlStr := c.buildURL(c.repoPath()+"/issues/"+strconv.Itoa(number)+"/labels", nil)
	respBody, _, err := c.doRequest(ctx, http.MethodPost, urlStr, map[string][]string{"labels": labels})
	if err != nil {
		return nil, fmt.Errorf("failed to label #%d: %w", number, err)
	}

	var current []Label
	if err := json.Unmarshal(respBody, &current); err != nil {
		return nil, fmt.Errorf("failed to parse labels response: %w", err)
	}
	return current, nil
}

// AddAssignees assigns logins to an issue or pull request.
func (c *Client) AddAssignees(ctx context.Context, number int, logins []string) error {
	urlStr := c.buildURL(c.repoPath()+"/issues/"+strconv.Itoa(number)+"/assignees", nil)
	if _, _, err := c.doRequest(ctx, http.MethodPost, urlStr, map[string][]string{"assignees": logins}); err != nil {
		return fmt.Errorf("failed to assign #%d: %w", number, err)
	}
	return nil
}

// AuthenticatedUser returns the user the token belongs to.
func (c *Client) AuthenticatedUser(ctx context.Context) (*User, error) {
	respBody, _, err := c.doRequest(ctx, http.MethodGet, c.buildURL("/user", nil), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch authenticated user: %w", err)
	}

	var user User
	if err := json.Unmarshal(respBody, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}
	return &user, nil
}
