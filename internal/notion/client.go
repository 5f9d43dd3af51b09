package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// NewClient creates a new Notion client.
func NewClient(token string) *Client {
	return &Client{
		Token:   token,
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
		BaseURL:    c.BaseURL,
		HTTPClient: httpClient,
	}
}

// WithBaseURL returns a new client with a custom base URL (for testing).
func (c *Client) WithBaseURL(baseURL string) *Client {
	return &Client{
		Token:      c.Token,
		BaseURL:    baseURL,
		HTTPClient: c.HTTPClient,
	}
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

// doRequest performs one authenticated request. Failures are returned
// as-is; nothing is retried.
func (c *Client) doRequest(ctx context.Context, method, urlStr string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Notion-Version", APIVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	const maxResponseSize = 50 * 1024 * 1024
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &payload) == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		return nil, apiErr
	}

	return respBody, nil
}

// listResponse is the envelope of every paginated Notion endpoint.
type listResponse struct {
	Results    json.RawMessage `json:"results"`
	HasMore    bool            `json:"has_more"`
	NextCursor *string         `json:"next_cursor"`
}

// QueryDatabase returns every page of a database matching filter.
// A nil filter returns all pages.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter map[string]interface{}) ([]Page, error) {
	var all []Page
	var cursor string
	urlStr := c.buildURL("/databases/"+databaseID+"/query", nil)

	for page := 1; ; page++ {
		if page > MaxPages {
			return nil, fmt.Errorf("pagination limit exceeded: stopped after %d pages", MaxPages)
		}

		reqBody := map[string]interface{}{"page_size": MaxPageSize}
		if filter != nil {
			reqBody["filter"] = filter
		}
		if cursor != "" {
			reqBody["start_cursor"] = cursor
		}

		respBody, err := c.doRequest(ctx, http.MethodPost, urlStr, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to query database: %w", err)
		}

		var envelope listResponse
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			return nil, fmt.Errorf("failed to parse query response: %w", err)
		}
		var pages []Page
		if len(envelope.Results) > 0 {
			if err := json.Unmarshal(envelope.Results, &pages); err != nil {
				return nil, fmt.Errorf("failed to parse query results: %w", err)
			}
		}
		all = append(all, pages...)

		if !envelope.HasMore || envelope.NextCursor == nil || *envelope.NextCursor == "" {
			return all, nil
		}
		cursor = *envelope.NextCursor
	}
}

// RetrievePage fetches a single page.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, c.buildURL("/pages/"+pageID, nil), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve page %s: %w", pageID, err)
	}

	var page Page
	if err := json.Unmarshal(respBody, &page); err != nil {
		return nil, fmt.Errorf("failed to parse page response: %w", err)
	}
	return &page, nil
}

// UpdatePage patches page properties. Values are built with StatusValue,
// URLValue and friends.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties map[string]interface{}) (*Page, error) {
	reqBody := map[string]interface{}{"properties": properties}
	respBody, err := c.doRequest(ctx, http.MethodPatch, c.buildURL("/pages/"+pageID, nil), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to update page %s: %w", pageID, err)
	}

	var page Page
	if err := json.Unmarshal(respBody, &page); err != nil {
		return nil, fmt.Errorf("failed to parse update response: %w", err)
	}
	return &page, nil
}

// RetrieveDatabase fetches a database schema.
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID string) (*Database, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, c.buildURL("/databases/"+databaseID, nil), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve database %s: %w", databaseID, err)
	}

	var db Database
	if err := json.Unmarshal(respBody, &db); err != nil {
		return nil, fmt.Errorf("failed to parse database response: %w", err)
	}
	return &db, nil
}

// ListUsers returns all workspace users, bots included.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var all []User
	var cursor string

	for page := 1; ; page++ {
		if page > MaxPages {
			return nil, fmt.Errorf("pagination limit exceeded: stopped after %d pages", MaxPages)
		}

		params := map[string]string{"page_size": fmt.Sprintf("%d", MaxPageSize)}
		if cursor != "" {
			params["start_cursor"] = cursor
		}

		respBody, err := c.doRequest(ctx, http.MethodGet, c.buildURL("/users", params), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}

		var envelope listResponse
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			return nil, fmt.Errorf("failed to parse users response: %w", err)
		}
		var users []User
		if len(envelope.Results) > 0 {
			if err := json.Unmarshal(envelope.Results, &users); err != nil {
				return nil, fmt.Errorf("failed to parse users: %w", err)
			}
		}
		all = append(all, users...)

		if !envelope.HasMore || envelope.NextCursor == nil || *envelope.NextCursor == "" {
			return all, nil
		}
		cursor = *envelope.NextCursor
	}
}
