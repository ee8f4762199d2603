package forum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/studora/forum-sync-api/pkg/config"
	appErrors "github.com/studora/forum-sync-api/pkg/errors"
)

const tokenHeader = "x-token"

// Client talks to the upstream forum REST API. It holds no session state;
// callers obtain a short-lived token via RenewToken and pass it to every
// subsequent call.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
}

// NewClient constructs a forum API client.
func NewClient(cfg config.ForumConfig) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		http:     &http.Client{Timeout: cfg.Timeout},
		validate: validator.New(),
	}
}

// RenewToken exchanges the long-lived API key for a session token. Any
// non-2xx response fails the exchange with the upstream status and body
// attached.
func (c *Client) RenewToken(ctx context.Context, apiKey string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/renew_token", nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrAuthFailed.Code, appErrors.ErrAuthFailed.Status, "build token request")
	}
	req.Header.Set(tokenHeader, apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrAuthFailed.Code, appErrors.ErrAuthFailed.Status, "token exchange failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", appErrors.Clone(appErrors.ErrAuthFailed,
			fmt.Sprintf("token exchange failed: status %d: %s", resp.StatusCode, string(body)))
	}

	var out tokenResponse
	if err := c.decodeAndValidate(resp.Body, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// ListCourses returns every course visible to the token.
func (c *Client) ListCourses(ctx context.Context, token string) ([]CourseItem, error) {
	var out coursesResponse
	if err := c.get(ctx, token, "/courses", nil, &out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

// ListThreads fetches one page of a course's threads. Callers loop while
// the returned pagination reports more pages.
func (c *Client) ListThreads(ctx context.Context, token string, courseID int64, page, limit int) (*ThreadsPage, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("limit", fmt.Sprintf("%d", limit))

	var out ThreadsPage
	if err := c.get(ctx, token, fmt.Sprintf("/courses/%d/threads", courseID), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetThread fetches a single thread with its nested answers.
func (c *Client) GetThread(ctx context.Context, token string, threadID int64) (*ThreadDetail, error) {
	var out ThreadDetail
	if err := c.get(ctx, token, fmt.Sprintf("/threads/%d", threadID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, token, path string, query url.Values, dest interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build forum request")
	}
	req.Header.Set(tokenHeader, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamParse.Code, appErrors.ErrUpstreamParse.Status,
			fmt.Sprintf("forum request %s failed", path))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return appErrors.Clone(appErrors.ErrAuthFailed,
			fmt.Sprintf("forum rejected token: status %d: %s", resp.StatusCode, string(body)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return appErrors.Clone(appErrors.ErrUpstreamParse,
			fmt.Sprintf("forum request %s: unexpected status %d", path, resp.StatusCode))
	}

	return c.decodeAndValidate(resp.Body, dest)
}

func (c *Client) decodeAndValidate(r io.Reader, dest interface{}) error {
	if err := json.NewDecoder(r).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamParse.Code, appErrors.ErrUpstreamParse.Status, "decode forum response")
	}
	if err := c.validate.Struct(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamParse.Code, appErrors.ErrUpstreamParse.Status, "forum response failed validation")
	}
	return nil
}
