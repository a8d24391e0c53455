// Package memwall provides a client for the Memory Wall record store and the
// sync engine that keeps a local view of the wall consistent with it.
package memwall

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultStatusTimeout bounds CheckStatus.
const DefaultStatusTimeout = 5 * time.Second

// Post is a single memory-wall entry.
type Post struct {
	ID       int64  `json:"id"`
	Message  string `json:"message"`
	Author   string `json:"author"`
	PhotoURL string `json:"photoUrl"`
}

// NewPost is the payload for creating a Post.
type NewPost struct {
	Message  string `json:"message"`
	Author   string `json:"author"`
	PhotoURL string `json:"photoUrl"`
}

// Validate reports ErrValidation if any field is blank.
func (p NewPost) Validate() error {
	if strings.TrimSpace(p.Message) == "" ||
		strings.TrimSpace(p.Author) == "" ||
		strings.TrimSpace(p.PhotoURL) == "" {
		return ErrValidation
	}
	return nil
}

// Client is a Memory Wall API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// NewClient creates a new client for the record store at baseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     zerolog.Nop(),
	}
}

// doRequest performs an HTTP request and returns the body of a 2xx answer.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	c.Logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Str("request_id", reqID).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		msg := errResp.Error
		if msg == "" {
			msg = errResp.Message
		}
		return resp.StatusCode, respBody, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return resp.StatusCode, respBody, nil
}

// ListMemories fetches the whole collection. A 404 is an empty wall.
func (c *Client) ListMemories(ctx context.Context) ([]Post, error) {
	status, respBody, err := c.doRequest(ctx, http.MethodGet, "/memories", nil)
	if err != nil {
		if status == http.StatusNotFound {
			return []Post{}, nil
		}
		return nil, err
	}

	var posts []Post
	if err := json.Unmarshal(respBody, &posts); err != nil {
		return nil, fmt.Errorf("decode memories: %w", err)
	}
	if posts == nil {
		posts = []Post{}
	}
	return posts, nil
}

// CreateMemory stores a new post and returns it with its assigned id.
func (c *Client) CreateMemory(ctx context.Context, p NewPost) (*Post, error) {
	reqBody, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	_, respBody, err := c.doRequest(ctx, http.MethodPost, "/memories", reqBody)
	if err != nil {
		return nil, err
	}

	var post Post
	if err := json.Unmarshal(respBody, &post); err != nil {
		return nil, fmt.Errorf("decode memory: %w", err)
	}
	return &post, nil
}

// DeleteResponse is the answer to a delete request.
type DeleteResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// DeleteMemory deletes the post with the given id.
func (c *Client) DeleteMemory(ctx context.Context, id int64) error {
	path := "/memories?id=" + url.QueryEscape(strconv.FormatInt(id, 10))
	_, respBody, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return checkDeleted(respBody)
}

// DeleteAllMemories empties the wall.
func (c *Client) DeleteAllMemories(ctx context.Context) error {
	_, respBody, err := c.doRequest(ctx, http.MethodDelete, "/memories", nil)
	if err != nil {
		return err
	}
	return checkDeleted(respBody)
}

func checkDeleted(body []byte) error {
	var resp DeleteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode delete response: %w", err)
	}
	if !resp.Success {
		return errors.New("memwall: server did not confirm the deletion")
	}
	return nil
}

// StatusResponse is the answer of the connectivity probe.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the backing store is reachable.
func (s *StatusResponse) OK() bool {
	return s != nil && s.Status == "ok"
}

// Status asks the server whether its backing store is reachable.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	_, respBody, err := c.doRequest(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			var resp StatusResponse
			if json.Unmarshal(respBody, &resp) == nil && resp.Status != "" {
				return &resp, nil
			}
		}
		return nil, err
	}

	var resp StatusResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckStatus races the status probe against timeout. Transport failures
// and timeouts are reported as an "error" status, never as an error.
func (c *Client) CheckStatus(ctx context.Context, timeout time.Duration) *StatusResponse {
	if timeout <= 0 {
		timeout = DefaultStatusTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.Status(ctx)
	switch {
	case err == nil:
		return resp
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &StatusResponse{Status: "error", Message: fmt.Sprintf("Status check timed out after %s.", timeout)}
	default:
		c.Logger.Warn().Err(err).Msg("status check failed")
		return &StatusResponse{Status: "error", Message: "Failed to reach the server to check database status."}
	}
}
