// Package remote is the HTTP client for the document authority.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/mdtree/internal/models"
)

// ErrNotAcknowledged is returned when a write gets a 2xx reply whose body
// does not carry success=true.
var ErrNotAcknowledged = errors.New("remote: write not acknowledged")

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Client talks to the authority's /api/files endpoints. It does not retry;
// callers decide.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the authority at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

type successResponse struct {
	Success bool `json:"success"`
}

type updateRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// List fetches the full flat record set.
func (c *Client) List(ctx context.Context) ([]models.Record, error) {
	var out []models.Record
	if err := c.doJSON(ctx, http.MethodGet, "/api/files", nil, &out); err != nil {
		return nil, fmt.Errorf("remote: list: %w", err)
	}
	if out == nil {
		out = []models.Record{}
	}
	return out, nil
}

// Create stores a new record.
func (c *Client) Create(ctx context.Context, rec models.Record) error {
	if err := c.doWrite(ctx, http.MethodPost, "/api/files", rec); err != nil {
		return fmt.Errorf("remote: create %s: %w", rec.ID, err)
	}
	return nil
}

// Update applies the fields present in patch.
func (c *Client) Update(ctx context.Context, id string, patch models.FilePatch) error {
	body := updateRequest{Title: patch.Title, Content: patch.Content}
	if err := c.doWrite(ctx, http.MethodPut, "/api/files/"+url.PathEscape(id), body); err != nil {
		return fmt.Errorf("remote: update %s: %w", id, err)
	}
	return nil
}

// Delete removes id and everything beneath it.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.doWrite(ctx, http.MethodDelete, "/api/files/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("remote: delete %s: %w", id, err)
	}
	return nil
}

// doWrite sends a mutating request and requires {"success":true} back.
func (c *Client) doWrite(ctx context.Context, method, requestPath string, body any) error {
	var out successResponse
	if err := c.doJSON(ctx, method, requestPath, body, &out); err != nil {
		return err
	}
	if !out.Success {
		return ErrNotAcknowledged
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, requestPath string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	payload, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(payload))}
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}
