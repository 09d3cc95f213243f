// Package notesapi is an HTTP client for the notes server. It satisfies
// notes.Service so the TUI can work against a remote store.
package notesapi

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

	"github.com/alkime/pagenotes/internal/note"
	"github.com/alkime/pagenotes/internal/notes"
	"github.com/alkime/pagenotes/internal/repository"
)

// ErrUnauthorized is returned when the server rejects the bearer token.
var ErrUnauthorized = errors.New("notes API rejected the token")

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("notes API returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ notes.Service = (*Client)(nil)

// New creates a client for baseURL. An empty token sends no Authorization
// header.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) List(ctx context.Context, documentID string) ([]note.Note, error) {
	var out struct {
		Notes []note.Note `json:"notes"`
	}

	path := "/api/v1/documents/" + url.PathEscape(documentID) + "/notes"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return out.Notes, nil
}

func (c *Client) Create(ctx context.Context, draft note.Draft) (note.Note, error) {
	var created note.Note
	if err := c.do(ctx, http.MethodPost, "/api/v1/notes", draft, &created); err != nil {
		return note.Note{}, err
	}

	return created, nil
}

func (c *Client) Update(ctx context.Context, id string, patch note.Patch) error {
	return c.do(ctx, http.MethodPatch, "/api/v1/notes/"+url.PathEscape(id), patch, nil)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/notes/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// decodeError maps the server's error envelope back onto sentinel errors
// where one applies.
func decodeError(resp *http.Response) error {
	var envelope struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&envelope)

	statusErr := &StatusError{StatusCode: resp.StatusCode, Message: envelope.Error}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrUnauthorized, statusErr)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", repository.ErrNotFound, statusErr)
	case http.StatusBadRequest:
		if strings.Contains(envelope.Error, note.ErrNotEditable.Error()) {
			return fmt.Errorf("%w: %w", note.ErrNotEditable, statusErr)
		}
		if strings.Contains(envelope.Error, note.ErrContentTooLong.Error()) {
			return fmt.Errorf("%w: %w", note.ErrContentTooLong, statusErr)
		}
	}

	return statusErr
}
