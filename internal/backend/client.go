// Package backend talks to the playlist REST service.
package backend

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

	"go.uber.org/zap"

	"tunedrop/internal/core"
)

const (
	searchPath     = "/search"
	addedSongsPath = "/added-songs"
	addSongPath    = "/add-song"

	idempotencyHeader = "Idempotency-Key"
	// maxErrorBody bounds how much of an error response ends up in the error text.
	maxErrorBody = 512
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client implements core.Catalog and core.PlaylistStore over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, client *http.Client, logger *zap.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     logger.Named("backend"),
	}
}

func (c *Client) SearchCatalog(ctx context.Context, query string) ([]core.Track, error) {
	path := searchPath + "?" + url.Values{"q": {query}}.Encode()

	var tracks []core.Track
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &tracks); err != nil {
		return nil, err
	}

	c.logger.Debug("Search completed",
		zap.String("query", query),
		zap.Int("results", len(tracks)))
	return tracks, nil
}

func (c *Client) FetchPlaylist(ctx context.Context) ([]core.PlaylistEntry, error) {
	var payload []entryPayload
	if err := c.do(ctx, http.MethodGet, addedSongsPath, nil, nil, &payload); err != nil {
		return nil, err
	}

	entries := make([]core.PlaylistEntry, 0, len(payload))
	for i := range payload {
		entries = append(entries, payload[i].toEntry(i))
	}
	return entries, nil
}

func (c *Client) AddTrack(ctx context.Context, track core.Track, nickname string) error {
	body, err := json.Marshal(addSongRequest{Song: track, Nickname: nickname})
	if err != nil {
		return fmt.Errorf("failed to encode add request: %w", err)
	}

	headers := http.Header{}
	if key := core.IdempotencyKey(ctx); key != "" {
		headers.Set(idempotencyHeader, key)
	}

	err = c.do(ctx, http.MethodPost, addSongPath, body, headers, nil)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
		return fmt.Errorf("%w: %w", core.ErrDuplicateTrack, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, headers http.Header, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
