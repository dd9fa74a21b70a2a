// Package jsonbin stores the state document in a JSONBin.io bin.
package jsonbin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fitleague/internal/store"
)

const DefaultBaseURL = "https://api.jsonbin.io/v3/b"

// ErrNotConfigured is returned when the client has no bin id or key
var ErrNotConfigured = errors.New("jsonbin bin id and master key are required")

// APIError is a non-2xx response from the bin API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jsonbin API error %d: %s", e.StatusCode, e.Body)
}

// Client reads and replaces one bin. Every call transfers the whole
// document; there are no partial updates.
type Client struct {
	httpClient  *http.Client
	rateLimiter *RateLimiter
	baseURL     string
	binID       string
	masterKey   string
}

// NewClient creates a client for binID. A nil httpClient gets one with
// a 20 second timeout.
func NewClient(baseURL, binID, masterKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		httpClient:  httpClient,
		rateLimiter: NewRateLimiter(250 * time.Millisecond),
		baseURL:     strings.TrimRight(baseURL, "/"),
		binID:       binID,
		masterKey:   masterKey,
	}
}

// envelope is the API's wrapper around the stored document
type envelope struct {
	Record *store.State `json:"record"`
}

// LoadState fetches the latest version of the document
func (c *Client) LoadState(ctx context.Context) (*store.State, error) {
	resp, err := c.do(ctx, http.MethodGet, "/"+c.binID+"/latest", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	if env.Record == nil {
		return store.NewState(), nil
	}
	env.Record.Normalize()
	return env.Record, nil
}

// SaveState replaces the document and returns the stored version
func (c *Client) SaveState(ctx context.Context, st *store.State) (*store.State, error) {
	st.Normalize()
	body, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, "/"+c.binID, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Record == nil {
		// The write succeeded; fall back to what we sent
		return st, nil
	}
	env.Record.Normalize()
	return env.Record, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	if c.binID == "" || c.masterKey == "" {
		return nil, ErrNotConfigured
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Master-Key", c.masterKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	return resp, nil
}
