// Package upstream is the HTTP client for the notebook server's REST API.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/starford/nbshell/internal/apperr"
	"github.com/starford/nbshell/internal/models"
)

const maxBodySize = 4 << 20

// envelope is the JSON wrapper every notebook server response uses.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

type noteSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client talks to the notebook server. Cookies set by the server are kept
// in a jar and replayed on later calls.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client for baseURL (e.g. http://localhost:8080/api).
// timeout bounds every single request; zero means no client-side limit.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: cookie jar: %w", err)
	}
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout, Jar: jar})
}

// NewWithHTTPClient creates a Client using hc for transport.
func NewWithHTTPClient(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream: invalid base url %q", baseURL)
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}, nil
}

// Ticket fetches the current session ticket (GET /security/ticket).
func (c *Client) Ticket(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/security/ticket", nil)
	if err != nil {
		return "", fmt.Errorf("upstream: ticket: %w", err)
	}
	env, err := c.do(req)
	if err != nil {
		return "", err
	}
	return decodeTicket(env.Body)
}

// Login posts form-encoded credentials (POST /login) and returns the ticket
// issued for the new session.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("userName", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("upstream: login: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	env, err := c.do(req)
	if err != nil {
		return "", err
	}
	return decodeTicket(env.Body)
}

// Notebooks lists every notebook visible to ticket (GET /notebook).
func (c *Client) Notebooks(ctx context.Context, ticket string) ([]models.NotebookRecord, error) {
	u := c.base + "/notebook"
	if ticket != "" {
		u += "?" + url.Values{"ticket": {ticket}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: notebooks: %w", err)
	}
	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var notes []noteSummary
	if err := json.Unmarshal(env.Body, &notes); err != nil {
		return nil, fmt.Errorf("upstream: notebooks: %w: %v", apperr.ErrMalformedResponse, err)
	}
	out := make([]models.NotebookRecord, 0, len(notes))
	for _, n := range notes {
		out = append(out, RecordFromName(n.ID, n.Name))
	}
	return out, nil
}

// RecordFromName splits a notebook name of the form "Category/Title" into a
// record. Names without a folder yield an empty category.
func RecordFromName(id, name string) models.NotebookRecord {
	name = strings.Trim(name, "/")
	category, display, found := strings.Cut(name, "/")
	if !found {
		return models.NotebookRecord{ID: id, DisplayName: name}
	}
	return models.NotebookRecord{
		ID:           id,
		DisplayName:  strings.TrimSpace(display),
		CategoryName: strings.TrimSpace(category),
	}
}

// do executes req and decodes the envelope. Transport errors and non-2xx
// statuses wrap apperr.ErrTransport, and 401/403 also wrap
// apperr.ErrUnauthenticated; undecodable bodies wrap
// apperr.ErrMalformedResponse.
func (c *Client) do(req *http.Request) (*envelope, error) {
	op := req.Method + " " + req.URL.Path
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: %s: %w: %v", op, apperr.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("upstream: %s: read body: %w: %v", op, apperr.ErrTransport, err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("upstream: %s: status %d: %w: %w", op, resp.StatusCode, apperr.ErrTransport, apperr.ErrUnauthenticated)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("upstream: %s: status %d: %w", op, resp.StatusCode, apperr.ErrTransport)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("upstream: %s: %w: %v", op, apperr.ErrMalformedResponse, err)
	}
	return &env, nil
}

// decodeTicket accepts either a bare ticket string or an object carrying a
// "ticket" field.
func decodeTicket(body json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("upstream: empty ticket: %w", apperr.ErrMalformedResponse)
		}
		return s, nil
	}
	var obj struct {
		Ticket string `json:"ticket"`
	}
	if err := json.Unmarshal(body, &obj); err != nil || obj.Ticket == "" {
		return "", fmt.Errorf("upstream: missing ticket: %w", apperr.ErrMalformedResponse)
	}
	return obj.Ticket, nil
}
