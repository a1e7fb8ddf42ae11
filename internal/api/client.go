// Package api is the typed client for the jille backend. All calls go
// through the session guard transport, so an expired access credential
// is renewed and retried transparently before any error reaches a
// caller here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/winnerx0/jille-client/internal/credstore"
	"github.com/winnerx0/jille-client/internal/model"
	"github.com/winnerx0/jille-client/internal/session"
)

var (
	// ErrUnauthorized is a 401 that survived the guard's renew-and-retry
	// cycle. The session is not recoverable without a fresh login.
	ErrUnauthorized = errors.New("api: unauthorized")

	// ErrForbidden is a 403: the credential is valid but the caller is
	// not allowed. Never retried, never triggers renewal.
	ErrForbidden = errors.New("api: forbidden")
)

// APIError carries a non-2xx status and the backend's message for
// statuses outside the auth taxonomy.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Client talks to the jille backend.
type Client struct {
	baseURL string
	http    *http.Client
	store   credstore.Store
	guard   *session.Transport
}

// New builds a Client whose requests are guarded by a session.Transport
// over the given store.
func New(baseURL string, store credstore.Store) *Client {
	guard := session.NewTransport(store, nil, baseURL)
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Transport: guard},
		store:   store,
		guard:   guard,
	}
}

// HTTPClient exposes the guarded client, for consumers that speak raw
// HTTP against the same session (the live sync stream does).
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register creates an account and stores the issued credential pair.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) error {
	var envelope model.Envelope[model.AuthTokens]
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", req, &envelope); err != nil {
		return err
	}
	return c.store.Set(envelope.Data)
}

// Login authenticates and stores the issued credential pair.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) error {
	var envelope model.Envelope[model.AuthTokens]
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", req, &envelope); err != nil {
		return err
	}
	return c.store.Set(envelope.Data)
}

// Logout clears the stored credential pair. Purely local: the backend
// keeps no session state beyond the tokens themselves.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// Refresh forces a credential renewal outside the 401 path.
func (c *Client) Refresh(ctx context.Context) error {
	_, err := c.guard.Renew()
	return err
}

// GetPoll fetches the voter-facing snapshot, including whether the
// caller has already voted.
func (c *Client) GetPoll(ctx context.Context, pollID string) (*model.Poll, error) {
	var poll model.Poll
	if err := c.do(ctx, http.MethodGet, "/api/v1/poll/"+pollID, nil, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// GetPollView fetches the creator-only live-results snapshot. Returns
// ErrForbidden for anyone but the poll's creator.
func (c *Client) GetPollView(ctx context.Context, pollID string) (*model.Poll, error) {
	var poll model.Poll
	if err := c.do(ctx, http.MethodGet, "/api/v1/poll/view/"+pollID, nil, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// ListPolls fetches every poll visible to the caller.
func (c *Client) ListPolls(ctx context.Context) ([]model.Poll, error) {
	var envelope model.Envelope[[]model.Poll]
	if err := c.do(ctx, http.MethodGet, "/api/v1/poll/all", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// CreatePoll creates a poll owned by the caller.
func (c *Client) CreatePoll(ctx context.Context, req model.CreatePollRequest) error {
	var envelope model.Envelope[json.RawMessage]
	return c.do(ctx, http.MethodPost, "/api/v1/poll/create", req, &envelope)
}

// DeletePoll deletes a poll. Creator-only; others get ErrForbidden.
func (c *Client) DeletePoll(ctx context.Context, pollID string) error {
	var envelope model.Envelope[json.RawMessage]
	return c.do(ctx, http.MethodPost, "/api/v1/poll/"+pollID, nil, &envelope)
}

// Vote records one vote for the caller on the given poll and option.
// The backend enforces one vote per (voter, poll).
func (c *Client) Vote(ctx context.Context, req model.VoteRequest) (*model.VoteResponse, error) {
	var resp model.VoteResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/vote/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUser fetches a user profile.
func (c *Client) GetUser(ctx context.Context, userID string) (*model.UserResponse, error) {
	var envelope model.Envelope[model.UserResponse]
	if err := c.do(ctx, http.MethodGet, "/api/v1/user/"+userID, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// do issues one guarded request and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Renewal failures and transport errors both land here,
		// already wrapped by the guard or the net stack.
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if err := statusError(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	default:
		var body model.ErrorBody
		json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
		return &APIError{Status: resp.StatusCode, Message: body.Message}
	}
}
