// Package apiclient is the console's wrapper around the remote users API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"userconsole"
	"userconsole/internal/logger"
	"userconsole/internal/metrics"
)

const (
	loginPath = "/login"
	usersPath = "/users"

	maxErrorBody = 1 << 16
)

const (
	opLogin  = "login"
	opList   = "list"
	opGet    = "get"
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// Client issues the six users API calls against one base URL. It neither
// retries nor sets a timeout; callers bound requests through the context.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger attaches a logger for failed calls.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call describes one request.
type call struct {
	op       string
	method   string
	path     string
	token    string // empty means no Authorization header
	body     any
	fallback string
}

func userPath(id int) string {
	return fmt.Sprintf("%s/%d", usersPath, id)
}

// Login exchanges credentials for a token and the signed-in user.
func (c *Client) Login(ctx context.Context, creds userconsole.Credentials) (userconsole.LoginResult, error) {
	var out userconsole.LoginResult
	err := c.do(ctx, call{
		op: opLogin, method: http.MethodPost, path: loginPath,
		body: creds, fallback: "failed to log in",
	}, &out)
	if err != nil {
		return userconsole.LoginResult{}, err
	}
	return out, nil
}

// List returns every user visible to token.
func (c *Client) List(ctx context.Context, token string) ([]userconsole.User, error) {
	var out []userconsole.User
	err := c.do(ctx, call{
		op: opList, method: http.MethodGet, path: usersPath,
		token: token, fallback: "failed to fetch users",
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []userconsole.User{}
	}
	return out, nil
}

// Get fetches one user.
func (c *Client) Get(ctx context.Context, id int, token string) (userconsole.User, error) {
	var out userconsole.User
	err := c.do(ctx, call{
		op: opGet, method: http.MethodGet, path: userPath(id),
		token: token, fallback: fmt.Sprintf("failed to fetch user with ID %d", id),
	}, &out)
	if err != nil {
		return userconsole.User{}, err
	}
	return out, nil
}

// Create registers a new user and returns it with its server-assigned id.
func (c *Client) Create(ctx context.Context, in userconsole.UserInput, token string) (userconsole.User, error) {
	var out userconsole.User
	err := c.do(ctx, call{
		op: opCreate, method: http.MethodPost, path: usersPath,
		token: token, body: in, fallback: "failed to create user",
	}, &out)
	if err != nil {
		return userconsole.User{}, err
	}
	return out, nil
}

// Update replaces name, email and type of a user, and its password when
// in.Password is set.
func (c *Client) Update(ctx context.Context, id int, in userconsole.UserInput, token string) (userconsole.User, error) {
	var out userconsole.User
	err := c.do(ctx, call{
		op: opUpdate, method: http.MethodPut, path: userPath(id),
		token: token, body: in, fallback: fmt.Sprintf("failed to update user with ID %d", id),
	}, &out)
	if err != nil {
		return userconsole.User{}, err
	}
	return out, nil
}

// Delete removes a user. It reports true once the API confirmed the deletion.
func (c *Client) Delete(ctx context.Context, id int, token string) (bool, error) {
	err := c.do(ctx, call{
		op: opDelete, method: http.MethodDelete, path: userPath(id),
		token: token, fallback: fmt.Sprintf("failed to delete user with ID %d", id),
	}, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return c.fail(cl, 0, err.Error())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// no response: surface the transport message
		return c.fail(cl, 0, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.fail(cl, resp.StatusCode, serverMessage(resp.Body))
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if c.log != nil {
				c.log.Errorw("api_decode_failed", "op", cl.op, "err", err)
			}
			return c.fail(cl, resp.StatusCode, "")
		}
	}
	metrics.ObserveUpstream(cl.op, resp.StatusCode)
	return nil
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", cl.op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	return req, nil
}

// fail builds the normalized error: the given message when non-empty,
// otherwise the per-operation fallback.
func (c *Client) fail(cl call, status int, msg string) error {
	if strings.TrimSpace(msg) == "" {
		msg = cl.fallback
	}
	metrics.ObserveUpstream(cl.op, status)
	if c.log != nil {
		c.log.Errorw("api_"+cl.op+"_failed", "status", status, "path", cl.path, "err", msg)
	}
	return &userconsole.APIError{Op: cl.op, Status: status, Message: msg}
}

// serverMessage extracts the API's error text. The contract is a "message"
// field; gin services in this codebase answer with "error", so both are read.
func serverMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(b) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(b, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
