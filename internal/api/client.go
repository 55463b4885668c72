// Package api is the typed client for the CodeNest platform REST API. Calls that require
// authentication carry the stored access token and recover from a single expired-token 401
// through one refresh exchange and one retry.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codenestai/client/internal/logging"
	"github.com/codenestai/client/internal/tokens"
)

// Client dispatches requests to the platform API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     tokens.Store
	logger     *slog.Logger
	metrics    *Metrics
	refresher  *refresher

	Auth        *AuthService
	Users       *UsersService
	Courses     *CoursesService
	Enrollments *EnrollmentsService
	Community   *CommunityService
	Forum       *ForumService
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client, for example to install a transport chain.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets the logger used for calls whose context carries no span.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records request, refresh and retry counts.
func WithMetrics(metrics *Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// New constructs a Client for baseURL (for example "http://localhost:8081/api") that keeps
// its credentials in store.
func New(baseURL string, store tokens.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     store,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.refresher = newRefresher(c)
	c.Auth = &AuthService{client: c}
	c.Users = &UsersService{client: c}
	c.Courses = &CoursesService{client: c}
	c.Enrollments = &EnrollmentsService{client: c}
	c.Community = &CommunityService{client: c}
	c.Forum = &ForumService{client: c}
	return c
}

// BaseURL returns the API root every path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tokens returns the store holding the credential pair.
func (c *Client) Tokens() tokens.Store {
	return c.tokens
}

// callState tracks one dispatch through Requesting -> (RefreshPending -> Retrying)? -> Done | Failed.
type callState int

const (
	stateRequesting callState = iota
	stateRefreshPending
	stateRetrying
	stateDone
	stateFailed
)

func (s callState) String() string {
	switch s {
	case stateRequesting:
		return "requesting"
	case stateRefreshPending:
		return "refresh_pending"
	case stateRetrying:
		return "retrying"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type request struct {
	method string
	path   string
	body   []byte
	auth   bool
}

type response struct {
	status int
	body   []byte
}

// call is a single dispatch. retried guards the Retrying transition so it is taken at most once.
type call struct {
	client  *Client
	req     request
	state   callState
	resp    response
	err     error
	retried bool
}

func (c *call) step(ctx context.Context) {
	switch c.state {
	case stateRequesting:
		resp, err := c.client.send(ctx, c.req)
		if err != nil {
			c.fail(err)
			return
		}
		c.resp = resp
		if resp.status == http.StatusUnauthorized && c.req.auth {
			c.state = stateRefreshPending
			return
		}
		c.state = stateDone

	case stateRefreshPending:
		if c.retried {
			c.fail(newSessionExpired())
			return
		}
		refreshed, err := c.client.refresher.refresh(ctx)
		if err != nil {
			c.fail(err)
			return
		}
		if !refreshed {
			c.fail(newSessionExpired())
			return
		}
		c.state = stateRetrying

	case stateRetrying:
		c.retried = true
		c.client.metrics.observeRetry()
		resp, err := c.client.send(ctx, c.req)
		if err != nil {
			c.fail(err)
			return
		}
		c.resp = resp
		c.state = stateDone
	}
}

func (c *call) fail(err error) {
	c.err = err
	c.state = stateFailed
}

// do sends a request and decodes a 2xx JSON body into out. in, when not nil, is encoded as
// the JSON request body. An empty 2xx body leaves out untouched.
func (c *Client) do(ctx context.Context, method, path string, in any, auth bool, out any) error {
	req := request{method: method, path: path, auth: auth}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		req.body = payload
	}

	if c.logger != nil && logging.TraceIDFromContext(ctx) == "" {
		ctx = logging.WithLogger(ctx, c.logger)
	}
	ctx, span := logging.StartSpan(ctx, method+" "+path)
	defer span.End()

	cl := &call{client: c, req: req, state: stateRequesting}
	for cl.state != stateDone && cl.state != stateFailed {
		cl.step(ctx)
	}
	if cl.state == stateFailed {
		span.Fail(cl.err)
		return cl.err
	}

	if err := decodeResponse(cl.resp, out); err != nil {
		span.Fail(err)
		return err
	}
	return nil
}

func decodeResponse(resp response, out any) error {
	if resp.status < 200 || resp.status > 299 {
		return &Error{Status: resp.status, Message: string(resp.body)}
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// send performs one HTTP exchange. The bearer header is re-read from the store on every
// send so a retry carries the refreshed token.
func (c *Client) send(ctx context.Context, req request) (response, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	if req.auth {
		token, err := c.tokens.Get(ctx, tokens.AccessToken)
		switch {
		case err == nil && token != "":
			httpReq.Header.Set("Authorization", "Bearer "+token)
		case err != nil && !errors.Is(err, tokens.ErrNotFound):
			return response{}, fmt.Errorf("read access token: %w", err)
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observeRequest(req.method, 0, time.Since(start))
		return response{}, err
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	c.metrics.observeRequest(req.method, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return response{}, fmt.Errorf("read response body: %w", err)
	}

	logging.FromContext(ctx).Debug("api response",
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status", httpResp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return response{status: httpResp.StatusCode, body: payload}, nil
}
