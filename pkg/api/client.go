// Package api is the request layer of the client: one method per backend operation.
//
// Every method issues exactly one request, never retries, and turns any status other than the
// expected one into a *core.Error whose kind can be matched with errors.Is.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/putto11262002/whatsthat/core"
)

const (
	// AuthHeader carries the session token.
	AuthHeader      = "X-Authorization"
	RequestIDHeader = "X-Request-ID"

	// maxResponseSize bounds the body read from the backend. Photos are the largest payload.
	maxResponseSize = 16 << 20
)

const (
	msgServer  = "Server error. Please try again later."
	msgNetwork = "An error occurred while contacting the server. Please try again."
)

var defaultMessages = map[int]string{
	http.StatusBadRequest:   "Bad request. Please check your input and try again.",
	http.StatusUnauthorized: "Unauthorised. Please log in and try again.",
	http.StatusForbidden:    "Forbidden. You do not have permission to do this.",
	http.StatusNotFound:     "Not found. It may have been removed.",
}

// Client talks to the backend on behalf of the session user.
type Client struct {
	baseURL string
	session core.SessionProvider
	http    *http.Client
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// NewClient returns a client for the backend at baseURL, e.g. http://localhost:3333/api/1.0.0.
func NewClient(baseURL string, session core.SessionProvider, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		http:    http.DefaultClient,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call describes one request.
type call struct {
	// op names the operation in logs and metrics.
	op     string
	method string
	path   string
	query  url.Values
	// body is JSON encoded when set.
	body interface{}
	// raw is sent as is with contentType when set.
	raw         []byte
	contentType string
	// anonymous calls do not send the session token.
	anonymous bool
	expect    int
	// messages override defaultMessages for this operation.
	messages map[int]string
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, cl call) (*response, error) {
	var body io.Reader
	contentType := "application/json"
	switch {
	case cl.raw != nil:
		body = bytes.NewReader(cl.raw)
		contentType = cl.contentType
	case cl.body != nil:
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", cl.op, err)
		}
		body = bytes.NewReader(b)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("new %s request: %w", cl.op, err)
	}
	req.Header.Set("Content-Type", contentType)
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	if !cl.anonymous {
		token, err := c.session.Token(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set(AuthHeader, token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(cl.op, "error", time.Since(start))
		c.logger.Warn("request failed", slog.String("op", cl.op), slog.String("request_id", requestID), slog.Any("error", err))
		return nil, core.NewError(core.ErrNetwork, msgNetwork).WithCause(err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	c.metrics.observe(cl.op, strconv.Itoa(res.StatusCode), time.Since(start))
	if err != nil {
		return nil, core.NewError(core.ErrNetwork, msgNetwork).WithCause(err)
	}

	c.logger.Debug("request",
		slog.String("op", cl.op),
		slog.String("method", cl.method),
		slog.String("path", cl.path),
		slog.Int("status", res.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("request_id", requestID))

	if res.StatusCode != cl.expect {
		err := classify(res.StatusCode, data, cl.messages)
		c.logger.Warn(err.Error(),
			slog.String("op", cl.op),
			slog.Int("status", res.StatusCode),
			slog.String("detail", err.Detail),
			slog.String("request_id", requestID))
		return nil, err
	}
	return &response{status: res.StatusCode, header: res.Header, body: data}, nil
}

// doJSON performs cl and decodes the response body into out.
func (c *Client) doJSON(ctx context.Context, cl call, out interface{}) error {
	res, err := c.do(ctx, cl)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		c.logger.Warn("undecodable response", slog.String("op", cl.op), slog.Any("error", err))
		return core.NewError(core.ErrNetwork, msgNetwork).WithCause(err)
	}
	return nil
}

// exec performs cl and discards the response body.
func (c *Client) exec(ctx context.Context, cl call) error {
	_, err := c.do(ctx, cl)
	return err
}

// classify maps a status to an error kind and picks the user facing message.
func classify(status int, body []byte, messages map[int]string) *core.Error {
	var kind error
	switch {
	case status == http.StatusBadRequest:
		kind = core.ErrBadRequest
	case status == http.StatusUnauthorized:
		kind = core.ErrUnauthorized
	case status == http.StatusForbidden:
		kind = core.ErrForbidden
	case status == http.StatusNotFound:
		kind = core.ErrNotFound
	default:
		kind = core.ErrServer
	}

	msg, ok := messages[status]
	if !ok {
		msg, ok = defaultMessages[status]
	}
	if !ok {
		msg = msgServer
	}

	err := core.NewError(kind, msg)
	err.Status = status
	err.Detail = strings.TrimSpace(string(body))
	return err
}

func pageQuery(p core.Page) url.Values {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	return q
}
