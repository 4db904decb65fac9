// Package remote talks to the REST task store. It implements board.Store.
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
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
	"github.com/twiced-technology-gmbh/protodo/internal/logging"
	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// RequestIDHeader carries a per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 64 << 10

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
	// Now is used for token expiry checks.
	Now func() time.Time
}

// Client is an HTTP client for the task store.
type Client struct {
	base *url.URL
	http *http.Client
	log  *log.Logger
	now  func() time.Time

	mu    sync.RWMutex
	token string
}

var _ board.Store = (*Client)(nil)

// New returns a Client for the store at opts.BaseURL.
func New(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if raw == "" {
		return nil, clierr.New(clierr.InvalidInput, "api base URL is required")
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, clierr.Newf(clierr.InvalidInput, "invalid api base URL %q", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		base:  base,
		http:  hc,
		log:   logger,
		now:   now,
		token: strings.TrimSpace(opts.Token),
	}, nil
}

// BaseURL returns the store root the client was built with.
func (c *Client) BaseURL() string { return c.base.String() }

// SetToken replaces the bearer credential.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Authenticated reports whether a credential is present and, when it is a
// JWT carrying an exp claim, not yet expired. Opaque tokens count as valid.
func (c *Client) Authenticated() bool {
	token := c.bearer()
	if token == "" {
		return false
	}
	exp, ok := tokenExpiry(token)
	if !ok {
		return true
	}
	return c.now().Before(exp)
}

// tokenExpiry reads the exp claim without verifying the signature; the
// store does the verification.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (c *Client) endpoint(segments ...string) string {
	u := *c.base
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(escaped, "/")
	return u.String()
}

// do sends one request. Mutating requests without a credential fail with
// AuthRequired before anything goes on the wire.
func (c *Client) do(ctx context.Context, method, target string, body, out any, notFound string) error {
	token := c.bearer()
	if method != http.MethodGet && !c.Authenticated() {
		return clierr.New(clierr.AuthRequired, "Login required")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return clierr.Wrap(clierr.InternalError, err, "encoding request: "+err.Error())
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return clierr.Wrap(clierr.InternalError, err, "building request: "+err.Error())
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", "method", method, "url", target, "request_id", reqID, "err", err)
		return clierr.Wrap(clierr.TransportError, err, fmt.Sprintf("%s %s: %v", method, target, err)).
			WithDetails(map[string]any{"request_id": reqID})
	}
	defer resp.Body.Close()
	c.log.Debug("request", "method", method, "url", target, "status", resp.StatusCode,
		"request_id", reqID, "elapsed", c.now().Sub(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp, reqID, notFound)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return clierr.Wrap(clierr.TransportError, err, "decoding response: "+err.Error()).
			WithDetails(map[string]any{"request_id": reqID})
	}
	return nil
}

// responseError converts a non-2xx response into a coded error.
func responseError(resp *http.Response, reqID, notFound string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb errorBody
	var msg string
	if err := json.Unmarshal(data, &eb); err == nil {
		msg = eb.Message
		if msg == "" {
			msg = eb.Error
		}
	} else {
		msg = strings.TrimSpace(string(data))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	code := clierr.TransportError
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = clierr.AuthRequired
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = clierr.ValidationError
	case http.StatusNotFound:
		if notFound != "" {
			code = notFound
		}
	}
	return clierr.New(code, msg).WithDetails(map[string]any{
		"status":     resp.StatusCode,
		"request_id": reqID,
	})
}

// ListBoards returns every board, active and archived.
func (c *Client) ListBoards(ctx context.Context) ([]board.Info, error) {
	var dtos []boardDTO
	if err := c.do(ctx, http.MethodGet, c.endpoint("boards"), nil, &dtos, ""); err != nil {
		return nil, err
	}
	out := make([]board.Info, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.info())
	}
	return out, nil
}

// CreateBoard creates a board named name.
func (c *Client) CreateBoard(ctx context.Context, name string) (board.Info, error) {
	var d boardDTO
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, c.endpoint("boards"), body, &d, ""); err != nil {
		return board.Info{}, err
	}
	return checkBoard(d.info())
}

// ArchiveBoard soft-deletes a board.
func (c *Client) ArchiveBoard(ctx context.Context, id string) (board.Info, error) {
	var d boardDTO
	if err := c.do(ctx, http.MethodPatch, c.endpoint("boards", id, "archive"), struct{}{}, &d, clierr.BoardNotFound); err != nil {
		return board.Info{}, err
	}
	info := d.info()
	if info.ID == "" {
		info.ID = id
	}
	info.Archived = true
	return info, nil
}

// RestoreBoard un-archives a board.
func (c *Client) RestoreBoard(ctx context.Context, id string) (board.Info, error) {
	var d boardDTO
	if err := c.do(ctx, http.MethodPatch, c.endpoint("boards", id, "restore"), struct{}{}, &d, clierr.BoardNotFound); err != nil {
		return board.Info{}, err
	}
	info := d.info()
	if info.ID == "" {
		info.ID = id
	}
	info.Archived = false
	return info, nil
}

// DeleteBoard permanently deletes a board and its tasks.
func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.endpoint("boards", id), nil, nil, clierr.BoardNotFound)
}

// ListTasks returns the tasks of boardID in store order.
func (c *Client) ListTasks(ctx context.Context, boardID string) ([]*task.Task, error) {
	var dtos []taskDTO
	if err := c.do(ctx, http.MethodGet, c.endpoint("tasks", boardID), nil, &dtos, clierr.BoardNotFound); err != nil {
		return nil, err
	}
	out := make([]*task.Task, 0, len(dtos))
	for _, d := range dtos {
		t := d.task()
		if t.BoardID == "" {
			t.BoardID = boardID
		}
		out = append(out, t)
	}
	return out, nil
}

// CreateTask creates t and returns the stored task with its new ID.
func (c *Client) CreateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	var d taskDTO
	if err := c.do(ctx, http.MethodPost, c.endpoint("tasks"), newTaskBody(t), &d, clierr.BoardNotFound); err != nil {
		return nil, err
	}
	return checkTask(d.task())
}

// UpdateTask replaces every field of the task with t.ID.
func (c *Client) UpdateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	var d taskDTO
	if err := c.do(ctx, http.MethodPut, c.endpoint("tasks", t.ID), newTaskBody(t), &d, clierr.TaskNotFound); err != nil {
		return nil, err
	}
	updated := d.task()
	if updated.ID == "" {
		updated.ID = t.ID
	}
	return updated, nil
}

// UpdateStatus changes only the status of a task.
func (c *Client) UpdateStatus(ctx context.Context, id, status string) error {
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPut, c.endpoint("tasks", id), body, nil, clierr.TaskNotFound)
}

// DeleteTask deletes the task with id.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.endpoint("tasks", id), nil, nil, clierr.TaskNotFound)
}

// TogglePin flips the pinned flag and returns the stored task.
func (c *Client) TogglePin(ctx context.Context, id string) (*task.Task, error) {
	var d taskDTO
	if err := c.do(ctx, http.MethodPatch, c.endpoint("tasks", id, "pin"), struct{}{}, &d, clierr.TaskNotFound); err != nil {
		return nil, err
	}
	t := d.task()
	if t.ID == "" {
		t.ID = id
	}
	return t, nil
}

var errMissingID = errors.New("response has no id")

func checkBoard(info board.Info) (board.Info, error) {
	if info.ID == "" {
		return board.Info{}, clierr.Wrap(clierr.TransportError, errMissingID, "store returned a board without an id")
	}
	return info, nil
}

func checkTask(t *task.Task) (*task.Task, error) {
	if t.ID == "" {
		return nil, clierr.Wrap(clierr.TransportError, errMissingID, "store returned a task without an id")
	}
	return t, nil
}
