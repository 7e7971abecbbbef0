// Package api implements the service.Service interface against the taches REST backend.
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
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"taskboard/internal/service"
)

const (
	// APITimeout is the default timeout for API calls.
	APITimeout = 10 * time.Second

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-Id"

	jsonContentType = "application/json"
)

// Client implements service.Service using the taches REST API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  oauth2.TokenSource
	timeout time.Duration
	log     *slog.Logger

	onUnauthorized func()
	onLogout       func()
}

var _ service.Service = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// OnUnauthorized registers a hook run whenever the backend answers 401.
func OnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// OnLogout registers the hook run by Logout; the token owner clears its
// session there.
func OnLogout(fn func()) Option {
	return func(c *Client) { c.onLogout = fn }
}

// New creates a new taches API client.
// tokens supplies the bearer token; it may be nil for anonymous use.
func New(baseURL string, tokens oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
		timeout: APITimeout,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (service.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", creds)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg service.Registration) (service.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", reg)
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) (service.AuthResponse, error) {
	status, data, err := c.doJSON(ctx, http.MethodPost, path, payload)
	if err != nil {
		return service.AuthResponse{}, err
	}
	outcome, _, err := decodeOutcome(status, data)
	if err != nil {
		return service.AuthResponse{}, err
	}
	resp := service.AuthResponse{Outcome: outcome}
	if outcome.Success {
		var body struct {
			Token string        `json:"token"`
			User  *service.User `json:"user"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return service.AuthResponse{}, fmt.Errorf("invalid response: %w", err)
		}
		resp.Token = body.Token
		resp.User = body.User
	}
	return resp, nil
}

// Logout forgets the bearer token. No request is sent.
func (c *Client) Logout(ctx context.Context) error {
	if c.onLogout != nil {
		c.onLogout()
	}
	return nil
}

// CurrentUser returns the user owning the bearer token.
func (c *Client) CurrentUser(ctx context.Context) (service.MeResponse, error) {
	var me service.MeResponse
	if err := c.get(ctx, "/auth/me", nil, &me); err != nil {
		return service.MeResponse{}, err
	}
	return me, nil
}

// ListTasks returns one page of tasks.
func (c *Client) ListTasks(ctx context.Context, page, limit int) (service.TaskPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var result service.TaskPage
	if err := c.get(ctx, "/taches", q, &result); err != nil {
		return service.TaskPage{}, err
	}
	if result.Tasks == nil {
		result.Tasks = []service.Task{}
	}
	return result, nil
}

// GetTask returns a single task.
func (c *Client) GetTask(ctx context.Context, id int) (service.Task, error) {
	status, data, err := c.do(ctx, http.MethodGet, taskPath(id), nil, "")
	if err != nil {
		return service.Task{}, err
	}
	if err := rejectAsError(status, data); err != nil {
		return service.Task{}, err
	}
	task, ok, err := decodeTask(data)
	if err != nil {
		return service.Task{}, err
	}
	if !ok {
		return service.Task{}, fmt.Errorf("task %d: %w", id, service.ErrNotFound)
	}
	return task, nil
}

// CreateTask creates a task. Attachments switch the body to multipart form
// data and the content type is left to the multipart writer.
func (c *Client) CreateTask(ctx context.Context, task service.NewTask) (service.TaskResult, error) {
	var (
		status int
		data   []byte
		err    error
	)
	if task.HasAttachments() {
		body, contentType, encErr := encodeMultipart(task)
		if encErr != nil {
			return service.TaskResult{}, encErr
		}
		status, data, err = c.do(ctx, http.MethodPost, "/taches", body, contentType)
	} else {
		status, data, err = c.doJSON(ctx, http.MethodPost, "/taches", task)
	}
	if err != nil {
		return service.TaskResult{}, err
	}
	return decodeTaskResult(status, data)
}

// UpdateTask replaces the editable fields of a task.
func (c *Client) UpdateTask(ctx context.Context, id int, patch service.TaskPatch) (service.TaskResult, error) {
	status, data, err := c.doJSON(ctx, http.MethodPut, taskPath(id), patch)
	if err != nil {
		return service.TaskResult{}, err
	}
	return decodeTaskResult(status, data)
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	status, data, err := c.do(ctx, http.MethodDelete, taskPath(id), nil, "")
	if err != nil {
		return err
	}
	return rejectAsError(status, data)
}

// UpdateTaskStatus changes only the status of a task.
func (c *Client) UpdateTaskStatus(ctx context.Context, id int, status service.Status) (service.TaskResult, error) {
	if !status.Valid() {
		return service.TaskResult{}, fmt.Errorf("invalid status: %s", string(status))
	}
	path := taskPath(id) + "/" + url.PathEscape(status.Wire())
	code, data, err := c.do(ctx, http.MethodPatch, path, nil, "")
	if err != nil {
		return service.TaskResult{}, err
	}
	return decodeTaskResult(code, data)
}

// ListUsers returns every user.
func (c *Client) ListUsers(ctx context.Context) ([]service.User, error) {
	var users []service.User
	if err := c.get(ctx, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns a single user.
func (c *Client) GetUser(ctx context.Context, id int) (service.User, error) {
	var user service.User
	if err := c.get(ctx, "/users/"+strconv.Itoa(id), nil, &user); err != nil {
		return service.User{}, err
	}
	return user, nil
}

// CreateUser creates a user account.
func (c *Client) CreateUser(ctx context.Context, reg service.Registration) (service.UserResult, error) {
	status, data, err := c.doJSON(ctx, http.MethodPost, "/users", reg)
	if err != nil {
		return service.UserResult{}, err
	}
	outcome, env, err := decodeOutcome(status, data)
	if err != nil {
		return service.UserResult{}, err
	}
	result := service.UserResult{Outcome: outcome}
	if !outcome.Success {
		return result, nil
	}
	var user service.User
	switch {
	case len(env.User) > 0 && string(env.User) != "null":
		err = json.Unmarshal(env.User, &user)
	case len(env.Data) > 0 && string(env.Data) != "null":
		err = json.Unmarshal(env.Data, &user)
	default:
		err = json.Unmarshal(data, &user)
	}
	if err != nil {
		return service.UserResult{}, fmt.Errorf("invalid response: %w", err)
	}
	if user.ID != 0 {
		result.User = &user
	}
	return result, nil
}

// UnreadNotificationCount returns the number of unread notifications.
func (c *Client) UnreadNotificationCount(ctx context.Context) (int, error) {
	var body struct {
		Count int `json:"count"`
	}
	if err := c.get(ctx, "/notifications/unread-count", nil, &body); err != nil {
		return 0, err
	}
	return body.Count, nil
}

// ListNotifications returns the current user's notifications.
func (c *Client) ListNotifications(ctx context.Context) ([]service.Notification, error) {
	var list []service.Notification
	if err := c.get(ctx, "/notifications", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	status, data, err := c.do(ctx, http.MethodPatch, "/notifications/"+strconv.Itoa(id)+"/read", nil, "")
	if err != nil {
		return err
	}
	return rejectAsError(status, data)
}

// MarkAllNotificationsRead marks every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	status, data, err := c.do(ctx, http.MethodPatch, "/notifications/read-all", nil, "")
	if err != nil {
		return err
	}
	return rejectAsError(status, data)
}

// get performs a GET and decodes the body into v.
// Read endpoints have no Outcome to carry a rejection, so 400/409 are errors here.
func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	status, data, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	if err := rejectAsError(status, data); err != nil {
		return err
	}
	if status == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	return c.do(ctx, method, path, bytes.NewReader(body), jsonContentType)
}

// do sends one request and returns the status and body.
// 2xx, 400 and 409 come back as data; any other status is an error.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", jsonContentType)
	req.Header.Set(RequestIDHeader, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if tok, err := c.tokens.Token(); err == nil && tok.Valid() {
			tok.SetAuthHeader(req)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "request_id", requestID, "err", err)
		return 0, nil, wrapError(err)
	}
	defer googleapi.CloseBody(resp)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, wrapError(err)
	}
	c.log.Debug("request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	if isSuccess(resp.StatusCode) || isRejection(resp.StatusCode) {
		if resp.StatusCode == http.StatusNoContent {
			data = nil
		}
		return resp.StatusCode, data, nil
	}
	return resp.StatusCode, data, wrapError(newAPIError(resp.StatusCode, resp.Header, data))
}

func taskPath(id int) string {
	return "/taches/" + strconv.Itoa(id)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// isRejection reports whether the status carries validation data for the caller.
func isRejection(code int) bool {
	return code == http.StatusBadRequest || code == http.StatusConflict
}
