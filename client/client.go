// Package client is a Go client for the WorkHub HTTP API together with an
// optimistic board mirror for interactive front ends.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"workhub-api/domain"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("workhub: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// User is the public profile returned by login and /user.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Credentials struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// TaskInput describes a new task. Empty priority and status take the server
// defaults.
type TaskInput struct {
	BoardID     string          `json:"boardId"`
	Title       string          `json:"title"`
	Priority    domain.Priority `json:"priority,omitempty"`
	Description string          `json:"description,omitempty"`
	Deadline    *time.Time      `json:"deadline,omitempty"`
	Status      domain.Status   `json:"status,omitempty"`
}

// TaskPatch updates a subset of task fields. ClearDeadline sends an explicit
// null deadline.
type TaskPatch struct {
	BoardID       string
	Title         *string
	Priority      *domain.Priority
	Description   *string
	Deadline      *time.Time
	ClearDeadline bool
	Status        *domain.Status
}

func (p TaskPatch) body() map[string]any {
	out := map[string]any{"boardId": p.BoardID}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Priority != nil {
		out["priority"] = *p.Priority
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	switch {
	case p.ClearDeadline:
		out["deadline"] = nil
	case p.Deadline != nil:
		out["deadline"] = p.Deadline.UTC().Format(time.RFC3339Nano)
	}
	if p.Status != nil {
		out["status"] = *p.Status
	}
	return out
}

func (p TaskPatch) update() domain.TaskUpdate {
	return domain.TaskUpdate{
		Title:       p.Title,
		Priority:    p.Priority,
		Description: p.Description,
		Deadline:    p.Deadline,
		DeadlineSet: p.ClearDeadline || p.Deadline != nil,
		Status:      p.Status,
	}
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (string, error) {
	var resp struct {
		UserID string `json:"userId"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/signup", map[string]string{
		"name": name, "email": email, "password": password,
	}, &resp)
	return resp.UserID, err
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password,
	}, &resp); err != nil {
		return User{}, err
	}
	c.token = resp.Token
	return resp.User, nil
}

func (c *Client) Profile(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/user", nil, &u)
	return u, err
}

func (c *Client) ListBoards(ctx context.Context) ([]domain.Board, error) {
	var boards []domain.Board
	err := c.do(ctx, http.MethodGet, "/boards", nil, &boards)
	return boards, err
}

func (c *Client) CreateBoard(ctx context.Context, name string) (Credentials, error) {
	var creds Credentials
	err := c.do(ctx, http.MethodPost, "/boards", map[string]string{"name": name}, &creds)
	return creds, err
}

func (c *Client) GetBoard(ctx context.Context, boardID string) (domain.Board, error) {
	var b domain.Board
	err := c.do(ctx, http.MethodGet, "/boards/"+boardID, nil, &b)
	return b, err
}

func (c *Client) RenameBoard(ctx context.Context, boardID, name string) error {
	return c.do(ctx, http.MethodPut, "/boards/"+boardID, map[string]string{"name": name}, nil)
}

// ReplaceTasks overwrites the whole task list of a board.
func (c *Client) ReplaceTasks(ctx context.Context, boardID string, tasks []domain.Task) error {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return c.do(ctx, http.MethodPut, "/boards/"+boardID, map[string]any{"tasks": tasks}, nil)
}

func (c *Client) DeleteBoard(ctx context.Context, boardID string) error {
	return c.do(ctx, http.MethodDelete, "/boards/"+boardID, nil, nil)
}

func (c *Client) RotatePassword(ctx context.Context, boardID string) (Credentials, error) {
	var creds Credentials
	err := c.do(ctx, http.MethodPost, "/boards/"+boardID+"/password", nil, &creds)
	return creds, err
}

func (c *Client) JoinBoard(ctx context.Context, boardID, password string) (domain.Board, error) {
	var b domain.Board
	err := c.do(ctx, http.MethodPost, "/boards/join", map[string]string{
		"boardId": boardID, "password": password,
	}, &b)
	return b, err
}

func (c *Client) CreateTask(ctx context.Context, in TaskInput) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/tasks", in, &resp)
	return resp.ID, err
}

func (c *Client) UpdateTask(ctx context.Context, taskID string, patch TaskPatch) error {
	return c.do(ctx, http.MethodPut, "/tasks/"+taskID, patch.body(), nil)
}

func (c *Client) AddComment(ctx context.Context, boardID, taskID, content string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/comments", map[string]string{
		"boardId": boardID, "taskId": taskID, "content": content,
	}, &resp)
	return resp.ID, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if sonic.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
