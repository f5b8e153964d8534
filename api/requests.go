package api

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"workhub-api/domain"
)

const maxRequestBodySize = 64 * 1024 // 64 KiB

var errInvalidBody = &domain.ValidationError{Field: "body", Message: "invalid body"}

type validator interface {
	validate() error
}

// presenceTracker is implemented by requests that must tell an explicit JSON
// null apart from an absent field.
type presenceTracker interface {
	trackPresence(fields map[string]any)
}

// decodeRequest strictly decodes the request body into dst and validates it.
// Unknown fields and bodies over 64 KiB are rejected.
func decodeRequest(c echo.Context, dst validator) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRequestBodySize+1))
	if err != nil {
		return errInvalidBody
	}
	if len(body) > maxRequestBodySize {
		return &domain.ValidationError{Field: "body", Message: "request body too large"}
	}
	dec := sonic.ConfigStd.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody
	}
	if pt, ok := dst.(presenceTracker); ok {
		var fields map[string]any
		if err := sonic.Unmarshal(body, &fields); err != nil {
			return errInvalidBody
		}
		pt.trackPresence(fields)
	}
	return dst.validate()
}

func required(msg string, values ...string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return &domain.ValidationError{Field: "body", Message: msg}
		}
	}
	return nil
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *signupRequest) validate() error {
	return required("Missing required fields", r.Name, r.Email, r.Password)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) validate() error {
	return required("Missing required fields", r.Email, r.Password)
}

type createBoardRequest struct {
	Name string `json:"name"`
}

func (r *createBoardRequest) validate() error {
	return required("Board name is required", r.Name)
}

type updateBoardRequest struct {
	Name  *string        `json:"name"`
	Tasks *[]domain.Task `json:"tasks"`
}

func (r *updateBoardRequest) validate() error {
	if r.Name == nil && r.Tasks == nil {
		return &domain.ValidationError{Field: "body", Message: "No fields provided to update"}
	}
	return nil
}

func (r *updateBoardRequest) update() domain.BoardUpdate {
	upd := domain.BoardUpdate{Name: r.Name}
	if r.Tasks != nil {
		upd.ReplaceTasks = true
		upd.Tasks = *r.Tasks
	}
	return upd
}

type joinBoardRequest struct {
	BoardID  string `json:"boardId"`
	Password string `json:"password"`
}

func (r *joinBoardRequest) validate() error {
	return required("Board ID and password are required", r.BoardID, r.Password)
}

type createTaskRequest struct {
	BoardID     string          `json:"boardId"`
	Title       string          `json:"title"`
	Priority    domain.Priority `json:"priority"`
	Description string          `json:"description"`
	Deadline    *time.Time      `json:"deadline"`
	Status      domain.Status   `json:"status"`
}

func (r *createTaskRequest) validate() error {
	return required("Board ID and title are required", r.BoardID, r.Title)
}

func (r *createTaskRequest) newTask() domain.NewTask {
	return domain.NewTask{
		Title:       r.Title,
		Priority:    r.Priority,
		Description: r.Description,
		Deadline:    r.Deadline,
		Status:      r.Status,
	}
}

type updateTaskRequest struct {
	BoardID     string           `json:"boardId"`
	Title       *string          `json:"title"`
	Priority    *domain.Priority `json:"priority"`
	Description *string          `json:"description"`
	Deadline    *time.Time       `json:"deadline"`
	Status      *domain.Status   `json:"status"`

	deadlineSet bool
}

func (r *updateTaskRequest) trackPresence(fields map[string]any) {
	_, r.deadlineSet = fields["deadline"]
}

func (r *updateTaskRequest) validate() error {
	if err := required("Board ID is required", r.BoardID); err != nil {
		return err
	}
	return r.update().Validate()
}

func (r *updateTaskRequest) update() domain.TaskUpdate {
	return domain.TaskUpdate{
		Title:       r.Title,
		Priority:    r.Priority,
		Description: r.Description,
		Deadline:    r.Deadline,
		DeadlineSet: r.deadlineSet || r.Deadline != nil,
		Status:      r.Status,
	}
}

type createCommentRequest struct {
	BoardID string `json:"boardId"`
	TaskID  string `json:"taskId"`
	Content string `json:"content"`
}

func (r *createCommentRequest) validate() error {
	return required("Board ID, Task ID, and content are required", r.BoardID, r.TaskID, r.Content)
}
