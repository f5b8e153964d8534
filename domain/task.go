package domain

import (
	"strings"
	"time"
)

// Status is the board column a task sits in.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusToDo, StatusInProgress, StatusDone}

// Valid reports whether s names one of the three fixed columns.
func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work embedded in a board's task list. Its id is only
// unique within the parent board.
type Task struct {
	ID          string     `bson:"id" json:"id"`
	Title       string     `bson:"title" json:"title"`
	Priority    Priority   `bson:"priority" json:"priority"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Deadline    *time.Time `bson:"deadline" json:"deadline"`
	Status      Status     `bson:"status" json:"status"`
	Comments    []Comment  `bson:"comments" json:"comments"`
}

// Comment is an append-only note on a task.
type Comment struct {
	ID        string    `bson:"id" json:"id"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// NewTask carries the fields accepted when a task is created.
type NewTask struct {
	Title       string
	Priority    Priority
	Description string
	Deadline    *time.Time
	Status      Status
}

// Build validates the input and returns the task to append, applying the
// Medium / To Do defaults.
func (n NewTask) Build(id string) (Task, error) {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		return Task{}, invalid("title", "title is required")
	}
	t := Task{
		ID:          id,
		Title:       title,
		Priority:    n.Priority,
		Description: n.Description,
		Deadline:    n.Deadline,
		Status:      n.Status,
		Comments:    []Comment{},
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Priority.Valid() {
		return Task{}, invalid("priority", "priority must be one of Low, Medium, High")
	}
	if t.Status == "" {
		t.Status = StatusToDo
	}
	if !t.Status.Valid() {
		return Task{}, invalid("status", "status must be one of To Do, In Progress, Done")
	}
	return t, nil
}

// TaskUpdate carries partial updates for a task. Nil fields are left untouched.
// DeadlineSet distinguishes "clear the deadline" from "leave it alone".
type TaskUpdate struct {
	Title       *string
	Priority    *Priority
	Description *string
	Deadline    *time.Time
	DeadlineSet bool
	Status      *Status
}

// Empty reports whether the update would change nothing.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Priority == nil && u.Description == nil && !u.DeadlineSet && u.Status == nil
}

// Validate rejects empty updates and values outside the allowed enumerations.
func (u TaskUpdate) Validate() error {
	if u.Empty() {
		return invalid("body", "no fields provided to update")
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return invalid("title", "title cannot be empty")
	}
	if u.Priority != nil && !u.Priority.Valid() {
		return invalid("priority", "priority must be one of Low, Medium, High")
	}
	if u.Status != nil && !u.Status.Valid() {
		return invalid("status", "status must be one of To Do, In Progress, Done")
	}
	return nil
}

// Apply returns t with the update merged in. Comments are never touched.
func (u TaskUpdate) Apply(t Task) Task {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.DeadlineSet {
		t.Deadline = u.Deadline
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	return t
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	out := t
	if t.Deadline != nil {
		d := *t.Deadline
		out.Deadline = &d
	}
	out.Comments = append([]Comment{}, t.Comments...)
	return out
}
