package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Board is a named collection of tasks shared by its members. The id is
// generated independently of the store's row identifier so it can be handed
// out as a join code.
type Board struct {
	ID            string         `bson:"id" json:"id"`
	Name          string         `bson:"name" json:"name"`
	Created       time.Time      `bson:"created" json:"created"`
	CreatorID     string         `bson:"creatorId" json:"creatorId"`
	Tasks         []Task         `bson:"tasks" json:"tasks"`
	PasswordHash  string         `bson:"passwordHash" json:"-"`
	Members       []string       `bson:"members" json:"members"`
	MemberDetails []MemberDetail `bson:"-" json:"memberDetails,omitempty"`
}

// MemberDetail is the public view of a member, joined at read time.
type MemberDetail struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BoardCredentials is returned when a board is created or its join password
// is rotated. It is the only time the plaintext password leaves the server.
type BoardCredentials struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// BoardUpdate is a partial board patch. When ReplaceTasks is set the whole
// task list is replaced with Tasks.
type BoardUpdate struct {
	Name         *string
	Tasks        []Task
	ReplaceTasks bool
}

// HasMember reports whether userID belongs to the board.
func (b Board) HasMember(userID string) bool {
	for _, m := range b.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// TaskByID returns the task with the given id.
func (b Board) TaskByID(id string) (Task, bool) {
	for _, t := range b.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Clone returns a deep copy of b.
func (b Board) Clone() Board {
	out := b
	out.Tasks = make([]Task, len(b.Tasks))
	for i, t := range b.Tasks {
		out.Tasks[i] = t.Clone()
	}
	out.Members = append([]string{}, b.Members...)
	if b.MemberDetails != nil {
		out.MemberDetails = append([]MemberDetail{}, b.MemberDetails...)
	}
	return out
}

func (u BoardUpdate) validate() (BoardUpdate, error) {
	if u.Name == nil && !u.ReplaceTasks {
		return u, invalid("body", "no fields provided to update")
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return u, invalid("name", "board name cannot be empty")
		}
		u.Name = &name
	}
	if u.ReplaceTasks {
		tasks, err := normalizeTasks(u.Tasks)
		if err != nil {
			return u, err
		}
		u.Tasks = tasks
	}
	return u, nil
}

// normalizeTasks prepares a whole-list replacement: ids are generated where
// missing, defaults applied and comment lists made non-nil so later appends
// work against an array.
func normalizeTasks(in []Task) ([]Task, error) {
	out := make([]Task, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if _, dup := seen[t.ID]; dup {
			return nil, invalid("tasks", "duplicate task id "+t.ID)
		}
		seen[t.ID] = struct{}{}
		comments := t.Comments
		built, err := NewTask{
			Title:       t.Title,
			Priority:    t.Priority,
			Description: t.Description,
			Deadline:    t.Deadline,
			Status:      t.Status,
		}.Build(t.ID)
		if err != nil {
			return nil, err
		}
		if comments != nil {
			built.Comments = comments
		}
		out = append(out, built)
	}
	return out, nil
}
