package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"workhub-api/domain"
)

var (
	// ErrActionPending is returned when the same action on the same entity is
	// already in flight.
	ErrActionPending = errors.New("action already pending")
	ErrNotLoaded     = errors.New("board not loaded")
	ErrEmptyComment  = errors.New("comment content is required")
)

// BoardAPI is the subset of Client used by BoardView.
type BoardAPI interface {
	GetBoard(ctx context.Context, boardID string) (domain.Board, error)
	CreateTask(ctx context.Context, in TaskInput) (string, error)
	UpdateTask(ctx context.Context, taskID string, patch TaskPatch) error
	AddComment(ctx context.Context, boardID, taskID, content string) (string, error)
}

// RollbackPolicy decides what happens to an optimistic status change the
// server rejected.
type RollbackPolicy int

const (
	// RollbackRestore puts the previous status back.
	RollbackRestore RollbackPolicy = iota
	// RollbackKeepCurrent leaves the task in the rejected status.
	RollbackKeepCurrent
)

type ActionState string

const (
	ActionIdle       ActionState = "idle"
	ActionPending    ActionState = "pending"
	ActionCommitted  ActionState = "committed"
	ActionRolledBack ActionState = "rolled-back"
)

type ActionKind string

const (
	ActionChangeStatus ActionKind = "status"
	ActionAddComment   ActionKind = "comment"
	ActionAddTask      ActionKind = "add-task"
	ActionUpdateTask   ActionKind = "update-task"
)

// Column is one status lane of the board.
type Column struct {
	Status domain.Status
	Tasks  []domain.Task
}

type ViewOption func(*BoardView)

func WithStatusRollback(p RollbackPolicy) ViewOption {
	return func(v *BoardView) { v.statusRollback = p }
}

// BoardView mirrors one board and applies optimistic mutations that are
// confirmed or reverted once the server answers. Network calls run outside
// the lock.
type BoardView struct {
	api            BoardAPI
	boardID        string
	statusRollback RollbackPolicy
	now            func() time.Time

	mu     sync.Mutex
	board  domain.Board
	loaded bool
	states map[string]ActionState
}

func NewBoardView(api BoardAPI, boardID string, opts ...ViewOption) *BoardView {
	v := &BoardView{
		api:     api,
		boardID: boardID,
		now:     time.Now,
		states:  make(map[string]ActionState),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load fetches the board and replaces the local mirror.
func (v *BoardView) Load(ctx context.Context) error {
	b, err := v.api.GetBoard(ctx, v.boardID)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.board = b
	v.loaded = true
	v.mu.Unlock()
	return nil
}

// Board returns a copy of the current mirror.
func (v *BoardView) Board() domain.Board {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.board.Clone()
}

func (v *BoardView) ActionState(kind ActionKind, entityID string) ActionState {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.states[actionKey(kind, entityID)]; ok {
		return s
	}
	return ActionIdle
}

// Columns groups the tasks by status in board order.
func (v *BoardView) Columns() []Column {
	v.mu.Lock()
	defer v.mu.Unlock()
	groups := domain.GroupByStatus(v.board.Tasks)
	out := make([]Column, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		tasks := make([]domain.Task, 0, len(groups[s]))
		for _, t := range groups[s] {
			tasks = append(tasks, t.Clone())
		}
		out = append(out, Column{Status: s, Tasks: tasks})
	}
	return out
}

func (v *BoardView) Stats() domain.TaskStats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return domain.ComputeStats(v.board.Tasks)
}

// ChangeStatus moves a task to status immediately and confirms with the
// server. A rejected change is handled by the view's RollbackPolicy.
func (v *BoardView) ChangeStatus(ctx context.Context, taskID string, status domain.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	key := actionKey(ActionChangeStatus, taskID)

	v.mu.Lock()
	if err := v.beginLocked(key); err != nil {
		v.mu.Unlock()
		return err
	}
	idx := v.taskIndexLocked(taskID)
	if idx < 0 {
		v.mu.Unlock()
		return domain.ErrTaskNotFound
	}
	v.states[key] = ActionPending
	prev := v.board.Tasks[idx].Status
	v.board.Tasks[idx].Status = status
	v.mu.Unlock()

	err := v.api.UpdateTask(ctx, taskID, TaskPatch{BoardID: v.boardID, Status: &status})

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		// A later local change to the same task wins over the restore.
		if i := v.taskIndexLocked(taskID); v.statusRollback == RollbackRestore && i >= 0 && v.board.Tasks[i].Status == status {
			v.board.Tasks[i].Status = prev
		}
		v.states[key] = ActionRolledBack
		return err
	}
	v.states[key] = ActionCommitted
	return nil
}

// AddComment appends a comment with a temporary id, posts it, and swaps in
// the server id. The temporary comment is removed when the post fails.
func (v *BoardView) AddComment(ctx context.Context, taskID, content string) (domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Comment{}, ErrEmptyComment
	}
	key := actionKey(ActionAddComment, taskID)

	v.mu.Lock()
	if err := v.beginLocked(key); err != nil {
		v.mu.Unlock()
		return domain.Comment{}, err
	}
	idx := v.taskIndexLocked(taskID)
	if idx < 0 {
		v.mu.Unlock()
		return domain.Comment{}, domain.ErrTaskNotFound
	}
	v.states[key] = ActionPending
	now := v.now()
	tempID := "temp-" + strconv.FormatInt(now.UnixNano(), 10)
	v.board.Tasks[idx].Comments = append(v.board.Tasks[idx].Comments, domain.Comment{
		ID:        tempID,
		Content:   content,
		CreatedAt: now,
	})
	v.mu.Unlock()

	id, err := v.api.AddComment(ctx, v.boardID, taskID, content)

	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.taskIndexLocked(taskID)
	if err != nil {
		if i >= 0 {
			v.board.Tasks[i].Comments = removeComment(v.board.Tasks[i].Comments, tempID)
		}
		v.states[key] = ActionRolledBack
		return domain.Comment{}, err
	}
	out := domain.Comment{ID: id, Content: content, CreatedAt: now}
	if i >= 0 {
		for j := range v.board.Tasks[i].Comments {
			if v.board.Tasks[i].Comments[j].ID == tempID {
				v.board.Tasks[i].Comments[j].ID = id
				break
			}
		}
	}
	v.states[key] = ActionCommitted
	return out, nil
}

// AddTask creates a task on the server and merges it only after success.
func (v *BoardView) AddTask(ctx context.Context, in TaskInput) (domain.Task, error) {
	in.BoardID = v.boardID
	draft := domain.NewTask{
		Title:       in.Title,
		Priority:    in.Priority,
		Description: in.Description,
		Deadline:    in.Deadline,
		Status:      in.Status,
	}
	if _, err := draft.Build("draft"); err != nil {
		return domain.Task{}, err
	}
	key := actionKey(ActionAddTask, v.boardID)

	v.mu.Lock()
	err := v.beginLocked(key)
	if err == nil {
		v.states[key] = ActionPending
	}
	v.mu.Unlock()
	if err != nil {
		return domain.Task{}, err
	}

	id, err := v.api.CreateTask(ctx, in)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.states[key] = ActionRolledBack
		return domain.Task{}, err
	}
	task, err := draft.Build(id)
	if err != nil {
		v.states[key] = ActionRolledBack
		return domain.Task{}, err
	}
	v.board.Tasks = append(v.board.Tasks, task)
	v.states[key] = ActionCommitted
	return task.Clone(), nil
}

// UpdateTask sends patch and merges it into the mirror only after success.
func (v *BoardView) UpdateTask(ctx context.Context, taskID string, patch TaskPatch) error {
	patch.BoardID = v.boardID
	upd := patch.update()
	if err := upd.Validate(); err != nil {
		return err
	}
	key := actionKey(ActionUpdateTask, taskID)

	v.mu.Lock()
	err := v.beginLocked(key)
	if err == nil {
		v.states[key] = ActionPending
	}
	v.mu.Unlock()
	if err != nil {
		return err
	}

	err = v.api.UpdateTask(ctx, taskID, patch)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.states[key] = ActionRolledBack
		return err
	}
	if i := v.taskIndexLocked(taskID); i >= 0 {
		v.board.Tasks[i] = upd.Apply(v.board.Tasks[i])
	}
	v.states[key] = ActionCommitted
	return nil
}

func (v *BoardView) beginLocked(key string) error {
	if !v.loaded {
		return ErrNotLoaded
	}
	if v.states[key] == ActionPending {
		return ErrActionPending
	}
	return nil
}

func (v *BoardView) taskIndexLocked(taskID string) int {
	for i := range v.board.Tasks {
		if v.board.Tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

func removeComment(comments []domain.Comment, id string) []domain.Comment {
	out := comments[:0]
	for _, c := range comments {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func actionKey(kind ActionKind, entityID string) string {
	return string(kind) + ":" + entityID
}
