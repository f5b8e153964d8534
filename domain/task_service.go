package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// TaskService manages the task list embedded in a board. Every call addresses
// the board and task together and re-checks membership in the same update.
type TaskService struct {
	boards   BoardStorage
	activity ActivityRecorder
	log      *log.Logger
	now      func() time.Time
}

func NewTaskService(boards BoardStorage, activity ActivityRecorder, logger *log.Logger) *TaskService {
	if boards == nil {
		panic("domain.NewTaskService: storage is nil")
	}
	if logger == nil {
		panic("domain.NewTaskService: logger is nil")
	}
	if activity == nil {
		activity = NoopRecorder
	}
	return &TaskService{boards: boards, activity: activity, log: logger, now: time.Now}
}

// Add appends a new task to the board and returns it.
func (s *TaskService) Add(ctx context.Context, boardID, actorID string, in NewTask) (Task, error) {
	t, err := in.Build(uuid.NewString())
	if err != nil {
		return Task{}, err
	}
	ok, err := s.boards.PushTask(ctx, boardID, actorID, t)
	if err != nil {
		return Task{}, fmt.Errorf("push task: %w", err)
	}
	if !ok {
		return Task{}, classifyMiss(ctx, s.boards, boardID, actorID, ErrBoardNotFound)
	}
	s.record(ctx, ActivityTaskCreated, boardID, t.ID, actorID)
	return t, nil
}

// Patch updates only the supplied fields of one task.
func (s *TaskService) Patch(ctx context.Context, boardID, actorID, taskID string, upd TaskUpdate) error {
	if err := upd.Validate(); err != nil {
		return err
	}
	ok, err := s.boards.UpdateTask(ctx, boardID, actorID, taskID, upd)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if !ok {
		return classifyMiss(ctx, s.boards, boardID, actorID, ErrTaskNotFound)
	}
	s.log.WithFields(log.Fields{"board_id": boardID, "task_id": taskID}).Debug("task patched")
	s.record(ctx, ActivityTaskUpdated, boardID, taskID, actorID)
	return nil
}

// TransitionStatus moves a task to any column. Every pair of statuses is a
// legal transition.
func (s *TaskService) TransitionStatus(ctx context.Context, boardID, actorID, taskID string, status Status) error {
	return s.Patch(ctx, boardID, actorID, taskID, TaskUpdate{Status: &status})
}

// AddComment appends a comment to the task. Calling it twice with the same
// content creates two comments.
func (s *TaskService) AddComment(ctx context.Context, boardID, actorID, taskID, content string) (Comment, error) {
	c := Comment{ID: uuid.NewString(), Content: content, CreatedAt: s.now().UTC()}
	ok, err := s.boards.PushComment(ctx, boardID, actorID, taskID, c)
	if err != nil {
		return Comment{}, fmt.Errorf("push comment: %w", err)
	}
	if !ok {
		return Comment{}, classifyMiss(ctx, s.boards, boardID, actorID, ErrTaskNotFound)
	}
	s.record(ctx, ActivityCommentCreated, boardID, taskID, actorID)
	return c, nil
}

func (s *TaskService) record(ctx context.Context, typ ActivityType, boardID, taskID, actorID string) {
	s.activity.Record(ctx, Activity{
		Type:       typ,
		BoardID:    boardID,
		TaskID:     taskID,
		ActorID:    actorID,
		OccurredAt: s.now().UTC(),
	})
}
