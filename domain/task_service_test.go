package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"workhub-api/domain"
)

func TestAddTaskRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	creds := f.createBoard(t, alice)

	created, err := f.tasks.Add(ctx, creds.ID, alice.ID, domain.NewTask{
		Title:    "Ship v1",
		Priority: domain.PriorityHigh,
		Status:   domain.StatusToDo,
	})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}

	b, err := f.boards.Get(ctx, creds.ID, alice.ID)
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	got, ok := b.TaskByID(created.ID)
	if !ok {
		t.Fatalf("task %s not found in %+v", created.ID, b.Tasks)
	}
	if got.Title != "Ship v1" || got.Priority != domain.PriorityHigh || got.Status != domain.StatusToDo {
		t.Fatalf("unexpected task fields: %+v", got)
	}
	if got.Comments == nil || len(got.Comments) != 0 {
		t.Fatalf("expected empty comment list, got %#v", got.Comments)
	}
	if got.Deadline != nil {
		t.Fatalf("expected nil deadline, got %v", got.Deadline)
	}
}

func TestAddTaskDefaults(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice")
	creds := f.createBoard(t, alice)

	created, err := f.tasks.Add(context.Background(), creds.ID, alice.ID, domain.NewTask{Title: "Plain"})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if created.Priority != domain.PriorityMedium || created.Status != domain.StatusToDo {
		t.Fatalf("unexpected defaults: %+v", created)
	}
}

func TestAddTaskErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	creds := f.createBoard(t, alice)

	if _, err := f.tasks.Add(ctx, "missing", alice.ID, domain.NewTask{Title: "x"}); !errors.Is(err, domain.ErrBoardNotFound) {
		t.Fatalf("expected board not found, got %v", err)
	}
	if _, err := f.tasks.Add(ctx, creds.ID, "stranger", domain.NewTask{Title: "x"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	var verr *domain.ValidationError
	if _, err := f.tasks.Add(ctx, creds.ID, alice.ID, domain.NewTask{}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransitionStatusSkipsInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	creds := f.createBoard(t, alice)
	created, _ := f.tasks.Add(ctx, creds.ID, alice.ID, domain.NewTask{Title: "Jump"})

	if err := f.tasks.TransitionStatus(ctx, creds.ID, alice.ID, created.ID, domain.StatusDone); err != nil {
		t.Fatalf("transition To Do -> Done: %v", err)
	}
	if err := f.tasks.TransitionStatus(ctx, creds.ID, alice.ID, created.ID, domain.StatusToDo); err != nil {
		t.Fatalf("transition Done -> To Do: %v", err)
	}
	if err := f.tasks.TransitionStatus(ctx, creds.ID, alice.ID, created.ID, "Blocked"); err == nil {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestStatusPatchIsolatesOtherFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	creds := f.createBoard(t, alice)
	deadline := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	created, err := f.tasks.Add(ctx, creds.ID, alice.ID, domain.NewTask{
		Title:       "Write docs",
		Description: "all of them",
		Deadline:    &deadline,
	})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if _, err := f.tasks.AddComment(ctx, creds.ID, alice.ID, created.ID, "first"); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	if err := f.tasks.TransitionStatus(ctx, creds.ID, alice.ID, created.ID, domain.StatusInProgress); err != nil {
		t.Fatalf("transition: %v", err)
	}

	b, _ := f.boards.Get(ctx, creds.ID, alice.ID)
	got, _ := b.TaskByID(created.ID)
	if got.Status != domain.StatusInProgress {
		t.Fatalf("expected In Progress, got %s", got.Status)
	}
	if got.Title != "Write docs" || got.Description != "all of them" {
		t.Fatalf("title/description changed: %+v", got)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Fatalf("deadline changed: %v", got.Deadline)
	}
	if len(got.Comments) != 1 || got.Comments[0].Content != "first" {
		t.Fatalf("comments changed: %+v", got.Comments)
	}
}

func TestPatchTaskClearsDeadline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	creds := f.createBoard(t, alice)
	deadline := time.Now().UTC()
	created, _ := f.tasks.Add(ctx, creds.ID, alice.ID, domain.NewTask{Title: "x", Deadline: &deadline})

	if err := f.tasks.Patch(ctx, creds.ID, alice.ID, created.ID, domain.TaskUpdate{DeadlineSet: true}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	b, _ := f.boards.Get(ctx, creds.ID, alice.ID)
	got, _ := b.TaskByID(created.ID)
	if got.Deadline != nil {
		t.Fatalf("expected deadline cleared, got %v", got.Deadline)
	}
}

func TestPatchTaskNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	first := f.createBoard(t, alice)
	second := f.createBoard(t, alice)
	created, _ := f.tasks.Add(ctx, first.ID, alice.ID, domain.NewTask{Title: "x"})
	title := "y"

	// Task id exists but under another board.
	err := f.tasks.Patch(ctx, second.ID, alice.ID, created.ID, domain.TaskUpdate{Title: &title})
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected task not found, got %v", err)
	}
	err = f.tasks.Patch(ctx, "missing", alice.ID, created.ID, domain.TaskUpdate{Title: &title})
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected task not found for missing board, got %v", err)
	}
	err = f.tasks.Patch(ctx, first.ID, "stranger", created.ID, domain.TaskUpdate{Title: &title})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAddCommentIsNotIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	creds := f.createBoard(t, alice)
	created, _ := f.tasks.Add(ctx, creds.ID, alice.ID, domain.NewTask{Title: "x"})

	c1, err := f.tasks.AddComment(ctx, creds.ID, alice.ID, created.ID, "same")
	if err != nil {
		t.Fatalf("first comment: %v", err)
	}
	c2, err := f.tasks.AddComment(ctx, creds.ID, alice.ID, created.ID, "same")
	if err != nil {
		t.Fatalf("second comment: %v", err)
	}
	if c1.ID == c2.ID {
		t.Fatalf("expected distinct comment ids, got %s twice", c1.ID)
	}

	b, _ := f.boards.Get(ctx, creds.ID, alice.ID)
	got, _ := b.TaskByID(created.ID)
	if len(got.Comments) != 2 {
		t.Fatalf("expected two comments, got %d", len(got.Comments))
	}
	if got.Comments[0].ID != c1.ID || got.Comments[1].ID != c2.ID {
		t.Fatalf("comments out of order: %+v", got.Comments)
	}
}

func TestAddCommentUnknownTask(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice")
	creds := f.createBoard(t, alice)
	_, err := f.tasks.AddComment(context.Background(), creds.ID, alice.ID, "missing", "hi")
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected task not found, got %v", err)
	}
}

func TestTaskMutationsRecordActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	creds := f.createBoard(t, alice)
	created, _ := f.tasks.Add(ctx, creds.ID, alice.ID, domain.NewTask{Title: "x"})
	_ = f.tasks.TransitionStatus(ctx, creds.ID, alice.ID, created.ID, domain.StatusDone)
	_, _ = f.tasks.AddComment(ctx, creds.ID, alice.ID, created.ID, "done")

	f.activity.mu.Lock()
	defer f.activity.mu.Unlock()
	events := f.activity.events[1:]
	want := []domain.ActivityType{domain.ActivityTaskCreated, domain.ActivityTaskUpdated, domain.ActivityCommentCreated}
	if len(events) != len(want) {
		t.Fatalf("unexpected events: %+v", events)
	}
	for i, ev := range events {
		if ev.Type != want[i] || ev.TaskID != created.ID || ev.BoardID != creds.ID || ev.ActorID != alice.ID {
			t.Fatalf("unexpected event %d: %+v", i, ev)
		}
	}
}
