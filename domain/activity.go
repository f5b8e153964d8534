package domain

import (
	"context"
	"time"
)

// ActivityType names a mutation published to the activity feed.
type ActivityType string

const (
	ActivityBoardCreated         ActivityType = "board.created"
	ActivityBoardUpdated         ActivityType = "board.updated"
	ActivityBoardDeleted         ActivityType = "board.deleted"
	ActivityMemberJoined         ActivityType = "board.member_joined"
	ActivityBoardPasswordRotated ActivityType = "board.password_rotated"
	ActivityTaskCreated          ActivityType = "task.created"
	ActivityTaskUpdated          ActivityType = "task.updated"
	ActivityCommentCreated       ActivityType = "comment.created"
)

// Activity is a record of a successful mutation.
type Activity struct {
	ID         string       `json:"id"`
	Type       ActivityType `json:"type"`
	BoardID    string       `json:"boardId"`
	TaskID     string       `json:"taskId,omitempty"`
	ActorID    string       `json:"actorId"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// ActivityRecorder receives activity after a mutation commits. Implementations
// must not block the caller for long and must not fail the request.
type ActivityRecorder interface {
	Record(ctx context.Context, a Activity)
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, Activity) {}

// NoopRecorder discards all activity.
var NoopRecorder ActivityRecorder = noopRecorder{}
