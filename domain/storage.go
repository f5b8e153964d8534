package domain

import "context"

// BoardStorage persists boards and their embedded tasks. Every mutating call
// that takes a memberID only matches when memberID is in the board's members;
// a false result means the filter matched nothing.
type BoardStorage interface {
	InsertBoard(ctx context.Context, b Board) error
	// GetBoard returns nil without error when no board has the id.
	GetBoard(ctx context.Context, id string) (*Board, error)
	ListBoardsByMember(ctx context.Context, userID string) ([]Board, error)
	UpdateBoard(ctx context.Context, id, memberID string, upd BoardUpdate) (bool, error)
	SetPasswordHash(ctx context.Context, id, memberID, hash string) (bool, error)
	DeleteBoard(ctx context.Context, id, memberID string) (bool, error)
	// AddMember only matches when userID is not yet a member.
	AddMember(ctx context.Context, id, userID string) (bool, error)

	PushTask(ctx context.Context, boardID, memberID string, t Task) (bool, error)
	UpdateTask(ctx context.Context, boardID, memberID, taskID string, upd TaskUpdate) (bool, error)
	PushComment(ctx context.Context, boardID, memberID, taskID string, c Comment) (bool, error)
}

// UserStorage persists user accounts. InsertUser returns ErrEmailTaken when
// the email is already registered.
type UserStorage interface {
	InsertUser(ctx context.Context, u User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	ListUsersByID(ctx context.Context, ids []string) ([]User, error)
}
