package api

import (
	"context"

	"workhub-api/domain"
)

// Boards is the board store and sharing protocol used by handlers.
type Boards interface {
	Create(ctx context.Context, ownerID, name string) (domain.BoardCredentials, error)
	Get(ctx context.Context, boardID, requesterID string) (domain.Board, error)
	ListForMember(ctx context.Context, userID string) ([]domain.Board, error)
	Update(ctx context.Context, boardID, requesterID string, upd domain.BoardUpdate) error
	Delete(ctx context.Context, boardID, requesterID string) error
	RotatePassword(ctx context.Context, boardID, requesterID string) (domain.BoardCredentials, error)
	Join(ctx context.Context, boardID, userID, password string) (domain.Board, error)
}

// Tasks mutates the task sublist of a board.
type Tasks interface {
	Add(ctx context.Context, boardID, actorID string, in domain.NewTask) (domain.Task, error)
	Patch(ctx context.Context, boardID, actorID, taskID string, upd domain.TaskUpdate) error
	TransitionStatus(ctx context.Context, boardID, actorID, taskID string, status domain.Status) error
	AddComment(ctx context.Context, boardID, actorID, taskID, content string) (domain.Comment, error)
}

// Users handles accounts and credentials.
type Users interface {
	Signup(ctx context.Context, name, email, password string) (domain.User, error)
	Authenticate(ctx context.Context, email, password string) (domain.User, error)
	Profile(ctx context.Context, userID string) (domain.User, error)
}

// TokenIssuer signs bearer tokens at login.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type idResponse struct {
	ID string `json:"id"`
}

type credentialsResponse struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type signupResponse struct {
	UserID string `json:"userId"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func newUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Name, Email: u.Email}
}
