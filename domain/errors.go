package domain

import "errors"

var (
	// ErrUnauthorized indicates a missing, malformed or expired credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates an authenticated caller who is not a board member.
	ErrForbidden = errors.New("forbidden")
	// ErrIncorrectPassword is returned by a join attempt with the wrong secret.
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrBoardNotFound     = errors.New("board not found")
	ErrTaskNotFound      = errors.New("task or board not found")
	ErrUserNotFound      = errors.New("user not found")
	// ErrAlreadyMember is returned when a member tries to join again.
	ErrAlreadyMember      = errors.New("you are already a member of this board")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports a request field rejected before any storage access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
