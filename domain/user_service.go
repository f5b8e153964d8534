package domain

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// UserService handles signup, credential checks and profile lookup.
type UserService struct {
	users  UserStorage
	hasher Hasher
	log    *log.Logger
	now    func() time.Time
}

func NewUserService(users UserStorage, hasher Hasher, logger *log.Logger) *UserService {
	if users == nil {
		panic("domain.NewUserService: storage is nil")
	}
	if logger == nil {
		panic("domain.NewUserService: logger is nil")
	}
	return &UserService{users: users, hasher: hasher, log: logger, now: time.Now}
}

// Signup registers a new account. Emails are compared case-insensitively.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return User{}, invalid("body", "Missing required fields")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, invalid("email", "invalid email address")
	}
	if len(password) > MaxPasswordBytes {
		return User{}, invalid("password", fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.InsertUser(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	s.log.WithFields(log.Fields{"user_id": u.ID}).Info("user signed up")
	return u, nil
}

// Authenticate returns the account matching email and password. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, invalid("body", "Missing required fields")
	}
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	if u == nil || !s.hasher.Matches(u.PasswordHash, password) {
		return User{}, ErrInvalidCredentials
	}
	return *u, nil
}

// Profile returns the account with the given id.
func (s *UserService) Profile(ctx context.Context, userID string) (User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return User{}, ErrUserNotFound
	}
	return *u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
