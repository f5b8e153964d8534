package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// BoardService implements board lifecycle and the password-gated join flow.
type BoardService struct {
	boards   BoardStorage
	users    UserStorage
	hasher   Hasher
	activity ActivityRecorder
	log      *log.Logger
	now      func() time.Time
}

// NewBoardService wires a BoardService. A nil recorder disables the activity
// feed, and the zero Hasher hashes join passwords at bcrypt.DefaultCost.
func NewBoardService(boards BoardStorage, users UserStorage, hasher Hasher, activity ActivityRecorder, logger *log.Logger) *BoardService {
	if boards == nil || users == nil {
		panic("domain.NewBoardService: storage is nil")
	}
	if logger == nil {
		panic("domain.NewBoardService: logger is nil")
	}
	if activity == nil {
		activity = NoopRecorder
	}
	return &BoardService{
		boards:   boards,
		users:    users,
		hasher:   hasher,
		activity: activity,
		log:      logger,
		now:      time.Now,
	}
}

// Create stores a new board owned by ownerID and returns its join credentials.
func (s *BoardService) Create(ctx context.Context, ownerID, name string) (BoardCredentials, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return BoardCredentials{}, invalid("name", "Board name is required")
	}
	password, err := GenerateJoinPassword()
	if err != nil {
		return BoardCredentials{}, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return BoardCredentials{}, fmt.Errorf("hash join password: %w", err)
	}
	b := Board{
		ID:           uuid.NewString(),
		Name:         name,
		Created:      s.now().UTC(),
		CreatorID:    ownerID,
		Tasks:        []Task{},
		PasswordHash: hash,
		Members:      []string{ownerID},
	}
	if err := s.boards.InsertBoard(ctx, b); err != nil {
		return BoardCredentials{}, fmt.Errorf("insert board: %w", err)
	}
	s.record(ctx, ActivityBoardCreated, b.ID, ownerID)
	return BoardCredentials{ID: b.ID, Password: password}, nil
}

// Get returns the board with member details when requesterID is a member.
func (s *BoardService) Get(ctx context.Context, boardID, requesterID string) (Board, error) {
	b, err := s.boards.GetBoard(ctx, boardID)
	if err != nil {
		return Board{}, fmt.Errorf("get board: %w", err)
	}
	if b == nil {
		return Board{}, ErrBoardNotFound
	}
	if !b.HasMember(requesterID) {
		return Board{}, ErrForbidden
	}
	s.attachMembers(ctx, b)
	return *b, nil
}

// ListForMember returns every board userID belongs to, oldest first.
func (s *BoardService) ListForMember(ctx context.Context, userID string) ([]Board, error) {
	boards, err := s.boards.ListBoardsByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	if boards == nil {
		boards = []Board{}
	}
	return boards, nil
}

// Update applies a partial patch. Supplying tasks replaces the whole list.
func (s *BoardService) Update(ctx context.Context, boardID, requesterID string, upd BoardUpdate) error {
	upd, err := upd.validate()
	if err != nil {
		return err
	}
	ok, err := s.boards.UpdateBoard(ctx, boardID, requesterID, upd)
	if err != nil {
		return fmt.Errorf("update board: %w", err)
	}
	if !ok {
		return s.classifyBoardMiss(ctx, boardID, requesterID)
	}
	s.record(ctx, ActivityBoardUpdated, boardID, requesterID)
	return nil
}

// Delete removes the board and everything embedded in it. Any member may delete.
func (s *BoardService) Delete(ctx context.Context, boardID, requesterID string) error {
	ok, err := s.boards.DeleteBoard(ctx, boardID, requesterID)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	if !ok {
		return s.classifyBoardMiss(ctx, boardID, requesterID)
	}
	s.record(ctx, ActivityBoardDeleted, boardID, requesterID)
	return nil
}

// RotatePassword replaces the join password. The previous one stops working.
func (s *BoardService) RotatePassword(ctx context.Context, boardID, requesterID string) (BoardCredentials, error) {
	password, err := GenerateJoinPassword()
	if err != nil {
		return BoardCredentials{}, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return BoardCredentials{}, fmt.Errorf("hash join password: %w", err)
	}
	ok, err := s.boards.SetPasswordHash(ctx, boardID, requesterID, hash)
	if err != nil {
		return BoardCredentials{}, fmt.Errorf("rotate password: %w", err)
	}
	if !ok {
		return BoardCredentials{}, s.classifyBoardMiss(ctx, boardID, requesterID)
	}
	s.record(ctx, ActivityBoardPasswordRotated, boardID, requesterID)
	return BoardCredentials{ID: boardID, Password: password}, nil
}

// Join adds userID to the board's members when password matches.
func (s *BoardService) Join(ctx context.Context, boardID, userID, password string) (Board, error) {
	b, err := s.boards.GetBoard(ctx, boardID)
	if err != nil {
		return Board{}, fmt.Errorf("get board: %w", err)
	}
	if b == nil {
		return Board{}, ErrBoardNotFound
	}
	if !s.hasher.Matches(b.PasswordHash, password) {
		return Board{}, ErrIncorrectPassword
	}
	if b.HasMember(userID) {
		return Board{}, ErrAlreadyMember
	}
	added, err := s.boards.AddMember(ctx, boardID, userID)
	if err != nil {
		return Board{}, fmt.Errorf("add member: %w", err)
	}
	if !added {
		// A concurrent join won the race, or the board was deleted in between.
		cur, err := s.boards.GetBoard(ctx, boardID)
		if err != nil {
			return Board{}, fmt.Errorf("get board: %w", err)
		}
		if cur == nil {
			return Board{}, ErrBoardNotFound
		}
		return Board{}, ErrAlreadyMember
	}
	s.record(ctx, ActivityMemberJoined, boardID, userID)

	joined, err := s.boards.GetBoard(ctx, boardID)
	if err != nil {
		return Board{}, fmt.Errorf("get board: %w", err)
	}
	if joined == nil {
		return Board{}, ErrBoardNotFound
	}
	s.attachMembers(ctx, joined)
	return *joined, nil
}

func (s *BoardService) attachMembers(ctx context.Context, b *Board) {
	users, err := s.users.ListUsersByID(ctx, b.Members)
	if err != nil {
		s.log.WithFields(log.Fields{"board_id": b.ID, "error": err}).Warn("member details lookup failed")
		b.MemberDetails = []MemberDetail{}
		return
	}
	b.MemberDetails = memberDetails(b.Members, users)
}

// memberDetails orders users by the board's member list and skips ids with no
// matching account.
func memberDetails(members []string, users []User) []MemberDetail {
	byID := make(map[string]User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]MemberDetail, 0, len(members))
	for _, id := range members {
		if u, ok := byID[id]; ok {
			out = append(out, u.Detail())
		}
	}
	return out
}

func (s *BoardService) classifyBoardMiss(ctx context.Context, boardID, actorID string) error {
	return classifyMiss(ctx, s.boards, boardID, actorID, ErrBoardNotFound)
}

func (s *BoardService) record(ctx context.Context, typ ActivityType, boardID, actorID string) {
	s.activity.Record(ctx, Activity{Type: typ, BoardID: boardID, ActorID: actorID, OccurredAt: s.now().UTC()})
}

// classifyMiss explains why a member-filtered update matched nothing. A
// non-member gets ErrForbidden before any task lookup is revealed.
func classifyMiss(ctx context.Context, boards BoardStorage, boardID, actorID string, notFound error) error {
	b, err := boards.GetBoard(ctx, boardID)
	if err != nil {
		return fmt.Errorf("get board: %w", err)
	}
	if b == nil {
		return notFound
	}
	if !b.HasMember(actorID) {
		return ErrForbidden
	}
	return notFound
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBoardNotFound) || errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrUserNotFound)
}
