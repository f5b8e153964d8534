package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"workhub-api/domain"
)

// Memory is an in-process implementation of the board and user stores. It
// follows the same match semantics as the Mongo storage and is used for local
// runs without MONGODB_URI and in tests.
type Memory struct {
	mu     sync.RWMutex
	boards map[string]domain.Board
	users  map[string]domain.User
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		boards: make(map[string]domain.Board),
		users:  make(map[string]domain.User),
	}
}

func (m *Memory) InsertBoard(_ context.Context, b domain.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards[b.ID] = b.Clone()
	return nil
}

func (m *Memory) GetBoard(_ context.Context, id string) (*domain.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.boards[id]
	if !ok {
		return nil, nil
	}
	out := b.Clone()
	return &out, nil
}

func (m *Memory) ListBoardsByMember(_ context.Context, userID string) ([]domain.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Board{}
	for _, b := range m.boards {
		if b.HasMember(userID) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out, nil
}

func (m *Memory) UpdateBoard(_ context.Context, id, memberID string, upd domain.BoardUpdate) (bool, error) {
	return m.mutateBoard(id, memberID, func(b *domain.Board) bool {
		if upd.Name != nil {
			b.Name = *upd.Name
		}
		if upd.ReplaceTasks {
			b.Tasks = make([]domain.Task, len(upd.Tasks))
			for i, t := range upd.Tasks {
				b.Tasks[i] = t.Clone()
			}
		}
		return true
	}), nil
}

func (m *Memory) SetPasswordHash(_ context.Context, id, memberID, hash string) (bool, error) {
	return m.mutateBoard(id, memberID, func(b *domain.Board) bool {
		b.PasswordHash = hash
		return true
	}), nil
}

func (m *Memory) DeleteBoard(_ context.Context, id, memberID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok || !b.HasMember(memberID) {
		return false, nil
	}
	delete(m.boards, id)
	return true, nil
}

func (m *Memory) AddMember(_ context.Context, id, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok || b.HasMember(userID) {
		return false, nil
	}
	b.Members = append(append([]string{}, b.Members...), userID)
	m.boards[id] = b
	return true, nil
}

func (m *Memory) PushTask(_ context.Context, boardID, memberID string, t domain.Task) (bool, error) {
	return m.mutateBoard(boardID, memberID, func(b *domain.Board) bool {
		b.Tasks = append(b.Tasks, t.Clone())
		return true
	}), nil
}

func (m *Memory) UpdateTask(_ context.Context, boardID, memberID, taskID string, upd domain.TaskUpdate) (bool, error) {
	return m.mutateBoard(boardID, memberID, func(b *domain.Board) bool {
		for i := range b.Tasks {
			if b.Tasks[i].ID == taskID {
				b.Tasks[i] = upd.Apply(b.Tasks[i])
				return true
			}
		}
		return false
	}), nil
}

func (m *Memory) PushComment(_ context.Context, boardID, memberID, taskID string, c domain.Comment) (bool, error) {
	return m.mutateBoard(boardID, memberID, func(b *domain.Board) bool {
		for i := range b.Tasks {
			if b.Tasks[i].ID == taskID {
				b.Tasks[i].Comments = append(b.Tasks[i].Comments, c)
				return true
			}
		}
		return false
	}), nil
}

// mutateBoard applies fn to a copy of the board and stores it only when fn
// reports a match.
func (m *Memory) mutateBoard(id, memberID string, fn func(*domain.Board) bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok || !b.HasMember(memberID) {
		return false
	}
	cp := b.Clone()
	if !fn(&cp) {
		return false
	}
	m.boards[id] = cp
	return true
}

func (m *Memory) InsertUser(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrEmailTaken
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) ListUsersByID(_ context.Context, ids []string) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

var (
	_ domain.BoardStorage = (*Memory)(nil)
	_ domain.UserStorage  = (*Memory)(nil)
)
