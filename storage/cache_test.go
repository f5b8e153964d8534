package storage

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"workhub-api/domain"
)

type countingStore struct {
	*Memory
	gets int
}

func (c *countingStore) GetBoard(ctx context.Context, id string) (*domain.Board, error) {
	c.gets++
	return c.Memory.GetBoard(ctx, id)
}

func newTestCache(t *testing.T) (*Cache, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	base := &countingStore{Memory: NewMemory()}
	return NewCache(base, client, time.Minute), base, mr
}

func seedBoard(t *testing.T, s domain.BoardStorage) domain.Board {
	t.Helper()
	b := domain.Board{
		ID:           "b1",
		Name:         "Launch",
		Created:      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		CreatorID:    "u1",
		Tasks:        []domain.Task{{ID: "t1", Title: "Write code", Priority: domain.PriorityHigh, Status: domain.StatusToDo, Comments: []domain.Comment{}}},
		PasswordHash: "$2a$04$hash",
		Members:      []string{"u1"},
	}
	if err := s.InsertBoard(context.Background(), b); err != nil {
		t.Fatalf("insert board: %v", err)
	}
	return b
}

func TestCacheGetBoardMissThenHit(t *testing.T) {
	cache, base, mr := newTestCache(t)
	ctx := context.Background()
	seedBoard(t, base)

	b, err := cache.GetBoard(ctx, "b1")
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	if b == nil || b.Name != "Launch" {
		t.Fatalf("unexpected board: %#v", b)
	}
	if base.gets != 1 {
		t.Fatalf("expected 1 call to backend, got %d", base.gets)
	}
	if ttl := mr.TTL(boardCacheKey("b1")); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}

	cached, err := cache.GetBoard(ctx, "b1")
	if err != nil {
		t.Fatalf("get cached board: %v", err)
	}
	if base.gets != 1 {
		t.Fatalf("expected cached fetch to avoid backend, calls=%d", base.gets)
	}
	if cached.PasswordHash != "$2a$04$hash" {
		t.Fatalf("expected password hash to survive cache round trip, got %q", cached.PasswordHash)
	}
	if len(cached.Tasks) != 1 || cached.Tasks[0].Priority != domain.PriorityHigh || cached.Tasks[0].Comments == nil {
		t.Fatalf("unexpected cached tasks: %#v", cached.Tasks)
	}
	if !cached.Created.Equal(b.Created) {
		t.Fatalf("created changed through cache: %v", cached.Created)
	}
}

func TestCacheDoesNotStoreMissingBoard(t *testing.T) {
	cache, _, mr := newTestCache(t)

	b, err := cache.GetBoard(context.Background(), "missing")
	if err != nil || b != nil {
		t.Fatalf("expected nil board, got %#v, %v", b, err)
	}
	if mr.Exists(boardCacheKey("missing")) {
		t.Fatalf("missing board should not be cached")
	}
}

func TestCacheEvictsOnMutation(t *testing.T) {
	ctx := context.Background()
	title := "renamed"
	mutations := []struct {
		name string
		run  func(c *Cache) (bool, error)
	}{
		{name: "update board", run: func(c *Cache) (bool, error) {
			return c.UpdateBoard(ctx, "b1", "u1", domain.BoardUpdate{Name: &title})
		}},
		{name: "rotate password", run: func(c *Cache) (bool, error) {
			return c.SetPasswordHash(ctx, "b1", "u1", "new")
		}},
		{name: "add member", run: func(c *Cache) (bool, error) {
			return c.AddMember(ctx, "b1", "u2")
		}},
		{name: "push task", run: func(c *Cache) (bool, error) {
			return c.PushTask(ctx, "b1", "u1", domain.Task{ID: "t2", Title: "x"})
		}},
		{name: "update task", run: func(c *Cache) (bool, error) {
			return c.UpdateTask(ctx, "b1", "u1", "t1", domain.TaskUpdate{Title: &title})
		}},
		{name: "push comment", run: func(c *Cache) (bool, error) {
			return c.PushComment(ctx, "b1", "u1", "t1", domain.Comment{ID: "c1", Content: "hi"})
		}},
		{name: "delete board", run: func(c *Cache) (bool, error) {
			return c.DeleteBoard(ctx, "b1", "u1")
		}},
	}
	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			cache, base, mr := newTestCache(t)
			seedBoard(t, base)
			if _, err := cache.GetBoard(ctx, "b1"); err != nil {
				t.Fatalf("warm cache: %v", err)
			}
			if !mr.Exists(boardCacheKey("b1")) {
				t.Fatalf("expected board to be cached")
			}

			ok, err := tt.run(cache)
			if err != nil || !ok {
				t.Fatalf("mutation: ok=%v err=%v", ok, err)
			}
			if mr.Exists(boardCacheKey("b1")) {
				t.Fatalf("cache key should be evicted")
			}
		})
	}
}

func TestCacheKeepsEntryWhenMutationMatchesNothing(t *testing.T) {
	cache, base, mr := newTestCache(t)
	ctx := context.Background()
	seedBoard(t, base)
	if _, err := cache.GetBoard(ctx, "b1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	ok, err := cache.PushTask(ctx, "b1", "stranger", domain.Task{ID: "t2", Title: "x"})
	if err != nil || ok {
		t.Fatalf("expected non-member push to match nothing, ok=%v err=%v", ok, err)
	}
	if !mr.Exists(boardCacheKey("b1")) {
		t.Fatalf("cache entry should survive a no-op mutation")
	}
}

func TestCacheDropsCorruptEntry(t *testing.T) {
	cache, base, mr := newTestCache(t)
	seedBoard(t, base)
	if err := mr.Set(boardCacheKey("b1"), "not bson"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	b, err := cache.GetBoard(context.Background(), "b1")
	if err != nil || b == nil {
		t.Fatalf("expected fallback to backend, got %#v, %v", b, err)
	}
	if base.gets != 1 {
		t.Fatalf("expected backend read after corrupt entry, calls=%d", base.gets)
	}
}

func TestCacheWithoutRedisPassesThrough(t *testing.T) {
	base := &countingStore{Memory: NewMemory()}
	seedBoard(t, base)
	cache := NewCache(base, nil, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.GetBoard(context.Background(), "b1"); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if base.gets != 2 {
		t.Fatalf("expected every read to hit backend, calls=%d", base.gets)
	}
}

// pausingStore blocks GetBoard after it has read from the backing store.
type pausingStore struct {
	*Memory
	loaded chan struct{}
	resume chan struct{}
}

func (p *pausingStore) GetBoard(ctx context.Context, id string) (*domain.Board, error) {
	b, err := p.Memory.GetBoard(ctx, id)
	if p.loaded != nil {
		p.loaded <- struct{}{}
		<-p.resume
	}
	return b, err
}

func TestCacheSkipsFillWhenBoardChangesDuringLoad(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	base := &pausingStore{Memory: NewMemory(), loaded: make(chan struct{}), resume: make(chan struct{})}
	seedBoard(t, base.Memory)
	cache := NewCache(base, client, time.Minute)
	ctx := context.Background()

	done := make(chan *domain.Board, 1)
	go func() {
		b, _ := cache.GetBoard(ctx, "b1")
		done <- b
	}()
	<-base.loaded

	if ok, err := cache.AddMember(ctx, "b1", "u2"); err != nil || !ok {
		t.Fatalf("add member: ok=%v err=%v", ok, err)
	}
	close(base.resume)
	if stale := <-done; stale == nil || len(stale.Members) != 1 {
		t.Fatalf("expected the in-flight read to see the pre-join board, got %#v", stale)
	}
	if mr.Exists(boardCacheKey("b1")) {
		t.Fatalf("stale board was written to the cache")
	}

	base.loaded = nil
	b, err := cache.GetBoard(ctx, "b1")
	if err != nil || b == nil || !b.HasMember("u2") {
		t.Fatalf("expected joined member on next read, got %#v, %v", b, err)
	}
	if !mr.Exists(boardCacheKey("b1")) {
		t.Fatalf("expected fresh board to be cached")
	}
}
