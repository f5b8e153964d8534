package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"

	"workhub-api/domain"
)

// Cache wraps a board store with a Redis read-through cache for GetBoard.
// Every mutation addressed to a board evicts its entry and bumps the board's
// version; a fill only lands when the version it read before loading is still
// current. Entries are BSON so the join password hash survives the round trip.
type Cache struct {
	base  domain.BoardStorage
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base domain.BoardStorage, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) GetBoard(ctx context.Context, id string) (*domain.Board, error) {
	if b, ok := c.loadBoard(ctx, id); ok {
		return b, nil
	}
	ver, verOK := c.version(ctx, id)
	b, err := c.base.GetBoard(ctx, id)
	if err != nil || b == nil {
		return b, err
	}
	if verOK {
		c.storeBoard(ctx, b, ver)
	}
	return b, nil
}

func (c *Cache) InsertBoard(ctx context.Context, b domain.Board) error {
	return c.base.InsertBoard(ctx, b)
}

func (c *Cache) ListBoardsByMember(ctx context.Context, userID string) ([]domain.Board, error) {
	return c.base.ListBoardsByMember(ctx, userID)
}

func (c *Cache) UpdateBoard(ctx context.Context, id, memberID string, upd domain.BoardUpdate) (bool, error) {
	return c.evictAfter(ctx, id)(c.base.UpdateBoard(ctx, id, memberID, upd))
}

func (c *Cache) SetPasswordHash(ctx context.Context, id, memberID, hash string) (bool, error) {
	return c.evictAfter(ctx, id)(c.base.SetPasswordHash(ctx, id, memberID, hash))
}

func (c *Cache) DeleteBoard(ctx context.Context, id, memberID string) (bool, error) {
	return c.evictAfter(ctx, id)(c.base.DeleteBoard(ctx, id, memberID))
}

func (c *Cache) AddMember(ctx context.Context, id, userID string) (bool, error) {
	return c.evictAfter(ctx, id)(c.base.AddMember(ctx, id, userID))
}

func (c *Cache) PushTask(ctx context.Context, boardID, memberID string, t domain.Task) (bool, error) {
	return c.evictAfter(ctx, boardID)(c.base.PushTask(ctx, boardID, memberID, t))
}

func (c *Cache) UpdateTask(ctx context.Context, boardID, memberID, taskID string, upd domain.TaskUpdate) (bool, error) {
	return c.evictAfter(ctx, boardID)(c.base.UpdateTask(ctx, boardID, memberID, taskID, upd))
}

func (c *Cache) PushComment(ctx context.Context, boardID, memberID, taskID string, cm domain.Comment) (bool, error) {
	return c.evictAfter(ctx, boardID)(c.base.PushComment(ctx, boardID, memberID, taskID, cm))
}

// evictAfter drops the cached board once the wrapped call has matched a
// document.
func (c *Cache) evictAfter(ctx context.Context, boardID string) func(bool, error) (bool, error) {
	return func(ok bool, err error) (bool, error) {
		if err == nil && ok {
			c.evict(ctx, boardID)
		}
		return ok, err
	}
}

func (c *Cache) loadBoard(ctx context.Context, id string) (*domain.Board, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, boardCacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, boardCacheKey(id)).Err()
		}
		return nil, false
	}
	var b domain.Board
	if err := bson.Unmarshal(data, &b); err != nil {
		_ = c.redis.Del(ctx, boardCacheKey(id)).Err()
		return nil, false
	}
	return &b, true
}

var errStaleFill = errors.New("board changed while loading")

// version returns the board's eviction counter. A missing counter reads as
// zero. ok is false when Redis cannot be reached.
func (c *Cache) version(ctx context.Context, id string) (int64, bool) {
	if c.redis == nil || c.ttl == 0 {
		return 0, false
	}
	v, err := c.redis.Get(ctx, boardVersionKey(id)).Int64()
	if err != nil && err != redis.Nil {
		return 0, false
	}
	return v, true
}

// storeBoard caches b unless the board was evicted after ver was read.
func (c *Cache) storeBoard(ctx context.Context, b *domain.Board, ver int64) {
	data, err := bson.Marshal(b)
	if err != nil {
		return
	}
	verKey := boardVersionKey(b.ID)
	_ = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, verKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != ver {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, boardCacheKey(b.ID), data, c.ttl)
			return nil
		})
		return err
	}, verKey)
}

func (c *Cache) evict(ctx context.Context, boardID string) {
	if c.redis == nil {
		return
	}
	verKey := boardVersionKey(boardID)
	_, _ = c.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, verKey)
		p.Expire(ctx, verKey, boardVersionTTL)
		p.Del(ctx, boardCacheKey(boardID))
		return nil
	})
}

// boardVersionTTL outlives any in-flight fill by a wide margin.
const boardVersionTTL = 24 * time.Hour

func boardCacheKey(boardID string) string {
	return "board:" + boardID
}

func boardVersionKey(boardID string) string {
	return "board:ver:" + boardID
}

var _ domain.BoardStorage = (*Cache)(nil)
