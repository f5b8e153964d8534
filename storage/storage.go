package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	boardsCollection = "boards"
	usersCollection  = "users"

	defaultTimeout = 5 * time.Second
)

// Storage is the MongoDB-backed board and user store. One Storage owns the
// client connection pool and is shared by every request.
type Storage struct {
	client  *mongo.Client
	boards  *mongo.Collection
	users   *mongo.Collection
	timeout time.Duration
}

// New connects to uri, pings the deployment and returns a Storage bound to
// database db. Each storage call is bounded by timeout.
func New(ctx context.Context, uri, db string, timeout time.Duration) (*Storage, error) {
	if uri == "" {
		return nil, errors.New("storage: empty mongodb uri")
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	s := newStorage(client.Database(db), timeout)
	s.client = client
	return s, nil
}

func newStorage(db *mongo.Database, timeout time.Duration) *Storage {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Storage{
		boards:  db.Collection(boardsCollection),
		users:   db.Collection(usersCollection),
		timeout: timeout,
	}
}

// EnsureIndexes creates the unique id and email indexes and the membership
// index used by board listing.
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.boards.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "members", Value: 1}, {Key: "created", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

// Ping checks the primary is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if s.client == nil {
		return errors.New("storage: not connected")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client pool.
func (s *Storage) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Storage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}
