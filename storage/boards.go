package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"workhub-api/domain"
)

func (s *Storage) InsertBoard(ctx context.Context, b domain.Board) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if b.Tasks == nil {
		b.Tasks = []domain.Task{}
	}
	_, err := s.boards.InsertOne(ctx, b)
	return err
}

func (s *Storage) GetBoard(ctx context.Context, id string) (*domain.Board, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var b domain.Board
	err := s.boards.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Storage) ListBoardsByMember(ctx context.Context, userID string) ([]domain.Board, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: 1}})
	cur, err := s.boards.Find(ctx, bson.D{{Key: "members", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	boards := []domain.Board{}
	if err := cur.All(ctx, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

func (s *Storage) UpdateBoard(ctx context.Context, id, memberID string, upd domain.BoardUpdate) (bool, error) {
	return s.updateOne(ctx, memberFilter(id, memberID), bson.D{{Key: "$set", Value: boardSet(upd)}})
}

func (s *Storage) SetPasswordHash(ctx context.Context, id, memberID, hash string) (bool, error) {
	return s.updateOne(ctx, memberFilter(id, memberID), bson.D{{Key: "$set", Value: bson.D{{Key: "passwordHash", Value: hash}}}})
}

func (s *Storage) DeleteBoard(ctx context.Context, id, memberID string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.boards.DeleteOne(ctx, memberFilter(id, memberID))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *Storage) AddMember(ctx context.Context, id, userID string) (bool, error) {
	filter := bson.D{
		{Key: "id", Value: id},
		{Key: "members", Value: bson.D{{Key: "$ne", Value: userID}}},
	}
	return s.updateOne(ctx, filter, bson.D{{Key: "$push", Value: bson.D{{Key: "members", Value: userID}}}})
}

func (s *Storage) PushTask(ctx context.Context, boardID, memberID string, t domain.Task) (bool, error) {
	if t.Comments == nil {
		t.Comments = []domain.Comment{}
	}
	return s.updateOne(ctx, memberFilter(boardID, memberID), bson.D{{Key: "$push", Value: bson.D{{Key: "tasks", Value: t}}}})
}

func (s *Storage) UpdateTask(ctx context.Context, boardID, memberID, taskID string, upd domain.TaskUpdate) (bool, error) {
	return s.updateOne(ctx, taskFilter(boardID, memberID, taskID), bson.D{{Key: "$set", Value: taskSet(upd)}}, taskArrayFilters(taskID))
}

func (s *Storage) PushComment(ctx context.Context, boardID, memberID, taskID string, c domain.Comment) (bool, error) {
	return s.updateOne(ctx, taskFilter(boardID, memberID, taskID), bson.D{{Key: "$push", Value: bson.D{{Key: taskPath("comments"), Value: c}}}}, taskArrayFilters(taskID))
}

func (s *Storage) updateOne(ctx context.Context, filter, update bson.D, opts ...*options.UpdateOptions) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.boards.UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// memberFilter matches the board only while memberID is one of its members.
func memberFilter(boardID, memberID string) bson.D {
	return bson.D{
		{Key: "id", Value: boardID},
		{Key: "members", Value: memberID},
	}
}

// taskFilter additionally requires the task to be in the board so a missing
// task reports no match. The filter spans two arrays, so updates address the
// task through the "t" array filter rather than the positional operator.
func taskFilter(boardID, memberID, taskID string) bson.D {
	return append(memberFilter(boardID, memberID), bson.E{Key: "tasks.id", Value: taskID})
}

func taskArrayFilters(taskID string) *options.UpdateOptions {
	return options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.D{{Key: "t.id", Value: taskID}}},
	})
}

func taskPath(field string) string {
	return "tasks.$[t]." + field
}

func boardSet(upd domain.BoardUpdate) bson.D {
	set := bson.D{}
	if upd.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *upd.Name})
	}
	if upd.ReplaceTasks {
		tasks := upd.Tasks
		if tasks == nil {
			tasks = []domain.Task{}
		}
		set = append(set, bson.E{Key: "tasks", Value: tasks})
	}
	return set
}

func taskSet(upd domain.TaskUpdate) bson.D {
	set := bson.D{}
	if upd.Title != nil {
		set = append(set, bson.E{Key: taskPath("title"), Value: *upd.Title})
	}
	if upd.Priority != nil {
		set = append(set, bson.E{Key: taskPath("priority"), Value: *upd.Priority})
	}
	if upd.Description != nil {
		set = append(set, bson.E{Key: taskPath("description"), Value: *upd.Description})
	}
	if upd.DeadlineSet {
		if upd.Deadline == nil {
			set = append(set, bson.E{Key: taskPath("deadline"), Value: nil})
		} else {
			set = append(set, bson.E{Key: taskPath("deadline"), Value: *upd.Deadline})
		}
	}
	if upd.Status != nil {
		set = append(set, bson.E{Key: taskPath("status"), Value: *upd.Status})
	}
	return set
}

var _ domain.BoardStorage = (*Storage)(nil)
