package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore[T any] struct {
	coll    *mongo.Collection
	idField string
	unique  []string
}

func NewMongoStore[T any](db *mongo.Database, collection, idField string) *MongoStore[T] {
	return &MongoStore[T]{coll: db.Collection(collection), idField: idField}
}

// Unique adds fields that must be unique across the whole collection.
func (s *MongoStore[T]) Unique(fields ...string) *MongoStore[T] {
	s.unique = append(s.unique, fields...)
	return s
}

// EnsureIndexes creates the unique business-ID index, the owner index and
// one unique index per Unique field.
func (s *MongoStore[T]) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: s.idField, Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if s.idField != ownerField {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: ownerField, Value: 1}}})
	}
	for _, f := range s.unique {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}}, Options: options.Index().SetUnique(true)})
	}
	_, err := s.coll.Indexes().CreateMany(ctx, models)
	return err
}

func (s *MongoStore[T]) query(userID string, filter Filter) bson.M {
	q := bson.M{}
	for k, v := range filter {
		if list, ok := v.([]string); ok {
			q[k] = bson.M{"$in": list}
			continue
		}
		q[k] = v
	}
	if userID != "" {
		q[ownerField] = userID
	}
	return q
}

func (s *MongoStore[T]) Insert(ctx context.Context, doc *T) error {
	_, err := s.coll.InsertOne(ctx, doc)
	return err
}

func (s *MongoStore[T]) FindOne(ctx context.Context, userID, id string) (*T, error) {
	var out T
	err := s.coll.FindOne(ctx, s.query(userID, Filter{s.idField: id})).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (s *MongoStore[T]) Find(ctx context.Context, userID string, filter Filter) ([]*T, error) {
	cur, err := s.coll.Find(ctx, s.query(userID, filter))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore[T]) Replace(ctx context.Context, userID, id string, doc *T, cond Filter) error {
	q := s.query(userID, cond)
	q[s.idField] = id
	res, err := s.coll.ReplaceOne(ctx, q, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore[T]) Update(ctx context.Context, userID string, filter Filter, set Filter) (int64, error) {
	res, err := s.coll.UpdateMany(ctx, s.query(userID, filter), bson.M{"$set": bson.M(set)})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *MongoStore[T]) Push(ctx context.Context, userID, id, field string, item interface{}) error {
	res, err := s.coll.UpdateOne(ctx, s.query(userID, Filter{s.idField: id}), bson.M{"$push": bson.M{field: item}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore[T]) Pull(ctx context.Context, userID string, filter Filter, field string, match Filter) (int64, error) {
	res, err := s.coll.UpdateMany(ctx, s.query(userID, filter), bson.M{"$pull": bson.M{field: bson.M(match)}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore[T]) Delete(ctx context.Context, userID, id string) error {
	res, err := s.coll.DeleteOne(ctx, s.query(userID, Filter{s.idField: id}))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore[T]) DeleteMany(ctx context.Context, userID string, filter Filter) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, s.query(userID, filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoStore[T]) Count(ctx context.Context, userID string, filter Filter) (int64, error) {
	return s.coll.CountDocuments(ctx, s.query(userID, filter))
}

// MongoTx runs work inside a client session transaction. It needs a replica
// set or sharded cluster.
type MongoTx struct {
	Client *mongo.Client
}

func (t *MongoTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := t.Client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
