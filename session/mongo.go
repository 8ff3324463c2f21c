package session

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/saipachipulusu/portfolio-rag/types"
)

const sessionCollection = "sessions"

// MongoStore persists sessions in a MongoDB collection, one document per
// session with the message history embedded.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoStore connects to MongoDB and pings it so a bad URI fails at
// startup, not on the first chat request.
func NewMongoStore(ctx context.Context, uri, database string, logger *zap.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError,
			"connecting to mongodb").WithCause(err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, types.NewError(types.ErrUpstreamError,
			"pinging mongodb").WithCause(err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(sessionCollection),
		logger:     logger.With(zap.String("component", "mongo_session_store")),
	}, nil
}

func (s *MongoStore) Append(ctx context.Context, sessionID string, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}

	now := time.Now().UTC()
	update := bson.M{
		"$push":        bson.M{"messages": bson.M{"$each": messages}},
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": sessionID}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return types.NewError(types.ErrUpstreamError,
			"appending session messages").WithCause(err)
	}
	return nil
}

func (s *MongoStore) History(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	opts := options.FindOne()
	if limit > 0 {
		opts = opts.SetProjection(bson.M{
			"messages": bson.M{"$slice": -limit},
		})
	}

	var sess Session
	err := s.collection.FindOne(ctx, bson.M{"_id": sessionID}, opts).Decode(&sess)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError,
			"loading session history").WithCause(err)
	}
	return sess.Messages, nil
}

func (s *MongoStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return types.NewError(types.ErrUpstreamError,
			"deleting session").WithCause(err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
