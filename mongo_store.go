package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps one document per user, keyed by the user id.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoSave struct {
	UserID        string    `bson:"_id"`
	SaveID        string    `bson:"saveId"`
	SchemaVersion string    `bson:"schemaVersion"`
	Payload       string    `bson:"payload"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func openMongoStore(ctx context.Context, cfg Config) (*MongoStore, error) {
	uri := strings.TrimSpace(cfg.MongoURI)
	if uri == "" {
		return nil, errors.New("DB_DIALECT=mongodb requires MONGO_URI")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	log.Printf("database: dialect=%s", dialectMongo)
	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.MongoDatabase).Collection("game_saves"),
	}, nil
}

func (s *MongoStore) Save(ctx context.Context, userID string, snap Snapshot) (string, error) {
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return "", err
	}
	update := bson.M{
		"$set": bson.M{
			"schemaVersion": snap.SchemaVersion,
			"payload":       string(payload),
			"updatedAt":     time.Now().UTC(),
		},
		"$setOnInsert": bson.M{"saveId": uuid.NewString()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc mongoSave
	if err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&doc); err != nil {
		return "", fmt.Errorf("mongodb save: %w", err)
	}
	return doc.SaveID, nil
}

func (s *MongoStore) Load(ctx context.Context, userID string) (*Snapshot, error) {
	var doc mongoSave
	err := s.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb load: %w", err)
	}
	return DecodeSnapshot([]byte(doc.Payload))
}

func (s *MongoStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		return fmt.Errorf("mongodb delete: %w", err)
	}
	return nil
}

func (s *MongoStore) PurgeStale(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, bson.M{"updatedAt": bson.M{"$lt": before.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("mongodb purge: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
