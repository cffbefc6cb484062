package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chunkslate/internal/model/translation"
)

// MongoStore 基于 MongoDB 的键值存储，每个 key 一个文档
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore 创建 MongoDB 存储
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection((&translation.StateRecord{}).Collection()),
	}
}

// Get 读取
func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	var rec translation.StateRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(rec.Value), nil
}

// Set 写入（upsert）
func (s *MongoStore) Set(ctx context.Context, key string, value []byte) error {
	rec := translation.StateRecord{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now(),
	}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, rec, options.Replace().SetUpsert(true))
	return err
}

// Delete 删除
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
