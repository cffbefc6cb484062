package repository

import (
	"bytes"
	"context"
	"errors"
	"io"

	"chunkslate/internal/pkg/storage"
)

// BlobStore 基于对象存储的键值存储，每个 key 对应一个 JSON 对象
type BlobStore struct {
	storage storage.Storage
}

// NewBlobStore 创建对象存储
func NewBlobStore(s storage.Storage) *BlobStore {
	return &BlobStore{storage: s}
}

// Get 读取
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := s.storage.Get(ctx, objectKey(key))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// Set 写入
func (s *BlobStore) Set(ctx context.Context, key string, value []byte) error {
	return s.storage.Put(ctx, objectKey(key), bytes.NewReader(value), "application/json")
}

// Delete 删除
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, objectKey(key))
}

func objectKey(key string) string {
	return "state/" + key + ".json"
}
