package repository

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ChunkMarkRepository 用 Redis 位图记录会话中哪些分片已到达。
type ChunkMarkRepository interface {
	IsChunkUploaded(ctx context.Context, sessionID uuid.UUID, chunkNumber int) (bool, error)
	MarkChunkUploaded(ctx context.Context, sessionID uuid.UUID, chunkNumber int) error
	GetUploadedChunks(ctx context.Context, sessionID uuid.UUID, totalChunks int) ([]int, error)
	DeleteMarks(ctx context.Context, sessionID uuid.UUID) error
}

type chunkMarkRepository struct {
	redisClient *redis.Client
}

// NewChunkMarkRepository 创建一个新的 ChunkMarkRepository 实例。
func NewChunkMarkRepository(redisClient *redis.Client) ChunkMarkRepository {
	return &chunkMarkRepository{redisClient: redisClient}
}

func chunkMarkKey(sessionID uuid.UUID) string {
	return "upload:session:" + sessionID.String()
}

// IsChunkUploaded checks if a chunk is marked as uploaded in Redis.
func (r *chunkMarkRepository) IsChunkUploaded(ctx context.Context, sessionID uuid.UUID, chunkNumber int) (bool, error) {
	// 键不存在时 GETBIT 返回 0 而不是错误
	val, err := r.redisClient.GetBit(ctx, chunkMarkKey(sessionID), int64(chunkNumber)).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// MarkChunkUploaded marks a chunk as uploaded in Redis.
func (r *chunkMarkRepository) MarkChunkUploaded(ctx context.Context, sessionID uuid.UUID, chunkNumber int) error {
	return r.redisClient.SetBit(ctx, chunkMarkKey(sessionID), int64(chunkNumber), 1).Err()
}

// GetUploadedChunks retrieves the uploaded chunk numbers in [0, totalChunks) from the bitmap.
func (r *chunkMarkRepository) GetUploadedChunks(ctx context.Context, sessionID uuid.UUID, totalChunks int) ([]int, error) {
	if totalChunks <= 0 {
		return []int{}, nil
	}
	bitmap, err := r.redisClient.Get(ctx, chunkMarkKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []int{}, nil
		}
		return nil, err
	}
	return decodeBitmap(bitmap, totalChunks), nil
}

// DeleteMarks deletes the bitmap key.
func (r *chunkMarkRepository) DeleteMarks(ctx context.Context, sessionID uuid.UUID) error {
	return r.redisClient.Del(ctx, chunkMarkKey(sessionID)).Err()
}

// decodeBitmap 按 Redis 的位序（每字节高位在前）解出置位的下标。
func decodeBitmap(bitmap []byte, total int) []int {
	uploaded := make([]int, 0)
	for i := 0; i < total; i++ {
		byteIndex := i / 8
		bitIndex := i % 8
		if byteIndex < len(bitmap) && (bitmap[byteIndex]>>(7-bitIndex))&1 == 1 {
			uploaded = append(uploaded, i)
		}
	}
	return uploaded
}
