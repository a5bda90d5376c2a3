package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"taskhub-go/internal/model"
)

// UploadSessionRepository 接口定义了分片上传会话与分片记录的持久化操作。
type UploadSessionRepository interface {
	Create(ctx context.Context, session *model.UploadSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.UploadSession, error)
	Update(ctx context.Context, session *model.UploadSession) error
	Delete(ctx context.Context, id uuid.UUID) error

	UpsertChunk(ctx context.Context, chunk *model.UploadChunk) error
	FindChunks(ctx context.Context, sessionID uuid.UUID) ([]model.UploadChunk, error)
	CountChunks(ctx context.Context, sessionID uuid.UUID) (int64, error)
	DeleteChunks(ctx context.Context, sessionID uuid.UUID) error
}

type uploadSessionRepository struct {
	db *gorm.DB
}

// NewUploadSessionRepository 创建一个新的 UploadSessionRepository 实例。
func NewUploadSessionRepository(db *gorm.DB) UploadSessionRepository {
	return &uploadSessionRepository{db: db}
}

// Create 创建一条上传会话记录。
func (r *uploadSessionRepository) Create(ctx context.Context, session *model.UploadSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindByID 根据会话 ID 查找上传会话。
func (r *uploadSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.UploadSession, error) {
	var session model.UploadSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Update 保存会话的全部字段。
func (r *uploadSessionRepository) Update(ctx context.Context, session *model.UploadSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// Delete 删除会话记录，记录不存在时不报错。
func (r *uploadSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.UploadSession{}).Error
}

// UpsertChunk 写入分片记录，同一会话同一序号的分片被覆盖。
func (r *uploadSessionRepository) UpsertChunk(ctx context.Context, chunk *model.UploadChunk) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "chunk_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"object_name", "size"}),
	}).Create(chunk).Error
}

// FindChunks 返回会话的全部分片，按序号升序。
func (r *uploadSessionRepository) FindChunks(ctx context.Context, sessionID uuid.UUID) ([]model.UploadChunk, error) {
	var chunks []model.UploadChunk
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("chunk_number asc").Find(&chunks).Error
	return chunks, err
}

// CountChunks 统计会话已记录的分片数。
func (r *uploadSessionRepository) CountChunks(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UploadChunk{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}

// DeleteChunks 删除会话的全部分片记录。
func (r *uploadSessionRepository) DeleteChunks(ctx context.Context, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&model.UploadChunk{}).Error
}
