package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"taskhub-go/internal/config"
	"taskhub-go/internal/model"
	"taskhub-go/internal/repository"
	"taskhub-go/pkg/log"
	"taskhub-go/pkg/storage"
)

// FilePart 是 multipart 表单中的一个文件，可以多次打开。
type FilePart interface {
	Filename() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// UploadSessionService 接口定义了分片上传会话相关的业务操作。
type UploadSessionService interface {
	CreateUploadSession(ctx context.Context, fileName string) (*model.UploadSession, error)
	GetUploadSession(ctx context.Context, id uuid.UUID) (*model.UploadSession, error)
	DeleteUploadSession(ctx context.Context, id uuid.UUID) error
	SaveChunk(ctx context.Context, id uuid.UUID, chunkNumber int, part FilePart, isLastChunk bool) (*model.UploadSession, error)
}

type uploadSessionService struct {
	store        repository.Store
	marks        repository.ChunkMarkRepository
	objects      storage.ObjectStore
	sessionsRoot string
	maxChunks    int
	now          func() time.Time
}

// NewUploadSessionService 创建一个新的 UploadSessionService 实例。
func NewUploadSessionService(store repository.Store, marks repository.ChunkMarkRepository, objects storage.ObjectStore, cfg config.UploadConfig) UploadSessionService {
	sessionsRoot := cfg.SessionsRoot
	if sessionsRoot == "" {
		sessionsRoot = "sessions"
	}
	return &uploadSessionService{
		store:        store,
		marks:        marks,
		objects:      objects,
		sessionsRoot: sessionsRoot,
		maxChunks:    cfg.ChunkLimit(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// sanitizeFileName 只保留文件名本身，拒绝空名和目录穿越。
func sanitizeFileName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." || base == "" {
		return "", ErrInvalidFileName
	}
	return filepath.Clean(base), nil
}

func (s *uploadSessionService) chunkObjectName(id uuid.UUID, chunkNumber int) string {
	return fmt.Sprintf("%s/%s/chunks/%d", s.sessionsRoot, id, chunkNumber)
}

// CreateUploadSession 为一个文件创建新的上传会话。
func (s *uploadSessionService) CreateUploadSession(ctx context.Context, fileName string) (*model.UploadSession, error) {
	base, err := sanitizeFileName(fileName)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	session := &model.UploadSession{
		ID:         id,
		FileName:   base,
		ObjectName: fmt.Sprintf("%s/%s/%s", s.sessionsRoot, id, base),
	}
	if err := s.store.UploadSessions().Create(ctx, session); err != nil {
		log.Errorf("[CreateUploadSession] 创建上传会话失败, error: %v", err)
		return nil, err
	}
	log.Infof("[CreateUploadSession] 上传会话已创建, id: %s, 文件: %s", id, base)
	return session, nil
}

// GetUploadSession 查找上传会话，不存在时返回 ErrUploadSessionNotFound。
func (s *uploadSessionService) GetUploadSession(ctx context.Context, id uuid.UUID) (*model.UploadSession, error) {
	session, err := s.store.UploadSessions().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// DeleteUploadSession 无条件删除会话及其分片，会话不存在时也返回成功。
func (s *uploadSessionService) DeleteUploadSession(ctx context.Context, id uuid.UUID) error {
	chunks, err := s.store.UploadSessions().FindChunks(ctx, id)
	if err != nil {
		return err
	}

	if len(chunks) > 0 {
		names := make([]string, 0, len(chunks))
		for _, c := range chunks {
			names = append(names, c.ObjectName)
		}
		if err := s.objects.RemoveObjects(ctx, names); err != nil {
			log.Warnf("[DeleteUploadSession] 删除分片对象失败, id: %s, error: %v", id, err)
		}
	}

	if err := s.marks.DeleteMarks(ctx, id); err != nil {
		log.Warnf("[DeleteUploadSession] 删除Redis分片标记失败, id: %s, error: %v", id, err)
	}

	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.UploadSessions().DeleteChunks(ctx, id); err != nil {
			return err
		}
		return tx.UploadSessions().Delete(ctx, id)
	})
}

// SaveChunk 保存一个分片。分片序号从 0 开始；最后一个分片到达时
// 检查 0..chunkNumber 是否齐全，按序拼接成最终对象并把会话标记为完成。
func (s *uploadSessionService) SaveChunk(ctx context.Context, id uuid.UUID, chunkNumber int, part FilePart, isLastChunk bool) (*model.UploadSession, error) {
	if chunkNumber < 0 || chunkNumber >= s.maxChunks {
		return nil, fmt.Errorf("%w: %d (limit %d)", ErrInvalidChunkNumber, chunkNumber, s.maxChunks)
	}

	session, err := s.GetUploadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, ErrUploadSessionCompleted
	}

	if uploaded, err := s.marks.IsChunkUploaded(ctx, id, chunkNumber); err == nil && uploaded {
		log.Infof("[SaveChunk] 分片已存在，将被覆盖, id: %s, chunk: %d", id, chunkNumber)
	}

	objectName := s.chunkObjectName(id, chunkNumber)
	if err := s.putPart(ctx, objectName, part); err != nil {
		log.Errorf("[SaveChunk] 上传分片到对象存储失败, objectName: %s, error: %v", objectName, err)
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		chunk := &model.UploadChunk{
			SessionID:   id,
			ChunkNumber: chunkNumber,
			ObjectName:  objectName,
			Size:        part.Size(),
		}
		if err := tx.UploadSessions().UpsertChunk(ctx, chunk); err != nil {
			return err
		}
		count, err := tx.UploadSessions().CountChunks(ctx, id)
		if err != nil {
			return err
		}
		session.UploadedChunks = int(count)
		return tx.UploadSessions().Update(ctx, session)
	})
	if err != nil {
		log.Errorf("[SaveChunk] 记录分片失败, id: %s, chunk: %d, error: %v", id, chunkNumber, err)
		return nil, err
	}

	if err := s.marks.MarkChunkUploaded(ctx, id, chunkNumber); err != nil {
		log.Errorf("[SaveChunk] 在Redis中标记分片失败, id: %s, chunk: %d, error: %v", id, chunkNumber, err)
		return nil, err
	}

	log.Infof("[SaveChunk] 分片保存成功, id: %s, chunk: %d, 已上传: %d", id, chunkNumber, session.UploadedChunks)
	if !isLastChunk {
		return session, nil
	}
	return s.complete(ctx, session, chunkNumber+1)
}

func (s *uploadSessionService) putPart(ctx context.Context, objectName string, part FilePart) error {
	reader, err := part.Open()
	if err != nil {
		return fmt.Errorf("open chunk: %w", err)
	}
	defer reader.Close()
	return s.objects.PutObject(ctx, objectName, reader, part.Size())
}

func (s *uploadSessionService) complete(ctx context.Context, session *model.UploadSession, totalChunks int) (*model.UploadSession, error) {
	uploaded, err := s.marks.GetUploadedChunks(ctx, session.ID, totalChunks)
	if err != nil {
		return nil, fmt.Errorf("failed to get uploaded chunks from redis: %w", err)
	}
	if len(uploaded) < totalChunks {
		log.Warnf("[SaveChunk] 拒绝合并：分片未完全上传, id: %s, 期望: %d, 实际: %d", session.ID, totalChunks, len(uploaded))
		return nil, fmt.Errorf("%w (expected %d, got %d)", ErrChunksMissing, totalChunks, len(uploaded))
	}

	srcs := make([]string, 0, totalChunks)
	for i := 0; i < totalChunks; i++ {
		srcs = append(srcs, s.chunkObjectName(session.ID, i))
	}
	if err := s.objects.ConcatObjects(ctx, session.ObjectName, srcs); err != nil {
		log.Errorf("[SaveChunk] 合并分片失败, id: %s, error: %v", session.ID, err)
		return nil, err
	}

	completedAt := s.now()
	session.TotalChunks = totalChunks
	session.IsCompleted = true
	session.CompletedAt = &completedAt
	if err := s.store.UploadSessions().Update(ctx, session); err != nil {
		return nil, err
	}
	log.Infof("[SaveChunk] 上传会话已完成, id: %s, 对象: %s", session.ID, session.ObjectName)

	// 清理分片，失败不影响结果
	if err := s.objects.RemoveObjects(ctx, srcs); err != nil {
		log.Warnf("[SaveChunk] 清理分片对象失败, id: %s, error: %v", session.ID, err)
	}
	if err := s.marks.DeleteMarks(ctx, session.ID); err != nil {
		log.Warnf("[SaveChunk] 删除Redis分片标记失败, id: %s, error: %v", session.ID, err)
	}
	return session, nil
}
