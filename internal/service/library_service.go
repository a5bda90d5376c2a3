package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"taskhub-go/internal/config"
	"taskhub-go/internal/model"
	"taskhub-go/internal/repository"
	"taskhub-go/pkg/log"
	"taskhub-go/pkg/tasks"
)

// JobPublisher 把已记录的上传任务投递给后处理管道。
type JobPublisher interface {
	PublishUploadJob(ctx context.Context, task tasks.UploadJobTask) error
}

// LibraryService 负责逻辑目录解析和上传任务登记。
type LibraryService interface {
	GetFolders(ctx context.Context) ([]model.LibraryFolder, error)
	ResolveFolder(ctx context.Context, name string) (*model.LibraryFolder, error)
	AddUploadJob(ctx context.Context, filePath, folderName string) (uuid.UUID, error)
	SyncFolders(ctx context.Context, folders []config.FolderConfig) error
}

type libraryService struct {
	store     repository.Store
	publisher JobPublisher
}

// NewLibraryService 创建一个新的 LibraryService 实例。
func NewLibraryService(store repository.Store, publisher JobPublisher) LibraryService {
	return &libraryService{store: store, publisher: publisher}
}

func (s *libraryService) GetFolders(ctx context.Context) ([]model.LibraryFolder, error) {
	return s.store.Library().FindFolders(ctx)
}

// ResolveFolder 查找逻辑目录，要求文件系统路径和 URL 路径都已配置。
func (s *libraryService) ResolveFolder(ctx context.Context, name string) (*model.LibraryFolder, error) {
	folder, err := s.store.Library().FindFolder(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, name)
		}
		return nil, err
	}
	if folder.Unc == "" || folder.Http == "" {
		return nil, fmt.Errorf("%w: %s", ErrFolderPathsMissing, name)
	}
	return folder, nil
}

// AddUploadJob 登记一个待处理的上传任务并投递到 Kafka。
// 投递失败只记录日志，任务记录仍然保留。
func (s *libraryService) AddUploadJob(ctx context.Context, filePath, folderName string) (uuid.UUID, error) {
	job := &model.UploadJob{
		JobOid:     uuid.New(),
		FolderName: folderName,
		FilePath:   filePath,
		Status:     model.UploadJobPending,
	}
	if err := s.store.Library().CreateUploadJob(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("create upload job: %w", err)
	}

	if s.publisher != nil {
		task := tasks.UploadJobTask{
			JobOid:     job.JobOid.String(),
			FolderName: folderName,
			FilePath:   filePath,
		}
		if err := s.publisher.PublishUploadJob(ctx, task); err != nil {
			log.Errorf("[AddUploadJob] 发送上传任务到Kafka失败, job: %s, error: %v", job.JobOid, err)
		} else {
			log.Infof("[AddUploadJob] 上传任务已发送到Kafka, job: %s", job.JobOid)
		}
	}
	return job.JobOid, nil
}

// SyncFolders 把配置中的目录写入 library_folders。
func (s *libraryService) SyncFolders(ctx context.Context, folders []config.FolderConfig) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		for _, f := range folders {
			if f.Name == "" {
				continue
			}
			folder := &model.LibraryFolder{FolderName: f.Name, Unc: f.Unc, Http: f.Http}
			if err := tx.Library().UpsertFolder(ctx, folder); err != nil {
				return fmt.Errorf("sync folder %s: %w", f.Name, err)
			}
		}
		return nil
	})
}
