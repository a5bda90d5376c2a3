package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"taskhub-go/internal/model"
)

// LibraryRepository 接口定义了逻辑目录与上传任务的持久化操作。
type LibraryRepository interface {
	FindFolders(ctx context.Context) ([]model.LibraryFolder, error)
	FindFolder(ctx context.Context, name string) (*model.LibraryFolder, error)
	UpsertFolder(ctx context.Context, folder *model.LibraryFolder) error

	CreateUploadJob(ctx context.Context, job *model.UploadJob) error
	FindUploadJob(ctx context.Context, jobOid uuid.UUID) (*model.UploadJob, error)
	UpdateUploadJob(ctx context.Context, job *model.UploadJob) error
}

type libraryRepository struct {
	db *gorm.DB
}

// NewLibraryRepository 创建一个新的 LibraryRepository 实例。
func NewLibraryRepository(db *gorm.DB) LibraryRepository {
	return &libraryRepository{db: db}
}

func (r *libraryRepository) FindFolders(ctx context.Context) ([]model.LibraryFolder, error) {
	var folders []model.LibraryFolder
	err := r.db.WithContext(ctx).Order("folder_name asc").Find(&folders).Error
	return folders, err
}

func (r *libraryRepository) FindFolder(ctx context.Context, name string) (*model.LibraryFolder, error) {
	var folder model.LibraryFolder
	err := r.db.WithContext(ctx).Where("folder_name = ?", name).First(&folder).Error
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// UpsertFolder 按目录名插入或覆盖路径。
func (r *libraryRepository) UpsertFolder(ctx context.Context, folder *model.LibraryFolder) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "folder_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"unc", "http"}),
	}).Create(folder).Error
}

func (r *libraryRepository) CreateUploadJob(ctx context.Context, job *model.UploadJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *libraryRepository) FindUploadJob(ctx context.Context, jobOid uuid.UUID) (*model.UploadJob, error) {
	var job model.UploadJob
	err := r.db.WithContext(ctx).Where("job_oid = ?", jobOid).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *libraryRepository) UpdateUploadJob(ctx context.Context, job *model.UploadJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}
