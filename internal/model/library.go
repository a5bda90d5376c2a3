package model

import (
	"time"

	"github.com/google/uuid"
)

// 上传任务状态
const (
	UploadJobPending   = 0
	UploadJobProcessed = 1
	UploadJobFailed    = 2
)

// LibraryFolder 把逻辑目录名映射到文件系统路径与对外 URL。
type LibraryFolder struct {
	FolderName string `gorm:"type:varchar(100);primaryKey" json:"folderName"`
	Unc        string `gorm:"type:varchar(512)" json:"unc"`
	Http       string `gorm:"type:varchar(512)" json:"http"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (LibraryFolder) TableName() string {
	return "library_folders"
}

// UploadJob 对应 upload_jobs 表，记录一个已落盘、等待后处理的文件。
type UploadJob struct {
	JobOid      uuid.UUID  `gorm:"type:varchar(36);primaryKey" json:"jobOid"`
	FolderName  string     `gorm:"type:varchar(100);not null;index" json:"folderName"`
	FilePath    string     `gorm:"type:varchar(1024);not null" json:"filePath"`
	FileMD5     string     `gorm:"type:varchar(32)" json:"fileMd5"`
	Size        int64      `gorm:"not null;default:0" json:"size"`
	Status      int        `gorm:"not null;default:0" json:"status"` // 0: pending, 1: processed, 2: failed
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	ProcessedAt *time.Time `gorm:"default:null" json:"processedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UploadJob) TableName() string {
	return "upload_jobs"
}
