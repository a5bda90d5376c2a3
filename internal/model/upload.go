// Package model 定义了与数据库表对应的 Go 结构体。
package model

import (
	"time"

	"github.com/google/uuid"
)

// UploadSession 对应 upload_sessions 表，记录一次分片上传的进度。
type UploadSession struct {
	ID             uuid.UUID  `gorm:"type:varchar(36);primaryKey" json:"id"`
	FileName       string     `gorm:"type:varchar(255);not null" json:"fileName"`
	ObjectName     string     `gorm:"type:varchar(512);not null" json:"objectName"`
	UploadedChunks int        `gorm:"not null;default:0" json:"uploadedChunks"`
	TotalChunks    int        `gorm:"not null;default:0" json:"totalChunks"`
	IsCompleted    bool       `gorm:"not null;default:false" json:"isCompleted"`
	CompletedAt    *time.Time `gorm:"default:null" json:"completedAt"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UploadSession) TableName() string {
	return "upload_sessions"
}

// UploadChunk 对应于数据库中的 'upload_chunks' 表。
// 它记录了每个分片在对象存储中的位置。
type UploadChunk struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID   uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_session_chunk" json:"sessionId"`
	ChunkNumber int       `gorm:"not null;uniqueIndex:idx_session_chunk" json:"chunkNumber"`
	ObjectName  string    `gorm:"type:varchar(512);not null" json:"objectName"`
	Size        int64     `gorm:"not null" json:"size"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UploadChunk) TableName() string {
	return "upload_chunks"
}
