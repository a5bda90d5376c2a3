// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"taskhub-go/internal/model"
)

// Store 是按请求使用的持久化入口，暴露各类记录集合。
// Transaction 内的 fn 只能使用传入的 tx，提交或回滚由 Store 负责。
type Store interface {
	Users() UserRepository
	Admins() AdminRepository
	UserTasks() UserTaskRepository
	TaskStatuses() TaskStatusRepository
	UploadSessions() UploadSessionRepository
	Library() LibraryRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// gormStore 是 Store 接口的 GORM 实现。
type gormStore struct {
	db *gorm.DB
}

// NewStore 创建一个新的 Store 实例。
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository                   { return NewUserRepository(s.db) }
func (s *gormStore) Admins() AdminRepository                 { return NewAdminRepository(s.db) }
func (s *gormStore) UserTasks() UserTaskRepository           { return NewUserTaskRepository(s.db) }
func (s *gormStore) TaskStatuses() TaskStatusRepository      { return &taskStatusRepository{db: s.db} }
func (s *gormStore) UploadSessions() UploadSessionRepository { return NewUploadSessionRepository(s.db) }
func (s *gormStore) Library() LibraryRepository              { return NewLibraryRepository(s.db) }

// Transaction 在一个数据库事务中执行 fn：fn 返回 nil 时提交，返回错误或 panic 时回滚。
func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// AutoMigrate 为所有模型建表。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Admin{},
		&model.TaskStatus{},
		&model.UserTask{},
		&model.UploadSession{},
		&model.UploadChunk{},
		&model.LibraryFolder{},
		&model.UploadJob{},
	)
}

// SeedTaskStatuses 写入任务状态查找表，已存在的行保持不变。
func SeedTaskStatuses(ctx context.Context, db *gorm.DB) error {
	statuses := make([]model.TaskStatus, len(model.DefaultTaskStatuses))
	copy(statuses, model.DefaultTaskStatuses)
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&statuses).Error
}
