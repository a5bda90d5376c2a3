// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"taskhub-go/internal/model"
	"taskhub-go/internal/repository"
	"taskhub-go/pkg/encrypt"
	"taskhub-go/pkg/log"
)

// AddAdminInput 是创建管理员所需的数据。
type AddAdminInput struct {
	UserName string
	Email    string
	Password string
}

// UserTaskInput 是新增或更新任务的数据，UserTaskOid 为空表示新增。
type UserTaskInput struct {
	UserTaskOid uuid.UUID
	UserOid     uuid.UUID
	Name        string
	OrderNumber int
}

// TaskService 接口定义了管理员与用户任务相关的业务操作。
type TaskService interface {
	AddAdmin(ctx context.Context, in AddAdminInput) (*model.User, error)
	GetUserTasks(ctx context.Context, userOid uuid.UUID) ([]model.UserTaskDetails, error)
	GetUserTaskDetails(ctx context.Context, taskOid uuid.UUID) (*model.UserTaskDetails, error)
	CompleteTask(ctx context.Context, taskOid uuid.UUID) error
	AddOrUpdateTask(ctx context.Context, in UserTaskInput) (uuid.UUID, error)
	DeleteTask(ctx context.Context, taskOid uuid.UUID) error
}

type taskService struct {
	store     repository.Store
	encryptor encrypt.Encryptor
	now       func() time.Time
}

// NewTaskService 创建一个新的 TaskService 实例。
func NewTaskService(store repository.Store, encryptor encrypt.Encryptor) TaskService {
	return &taskService{
		store:     store,
		encryptor: encryptor,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AddAdmin 在同一事务中创建用户及其管理员记录。
// 密码以新用户 ID 为盐加密；任何持久化错误（如邮箱重复）都会回滚两条记录。
func (s *taskService) AddAdmin(ctx context.Context, in AddAdminInput) (*model.User, error) {
	userOid := uuid.New()
	encrypted, err := s.encryptor.Encrypt(in.Password, userOid.String())
	if err != nil {
		return nil, fmt.Errorf("encrypt password: %w", err)
	}

	now := s.now()
	user := &model.User{
		UserOid:      userOid,
		UserName:     in.UserName,
		Email:        in.Email,
		Password:     encrypted,
		UserStatusID: model.AdminUserStatusID,
		StartDate:    now,
	}
	admin := &model.Admin{
		AdminOid:  uuid.New(),
		UserOid:   userOid,
		StartDate: now,
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := tx.Admins().Create(ctx, admin); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("[TaskService] 管理员创建成功, userOid: %s", userOid)
	return user, nil
}

// GetUserTasks 返回用户的任务列表，按 OrderNumber 升序，永不返回 nil。
func (s *taskService) GetUserTasks(ctx context.Context, userOid uuid.UUID) ([]model.UserTaskDetails, error) {
	details, err := s.store.UserTasks().FindDetailsByUserID(ctx, userOid)
	if err != nil {
		return nil, err
	}
	if details == nil {
		details = []model.UserTaskDetails{}
	}
	return details, nil
}

// GetUserTaskDetails 返回单个任务，不存在时返回 (nil, nil)。
func (s *taskService) GetUserTaskDetails(ctx context.Context, taskOid uuid.UUID) (*model.UserTaskDetails, error) {
	details, err := s.store.UserTasks().FindDetailsByID(ctx, taskOid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return details, nil
}

// CompleteTask 把任务标记为完成。任务不存在或已完成时不做任何修改。
func (s *taskService) CompleteTask(ctx context.Context, taskOid uuid.UUID) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		task, err := tx.UserTasks().FindByID(ctx, taskOid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if task.TaskStatusID == model.TaskStatusComplete {
			log.Infof("[TaskService] 任务已完成，忽略重复完成请求, userTaskOid: %s", taskOid)
			return nil
		}
		return tx.UserTasks().MarkComplete(ctx, taskOid, s.now())
	})
}

// AddOrUpdateTask 根据 UserTaskOid 是否为空决定新增或更新。
// 更新只修改名称和排序号，状态和日期保持不变。
func (s *taskService) AddOrUpdateTask(ctx context.Context, in UserTaskInput) (uuid.UUID, error) {
	if strings.TrimSpace(in.Name) == "" {
		return uuid.Nil, ErrInvalidTaskName
	}
	if in.UserTaskOid == uuid.Nil {
		return s.addTask(ctx, in)
	}
	return in.UserTaskOid, s.updateTask(ctx, in)
}

func (s *taskService) addTask(ctx context.Context, in UserTaskInput) (uuid.UUID, error) {
	task := &model.UserTask{
		UserTaskOid:  uuid.New(),
		UserOid:      in.UserOid,
		Name:         in.Name,
		OrderNumber:  in.OrderNumber,
		StartDate:    s.now(),
		TaskStatusID: model.TaskStatusNew,
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		exists, err := tx.Users().Exists(ctx, in.UserOid)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
		return tx.UserTasks().Create(ctx, task)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return task.UserTaskOid, nil
}

func (s *taskService) updateTask(ctx context.Context, in UserTaskInput) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.UserTasks().FindByID(ctx, in.UserTaskOid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserTaskNotFound
			}
			return err
		}
		return tx.UserTasks().UpdateNameAndOrder(ctx, in.UserTaskOid, in.Name, in.OrderNumber)
	})
}

// DeleteTask 物理删除任务，任务不存在时为空操作。
func (s *taskService) DeleteTask(ctx context.Context, taskOid uuid.UUID) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.UserTasks().FindByID(ctx, taskOid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return tx.UserTasks().Delete(ctx, taskOid)
	})
}
