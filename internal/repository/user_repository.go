package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"taskhub-go/internal/model"
)

// UserRepository 接口定义了用户数据的持久化操作。
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userOid uuid.UUID) (*model.User, error)
	Exists(ctx context.Context, userOid uuid.UUID) (bool, error)
}

// AdminRepository 接口定义了管理员数据的持久化操作。
type AdminRepository interface {
	Create(ctx context.Context, admin *model.Admin) error
	FindByUserID(ctx context.Context, userOid uuid.UUID) (*model.Admin, error)
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 在数据库中创建一个新的用户记录。
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID 根据用户 ID 从数据库中查找一个用户。
func (r *userRepository) FindByID(ctx context.Context, userOid uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("user_oid = ?", userOid).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists 判断用户是否存在。
func (r *userRepository) Exists(ctx context.Context, userOid uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("user_oid = ?", userOid).Count(&count).Error
	return count > 0, err
}

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository 创建一个新的 AdminRepository 实例。
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, admin *model.Admin) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *adminRepository) FindByUserID(ctx context.Context, userOid uuid.UUID) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.WithContext(ctx).Where("user_oid = ?", userOid).First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}
