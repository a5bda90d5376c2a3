package model

import (
	"time"

	"github.com/google/uuid"
)

// AdminUserStatusID 是新建管理员账号的用户状态。
const AdminUserStatusID = 100

// User 对应 users 表。Password 只保存密文。
type User struct {
	UserOid      uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"userOid"`
	UserName     string    `gorm:"type:varchar(100);not null" json:"userName"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Password     string    `gorm:"type:varchar(255);not null" json:"-"`
	UserStatusID int       `gorm:"not null" json:"userStatusId"`
	StartDate    time.Time `gorm:"not null" json:"startDate"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}

// Admin 对应 admins 表，与 User 一对一。
type Admin struct {
	AdminOid  uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"adminOid"`
	UserOid   uuid.UUID `gorm:"type:varchar(36);not null;index" json:"userOid"`
	StartDate time.Time `gorm:"not null" json:"startDate"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Admin) TableName() string {
	return "admins"
}
