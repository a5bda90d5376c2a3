package model

import (
	"time"

	"github.com/google/uuid"
)

// 任务状态，对应 task_statuses 表中的静态数据。
const (
	TaskStatusNew      = 1
	TaskStatusComplete = 2
)

// DefaultTaskStatuses 是启动时写入 task_statuses 的种子数据。
var DefaultTaskStatuses = []TaskStatus{
	{TaskStatusID: TaskStatusNew, Name: "New"},
	{TaskStatusID: TaskStatusComplete, Name: "Complete"},
}

// TaskStatus 对应 task_statuses 查找表。
type TaskStatus struct {
	TaskStatusID int    `gorm:"primaryKey;autoIncrement:false" json:"taskStatusId"`
	Name         string `gorm:"type:varchar(50);not null" json:"name"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (TaskStatus) TableName() string {
	return "task_statuses"
}

// UserTask 对应 user_tasks 表。
type UserTask struct {
	UserTaskOid  uuid.UUID  `gorm:"type:varchar(36);primaryKey" json:"userTaskOid"`
	UserOid      uuid.UUID  `gorm:"type:varchar(36);not null;index" json:"userOid"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	OrderNumber  int        `gorm:"not null" json:"orderNumber"`
	StartDate    time.Time  `gorm:"not null" json:"startDate"`
	CompleteDate *time.Time `gorm:"default:null" json:"completeDate"`
	TaskStatusID int        `gorm:"not null" json:"taskStatusId"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UserTask) TableName() string {
	return "user_tasks"
}

// UserTaskDetails 是任务列表与详情接口返回的投影。
type UserTaskDetails struct {
	UserOid      uuid.UUID `json:"userOid"`
	UserTaskOid  uuid.UUID `json:"userTaskOid"`
	Name         string    `json:"name"`
	CompleteDate string    `json:"completeDate"`
	TaskStatus   string    `json:"taskStatus"`
	TaskStatusID int       `json:"taskStatusId"`
	StartDate    LocalTime `json:"startDate"`
	OrderNumber  int       `json:"orderNumber"`
}
