package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"taskhub-go/internal/model"
)

// UserTaskRepository 接口定义了用户任务的持久化操作。
type UserTaskRepository interface {
	Create(ctx context.Context, task *model.UserTask) error
	FindByID(ctx context.Context, taskOid uuid.UUID) (*model.UserTask, error)
	UpdateNameAndOrder(ctx context.Context, taskOid uuid.UUID, name string, orderNumber int) error
	MarkComplete(ctx context.Context, taskOid uuid.UUID, completeDate time.Time) error
	Delete(ctx context.Context, taskOid uuid.UUID) error
	FindDetailsByUserID(ctx context.Context, userOid uuid.UUID) ([]model.UserTaskDetails, error)
	FindDetailsByID(ctx context.Context, taskOid uuid.UUID) (*model.UserTaskDetails, error)
}

// TaskStatusRepository 接口定义了任务状态查找表的读取操作。
type TaskStatusRepository interface {
	FindAll(ctx context.Context) ([]model.TaskStatus, error)
}

type userTaskRepository struct {
	db *gorm.DB
}

// NewUserTaskRepository 创建一个新的 UserTaskRepository 实例。
func NewUserTaskRepository(db *gorm.DB) UserTaskRepository {
	return &userTaskRepository{db: db}
}

// userTaskRow 是联表查询的扫描目标，CompleteDate 在投影时格式化。
type userTaskRow struct {
	UserOid      uuid.UUID
	UserTaskOid  uuid.UUID
	Name         string
	CompleteDate *time.Time
	TaskStatus   string
	TaskStatusID int
	StartDate    time.Time
	OrderNumber  int
}

func (row userTaskRow) details() model.UserTaskDetails {
	return model.UserTaskDetails{
		UserOid:      row.UserOid,
		UserTaskOid:  row.UserTaskOid,
		Name:         row.Name,
		CompleteDate: model.FormatDateTime(row.CompleteDate),
		TaskStatus:   row.TaskStatus,
		TaskStatusID: row.TaskStatusID,
		StartDate:    model.LocalTime(row.StartDate),
		OrderNumber:  row.OrderNumber,
	}
}

func (r *userTaskRepository) detailsQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("user_tasks AS ut").
		Select(`u.user_oid AS user_oid, ut.user_task_oid AS user_task_oid, ut.name AS name,
			ut.complete_date AS complete_date, ts.name AS task_status, ut.task_status_id AS task_status_id,
			ut.start_date AS start_date, ut.order_number AS order_number`).
		Joins("JOIN users AS u ON u.user_oid = ut.user_oid").
		Joins("JOIN task_statuses AS ts ON ts.task_status_id = ut.task_status_id")
}

// Create 在数据库中创建一条任务记录。
func (r *userTaskRepository) Create(ctx context.Context, task *model.UserTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID 根据任务 ID 查找任务。
func (r *userTaskRepository) FindByID(ctx context.Context, taskOid uuid.UUID) (*model.UserTask, error) {
	var task model.UserTask
	err := r.db.WithContext(ctx).Where("user_task_oid = ?", taskOid).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateNameAndOrder 只更新名称与排序号，状态和日期保持不变。
func (r *userTaskRepository) UpdateNameAndOrder(ctx context.Context, taskOid uuid.UUID, name string, orderNumber int) error {
	return r.db.WithContext(ctx).Model(&model.UserTask{}).
		Where("user_task_oid = ?", taskOid).
		Updates(map[string]interface{}{"name": name, "order_number": orderNumber}).Error
}

// MarkComplete 写入完成时间并把状态置为 Complete。
func (r *userTaskRepository) MarkComplete(ctx context.Context, taskOid uuid.UUID, completeDate time.Time) error {
	return r.db.WithContext(ctx).Model(&model.UserTask{}).
		Where("user_task_oid = ?", taskOid).
		Updates(map[string]interface{}{"complete_date": completeDate, "task_status_id": model.TaskStatusComplete}).Error
}

// Delete 物理删除一条任务。
func (r *userTaskRepository) Delete(ctx context.Context, taskOid uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_task_oid = ?", taskOid).Delete(&model.UserTask{}).Error
}

// FindDetailsByUserID 返回用户的全部任务，按 OrderNumber 升序。
func (r *userTaskRepository) FindDetailsByUserID(ctx context.Context, userOid uuid.UUID) ([]model.UserTaskDetails, error) {
	var rows []userTaskRow
	err := r.detailsQuery(ctx).
		Where("ut.user_oid = ?", userOid).
		Order("ut.order_number ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	details := make([]model.UserTaskDetails, 0, len(rows))
	for _, row := range rows {
		details = append(details, row.details())
	}
	return details, nil
}

// FindDetailsByID 返回单个任务的投影，不存在时返回 gorm.ErrRecordNotFound。
func (r *userTaskRepository) FindDetailsByID(ctx context.Context, taskOid uuid.UUID) (*model.UserTaskDetails, error) {
	var rows []userTaskRow
	err := r.detailsQuery(ctx).
		Where("ut.user_task_oid = ?", taskOid).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	details := rows[0].details()
	return &details, nil
}

type taskStatusRepository struct {
	db *gorm.DB
}

// FindAll 返回全部任务状态。
func (r *taskStatusRepository) FindAll(ctx context.Context) ([]model.TaskStatus, error) {
	var statuses []model.TaskStatus
	err := r.db.WithContext(ctx).Order("task_status_id asc").Find(&statuses).Error
	return statuses, err
}
