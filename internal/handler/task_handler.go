package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"taskhub-go/internal/service"
	"taskhub-go/pkg/log"
)

// TaskHandler 负责处理管理员创建和用户任务相关的 API 请求。
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler 创建一个新的 TaskHandler 实例。
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// AddAdminRequest 定义了创建管理员的请求体结构。
type AddAdminRequest struct {
	UserName   string `json:"userName" binding:"required"`
	LoginEmail string `json:"loginEmail" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
}

// UserTaskRequest 定义了新增或更新任务的请求体结构，userTaskOid 为空表示新增。
// 新增时必须提供 userOid，更新时忽略它。
type UserTaskRequest struct {
	UserTaskOid string `json:"userTaskOid"`
	UserOid     string `json:"userOid" binding:"required_without=UserTaskOid"`
	Name        string `json:"name" binding:"required"`
	OrderNumber int    `json:"orderNumber"`
}

// AddAdmin 处理创建管理员的请求。
func (h *TaskHandler) AddAdmin(c *gin.Context) {
	var req AddAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	user, err := h.taskService.AddAdmin(c.Request.Context(), service.AddAdminInput{
		UserName: req.UserName,
		Email:    req.LoginEmail,
		Password: req.Password,
	})
	if err != nil {
		log.Error("AddAdmin: failed to create admin", err)
		respondError(c, http.StatusInternalServerError, "创建管理员失败")
		return
	}
	respondOK(c, "管理员创建成功", gin.H{"userOid": user.UserOid})
}

// GetUserTasks 处理获取用户任务列表的请求。
func (h *TaskHandler) GetUserTasks(c *gin.Context) {
	userOid, ok := parseUUIDParam(c, "userOid")
	if !ok {
		return
	}
	tasks, err := h.taskService.GetUserTasks(c.Request.Context(), userOid)
	if err != nil {
		log.Error("GetUserTasks: failed to list tasks", err)
		respondError(c, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	respondOK(c, "获取任务列表成功", tasks)
}

// GetUserTaskDetails 处理获取单个任务的请求，任务不存在时 data 为 null。
func (h *TaskHandler) GetUserTaskDetails(c *gin.Context) {
	taskOid, ok := parseUUIDParam(c, "userTaskOid")
	if !ok {
		return
	}
	details, err := h.taskService.GetUserTaskDetails(c.Request.Context(), taskOid)
	if err != nil {
		log.Error("GetUserTaskDetails: failed to get task", err)
		respondError(c, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	if details == nil {
		respondOK(c, "任务不存在", nil)
		return
	}
	respondOK(c, "获取任务成功", details)
}

// CompleteUserTask 处理完成任务的请求。
func (h *TaskHandler) CompleteUserTask(c *gin.Context) {
	taskOid, ok := parseUUIDParam(c, "userTaskOid")
	if !ok {
		return
	}
	if err := h.taskService.CompleteTask(c.Request.Context(), taskOid); err != nil {
		log.Error("CompleteUserTask: failed to complete task", err)
		respondError(c, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	respondOK(c, "任务已完成", nil)
}

// AddUpdateUserTask 处理新增或更新任务的请求。
func (h *TaskHandler) AddUpdateUserTask(c *gin.Context) {
	var req UserTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	in := service.UserTaskInput{
		Name:        req.Name,
		OrderNumber: req.OrderNumber,
	}
	var err error
	if req.UserTaskOid != "" {
		if in.UserTaskOid, err = uuid.Parse(req.UserTaskOid); err != nil {
			respondError(c, http.StatusBadRequest, "无效的ID: userTaskOid")
			return
		}
	} else if in.UserOid, err = uuid.Parse(req.UserOid); err != nil {
		respondError(c, http.StatusBadRequest, "无效的ID: userOid")
		return
	}

	id, err := h.taskService.AddOrUpdateTask(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTaskName):
			respondError(c, http.StatusBadRequest, "任务名称不能为空")
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusBadRequest, "用户不存在")
		case errors.Is(err, service.ErrUserTaskNotFound):
			respondError(c, http.StatusBadRequest, "任务不存在")
		default:
			log.Error("AddUpdateUserTask: failed to save task", err)
			respondError(c, http.StatusInternalServerError, "保存任务失败")
		}
		return
	}
	respondOK(c, "任务保存成功", gin.H{"userTaskOid": id})
}

// DeleteUserTask 处理删除任务的请求。
func (h *TaskHandler) DeleteUserTask(c *gin.Context) {
	taskOid, ok := parseUUIDParam(c, "userTaskOid")
	if !ok {
		return
	}
	if err := h.taskService.DeleteTask(c.Request.Context(), taskOid); err != nil {
		log.Error("DeleteUserTask: failed to delete task", err)
		respondError(c, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	respondOK(c, "任务已删除", nil)
}
