package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes 注册所有 API 路由。
func RegisterRoutes(r *gin.Engine, taskHandler *TaskHandler, fileHandler *FileHandler) {
	tasks := r.Group("/api/test")
	{
		tasks.POST("", taskHandler.AddAdmin)
		tasks.GET("/todoUserTasks/:userOid", taskHandler.GetUserTasks)
		tasks.GET("/userTaskDetails/:userTaskOid", taskHandler.GetUserTaskDetails)
		tasks.PUT("/completeUserTask/:userTaskOid", taskHandler.CompleteUserTask)
		tasks.POST("/addUpdateUserTask", taskHandler.AddUpdateUserTask)
		tasks.DELETE("/userTask/:userTaskOid", taskHandler.DeleteUserTask)
	}

	files := r.Group("/api/test2")
	{
		files.POST("/uploadSession", fileHandler.CreateUploadSession)
		files.GET("/uploadSession/:id", fileHandler.GetUploadSession)
		files.DELETE("/uploadSession/:id", fileHandler.DeleteUploadSession)
		files.POST("/chunk", fileHandler.SaveChunk)
		files.POST("/upload", fileHandler.Upload)
		files.GET("/supportedExtensions", fileHandler.SupportedExtensions)
	}
}
