package service

import "errors"

// 业务层哨兵错误，handler 通过 errors.Is 映射为 HTTP 状态码。
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserTaskNotFound = errors.New("user task not found")
	ErrInvalidTaskName  = errors.New("task name is empty")

	ErrUploadSessionNotFound  = errors.New("upload session not found")
	ErrUploadSessionCompleted = errors.New("upload session already completed")
	ErrInvalidChunkNumber     = errors.New("chunk number out of range")
	ErrChunksMissing          = errors.New("upload session is missing chunks")
	ErrInvalidFileName        = errors.New("invalid file name")

	ErrInvalidExtension   = errors.New("file has an invalid extension")
	ErrFolderNotFound     = errors.New("library folder not found")
	ErrFolderPathsMissing = errors.New("library folder paths not configured")
)
