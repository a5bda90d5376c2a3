package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"taskhub-go/internal/service"
	"taskhub-go/pkg/log"
)

// 分片上传使用的请求头
const (
	HeaderChunkSessionID = "ChunkUploadSessionId"
	HeaderChunkNumber    = "ChunkNumber"
	HeaderIsLastChunk    = "IsLastChunk"
)

// FileHandler 负责处理分片上传会话和直接上传的 API 请求。
type FileHandler struct {
	sessionService service.UploadSessionService
	fileService    service.FileService
	maxChunks      int
}

// NewFileHandler 创建一个新的 FileHandler 实例，maxChunks 是分片序号的上限（不含）。
func NewFileHandler(sessionService service.UploadSessionService, fileService service.FileService, maxChunks int) *FileHandler {
	return &FileHandler{sessionService: sessionService, fileService: fileService, maxChunks: maxChunks}
}

// CreateSessionRequest 定义了创建上传会话的请求体结构。
type CreateSessionRequest struct {
	FileName string `json:"fileName" binding:"required,max=255"`
}

// chunkHeaders 是已校验的分片请求头。
type chunkHeaders struct {
	sessionID   uuid.UUID
	chunkNumber int
	isLast      bool
}

// parseBoolHeader 只接受 true/false（忽略大小写和首尾空白）。
func parseBoolHeader(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func parseChunkHeaders(c *gin.Context, maxChunks int) (chunkHeaders, string) {
	var h chunkHeaders

	rawID := strings.TrimSpace(c.GetHeader(HeaderChunkSessionID))
	if rawID == "" {
		return h, "缺少请求头 " + HeaderChunkSessionID
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return h, "无效的请求头 " + HeaderChunkSessionID
	}
	h.sessionID = id

	rawNumber := strings.TrimSpace(c.GetHeader(HeaderChunkNumber))
	if rawNumber == "" {
		return h, "缺少请求头 " + HeaderChunkNumber
	}
	n, err := strconv.Atoi(rawNumber)
	if err != nil || n < 0 || n >= maxChunks {
		return h, "无效的请求头 " + HeaderChunkNumber
	}
	h.chunkNumber = n

	rawLast := c.GetHeader(HeaderIsLastChunk)
	if strings.TrimSpace(rawLast) == "" {
		return h, "缺少请求头 " + HeaderIsLastChunk
	}
	isLast, ok := parseBoolHeader(rawLast)
	if !ok {
		return h, "无效的请求头 " + HeaderIsLastChunk
	}
	h.isLast = isLast
	return h, ""
}

// CreateUploadSession 处理创建上传会话的请求。
func (h *FileHandler) CreateUploadSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	session, err := h.sessionService.CreateUploadSession(c.Request.Context(), req.FileName)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFileName) {
			respondError(c, http.StatusBadRequest, "无效的文件名")
			return
		}
		log.Error("CreateUploadSession: failed to create session", err)
		respondError(c, http.StatusInternalServerError, "创建上传会话失败")
		return
	}
	respondOK(c, "上传会话创建成功", session)
}

// GetUploadSession 处理查询上传会话的请求。
func (h *FileHandler) GetUploadSession(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	session, err := h.sessionService.GetUploadSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUploadSessionNotFound) {
			respondError(c, http.StatusNotFound, "上传会话不存在")
			return
		}
		log.Error("GetUploadSession: failed to get session", err)
		respondError(c, http.StatusInternalServerError, "获取上传会话失败")
		return
	}
	respondOK(c, "获取上传会话成功", session)
}

// DeleteUploadSession 处理删除上传会话的请求，不检查会话是否存在。
func (h *FileHandler) DeleteUploadSession(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.sessionService.DeleteUploadSession(c.Request.Context(), id); err != nil {
		log.Error("DeleteUploadSession: failed to delete session", err)
		respondError(c, http.StatusInternalServerError, "删除上传会话失败")
		return
	}
	respondOK(c, "上传会话已删除", nil)
}

// SaveChunk 处理分片上传的请求。请求头和文件校验全部通过后才会调用会话服务。
func (h *FileHandler) SaveChunk(c *gin.Context) {
	headers, msg := parseChunkHeaders(c, h.maxChunks)
	if msg != "" {
		respondError(c, http.StatusBadRequest, msg)
		return
	}

	fileHeader, ok := singleFilePart(c)
	if !ok {
		return
	}

	session, err := h.sessionService.SaveChunk(c.Request.Context(), headers.sessionID, headers.chunkNumber, formFilePart{header: fileHeader}, headers.isLast)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUploadSessionNotFound):
			respondError(c, http.StatusNotFound, "上传会话不存在")
		case errors.Is(err, service.ErrUploadSessionCompleted):
			respondError(c, http.StatusConflict, "上传会话已完成")
		case errors.Is(err, service.ErrChunksMissing):
			respondError(c, http.StatusBadRequest, "分片不完整，无法合并")
		case errors.Is(err, service.ErrInvalidChunkNumber):
			respondError(c, http.StatusBadRequest, "无效的分片序号")
		default:
			log.Error("SaveChunk: failed to save chunk", err)
			respondError(c, http.StatusInternalServerError, "分片上传失败")
		}
		return
	}
	respondOK(c, "分片上传成功", session)
}

// Upload 处理单文件直接上传的请求。
func (h *FileHandler) Upload(c *gin.Context) {
	fileHeader, ok := singleFilePart(c)
	if !ok {
		return
	}

	result, err := h.fileService.SaveUpload(c.Request.Context(), formFilePart{header: fileHeader})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidExtension):
			respondError(c, http.StatusBadRequest, "不支持的文件类型")
		case errors.Is(err, service.ErrInvalidFileName):
			respondError(c, http.StatusBadRequest, "无效的文件名")
		default:
			log.Error("Upload: failed to save file", err)
			respondError(c, http.StatusInternalServerError, "文件上传失败")
		}
		return
	}
	respondOK(c, "文件上传成功", result)
}

// SupportedExtensions 返回允许直接上传的扩展名列表。
func (h *FileHandler) SupportedExtensions(c *gin.Context) {
	respondOK(c, "获取支持的文件类型成功", h.fileService.SupportedExtensions())
}
