// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"taskhub-go/pkg/log"
)

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": message,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"code":    status,
		"message": message,
		"data":    nil,
	})
}

// bindingMessage 把 validator 的校验错误整理成可读的字段提示。
func bindingMessage(err error) string {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		msgs := make([]string, 0, len(ves))
		for _, fe := range ves {
			msgs = append(msgs, fmt.Sprintf("%s 校验失败(%s)", fe.Field(), fe.Tag()))
		}
		return "无效的请求参数: " + strings.Join(msgs, "; ")
	}
	return "无效的请求负载"
}

// parseUUIDParam 解析路径参数中的 uuid，失败时直接写入 400 响应。
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的ID: "+name)
		return uuid.Nil, false
	}
	return id, true
}

// singleFilePart 要求 multipart 表单中恰好有一个文件，失败时直接写入 400 响应。
func singleFilePart(c *gin.Context) (*multipart.FileHeader, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		log.Warnw("解析 multipart 表单失败", "path", c.Request.URL.Path, "error", err)
		respondError(c, http.StatusBadRequest, "无效的 multipart 表单")
		return nil, false
	}
	var found []*multipart.FileHeader
	for _, headers := range form.File {
		found = append(found, headers...)
	}
	if len(found) != 1 {
		respondError(c, http.StatusBadRequest, "必须上传且只能上传一个文件")
		return nil, false
	}
	return found[0], true
}

// formFilePart 让 multipart.FileHeader 满足 service.FilePart。
type formFilePart struct {
	header *multipart.FileHeader
}

func (p formFilePart) Filename() string { return p.header.Filename }
func (p formFilePart) Size() int64      { return p.header.Size }
func (p formFilePart) Open() (io.ReadCloser, error) {
	return p.header.Open()
}
