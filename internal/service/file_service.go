package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"taskhub-go/internal/config"
	"taskhub-go/pkg/log"
)

// UploadResult 是直接上传成功后返回给调用方的结果。
type UploadResult struct {
	FilePaths []string  `json:"filePaths"`
	FileUid   uuid.UUID `json:"fileUid"`
}

// FileService 负责把单个文件直接写入配置的逻辑目录。
type FileService interface {
	SaveUpload(ctx context.Context, part FilePart) (*UploadResult, error)
	SupportedExtensions() []string
}

type fileService struct {
	library    LibraryService
	extensions []string
	folder     string
	tempPrefix string
}

// NewFileService 创建一个新的 FileService 实例。
func NewFileService(library LibraryService, cfg config.UploadConfig) FileService {
	folder := cfg.Folder
	if folder == "" {
		folder = "Test"
	}
	tempPrefix := cfg.TempPrefix
	if tempPrefix == "" {
		tempPrefix = "temp_"
	}
	return &fileService{
		library:    library,
		extensions: cfg.NormalizedExtensions(),
		folder:     folder,
		tempPrefix: tempPrefix,
	}
}

func (s *fileService) SupportedExtensions() []string {
	out := make([]string, len(s.extensions))
	copy(out, s.extensions)
	return out
}

func (s *fileService) isAllowed(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return false
	}
	for _, allowed := range s.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// SaveUpload 校验扩展名后先写临时文件再写最终文件，临时文件在任何情况下都会被删除。
func (s *fileService) SaveUpload(ctx context.Context, part FilePart) (*UploadResult, error) {
	fileName, err := sanitizeFileName(part.Filename())
	if err != nil {
		return nil, err
	}
	if !s.isAllowed(fileName) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExtension, filepath.Ext(fileName))
	}

	folder, err := s.library.ResolveFolder(ctx, s.folder)
	if err != nil {
		return nil, err
	}

	tempPath := filepath.Join(folder.Unc, s.tempPrefix+fileName)
	finalPath := filepath.Join(folder.Unc, fileName)
	defer func() {
		if rmErr := os.Remove(tempPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Warnf("[SaveUpload] 删除临时文件失败, path: %s, error: %v", tempPath, rmErr)
		}
	}()

	if err := writePart(part, tempPath); err != nil {
		log.Errorf("[SaveUpload] 写入临时文件失败, path: %s, error: %v", tempPath, err)
		return nil, err
	}
	if err := writePart(part, finalPath); err != nil {
		log.Errorf("[SaveUpload] 写入目标文件失败, path: %s, error: %v", finalPath, err)
		return nil, err
	}

	httpPath, err := url.JoinPath(folder.Http, fileName)
	if err != nil {
		return nil, fmt.Errorf("build http path: %w", err)
	}

	jobOid, err := s.library.AddUploadJob(ctx, finalPath, folder.FolderName)
	if err != nil {
		log.Errorf("[SaveUpload] 登记上传任务失败, path: %s, error: %v", finalPath, err)
		return nil, err
	}

	log.Infof("[SaveUpload] 文件上传成功, path: %s, job: %s", finalPath, jobOid)
	return &UploadResult{
		FilePaths: []string{finalPath, httpPath},
		FileUid:   jobOid,
	}, nil
}

func writePart(part FilePart, dst string) error {
	src, err := part.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return out.Close()
}
