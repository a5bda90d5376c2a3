// Package pipeline 定义了上传文件的后处理流程。
package pipeline

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"taskhub-go/internal/model"
	"taskhub-go/internal/repository"
	"taskhub-go/pkg/log"
	"taskhub-go/pkg/tasks"
)

// Processor 校验已落盘的文件并回写上传任务的状态。
type Processor struct {
	store repository.Store
	now   func() time.Time
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(store repository.Store) *Processor {
	return &Processor{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Process 是上传任务处理的主函数。
// 成功时记录文件的 MD5 和大小并标记为已处理；失败时标记为失败并返回错误以便重投。
func (p *Processor) Process(ctx context.Context, task tasks.UploadJobTask) error {
	log.Infof("[Processor] 开始处理上传任务, job: %s, path: %s", task.JobOid, task.FilePath)

	jobOid, err := uuid.Parse(task.JobOid)
	if err != nil {
		return fmt.Errorf("invalid job oid %q: %w", task.JobOid, err)
	}

	job, err := p.store.Library().FindUploadJob(ctx, jobOid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Processor] 上传任务不存在，跳过, job: %s", task.JobOid)
			return nil
		}
		return fmt.Errorf("find upload job: %w", err)
	}
	if job.Status == model.UploadJobProcessed {
		log.Infof("[Processor] 上传任务已处理，跳过, job: %s", task.JobOid)
		return nil
	}

	// 1. 计算文件摘要
	sum, size, err := fileDigest(job.FilePath)
	processedAt := p.now()
	job.ProcessedAt = &processedAt
	if err != nil {
		log.Errorf("[Processor] 读取文件失败, path: %s, error: %v", job.FilePath, err)
		job.Status = model.UploadJobFailed
		if updErr := p.store.Library().UpdateUploadJob(ctx, job); updErr != nil {
			log.Errorf("[Processor] 更新任务状态失败, job: %s, error: %v", task.JobOid, updErr)
		}
		return fmt.Errorf("digest %s: %w", job.FilePath, err)
	}

	// 2. 回写任务
	job.FileMD5 = sum
	job.Size = size
	job.Status = model.UploadJobProcessed
	if err := p.store.Library().UpdateUploadJob(ctx, job); err != nil {
		return fmt.Errorf("update upload job: %w", err)
	}

	log.Infof("[Processor] 上传任务处理成功, job: %s, md5: %s, size: %d", task.JobOid, sum, size)
	return nil
}

func fileDigest(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := md5.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}
