// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"taskhub-go/internal/config"
	"taskhub-go/pkg/log"
)

// ObjectStore 是上传会话使用的对象存储能力。
type ObjectStore interface {
	PutObject(ctx context.Context, objectName string, reader io.Reader, size int64) error
	// ConcatObjects 按 srcs 的顺序拼接成 dst。
	ConcatObjects(ctx context.Context, dst string, srcs []string) error
	RemoveObjects(ctx context.Context, objectNames []string) error
}

// MinioStore 是 ObjectStore 的 MinIO 实现，所有对象位于同一个存储桶。
type MinioStore struct {
	client     *minio.Client
	bucketName string
}

// InitMinIO 初始化 MinIO 客户端并确保指定的存储桶存在。
func InitMinIO(cfg config.MinIOConfig) *MinioStore {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}

	log.Info("MinIO 客户端初始化成功")

	// 检查存储桶是否存在，如果不存在则创建
	ctx := context.Background()
	bucketName := cfg.BucketName
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		log.Fatal("检查 MinIO 存储桶失败", err)
	}

	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", bucketName)
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			log.Fatal("创建 MinIO 存储桶失败", err)
		}
		log.Infof("存储桶 '%s' 创建成功", bucketName)
	} else {
		log.Infof("存储桶 '%s' 已存在", bucketName)
	}

	return &MinioStore{client: client, bucketName: bucketName}
}

// PutObject 上传一个对象，size 未知时传 -1。
func (s *MinioStore) PutObject(ctx context.Context, objectName string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{})
	return err
}

// ConcatObjects 拼接分片对象。单个分片直接 CopyObject；
// 多个分片按顺序流式读出再写入，不受 ComposeObject 每段至少 5MiB 的限制。
func (s *MinioStore) ConcatObjects(ctx context.Context, dst string, srcs []string) error {
	if len(srcs) == 0 {
		return fmt.Errorf("no source objects for %s", dst)
	}

	if len(srcs) == 1 {
		_, err := s.client.CopyObject(ctx,
			minio.CopyDestOptions{Bucket: s.bucketName, Object: dst},
			minio.CopySrcOptions{Bucket: s.bucketName, Object: srcs[0]},
		)
		if err != nil {
			return fmt.Errorf("failed to copy single chunk object: %w", err)
		}
		return nil
	}

	readers := make([]io.Reader, 0, len(srcs))
	for _, src := range srcs {
		obj, err := s.client.GetObject(ctx, s.bucketName, src, minio.GetObjectOptions{})
		if err != nil {
			return fmt.Errorf("failed to open chunk object %s: %w", src, err)
		}
		defer obj.Close()
		readers = append(readers, obj)
	}

	if err := s.PutObject(ctx, dst, io.MultiReader(readers...), -1); err != nil {
		return fmt.Errorf("failed to write merged object %s: %w", dst, err)
	}
	return nil
}

// RemoveObjects 批量删除对象，逐个记录失败但不中断。
func (s *MinioStore) RemoveObjects(ctx context.Context, objectNames []string) error {
	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for _, name := range objectNames {
			objectsCh <- minio.ObjectInfo{Key: name}
		}
	}()

	var firstErr error
	for rErr := range s.client.RemoveObjects(ctx, s.bucketName, objectsCh, minio.RemoveObjectsOptions{}) {
		log.Warnf("删除对象失败: %s, error: %v", rErr.ObjectName, rErr.Err)
		if firstErr == nil {
			firstErr = rErr.Err
		}
	}
	return firstErr
}
