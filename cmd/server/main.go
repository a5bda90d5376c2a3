// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"taskhub-go/internal/config"
	"taskhub-go/internal/handler"
	"taskhub-go/internal/middleware"
	"taskhub-go/internal/pipeline"
	"taskhub-go/internal/repository"
	"taskhub-go/internal/service"
	"taskhub-go/pkg/database"
	"taskhub-go/pkg/encrypt"
	"taskhub-go/pkg/kafka"
	"taskhub-go/pkg/log"
	"taskhub-go/pkg/storage"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 和 MinIO
	database.InitDB(cfg.Database)
	defer database.Close()
	database.InitRedis(cfg.Database.Redis)
	objectStore := storage.InitMinIO(cfg.MinIO)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := repository.AutoMigrate(database.DB); err != nil {
		log.Fatal("数据库迁移失败", err)
	}
	if err := repository.SeedTaskStatuses(ctx, database.DB); err != nil {
		log.Fatal("初始化任务状态失败", err)
	}

	// 4. 初始化 Repository 和 Kafka 生产者
	store := repository.NewStore(database.DB)
	chunkMarks := repository.NewChunkMarkRepository(database.RDB)
	producer := kafka.NewProducer(cfg.Kafka)
	defer func() {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}()

	// 5. 初始化 Service (依赖注入)
	encryptor, err := encrypt.NewAESEncryptor(cfg.Encryption.Secret, cfg.Encryption.Iterations)
	if err != nil {
		log.Fatal("初始化密码加密器失败", err)
	}
	taskService := service.NewTaskService(store, encryptor)
	libraryService := service.NewLibraryService(store, producer)
	if err := libraryService.SyncFolders(ctx, cfg.Library.Folders); err != nil {
		log.Fatal("同步目录配置失败", err)
	}
	if folders, err := libraryService.GetFolders(ctx); err == nil {
		for _, f := range folders {
			log.Infof("目录 '%s' -> %s (%s)", f.FolderName, f.Unc, f.Http)
		}
	}
	sessionService := service.NewUploadSessionService(store, chunkMarks, objectStore, cfg.Upload)
	fileService := service.NewFileService(libraryService, cfg.Upload)

	// 6. 启动后台 Kafka 消费者
	processor := pipeline.NewProcessor(store)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		kafka.StartConsumer(ctx, cfg.Kafka, processor, database.RDB)
	}()

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.MaxMultipartMemory = cfg.Server.MaxMultipartMemoryMB << 20
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	handler.RegisterRoutes(r,
		handler.NewTaskHandler(taskService),
		handler.NewFileHandler(sessionService, fileService, cfg.Upload.ChunkLimit()),
	)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	// 停止 Kafka 消费者
	cancel()
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		log.Warnf("等待 Kafka 消费者退出超时")
	}
	log.Info("服务已优雅关闭")
}
