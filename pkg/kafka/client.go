// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"taskhub-go/internal/config"
	"taskhub-go/pkg/log"
	"taskhub-go/pkg/tasks"
)

// maxAttempts 是单个任务允许的最大处理次数。
const maxAttempts = 3

// TaskProcessor defines the interface for any service that can process a task.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.UploadJobTask) error
}

// Producer 把上传任务写入 Kafka。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	p := &Producer{writer: &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}}
	log.Info("Kafka 生产者初始化成功")
	return p
}

// PublishUploadJob 发送一个上传任务到 Kafka，以任务 ID 作为消息键。
func (p *Producer) PublishUploadJob(ctx context.Context, task tasks.UploadJobTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.JobOid),
		Value: taskBytes,
	})
}

// Close 关闭底层 writer。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// messageReader 是消费循环依赖的 kafka.Reader 能力。
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// AttemptCounter 记录任务的失败次数，使重试次数在进程重启后仍然有效。
type AttemptCounter interface {
	Incr(ctx context.Context, jobOid string) (int64, error)
	Reset(ctx context.Context, jobOid string) error
}

// RedisAttemptCounter 用 Redis 计数，键为 kafka:attempts:<job>，24 小时过期。
type RedisAttemptCounter struct {
	rdb *redis.Client
}

// NewRedisAttemptCounter 创建一个新的 RedisAttemptCounter 实例。
func NewRedisAttemptCounter(rdb *redis.Client) *RedisAttemptCounter {
	return &RedisAttemptCounter{rdb: rdb}
}

func attemptsKey(jobOid string) string {
	return fmt.Sprintf("kafka:attempts:%s", jobOid)
}

func (c *RedisAttemptCounter) Incr(ctx context.Context, jobOid string) (int64, error) {
	key := attemptsKey(jobOid)
	attempts, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = c.rdb.Expire(ctx, key, 24*time.Hour).Err()
	return attempts, nil
}

func (c *RedisAttemptCounter) Reset(ctx context.Context, jobOid string) error {
	return c.rdb.Del(ctx, attemptsKey(jobOid)).Err()
}

// consumer 逐条处理消息：处理失败时在当前循环内重试，直到成功或达到 maxAttempts 才提交 offset。
type consumer struct {
	reader    messageReader
	processor TaskProcessor
	attempts  AttemptCounter
	backoff   time.Duration
}

// StartConsumer 启动一个 Kafka 消费者来处理上传任务，ctx 取消后退出。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor, rdb *redis.Client) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)
	c := &consumer{
		reader:    r,
		processor: processor,
		attempts:  NewRedisAttemptCounter(rdb),
		backoff:   2 * time.Second,
	}
	c.run(ctx)
}

func (c *consumer) run(ctx context.Context) {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Info("Kafka 消费者已停止")
				return
			}
			log.Error("从 Kafka 读取消息失败", err)
			return
		}
		if !c.handle(ctx, m) {
			log.Info("Kafka 消费者已停止")
			return
		}
	}
}

// handle 处理一条消息，返回 false 表示 ctx 已取消且消息未提交。
func (c *consumer) handle(ctx context.Context, m kafka.Message) bool {
	var task tasks.UploadJobTask
	if err := json.Unmarshal(m.Value, &task); err != nil {
		log.Errorw("无法解析 Kafka 消息", "error", err, "offset", m.Offset, "value", string(m.Value))
		// 消息格式错误，直接提交，避免阻塞队列
		c.commit(ctx, m)
		return true
	}

	log.Infof("开始处理上传任务: job=%s, path=%s", task.JobOid, task.FilePath)
	var local int64
	for {
		err := c.processor.Process(ctx, task)
		if err == nil {
			log.Infof("上传任务处理成功: job=%s", task.JobOid)
			_ = c.attempts.Reset(ctx, task.JobOid)
			c.commit(ctx, m)
			return true
		}

		local++
		attempts, incErr := c.attempts.Incr(ctx, task.JobOid)
		if incErr != nil || attempts < local {
			// Redis 不可用时退回进程内计数
			attempts = local
		}
		log.Errorw("处理上传任务失败", "job", task.JobOid, "attempt", attempts, "error", err)
		if attempts >= maxAttempts {
			log.Errorf("上传任务多次失败(>=%d)，提交 offset 终止重试: job=%s", maxAttempts, task.JobOid)
			_ = c.attempts.Reset(ctx, task.JobOid)
			c.commit(ctx, m)
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.backoff):
		}
	}
}

func (c *consumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}
