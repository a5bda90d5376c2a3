// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Log        LogConfig        `mapstructure:"log"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Library    LibraryConfig    `mapstructure:"library"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	// MaxMultipartMemoryMB 是解析 multipart 表单时驻留内存的上限，超出部分落盘。
	MaxMultipartMemoryMB int64 `mapstructure:"max_multipart_memory_mb"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	// Driver 取值 mysql / postgres / sqlite。
	Driver string      `mapstructure:"driver"`
	DSN    string      `mapstructure:"dsn"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// EncryptionConfig 存储用户密码加密的配置。
type EncryptionConfig struct {
	Secret     string `mapstructure:"secret"`
	Iterations int    `mapstructure:"iterations"`
}

// UploadConfig 存储直接上传相关的配置。
type UploadConfig struct {
	// FileExtensions 是允许直接上传的扩展名白名单，带前导点，如 ".pdf"。
	FileExtensions []string `mapstructure:"file_extensions"`
	// Folder 是直接上传写入的逻辑目录名。
	Folder       string `mapstructure:"folder"`
	TempPrefix   string `mapstructure:"temp_prefix"`
	SessionsRoot string `mapstructure:"sessions_root"`
	// MaxChunks 是单个上传会话允许的分片数上限，分片序号必须小于它。
	MaxChunks int `mapstructure:"max_chunks"`
}

// DefaultMaxChunks 是未配置 max_chunks 时的分片数上限。
const DefaultMaxChunks = 10000

// ChunkLimit 返回生效的分片数上限。
func (u UploadConfig) ChunkLimit() int {
	if u.MaxChunks <= 0 {
		return DefaultMaxChunks
	}
	return u.MaxChunks
}

// LibraryConfig 存储逻辑目录到物理路径的映射，启动时同步进 library_folders 表。
type LibraryConfig struct {
	Folders []FolderConfig `mapstructure:"folders"`
}

// FolderConfig 描述一个逻辑目录。
type FolderConfig struct {
	Name string `mapstructure:"name"`
	Unc  string `mapstructure:"unc"`
	Http string `mapstructure:"http"`
}

// NormalizedExtensions 返回小写且带前导点的扩展名列表。
func (u UploadConfig) NormalizedExtensions() []string {
	exts := make([]string, 0, len(u.FileExtensions))
	for _, ext := range u.FileExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_multipart_memory_mb", 32)
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("kafka.topic", "upload-jobs")
	v.SetDefault("kafka.group_id", "taskhub-go-consumer")
	v.SetDefault("encryption.iterations", 100000)
	v.SetDefault("upload.folder", "Test")
	v.SetDefault("upload.temp_prefix", "temp_")
	v.SetDefault("upload.sessions_root", "sessions")
	v.SetDefault("upload.max_chunks", DefaultMaxChunks)
	v.SetDefault("upload.file_extensions", []string{".pdf", ".doc", ".docx", ".txt"})
}

// Load 读取指定路径的 YAML 文件，叠加默认值与 TASKHUB_ 前缀的环境变量。
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TASKHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return cfg, nil
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}
