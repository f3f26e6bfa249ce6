package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置（启动时加载一次，之后只读）
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Prompt   PromptConfig   `yaml:"prompt"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int    `yaml:"port"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// UpstreamConfig 上游聊天服务配置
type UpstreamConfig struct {
	BaseURL    string  `yaml:"baseUrl"`
	ChatPath   string  `yaml:"chatPath"`
	TimeoutSec float64 `yaml:"timeoutSec"`
	APIKey     string  `yaml:"apiKey"` // 可选，设置后不再透传调用方的 key
}

// GatewayConfig 网关入站配置
type GatewayConfig struct {
	APIKey       string   `yaml:"apiKey"` // 可选，未设置时跳过入站认证
	AllowOrigins []string `yaml:"allowOrigins"`
}

// PromptConfig 模式前言配置，内容是产品文案，与控制流无关
type PromptConfig struct {
	Base  string            `yaml:"base"`
	Modes map[string]string `yaml:"modes"`
}

// RedisConfig Redis 配置，Host 为空时不记录对话历史
type RedisConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	HistoryLimit int64  `yaml:"historyLimit"`
}

// DatabaseConfig memory_log 数据库配置，DSN 为空时不落库
type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	UserID         string `yaml:"userId"`
	ConversationID string `yaml:"conversationId"`
	AutoMigrate    bool   `yaml:"autoMigrate"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // 为空时只输出到控制台
}

// MaxTimeoutSec 上游超时上限
const MaxTimeoutSec = 3600

// Timeout 单次上游调用的超时时间，需先通过 Validate
func (c UpstreamConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec * float64(time.Second))
}

// Default 默认配置
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:    8080,
			Name:    "jarvis-gateway",
			Version: "2026.01.18-gateway-a",
		},
		Upstream: UpstreamConfig{
			ChatPath:   "/chat",
			TimeoutSec: 20,
		},
		Prompt: DefaultPrompt(),
		Redis: RedisConfig{
			Port:         6379,
			HistoryLimit: 50,
		},
		Database: DatabaseConfig{
			ConversationID: "live-chat",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load 加载配置：.env -> 默认值 -> YAML 文件（可选）-> 环境变量
func Load(path string) (*Config, error) {
	// .env 不存在时直接使用系统环境变量
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFile 读取 YAML 配置文件，未出现的字段保持默认值
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// applyEnv 用环境变量覆盖配置，数值解析失败时返回错误
func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("环境变量 %s 不是整数: %q", key, v))
				return
			}
			*dst = n
		}
	}

	num("PORT", &c.Server.Port)
	str("APP_VERSION", &c.Server.Version)

	str("UPSTREAM_BASE_URL", &c.Upstream.BaseURL)
	str("UPSTREAM_CHAT_PATH", &c.Upstream.ChatPath)
	str("UPSTREAM_API_KEY", &c.Upstream.APIKey)
	if v, ok := lookup("UPSTREAM_TIMEOUT_SEC"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("环境变量 UPSTREAM_TIMEOUT_SEC 不是数字: %q", v))
		} else {
			c.Upstream.TimeoutSec = f
		}
	}

	str("GATEWAY_API_KEY", &c.Gateway.APIKey)
	if v, ok := lookup("ALLOW_ORIGINS"); ok {
		c.Gateway.AllowOrigins = splitList(v)
	}

	str("REDIS_HOST", &c.Redis.Host)
	num("REDIS_PORT", &c.Redis.Port)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)

	str("DATABASE_URL", &c.Database.DSN)
	str("MEMORY_LOG_USER_ID", &c.Database.UserID)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FILE", &c.Log.File)

	return errors.Join(errs...)
}

func (c *Config) normalize() {
	c.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(c.Upstream.BaseURL), "/")

	c.Upstream.ChatPath = strings.TrimSpace(c.Upstream.ChatPath)
	if c.Upstream.ChatPath == "" {
		c.Upstream.ChatPath = "/chat"
	}
	if !strings.HasPrefix(c.Upstream.ChatPath, "/") {
		c.Upstream.ChatPath = "/" + c.Upstream.ChatPath
	}

	var origins []string
	for _, o := range c.Gateway.AllowOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.Gateway.AllowOrigins = origins
}

// Validate 校验必填项，启动时失败即退出
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("缺少上游地址 UPSTREAM_BASE_URL (例: https://jarvis-chat.onrender.com)")
	}

	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("上游地址无效: %q", c.Upstream.BaseURL)
	}

	// NaN 与任何数比较都为 false，需要单独判断
	sec := c.Upstream.TimeoutSec
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec <= 0 || sec > MaxTimeoutSec {
		return fmt.Errorf("上游超时必须在 (0, %d] 秒之间: %v", MaxTimeoutSec, sec)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("端口无效: %d", c.Server.Port)
	}
	return nil
}

// RedisEnabled 是否启用 Redis 对话历史
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// DatabaseEnabled 是否启用 memory_log 落库
func (c *Config) DatabaseEnabled() bool {
	return c.Database.DSN != ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
