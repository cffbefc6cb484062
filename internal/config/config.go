package config

import (
	"errors"
	"fmt"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	AI        AIConfig        `mapstructure:"ai"`
	Translate TranslateConfig `mapstructure:"translate"`
	Chunking  ChunkingConfig  `mapstructure:"chunking"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Persist   PersistConfig   `mapstructure:"persist"`
	Log       LogConfig       `mapstructure:"log"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // SSE 长连接下应为 0
}

// AIConfig 补全端点配置
type AIConfig struct {
	Provider       string          `mapstructure:"provider"` // http, openai, azure, ark
	APIKey         string          `mapstructure:"api_key"`
	BaseURL        string          `mapstructure:"base_url"`
	SummaryModel   string          `mapstructure:"summary_model"`
	TranslateModel string          `mapstructure:"translate_model"`
	Timeout        time.Duration   `mapstructure:"timeout"` // 0 表示不限制，由取消控制
	Options        AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig AI 模型参数
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// TranslateConfig 翻译默认参数
type TranslateConfig struct {
	TargetLang  string `mapstructure:"target_lang"`
	Concurrency int    `mapstructure:"concurrency"`
}

// ChunkingConfig 分段配置
type ChunkingConfig struct {
	MaxLength    int    `mapstructure:"max_length"`
	MinLength    int    `mapstructure:"min_length"`
	SentenceRule string `mapstructure:"sentence_rule"` // uax29, regex
}

// PricingConfig 各阶段默认单价（每百万 token，美元）
type PricingConfig struct {
	Summary   PriceConfig `mapstructure:"summary"`
	Translate PriceConfig `mapstructure:"translate"`
}

// PriceConfig 单阶段单价，nil 表示未设置
type PriceConfig struct {
	Prompt     *float64 `mapstructure:"prompt"`
	Cached     *float64 `mapstructure:"cached"`
	Completion *float64 `mapstructure:"completion"`
}

// PersistConfig 设置与草稿的持久化配置
type PersistConfig struct {
	Backend       string        `mapstructure:"backend"` // memory, redis, mongo, storage
	SettingsKey   string        `mapstructure:"settings_key"`
	DraftKey      string        `mapstructure:"draft_key"`
	DraftDebounce time.Duration `mapstructure:"draft_debounce"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 认证配置，JWTSecret 为空时 API 不鉴权
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	AccessTokenExpiry time.Duration `mapstructure:"access_token_expiry"`
}

// StorageConfig 对象存储配置（persist.backend=storage 时使用）
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Prefix          string `mapstructure:"prefix"`
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	validProviders := map[string]bool{"http": true, "openai": true, "azure": true, "ark": true}
	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("invalid ai provider %q, must be http/openai/azure/ark", c.AI.Provider)
	}

	if c.Translate.Concurrency < 1 || c.Translate.Concurrency > 8 {
		return errors.New("translate.concurrency must be between 1 and 8")
	}

	if c.Chunking.MinLength <= 0 || c.Chunking.MaxLength <= 0 {
		return errors.New("chunking thresholds must be positive")
	}
	if c.Chunking.MinLength > c.Chunking.MaxLength {
		return errors.New("chunking.min_length must not exceed chunking.max_length")
	}
	if c.Chunking.SentenceRule != "uax29" && c.Chunking.SentenceRule != "regex" {
		return errors.New("chunking.sentence_rule must be uax29/regex")
	}

	for name, p := range map[string]PriceConfig{"summary": c.Pricing.Summary, "translate": c.Pricing.Translate} {
		for _, v := range []*float64{p.Prompt, p.Cached, p.Completion} {
			if v != nil && *v < 0 {
				return fmt.Errorf("pricing.%s must not be negative", name)
			}
		}
	}

	switch c.Persist.Backend {
	case "memory", "redis", "mongo":
	case "storage":
		switch c.Storage.Type {
		case "local":
			if c.Storage.Local == nil || c.Storage.Local.BasePath == "" {
				return errors.New("storage.local.base_path is required")
			}
		case "oss":
			if c.Storage.OSS == nil || c.Storage.OSS.Bucket == "" {
				return errors.New("storage.oss.bucket is required")
			}
		default:
			return fmt.Errorf("unsupported storage type %q", c.Storage.Type)
		}
	default:
		return fmt.Errorf("invalid persist backend %q, must be memory/redis/mongo/storage", c.Persist.Backend)
	}

	if c.Persist.SettingsKey == "" || c.Persist.DraftKey == "" {
		return errors.New("persist keys must not be empty")
	}

	return nil
}
