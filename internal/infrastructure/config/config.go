package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	Generative  GenerativeConfig `mapstructure:"generative"`
	Providers   ProvidersConfig  `mapstructure:"providers"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Pipeline    PipelineConfig   `mapstructure:"pipeline"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// GenerativeConfig 生成式分析服務（OpenRouter）配置
type GenerativeConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ProvidersConfig 事實查詢供應商配置
type ProvidersConfig struct {
	NutritionBaseURL string        `mapstructure:"nutrition_base_url"`
	ProductBaseURL   string        `mapstructure:"product_base_url"`
	RecipeBaseURL    string        `mapstructure:"recipe_base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// CacheConfig 指紋快取配置
// driver 為 memory 或 redis；redis 模式下由 Addr 指定連線位址
type CacheConfig struct {
	Driver    string `mapstructure:"driver"`
	Addr      string `mapstructure:"addr"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// PipelineConfig 分析管線配置
type PipelineConfig struct {
	StageTimeout time.Duration `mapstructure:"stage_timeout"` // 單一外部調用的超時
	TotalTimeout time.Duration `mapstructure:"total_timeout"` // 整條管線的上限
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件
	if err := godotenv.Load(); err != nil {
		return nil, err
	}

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("generative.api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("generative.model", "OPENROUTER_MODEL")
	viper.BindEnv("generative.max_tokens", "MODEL_MAX_TOKENS")
	viper.BindEnv("cache.driver", "CACHE_DRIVER")
	viper.BindEnv("cache.addr", "REDIS_ADDR")
	viper.BindEnv("providers.nutrition_base_url", "NUTRITION_BASE_URL")
	viper.BindEnv("providers.product_base_url", "PRODUCT_BASE_URL")
	viper.BindEnv("providers.recipe_base_url", "RECIPE_BASE_URL")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration", "generative_api_key:", maskAPIKey(viper.GetString("generative.api_key")), "generative_model:", viper.GetString("generative.model"))

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "food-analyzer")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "120s")
	viper.SetDefault("server.idle_timeout", "120s")

	// 生成式分析服務設定
	viper.SetDefault("generative.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("generative.model", "qwen/qwen2.5-vl-72b-instruct:free")
	viper.SetDefault("generative.max_tokens", 2000)
	viper.SetDefault("generative.timeout", "60s")

	// 供應商設定
	viper.SetDefault("providers.timeout", "10s")

	// 快取設定
	viper.SetDefault("cache.driver", "memory")
	viper.SetDefault("cache.addr", "localhost:6379")
	viper.SetDefault("cache.key_prefix", "analysis")

	// 管線設定
	viper.SetDefault("pipeline.stage_timeout", "60s")
	viper.SetDefault("pipeline.total_timeout", "180s")

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	// dedup window 預設
	viper.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證快取設定
	switch config.Cache.Driver {
	case "memory":
	case "redis":
		if config.Cache.Addr == "" {
			return fmt.Errorf("redis cache requires addr")
		}
	default:
		return fmt.Errorf("unknown cache driver: %s", config.Cache.Driver)
	}

	// 驗證管線設定
	if config.Pipeline.StageTimeout <= 0 {
		return fmt.Errorf("invalid pipeline stage timeout")
	}
	if config.Pipeline.TotalTimeout <= 0 {
		return fmt.Errorf("invalid pipeline total timeout")
	}

	return nil
}
