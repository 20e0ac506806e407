package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Tracing  TracingConfig `mapstructure:"tracing"`
	CORS     CORSConfig    `mapstructure:"cors"`

	// 可热更的策略项。请求处理期间配置可能被重载，
	// 读取必须走 *Policy 快照方法，写入走 ApplyReload
	Test      TestConfig      `mapstructure:"test"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	mu        sync.RWMutex

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

func (c *Config) TestPolicy() TestConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Test
}

func (c *Config) LedgerPolicy() LedgerConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Ledger
}

func (c *Config) RateLimitPolicy() RateLimitConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.RateLimit
}

// ApplyReload 原子地替换可热更的策略项，其余配置不变
func (c *Config) ApplyReload(newCfg *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Test = newCfg.Test
	c.Ledger = newCfg.Ledger
	c.RateLimit = newCfg.RateLimit
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

// TestConfig 测试策略：抽题数量与答题时长
type TestConfig struct {
	QuestionCount   int `mapstructure:"question_count"`
	DurationMinutes int `mapstructure:"duration_minutes"`
}

// LedgerConfig 账本策略：注册赠送的初始余额
type LedgerConfig struct {
	StartingBalance string `mapstructure:"starting_balance"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("IQTEST")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if cfg.Test.QuestionCount <= 0 {
		cfg.Test.QuestionCount = 20
	}
	if cfg.Test.DurationMinutes <= 0 {
		cfg.Test.DurationMinutes = 30
	}

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	return &cfg, nil
}
