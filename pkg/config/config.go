package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"adOptimizer/business/bandit"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Redis      RedisConfig
	Optimizer  OptimizerConfig
	AdPlatform AdPlatformConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port         string
	AllowOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	// APIKeyTTL is how long a verified API key is cached. Zero disables Redis.
	APIKeyTTL time.Duration
}

// OptimizerConfig holds the process-wide defaults every account starts from.
type OptimizerConfig struct {
	Bandit     bandit.Config
	Accelerate bool
}

type AdPlatformConfig struct {
	GraphURL   string
	APIVersion string
	BatchSize  int
	Timeout    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}
	apiKeyTTL, err := time.ParseDuration(getEnv("REDIS_API_KEY_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_API_KEY_TTL: %w", err)
	}

	optimizer, err := loadOptimizer()
	if err != nil {
		return nil, err
	}

	batchSize, err := strconv.Atoi(getEnv("ADPLATFORM_BATCH_SIZE", "50"))
	if err != nil || batchSize < 1 || batchSize > 50 {
		return nil, errors.New("ADPLATFORM_BATCH_SIZE must be between 1 and 50")
	}
	timeout, err := time.ParseDuration(getEnv("ADPLATFORM_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADPLATFORM_TIMEOUT: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Ad Optimizer API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "ad_optimizer"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			APIKeyTTL:     apiKeyTTL,
		},
		Optimizer: optimizer,
		AdPlatform: AdPlatformConfig{
			GraphURL:   getEnv("ADPLATFORM_GRAPH_URL", "https://graph.facebook.com"),
			APIVersion: getEnv("ADPLATFORM_API_VERSION", "v19.0"),
			BatchSize:  batchSize,
			Timeout:    timeout,
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

// loadOptimizer reads the optimizer defaults. Invalid values fail startup.
func loadOptimizer() (OptimizerConfig, error) {
	defaults := bandit.DefaultConfig()

	memory, err := strconv.ParseBool(getEnv("OPTIMIZER_MEMORY", strconv.FormatBool(defaults.Memory)))
	if err != nil {
		return OptimizerConfig{}, fmt.Errorf("invalid OPTIMIZER_MEMORY: %w", err)
	}
	cutoff, err := strconv.Atoi(getEnv("OPTIMIZER_CUTOFF", strconv.Itoa(defaults.Cutoff)))
	if err != nil {
		return OptimizerConfig{}, fmt.Errorf("invalid OPTIMIZER_CUTOFF: %w", err)
	}
	cutLevel, err := strconv.ParseFloat(getEnv("OPTIMIZER_CUT_LEVEL", strconv.FormatFloat(defaults.CutLevel, 'f', -1, 64)), 64)
	if err != nil {
		return OptimizerConfig{}, fmt.Errorf("invalid OPTIMIZER_CUT_LEVEL: %w", err)
	}
	accelerate, err := strconv.ParseBool(getEnv("OPTIMIZER_ACCELERATE", "false"))
	if err != nil {
		return OptimizerConfig{}, fmt.Errorf("invalid OPTIMIZER_ACCELERATE: %w", err)
	}

	cfg, err := bandit.NewConfig(memory, getEnv("OPTIMIZER_SHAPE", defaults.Shape.String()), cutoff, cutLevel)
	if err != nil {
		return OptimizerConfig{}, err
	}

	return OptimizerConfig{Bandit: cfg, Accelerate: accelerate}, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
