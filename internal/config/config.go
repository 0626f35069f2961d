package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	DynamoDB DynamoDBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	LookupTimeout time.Duration
}

type DynamoDBConfig struct {
	Endpoint       string
	Region         string
	TableName      string
	CreatedByIndex string
}

type RedisConfig struct {
	Endpoint string
	Password string
	DB       int
}

type JWTConfig struct {
	SecretKey     string
	Algorithm     string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	RevocationTTL time.Duration
}

type AuthConfig struct {
	BcryptCost int
	AdminRoles []string
}

// Load reads an optional .env file, then the process environment.
// The returned Config is not mutated afterwards.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "8080"),
			ReadTimeout:   getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:  getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			LookupTimeout: getEnvAsDuration("LOOKUP_TIMEOUT", 3*time.Second),
		},
		DynamoDB: DynamoDBConfig{
			Endpoint:       getEnv("DYNAMODB_ENDPOINT", ""),
			Region:         getEnv("DYNAMODB_REGION", "us-east-1"),
			TableName:      getEnv("DYNAMODB_TABLE_NAME", "NotifyHub"),
			CreatedByIndex: getEnv("DYNAMODB_CREATED_BY_INDEX", "created_by-index"),
		},
		Redis: RedisConfig{
			Endpoint: getEnv("REDIS_ENDPOINT", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			SecretKey:     getEnv("JWT_SECRET_KEY", ""),
			Algorithm:     getEnv("JWT_ALGORITHM", "HS256"),
			AccessExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
			RevocationTTL: getEnvAsDuration("REVOCATION_TTL", 12*time.Hour),
		},
		Auth: AuthConfig{
			BcryptCost: getEnvAsInt("BCRYPT_COST", 10),
			AdminRoles: getEnvAsList("ADMIN_ROLES", []string{"admin"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}

	if len(c.JWT.SecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 bytes (256 bits)")
	}

	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("JWT_ALGORITHM %q is not supported (use HS256, HS384 or HS512)", c.JWT.Algorithm)
	}

	if c.JWT.AccessExpiry <= 0 || c.JWT.RefreshExpiry <= 0 {
		return fmt.Errorf("token expiry windows must be positive")
	}

	if c.JWT.RefreshExpiry <= c.JWT.AccessExpiry {
		return fmt.Errorf("JWT_REFRESH_EXPIRY must be longer than JWT_ACCESS_EXPIRY")
	}

	if c.JWT.RevocationTTL <= 0 {
		return fmt.Errorf("REVOCATION_TTL must be positive")
	}

	if len(c.Auth.AdminRoles) == 0 {
		return fmt.Errorf("ADMIN_ROLES must name at least one role")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
