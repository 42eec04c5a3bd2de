package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DatabaseDSN  string
	JWTSecret    string
	Env          string
	TokenTTLDays int
	QuoteURL     string
}

const defaultSecret = "dev-secret-change-me"

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Load 从环境变量读取配置，本地开发时可通过 .env 文件覆盖。
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:         getenv("APP_PORT", "8080"),
		DatabaseDSN:  getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=classpulse port=5432 sslmode=disable TimeZone=UTC"),
		JWTSecret:    getenv("JWT_SECRET", defaultSecret),
		Env:          getenv("APP_ENV", "dev"),
		TokenTTLDays: getenvInt("TOKEN_TTL_DAYS", 7),
		QuoteURL:     getenv("QUOTE_URL", "https://api.quotable.io/random"),
	}
}

// Validate 在启动前拦截明显错误的配置，生产环境禁止使用默认密钥。
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("config: port is empty")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("config: database dsn is empty")
	}
	if cfg.Env != "dev" && cfg.JWTSecret == defaultSecret {
		return errors.New("config: default jwt secret outside dev")
	}
	return nil
}
