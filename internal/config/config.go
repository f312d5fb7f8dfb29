package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Server    ServerConfig
	Google    GoogleConfig
	Dashboard DashboardConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type DashboardConfig struct {
	ViewTTL         time.Duration
	ThumbnailTTL    time.Duration
	FetchTimeout    time.Duration
	RecentBatchSize int
	DefaultPageSize int
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "drivehub"),
			Password: getEnv("DB_PASSWORD", "drivehub_secret"),
			Name:     getEnv("DB_NAME", "drivehub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),
		},
		Dashboard: DashboardConfig{
			ViewTTL:         getEnvAsDuration("DASHBOARD_VIEW_TTL", 1*time.Hour),
			ThumbnailTTL:    getEnvAsDuration("DASHBOARD_THUMBNAIL_TTL", 24*time.Hour),
			FetchTimeout:    getEnvAsDuration("DASHBOARD_FETCH_TIMEOUT", 10*time.Second),
			RecentBatchSize: getEnvAsInt("DASHBOARD_RECENT_BATCH_SIZE", 50),
			DefaultPageSize: getEnvAsInt("DASHBOARD_DEFAULT_PAGE_SIZE", 35),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
