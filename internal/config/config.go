package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	Env          string
	DatabaseURL  string
	ESAddress    string
	IndexName    string
	StatePath    string
	PageSize     int
	SyncInterval time.Duration
	Port         string
}

// Load 加载配置
func Load() *Config {
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "movies_database")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	pageSize, _ := strconv.Atoi(getEnv("ETL_PAGE_SIZE", "100"))
	if pageSize <= 0 {
		pageSize = 100
	}

	// 0 表示单次运行；大于 0 表示按间隔循环同步
	intervalSec, _ := strconv.Atoi(getEnv("SYNC_INTERVAL_SECONDS", "0"))

	return &Config{
		Env:          getEnv("APP_ENV", "development"),
		DatabaseURL:  dbURL,
		ESAddress:    getEnv("ES_HOST_PORT", "http://localhost:9200"),
		IndexName:    getEnv("ES_INDEX", "movies"),
		StatePath:    getEnv("STATE_FILE_PATH", "filmwork_state.json"),
		PageSize:     pageSize,
		SyncInterval: time.Duration(intervalSec) * time.Second,
		Port:         getEnv("PORT", "5005"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
