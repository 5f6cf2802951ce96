package config

import (
	"os"
	"strconv"
	"time"
)

type TrackerConfig struct {
	Port         string
	PostgresCfg  PostgresConfig
	RedisCfg     RedisConfig
	RabbitMQCfg  RabbitMQConfig
	DigestCfg    DigestConfig
	StoreTimeout time.Duration
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type DigestConfig struct {
	Queue       string
	HorizonDays int
	BatchSize   int
	BatchPause  time.Duration
	Interval    time.Duration
}

func New() *TrackerConfig {
	return &TrackerConfig{
		Port: getEnvOrDefault("PORT", "8086"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "smartharvester"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		DigestCfg: DigestConfig{
			Queue:       getEnvOrDefault("DIGEST_QUEUE", "harvest_digest_events"),
			HorizonDays: getEnvIntOrDefault("DIGEST_DAYS_AHEAD", 7),
			BatchSize:   getEnvIntOrDefault("DIGEST_BATCH_SIZE", 25),
			BatchPause:  time.Duration(getEnvIntOrDefault("DIGEST_BATCH_PAUSE_MS", 500)) * time.Millisecond,
			Interval:    time.Duration(getEnvIntOrDefault("DIGEST_INTERVAL_HOURS", 24)) * time.Hour,
		},
		StoreTimeout: time.Duration(getEnvIntOrDefault("STORE_TIMEOUT_MS", 5000)) * time.Millisecond,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
