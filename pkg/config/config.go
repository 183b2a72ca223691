package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	DiscoveryNodes          []string
	TickInterval            time.Duration
	TrendingPollInterval    time.Duration
	PushDrainInterval       time.Duration
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		DiscoveryNodes:          splitList(getEnv("DISCOVERY_NODES", "")),
		TickInterval:            getDuration("TICK_INTERVAL", 30*time.Second),
		TrendingPollInterval:    getDuration("TRENDING_POLL_INTERVAL", 15*time.Minute),
		PushDrainInterval:       getDuration("PUSH_DRAIN_INTERVAL", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
