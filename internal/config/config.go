package config

import (
	"os"
	"strconv"
)

type Config struct {
	RedisURL      string
	IMAPHost      string
	IMAPPort      int
	IMAPUser      string
	IMAPPass      string
	IMAPFolder    string
	Mailbox       string
	RulesFile     string
	TTLSeconds    int
	PollSeconds   int
	MaxEmailBytes int
	ListenAddr    string
	LogLevel      string
	AdminPassword string
	JWTSecret     string
}

func Load() *Config {
	return &Config{
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		IMAPHost:      getEnv("IMAP_HOST", "127.0.0.1"),
		IMAPPort:      getEnvInt("IMAP_PORT", 993),
		IMAPUser:      getEnv("IMAP_USER", ""),
		IMAPPass:      getEnv("IMAP_PASS", ""),
		IMAPFolder:    getEnv("IMAP_FOLDER", "INBOX"),
		Mailbox:       getEnv("MAILBOX_ADDRESS", ""),
		RulesFile:     getEnv("RULES_FILE", ""),
		TTLSeconds:    getEnvInt("TTL_SECONDS", 0),            // 0 = keep forever
		PollSeconds:   getEnvInt("POLL_SECONDS", 0),           // 0 = single run
		MaxEmailBytes: getEnvInt("MAX_EMAIL_BYTES", 5242880),  // 5MB
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
