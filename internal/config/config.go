// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port   string
	DBPath string

	// Telegram transport. Empty token disables the Telegram transport
	// and leaves only the websocket dev chat.
	TelegramToken string
	LeadsChatID   int64
	AdminUserID   int64 // 0 = admin commands open to everyone

	// ReminderDelay is the idle-nudge delay; 0 disables nudges.
	ReminderDelay time.Duration

	// Humanizing pause before every outbound reply.
	ReplyDelayMin time.Duration
	ReplyDelayMax time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "./data/leadbot.db"),
		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		LeadsChatID:   getEnvInt64("LEADS_CHAT_ID", 0),
		AdminUserID:   getEnvInt64("ADMIN_USER_ID", 0),
		ReminderDelay: time.Duration(getEnvInt("REMINDER_MINUTES", 15)) * time.Minute,
		ReplyDelayMin: time.Duration(getEnvInt("REPLY_DELAY_MIN_SECONDS", 10)) * time.Second,
		ReplyDelayMax: time.Duration(getEnvInt("REPLY_DELAY_MAX_SECONDS", 15)) * time.Second,
	}

	// Older deployments configured the leads chat as MANAGER_CHAT_ID.
	if cfg.LeadsChatID == 0 {
		cfg.LeadsChatID = getEnvInt64("MANAGER_CHAT_ID", 0)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.TelegramToken != "" && c.LeadsChatID == 0 {
		return fmt.Errorf("set LEADS_CHAT_ID (or MANAGER_CHAT_ID for old .env files)")
	}
	if c.ReminderDelay < 0 {
		return fmt.Errorf("REMINDER_MINUTES cannot be negative")
	}
	if c.ReplyDelayMax < c.ReplyDelayMin {
		return fmt.Errorf("REPLY_DELAY_MAX_SECONDS must be >= REPLY_DELAY_MIN_SECONDS")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64) int64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
