package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port             string
	Env              string
	LogLevel         string
	DatabaseURL      string
	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	AuthSecret       string
	CORSOrigins      []string
	SessionTTL       time.Duration
	VoiceActivityTTL time.Duration

	// Schedule grid geometry for the day view.
	SlotIntervalMinutes int
	SlotHeight          int
	SlotGap             int
	DayStart            string
	DayEnd              string

	// SendGrid email configuration for patient nudges.
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		AuthSecret:       getEnv("AUTH_SECRET", ""),
		CORSOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		SessionTTL:       getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),
		VoiceActivityTTL: getEnvAsDuration("VOICE_ACTIVITY_TTL", 24*time.Hour),

		SlotIntervalMinutes: getEnvAsInt("SLOT_INTERVAL_MINUTES", 15),
		SlotHeight:          getEnvAsInt("SLOT_HEIGHT", 60),
		SlotGap:             getEnvAsInt("SLOT_GAP", 4),
		DayStart:            getEnv("DAY_START", "08:00"),
		DayEnd:              getEnv("DAY_END", "18:00"),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Clinicflow"),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or
// returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or
// returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
