package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT (issued by the external auth service; this core only verifies)
	JWTSecret string

	// Classifiers
	MoodAPIKey        string
	MoodAPIURL        string
	MoodModel         string
	ModerationAPIKey  string
	ModerationAPIURL  string
	ClassifierTimeout time.Duration

	// Moderation policy rule file (YAML); built-in defaults when empty/missing
	ModerationPolicyPath string

	// Message lifecycle
	DefaultExpiryHours int
	SweepInterval      time.Duration
	EmotionRetention   time.Duration

	// Rate limits (count per 5-minute window)
	CreateLimit int
	ReportLimit int

	// Admin
	AdminUserIDs string
	AdminToken   string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "whisper_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		MoodAPIKey:        getEnv("MOOD_API_KEY", ""),
		MoodAPIURL:        getEnv("MOOD_API_URL", "https://api.openai.com/v1/chat/completions"),
		MoodModel:         getEnv("MOOD_MODEL", "gpt-4o-mini"),
		ModerationAPIKey:  getEnv("MODERATION_API_KEY", ""),
		ModerationAPIURL:  getEnv("MODERATION_API_URL", "https://api.openai.com/v1/moderations"),
		ClassifierTimeout: parseDuration(getEnv("CLASSIFIER_TIMEOUT", "8s"), 8*time.Second),

		ModerationPolicyPath: getEnv("MODERATION_POLICY_PATH", "moderation.yaml"),

		DefaultExpiryHours: parseInt(getEnv("DEFAULT_EXPIRY_HOURS", "24"), 24),
		SweepInterval:      parseDuration(getEnv("SWEEP_INTERVAL", "1h"), time.Hour),
		EmotionRetention:   parseDuration(getEnv("EMOTION_RETENTION", "8760h"), 365*24*time.Hour),

		CreateLimit: parseInt(getEnv("CREATE_LIMIT", "10"), 10),
		ReportLimit: parseInt(getEnv("REPORT_LIMIT", "5"), 5),

		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
