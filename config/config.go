// File: /config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env                string
	Port               string
	PublicURL          string
	CORSAllowedOrigins []string

	// Database
	DBDriver    string
	DatabaseURL string

	// Secrets
	JWTSecret     string
	MailSecretKey string

	// Email Configuration
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	FromEmail         string
	FromName          string
	MailTimeout       time.Duration
	MailRatePerSecond float64
	ContactRecipient  string

	// hCaptcha
	HCaptchaSecret    string
	HCaptchaVerifyURL string

	// Administrator account seeded on startup
	AdminEmail    string
	AdminPassword string
	AdminName     string

	Location              *time.Location
	CommentMaxDepth       int
	ScheduleCheckInterval time.Duration
}

func Load() *Config {
	// A missing .env is fine, the environment wins either way.
	_ = godotenv.Load()

	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	maxDepth, _ := strconv.Atoi(getEnv("COMMENT_MAX_DEPTH", "32"))
	mailRate, _ := strconv.ParseFloat(getEnv("MAIL_RATE_PER_SECOND", "5"), 64)

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		loc = time.Local
	}

	return &Config{
		Env:       getEnv("APP_ENV", "dev"),
		Port:      getEnv("PORT", "5005"),
		PublicURL: getEnv("PUBLIC_URL", "http://localhost:5005"),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),

		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DatabaseURL: getEnv("DATABASE_URL", "blog.db"),

		JWTSecret:     getEnv("JWT_SECRET", "your-secret-key"),
		MailSecretKey: getEnv("MAIL_SECRET_KEY", "your-mail-secret-key"),

		SMTPHost:          getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:          smtpPort,
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		FromEmail:         getEnv("FROM_EMAIL", "noreply@example.com"),
		FromName:          getEnv("FROM_NAME", "Inkwell"),
		MailTimeout:       getDuration("MAIL_TIMEOUT", 30*time.Second),
		MailRatePerSecond: mailRate,
		ContactRecipient:  getEnv("CONTACT_RECIPIENT", getEnv("FROM_EMAIL", "noreply@example.com")),

		HCaptchaSecret:    getEnv("HCAPTCHA_SECRET_KEY", ""),
		HCaptchaVerifyURL: getEnv("HCAPTCHA_VERIFY_URL", "https://hcaptcha.com/siteverify"),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Admin"),

		Location:              loc,
		CommentMaxDepth:       maxDepth,
		ScheduleCheckInterval: getDuration("SCHEDULE_CHECK_INTERVAL", 15*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses key as a time.Duration. Unparsable and non-positive
// values fall back to defaultValue.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
