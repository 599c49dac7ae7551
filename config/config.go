package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AppEnv        string
	LogLevel      string
	CORSOrigin    string
	PublicBaseURL string

	DBURL     string
	JWTSecret string

	StripeSecretKey     string
	StripeWebhookSecret string

	PassKitAPIURL    string
	PassKitToken     string
	PassKitProgramID string
	PassKitClassID   string
	PassKitTimeout   time.Duration

	MailProvider string // "smtp" or "sendgrid"
	MailFrom     string
	MailFromName string
	MailTimeout  time.Duration

	SendGridAPIKey string
	SMTPHost       string
	SMTPPort       string
	SMTPUser       string
	SMTPPassword   string
}

// LoadEnv reads an optional .env file and then the process environment.
func LoadEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() (*Config, error) {
	var missing []string
	mustEnv := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		AppEnv:        getEnv("APP_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigin:    getEnv("CORS_ORIGIN", ""),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		DBURL:     mustEnv("DB_URL"),
		JWTSecret: mustEnv("JWT_SECRET"),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: mustEnv("STRIPE_WEBHOOK_SECRET"),

		PassKitAPIURL:    getEnv("PASSKIT_API_URL", ""),
		PassKitToken:     mustEnv("PASSKIT_SMARTPASS_SECRET"),
		PassKitProgramID: getEnv("PASSKIT_PROGRAM_ID", ""),
		PassKitClassID:   getEnv("PASSKIT_CLASS_ID", ""),

		MailProvider: strings.ToLower(getEnv("MAIL_PROVIDER", "smtp")),
		MailFrom:     getEnv("MAIL_FROM", ""),
		MailFromName: getEnv("MAIL_FROM_NAME", ""),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
	}

	var err error
	if cfg.PassKitTimeout, err = getDuration("PASSKIT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.MailTimeout, err = getDuration("MAIL_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	switch cfg.MailProvider {
	case "smtp", "sendgrid":
	default:
		return nil, fmt.Errorf("MAIL_PROVIDER must be smtp or sendgrid, got %q", cfg.MailProvider)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}
