package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	JWTSecret      string
	AIAPIKey       string
	GenModel       string
	Port           string
	UploadDir      string
	MaxUploadSize  int64
	StorageBackend string
	AwsAccessKey   string
	AwsSecretKey   string
	AwsRegion      string
	BucketName     string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	MailFrom       string
	SweepSchedule  string
	RepeatReminder bool
}

// LoadConfig loads the environment variables and returns the config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AIAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GenModel:       getEnv("GEN_MODEL", "gemini-1.5-flash"),
		Port:           getEnv("PORT", "8080"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadSize:  int64(getEnvInt("MAX_UPLOAD_SIZE", 10<<20)),
		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		AwsAccessKey:   getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:   getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:      getEnv("AWS_REGION", "us-east-2"),
		BucketName:     getEnv("BUCKET_NAME", "insuraai-docs"),
		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPUser:       getEnv("EMAIL_USER", ""),
		SMTPPass:       getEnv("EMAIL_PASS", ""),
		MailFrom:       getEnv("MAIL_FROM", ""),
		SweepSchedule:  getEnv("SWEEP_SCHEDULE", "0 0 * * *"),
		RepeatReminder: getEnvBool("REMINDER_REPEAT", true),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = cfg.SMTPUser
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}
