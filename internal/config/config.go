package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// ExpectedTimezone is the operating timezone the deployment must run in.
// All due dates and schedules are computed in this zone.
const ExpectedTimezone = "Asia/Jakarta"

// Config holds all environment-sourced settings. It is built once at
// process start and passed into services explicitly. Business code never
// reads the environment directly.
type Config struct {
	Port        string
	DatabaseURL string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	// Wablas WhatsApp gateway credentials
	WablasBaseURL   string
	WablasAPIKey    string
	WablasSecretKey string
	WablasDeviceID  string

	// Used in message templates
	SchoolName string
	AdminPhone string
	AppBaseURL string

	Timezone    string
	StoragePath string
	LogFile     string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	SendGridAPIKey string
	AlertFromEmail string
	AlertToEmail   string
}

// Load reads the .env file (if present) and builds the Config. Missing
// optional values fall back to defaults; missing gateway credentials are
// allowed here so the health check can report them instead.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		WablasBaseURL:   os.Getenv("WABLAS_BASE_URL"),
		WablasAPIKey:    os.Getenv("WABLAS_API_KEY"),
		WablasSecretKey: os.Getenv("WABLAS_SECRET_KEY"),
		WablasDeviceID:  os.Getenv("WABLAS_DEVICE_ID"),

		SchoolName: getEnv("SCHOOL_NAME", "SMP IT Al-Fikri"),
		AdminPhone: os.Getenv("ADMIN_PHONE"),
		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:8080"),

		Timezone:    getEnv("APP_TIMEZONE", ExpectedTimezone),
		StoragePath: getEnv("STORAGE_PATH", "storage"),
		LogFile:     getEnv("LOG_FILE", "storage/logs/sekolahpay.log"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		AlertFromEmail: os.Getenv("ALERT_FROM_EMAIL"),
		AlertToEmail:   os.Getenv("ALERT_TO_EMAIL"),
	}

	return cfg, nil
}

// Location resolves the configured timezone, falling back to UTC when the
// zone name is unknown. The health check reports the mismatch separately.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Unknown timezone %q, falling back to UTC", c.Timezone)
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
