package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Config holds everything read from the environment at startup. Components
// receive it explicitly; nothing reads os.Getenv after Load returns.
type Config struct {
	MongoClient *mongo.Client
	DBName      string
	Port        string

	JWTSecret   string
	JWTValidity time.Duration

	// ZeptoMail HTTP API
	ZeptoAPIURL   string
	ZeptoAPIKey   string
	EmailFrom     string
	EmailFromName string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	DBLink    string
	RateLimit string // ulule/limiter formatted rate, e.g. "100-H"
}

func Load() (*Config, error) {
	cfg := &Config{
		DBLink:              os.Getenv("DB_LINK"),
		DBName:              getEnv("DB_NAME", "tours"),
		Port:                getEnv("PORT", "8080"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		ZeptoAPIURL:         os.Getenv("ZEPTO_API_URL"),
		ZeptoAPIKey:         os.Getenv("ZEPTO_API_KEY"),
		EmailFrom:           os.Getenv("EMAIL_FROM"),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "Tour Booking"),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		RateLimit:           getEnv("RATE_LIMIT", "100-H"),
	}

	if cfg.DBLink == "" {
		return nil, fmt.Errorf("DB_LINK is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	days, err := strconv.Atoi(getEnv("JWT_VALIDITY_DURATION", "30"))
	if err != nil || days <= 0 {
		days = 30
	}
	cfg.JWTValidity = time.Duration(days) * 24 * time.Hour

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
