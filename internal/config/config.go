package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	SenderAPIURL   string
	SenderAPIToken string
	WhatsAppToken  string
	ImageUploadURL string
	ImageUploadKey string
	DBPath         string
	DBHost         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBPort         string
	DBSSLMode      string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		SenderAPIURL:   getEnv("SENDER_API_URL", ""),
		SenderAPIToken: getEnv("SENDER_API_TOKEN", ""),
		WhatsAppToken:  getEnv("WHATSAPP_TOKEN", ""),
		ImageUploadURL: getEnv("IMAGE_UPLOAD_URL", ""),
		ImageUploadKey: getEnv("IMAGE_UPLOAD_KEY", ""),
		DBPath:         getEnv("DB_PATH", "./bulk-sender.db"),
		DBHost:         getEnv("DB_HOST", ""),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "bulk_sender"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
