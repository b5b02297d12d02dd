package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Session  SessionConfig
	LLM      LLMConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	UploadDir          string
}

type DatabaseConfig struct {
	Connection string
}

type SessionConfig struct {
	Secret     string
	TTLSeconds int
	Store      string // "memory" or "redis"
	RedisURL   string
}

type LLMConfig struct {
	GroqAPIKey     string
	Model          string
	BaseURL        string
	TimeoutSeconds int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	secret := getEnv("SECRET_KEY", "")
	if secret == "" {
		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("Unable to generate fallback secret: %v", err)
		}
		secret = hex.EncodeToString(buf)
		log.Println("WARNING: Using random SECRET_KEY. Set SECRET_KEY in .env for production!")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/voicevibe.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Session: SessionConfig{
			Secret:     secret,
			TTLSeconds: getEnvAsInt("TOKEN_EXPIRE_SECONDS", 86400),
			Store:      getEnv("SESSION_STORE", "memory"),
			RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		LLM: LLMConfig{
			GroqAPIKey:     getEnv("GROQ_API_KEY", ""),
			Model:          getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
			BaseURL:        getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			TimeoutSeconds: getEnvAsInt("LLM_TIMEOUT_SECONDS", 60),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
