package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServicePort    string
	Environment    string
	LogLevel       string
	RateLimit      int
	DatabaseConfig DatabaseConfig
	JWTConfig      JWTConfig
	MediaConfig    MediaConfig
	KafkaConfig    KafkaConfig
	RedisConfig    RedisConfig
	AdminConfig    AdminConfig
}

type DatabaseConfig struct {
	URL        string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type MediaConfig struct {
	CloudinaryURL string
	Folder        string
	UploadTmpDir  string
	SweepSchedule string
	SweepMaxAge   time.Duration
}

type KafkaConfig struct {
	BrokerAddress string
	BrokerTopic   string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type AdminConfig struct {
	Username string
	Email    string
	Password string
}

func CreateNewConfig() *Config {
	godotenv.Load(".env")

	conf := Config{
		ServicePort: getEnv("PORT", "3000"),
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		RateLimit:   getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		DatabaseConfig: DatabaseConfig{
			URL:        os.Getenv("DATABASE_URL"),
			DBHost:     os.Getenv("DB_HOST"),
			DBPort:     os.Getenv("DB_PORT"),
			DBUser:     os.Getenv("DB_USER"),
			DBPassword: os.Getenv("DB_PASSWORD"),
			DBName:     os.Getenv("DB_NAME"),
		},
		JWTConfig: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
			TTL:    time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
		MediaConfig: MediaConfig{
			CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
			Folder:        getEnv("MEDIA_FOLDER", "Images"),
			UploadTmpDir:  getEnv("UPLOAD_TMP_DIR", os.TempDir()),
			SweepSchedule: getEnv("UPLOAD_SWEEP_SCHEDULE", "@hourly"),
			SweepMaxAge:   time.Duration(getEnvInt("UPLOAD_SWEEP_MAX_AGE_MINUTES", 60)) * time.Minute,
		},
		KafkaConfig: KafkaConfig{
			BrokerAddress: os.Getenv("BROKER_ADDRESS"),
			BrokerTopic:   getEnv("BROKER_TOPIC", "catalog.products"),
		},
		RedisConfig: RedisConfig{
			Address:  os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		AdminConfig: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Email:    getEnv("ADMIN_EMAIL", "admin@example.com"),
			Password: getEnv("ADMIN_PASSWORD", "admin123"),
		},
	}

	return &conf
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
