// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Weather  WeatherConfig
	Storage  StorageConfig
	Drive    DriveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	UploadDir     string
	DataDir       string
	ProjectsFile  string
	IncidentsFile string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

type WeatherConfig struct {
	BaseURL          string
	ConnectTimeoutMS int
	RequestTimeoutMS int
}

type StorageConfig struct {
	Backend     string // "local" or "s3"
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool
}

type DriveConfig struct {
	CredentialsJSON string
	FolderPath      string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "predichain")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
		viper.SetDefault("APP_DATA_DIR", "./data/output")
		viper.SetDefault("APP_PROJECTS_FILE", "./data/projects.json")
		viper.SetDefault("APP_INCIDENTS_FILE", "./data/incidents.json")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 300)
		viper.SetDefault("WEATHER_BASE_URL", "https://api.open-meteo.com/v1/forecast")
		viper.SetDefault("WEATHER_CONNECT_TIMEOUT_MS", 3000)
		viper.SetDefault("WEATHER_REQUEST_TIMEOUT_MS", 5000)
		viper.SetDefault("STORAGE_BACKEND", "local")
		viper.SetDefault("STORAGE_S3_ENDPOINT", "")
		viper.SetDefault("STORAGE_S3_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_S3_SECRET_KEY", "")
		viper.SetDefault("STORAGE_S3_BUCKET", "predichain-uploads")
		viper.SetDefault("STORAGE_S3_REGION", "us-east-1")
		viper.SetDefault("STORAGE_S3_USE_SSL", true)
		viper.SetDefault("DRIVE_FOLDER_PATH", "")

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure upload and data directories exist
		ensureDir(viper.GetString("APP_UPLOAD_DIR"))
		ensureDir(viper.GetString("APP_DATA_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			App: AppConfig{
				UploadDir:     viper.GetString("APP_UPLOAD_DIR"),
				DataDir:       viper.GetString("APP_DATA_DIR"),
				ProjectsFile:  viper.GetString("APP_PROJECTS_FILE"),
				IncidentsFile: viper.GetString("APP_INCIDENTS_FILE"),
			},
			Cache: CacheConfig{
				Enabled:            viper.GetBool("CACHE_ENABLED"),
				RedisURL:           viper.GetString("REDIS_URL"),
				RedisHost:          viper.GetString("REDIS_HOST"),
				RedisPort:          viper.GetString("REDIS_PORT"),
				RedisPassword:      viper.GetString("REDIS_PASSWORD"),
				RedisDB:            viper.GetInt("REDIS_DB"),
				ForecastTTLSeconds: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
			},
			Weather: WeatherConfig{
				BaseURL:          viper.GetString("WEATHER_BASE_URL"),
				ConnectTimeoutMS: viper.GetInt("WEATHER_CONNECT_TIMEOUT_MS"),
				RequestTimeoutMS: viper.GetInt("WEATHER_REQUEST_TIMEOUT_MS"),
			},
			Storage: StorageConfig{
				Backend:     viper.GetString("STORAGE_BACKEND"),
				S3Endpoint:  viper.GetString("STORAGE_S3_ENDPOINT"),
				S3AccessKey: viper.GetString("STORAGE_S3_ACCESS_KEY"),
				S3SecretKey: viper.GetString("STORAGE_S3_SECRET_KEY"),
				S3Bucket:    viper.GetString("STORAGE_S3_BUCKET"),
				S3Region:    viper.GetString("STORAGE_S3_REGION"),
				S3UseSSL:    viper.GetBool("STORAGE_S3_USE_SSL"),
			},
			Drive: DriveConfig{
				CredentialsJSON: os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON"),
				FolderPath:      viper.GetString("DRIVE_FOLDER_PATH"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
