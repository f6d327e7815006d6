package config

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Auth         Auth
	Storage      Storage
	Mail         Mail
	GeminiApiKey string
	GeminiModel  string
	LogLevel     string
}

type Server struct {
	Port        string
	GinMode     string
	FrontendURL string
}

type Database struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	URL         string
	SecretARN   string
	AutoMigrate bool
	Seed        bool
	SeedAdmin   SeedAdmin
}

type SeedAdmin struct {
	Email    string
	Password string
}

type Auth struct {
	JWTSecret    string
	JWTExpiresIn time.Duration
}

// Storage describes an S3 compatible bucket. With only R2 settings the
// endpoint is derived from the account id.
type Storage struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	Region          string
	PublicBaseURL   string
	URLTTL          time.Duration
	MaxUploadBytes  int64
}

type Mail struct {
	Region      string
	From        string
	AdminNotify string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.SetDefault("SERVER_PORT", "3001")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("FRONTEND_URL", "http://localhost:5173")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("DATABASE_AUTO_MIGRATE", true)
	viper.SetDefault("DATABASE_SEED", false)
	viper.SetDefault("SEED_ADMIN_EMAIL", "admin@nodo-plus.com")
	viper.SetDefault("JWT_EXPIRES_IN", "168h")
	viper.SetDefault("STORAGE_REGION", "auto")
	viper.SetDefault("STORAGE_URL_TTL", "300s")
	viper.SetDefault("UPLOAD_MAX_BYTES", 25*1024*1024)
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.GinMode = viper.GetString("GIN_MODE")
	config.Server.FrontendURL = viper.GetString("FRONTEND_URL")

	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")
	config.Database.URL = viper.GetString("DATABASE_URL")
	config.Database.SecretARN = viper.GetString("DATABASE_SECRET_ARN")
	config.Database.AutoMigrate = viper.GetBool("DATABASE_AUTO_MIGRATE")
	config.Database.Seed = viper.GetBool("DATABASE_SEED")
	config.Database.SeedAdmin.Email = viper.GetString("SEED_ADMIN_EMAIL")
	config.Database.SeedAdmin.Password = viper.GetString("SEED_ADMIN_PASSWORD")

	config.Auth.JWTSecret = viper.GetString("JWT_SECRET")
	config.Auth.JWTExpiresIn = viper.GetDuration("JWT_EXPIRES_IN")

	config.Storage.AccountID = viper.GetString("R2_ACCOUNT_ID")
	config.Storage.AccessKeyID = viper.GetString("R2_ACCESS_KEY_ID")
	config.Storage.SecretAccessKey = viper.GetString("R2_SECRET_ACCESS_KEY")
	config.Storage.Bucket = viper.GetString("R2_BUCKET_NAME")
	config.Storage.Endpoint = viper.GetString("STORAGE_ENDPOINT")
	config.Storage.Region = viper.GetString("STORAGE_REGION")
	config.Storage.PublicBaseURL = viper.GetString("STORAGE_PUBLIC_BASE_URL")
	config.Storage.URLTTL = viper.GetDuration("STORAGE_URL_TTL")
	config.Storage.MaxUploadBytes = viper.GetInt64("UPLOAD_MAX_BYTES")

	config.Mail.Region = viper.GetString("SES_REGION")
	config.Mail.From = viper.GetString("MAIL_FROM")
	config.Mail.AdminNotify = viper.GetString("ADMIN_NOTIFY_EMAIL")

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.GeminiModel = viper.GetString("GEMINI_MODEL")
	config.LogLevel = viper.GetString("LOG_LEVEL")

	if config.Auth.JWTExpiresIn <= 0 {
		config.Auth.JWTExpiresIn = 7 * 24 * time.Hour
	}
	if config.Storage.URLTTL <= 0 {
		config.Storage.URLTTL = 300 * time.Second
	}

	log.Info().Interface("config", config.Redacted()).Msg("Config loaded")
	return &config, nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	c.Database.Password = mask(c.Database.Password)
	c.Database.URL = mask(c.Database.URL)
	c.Database.SeedAdmin.Password = mask(c.Database.SeedAdmin.Password)
	c.Auth.JWTSecret = mask(c.Auth.JWTSecret)
	c.Storage.SecretAccessKey = mask(c.Storage.SecretAccessKey)
	c.GeminiApiKey = mask(c.GeminiApiKey)
	return c
}

// Watch re-applies LOG_LEVEL whenever the .env file changes. Other settings
// are only read at startup.
func Watch(cfg *Config) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		level := viper.GetString("LOG_LEVEL")
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("Ignoring invalid LOG_LEVEL from config change")
			return
		}
		zerolog.SetGlobalLevel(parsed)
		cfg.LogLevel = level
		log.Info().Str("file", e.Name).Str("level", level).Msg("Log level reloaded")
	})
	viper.WatchConfig()
}
