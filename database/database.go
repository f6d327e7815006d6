package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/lshigami/nodo-plus/config"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type secretPayload struct {
	DatabaseURL string `json:"DATABASE_URL"`
}

// NewDatabase opens the postgres connection. The DSN comes from, in order,
// DATABASE_SECRET_ARN, DATABASE_URL and the discrete DATABASE_* fields.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn, err := resolveDSN(context.Background(), cfg.Database)
	if err != nil {
		return nil, err
	}

	gormLogLevel := logger.Warn
	if cfg.Server.GinMode == "debug" {
		gormLogLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel),
		TranslateError: true,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to database")
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info().Str("host", cfg.Database.Host).Str("name", cfg.Database.Name).Msg("Database connection established")
	return db, nil
}

func resolveDSN(ctx context.Context, dbCfg config.Database) (string, error) {
	if dbCfg.SecretARN != "" {
		return secretDSN(ctx, dbCfg.SecretARN)
	}
	if dbCfg.URL != "" {
		return dbCfg.URL, nil
	}
	return BuildDSN(dbCfg), nil
}

// BuildDSN formats the discrete connection fields as a libpq keyword string.
func BuildDSN(dbCfg config.Database) string {
	sslMode := dbCfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		dbCfg.Host, dbCfg.User, dbCfg.Password, dbCfg.Name, dbCfg.Port, sslMode)
}

func secretDSN(ctx context.Context, secretArn string) (string, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}
	sm := secretsmanager.NewFromConfig(awsCfg)
	out, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &secretArn})
	if err != nil {
		return "", fmt.Errorf("get secret: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretArn)
	}
	return parseSecret(*out.SecretString)
}

func parseSecret(raw string) (string, error) {
	var payload secretPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", fmt.Errorf("parse secret json: %w", err)
	}
	if payload.DatabaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL missing in secret")
	}
	return payload.DatabaseURL, nil
}
