package database

import (
	"errors"
	"fmt"

	"github.com/lshigami/nodo-plus/config"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultCatalogs is the reference data loaded by Seed.
var DefaultCatalogs = []model.Catalog{
	{Type: "level", Label: "Preescolar", Value: "preescolar", Order: 1},
	{Type: "level", Label: "Primaria", Value: "primaria", Order: 2},
	{Type: "level", Label: "Secundaria", Value: "secundaria", Order: 3},
	{Type: "level", Label: "Media", Value: "media", Order: 4},
	{Type: "level", Label: "Superior", Value: "superior", Order: 5},

	{Type: "area", Label: "Matemáticas", Value: "matematicas", Order: 1},
	{Type: "area", Label: "Lenguaje", Value: "lenguaje", Order: 2},
	{Type: "area", Label: "Ciencias", Value: "ciencias", Order: 3},
	{Type: "area", Label: "Sociales", Value: "sociales", Order: 4},
	{Type: "area", Label: "Inglés", Value: "ingles", Order: 5},
	{Type: "area", Label: "STEM", Value: "stem", Order: 6},

	{Type: "productType", Label: "App móvil", Value: "app-movil", Order: 1},
	{Type: "productType", Label: "Plataforma web", Value: "plataforma-web", Order: 2},
	{Type: "productType", Label: "Hardware", Value: "hardware", Order: 3},
	{Type: "productType", Label: "Contenido digital", Value: "contenido-digital", Order: 4},
	{Type: "productType", Label: "Kit educativo", Value: "kit-educativo", Order: 5},

	{Type: "context", Label: "Alta conectividad", Value: "alta-conectividad", Order: 1},
	{Type: "context", Label: "Baja conectividad", Value: "baja-conectividad", Order: 2},
	{Type: "context", Label: "Sin conectividad", Value: "sin-conectividad", Order: 3},
	{Type: "context", Label: "Rural", Value: "rural", Order: 4},
	{Type: "context", Label: "Urbano", Value: "urbano", Order: 5},

	{Type: "device", Label: "Android", Value: "android", Order: 1},
	{Type: "device", Label: "iOS", Value: "ios", Order: 2},
	{Type: "device", Label: "Windows", Value: "windows", Order: 3},
	{Type: "device", Label: "Mac", Value: "mac", Order: 4},
	{Type: "device", Label: "Tablet", Value: "tablet", Order: 5},
	{Type: "device", Label: "PC/Laptop", Value: "pc-laptop", Order: 6},
}

const (
	defaultThresholdRed    = 40
	defaultThresholdYellow = 70
)

// Seed loads reference data. It is safe to run repeatedly.
func Seed(db *gorm.DB, cfg *config.Config) error {
	if err := seedAdmin(db, cfg.Database.SeedAdmin); err != nil {
		return err
	}

	for _, c := range DefaultCatalogs {
		c := c
		c.Active = true
		if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "value"}}, DoNothing: true}).Create(&c).Error; err != nil {
			return fmt.Errorf("seed catalog %s: %w", c.Value, err)
		}
	}
	log.Info().Int("count", len(DefaultCatalogs)).Msg("Catalog items seeded")

	// No unique constraint on axis, so check for an active rule first.
	for _, axis := range model.Axes {
		var existing model.TrafficLightRule
		err := db.Where("axis = ? AND active = ?", axis, true).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup rule %s: %w", axis, err)
		}
		rule := model.TrafficLightRule{
			Axis:            axis,
			ThresholdRed:    defaultThresholdRed,
			ThresholdYellow: defaultThresholdYellow,
			Weights:         map[string]interface{}{},
			Active:          true,
		}
		if err := db.Create(&rule).Error; err != nil {
			return fmt.Errorf("seed rule %s: %w", axis, err)
		}
	}
	log.Info().Msg("Traffic light rules seeded")
	return nil
}

func seedAdmin(db *gorm.DB, admin config.SeedAdmin) error {
	if admin.Email == "" || admin.Password == "" {
		log.Warn().Msg("SEED_ADMIN_PASSWORD not set, skipping admin user seed")
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	password := string(hash)
	user := model.User{Email: admin.Email, Password: &password, Role: model.RoleAdmin}
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).Create(&user).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Info().Str("email", admin.Email).Msg("Admin user seeded")
	return nil
}
