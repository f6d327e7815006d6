package repository

import (
	"github.com/lshigami/nodo-plus/internal/model"
	"gorm.io/gorm"
)

type InstitutionRepository interface {
	FindByUserID(userID string) (*model.Institution, error)
	FindByID(id string) (*model.Institution, error)
	ListByName() ([]model.Institution, error)
	CountByStatus(status model.InstitutionStatus) (int64, error)
}

type institutionRepository struct {
	db *gorm.DB
}

func NewInstitutionRepository(db *gorm.DB) InstitutionRepository {
	return &institutionRepository{db: db}
}

// userSummary keeps preloaded users down to what admin screens show.
func userSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "email", "role", "created_at")
}

func (r *institutionRepository) FindByUserID(userID string) (*model.Institution, error) {
	var inst model.Institution
	err := r.db.Where("user_id = ?", userID).First(&inst).Error
	return &inst, err
}

func (r *institutionRepository) FindByID(id string) (*model.Institution, error) {
	var inst model.Institution
	err := r.db.Preload("User", userSummary).First(&inst, "id = ?", id).Error
	return &inst, err
}

func (r *institutionRepository) ListByName() ([]model.Institution, error) {
	var list []model.Institution
	err := r.db.Preload("User", userSummary).Order("name ASC").Find(&list).Error
	return list, err
}

func (r *institutionRepository) CountByStatus(status model.InstitutionStatus) (int64, error) {
	var n int64
	err := r.db.Model(&model.Institution{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
