package repository

import (
	"github.com/lshigami/nodo-plus/internal/model"
	"gorm.io/gorm"
)

type ConsultantRepository interface {
	// SetActive flips the profile of the consultant user. It returns the
	// number of rows changed so a missing consultant shows as 0.
	SetActive(userID string, active bool) (int64, error)
	FindByUserID(userID string) (*model.ConsultantProfile, error)
}

type consultantRepository struct {
	db *gorm.DB
}

func NewConsultantRepository(db *gorm.DB) ConsultantRepository {
	return &consultantRepository{db: db}
}

func (r *consultantRepository) SetActive(userID string, active bool) (int64, error) {
	res := r.db.Model(&model.ConsultantProfile{}).Where("user_id = ?", userID).Update("active", active)
	return res.RowsAffected, res.Error
}

func (r *consultantRepository) FindByUserID(userID string) (*model.ConsultantProfile, error) {
	var p model.ConsultantProfile
	err := r.db.Preload("User", userSummary).Where("user_id = ?", userID).First(&p).Error
	return &p, err
}
