package repository

import (
	"github.com/lshigami/nodo-plus/internal/model"
	"gorm.io/gorm"
)

type EdTechCompanyRepository interface {
	FindByUserID(userID string) (*model.EdTechCompany, error)
	FindByUserIDWithSolutions(userID string) (*model.EdTechCompany, error)
	FindByID(id string) (*model.EdTechCompany, error)
	Update(company *model.EdTechCompany) error
	Count() (int64, error)
}

type edTechCompanyRepository struct {
	db *gorm.DB
}

func NewEdTechCompanyRepository(db *gorm.DB) EdTechCompanyRepository {
	return &edTechCompanyRepository{db: db}
}

func (r *edTechCompanyRepository) FindByUserID(userID string) (*model.EdTechCompany, error) {
	var company model.EdTechCompany
	err := r.db.Where("user_id = ?", userID).First(&company).Error
	return &company, err
}

func (r *edTechCompanyRepository) FindByUserIDWithSolutions(userID string) (*model.EdTechCompany, error) {
	var company model.EdTechCompany
	err := r.db.Preload("Solutions", func(db *gorm.DB) *gorm.DB {
		return db.Order("solutions.created_at DESC")
	}).Where("user_id = ?", userID).First(&company).Error
	return &company, err
}

func (r *edTechCompanyRepository) FindByID(id string) (*model.EdTechCompany, error) {
	var company model.EdTechCompany
	err := r.db.First(&company, "id = ?", id).Error
	return &company, err
}

func (r *edTechCompanyRepository) Update(company *model.EdTechCompany) error {
	return r.db.Model(company).Select("name", "country", "contact_email", "website").Updates(company).Error
}

func (r *edTechCompanyRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&model.EdTechCompany{}).Count(&n).Error
	return n, err
}
