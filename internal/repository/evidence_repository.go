package repository

import (
	"github.com/lshigami/nodo-plus/internal/model"
	"gorm.io/gorm"
)

type EvidenceRepository interface {
	Create(evidence *model.Evidence) error
	DeleteForSolution(id, solutionID string) (int64, error)
}

type evidenceRepository struct {
	db *gorm.DB
}

func NewEvidenceRepository(db *gorm.DB) EvidenceRepository {
	return &evidenceRepository{db: db}
}

func (r *evidenceRepository) Create(evidence *model.Evidence) error {
	return r.db.Create(evidence).Error
}

func (r *evidenceRepository) DeleteForSolution(id, solutionID string) (int64, error) {
	res := r.db.Where("id = ? AND solution_id = ?", id, solutionID).Delete(&model.Evidence{})
	return res.RowsAffected, res.Error
}
