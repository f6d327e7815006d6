package repository

import (
	"time"

	"github.com/lshigami/nodo-plus/internal/model"
	"gorm.io/gorm"
)

// StatusCount is one row of a GROUP BY status query.
type StatusCount struct {
	Status model.SolutionStatus
	Count  int64
}

// Approval carries everything written when a solution is approved.
type Approval struct {
	Scores     map[string]int
	Colors     map[string]model.Color
	ApprovedBy string
	ApprovedAt time.Time
}

type SolutionRepository interface {
	Create(solution *model.Solution) error
	FindByID(id string) (*model.Solution, error)
	FindByIDWithDetails(id string) (*model.Solution, error)
	FindByIDAndCompany(id, companyID string) (*model.Solution, error)
	FindApprovedByID(id string) (*model.Solution, error)
	ListByCompany(companyID string) ([]model.Solution, error)
	ListByStatus(status model.SolutionStatus, oldestFirst bool) ([]model.Solution, error)
	ListAll() ([]model.Solution, error)
	// UpdateEditable writes fields only while the solution belongs to the
	// company and is still in an editable status. The affected row count is
	// 0 when either condition fails.
	UpdateEditable(id, companyID string, fields map[string]any) (int64, error)
	// MarkPending moves an owned solution to PENDING.
	MarkPending(id, companyID string) (int64, error)
	UpdateStatus(id string, status model.SolutionStatus) (int64, error)
	ApplyApproval(id string, approval Approval) error
	CountByStatus(status model.SolutionStatus) (int64, error)
	CountGroupByStatus() ([]StatusCount, error)
}

type solutionRepository struct {
	db *gorm.DB
}

func NewSolutionRepository(db *gorm.DB) SolutionRepository {
	return &solutionRepository{db: db}
}

var editableStatuses = []model.SolutionStatus{model.SolutionDraft, model.SolutionChangesRequested}

func (r *solutionRepository) Create(solution *model.Solution) error {
	return r.db.Create(solution).Error
}

func (r *solutionRepository) FindByID(id string) (*model.Solution, error) {
	var s model.Solution
	err := r.db.First(&s, "id = ?", id).Error
	return &s, err
}

func (r *solutionRepository) FindByIDWithDetails(id string) (*model.Solution, error) {
	var s model.Solution
	err := r.db.Preload("EdTechCompany").Preload("Evidences").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *solutionRepository) FindByIDAndCompany(id, companyID string) (*model.Solution, error) {
	var s model.Solution
	err := r.db.Preload("EdTechCompany").Preload("Evidences").
		Where("id = ? AND edtech_company_id = ?", id, companyID).
		First(&s).Error
	return &s, err
}

func (r *solutionRepository) FindApprovedByID(id string) (*model.Solution, error) {
	var s model.Solution
	err := r.db.Preload("EdTechCompany").Preload("Evidences").
		Where("id = ? AND status = ?", id, model.SolutionApproved).
		First(&s).Error
	return &s, err
}

func (r *solutionRepository) ListByCompany(companyID string) ([]model.Solution, error) {
	var list []model.Solution
	err := r.db.Preload("Evidences").
		Where("edtech_company_id = ?", companyID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *solutionRepository) ListByStatus(status model.SolutionStatus, oldestFirst bool) ([]model.Solution, error) {
	order := "created_at DESC"
	if oldestFirst {
		order = "created_at ASC"
	}
	var list []model.Solution
	err := r.db.Preload("EdTechCompany").Preload("Evidences").
		Where("status = ?", status).
		Order(order).
		Find(&list).Error
	return list, err
}

func (r *solutionRepository) ListAll() ([]model.Solution, error) {
	var list []model.Solution
	err := r.db.Preload("EdTechCompany").Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *solutionRepository) UpdateEditable(id, companyID string, fields map[string]any) (int64, error) {
	res := r.db.Model(&model.Solution{}).
		Where("id = ? AND edtech_company_id = ? AND status IN ?", id, companyID, editableStatuses).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *solutionRepository) MarkPending(id, companyID string) (int64, error) {
	res := r.db.Model(&model.Solution{}).
		Where("id = ? AND edtech_company_id = ? AND status IN ?", id, companyID, editableStatuses).
		Update("status", model.SolutionPending)
	return res.RowsAffected, res.Error
}

func (r *solutionRepository) UpdateStatus(id string, status model.SolutionStatus) (int64, error) {
	res := r.db.Model(&model.Solution{}).Where("id = ?", id).Update("status", status)
	return res.RowsAffected, res.Error
}

func (r *solutionRepository) ApplyApproval(id string, approval Approval) error {
	fields := map[string]any{
		"status":      model.SolutionApproved,
		"approved_at": approval.ApprovedAt,
		"approved_by": approval.ApprovedBy,
	}
	for axis, score := range approval.Scores {
		scoreCol, colorCol := model.ScoreColumn(axis)
		if scoreCol == "" {
			continue
		}
		fields[scoreCol] = score
		fields[colorCol] = approval.Colors[axis]
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Solution{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *solutionRepository) CountByStatus(status model.SolutionStatus) (int64, error) {
	var n int64
	err := r.db.Model(&model.Solution{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *solutionRepository) CountGroupByStatus() ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.Model(&model.Solution{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}
