package repository

import (
	"github.com/lshigami/nodo-plus/internal/model"
	"gorm.io/gorm"
)

type ProfileSubmissionRepository interface {
	Create(sub *model.ProfileSubmission) error
	// FindCurrent returns the newest non archived submission of a kind.
	FindCurrent(userID string, kind model.SubmissionKind) (*model.ProfileSubmission, error)
	FindForUser(id, userID string, kind model.SubmissionKind) (*model.ProfileSubmission, error)
	FindByID(id string) (*model.ProfileSubmission, error)
	// Save writes the mutable columns of sub.
	Save(sub *model.ProfileSubmission) error
	ListActive() ([]model.ProfileSubmission, error)
	Archive(id string) (int64, error)
}

type profileSubmissionRepository struct {
	db *gorm.DB
}

func attachmentsByUpload(db *gorm.DB) *gorm.DB {
	return db.Order("uploaded_at ASC")
}

func NewProfileSubmissionRepository(db *gorm.DB) ProfileSubmissionRepository {
	return &profileSubmissionRepository{db: db}
}

func (r *profileSubmissionRepository) Create(sub *model.ProfileSubmission) error {
	return r.db.Create(sub).Error
}

func (r *profileSubmissionRepository) FindCurrent(userID string, kind model.SubmissionKind) (*model.ProfileSubmission, error) {
	var sub model.ProfileSubmission
	err := r.db.Preload("Attachments", attachmentsByUpload).
		Where("user_id = ? AND kind = ? AND status <> ?", userID, kind, model.SubmissionArchived).
		Order("created_at DESC").
		First(&sub).Error
	return &sub, err
}

func (r *profileSubmissionRepository) FindForUser(id, userID string, kind model.SubmissionKind) (*model.ProfileSubmission, error) {
	var sub model.ProfileSubmission
	err := r.db.Preload("Attachments", attachmentsByUpload).
		Where("id = ? AND user_id = ? AND kind = ?", id, userID, kind).
		First(&sub).Error
	return &sub, err
}

func (r *profileSubmissionRepository) FindByID(id string) (*model.ProfileSubmission, error) {
	var sub model.ProfileSubmission
	err := r.db.Preload("Attachments", attachmentsByUpload).
		Preload("User", userSummary).
		Preload("EdTechCompany").
		Preload("Institution").
		First(&sub, "id = ?", id).Error
	return &sub, err
}

func (r *profileSubmissionRepository) Save(sub *model.ProfileSubmission) error {
	return r.db.Model(sub).
		Select("answers", "consent_data", "section_progress", "summary_snapshot", "summary_text", "status", "submitted_at").
		Updates(sub).Error
}

func (r *profileSubmissionRepository) ListActive() ([]model.ProfileSubmission, error) {
	var list []model.ProfileSubmission
	err := r.db.Preload("User", userSummary).
		Preload("EdTechCompany").
		Preload("Institution").
		Where("status <> ?", model.SubmissionArchived).
		Order("updated_at DESC").
		Find(&list).Error
	return list, err
}

func (r *profileSubmissionRepository) Archive(id string) (int64, error) {
	res := r.db.Model(&model.ProfileSubmission{}).Where("id = ?", id).Update("status", model.SubmissionArchived)
	return res.RowsAffected, res.Error
}
