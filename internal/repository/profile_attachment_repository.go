package repository

import (
	"github.com/lshigami/nodo-plus/internal/model"
	"gorm.io/gorm"
)

type ProfileAttachmentRepository interface {
	Create(att *model.ProfileAttachment) error
	FindForSubmission(id, submissionID string) (*model.ProfileAttachment, error)
	Delete(id string) error
	CountForSubmission(submissionID string) (int64, error)
}

type profileAttachmentRepository struct {
	db *gorm.DB
}

func NewProfileAttachmentRepository(db *gorm.DB) ProfileAttachmentRepository {
	return &profileAttachmentRepository{db: db}
}

func (r *profileAttachmentRepository) Create(att *model.ProfileAttachment) error {
	return r.db.Create(att).Error
}

func (r *profileAttachmentRepository) FindForSubmission(id, submissionID string) (*model.ProfileAttachment, error) {
	var att model.ProfileAttachment
	err := r.db.Where("id = ? AND submission_id = ?", id, submissionID).First(&att).Error
	return &att, err
}

func (r *profileAttachmentRepository) Delete(id string) error {
	return r.db.Delete(&model.ProfileAttachment{}, "id = ?", id).Error
}

func (r *profileAttachmentRepository) CountForSubmission(submissionID string) (int64, error) {
	var n int64
	err := r.db.Model(&model.ProfileAttachment{}).Where("submission_id = ?", submissionID).Count(&n).Error
	return n, err
}
