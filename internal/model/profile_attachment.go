package model

import "time"

// ProfileAttachment is the metadata row of a blob stored in object storage.
// FileURL holds the storage key, never a public URL.
type ProfileAttachment struct {
	Base
	SubmissionID    string    `json:"submissionId" gorm:"type:varchar(36);not null;index"`
	QuestionID      string    `json:"questionId" gorm:"not null"`
	Filename        string    `json:"filename" gorm:"not null"`
	FileURL         string    `json:"fileUrl" gorm:"not null"`
	ContentType     *string   `json:"contentType"`
	SizeBytes       *int64    `json:"sizeBytes"`
	StorageProvider string    `json:"storageProvider" gorm:"not null;default:r2"`
	UploadedAt      time.Time `json:"uploadedAt" gorm:"not null"`
}
