package model

import (
	"time"

	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	SubmissionInProgress SubmissionStatus = "IN_PROGRESS"
	SubmissionSubmitted  SubmissionStatus = "SUBMITTED"
	SubmissionArchived   SubmissionStatus = "ARCHIVED"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionInProgress, SubmissionSubmitted, SubmissionArchived:
		return true
	}
	return false
}

// SubmissionKind tells which questionnaire a submission answers.
type SubmissionKind string

const (
	SubmissionKindEdTech      SubmissionKind = "EDTECH"
	SubmissionKindInstitution SubmissionKind = "INSTITUTION"
)

type ProfileSubmission struct {
	Base
	UserID          string              `json:"userId" gorm:"type:varchar(36);not null;index"`
	EdTechCompanyID *string             `json:"edtechCompanyId" gorm:"type:varchar(36);index"`
	InstitutionID   *string             `json:"institutionId" gorm:"type:varchar(36);index"`
	Kind            SubmissionKind      `json:"kind" gorm:"type:varchar(20);not null;default:EDTECH;index"`
	Answers         datatypes.JSON      `json:"answers" gorm:"type:jsonb"`
	ConsentData     datatypes.JSON      `json:"consentData" gorm:"type:jsonb"`
	SectionProgress datatypes.JSON      `json:"sectionProgress" gorm:"type:jsonb"`
	SummarySnapshot datatypes.JSON      `json:"summarySnapshot" gorm:"type:jsonb"`
	SummaryText     *string             `json:"summaryText" gorm:"type:text"`
	Status          SubmissionStatus    `json:"status" gorm:"type:varchar(20);not null;default:IN_PROGRESS;index"`
	SubmittedAt     *time.Time          `json:"submittedAt"`
	Attachments     []ProfileAttachment `json:"attachments,omitempty" gorm:"foreignKey:SubmissionID"`
	User            *User               `json:"user,omitempty" gorm:"foreignKey:UserID"`
	EdTechCompany   *EdTechCompany      `json:"edtechCompany,omitempty" gorm:"foreignKey:EdTechCompanyID"`
	Institution     *Institution        `json:"institution,omitempty" gorm:"foreignKey:InstitutionID"`
}
