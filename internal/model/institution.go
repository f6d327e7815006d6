package model

import (
	"time"

	"gorm.io/datatypes"
)

type InstitutionStatus string

const (
	InstitutionPending  InstitutionStatus = "PENDING"
	InstitutionApproved InstitutionStatus = "APPROVED"
	InstitutionRejected InstitutionStatus = "REJECTED"
)

type Institution struct {
	Base
	UserID               string            `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex"`
	Name                 string            `json:"name" gorm:"not null;index"`
	Type                 string            `json:"type"`
	Location             string            `json:"location"`
	Rural                bool              `json:"rural" gorm:"not null;default:false"`
	Status               InstitutionStatus `json:"status" gorm:"type:varchar(20);not null;default:PENDING"`
	CharacterizationData datatypes.JSON    `json:"characterizationData" gorm:"type:jsonb"`
	ApprovedAt           *time.Time        `json:"approvedAt,omitempty"`
	User                 *User             `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
