package model

type Evidence struct {
	Base
	SolutionID  string `json:"solutionId" gorm:"type:varchar(36);not null;index"`
	Type        string `json:"type" gorm:"not null"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	URL         string `json:"url"`
}

func (Evidence) TableName() string { return "evidences" }
