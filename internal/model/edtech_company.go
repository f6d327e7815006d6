package model

type EdTechCompany struct {
	Base
	UserID       string     `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex"`
	Name         string     `json:"name" gorm:"not null"`
	Country      string     `json:"country"`
	ContactEmail string     `json:"contactEmail"`
	Website      string     `json:"website"`
	Solutions    []Solution `json:"solutions,omitempty" gorm:"foreignKey:EdTechCompanyID"`
	User         *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (EdTechCompany) TableName() string { return "edtech_companies" }
