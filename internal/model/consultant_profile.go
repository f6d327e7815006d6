package model

type ConsultantProfile struct {
	Base
	UserID       string `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Active       bool   `json:"active" gorm:"not null;default:true"`
	User         *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
