package model

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleEdTech     Role = "EDTECH"
	RoleIE         Role = "IE"
	RoleConsultant Role = "CONSULTANT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEdTech, RoleIE, RoleConsultant:
		return true
	}
	return false
}

// User is an account. A nil Password marks a social-login-only account.
type User struct {
	Base
	Email             string             `json:"email" gorm:"not null;uniqueIndex"`
	Password          *string            `json:"-"`
	Role              Role               `json:"role" gorm:"type:varchar(20);not null;index"`
	EdTechCompany     *EdTechCompany     `json:"edtechCompany,omitempty" gorm:"foreignKey:UserID"`
	Institution       *Institution       `json:"institution,omitempty" gorm:"foreignKey:UserID"`
	ConsultantProfile *ConsultantProfile `json:"consultantProfile,omitempty" gorm:"foreignKey:UserID"`
}
