package model

import (
	"time"

	"gorm.io/datatypes"
)

type SolutionStatus string

const (
	SolutionDraft            SolutionStatus = "DRAFT"
	SolutionPending          SolutionStatus = "PENDING"
	SolutionApproved         SolutionStatus = "APPROVED"
	SolutionRejected         SolutionStatus = "REJECTED"
	SolutionChangesRequested SolutionStatus = "CHANGES_REQUESTED"
)

// Editable reports whether the owner may still change the solution.
func (s SolutionStatus) Editable() bool {
	return s == SolutionDraft || s == SolutionChangesRequested
}

type Color string

const (
	ColorRed    Color = "RED"
	ColorYellow Color = "YELLOW"
	ColorGreen  Color = "GREEN"
)

// Evaluation axes.
const (
	AxisPedagogical      = "pedagogical"
	AxisAdaptability     = "adaptability"
	AxisImpact           = "impact"
	AxisOrganizational   = "organizational"
	AxisTechnicalQuality = "technicalQuality"
	AxisAffordability    = "affordability"
)

// Axes lists every axis in display order.
var Axes = []string{
	AxisPedagogical,
	AxisAdaptability,
	AxisImpact,
	AxisOrganizational,
	AxisTechnicalQuality,
	AxisAffordability,
}

func ValidAxis(axis string) bool {
	for _, a := range Axes {
		if a == axis {
			return true
		}
	}
	return false
}

type Solution struct {
	Base
	EdTechCompanyID string                      `json:"edtechCompanyId" gorm:"type:varchar(36);not null;index"`
	Name            string                      `json:"name" gorm:"not null"`
	Description     string                      `json:"description" gorm:"type:text"`
	WebsiteURL      string                      `json:"websiteUrl"`
	LogoURL         *string                     `json:"logoUrl"`
	Levels          datatypes.JSONSlice[string] `json:"levels" gorm:"type:jsonb"`
	Areas           datatypes.JSONSlice[string] `json:"areas" gorm:"type:jsonb"`
	ProductTypes    datatypes.JSONSlice[string] `json:"productTypes" gorm:"type:jsonb"`
	Contexts        datatypes.JSONSlice[string] `json:"contexts" gorm:"type:jsonb"`
	Devices         datatypes.JSONSlice[string] `json:"devices" gorm:"type:jsonb"`
	BusinessModels  datatypes.JSONSlice[string] `json:"businessModels" gorm:"type:jsonb"`
	Security        datatypes.JSONSlice[string] `json:"security" gorm:"type:jsonb"`
	Adaptability    datatypes.JSONSlice[string] `json:"adaptability" gorm:"type:jsonb"`
	PriceRange      string                      `json:"priceRange"`
	Status          SolutionStatus              `json:"status" gorm:"type:varchar(30);not null;default:DRAFT;index"`

	PedagogicalScore      int   `json:"pedagogicalScore" gorm:"not null;default:0"`
	PedagogicalColor      Color `json:"pedagogicalColor" gorm:"type:varchar(10);not null;default:RED"`
	AdaptabilityScore     int   `json:"adaptabilityScore" gorm:"not null;default:0"`
	AdaptabilityColor     Color `json:"adaptabilityColor" gorm:"type:varchar(10);not null;default:RED"`
	ImpactScore           int   `json:"impactScore" gorm:"not null;default:0"`
	ImpactColor           Color `json:"impactColor" gorm:"type:varchar(10);not null;default:RED"`
	OrganizationalScore   int   `json:"organizationalScore" gorm:"not null;default:0"`
	OrganizationalColor   Color `json:"organizationalColor" gorm:"type:varchar(10);not null;default:RED"`
	TechnicalQualityScore int   `json:"technicalQualityScore" gorm:"not null;default:0"`
	TechnicalQualityColor Color `json:"technicalQualityColor" gorm:"type:varchar(10);not null;default:RED"`
	AffordabilityScore    int   `json:"affordabilityScore" gorm:"not null;default:0"`
	AffordabilityColor    Color `json:"affordabilityColor" gorm:"type:varchar(10);not null;default:RED"`

	ApprovedAt        *time.Time     `json:"approvedAt"`
	ApprovedBy        *string        `json:"approvedBy" gorm:"type:varchar(36)"`
	QuestionnaireData datatypes.JSON `json:"questionnaireData" gorm:"type:jsonb"`

	EdTechCompany *EdTechCompany `json:"edtechCompany,omitempty" gorm:"foreignKey:EdTechCompanyID"`
	Evidences     []Evidence     `json:"evidences,omitempty" gorm:"foreignKey:SolutionID"`
}

// AxisScore returns the stored score and color of an axis.
func (s *Solution) AxisScore(axis string) (int, Color) {
	switch axis {
	case AxisPedagogical:
		return s.PedagogicalScore, s.PedagogicalColor
	case AxisAdaptability:
		return s.AdaptabilityScore, s.AdaptabilityColor
	case AxisImpact:
		return s.ImpactScore, s.ImpactColor
	case AxisOrganizational:
		return s.OrganizationalScore, s.OrganizationalColor
	case AxisTechnicalQuality:
		return s.TechnicalQualityScore, s.TechnicalQualityColor
	case AxisAffordability:
		return s.AffordabilityScore, s.AffordabilityColor
	}
	return 0, ColorRed
}

// SetAxisScore stores score and color for an axis. Unknown axes are ignored.
func (s *Solution) SetAxisScore(axis string, score int, color Color) {
	switch axis {
	case AxisPedagogical:
		s.PedagogicalScore, s.PedagogicalColor = score, color
	case AxisAdaptability:
		s.AdaptabilityScore, s.AdaptabilityColor = score, color
	case AxisImpact:
		s.ImpactScore, s.ImpactColor = score, color
	case AxisOrganizational:
		s.OrganizationalScore, s.OrganizationalColor = score, color
	case AxisTechnicalQuality:
		s.TechnicalQualityScore, s.TechnicalQualityColor = score, color
	case AxisAffordability:
		s.AffordabilityScore, s.AffordabilityColor = score, color
	}
}

// ScoreColumn maps an axis to its score and color column names.
func ScoreColumn(axis string) (score, color string) {
	switch axis {
	case AxisPedagogical:
		return "pedagogical_score", "pedagogical_color"
	case AxisAdaptability:
		return "adaptability_score", "adaptability_color"
	case AxisImpact:
		return "impact_score", "impact_color"
	case AxisOrganizational:
		return "organizational_score", "organizational_color"
	case AxisTechnicalQuality:
		return "technical_quality_score", "technical_quality_color"
	case AxisAffordability:
		return "affordability_score", "affordability_color"
	}
	return "", ""
}
