package dto

import (
	"time"

	"github.com/lshigami/nodo-plus/internal/model"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type URLResponse struct {
	URL string `json:"url"`
}

type UserSummary struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

type MeResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
}

// CompanySummary is the public part of a company shown in catalog listings.
type CompanySummary struct {
	Name         string `json:"name"`
	Country      string `json:"country"`
	ContactEmail string `json:"contactEmail"`
}

type CatalogSolution struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	WebsiteURL            string          `json:"websiteUrl"`
	LogoURL               *string         `json:"logoUrl"`
	PedagogicalScore      int             `json:"pedagogicalScore"`
	AdaptabilityScore     int             `json:"adaptabilityScore"`
	ImpactScore           int             `json:"impactScore"`
	OrganizationalScore   int             `json:"organizationalScore"`
	TechnicalQualityScore int             `json:"technicalQualityScore"`
	AffordabilityScore    int             `json:"affordabilityScore"`
	Company               *CompanySummary `json:"edtechCompany,omitempty"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type SolutionListResponse struct {
	Solutions  []CatalogSolution `json:"solutions"`
	Pagination Pagination        `json:"pagination"`
}

type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type AttachmentResponse struct {
	model.ProfileAttachment
	DownloadURL string `json:"downloadUrl"`
}
