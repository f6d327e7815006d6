package dto

import "github.com/lshigami/nodo-plus/internal/model"

// RegisterRequest carries the account fields plus the profile fields of the
// chosen role. Unused profile fields are ignored.
type RegisterRequest struct {
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,min=6"`
	Role     model.Role `json:"role"`

	Name         string `json:"name"`
	Country      string `json:"country"`
	ContactEmail string `json:"contactEmail"`
	Website      string `json:"website"`

	Type     string `json:"type"`
	Location string `json:"location"`
	Rural    bool   `json:"rural"`

	Organization string `json:"organization"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CompanyUpdateRequest struct {
	Name         *string `json:"name"`
	Country      *string `json:"country"`
	ContactEmail *string `json:"contactEmail" binding:"omitempty,email"`
	Website      *string `json:"website"`
}

// SolutionRequest is used for create and update. Nil fields are left
// untouched on update.
type SolutionRequest struct {
	Name              *string        `json:"name"`
	Description       *string        `json:"description"`
	WebsiteURL        *string        `json:"websiteUrl"`
	Levels            []string       `json:"levels"`
	Areas             []string       `json:"areas"`
	ProductTypes      []string       `json:"productTypes"`
	Contexts          []string       `json:"contexts"`
	Devices           []string       `json:"devices"`
	BusinessModels    []string       `json:"businessModels"`
	Security          []string       `json:"security"`
	Adaptability      []string       `json:"adaptability"`
	PriceRange        *string        `json:"priceRange"`
	QuestionnaireData map[string]any `json:"questionnaireData"`
}

type EvidenceRequest struct {
	Type        string `json:"type" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SolutionQuery holds the catalog listing parameters after parsing.
type SolutionQuery struct {
	Levels       []string
	Areas        []string
	ProductTypes []string
	Contexts     []string
	Devices      []string
	PriceRange   string
	Search       string
	SortBy       string
	SortOrder    string
	Page         int
	Limit        int
}

type ContactRequest struct {
	Message     string `json:"message" binding:"required"`
	ContactInfo string `json:"contactInfo"`
}
