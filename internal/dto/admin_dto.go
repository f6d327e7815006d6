package dto

import "github.com/lshigami/nodo-plus/internal/model"

type DashboardStats struct {
	Edtechs      int64 `json:"edtechs"`
	Solutions    int64 `json:"solutions"`
	Institutions int64 `json:"institutions"`
	Pending      int64 `json:"pending"`
}

type DashboardResponse struct {
	Stats DashboardStats `json:"stats"`
}

// MetricsResponse counts solutions by status and, for approved solutions,
// colors per axis.
type MetricsResponse struct {
	SolutionsByStatus map[model.SolutionStatus]int64 `json:"solutionsByStatus"`
	ColorsByAxis      map[string]map[model.Color]int `json:"colorsByAxis"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type RequestChangesRequest struct {
	Comments string `json:"comments"`
}

type CatalogRequest struct {
	Type   string `json:"type" binding:"required"`
	Label  string `json:"label" binding:"required"`
	Value  string `json:"value" binding:"required"`
	Order  int    `json:"order"`
	Active *bool  `json:"active"`
}

type TrafficLightRuleRequest struct {
	Axis            string             `json:"axis" binding:"required"`
	ThresholdRed    int                `json:"thresholdRed" binding:"min=0,max=100"`
	ThresholdYellow int                `json:"thresholdYellow" binding:"min=0,max=100"`
	Weights         map[string]float64 `json:"weights"`
}

type TrafficLightRulesRequest struct {
	Rules []TrafficLightRuleRequest `json:"rules" binding:"required,min=1,dive"`
}

type InsightResponse struct {
	SubmissionID string `json:"submissionId"`
	Insight      string `json:"insight"`
	Generated    bool   `json:"generated"`
}

type CreateConsultantRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	Name         string `json:"name" binding:"required"`
	Organization string `json:"organization"`
}
