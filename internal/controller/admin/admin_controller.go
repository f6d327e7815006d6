package admin

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/nodo-plus/internal/controller"
	"github.com/lshigami/nodo-plus/internal/dto"
	"github.com/lshigami/nodo-plus/internal/middleware"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/lshigami/nodo-plus/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminController struct {
	adminSvc service.AdminService
	auth     *middleware.Auth
}

func NewAdminController(adminSvc service.AdminService, auth *middleware.Auth) *AdminController {
	return &AdminController{adminSvc: adminSvc, auth: auth}
}

func (ctrl *AdminController) RegisterRoutes(api *gin.RouterGroup) {
	g := api.Group("/admin", ctrl.auth.Authenticate(), ctrl.auth.RequireRole(model.RoleAdmin))
	{
		g.GET("/dashboard", ctrl.Dashboard)
		g.GET("/metrics", ctrl.Metrics)

		g.GET("/pending-profiles", ctrl.PendingProfiles)
		g.GET("/profiles/:id", ctrl.GetProfile)
		g.POST("/profiles/:id/approve", ctrl.Approve)
		g.POST("/profiles/:id/reject", ctrl.Reject)
		g.POST("/profiles/:id/request-changes", ctrl.RequestChanges)

		g.GET("/catalogs", ctrl.ListCatalogs)
		g.POST("/catalogs", ctrl.CreateCatalog)
		g.PUT("/catalogs/:id", ctrl.UpdateCatalog)
		g.DELETE("/catalogs/:id", ctrl.DeleteCatalog)

		g.GET("/traffic-light-rules", ctrl.ListRules)
		g.PUT("/traffic-light-rules", ctrl.ReplaceRules)

		g.GET("/consultants", ctrl.ListConsultants)
		g.POST("/consultants", ctrl.CreateConsultant)
		g.PUT("/consultants/:id/activate", ctrl.ActivateConsultant)
		g.PUT("/consultants/:id/deactivate", ctrl.DeactivateConsultant)

		g.GET("/institutions", ctrl.ListInstitutions)
		g.GET("/institutions/:id", ctrl.GetInstitution)

		g.GET("/submissions", ctrl.ListSubmissions)
		g.GET("/submissions/:id", ctrl.GetSubmission)
		g.PUT("/submissions/:id", ctrl.UpdateSubmission)
		g.POST("/submissions/:id/archive", ctrl.ArchiveSubmission)
		g.POST("/submissions/:id/insights", ctrl.SubmissionInsight)

		g.GET("/export/solutions", ctrl.ExportSolutions)
		g.GET("/export/institutions", ctrl.ExportInstitutions)
	}
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, dst any, handler string) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		log.Warn().Err(err).Msgf("%s: Failed to bind JSON", handler)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body", Details: []string{err.Error()}})
		return false
	}
	return true
}

// Dashboard godoc
// @Summary (Admin) Headline counts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.DashboardResponse
// @Router /admin/dashboard [get]
func (ctrl *AdminController) Dashboard(c *gin.Context) {
	resp, err := ctrl.adminSvc.Dashboard()
	if err != nil {
		controller.RespondError(c, err, "Failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Metrics godoc
// @Summary (Admin) Solutions by status and color distribution
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MetricsResponse
// @Router /admin/metrics [get]
func (ctrl *AdminController) Metrics(c *gin.Context) {
	resp, err := ctrl.adminSvc.Metrics()
	if err != nil {
		controller.RespondError(c, err, "Failed to load metrics")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PendingProfiles godoc
// @Summary (Admin) Solutions waiting for review, oldest first
// @Tags Admin - Review
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Solution
// @Router /admin/pending-profiles [get]
func (ctrl *AdminController) PendingProfiles(c *gin.Context) {
	list, err := ctrl.adminSvc.PendingProfiles()
	if err != nil {
		controller.RespondError(c, err, "Failed to list pending profiles")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetProfile godoc
// @Summary (Admin) Solution under review
// @Tags Admin - Review
// @Produce json
// @Security BearerAuth
// @Param id path string true "Solution ID"
// @Success 200 {object} model.Solution
// @Failure 404 {object} dto.ErrorResponse "Profile not found"
// @Router /admin/profiles/{id} [get]
func (ctrl *AdminController) GetProfile(c *gin.Context) {
	sol, err := ctrl.adminSvc.GetProfile(c.Param("id"))
	if err != nil {
		controller.RespondError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, sol)
}

// Approve godoc
// @Summary (Admin) Approve a solution
// @Description Scores the questionnaire with the active traffic light rules and publishes the solution.
// @Tags Admin - Review
// @Produce json
// @Security BearerAuth
// @Param id path string true "Solution ID"
// @Success 200 {object} model.Solution
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/profiles/{id}/approve [post]
func (ctrl *AdminController) Approve(c *gin.Context) {
	sol, err := ctrl.adminSvc.Approve(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		controller.RespondError(c, err, "Failed to approve profile")
		return
	}
	c.JSON(http.StatusOK, sol)
}

// Reject godoc
// @Summary (Admin) Reject a solution
// @Tags Admin - Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Solution ID"
// @Param reason body dto.RejectRequest false "Reason sent to the company"
// @Success 200 {object} model.Solution
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/profiles/{id}/reject [post]
func (ctrl *AdminController) Reject(c *gin.Context) {
	var req dto.RejectRequest
	if !bindOptionalJSON(c, &req, "Admin Reject") {
		return
	}
	sol, err := ctrl.adminSvc.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		controller.RespondError(c, err, "Failed to reject profile")
		return
	}
	c.JSON(http.StatusOK, sol)
}

// RequestChanges godoc
// @Summary (Admin) Send a solution back to the company
// @Tags Admin - Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Solution ID"
// @Param comments body dto.RequestChangesRequest false "Requested changes"
// @Success 200 {object} model.Solution
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/profiles/{id}/request-changes [post]
func (ctrl *AdminController) RequestChanges(c *gin.Context) {
	var req dto.RequestChangesRequest
	if !bindOptionalJSON(c, &req, "Admin RequestChanges") {
		return
	}
	sol, err := ctrl.adminSvc.RequestChanges(c.Request.Context(), c.Param("id"), req.Comments)
	if err != nil {
		controller.RespondError(c, err, "Failed to request changes")
		return
	}
	c.JSON(http.StatusOK, sol)
}

// ListCatalogs godoc
// @Summary (Admin) Every catalog entry
// @Tags Admin - Catalogs
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Catalog
// @Router /admin/catalogs [get]
func (ctrl *AdminController) ListCatalogs(c *gin.Context) {
	items, err := ctrl.adminSvc.ListCatalogs()
	if err != nil {
		controller.RespondError(c, err, "Failed to list catalogs")
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateCatalog godoc
// @Summary (Admin) Create a catalog entry
// @Tags Admin - Catalogs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param catalog body dto.CatalogRequest true "Catalog entry"
// @Success 201 {object} model.Catalog
// @Failure 409 {object} dto.ErrorResponse "Duplicate value"
// @Router /admin/catalogs [post]
func (ctrl *AdminController) CreateCatalog(c *gin.Context) {
	var req dto.CatalogRequest
	if !controller.BindJSON(c, &req, "Admin CreateCatalog") {
		return
	}
	item, err := ctrl.adminSvc.CreateCatalog(req)
	if err != nil {
		controller.RespondError(c, err, "Failed to create catalog")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateCatalog godoc
// @Summary (Admin) Update a catalog entry
// @Tags Admin - Catalogs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Catalog ID"
// @Param catalog body dto.CatalogRequest true "Catalog entry"
// @Success 200 {object} model.Catalog
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/catalogs/{id} [put]
func (ctrl *AdminController) UpdateCatalog(c *gin.Context) {
	var req dto.CatalogRequest
	if !controller.BindJSON(c, &req, "Admin UpdateCatalog") {
		return
	}
	item, err := ctrl.adminSvc.UpdateCatalog(c.Param("id"), req)
	if err != nil {
		controller.RespondError(c, err, "Failed to update catalog")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteCatalog godoc
// @Summary (Admin) Delete a catalog entry
// @Tags Admin - Catalogs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Catalog ID"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/catalogs/{id} [delete]
func (ctrl *AdminController) DeleteCatalog(c *gin.Context) {
	if err := ctrl.adminSvc.DeleteCatalog(c.Param("id")); err != nil {
		controller.RespondError(c, err, "Failed to delete catalog")
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// ListRules godoc
// @Summary (Admin) Active traffic light rules
// @Tags Admin - Traffic Lights
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.TrafficLightRule
// @Router /admin/traffic-light-rules [get]
func (ctrl *AdminController) ListRules(c *gin.Context) {
	rules, err := ctrl.adminSvc.ListRules()
	if err != nil {
		controller.RespondError(c, err, "Failed to list traffic light rules")
		return
	}
	c.JSON(http.StatusOK, rules)
}

// ReplaceRules godoc
// @Summary (Admin) Replace the active rules of the given axes
// @Tags Admin - Traffic Lights
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rules body dto.TrafficLightRulesRequest true "One rule per axis"
// @Success 200 {array} model.TrafficLightRule
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/traffic-light-rules [put]
func (ctrl *AdminController) ReplaceRules(c *gin.Context) {
	var req dto.TrafficLightRulesRequest
	if !controller.BindJSON(c, &req, "Admin ReplaceRules") {
		return
	}
	rules, err := ctrl.adminSvc.ReplaceRules(req)
	if err != nil {
		controller.RespondError(c, err, "Failed to update traffic light rules")
		return
	}
	c.JSON(http.StatusOK, rules)
}

// ListConsultants godoc
// @Summary (Admin) Consultant accounts
// @Tags Admin - Consultants
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Router /admin/consultants [get]
func (ctrl *AdminController) ListConsultants(c *gin.Context) {
	users, err := ctrl.adminSvc.ListConsultants()
	if err != nil {
		controller.RespondError(c, err, "Failed to list consultants")
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateConsultant godoc
// @Summary (Admin) Create a consultant account
// @Tags Admin - Consultants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param consultant body dto.CreateConsultantRequest true "Consultant"
// @Success 201 {object} model.User
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/consultants [post]
func (ctrl *AdminController) CreateConsultant(c *gin.Context) {
	var req dto.CreateConsultantRequest
	if !controller.BindJSON(c, &req, "Admin CreateConsultant") {
		return
	}
	user, err := ctrl.adminSvc.CreateConsultant(c.Request.Context(), req)
	if err != nil {
		controller.RespondError(c, err, "Failed to create consultant")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ActivateConsultant godoc
// @Summary (Admin) Activate a consultant
// @Tags Admin - Consultants
// @Produce json
// @Security BearerAuth
// @Param id path string true "Consultant user ID"
// @Success 200 {object} model.ConsultantProfile
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/consultants/{id}/activate [put]
func (ctrl *AdminController) ActivateConsultant(c *gin.Context) {
	ctrl.setConsultantActive(c, true)
}

// DeactivateConsultant godoc
// @Summary (Admin) Deactivate a consultant
// @Tags Admin - Consultants
// @Produce json
// @Security BearerAuth
// @Param id path string true "Consultant user ID"
// @Success 200 {object} model.ConsultantProfile
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/consultants/{id}/deactivate [put]
func (ctrl *AdminController) DeactivateConsultant(c *gin.Context) {
	ctrl.setConsultantActive(c, false)
}

func (ctrl *AdminController) setConsultantActive(c *gin.Context, active bool) {
	profile, err := ctrl.adminSvc.SetConsultantActive(c.Param("id"), active)
	if err != nil {
		controller.RespondError(c, err, "Failed to update consultant")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListInstitutions godoc
// @Summary (Admin) Institutions by name
// @Tags Admin - Institutions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Institution
// @Router /admin/institutions [get]
func (ctrl *AdminController) ListInstitutions(c *gin.Context) {
	list, err := ctrl.adminSvc.ListInstitutions()
	if err != nil {
		controller.RespondError(c, err, "Failed to list institutions")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetInstitution godoc
// @Summary (Admin) Institution details
// @Tags Admin - Institutions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Institution ID"
// @Success 200 {object} model.Institution
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/institutions/{id} [get]
func (ctrl *AdminController) GetInstitution(c *gin.Context) {
	inst, err := ctrl.adminSvc.GetInstitution(c.Param("id"))
	if err != nil {
		controller.RespondError(c, err, "Failed to load institution")
		return
	}
	c.JSON(http.StatusOK, inst)
}

// ListSubmissions godoc
// @Summary (Admin) Open profile submissions of both kinds
// @Tags Admin - Submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.ProfileSubmission
// @Router /admin/submissions [get]
func (ctrl *AdminController) ListSubmissions(c *gin.Context) {
	list, err := ctrl.adminSvc.ListSubmissions()
	if err != nil {
		controller.RespondError(c, err, "Failed to list submissions")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetSubmission godoc
// @Summary (Admin) Profile submission with attachments
// @Tags Admin - Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} model.ProfileSubmission
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/submissions/{id} [get]
func (ctrl *AdminController) GetSubmission(c *gin.Context) {
	sub, err := ctrl.adminSvc.GetSubmission(c.Param("id"))
	if err != nil {
		controller.RespondError(c, err, "Failed to load submission")
		return
	}
	c.JSON(http.StatusOK, sub)
}

// UpdateSubmission godoc
// @Summary (Admin) Update a profile submission
// @Description Same partial semantics as the owner update, but any status is accepted.
// @Tags Admin - Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param submission body object true "Partial submission"
// @Success 200 {object} model.ProfileSubmission
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/submissions/{id} [put]
func (ctrl *AdminController) UpdateSubmission(c *gin.Context) {
	body, ok := controller.BindRawObject(c, "Admin UpdateSubmission")
	if !ok {
		return
	}
	sub, err := ctrl.adminSvc.UpdateSubmission(c.Param("id"), body)
	if err != nil {
		controller.RespondError(c, err, "Failed to update submission")
		return
	}
	c.JSON(http.StatusOK, sub)
}

// ArchiveSubmission godoc
// @Summary (Admin) Archive a profile submission
// @Tags Admin - Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} model.ProfileSubmission
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/submissions/{id}/archive [post]
func (ctrl *AdminController) ArchiveSubmission(c *gin.Context) {
	sub, err := ctrl.adminSvc.ArchiveSubmission(c.Param("id"))
	if err != nil {
		controller.RespondError(c, err, "Failed to archive submission")
		return
	}
	c.JSON(http.StatusOK, sub)
}

// SubmissionInsight godoc
// @Summary (Admin) LLM review notes for a submission summary
// @Tags Admin - Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} dto.InsightResponse
// @Failure 400 {object} dto.ErrorResponse "Submission has no summary"
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/submissions/{id}/insights [post]
func (ctrl *AdminController) SubmissionInsight(c *gin.Context) {
	resp, err := ctrl.adminSvc.SubmissionInsight(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.RespondError(c, err, "Failed to generate insight")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportSolutions godoc
// @Summary (Admin) Every solution as CSV
// @Tags Admin - Exports
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Router /admin/export/solutions [get]
func (ctrl *AdminController) ExportSolutions(c *gin.Context) {
	data, err := ctrl.adminSvc.ExportSolutions()
	if err != nil {
		controller.RespondError(c, err, "Failed to export solutions")
		return
	}
	controller.SendCSV(c, "solutions", data)
}

// ExportInstitutions godoc
// @Summary (Admin) Every institution as CSV
// @Tags Admin - Exports
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Router /admin/export/institutions [get]
func (ctrl *AdminController) ExportInstitutions(c *gin.Context) {
	data, err := ctrl.adminSvc.ExportInstitutions()
	if err != nil {
		controller.RespondError(c, err, "Failed to export institutions")
		return
	}
	controller.SendCSV(c, "institutions", data)
}
