package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/nodo-plus/internal/controller"
	"github.com/lshigami/nodo-plus/internal/dto"
	"github.com/lshigami/nodo-plus/internal/middleware"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/lshigami/nodo-plus/internal/service"
)

// logoFormLimit bounds the multipart body of a logo upload.
const logoFormLimit = 10 << 20

type EdTechController struct {
	edtechSvc service.EdTechService
	auth      *middleware.Auth
}

func NewEdTechController(edtechSvc service.EdTechService, auth *middleware.Auth) *EdTechController {
	return &EdTechController{edtechSvc: edtechSvc, auth: auth}
}

func (ctrl *EdTechController) RegisterRoutes(api *gin.RouterGroup) {
	g := api.Group("/edtech", ctrl.auth.Authenticate(), ctrl.auth.RequireRole(model.RoleEdTech, model.RoleAdmin))
	{
		g.GET("/profile", ctrl.GetProfile)
		g.PUT("/profile", ctrl.UpdateProfile)
		g.GET("/solutions", ctrl.ListSolutions)
		g.POST("/solutions", ctrl.CreateSolution)
		g.GET("/solutions/:id", ctrl.GetSolution)
		g.PUT("/solutions/:id", ctrl.UpdateSolution)
		g.POST("/solutions/:id/submit", ctrl.SubmitSolution)
		g.GET("/solutions/:id/preview", ctrl.GetSolution)
		g.POST("/solutions/:id/logo", ctrl.UploadLogo)
		g.POST("/solutions/:id/evidences", ctrl.AddEvidence)
		g.DELETE("/solutions/:id/evidences/:evidenceId", ctrl.DeleteEvidence)
	}
}

// GetProfile godoc
// @Summary (EdTech) Company profile with its solutions
// @Tags EdTech
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.EdTechCompany
// @Failure 404 {object} dto.ErrorResponse "Company not found"
// @Router /edtech/profile [get]
func (ctrl *EdTechController) GetProfile(c *gin.Context) {
	company, err := ctrl.edtechSvc.GetProfile(middleware.UserID(c))
	if err != nil {
		controller.RespondError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, company)
}

// UpdateProfile godoc
// @Summary (EdTech) Update company profile
// @Tags EdTech
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body dto.CompanyUpdateRequest true "Fields to change"
// @Success 200 {object} model.EdTechCompany
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /edtech/profile [put]
func (ctrl *EdTechController) UpdateProfile(c *gin.Context) {
	var req dto.CompanyUpdateRequest
	if !controller.BindJSON(c, &req, "EdTech UpdateProfile") {
		return
	}
	company, err := ctrl.edtechSvc.UpdateProfile(middleware.UserID(c), req)
	if err != nil {
		controller.RespondError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, company)
}

// ListSolutions godoc
// @Summary (EdTech) Solutions of the caller's company
// @Tags EdTech
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Solution
// @Router /edtech/solutions [get]
func (ctrl *EdTechController) ListSolutions(c *gin.Context) {
	list, err := ctrl.edtechSvc.ListSolutions(middleware.UserID(c))
	if err != nil {
		controller.RespondError(c, err, "Failed to list solutions")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateSolution godoc
// @Summary (EdTech) Create a draft solution
// @Tags EdTech
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param solution body dto.SolutionRequest true "Solution data"
// @Success 201 {object} model.Solution
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Company not found"
// @Router /edtech/solutions [post]
func (ctrl *EdTechController) CreateSolution(c *gin.Context) {
	var req dto.SolutionRequest
	if !controller.BindJSON(c, &req, "EdTech CreateSolution") {
		return
	}
	sol, err := ctrl.edtechSvc.CreateSolution(middleware.UserID(c), req)
	if err != nil {
		controller.RespondError(c, err, "Failed to create solution")
		return
	}
	c.JSON(http.StatusCreated, sol)
}

// GetSolution godoc
// @Summary (EdTech) Get or preview an owned solution
// @Tags EdTech
// @Produce json
// @Security BearerAuth
// @Param id path string true "Solution ID"
// @Success 200 {object} model.Solution
// @Failure 404 {object} dto.ErrorResponse
// @Router /edtech/solutions/{id} [get]
// @Router /edtech/solutions/{id}/preview [get]
func (ctrl *EdTechController) GetSolution(c *gin.Context) {
	sol, err := ctrl.edtechSvc.GetSolution(middleware.UserID(c), c.Param("id"))
	if err != nil {
		controller.RespondError(c, err, "Failed to load solution")
		return
	}
	c.JSON(http.StatusOK, sol)
}

// UpdateSolution godoc
// @Summary (EdTech) Update a draft or changes-requested solution
// @Tags EdTech
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Solution ID"
// @Param solution body dto.SolutionRequest true "Fields to change"
// @Success 200 {object} model.Solution
// @Failure 404 {object} dto.ErrorResponse "Solution not found or cannot be edited"
// @Router /edtech/solutions/{id} [put]
func (ctrl *EdTechController) UpdateSolution(c *gin.Context) {
	var req dto.SolutionRequest
	if !controller.BindJSON(c, &req, "EdTech UpdateSolution") {
		return
	}
	sol, err := ctrl.edtechSvc.UpdateSolution(middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		controller.RespondError(c, err, "Failed to update solution")
		return
	}
	c.JSON(http.StatusOK, sol)
}

// SubmitSolution godoc
// @Summary (EdTech) Send a solution for review
// @Tags EdTech
// @Produce json
// @Security BearerAuth
// @Param id path string true "Solution ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /edtech/solutions/{id}/submit [post]
func (ctrl *EdTechController) SubmitSolution(c *gin.Context) {
	if err := ctrl.edtechSvc.SubmitSolution(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		controller.RespondError(c, err, "Failed to submit solution")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Solution submitted for review"})
}

// UploadLogo godoc
// @Summary (EdTech) Upload a solution logo
// @Description The image is fitted into 512x512 and stored as PNG.
// @Tags EdTech
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Solution ID"
// @Param file formData file true "Logo image"
// @Success 200 {object} model.Solution
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /edtech/solutions/{id}/logo [post]
func (ctrl *EdTechController) UploadLogo(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, logoFormLimit)
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "No file uploaded", Details: []string{err.Error()}})
		return
	}
	file, err := header.Open()
	if err != nil {
		controller.RespondError(c, err, "Failed to read upload")
		return
	}
	defer file.Close()

	sol, err := ctrl.edtechSvc.UploadLogo(c.Request.Context(), middleware.UserID(c), c.Param("id"), file)
	if err != nil {
		controller.RespondError(c, err, "Failed to upload logo")
		return
	}
	c.JSON(http.StatusOK, sol)
}

// AddEvidence godoc
// @Summary (EdTech) Attach evidence to a solution
// @Tags EdTech
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Solution ID"
// @Param evidence body dto.EvidenceRequest true "Evidence"
// @Success 201 {object} model.Evidence
// @Failure 404 {object} dto.ErrorResponse
// @Router /edtech/solutions/{id}/evidences [post]
func (ctrl *EdTechController) AddEvidence(c *gin.Context) {
	var req dto.EvidenceRequest
	if !controller.BindJSON(c, &req, "EdTech AddEvidence") {
		return
	}
	ev, err := ctrl.edtechSvc.AddEvidence(middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		controller.RespondError(c, err, "Failed to add evidence")
		return
	}
	c.JSON(http.StatusCreated, ev)
}

// DeleteEvidence godoc
// @Summary (EdTech) Remove evidence from a solution
// @Tags EdTech
// @Produce json
// @Security BearerAuth
// @Param id path string true "Solution ID"
// @Param evidenceId path string true "Evidence ID"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /edtech/solutions/{id}/evidences/{evidenceId} [delete]
func (ctrl *EdTechController) DeleteEvidence(c *gin.Context) {
	if err := ctrl.edtechSvc.DeleteEvidence(middleware.UserID(c), c.Param("id"), c.Param("evidenceId")); err != nil {
		controller.RespondError(c, err, "Failed to delete evidence")
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
