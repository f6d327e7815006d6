package user

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/nodo-plus/config"
	"github.com/lshigami/nodo-plus/internal/controller"
	"github.com/lshigami/nodo-plus/internal/dto"
	"github.com/lshigami/nodo-plus/internal/middleware"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/lshigami/nodo-plus/internal/service"
	"github.com/lshigami/nodo-plus/internal/survey"
	"github.com/rs/zerolog/log"
)

// multipartOverhead is allowed on top of the file size for the other form
// parts and boundaries.
const multipartOverhead = 1 << 20

// SubmissionController serves one questionnaire kind.
type SubmissionController struct {
	submissionSvc service.ProfileSubmissionService
	auth          *middleware.Auth
	maxUpload     int64
}

// SubmissionControllers pairs the controllers of both questionnaire kinds.
type SubmissionControllers struct {
	EdTech      *SubmissionController
	Institution *SubmissionController
}

func NewSubmissionControllers(services service.SubmissionServices, auth *middleware.Auth, cfg *config.Config) SubmissionControllers {
	return SubmissionControllers{
		EdTech:      &SubmissionController{submissionSvc: services.EdTech, auth: auth, maxUpload: cfg.Storage.MaxUploadBytes},
		Institution: &SubmissionController{submissionSvc: services.Institution, auth: auth, maxUpload: cfg.Storage.MaxUploadBytes},
	}
}

func (s SubmissionControllers) RegisterRoutes(api *gin.RouterGroup) {
	s.EdTech.RegisterRoutes(api)
	s.Institution.RegisterRoutes(api)
}

// RegisterRoutes mounts /profile-submissions for companies and
// /institution-profile-submissions for institutions.
func (ctrl *SubmissionController) RegisterRoutes(api *gin.RouterGroup) {
	path, role := "/profile-submissions", model.RoleEdTech
	if ctrl.submissionSvc.Kind() == model.SubmissionKindInstitution {
		path, role = "/institution-profile-submissions", model.RoleIE
	}
	g := api.Group(path, ctrl.auth.Authenticate(), ctrl.auth.RequireRole(role, model.RoleAdmin))
	{
		g.GET("/current", ctrl.GetCurrent)
		g.POST("", ctrl.Create)
		g.GET("/:id", ctrl.GetByID)
		g.PUT("/:id", ctrl.Update)
		g.POST("/:id/attachments", ctrl.UploadAttachment)
		g.DELETE("/:id/attachments/:attachmentId", ctrl.DeleteAttachment)
		g.GET("/:id/attachments/:attachmentId/url", ctrl.GetAttachmentURL)
	}
}

// GetCurrent godoc
// @Summary Current profile submission
// @Description Most recent non archived submission of the caller, or null.
// @Tags Profile Submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.ProfileSubmission
// @Router /profile-submissions/current [get]
// @Router /institution-profile-submissions/current [get]
func (ctrl *SubmissionController) GetCurrent(c *gin.Context) {
	sub, err := ctrl.submissionSvc.GetCurrent(middleware.UserID(c))
	if err != nil {
		controller.RespondError(c, err, "Failed to load profile submission")
		return
	}
	if sub == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Create godoc
// @Summary Start a profile submission
// @Tags Profile Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param submission body object false "Initial answers, consentData, sectionProgress, summarySnapshot, summaryText"
// @Success 201 {object} model.ProfileSubmission
// @Router /profile-submissions [post]
// @Router /institution-profile-submissions [post]
func (ctrl *SubmissionController) Create(c *gin.Context) {
	body, ok := controller.BindRawObject(c, "Submission Create")
	if !ok {
		return
	}
	sub, err := ctrl.submissionSvc.Create(middleware.UserID(c), body)
	if err != nil {
		controller.RespondError(c, err, "Failed to create profile submission")
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// GetByID godoc
// @Summary Get an owned profile submission
// @Tags Profile Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} model.ProfileSubmission
// @Failure 404 {object} dto.ErrorResponse
// @Router /profile-submissions/{id} [get]
// @Router /institution-profile-submissions/{id} [get]
func (ctrl *SubmissionController) GetByID(c *gin.Context) {
	sub, err := ctrl.submissionSvc.GetByID(middleware.UserID(c), c.Param("id"))
	if err != nil {
		controller.RespondError(c, err, "Failed to load profile submission")
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Update godoc
// @Summary Update a profile submission
// @Description Absent fields keep their value; null resets objects to {} and summaryText to null. status accepts IN_PROGRESS and SUBMITTED.
// @Tags Profile Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param submission body object true "Partial submission"
// @Success 200 {object} model.ProfileSubmission
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /profile-submissions/{id} [put]
// @Router /institution-profile-submissions/{id} [put]
func (ctrl *SubmissionController) Update(c *gin.Context) {
	body, ok := controller.BindRawObject(c, "Submission Update")
	if !ok {
		return
	}
	sub, err := ctrl.submissionSvc.Update(middleware.UserID(c), c.Param("id"), body)
	if err != nil {
		controller.RespondError(c, err, "Failed to update profile submission")
		return
	}
	c.JSON(http.StatusOK, sub)
}

// UploadAttachment godoc
// @Summary Upload a file answer
// @Tags Profile Submissions
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param questionId formData string true "Question the file answers"
// @Param file formData file true "File"
// @Success 201 {object} dto.AttachmentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /profile-submissions/{id}/attachments [post]
// @Router /institution-profile-submissions/{id}/attachments [post]
func (ctrl *SubmissionController) UploadAttachment(c *gin.Context) {
	if ctrl.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ctrl.maxUpload+multipartOverhead)
	}
	header, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: fmt.Sprintf("File exceeds the maximum size of %s", survey.FormatBytes(ctrl.maxUpload)),
		})
		return
	}
	upload := service.AttachmentUpload{QuestionID: c.PostForm("questionId")}
	if err == nil {
		file, openErr := header.Open()
		if openErr != nil {
			controller.RespondError(c, openErr, "Failed to read upload")
			return
		}
		defer file.Close()
		upload.Filename = header.Filename
		upload.ContentType = header.Header.Get("Content-Type")
		upload.Size = header.Size
		upload.Body = file
	} else {
		log.Debug().Err(err).Msg("Attachment upload without file")
	}

	resp, err := ctrl.submissionSvc.UploadAttachment(c.Request.Context(), middleware.UserID(c), c.Param("id"), upload)
	if err != nil {
		controller.RespondError(c, err, "Failed to upload attachment")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// DeleteAttachment godoc
// @Summary Delete an uploaded file
// @Tags Profile Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param attachmentId path string true "Attachment ID"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /profile-submissions/{id}/attachments/{attachmentId} [delete]
// @Router /institution-profile-submissions/{id}/attachments/{attachmentId} [delete]
func (ctrl *SubmissionController) DeleteAttachment(c *gin.Context) {
	err := ctrl.submissionSvc.DeleteAttachment(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("attachmentId"))
	if err != nil {
		controller.RespondError(c, err, "Failed to delete attachment")
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// GetAttachmentURL godoc
// @Summary Signed download URL of an uploaded file
// @Tags Profile Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param attachmentId path string true "Attachment ID"
// @Success 200 {object} dto.URLResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /profile-submissions/{id}/attachments/{attachmentId}/url [get]
// @Router /institution-profile-submissions/{id}/attachments/{attachmentId}/url [get]
func (ctrl *SubmissionController) GetAttachmentURL(c *gin.Context) {
	url, err := ctrl.submissionSvc.GetAttachmentURL(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("attachmentId"))
	if err != nil {
		controller.RespondError(c, err, "Failed to sign attachment URL")
		return
	}
	c.JSON(http.StatusOK, dto.URLResponse{URL: url})
}
