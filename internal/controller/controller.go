// Package controller holds the HTTP handlers shared by every client: auth,
// the public catalog, questionnaire definitions and the health probe. The
// admin and user subpackages build on the helpers defined here.
package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/nodo-plus/internal/dto"
	"github.com/lshigami/nodo-plus/internal/middleware"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/lshigami/nodo-plus/internal/service"
	"github.com/lshigami/nodo-plus/internal/storage"
	"github.com/lshigami/nodo-plus/internal/survey"
	"github.com/rs/zerolog/log"
)

type Controller struct {
	authSvc    service.AuthService
	catalogSvc service.CatalogService
	auth       *middleware.Auth
}

func NewController(authSvc service.AuthService, catalogSvc service.CatalogService, auth *middleware.Auth) *Controller {
	return &Controller{authSvc: authSvc, catalogSvc: catalogSvc, auth: auth}
}

func (ctrl *Controller) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/health", ctrl.Health)

	auth := api.Group("/auth")
	{
		auth.POST("/register", ctrl.Register)
		auth.POST("/login", ctrl.Login)
		auth.POST("/forgot-password", ctrl.ForgotPassword)
		auth.POST("/reset-password", ctrl.ResetPassword)
		auth.GET("/me", ctrl.auth.Authenticate(), ctrl.Me)
	}

	catalog := api.Group("/catalog")
	{
		catalog.GET("/solutions", ctrl.ListSolutions)
		catalog.GET("/solutions/:id", ctrl.GetSolution)
		catalog.GET("/filters", ctrl.GetFilters)
		catalog.POST("/solutions/:id/contact", ctrl.ContactEdTech)
		catalog.GET("/export", ctrl.auth.Authenticate(), ctrl.auth.RequireRole(model.RoleConsultant, model.RoleAdmin), ctrl.ExportCatalog)
	}

	api.GET("/surveys/:kind", ctrl.GetSurvey)
}

// RespondError writes err as JSON. Service errors carry their own status
// and message; anything else is a 500 described by failure.
func RespondError(c *gin.Context, err error, failure string) {
	if se, ok := service.AsServiceError(err); ok {
		c.JSON(StatusFor(se.Code), dto.ErrorResponse{Error: se.Message})
		return
	}
	if errors.Is(err, storage.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "File storage is not configured"})
		return
	}
	log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.FullPath()).Msg(failure)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: failure, Details: []string{err.Error()}})
}

func StatusFor(code service.ErrorCode) int {
	switch code {
	case service.ErrorInvalid:
		return http.StatusBadRequest
	case service.ErrorUnauthorized:
		return http.StatusUnauthorized
	case service.ErrorForbidden:
		return http.StatusForbidden
	case service.ErrorNotFound:
		return http.StatusNotFound
	case service.ErrorConflict:
		return http.StatusConflict
	case service.ErrorNotImplemented:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// BindJSON binds and validates the body into dst, answering 400 on failure.
func BindJSON(c *gin.Context, dst any, handler string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.Warn().Err(err).Msgf("%s: Failed to bind JSON", handler)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body", Details: []string{err.Error()}})
		return false
	}
	return true
}

// BindRawObject decodes the body as a JSON object and keeps each member
// undecoded, so absent keys and explicit nulls stay distinguishable. An
// empty body is an empty object.
func BindRawObject(c *gin.Context, handler string) (map[string]json.RawMessage, bool) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warn().Err(err).Msgf("%s: Failed to read body", handler)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body", Details: []string{err.Error()}})
		return nil, false
	}
	body := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return body, true
	}
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		if err == nil {
			err = errors.New("body must be a JSON object")
		}
		log.Warn().Err(err).Msgf("%s: Failed to bind JSON", handler)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body", Details: []string{err.Error()}})
		return nil, false
	}
	return body, true
}

// SendCSV answers with data as a downloadable CSV file.
func SendCSV(c *gin.Context, name string, data []byte) {
	filename := fmt.Sprintf("%s-%s.csv", name, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// Health godoc
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (ctrl *Controller) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

// Register godoc
// @Summary Register a new account
// @Description Creates the user and the profile of its role (EDTECH company, IE institution or CONSULTANT profile). ADMIN cannot self-register.
// @Tags Auth
// @Accept json
// @Produce json
// @Param account body dto.RegisterRequest true "Account and profile fields"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid body, role or duplicate email"
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/register [post]
func (ctrl *Controller) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !BindJSON(c, &req, "Register") {
		return
	}
	resp, err := ctrl.authSvc.Register(req)
	if err != nil {
		RespondError(c, err, "Registration failed")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials or social login account"
// @Router /auth/login [post]
func (ctrl *Controller) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !BindJSON(c, &req, "Login") {
		return
	}
	resp, err := ctrl.authSvc.Login(req)
	if err != nil {
		RespondError(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me godoc
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MeResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (ctrl *Controller) Me(c *gin.Context) {
	resp, err := ctrl.authSvc.Me(middleware.UserID(c))
	if err != nil {
		RespondError(c, err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ForgotPassword godoc
// @Summary Request a password reset (not implemented)
// @Tags Auth
// @Produce json
// @Failure 501 {object} dto.ErrorResponse
// @Router /auth/forgot-password [post]
func (ctrl *Controller) ForgotPassword(c *gin.Context) {
	RespondError(c, ctrl.authSvc.ForgotPassword(), "Password recovery failed")
}

// ResetPassword godoc
// @Summary Reset a password (not implemented)
// @Tags Auth
// @Produce json
// @Failure 501 {object} dto.ErrorResponse
// @Router /auth/reset-password [post]
func (ctrl *Controller) ResetPassword(c *gin.Context) {
	RespondError(c, ctrl.authSvc.ResetPassword(), "Password reset failed")
}

// ParseSolutionQuery reads the catalog filters. Tag filters may be repeated
// or comma separated.
func ParseSolutionQuery(c *gin.Context) dto.SolutionQuery {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return dto.SolutionQuery{
		Levels:       listParam(c, "levels"),
		Areas:        listParam(c, "areas"),
		ProductTypes: listParam(c, "productTypes"),
		Contexts:     listParam(c, "contexts"),
		Devices:      listParam(c, "devices"),
		PriceRange:   strings.TrimSpace(c.Query("priceRange")),
		Search:       c.Query("search"),
		SortBy:       c.Query("sortBy"),
		SortOrder:    strings.ToLower(c.Query("sortOrder")),
		Page:         page,
		Limit:        limit,
	}
}

func listParam(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ListSolutions godoc
// @Summary List approved solutions
// @Description Filters, sorts and paginates the public catalog.
// @Tags Catalog
// @Produce json
// @Param levels query string false "Comma separated levels"
// @Param areas query string false "Comma separated areas"
// @Param productTypes query string false "Comma separated product types"
// @Param contexts query string false "Comma separated contexts"
// @Param devices query string false "Comma separated devices"
// @Param priceRange query string false "Exact price range"
// @Param search query string false "Substring of name or description"
// @Param sortBy query string false "name, createdAt or <axis>Score"
// @Param sortOrder query string false "asc or desc"
// @Param page query int false "Page, 1 based"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} dto.SolutionListResponse
// @Router /catalog/solutions [get]
func (ctrl *Controller) ListSolutions(c *gin.Context) {
	resp, err := ctrl.catalogSvc.ListSolutions(ParseSolutionQuery(c))
	if err != nil {
		RespondError(c, err, "Failed to list solutions")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSolution godoc
// @Summary Get an approved solution
// @Tags Catalog
// @Produce json
// @Param id path string true "Solution ID"
// @Success 200 {object} model.Solution
// @Failure 404 {object} dto.ErrorResponse
// @Router /catalog/solutions/{id} [get]
func (ctrl *Controller) GetSolution(c *gin.Context) {
	sol, err := ctrl.catalogSvc.GetSolution(c.Param("id"))
	if err != nil {
		RespondError(c, err, "Failed to load solution")
		return
	}
	c.JSON(http.StatusOK, sol)
}

// GetFilters godoc
// @Summary Catalog filter options grouped by type
// @Tags Catalog
// @Produce json
// @Success 200 {object} map[string][]dto.FilterOption
// @Router /catalog/filters [get]
func (ctrl *Controller) GetFilters(c *gin.Context) {
	filters, err := ctrl.catalogSvc.GetFilters()
	if err != nil {
		RespondError(c, err, "Failed to load filters")
		return
	}
	c.JSON(http.StatusOK, filters)
}

// ContactEdTech godoc
// @Summary Contact the company behind a solution
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Solution ID"
// @Param contact body dto.ContactRequest true "Message"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /catalog/solutions/{id}/contact [post]
func (ctrl *Controller) ContactEdTech(c *gin.Context) {
	var req dto.ContactRequest
	if !BindJSON(c, &req, "ContactEdTech") {
		return
	}
	if err := ctrl.catalogSvc.ContactEdTech(c.Request.Context(), c.Param("id"), req); err != nil {
		RespondError(c, err, "Failed to send contact request")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Contact request sent"})
}

// ExportCatalog godoc
// @Summary Export the filtered catalog as CSV
// @Tags Catalog
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 403 {object} dto.ErrorResponse
// @Router /catalog/export [get]
func (ctrl *Controller) ExportCatalog(c *gin.Context) {
	data, err := ctrl.catalogSvc.ExportCatalog(ParseSolutionQuery(c))
	if err != nil {
		RespondError(c, err, "Failed to export catalog")
		return
	}
	SendCSV(c, "catalog", data)
}

// GetSurvey godoc
// @Summary Questionnaire definition
// @Tags Surveys
// @Produce json
// @Param kind path string true "edtech or institution"
// @Success 200 {object} survey.Definition
// @Failure 404 {object} dto.ErrorResponse
// @Router /surveys/{kind} [get]
func (ctrl *Controller) GetSurvey(c *gin.Context) {
	kind := c.Param("kind")
	if kind != survey.KindEdTech && kind != survey.KindInstitution {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Survey not found"})
		return
	}
	def, err := survey.Load(kind)
	if err != nil {
		RespondError(c, err, "Failed to load survey")
		return
	}
	c.JSON(http.StatusOK, def)
}
