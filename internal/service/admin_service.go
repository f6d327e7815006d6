package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lshigami/nodo-plus/internal/dto"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/lshigami/nodo-plus/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	msgNoProfile         = "Profile not found"
	msgNoInstitution     = "Institution not found"
	msgNoCatalog         = "Catalog not found"
	msgNoConsultant      = "Consultant not found"
	msgNoAdminSubmission = "Submission not found"
)

type AdminService interface {
	Dashboard() (*dto.DashboardResponse, error)
	Metrics() (*dto.MetricsResponse, error)

	PendingProfiles() ([]model.Solution, error)
	GetProfile(id string) (*model.Solution, error)
	Approve(ctx context.Context, adminID, id string) (*model.Solution, error)
	Reject(ctx context.Context, id, reason string) (*model.Solution, error)
	RequestChanges(ctx context.Context, id, comments string) (*model.Solution, error)

	ListCatalogs() ([]model.Catalog, error)
	CreateCatalog(req dto.CatalogRequest) (*model.Catalog, error)
	UpdateCatalog(id string, req dto.CatalogRequest) (*model.Catalog, error)
	DeleteCatalog(id string) error

	ListRules() ([]model.TrafficLightRule, error)
	ReplaceRules(req dto.TrafficLightRulesRequest) ([]model.TrafficLightRule, error)

	ListConsultants() ([]model.User, error)
	CreateConsultant(ctx context.Context, req dto.CreateConsultantRequest) (*model.User, error)
	SetConsultantActive(userID string, active bool) (*model.ConsultantProfile, error)

	ListInstitutions() ([]model.Institution, error)
	GetInstitution(id string) (*model.Institution, error)

	ListSubmissions() ([]model.ProfileSubmission, error)
	GetSubmission(id string) (*model.ProfileSubmission, error)
	UpdateSubmission(id string, body map[string]json.RawMessage) (*model.ProfileSubmission, error)
	ArchiveSubmission(id string) (*model.ProfileSubmission, error)
	SubmissionInsight(ctx context.Context, id string) (*dto.InsightResponse, error)

	ExportSolutions() ([]byte, error)
	ExportInstitutions() ([]byte, error)
}

type adminService struct {
	userRepo        repository.UserRepository
	companyRepo     repository.EdTechCompanyRepository
	institutionRepo repository.InstitutionRepository
	consultantRepo  repository.ConsultantRepository
	solutionRepo    repository.SolutionRepository
	catalogRepo     repository.CatalogRepository
	ruleRepo        repository.TrafficLightRuleRepository
	submissionRepo  repository.ProfileSubmissionRepository
	trafficLights   TrafficLightService
	notifier        NotificationService
	insights        InsightService
	now             func() time.Time
}

func NewAdminService(
	userRepo repository.UserRepository,
	companyRepo repository.EdTechCompanyRepository,
	institutionRepo repository.InstitutionRepository,
	consultantRepo repository.ConsultantRepository,
	solutionRepo repository.SolutionRepository,
	catalogRepo repository.CatalogRepository,
	ruleRepo repository.TrafficLightRuleRepository,
	submissionRepo repository.ProfileSubmissionRepository,
	trafficLights TrafficLightService,
	notifier NotificationService,
	insights InsightService,
) AdminService {
	return &adminService{
		userRepo:        userRepo,
		companyRepo:     companyRepo,
		institutionRepo: institutionRepo,
		consultantRepo:  consultantRepo,
		solutionRepo:    solutionRepo,
		catalogRepo:     catalogRepo,
		ruleRepo:        ruleRepo,
		submissionRepo:  submissionRepo,
		trafficLights:   trafficLights,
		notifier:        notifier,
		insights:        insights,
		now:             time.Now,
	}
}

func (s *adminService) Dashboard() (*dto.DashboardResponse, error) {
	edtechs, err := s.companyRepo.Count()
	if err != nil {
		return nil, fmt.Errorf("count companies: %w", err)
	}
	approved, err := s.solutionRepo.CountByStatus(model.SolutionApproved)
	if err != nil {
		return nil, fmt.Errorf("count approved solutions: %w", err)
	}
	institutions, err := s.institutionRepo.CountByStatus(model.InstitutionApproved)
	if err != nil {
		return nil, fmt.Errorf("count institutions: %w", err)
	}
	pending, err := s.solutionRepo.CountByStatus(model.SolutionPending)
	if err != nil {
		return nil, fmt.Errorf("count pending solutions: %w", err)
	}
	return &dto.DashboardResponse{Stats: dto.DashboardStats{
		Edtechs:      edtechs,
		Solutions:    approved,
		Institutions: institutions,
		Pending:      pending,
	}}, nil
}

func (s *adminService) Metrics() (*dto.MetricsResponse, error) {
	rows, err := s.solutionRepo.CountGroupByStatus()
	if err != nil {
		return nil, fmt.Errorf("count solutions by status: %w", err)
	}
	byStatus := map[model.SolutionStatus]int64{}
	for _, r := range rows {
		byStatus[r.Status] = r.Count
	}
	approved, err := s.solutionRepo.ListByStatus(model.SolutionApproved, false)
	if err != nil {
		return nil, fmt.Errorf("list approved solutions: %w", err)
	}
	return &dto.MetricsResponse{SolutionsByStatus: byStatus, ColorsByAxis: ColorDistribution(approved)}, nil
}

// ColorDistribution counts the stored color of every axis.
func ColorDistribution(solutions []model.Solution) map[string]map[model.Color]int {
	out := make(map[string]map[model.Color]int, len(model.Axes))
	for _, axis := range model.Axes {
		out[axis] = map[model.Color]int{model.ColorRed: 0, model.ColorYellow: 0, model.ColorGreen: 0}
	}
	for i := range solutions {
		for _, axis := range model.Axes {
			_, color := solutions[i].AxisScore(axis)
			out[axis][color]++
		}
	}
	return out
}

func (s *adminService) PendingProfiles() ([]model.Solution, error) {
	list, err := s.solutionRepo.ListByStatus(model.SolutionPending, true)
	if err != nil {
		return nil, fmt.Errorf("list pending solutions: %w", err)
	}
	return list, nil
}

func (s *adminService) GetProfile(id string) (*model.Solution, error) {
	sol, err := s.solutionRepo.FindByIDWithDetails(id)
	if err != nil {
		return nil, notFoundOr(err, msgNoProfile)
	}
	return sol, nil
}

// Approve recomputes the derived axes from the questionnaire data, recolors
// the others with the active thresholds and stores everything together
// with the APPROVED status.
func (s *adminService) Approve(ctx context.Context, adminID, id string) (*model.Solution, error) {
	sol, err := s.solutionRepo.FindByIDWithDetails(id)
	if err != nil {
		return nil, notFoundOr(err, msgNoSolution)
	}
	rules, err := s.ruleRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("list traffic light rules: %w", err)
	}

	answers := map[string]any{}
	if len(sol.QuestionnaireData) > 0 {
		if err := json.Unmarshal(sol.QuestionnaireData, &answers); err != nil {
			log.Warn().Err(err).Str("solutionID", sol.ID).Msg("Questionnaire data is not an object, scoring as empty")
			answers = map[string]any{}
		}
	}
	results := s.trafficLights.CalculateTrafficLights(answers, rules, DerivedAxes)
	for axis, r := range s.trafficLights.Recolor(sol, rules, []string{model.AxisTechnicalQuality, model.AxisAffordability}) {
		results[axis] = r
	}

	approval := repository.Approval{
		Scores:     map[string]int{},
		Colors:     map[string]model.Color{},
		ApprovedBy: adminID,
		ApprovedAt: s.now(),
	}
	for axis, r := range results {
		approval.Scores[axis] = r.Score
		approval.Colors[axis] = r.Color
	}
	if err := s.solutionRepo.ApplyApproval(sol.ID, approval); err != nil {
		return nil, notFoundOr(err, msgNoSolution)
	}

	for axis, r := range results {
		sol.SetAxisScore(axis, r.Score, r.Color)
	}
	sol.Status = model.SolutionApproved
	sol.ApprovedAt = &approval.ApprovedAt
	sol.ApprovedBy = &approval.ApprovedBy
	log.Info().Str("solutionID", sol.ID).Str("adminID", adminID).Msg("Solution approved")

	if sol.EdTechCompany != nil {
		s.notifier.SolutionApproved(ctx, sol.EdTechCompany.ContactEmail, sol.Name)
	}
	return sol, nil
}

func (s *adminService) transition(id string, status model.SolutionStatus) (*model.Solution, error) {
	n, err := s.solutionRepo.UpdateStatus(id, status)
	if err != nil {
		return nil, fmt.Errorf("update solution status: %w", err)
	}
	if n == 0 {
		return nil, NewNotFoundError(msgNoSolution)
	}
	sol, err := s.solutionRepo.FindByIDWithDetails(id)
	if err != nil {
		return nil, notFoundOr(err, msgNoSolution)
	}
	log.Info().Str("solutionID", id).Str("status", string(status)).Msg("Solution status changed")
	return sol, nil
}

func (s *adminService) Reject(ctx context.Context, id, reason string) (*model.Solution, error) {
	sol, err := s.transition(id, model.SolutionRejected)
	if err != nil {
		return nil, err
	}
	if sol.EdTechCompany != nil {
		s.notifier.SolutionRejected(ctx, sol.EdTechCompany.ContactEmail, sol.Name, reason)
	}
	return sol, nil
}

func (s *adminService) RequestChanges(ctx context.Context, id, comments string) (*model.Solution, error) {
	sol, err := s.transition(id, model.SolutionChangesRequested)
	if err != nil {
		return nil, err
	}
	if sol.EdTechCompany != nil {
		s.notifier.ChangesRequested(ctx, sol.EdTechCompany.ContactEmail, sol.Name, comments)
	}
	return sol, nil
}

func (s *adminService) ListCatalogs() ([]model.Catalog, error) {
	items, err := s.catalogRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	return items, nil
}

func (s *adminService) CreateCatalog(req dto.CatalogRequest) (*model.Catalog, error) {
	item := &model.Catalog{Type: req.Type, Label: req.Label, Value: req.Value, Order: req.Order, Active: true}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if err := s.catalogRepo.Create(item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewConflictError("Catalog value already exists")
		}
		return nil, fmt.Errorf("create catalog: %w", err)
	}
	return item, nil
}

func (s *adminService) UpdateCatalog(id string, req dto.CatalogRequest) (*model.Catalog, error) {
	item, err := s.catalogRepo.FindByID(id)
	if err != nil {
		return nil, notFoundOr(err, msgNoCatalog)
	}
	item.Type, item.Label, item.Value, item.Order = req.Type, req.Label, req.Value, req.Order
	if req.Active != nil {
		item.Active = *req.Active
	}
	if err := s.catalogRepo.Update(item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewConflictError("Catalog value already exists")
		}
		return nil, fmt.Errorf("update catalog: %w", err)
	}
	return item, nil
}

// DeleteCatalog does not check whether solutions still use the value.
func (s *adminService) DeleteCatalog(id string) error {
	n, err := s.catalogRepo.Delete(id)
	if err != nil {
		return fmt.Errorf("delete catalog: %w", err)
	}
	if n == 0 {
		return NewNotFoundError(msgNoCatalog)
	}
	return nil
}

func (s *adminService) ListRules() ([]model.TrafficLightRule, error) {
	rules, err := s.ruleRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("list traffic light rules: %w", err)
	}
	return rules, nil
}

func (s *adminService) ReplaceRules(req dto.TrafficLightRulesRequest) ([]model.TrafficLightRule, error) {
	seen := map[string]bool{}
	rules := make([]model.TrafficLightRule, 0, len(req.Rules))
	for _, r := range req.Rules {
		if !model.ValidAxis(r.Axis) {
			return nil, NewInvalidError("Unknown axis: " + r.Axis)
		}
		if seen[r.Axis] {
			return nil, NewInvalidError("Duplicate rule for axis: " + r.Axis)
		}
		seen[r.Axis] = true
		if r.ThresholdRed < MinAxisScore || r.ThresholdYellow > MaxAxisScore || r.ThresholdRed > r.ThresholdYellow {
			return nil, NewInvalidError("Thresholds must satisfy 0 <= thresholdRed <= thresholdYellow <= 100 for axis " + r.Axis)
		}
		weights := datatypes.JSONMap{}
		for k, w := range r.Weights {
			weights[k] = w
		}
		rules = append(rules, model.TrafficLightRule{
			Axis:            r.Axis,
			ThresholdRed:    r.ThresholdRed,
			ThresholdYellow: r.ThresholdYellow,
			Weights:         weights,
			Active:          true,
		})
	}
	if err := s.ruleRepo.ReplaceActive(rules); err != nil {
		return nil, fmt.Errorf("replace traffic light rules: %w", err)
	}
	log.Info().Int("rules", len(rules)).Msg("Traffic light rules replaced")
	return rules, nil
}

func (s *adminService) ListConsultants() ([]model.User, error) {
	users, err := s.userRepo.ListByRole(model.RoleConsultant)
	if err != nil {
		return nil, fmt.Errorf("list consultants: %w", err)
	}
	return users, nil
}

func (s *adminService) CreateConsultant(ctx context.Context, req dto.CreateConsultantRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, NewInvalidError(msgEmailTaken)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:    email,
		Password: &hashed,
		Role:     model.RoleConsultant,
		ConsultantProfile: &model.ConsultantProfile{
			Name:         req.Name,
			Organization: req.Organization,
			Active:       true,
		},
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewInvalidError(msgEmailTaken)
		}
		return nil, fmt.Errorf("create consultant: %w", err)
	}
	s.notifier.ConsultantWelcome(ctx, user.Email, req.Name)
	return user, nil
}

func (s *adminService) SetConsultantActive(userID string, active bool) (*model.ConsultantProfile, error) {
	n, err := s.consultantRepo.SetActive(userID, active)
	if err != nil {
		return nil, fmt.Errorf("update consultant: %w", err)
	}
	if n == 0 {
		return nil, NewNotFoundError(msgNoConsultant)
	}
	profile, err := s.consultantRepo.FindByUserID(userID)
	if err != nil {
		return nil, notFoundOr(err, msgNoConsultant)
	}
	return profile, nil
}

func (s *adminService) ListInstitutions() ([]model.Institution, error) {
	list, err := s.institutionRepo.ListByName()
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	return list, nil
}

func (s *adminService) GetInstitution(id string) (*model.Institution, error) {
	inst, err := s.institutionRepo.FindByID(id)
	if err != nil {
		return nil, notFoundOr(err, msgNoInstitution)
	}
	return inst, nil
}

func (s *adminService) ListSubmissions() ([]model.ProfileSubmission, error) {
	list, err := s.submissionRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return list, nil
}

func (s *adminService) GetSubmission(id string) (*model.ProfileSubmission, error) {
	sub, err := s.submissionRepo.FindByID(id)
	if err != nil {
		return nil, notFoundOr(err, msgNoAdminSubmission)
	}
	return sub, nil
}

// UpdateSubmission follows the vendor update rules except that any status,
// ARCHIVED included, may be set.
func (s *adminService) UpdateSubmission(id string, body map[string]json.RawMessage) (*model.ProfileSubmission, error) {
	sub, err := s.GetSubmission(id)
	if err != nil {
		return nil, err
	}
	if err := ApplySubmissionPatch(sub, body, PatchOptions{AllowAnyStatus: true, Now: s.now()}); err != nil {
		return nil, err
	}
	if err := s.submissionRepo.Save(sub); err != nil {
		return nil, fmt.Errorf("update submission: %w", err)
	}
	return sub, nil
}

func (s *adminService) ArchiveSubmission(id string) (*model.ProfileSubmission, error) {
	n, err := s.submissionRepo.Archive(id)
	if err != nil {
		return nil, fmt.Errorf("archive submission: %w", err)
	}
	if n == 0 {
		return nil, NewNotFoundError(msgNoAdminSubmission)
	}
	log.Info().Str("submissionID", id).Msg("Submission archived")
	return s.GetSubmission(id)
}

func (s *adminService) SubmissionInsight(ctx context.Context, id string) (*dto.InsightResponse, error) {
	sub, err := s.GetSubmission(id)
	if err != nil {
		return nil, err
	}
	text := ""
	if sub.SummaryText != nil {
		text = *sub.SummaryText
	}
	insight, generated, err := s.insights.Summarize(ctx, string(sub.Kind), text)
	if err != nil {
		return nil, err
	}
	return &dto.InsightResponse{SubmissionID: sub.ID, Insight: insight, Generated: generated}, nil
}

func (s *adminService) ExportSolutions() ([]byte, error) {
	list, err := s.solutionRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("list solutions: %w", err)
	}
	return SolutionsCSV(list)
}

func (s *adminService) ExportInstitutions() ([]byte, error) {
	list, err := s.institutionRepo.ListByName()
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	return InstitutionsCSV(list)
}

func InstitutionsCSV(list []model.Institution) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "name", "type", "location", "rural", "status", "email", "createdAt"}); err != nil {
		return nil, err
	}
	for _, inst := range list {
		email := ""
		if inst.User != nil {
			email = inst.User.Email
		}
		row := []string{
			inst.ID, inst.Name, inst.Type, inst.Location, strconv.FormatBool(inst.Rural),
			string(inst.Status), email, inst.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
