package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lshigami/nodo-plus/internal/dto"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/lshigami/nodo-plus/internal/repository"
	"github.com/lshigami/nodo-plus/internal/storage"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

const (
	LogoMaxSide     = 512
	msgNoCompany    = "Company not found"
	msgNoSolution   = "Solution not found"
	msgNotEditable  = "Solution not found or cannot be edited"
	msgNoEvidence   = "Evidence not found"
	msgBadLogoImage = "Logo must be a PNG, JPEG, GIF, BMP or TIFF image"
)

type EdTechService interface {
	GetProfile(userID string) (*model.EdTechCompany, error)
	UpdateProfile(userID string, req dto.CompanyUpdateRequest) (*model.EdTechCompany, error)
	ListSolutions(userID string) ([]model.Solution, error)
	CreateSolution(userID string, req dto.SolutionRequest) (*model.Solution, error)
	GetSolution(userID, solutionID string) (*model.Solution, error)
	UpdateSolution(userID, solutionID string, req dto.SolutionRequest) (*model.Solution, error)
	SubmitSolution(ctx context.Context, userID, solutionID string) error
	UploadLogo(ctx context.Context, userID, solutionID string, image io.Reader) (*model.Solution, error)
	AddEvidence(userID, solutionID string, req dto.EvidenceRequest) (*model.Evidence, error)
	DeleteEvidence(userID, solutionID, evidenceID string) error
}

type edTechService struct {
	companyRepo  repository.EdTechCompanyRepository
	solutionRepo repository.SolutionRepository
	evidenceRepo repository.EvidenceRepository
	store        storage.ObjectStorage
	notifier     NotificationService
}

func NewEdTechService(
	companyRepo repository.EdTechCompanyRepository,
	solutionRepo repository.SolutionRepository,
	evidenceRepo repository.EvidenceRepository,
	store storage.ObjectStorage,
	notifier NotificationService,
) EdTechService {
	return &edTechService{
		companyRepo:  companyRepo,
		solutionRepo: solutionRepo,
		evidenceRepo: evidenceRepo,
		store:        store,
		notifier:     notifier,
	}
}

func (s *edTechService) company(userID string) (*model.EdTechCompany, error) {
	c, err := s.companyRepo.FindByUserID(userID)
	if err != nil {
		return nil, notFoundOr(err, msgNoCompany)
	}
	return c, nil
}

// ownedSolution resolves a solution of the caller's company. A caller
// without a company sees every solution as missing.
func (s *edTechService) ownedSolution(userID, solutionID string) (*model.Solution, error) {
	c, err := s.companyRepo.FindByUserID(userID)
	if err != nil {
		return nil, notFoundOr(err, msgNoSolution)
	}
	sol, err := s.solutionRepo.FindByIDAndCompany(solutionID, c.ID)
	if err != nil {
		return nil, notFoundOr(err, msgNoSolution)
	}
	return sol, nil
}

func (s *edTechService) GetProfile(userID string) (*model.EdTechCompany, error) {
	c, err := s.companyRepo.FindByUserIDWithSolutions(userID)
	if err != nil {
		return nil, notFoundOr(err, msgNoCompany)
	}
	return c, nil
}

func (s *edTechService) UpdateProfile(userID string, req dto.CompanyUpdateRequest) (*model.EdTechCompany, error) {
	c, err := s.company(userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Country != nil {
		c.Country = *req.Country
	}
	if req.ContactEmail != nil {
		c.ContactEmail = *req.ContactEmail
	}
	if req.Website != nil {
		c.Website = *req.Website
	}
	if err := s.companyRepo.Update(c); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	return c, nil
}

func (s *edTechService) ListSolutions(userID string) ([]model.Solution, error) {
	c, err := s.company(userID)
	if err != nil {
		return nil, err
	}
	list, err := s.solutionRepo.ListByCompany(c.ID)
	if err != nil {
		return nil, fmt.Errorf("list solutions: %w", err)
	}
	return list, nil
}

func (s *edTechService) CreateSolution(userID string, req dto.SolutionRequest) (*model.Solution, error) {
	c, err := s.company(userID)
	if err != nil {
		return nil, err
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, NewInvalidError("name is required")
	}
	sol := &model.Solution{EdTechCompanyID: c.ID}
	if err := applySolutionRequest(sol, req); err != nil {
		return nil, err
	}
	sol.Status = model.SolutionDraft
	for _, axis := range model.Axes {
		sol.SetAxisScore(axis, 0, model.ColorRed)
	}
	if err := s.solutionRepo.Create(sol); err != nil {
		return nil, fmt.Errorf("create solution: %w", err)
	}
	log.Info().Str("solutionID", sol.ID).Str("companyID", c.ID).Msg("Solution created")
	return sol, nil
}

func (s *edTechService) GetSolution(userID, solutionID string) (*model.Solution, error) {
	return s.ownedSolution(userID, solutionID)
}

func (s *edTechService) UpdateSolution(userID, solutionID string, req dto.SolutionRequest) (*model.Solution, error) {
	c, err := s.companyRepo.FindByUserID(userID)
	if err != nil {
		return nil, notFoundOr(err, msgNotEditable)
	}
	fields, err := solutionUpdateFields(req)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		sol, err := s.solutionRepo.FindByIDAndCompany(solutionID, c.ID)
		if err != nil {
			return nil, notFoundOr(err, msgNotEditable)
		}
		if !sol.Status.Editable() {
			return nil, NewNotFoundError(msgNotEditable)
		}
		return sol, nil
	}
	n, err := s.solutionRepo.UpdateEditable(solutionID, c.ID, fields)
	if err != nil {
		return nil, fmt.Errorf("update solution: %w", err)
	}
	if n == 0 {
		return nil, NewNotFoundError(msgNotEditable)
	}
	sol, err := s.solutionRepo.FindByID(solutionID)
	if err != nil {
		return nil, notFoundOr(err, msgNoSolution)
	}
	return sol, nil
}

func (s *edTechService) SubmitSolution(ctx context.Context, userID, solutionID string) error {
	sol, err := s.ownedSolution(userID, solutionID)
	if err != nil {
		return err
	}
	n, err := s.solutionRepo.MarkPending(sol.ID, sol.EdTechCompanyID)
	if err != nil {
		return fmt.Errorf("submit solution: %w", err)
	}
	if n == 0 {
		return NewNotFoundError(msgNoSolution)
	}
	log.Info().Str("solutionID", sol.ID).Msg("Solution submitted for review")
	s.notifier.SolutionSubmitted(ctx, sol.Name)
	return nil
}

// UploadLogo fits the image into a LogoMaxSide square, stores it as PNG and
// points LogoURL at the public URL of the stored object.
func (s *edTechService) UploadLogo(ctx context.Context, userID, solutionID string, image io.Reader) (*model.Solution, error) {
	sol, err := s.ownedSolution(userID, solutionID)
	if err != nil {
		return nil, err
	}
	if !sol.Status.Editable() {
		return nil, NewNotFoundError(msgNotEditable)
	}
	if !s.store.Enabled() {
		return nil, fmt.Errorf("upload logo: %w", storage.ErrNotConfigured)
	}
	img, err := imaging.Decode(image, imaging.AutoOrientation(true))
	if err != nil {
		return nil, NewInvalidError(msgBadLogoImage)
	}
	img = imaging.Fit(img, LogoMaxSide, LogoMaxSide, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}

	key := storage.LogoKey(sol.ID)
	if err := s.store.Put(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "image/png"); err != nil {
		log.Error().Err(err).Str("solutionID", sol.ID).Msg("Failed to store logo")
		return nil, err
	}
	url := s.store.PublicURL(key)
	n, err := s.solutionRepo.UpdateEditable(sol.ID, sol.EdTechCompanyID, map[string]any{"logo_url": url})
	if err == nil && n == 0 {
		err = NewNotFoundError(msgNotEditable)
	}
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.Error().Err(delErr).Str("key", key).Msg("Failed to remove orphaned logo")
		}
		return nil, err
	}
	sol.LogoURL = &url
	return sol, nil
}

func (s *edTechService) AddEvidence(userID, solutionID string, req dto.EvidenceRequest) (*model.Evidence, error) {
	sol, err := s.ownedSolution(userID, solutionID)
	if err != nil {
		return nil, err
	}
	ev := &model.Evidence{
		SolutionID:  sol.ID,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
	}
	if err := s.evidenceRepo.Create(ev); err != nil {
		return nil, fmt.Errorf("create evidence: %w", err)
	}
	return ev, nil
}

func (s *edTechService) DeleteEvidence(userID, solutionID, evidenceID string) error {
	sol, err := s.ownedSolution(userID, solutionID)
	if err != nil {
		return err
	}
	n, err := s.evidenceRepo.DeleteForSolution(evidenceID, sol.ID)
	if err != nil {
		return fmt.Errorf("delete evidence: %w", err)
	}
	if n == 0 {
		return NewNotFoundError(msgNoEvidence)
	}
	return nil
}

func applySolutionRequest(sol *model.Solution, req dto.SolutionRequest) error {
	if req.Name != nil {
		sol.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		sol.Description = *req.Description
	}
	if req.WebsiteURL != nil {
		sol.WebsiteURL = *req.WebsiteURL
	}
	if req.PriceRange != nil {
		sol.PriceRange = *req.PriceRange
	}
	sol.Levels = tags(req.Levels)
	sol.Areas = tags(req.Areas)
	sol.ProductTypes = tags(req.ProductTypes)
	sol.Contexts = tags(req.Contexts)
	sol.Devices = tags(req.Devices)
	sol.BusinessModels = tags(req.BusinessModels)
	sol.Security = tags(req.Security)
	sol.Adaptability = tags(req.Adaptability)
	data, err := questionnaireJSON(req.QuestionnaireData)
	if err != nil {
		return err
	}
	sol.QuestionnaireData = data
	return nil
}

// solutionUpdateFields lists the columns present in req.
func solutionUpdateFields(req dto.SolutionRequest) (map[string]any, error) {
	fields := map[string]any{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, NewInvalidError("name cannot be empty")
		}
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.WebsiteURL != nil {
		fields["website_url"] = *req.WebsiteURL
	}
	if req.PriceRange != nil {
		fields["price_range"] = *req.PriceRange
	}
	tagColumns := []struct {
		column string
		values []string
	}{
		{"levels", req.Levels},
		{"areas", req.Areas},
		{"product_types", req.ProductTypes},
		{"contexts", req.Contexts},
		{"devices", req.Devices},
		{"business_models", req.BusinessModels},
		{"security", req.Security},
		{"adaptability", req.Adaptability},
	}
	for _, tc := range tagColumns {
		if tc.values != nil {
			fields[tc.column] = tags(tc.values)
		}
	}
	if req.QuestionnaireData != nil {
		data, err := questionnaireJSON(req.QuestionnaireData)
		if err != nil {
			return nil, err
		}
		fields["questionnaire_data"] = data
	}
	return fields, nil
}

func tags(values []string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func questionnaireJSON(data map[string]any) (datatypes.JSON, error) {
	if data == nil {
		return datatypes.JSON("{}"), nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, NewInvalidError("questionnaireData must be a JSON object")
	}
	return raw, nil
}
