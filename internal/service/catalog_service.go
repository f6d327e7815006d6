package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/nodo-plus/internal/dto"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/lshigami/nodo-plus/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type CatalogService interface {
	ListSolutions(q dto.SolutionQuery) (*dto.SolutionListResponse, error)
	GetSolution(id string) (*model.Solution, error)
	GetFilters() (map[string][]dto.FilterOption, error)
	ContactEdTech(ctx context.Context, solutionID string, req dto.ContactRequest) error
	ExportCatalog(q dto.SolutionQuery) ([]byte, error)
}

type catalogService struct {
	solutionRepo repository.SolutionRepository
	catalogRepo  repository.CatalogRepository
	notifier     NotificationService
}

func NewCatalogService(solutionRepo repository.SolutionRepository, catalogRepo repository.CatalogRepository, notifier NotificationService) CatalogService {
	return &catalogService{solutionRepo: solutionRepo, catalogRepo: catalogRepo, notifier: notifier}
}

func (s *catalogService) approved(q dto.SolutionQuery) ([]model.Solution, error) {
	all, err := s.solutionRepo.ListByStatus(model.SolutionApproved, false)
	if err != nil {
		return nil, fmt.Errorf("list approved solutions: %w", err)
	}
	matched := FilterSolutions(all, q)
	SortSolutions(matched, q.SortBy, q.SortOrder)
	return matched, nil
}

func (s *catalogService) ListSolutions(q dto.SolutionQuery) (*dto.SolutionListResponse, error) {
	matched, err := s.approved(q)
	if err != nil {
		return nil, err
	}
	page, pagination := Paginate(matched, q.Page, q.Limit)

	items := make([]dto.CatalogSolution, 0, len(page))
	for i := range page {
		var item dto.CatalogSolution
		if err := copier.Copy(&item, &page[i]); err != nil {
			return nil, fmt.Errorf("map solution: %w", err)
		}
		if c := page[i].EdTechCompany; c != nil {
			item.Company = &dto.CompanySummary{Name: c.Name, Country: c.Country, ContactEmail: c.ContactEmail}
		}
		items = append(items, item)
	}
	return &dto.SolutionListResponse{Solutions: items, Pagination: pagination}, nil
}

func (s *catalogService) GetSolution(id string) (*model.Solution, error) {
	sol, err := s.solutionRepo.FindApprovedByID(id)
	if err != nil {
		return nil, notFoundOr(err, "Solution not found")
	}
	return sol, nil
}

// GetFilters groups active catalog entries by type, keeping the type then
// order sort of the repository.
func (s *catalogService) GetFilters() (map[string][]dto.FilterOption, error) {
	items, err := s.catalogRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	filters := map[string][]dto.FilterOption{}
	for _, it := range items {
		filters[it.Type] = append(filters[it.Type], dto.FilterOption{Value: it.Value, Label: it.Label})
	}
	return filters, nil
}

func (s *catalogService) ContactEdTech(ctx context.Context, solutionID string, req dto.ContactRequest) error {
	sol, err := s.solutionRepo.FindByIDWithDetails(solutionID)
	if err != nil {
		return notFoundOr(err, "Solution not found")
	}
	if sol.EdTechCompany == nil || sol.EdTechCompany.ContactEmail == "" {
		log.Warn().Str("solutionID", sol.ID).Msg("Contact request for a company without contact email")
		return nil
	}
	s.notifier.ContactRequest(ctx, sol.EdTechCompany.ContactEmail, sol.Name, req.Message, req.ContactInfo)
	return nil
}

// ExportCatalog renders every approved solution matching q as CSV, ignoring
// pagination.
func (s *catalogService) ExportCatalog(q dto.SolutionQuery) ([]byte, error) {
	matched, err := s.approved(q)
	if err != nil {
		return nil, err
	}
	return SolutionsCSV(matched)
}

// SolutionsCSV writes one row per solution with its tags, scores and
// colors.
func SolutionsCSV(solutions []model.Solution) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"id", "name", "company", "country", "status", "priceRange", "levels", "areas", "productTypes", "contexts", "devices"}
	for _, axis := range model.Axes {
		header = append(header, axis+"Score", axis+"Color")
	}
	header = append(header, "createdAt")
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for i := range solutions {
		sol := &solutions[i]
		company, country := "", ""
		if sol.EdTechCompany != nil {
			company, country = sol.EdTechCompany.Name, sol.EdTechCompany.Country
		}
		row := []string{
			sol.ID, sol.Name, company, country, string(sol.Status), sol.PriceRange,
			strings.Join(sol.Levels, "|"), strings.Join(sol.Areas, "|"), strings.Join(sol.ProductTypes, "|"),
			strings.Join(sol.Contexts, "|"), strings.Join(sol.Devices, "|"),
		}
		for _, axis := range model.Axes {
			score, color := sol.AxisScore(axis)
			row = append(row, strconv.Itoa(score), string(color))
		}
		row = append(row, sol.CreatedAt.UTC().Format(time.RFC3339))
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// FilterSolutions keeps solutions matching every filter of q. Tag filters
// match when the solution shares at least one tag with the filter.
func FilterSolutions(solutions []model.Solution, q dto.SolutionQuery) []model.Solution {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]model.Solution, 0, len(solutions))
	for _, sol := range solutions {
		if !intersects(sol.Levels, q.Levels) ||
			!intersects(sol.Areas, q.Areas) ||
			!intersects(sol.ProductTypes, q.ProductTypes) ||
			!intersects(sol.Contexts, q.Contexts) ||
			!intersects(sol.Devices, q.Devices) {
			continue
		}
		if q.PriceRange != "" && sol.PriceRange != q.PriceRange {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(sol.Name), search) &&
			!strings.Contains(strings.ToLower(sol.Description), search) {
			continue
		}
		out = append(out, sol)
	}
	return out
}

// intersects is true for an empty filter.
func intersects(tags, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		for _, t := range tags {
			if t == f {
				return true
			}
		}
	}
	return false
}

var sortKeys = map[string]func(a, b *model.Solution) int{
	"name": func(a, b *model.Solution) int { return strings.Compare(a.Name, b.Name) },
	"createdAt": func(a, b *model.Solution) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	},
}

func init() {
	for _, axis := range model.Axes {
		sortKeys[axis+"Score"] = func(a, b *model.Solution) int {
			sa, _ := a.AxisScore(axis)
			sb, _ := b.AxisScore(axis)
			return sa - sb
		}
	}
}

// SortSolutions sorts in place. Unknown keys sort by createdAt descending;
// any order other than "asc" is descending.
func SortSolutions(solutions []model.Solution, sortBy, sortOrder string) {
	cmp, ok := sortKeys[sortBy]
	desc := sortOrder != "asc"
	if !ok {
		cmp, desc = sortKeys["createdAt"], true
	}
	sort.SliceStable(solutions, func(i, j int) bool {
		c := cmp(&solutions[i], &solutions[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// NormalizePage applies the paging defaults and bounds.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// Paginate returns the requested 1-based page and its metadata.
func Paginate(solutions []model.Solution, page, limit int) ([]model.Solution, dto.Pagination) {
	page, limit = NormalizePage(page, limit)
	total := len(solutions)
	start := total
	// Compare before multiplying so huge pages cannot overflow.
	if page-1 <= total/limit {
		start = min((page-1)*limit, total)
	}
	end := start + limit
	if end > total {
		end = total
	}
	return solutions[start:end], dto.Pagination{
		Page:  page,
		Limit: limit,
		Total: int64(total),
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}
}
