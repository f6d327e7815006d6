package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/lshigami/nodo-plus/internal/dto"
	"github.com/lshigami/nodo-plus/internal/model"
	"gorm.io/datatypes"
)

func catalogFixture() []model.Solution {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id, name string, status model.SolutionStatus, levels []string, price string, pedagogical int, age int) model.Solution {
		s := model.Solution{
			EdTechCompanyID: "c1",
			Name:            name,
			Description:     "Plataforma de " + name,
			Levels:          datatypes.JSONSlice[string](levels),
			PriceRange:      price,
			Status:          status,
		}
		s.ID = id
		s.CreatedAt = base.Add(time.Duration(age) * time.Hour)
		s.PedagogicalScore = pedagogical
		return s
	}
	return []model.Solution{
		mk("s1", "Mate Fácil", model.SolutionApproved, []string{"primaria"}, "low", 80, 1),
		mk("s2", "Lectura Viva", model.SolutionApproved, []string{"secundaria", "primaria"}, "high", 60, 2),
		mk("s3", "Ciencia Abierta", model.SolutionApproved, []string{"secundaria"}, "low", 90, 3),
		mk("s4", "Borrador", model.SolutionDraft, []string{"primaria"}, "low", 99, 4),
	}
}

func ids(list []model.Solution) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = list[i].ID
	}
	return out
}

func sameIDs(t *testing.T, got []model.Solution, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func TestFilterSolutions(t *testing.T) {
	all := catalogFixture()[:3]
	sameIDs(t, FilterSolutions(all, dto.SolutionQuery{}), "s1", "s2", "s3")
	sameIDs(t, FilterSolutions(all, dto.SolutionQuery{Levels: []string{"primaria"}}), "s1", "s2")
	sameIDs(t, FilterSolutions(all, dto.SolutionQuery{Levels: []string{"primaria"}, PriceRange: "low"}), "s1")
	sameIDs(t, FilterSolutions(all, dto.SolutionQuery{Search: "ABIERTA"}), "s3")
	sameIDs(t, FilterSolutions(all, dto.SolutionQuery{Search: "plataforma de lectura"}), "s2")
	sameIDs(t, FilterSolutions(all, dto.SolutionQuery{Areas: []string{"arte"}}))
}

func TestSortSolutions(t *testing.T) {
	list := catalogFixture()[:3]
	SortSolutions(list, "", "")
	sameIDs(t, list, "s3", "s2", "s1")
	SortSolutions(list, "pedagogicalScore", "asc")
	sameIDs(t, list, "s2", "s1", "s3")
	SortSolutions(list, "name", "asc")
	sameIDs(t, list, "s3", "s2", "s1")
	SortSolutions(list, "bogus", "asc")
	sameIDs(t, list, "s3", "s2", "s1")
}

func TestPaginate(t *testing.T) {
	list := catalogFixture()
	page, p := Paginate(list, 2, 3)
	sameIDs(t, page, "s4")
	if p.Total != 4 || p.Pages != 2 || p.Page != 2 || p.Limit != 3 {
		t.Fatalf("unexpected pagination %+v", p)
	}
	page, p = Paginate(list, 9, 3)
	if len(page) != 0 || p.Pages != 2 {
		t.Fatalf("past the end: %v %+v", ids(page), p)
	}
	_, p = Paginate(list, 0, 1000)
	if p.Page != 1 || p.Limit != MaxPageSize {
		t.Fatalf("bounds not applied: %+v", p)
	}
	_, p = Paginate(nil, 1, 0)
	if p.Limit != DefaultPageSize || p.Pages != 0 {
		t.Fatalf("empty list: %+v", p)
	}

	many := make([]model.Solution, 45)
	page, p = Paginate(many, 461168601842738792, 20)
	if len(page) != 0 || p.Total != 45 || p.Pages != 3 {
		t.Fatalf("huge page: %d items %+v", len(page), p)
	}
	page, _ = Paginate(many, 3, 20)
	if len(page) != 5 {
		t.Fatalf("last page has %d items", len(page))
	}
}

func newTestCatalog() (CatalogService, *recordingNotifier) {
	companies := map[string]*model.EdTechCompany{
		"c1": {Base: model.Base{ID: "c1"}, Name: "Acme", Country: "CO", ContactEmail: "sales@acme.test"},
	}
	notifier := &recordingNotifier{}
	catalogs := &stubCatalogRepo{items: []model.Catalog{
		{Base: model.Base{ID: "k1"}, Type: "level", Label: "Primaria", Value: "primaria", Active: true},
		{Base: model.Base{ID: "k2"}, Type: "level", Label: "Secundaria", Value: "secundaria", Active: true},
		{Base: model.Base{ID: "k3"}, Type: "device", Label: "Tablet", Value: "tablet", Active: false},
	}}
	return NewCatalogService(newStubSolutionRepo(companies, catalogFixture()...), catalogs, notifier), notifier
}

func TestListSolutionsOnlyApproved(t *testing.T) {
	svc, _ := newTestCatalog()
	resp, err := svc.ListSolutions(dto.SolutionQuery{Levels: []string{"primaria"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.Pagination.Total != 2 || len(resp.Solutions) != 2 {
		t.Fatalf("expected the two approved primaria solutions, got %+v", resp.Pagination)
	}
	first := resp.Solutions[0]
	if first.ID != "s2" || first.Company == nil || first.Company.Name != "Acme" {
		t.Fatalf("unexpected first item %+v", first)
	}
	if first.PedagogicalScore != 60 {
		t.Fatalf("scores not mapped: %+v", first)
	}
}

func TestGetSolutionHidesUnapproved(t *testing.T) {
	svc, _ := newTestCatalog()
	if _, err := svc.GetSolution("s1"); err != nil {
		t.Fatalf("approved solution: %v", err)
	}
	_, err := svc.GetSolution("s4")
	wantCode(t, err, ErrorNotFound)
}

func TestGetFiltersGroupsActive(t *testing.T) {
	svc, _ := newTestCatalog()
	filters, err := svc.GetFilters()
	if err != nil {
		t.Fatalf("filters: %v", err)
	}
	if len(filters["level"]) != 2 || filters["level"][0].Value != "primaria" {
		t.Fatalf("level filters: %+v", filters["level"])
	}
	if _, ok := filters["device"]; ok {
		t.Fatalf("inactive entries must be hidden")
	}
}

func TestContactEdTech(t *testing.T) {
	svc, notifier := newTestCatalog()
	if err := svc.ContactEdTech(context.Background(), "s4", dto.ContactRequest{Message: "hola"}); err != nil {
		t.Fatalf("contact: %v", err)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "contact:sales@acme.test" {
		t.Fatalf("unexpected notifications %v", notifier.sent)
	}
	err := svc.ContactEdTech(context.Background(), "missing", dto.ContactRequest{Message: "hola"})
	wantCode(t, err, ErrorNotFound)
}

func TestExportCatalogCSV(t *testing.T) {
	svc, _ := newTestCatalog()
	out, err := svc.ExportCatalog(dto.SolutionQuery{PriceRange: "low"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[1][0] != "s3" || rows[1][2] != "Acme" {
		t.Fatalf("unexpected rows %v", rows[:2])
	}
	if len(rows[0]) != len(rows[1]) {
		t.Fatalf("header and row widths differ")
	}
}
