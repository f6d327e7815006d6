package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/lshigami/nodo-plus/internal/dto"
	"github.com/lshigami/nodo-plus/internal/model"
)

type edtechFixture struct {
	svc       EdTechService
	solutions *stubSolutionRepo
	evidences *stubEvidenceRepo
	store     *memStorage
	notifier  *recordingNotifier
}

func newEdTechFixture() *edtechFixture {
	companies := map[string]*model.EdTechCompany{
		"c1": {Base: model.Base{ID: "c1"}, UserID: "u1", Name: "Acme", ContactEmail: "sales@acme.test"},
		"c2": {Base: model.Base{ID: "c2"}, UserID: "u2", Name: "Other"},
	}
	draft := model.Solution{EdTechCompanyID: "c1", Name: "Draft", Status: model.SolutionDraft}
	draft.ID = "draft"
	pending := model.Solution{EdTechCompanyID: "c1", Name: "Pending", Status: model.SolutionPending}
	pending.ID = "pending"
	foreign := model.Solution{EdTechCompanyID: "c2", Name: "Foreign", Status: model.SolutionDraft}
	foreign.ID = "foreign"

	f := &edtechFixture{
		solutions: newStubSolutionRepo(companies, draft, pending, foreign),
		evidences: &stubEvidenceRepo{evidences: map[string]*model.Evidence{}},
		store:     newMemStorage(),
		notifier:  &recordingNotifier{},
	}
	f.svc = NewEdTechService(&stubCompanyRepo{companies: companies}, f.solutions, f.evidences, f.store, f.notifier)
	return f
}

func strPtr(s string) *string { return &s }

func TestCreateSolutionStartsAsRedDraft(t *testing.T) {
	f := newEdTechFixture()
	sol, err := f.svc.CreateSolution("u1", dto.SolutionRequest{Name: strPtr("  Nueva  "), Levels: []string{"primaria", " "}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sol.Status != model.SolutionDraft || sol.Name != "Nueva" || sol.EdTechCompanyID != "c1" {
		t.Fatalf("unexpected solution %+v", sol)
	}
	if len(sol.Levels) != 1 || string(sol.QuestionnaireData) != "{}" {
		t.Fatalf("tags or questionnaire not normalized: %v %s", sol.Levels, sol.QuestionnaireData)
	}
	for _, axis := range model.Axes {
		if score, c := sol.AxisScore(axis); score != 0 || c != model.ColorRed {
			t.Fatalf("%s starts at %d %s", axis, score, c)
		}
	}
	_, err = f.svc.CreateSolution("u1", dto.SolutionRequest{})
	wantCode(t, err, ErrorInvalid)
	_, err = f.svc.CreateSolution("nobody", dto.SolutionRequest{Name: strPtr("x")})
	wantCode(t, err, ErrorNotFound)
}

func TestUpdateSolutionOnlyWhileEditable(t *testing.T) {
	f := newEdTechFixture()
	sol, err := f.svc.UpdateSolution("u1", "draft", dto.SolutionRequest{Name: strPtr("Renamed")})
	if err != nil {
		t.Fatalf("update draft: %v", err)
	}
	if sol.Name != "Renamed" {
		t.Fatalf("name not updated: %s", sol.Name)
	}

	_, err = f.svc.UpdateSolution("u1", "pending", dto.SolutionRequest{Name: strPtr("Nope")})
	wantCode(t, err, ErrorNotFound)
	if f.solutions.solutions["pending"].Name != "Pending" {
		t.Fatalf("pending solution was modified")
	}
	_, err = f.svc.UpdateSolution("u1", "pending", dto.SolutionRequest{})
	wantCode(t, err, ErrorNotFound)
	_, err = f.svc.UpdateSolution("u1", "foreign", dto.SolutionRequest{Name: strPtr("Mine")})
	wantCode(t, err, ErrorNotFound)
	_, err = f.svc.UpdateSolution("u1", "draft", dto.SolutionRequest{Name: strPtr("  ")})
	wantCode(t, err, ErrorInvalid)
}

func TestSubmitSolution(t *testing.T) {
	f := newEdTechFixture()
	if err := f.svc.SubmitSolution(context.Background(), "u1", "draft"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if f.solutions.solutions["draft"].Status != model.SolutionPending {
		t.Fatalf("status not pending")
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0] != "submitted:Draft" {
		t.Fatalf("notifications %v", f.notifier.sent)
	}
	wantCode(t, f.svc.SubmitSolution(context.Background(), "u1", "draft"), ErrorNotFound)
	wantCode(t, f.svc.SubmitSolution(context.Background(), "u1", "foreign"), ErrorNotFound)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUploadLogoResizes(t *testing.T) {
	f := newEdTechFixture()
	sol, err := f.svc.UploadLogo(context.Background(), "u1", "draft", bytes.NewReader(pngBytes(t, 1024, 256)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(f.store.objects) != 1 {
		t.Fatalf("expected one stored object, got %d", len(f.store.objects))
	}
	var key string
	var stored []byte
	for k, v := range f.store.objects {
		key, stored = k, v
	}
	if !strings.HasPrefix(key, "solutions/draft/logo-") {
		t.Fatalf("unexpected key %s", key)
	}
	if sol.LogoURL == nil || *sol.LogoURL != "https://cdn.example/"+key {
		t.Fatalf("logo url %v", sol.LogoURL)
	}
	if got := f.solutions.solutions["draft"].LogoURL; got == nil || *got != *sol.LogoURL {
		t.Fatalf("logo url not persisted")
	}
	img, err := png.DecodeConfig(bytes.NewReader(stored))
	if err != nil {
		t.Fatalf("stored logo is not png: %v", err)
	}
	if img.Width != LogoMaxSide || img.Height != LogoMaxSide/4 {
		t.Fatalf("logo is %dx%d", img.Width, img.Height)
	}
}

func TestUploadLogoRejects(t *testing.T) {
	f := newEdTechFixture()
	_, err := f.svc.UploadLogo(context.Background(), "u1", "draft", strings.NewReader("not an image"))
	wantCode(t, err, ErrorInvalid)
	_, err = f.svc.UploadLogo(context.Background(), "u1", "pending", bytes.NewReader(pngBytes(t, 8, 8)))
	wantCode(t, err, ErrorNotFound)
	if len(f.store.objects) != 0 {
		t.Fatalf("nothing should be stored, got %d objects", len(f.store.objects))
	}
}

func TestEvidenceOwnership(t *testing.T) {
	f := newEdTechFixture()
	ev, err := f.svc.AddEvidence("u1", "draft", dto.EvidenceRequest{Type: "study", Title: "Piloto"})
	if err != nil {
		t.Fatalf("add evidence: %v", err)
	}
	_, err = f.svc.AddEvidence("u2", "draft", dto.EvidenceRequest{Type: "study", Title: "x"})
	wantCode(t, err, ErrorNotFound)

	wantCode(t, f.svc.DeleteEvidence("u2", "foreign", ev.ID), ErrorNotFound)
	if err := f.svc.DeleteEvidence("u1", "draft", ev.ID); err != nil {
		t.Fatalf("delete evidence: %v", err)
	}
	wantCode(t, f.svc.DeleteEvidence("u1", "draft", ev.ID), ErrorNotFound)
}

func TestUpdateProfile(t *testing.T) {
	f := newEdTechFixture()
	c, err := f.svc.UpdateProfile("u1", dto.CompanyUpdateRequest{Country: strPtr("PE")})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if c.Country != "PE" || c.Name != "Acme" {
		t.Fatalf("unexpected company %+v", c)
	}
}
