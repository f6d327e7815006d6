package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lshigami/nodo-plus/config"
	"github.com/lshigami/nodo-plus/internal/model"
	"gorm.io/datatypes"
)

func body(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	var out map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("bad test body %s: %v", raw, err)
	}
	return out
}

func TestApplySubmissionPatchAbsentVersusNull(t *testing.T) {
	text := "resumen"
	sub := &model.ProfileSubmission{
		Kind:            model.SubmissionKindEdTech,
		Status:          model.SubmissionInProgress,
		ConsentData:     datatypes.JSON(`{"c1":true}`),
		SectionProgress: datatypes.JSON(`{"intro":{"completed":true}}`),
		SummaryText:     &text,
	}
	if err := ApplySubmissionPatch(sub, body(t, `{}`), PatchOptions{}); err != nil {
		t.Fatalf("empty patch: %v", err)
	}
	if string(sub.ConsentData) != `{"c1":true}` || sub.SummaryText == nil || *sub.SummaryText != "resumen" {
		t.Fatalf("absent keys must keep stored values")
	}

	if err := ApplySubmissionPatch(sub, body(t, `{"consentData":null,"summaryText":null}`), PatchOptions{}); err != nil {
		t.Fatalf("null patch: %v", err)
	}
	if string(sub.ConsentData) != "{}" || sub.SummaryText != nil {
		t.Fatalf("null must reset: consent=%s summary=%v", sub.ConsentData, sub.SummaryText)
	}
	if string(sub.SectionProgress) != `{"intro":{"completed":true}}` {
		t.Fatalf("untouched field changed: %s", sub.SectionProgress)
	}

	wantCode(t, ApplySubmissionPatch(sub, body(t, `{"consentData":[1,2]}`), PatchOptions{}), ErrorInvalid)
	wantCode(t, ApplySubmissionPatch(sub, body(t, `{"summaryText":42}`), PatchOptions{}), ErrorInvalid)
	wantCode(t, ApplySubmissionPatch(sub, body(t, `{"answers":"nope"}`), PatchOptions{}), ErrorInvalid)
}

func TestApplySubmissionPatchStatus(t *testing.T) {
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	sub := &model.ProfileSubmission{Kind: model.SubmissionKindEdTech, Status: model.SubmissionInProgress}

	wantCode(t, ApplySubmissionPatch(sub, body(t, `{"status":"ARCHIVED"}`), PatchOptions{}), ErrorInvalid)
	wantCode(t, ApplySubmissionPatch(sub, body(t, `{"status":"DONE"}`), PatchOptions{}), ErrorInvalid)

	if err := ApplySubmissionPatch(sub, body(t, `{"status":"SUBMITTED"}`), PatchOptions{Now: first}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Status != model.SubmissionSubmitted || sub.SubmittedAt == nil || !sub.SubmittedAt.Equal(first) {
		t.Fatalf("submittedAt not set: %+v", sub.SubmittedAt)
	}
	if err := ApplySubmissionPatch(sub, body(t, `{"status":"SUBMITTED"}`), PatchOptions{Now: first.Add(time.Hour)}); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if !sub.SubmittedAt.Equal(first) {
		t.Fatalf("submittedAt must keep the first submission time")
	}
	wantCode(t, ApplySubmissionPatch(sub, body(t, `{"status":"IN_PROGRESS"}`), PatchOptions{}), ErrorInvalid)

	admin := PatchOptions{AllowAnyStatus: true}
	if err := ApplySubmissionPatch(sub, body(t, `{"status":"IN_PROGRESS"}`), admin); err != nil {
		t.Fatalf("admin reopen: %v", err)
	}
	if err := ApplySubmissionPatch(sub, body(t, `{"status":"ARCHIVED"}`), admin); err != nil {
		t.Fatalf("admin archive: %v", err)
	}
	if sub.Status != model.SubmissionArchived {
		t.Fatalf("status %s", sub.Status)
	}
}

func TestApplySubmissionPatchPrunesHiddenAnswers(t *testing.T) {
	sub := &model.ProfileSubmission{Kind: model.SubmissionKindEdTech, Status: model.SubmissionInProgress}
	patch := body(t, `{"answers":{"s5_q2a":{"kind":"single","value":"no"},"s5_q2b":{"kind":"text","value":"Ajustes del docente"},"legacy":1}}`)
	if err := ApplySubmissionPatch(sub, patch, PatchOptions{}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	var answers map[string]json.RawMessage
	if err := json.Unmarshal(sub.Answers, &answers); err != nil {
		t.Fatalf("stored answers: %v", err)
	}
	if _, ok := answers["s5_q2b"]; ok {
		t.Fatalf("hidden answer kept: %s", sub.Answers)
	}
	if _, ok := answers["s5_q2a"]; !ok {
		t.Fatalf("visible answer dropped")
	}
	if string(answers["legacy"]) != "1" {
		t.Fatalf("unknown ids must be kept untouched: %s", sub.Answers)
	}

	patch = body(t, `{"answers":{"s5_q2a":"yes","s5_q2b":"Ajustes"}}`)
	if err := ApplySubmissionPatch(sub, patch, PatchOptions{}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !strings.Contains(string(sub.Answers), "s5_q2b") {
		t.Fatalf("visible dependant dropped: %s", sub.Answers)
	}

	if err := ApplySubmissionPatch(sub, body(t, `{"answers":null}`), PatchOptions{}); err != nil {
		t.Fatalf("null answers: %v", err)
	}
	if string(sub.Answers) != "{}" {
		t.Fatalf("answers not reset: %s", sub.Answers)
	}
}

type submissionFixture struct {
	svc         SubmissionServices
	subs        *stubSubmissionRepo
	attachments *stubAttachmentRepo
	store       *memStorage
}

func newSubmissionFixture() *submissionFixture {
	attachments := &stubAttachmentRepo{rows: map[string]*model.ProfileAttachment{}}
	f := &submissionFixture{
		subs:        &stubSubmissionRepo{subs: map[string]*model.ProfileSubmission{}, attachments: attachments},
		attachments: attachments,
		store:       newMemStorage(),
	}
	companies := &stubCompanyRepo{companies: map[string]*model.EdTechCompany{
		"c1": {Base: model.Base{ID: "c1"}, UserID: "u1", Name: "Acme"},
	}}
	institutions := &stubInstitutionRepo{institutions: []model.Institution{
		{Base: model.Base{ID: "i1"}, UserID: "u3", Name: "Colegio"},
	}}
	cfg := &config.Config{Storage: config.Storage{URLTTL: 15 * time.Minute, MaxUploadBytes: 1024}}
	f.svc = NewSubmissionServices(f.subs, attachments, companies, institutions, f.store, cfg)
	return f
}

func TestSubmissionCreateAndOwnership(t *testing.T) {
	f := newSubmissionFixture()
	cur, err := f.svc.EdTech.GetCurrent("u1")
	if err != nil || cur != nil {
		t.Fatalf("expected no current submission, got %v %v", cur, err)
	}

	sub, err := f.svc.EdTech.Create("u1", body(t, `{"status":"SUBMITTED","summaryText":"hola"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub.Status != model.SubmissionInProgress || sub.EdTechCompanyID == nil || *sub.EdTechCompanyID != "c1" {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if string(sub.Answers) != "{}" || sub.SummaryText == nil || *sub.SummaryText != "hola" {
		t.Fatalf("initial values: answers=%s summary=%v", sub.Answers, sub.SummaryText)
	}

	cur, err = f.svc.EdTech.GetCurrent("u1")
	if err != nil || cur == nil || cur.ID != sub.ID {
		t.Fatalf("current submission: %v %v", cur, err)
	}
	if cur, _ := f.svc.Institution.GetCurrent("u1"); cur != nil {
		t.Fatalf("kinds must not mix")
	}

	_, err = f.svc.EdTech.Update("u2", sub.ID, body(t, `{"summaryText":"x"}`))
	wantCode(t, err, ErrorNotFound)
	_, err = f.svc.Institution.GetByID("u1", sub.ID)
	wantCode(t, err, ErrorNotFound)

	inst, err := f.svc.Institution.Create("u3", nil)
	if err != nil {
		t.Fatalf("create institution submission: %v", err)
	}
	if inst.InstitutionID == nil || *inst.InstitutionID != "i1" || inst.Kind != model.SubmissionKindInstitution {
		t.Fatalf("institution link: %+v", inst)
	}
}

func TestAttachmentRoundTrip(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()
	sub, err := f.svc.EdTech.Create("u1", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, err := f.svc.EdTech.UploadAttachment(ctx, "u1", sub.ID, AttachmentUpload{
		QuestionID:  "s2_q1",
		Filename:    "informe final.pdf",
		ContentType: "application/pdf",
		Size:        5,
		Body:        strings.NewReader("%PDF-"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StorageProvider != "r2" || resp.SizeBytes == nil || *resp.SizeBytes != 5 {
		t.Fatalf("attachment metadata %+v", resp.ProfileAttachment)
	}
	if !strings.HasSuffix(resp.FileURL, "-informe_final.pdf") || resp.DownloadURL == "" {
		t.Fatalf("key %s url %s", resp.FileURL, resp.DownloadURL)
	}
	if string(f.store.objects[resp.FileURL]) != "%PDF-" {
		t.Fatalf("blob not stored")
	}

	loaded, _ := f.svc.EdTech.GetByID("u1", sub.ID)
	if len(loaded.Attachments) != 1 {
		t.Fatalf("attachment not listed on submission")
	}

	url, err := f.svc.EdTech.GetAttachmentURL(ctx, "u1", sub.ID, resp.ID)
	if err != nil || !strings.Contains(url, "ttl=900") {
		t.Fatalf("download url %q %v", url, err)
	}
	_, err = f.svc.EdTech.GetAttachmentURL(ctx, "u2", sub.ID, resp.ID)
	wantCode(t, err, ErrorNotFound)

	if err := f.svc.EdTech.DeleteAttachment(ctx, "u1", sub.ID, resp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := f.attachments.CountForSubmission(sub.ID); n != 0 {
		t.Fatalf("expected 0 attachment rows, got %d", n)
	}
	if len(f.store.objects) != 0 {
		t.Fatalf("blob not deleted")
	}
	wantCode(t, f.svc.EdTech.DeleteAttachment(ctx, "u1", sub.ID, resp.ID), ErrorNotFound)
}

func TestUploadAttachmentValidation(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()
	sub, _ := f.svc.EdTech.Create("u1", nil)

	_, err := f.svc.EdTech.UploadAttachment(ctx, "u1", sub.ID, AttachmentUpload{Filename: "a.pdf", Body: strings.NewReader("x"), Size: 1})
	wantCode(t, err, ErrorInvalid)
	_, err = f.svc.EdTech.UploadAttachment(ctx, "u1", sub.ID, AttachmentUpload{QuestionID: "q"})
	wantCode(t, err, ErrorInvalid)
	_, err = f.svc.EdTech.UploadAttachment(ctx, "u1", sub.ID, AttachmentUpload{QuestionID: "q", Filename: "big.bin", Body: strings.NewReader("x"), Size: 2048})
	wantCode(t, err, ErrorInvalid)
	_, err = f.svc.EdTech.UploadAttachment(ctx, "u2", sub.ID, AttachmentUpload{QuestionID: "q", Filename: "a.pdf", Body: strings.NewReader("x"), Size: 1})
	wantCode(t, err, ErrorNotFound)
	if len(f.store.objects) != 0 {
		t.Fatalf("rejected uploads must not reach storage")
	}
}

func TestUploadAttachmentRemovesBlobWhenRecordFails(t *testing.T) {
	f := newSubmissionFixture()
	sub, _ := f.svc.EdTech.Create("u1", nil)
	f.attachments.createErr = errors.New("db down")

	_, err := f.svc.EdTech.UploadAttachment(context.Background(), "u1", sub.ID, AttachmentUpload{
		QuestionID: "q", Filename: "a.pdf", Body: strings.NewReader("x"), Size: 1,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := AsServiceError(err); ok {
		t.Fatalf("storage failures are internal errors, got %v", err)
	}
	if len(f.store.objects) != 0 {
		t.Fatalf("orphaned blob left behind")
	}
}
