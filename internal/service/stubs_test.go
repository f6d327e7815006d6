package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/lshigami/nodo-plus/internal/repository"
	"gorm.io/gorm"
)

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

type stubUserRepo struct {
	users map[string]*model.User
}

func newStubUserRepo() *stubUserRepo { return &stubUserRepo{users: map[string]*model.User{}} }

func (r *stubUserRepo) Create(user *model.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = newID(user.ID)
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) FindByID(id string) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByEmail(email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) ListByRole(role model.Role) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

type stubCompanyRepo struct {
	companies map[string]*model.EdTechCompany
}

func (r *stubCompanyRepo) FindByUserID(userID string) (*model.EdTechCompany, error) {
	for _, c := range r.companies {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCompanyRepo) FindByUserIDWithSolutions(userID string) (*model.EdTechCompany, error) {
	return r.FindByUserID(userID)
}

func (r *stubCompanyRepo) FindByID(id string) (*model.EdTechCompany, error) {
	if c, ok := r.companies[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCompanyRepo) Update(company *model.EdTechCompany) error {
	r.companies[company.ID] = company
	return nil
}

func (r *stubCompanyRepo) Count() (int64, error) { return int64(len(r.companies)), nil }

type stubInstitutionRepo struct {
	institutions []model.Institution
}

func (r *stubInstitutionRepo) FindByUserID(userID string) (*model.Institution, error) {
	for i := range r.institutions {
		if r.institutions[i].UserID == userID {
			return &r.institutions[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubInstitutionRepo) FindByID(id string) (*model.Institution, error) {
	for i := range r.institutions {
		if r.institutions[i].ID == id {
			return &r.institutions[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubInstitutionRepo) ListByName() ([]model.Institution, error) { return r.institutions, nil }

func (r *stubInstitutionRepo) CountByStatus(status model.InstitutionStatus) (int64, error) {
	var n int64
	for _, inst := range r.institutions {
		if inst.Status == status {
			n++
		}
	}
	return n, nil
}

type stubSolutionRepo struct {
	solutions map[string]*model.Solution
	companies map[string]*model.EdTechCompany
	approvals map[string]repository.Approval
}

func newStubSolutionRepo(companies map[string]*model.EdTechCompany, list ...model.Solution) *stubSolutionRepo {
	r := &stubSolutionRepo{
		solutions: map[string]*model.Solution{},
		companies: companies,
		approvals: map[string]repository.Approval{},
	}
	for i := range list {
		s := list[i]
		r.solutions[s.ID] = &s
	}
	return r
}

func (r *stubSolutionRepo) withCompany(s *model.Solution) *model.Solution {
	cp := *s
	if c, ok := r.companies[cp.EdTechCompanyID]; ok {
		cp.EdTechCompany = c
	}
	return &cp
}

func (r *stubSolutionRepo) Create(solution *model.Solution) error {
	solution.ID = newID(solution.ID)
	solution.CreatedAt = time.Now()
	cp := *solution
	r.solutions[solution.ID] = &cp
	return nil
}

func (r *stubSolutionRepo) FindByID(id string) (*model.Solution, error) {
	if s, ok := r.solutions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSolutionRepo) FindByIDWithDetails(id string) (*model.Solution, error) {
	if s, ok := r.solutions[id]; ok {
		return r.withCompany(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSolutionRepo) FindByIDAndCompany(id, companyID string) (*model.Solution, error) {
	if s, ok := r.solutions[id]; ok && s.EdTechCompanyID == companyID {
		return r.withCompany(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSolutionRepo) FindApprovedByID(id string) (*model.Solution, error) {
	if s, ok := r.solutions[id]; ok && s.Status == model.SolutionApproved {
		return r.withCompany(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSolutionRepo) sorted(keep func(*model.Solution) bool) []model.Solution {
	var out []model.Solution
	for _, s := range r.solutions {
		if keep(s) {
			out = append(out, *r.withCompany(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubSolutionRepo) ListByCompany(companyID string) ([]model.Solution, error) {
	return r.sorted(func(s *model.Solution) bool { return s.EdTechCompanyID == companyID }), nil
}

func (r *stubSolutionRepo) ListByStatus(status model.SolutionStatus, _ bool) ([]model.Solution, error) {
	return r.sorted(func(s *model.Solution) bool { return s.Status == status }), nil
}

func (r *stubSolutionRepo) ListAll() ([]model.Solution, error) {
	return r.sorted(func(*model.Solution) bool { return true }), nil
}

func (r *stubSolutionRepo) UpdateEditable(id, companyID string, fields map[string]any) (int64, error) {
	s, ok := r.solutions[id]
	if !ok || s.EdTechCompanyID != companyID || !s.Status.Editable() {
		return 0, nil
	}
	if v, ok := fields["name"].(string); ok {
		s.Name = v
	}
	if v, ok := fields["description"].(string); ok {
		s.Description = v
	}
	if v, ok := fields["logo_url"].(string); ok {
		s.LogoURL = &v
	}
	return 1, nil
}

func (r *stubSolutionRepo) MarkPending(id, companyID string) (int64, error) {
	s, ok := r.solutions[id]
	if !ok || s.EdTechCompanyID != companyID || !s.Status.Editable() {
		return 0, nil
	}
	s.Status = model.SolutionPending
	return 1, nil
}

func (r *stubSolutionRepo) UpdateStatus(id string, status model.SolutionStatus) (int64, error) {
	s, ok := r.solutions[id]
	if !ok {
		return 0, nil
	}
	s.Status = status
	return 1, nil
}

func (r *stubSolutionRepo) ApplyApproval(id string, approval repository.Approval) error {
	s, ok := r.solutions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for axis, score := range approval.Scores {
		s.SetAxisScore(axis, score, approval.Colors[axis])
	}
	s.Status = model.SolutionApproved
	s.ApprovedAt = &approval.ApprovedAt
	s.ApprovedBy = &approval.ApprovedBy
	r.approvals[id] = approval
	return nil
}

func (r *stubSolutionRepo) CountByStatus(status model.SolutionStatus) (int64, error) {
	list, _ := r.ListByStatus(status, false)
	return int64(len(list)), nil
}

func (r *stubSolutionRepo) CountGroupByStatus() ([]repository.StatusCount, error) {
	counts := map[model.SolutionStatus]int64{}
	for _, s := range r.solutions {
		counts[s.Status]++
	}
	var out []repository.StatusCount
	for status, n := range counts {
		out = append(out, repository.StatusCount{Status: status, Count: n})
	}
	return out, nil
}

type stubEvidenceRepo struct {
	evidences map[string]*model.Evidence
}

func (r *stubEvidenceRepo) Create(ev *model.Evidence) error {
	ev.ID = newID(ev.ID)
	r.evidences[ev.ID] = ev
	return nil
}

func (r *stubEvidenceRepo) DeleteForSolution(id, solutionID string) (int64, error) {
	ev, ok := r.evidences[id]
	if !ok || ev.SolutionID != solutionID {
		return 0, nil
	}
	delete(r.evidences, id)
	return 1, nil
}

type stubRuleRepo struct {
	rules []model.TrafficLightRule
}

func (r *stubRuleRepo) ListActive() ([]model.TrafficLightRule, error) {
	var out []model.TrafficLightRule
	for _, rule := range r.rules {
		if rule.Active {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *stubRuleRepo) ReplaceActive(rules []model.TrafficLightRule) error {
	for i := range r.rules {
		for _, nr := range rules {
			if r.rules[i].Axis == nr.Axis {
				r.rules[i].Active = false
			}
		}
	}
	r.rules = append(r.rules, rules...)
	return nil
}

type stubCatalogRepo struct {
	items []model.Catalog
}

func (r *stubCatalogRepo) ListActive() ([]model.Catalog, error) {
	var out []model.Catalog
	for _, it := range r.items {
		if it.Active {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *stubCatalogRepo) ListAll() ([]model.Catalog, error) { return r.items, nil }

func (r *stubCatalogRepo) FindByID(id string) (*model.Catalog, error) {
	for i := range r.items {
		if r.items[i].ID == id {
			cp := r.items[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCatalogRepo) Create(item *model.Catalog) error {
	for _, it := range r.items {
		if it.Value == item.Value {
			return gorm.ErrDuplicatedKey
		}
	}
	item.ID = newID(item.ID)
	r.items = append(r.items, *item)
	return nil
}

func (r *stubCatalogRepo) Update(item *model.Catalog) error {
	for i := range r.items {
		if r.items[i].ID == item.ID {
			r.items[i] = *item
		}
	}
	return nil
}

func (r *stubCatalogRepo) Delete(id string) (int64, error) {
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type stubConsultantRepo struct {
	users *stubUserRepo
}

func (r *stubConsultantRepo) SetActive(userID string, active bool) (int64, error) {
	u, ok := r.users.users[userID]
	if !ok || u.ConsultantProfile == nil {
		return 0, nil
	}
	u.ConsultantProfile.Active = active
	return 1, nil
}

func (r *stubConsultantRepo) FindByUserID(userID string) (*model.ConsultantProfile, error) {
	u, ok := r.users.users[userID]
	if !ok || u.ConsultantProfile == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return u.ConsultantProfile, nil
}

type stubSubmissionRepo struct {
	subs        map[string]*model.ProfileSubmission
	attachments *stubAttachmentRepo
}

func (r *stubSubmissionRepo) load(s *model.ProfileSubmission) *model.ProfileSubmission {
	cp := *s
	cp.Attachments = nil
	if r.attachments != nil {
		for _, a := range r.attachments.rows {
			if a.SubmissionID == s.ID {
				cp.Attachments = append(cp.Attachments, *a)
			}
		}
	}
	return &cp
}

func (r *stubSubmissionRepo) Create(sub *model.ProfileSubmission) error {
	sub.ID = newID(sub.ID)
	cp := *sub
	r.subs[sub.ID] = &cp
	return nil
}

func (r *stubSubmissionRepo) FindCurrent(userID string, kind model.SubmissionKind) (*model.ProfileSubmission, error) {
	for _, s := range r.subs {
		if s.UserID == userID && s.Kind == kind && s.Status != model.SubmissionArchived {
			return r.load(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSubmissionRepo) FindForUser(id, userID string, kind model.SubmissionKind) (*model.ProfileSubmission, error) {
	if s, ok := r.subs[id]; ok && s.UserID == userID && s.Kind == kind {
		return r.load(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSubmissionRepo) FindByID(id string) (*model.ProfileSubmission, error) {
	if s, ok := r.subs[id]; ok {
		return r.load(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSubmissionRepo) Save(sub *model.ProfileSubmission) error {
	cp := *sub
	r.subs[sub.ID] = &cp
	return nil
}

func (r *stubSubmissionRepo) ListActive() ([]model.ProfileSubmission, error) {
	var out []model.ProfileSubmission
	for _, s := range r.subs {
		if s.Status != model.SubmissionArchived {
			out = append(out, *r.load(s))
		}
	}
	return out, nil
}

func (r *stubSubmissionRepo) Archive(id string) (int64, error) {
	s, ok := r.subs[id]
	if !ok {
		return 0, nil
	}
	s.Status = model.SubmissionArchived
	return 1, nil
}

type stubAttachmentRepo struct {
	rows      map[string]*model.ProfileAttachment
	createErr error
}

func (r *stubAttachmentRepo) Create(att *model.ProfileAttachment) error {
	if r.createErr != nil {
		return r.createErr
	}
	att.ID = newID(att.ID)
	cp := *att
	r.rows[att.ID] = &cp
	return nil
}

func (r *stubAttachmentRepo) FindForSubmission(id, submissionID string) (*model.ProfileAttachment, error) {
	if a, ok := r.rows[id]; ok && a.SubmissionID == submissionID {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubAttachmentRepo) Delete(id string) error {
	delete(r.rows, id)
	return nil
}

func (r *stubAttachmentRepo) CountForSubmission(submissionID string) (int64, error) {
	var n int64
	for _, a := range r.rows {
		if a.SubmissionID == submissionID {
			n++
		}
	}
	return n, nil
}

// memStorage keeps blobs in memory.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemStorage() *memStorage { return &memStorage{objects: map[string][]byte{}} }

func (m *memStorage) Enabled() bool { return true }

func (m *memStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if m.putErr != nil {
		return m.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf.Bytes()
	return nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	if _, ok := m.objects[key]; !ok {
		return "", errors.New("no such key")
	}
	return fmt.Sprintf("https://signed.example/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

func (m *memStorage) PublicURL(key string) string { return "https://cdn.example/" + key }

// recordingNotifier captures the notifications a service sends.
type recordingNotifier struct {
	sent []string
}

func (n *recordingNotifier) record(kind, to string) { n.sent = append(n.sent, kind+":"+to) }

func (n *recordingNotifier) ContactRequest(_ context.Context, to, _, _, _ string) {
	n.record("contact", to)
}

func (n *recordingNotifier) SolutionApproved(_ context.Context, to, _ string) {
	n.record("approved", to)
}

func (n *recordingNotifier) SolutionRejected(_ context.Context, to, _, _ string) {
	n.record("rejected", to)
}

func (n *recordingNotifier) ChangesRequested(_ context.Context, to, _, _ string) {
	n.record("changes", to)
}

func (n *recordingNotifier) SolutionSubmitted(_ context.Context, name string) {
	n.record("submitted", name)
}

func (n *recordingNotifier) ConsultantWelcome(_ context.Context, to, _ string) {
	n.record("welcome", to)
}

type stubInsights struct{}

func (stubInsights) Summarize(_ context.Context, kind, summaryText string) (string, bool, error) {
	if summaryText == "" {
		return "", false, NewInvalidError("summaryText is empty")
	}
	return kind + ": " + summaryText, true, nil
}
