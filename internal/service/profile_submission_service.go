package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lshigami/nodo-plus/config"
	"github.com/lshigami/nodo-plus/internal/dto"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/lshigami/nodo-plus/internal/repository"
	"github.com/lshigami/nodo-plus/internal/storage"
	"github.com/lshigami/nodo-plus/internal/survey"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	msgNoSubmission      = "Profile submission not found"
	msgNoAttachment      = "Attachment not found"
	msgQuestionRequired  = "questionId is required"
	msgNoFile            = "No file uploaded"
	msgCannotArchive     = "status ARCHIVED can only be set by an administrator"
	msgCannotReopen      = "A submitted profile cannot go back to IN_PROGRESS"
	msgInvalidStatus     = "Invalid status"
	msgInvalidSummary    = "summaryText must be a string or null"
	msgInvalidJSONObject = "%s must be a JSON object or null"
)

// AttachmentUpload is a file received from a multipart request.
type AttachmentUpload struct {
	QuestionID  string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ProfileSubmissionService interface {
	Kind() model.SubmissionKind
	GetCurrent(userID string) (*model.ProfileSubmission, error)
	Create(userID string, body map[string]json.RawMessage) (*model.ProfileSubmission, error)
	GetByID(userID, id string) (*model.ProfileSubmission, error)
	Update(userID, id string, body map[string]json.RawMessage) (*model.ProfileSubmission, error)
	UploadAttachment(ctx context.Context, userID, id string, upload AttachmentUpload) (*dto.AttachmentResponse, error)
	DeleteAttachment(ctx context.Context, userID, id, attachmentID string) error
	GetAttachmentURL(ctx context.Context, userID, id, attachmentID string) (string, error)
}

// SubmissionServices holds one submission service per questionnaire kind.
type SubmissionServices struct {
	EdTech      ProfileSubmissionService
	Institution ProfileSubmissionService
}

type profileSubmissionService struct {
	kind            model.SubmissionKind
	submissionRepo  repository.ProfileSubmissionRepository
	attachmentRepo  repository.ProfileAttachmentRepository
	companyRepo     repository.EdTechCompanyRepository
	institutionRepo repository.InstitutionRepository
	store           storage.ObjectStorage
	urlTTL          time.Duration
	maxUpload       int64
	now             func() time.Time
}

func NewSubmissionServices(
	submissionRepo repository.ProfileSubmissionRepository,
	attachmentRepo repository.ProfileAttachmentRepository,
	companyRepo repository.EdTechCompanyRepository,
	institutionRepo repository.InstitutionRepository,
	store storage.ObjectStorage,
	cfg *config.Config,
) SubmissionServices {
	build := func(kind model.SubmissionKind) ProfileSubmissionService {
		return &profileSubmissionService{
			kind:            kind,
			submissionRepo:  submissionRepo,
			attachmentRepo:  attachmentRepo,
			companyRepo:     companyRepo,
			institutionRepo: institutionRepo,
			store:           store,
			urlTTL:          cfg.Storage.URLTTL,
			maxUpload:       cfg.Storage.MaxUploadBytes,
			now:             time.Now,
		}
	}
	return SubmissionServices{
		EdTech:      build(model.SubmissionKindEdTech),
		Institution: build(model.SubmissionKindInstitution),
	}
}

func (s *profileSubmissionService) Kind() model.SubmissionKind { return s.kind }

// GetCurrent returns nil without error when the user has no open submission.
func (s *profileSubmissionService) GetCurrent(userID string) (*model.ProfileSubmission, error) {
	sub, err := s.submissionRepo.FindCurrent(userID, s.kind)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find current submission: %w", err)
	}
	return sub, nil
}

func (s *profileSubmissionService) Create(userID string, body map[string]json.RawMessage) (*model.ProfileSubmission, error) {
	sub := &model.ProfileSubmission{
		UserID:          userID,
		Kind:            s.kind,
		Status:          model.SubmissionInProgress,
		Answers:         emptyObject(),
		ConsentData:     emptyObject(),
		SectionProgress: emptyObject(),
		SummarySnapshot: emptyObject(),
	}
	if err := s.linkProfile(sub); err != nil {
		return nil, err
	}
	initial := make(map[string]json.RawMessage, len(body))
	for k, v := range body {
		if k != "status" {
			initial[k] = v
		}
	}
	if err := ApplySubmissionPatch(sub, initial, PatchOptions{Now: s.now()}); err != nil {
		return nil, err
	}
	if err := s.submissionRepo.Create(sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	log.Info().Str("submissionID", sub.ID).Str("userID", userID).Str("kind", string(s.kind)).Msg("Profile submission created")
	if sub.Attachments == nil {
		sub.Attachments = []model.ProfileAttachment{}
	}
	return sub, nil
}

// linkProfile attaches the caller's company or institution when one exists.
func (s *profileSubmissionService) linkProfile(sub *model.ProfileSubmission) error {
	switch s.kind {
	case model.SubmissionKindEdTech:
		c, err := s.companyRepo.FindByUserID(sub.UserID)
		if err == nil {
			sub.EdTechCompanyID = &c.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find company: %w", err)
		}
	case model.SubmissionKindInstitution:
		inst, err := s.institutionRepo.FindByUserID(sub.UserID)
		if err == nil {
			sub.InstitutionID = &inst.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find institution: %w", err)
		}
	}
	return nil
}

func (s *profileSubmissionService) owned(userID, id string) (*model.ProfileSubmission, error) {
	sub, err := s.submissionRepo.FindForUser(id, userID, s.kind)
	if err != nil {
		return nil, notFoundOr(err, msgNoSubmission)
	}
	return sub, nil
}

func (s *profileSubmissionService) GetByID(userID, id string) (*model.ProfileSubmission, error) {
	return s.owned(userID, id)
}

func (s *profileSubmissionService) Update(userID, id string, body map[string]json.RawMessage) (*model.ProfileSubmission, error) {
	sub, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	if err := ApplySubmissionPatch(sub, body, PatchOptions{Now: s.now()}); err != nil {
		return nil, err
	}
	if err := s.submissionRepo.Save(sub); err != nil {
		return nil, fmt.Errorf("update submission: %w", err)
	}
	return sub, nil
}

// UploadAttachment stores the blob first and then records it. When the
// record cannot be written the blob is deleted again.
func (s *profileSubmissionService) UploadAttachment(ctx context.Context, userID, id string, upload AttachmentUpload) (*dto.AttachmentResponse, error) {
	questionID := strings.TrimSpace(upload.QuestionID)
	if questionID == "" {
		return nil, NewInvalidError(msgQuestionRequired)
	}
	if upload.Body == nil {
		return nil, NewInvalidError(msgNoFile)
	}
	if s.maxUpload > 0 && upload.Size > s.maxUpload {
		return nil, NewInvalidError(fmt.Sprintf("File exceeds the maximum size of %s", survey.FormatBytes(s.maxUpload)))
	}
	sub, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}

	key := storage.AttachmentKey(sub.ID, questionID, upload.Filename)
	if err := s.store.Put(ctx, key, upload.Body, upload.Size, upload.ContentType); err != nil {
		log.Error().Err(err).Str("submissionID", sub.ID).Str("key", key).Msg("Failed to store attachment")
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	att := &model.ProfileAttachment{
		SubmissionID:    sub.ID,
		QuestionID:      questionID,
		Filename:        upload.Filename,
		FileURL:         key,
		StorageProvider: storage.Provider,
		UploadedAt:      s.now(),
	}
	if upload.ContentType != "" {
		ct := upload.ContentType
		att.ContentType = &ct
	}
	size := upload.Size
	att.SizeBytes = &size

	if err := s.attachmentRepo.Create(att); err != nil {
		log.Error().Err(err).Str("submissionID", sub.ID).Str("key", key).Msg("Failed to record attachment, removing blob")
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.Error().Err(delErr).Str("key", key).Msg("Orphaned attachment blob left in storage")
		}
		return nil, fmt.Errorf("record attachment: %w", err)
	}

	resp := &dto.AttachmentResponse{ProfileAttachment: *att}
	url, err := s.store.PresignGet(ctx, key, s.urlTTL)
	if err != nil {
		log.Error().Err(err).Str("attachmentID", att.ID).Msg("Failed to sign download URL")
	} else {
		resp.DownloadURL = url
	}
	return resp, nil
}

func (s *profileSubmissionService) attachment(userID, id, attachmentID string) (*model.ProfileAttachment, error) {
	sub, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	att, err := s.attachmentRepo.FindForSubmission(attachmentID, sub.ID)
	if err != nil {
		return nil, notFoundOr(err, msgNoAttachment)
	}
	return att, nil
}

// DeleteAttachment removes the blob, then the row.
func (s *profileSubmissionService) DeleteAttachment(ctx context.Context, userID, id, attachmentID string) error {
	att, err := s.attachment(userID, id, attachmentID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, att.FileURL); err != nil {
		log.Error().Err(err).Str("attachmentID", att.ID).Msg("Failed to delete attachment blob")
		return fmt.Errorf("delete attachment blob: %w", err)
	}
	if err := s.attachmentRepo.Delete(att.ID); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}

func (s *profileSubmissionService) GetAttachmentURL(ctx context.Context, userID, id, attachmentID string) (string, error) {
	att, err := s.attachment(userID, id, attachmentID)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, att.FileURL, s.urlTTL)
	if err != nil {
		return "", fmt.Errorf("sign attachment url: %w", err)
	}
	return url, nil
}

// PatchOptions tunes ApplySubmissionPatch for vendors and administrators.
type PatchOptions struct {
	AllowAnyStatus bool
	Now            time.Time
}

// ApplySubmissionPatch applies a partial update. A key missing from body
// keeps the stored value; an explicit null resets objects to {} and
// summaryText to nil. Written answers are pruned of hidden questions.
func ApplySubmissionPatch(sub *model.ProfileSubmission, body map[string]json.RawMessage, opts PatchOptions) error {
	if raw, ok := body["answers"]; ok {
		answers, err := prunedAnswers(sub.Kind, raw)
		if err != nil {
			return err
		}
		sub.Answers = answers
	}
	for _, f := range []struct {
		key  string
		dest *datatypes.JSON
	}{
		{"consentData", &sub.ConsentData},
		{"sectionProgress", &sub.SectionProgress},
	} {
		raw, ok := body[f.key]
		if !ok {
			continue
		}
		v, err := objectOrEmpty(f.key, raw)
		if err != nil {
			return err
		}
		*f.dest = v
	}
	if raw, ok := body["summarySnapshot"]; ok {
		if isNull(raw) {
			sub.SummarySnapshot = emptyObject()
		} else if json.Valid(raw) {
			sub.SummarySnapshot = datatypes.JSON(bytes.Clone(raw))
		} else {
			return NewInvalidError("summarySnapshot must be valid JSON")
		}
	}
	if raw, ok := body["summaryText"]; ok {
		if isNull(raw) {
			sub.SummaryText = nil
		} else {
			var text string
			if err := json.Unmarshal(raw, &text); err != nil {
				return NewInvalidError(msgInvalidSummary)
			}
			sub.SummaryText = &text
		}
	}
	if raw, ok := body["status"]; ok {
		var status model.SubmissionStatus
		if err := json.Unmarshal(raw, &status); err != nil || !status.Valid() {
			return NewInvalidError(msgInvalidStatus)
		}
		if !opts.AllowAnyStatus {
			if status == model.SubmissionArchived {
				return NewInvalidError(msgCannotArchive)
			}
			if sub.Status == model.SubmissionSubmitted && status == model.SubmissionInProgress {
				return NewInvalidError(msgCannotReopen)
			}
		}
		if status == model.SubmissionSubmitted && sub.Status != model.SubmissionSubmitted {
			now := opts.Now
			if now.IsZero() {
				now = time.Now()
			}
			sub.SubmittedAt = &now
		}
		sub.Status = status
	}
	return nil
}

// prunedAnswers decodes an answers object and drops the answers of
// questions hidden by the questionnaire of kind.
func prunedAnswers(kind model.SubmissionKind, raw json.RawMessage) (datatypes.JSON, error) {
	if isNull(raw) {
		return emptyObject(), nil
	}
	var answers map[string]json.RawMessage
	if err := json.Unmarshal(raw, &answers); err != nil || answers == nil {
		return nil, NewInvalidError(fmt.Sprintf(msgInvalidJSONObject, "answers"))
	}
	def, err := survey.Load(surveyKind(kind))
	if err != nil {
		return nil, fmt.Errorf("load %s questionnaire: %w", kind, err)
	}
	kept, removed := def.PruneRaw(answers)
	if len(removed) > 0 {
		log.Debug().Strs("questionIDs", removed).Msg("Pruned answers of hidden questions")
	}
	out, err := json.Marshal(kept)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	return out, nil
}

func surveyKind(kind model.SubmissionKind) string {
	if kind == model.SubmissionKindInstitution {
		return survey.KindInstitution
	}
	return survey.KindEdTech
}

func objectOrEmpty(field string, raw json.RawMessage) (datatypes.JSON, error) {
	if isNull(raw) {
		return emptyObject(), nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, NewInvalidError(fmt.Sprintf(msgInvalidJSONObject, field))
	}
	return datatypes.JSON(bytes.Clone(raw)), nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func emptyObject() datatypes.JSON { return datatypes.JSON("{}") }
