package survey

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Step identifiers that are not section ids.
const (
	StepIntro     = "intro"
	StepSummary   = "summary"
	StepSubmitted = "submitted"
)

// StatusSubmitted is the status sent when the questionnaire is submitted.
const StatusSubmitted = "SUBMITTED"

var (
	ErrInvalidStep     = errors.New("survey: step has validation errors")
	ErrNotCertified    = errors.New("survey: answers were not certified")
	ErrUnknownQuestion = errors.New("survey: unknown question")
	ErrWrongType       = errors.New("survey: operation does not match question type")
)

type Step struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ProgressEntry struct {
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Progress records completion per step id.
type Progress map[string]ProgressEntry

// SavePayload is the full state persisted on every step transition.
type SavePayload struct {
	Answers         Answers           `json:"answers"`
	ConsentData     map[string]bool   `json:"consentData"`
	SectionProgress Progress          `json:"sectionProgress"`
	SummarySnapshot []SnapshotSection `json:"summarySnapshot"`
	SummaryText     string            `json:"summaryText"`
	Status          string            `json:"status,omitempty"`
}

type Saver interface {
	Save(ctx context.Context, payload SavePayload) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, payload SavePayload) error

func (f SaverFunc) Save(ctx context.Context, payload SavePayload) error { return f(ctx, payload) }

// State is what a wizard resumes from.
type State struct {
	Answers  Answers
	Consent  map[string]bool
	Progress Progress
}

// Wizard walks a definition step by step: intro, then each section, then
// the summary and finally the submitted screen. Answers are pruned on every
// mutation and the whole state is saved once per transition.
type Wizard struct {
	def      *Definition
	saver    Saver
	steps    []Step
	index    int
	answers  Answers
	consent  map[string]bool
	progress Progress
	errors   Errors
	now      func() time.Time
}

func NewWizard(def *Definition, saver Saver, state State) *Wizard {
	w := &Wizard{
		def:      def,
		saver:    saver,
		steps:    Steps(def),
		answers:  Answers{},
		consent:  map[string]bool{},
		progress: Progress{},
		errors:   Errors{},
		now:      time.Now,
	}
	for _, item := range def.Intro.Consent {
		w.consent[item.ID] = false
	}
	for k, v := range state.Consent {
		w.consent[k] = v
	}
	for k, v := range state.Answers {
		w.answers[k] = v
	}
	for k, v := range state.Progress {
		w.progress[k] = v
	}
	w.answers = def.PruneHidden(w.answers)
	w.index = Resume(w.steps, w.progress)
	return w
}

// Steps lists the wizard steps of a definition.
func Steps(def *Definition) []Step {
	steps := []Step{{ID: StepIntro, Title: "Introducción"}}
	for _, s := range def.Sections {
		steps = append(steps, Step{ID: s.ID, Title: s.Title})
	}
	return append(steps, Step{ID: StepSummary, Title: "Resumen"}, Step{ID: StepSubmitted, Title: "Formulario Enviado"})
}

// Resume returns the index of the first step not marked completed, or the
// last step when every other step is.
func Resume(steps []Step, progress Progress) int {
	for i := 0; i < len(steps)-1; i++ {
		if !progress[steps[i].ID].Completed {
			return i
		}
	}
	return len(steps) - 1
}

func (w *Wizard) Current() Step { return w.steps[w.index] }

func (w *Wizard) Index() int { return w.index }

func (w *Wizard) Errors() Errors { return w.errors }

func (w *Wizard) Answers() Answers { return w.answers }

func (w *Wizard) Progress() Progress { return w.progress }

// ProgressPercent is the share of form steps (intro and sections) passed.
func (w *Wizard) ProgressPercent() int {
	formSteps := len(w.steps) - 2
	if formSteps <= 0 {
		return 100
	}
	idx := w.index
	if idx > formSteps {
		idx = formSteps
	}
	return int(math.Round(float64(idx) / float64(formSteps) * 100))
}

// VisibleQuestions returns the questions of a section shown right now.
func (w *Wizard) VisibleQuestions(sectionID string) []Question {
	s, ok := w.def.Section(sectionID)
	if !ok {
		return nil
	}
	var out []Question
	for _, q := range s.Questions {
		if IsVisible(q, w.answers) {
			out = append(out, q)
		}
	}
	return out
}

func (w *Wizard) SetConsent(id string, granted bool) {
	w.consent[id] = granted
	delete(w.errors, id)
}

func (w *Wizard) question(id string, types ...QuestionType) (Question, error) {
	q, ok := w.def.Question(id)
	if !ok {
		return Question{}, fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	for _, t := range types {
		if q.Type == t {
			return q, nil
		}
	}
	return Question{}, fmt.Errorf("%w: %s is %s", ErrWrongType, id, q.Type)
}

func (w *Wizard) set(id string, a Answer) {
	w.answers[id] = a
	w.answers = w.def.PruneHidden(w.answers)
}

// SetText stores a text or url answer.
func (w *Wizard) SetText(questionID, value string) error {
	q, err := w.question(questionID, ShortText, LongText, URL)
	if err != nil {
		return err
	}
	if q.Type == URL {
		w.set(q.ID, Link(value))
	} else {
		w.set(q.ID, Text(value))
	}
	delete(w.errors, q.ID)
	return nil
}

// SelectSingle picks an option. Free text is kept only for "other".
func (w *Wizard) SelectSingle(questionID, value string) error {
	q, err := w.question(questionID, SingleChoice)
	if err != nil {
		return err
	}
	next := Single(value)
	if value == OptionOther {
		next.OtherText = w.answers[q.ID].OtherText
	}
	w.set(q.ID, next)
	delete(w.errors, q.ID)
	return nil
}

// ToggleChoice flips one option of a multi choice question. Going over
// maxSelections leaves the answer unchanged and records an error; selecting
// "none" alongside other options is kept but flagged.
func (w *Wizard) ToggleChoice(questionID, value string) error {
	q, err := w.question(questionID, MultiChoice)
	if err != nil {
		return err
	}
	prev := w.answers[q.ID]
	values := append([]string(nil), prev.Values...)

	if prev.hasValue(value) {
		filtered := values[:0]
		for _, v := range values {
			if v != value {
				filtered = append(filtered, v)
			}
		}
		values = filtered
	} else {
		if q.MaxSelections > 0 && len(values) >= q.MaxSelections {
			w.errors[q.ID] = msgMaxSelections(q.MaxSelections)
			return nil
		}
		values = append(values, value)
	}

	next := Multi(values...)
	if next.hasValue(OptionNone) && len(values) > 1 {
		w.errors[q.ID] = msgNoneExclusive
	} else {
		delete(w.errors, q.ID)
	}
	if next.hasValue(OptionOther) {
		next.OtherText = prev.OtherText
	}
	w.set(q.ID, next)
	return nil
}

// SetOtherText sets the free text of the "other" option and selects it.
func (w *Wizard) SetOtherText(questionID, text string) error {
	q, err := w.question(questionID, SingleChoice, MultiChoice)
	if err != nil {
		return err
	}
	prev := w.answers[q.ID]
	if q.Type == SingleChoice {
		next := Single(OptionOther)
		next.OtherText = &text
		w.set(q.ID, next)
		delete(w.errors, q.ID)
		return nil
	}
	next := Multi(append([]string(nil), prev.Values...)...)
	if !next.hasValue(OptionOther) {
		next.Values = append(next.Values, OptionOther)
	}
	next.OtherText = &text
	w.set(q.ID, next)

	withoutOther := Multi()
	for _, v := range next.Values {
		if v != OptionOther {
			withoutOther.Values = append(withoutOther.Values, v)
		}
	}
	if withoutOther.hasValue(OptionNone) && len(withoutOther.Values) > 1 {
		w.errors[q.ID] = msgNoneExclusive
	} else {
		delete(w.errors, q.ID)
	}
	return nil
}

// SetFiles replaces the file references of a file question.
func (w *Wizard) SetFiles(questionID string, files []FileRef) error {
	q, err := w.question(questionID, File)
	if err != nil {
		return err
	}
	if q.MaxFiles > 0 && len(files) > q.MaxFiles {
		w.errors[q.ID] = msgMaxFiles(q.MaxFiles)
		return nil
	}
	w.set(q.ID, Files(files...))
	delete(w.errors, q.ID)
	return nil
}

// Next validates the current step, marks it completed, saves and advances.
// It is a no-op on the summary and submitted steps.
func (w *Wizard) Next(ctx context.Context) error {
	step := w.Current()
	switch step.ID {
	case StepSummary, StepSubmitted:
		return nil
	case StepIntro:
		errs := w.def.ValidateIntro(w.consent)
		for k, v := range errs {
			w.errors[k] = v
		}
		if len(errs) > 0 {
			return ErrInvalidStep
		}
	default:
		section, ok := w.def.Section(step.ID)
		if !ok {
			return fmt.Errorf("survey: unknown section %s", step.ID)
		}
		for _, q := range section.Questions {
			delete(w.errors, q.ID)
		}
		errs := ValidateSection(section, w.answers)
		for k, v := range errs {
			w.errors[k] = v
		}
		if len(errs) > 0 {
			return ErrInvalidStep
		}
	}

	now := w.now()
	progress := make(Progress, len(w.progress)+1)
	for k, v := range w.progress {
		progress[k] = v
	}
	progress[step.ID] = ProgressEntry{Completed: true, CompletedAt: &now}

	if err := w.saver.Save(ctx, w.payload(progress, "")); err != nil {
		return err
	}
	w.progress = progress
	w.index++
	return nil
}

func (w *Wizard) Back() {
	if w.index > 0 {
		w.index--
	}
}

// Submit saves with the submitted status once the user certified the
// answers, then moves to the final step.
func (w *Wizard) Submit(ctx context.Context, certified bool) error {
	if !certified {
		w.errors["certification"] = msgCertification
		return ErrNotCertified
	}
	delete(w.errors, "certification")
	if err := w.saver.Save(ctx, w.payload(w.progress, StatusSubmitted)); err != nil {
		return err
	}
	w.index = len(w.steps) - 1
	return nil
}

func (w *Wizard) payload(progress Progress, status string) SavePayload {
	snapshot := w.def.BuildSummarySnapshot(w.answers)
	consent := make(map[string]bool, len(w.consent))
	for k, v := range w.consent {
		consent[k] = v
	}
	answers := make(Answers, len(w.answers))
	for k, v := range w.answers {
		answers[k] = v
	}
	return SavePayload{
		Answers:         answers,
		ConsentData:     consent,
		SectionProgress: progress,
		SummarySnapshot: snapshot,
		SummaryText:     w.def.BuildSummaryText(snapshot, consent),
		Status:          status,
	}
}
