// Package survey holds the questionnaire definitions and the rules that
// operate on their answers: visibility, pruning, validation, summaries and
// the step-by-step wizard used by clients.
package survey

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

type QuestionType string

const (
	ShortText    QuestionType = "short_text"
	LongText     QuestionType = "long_text"
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	URL          QuestionType = "url"
	File         QuestionType = "file"
)

// Sentinel option values.
const (
	OptionNone  = "none"
	OptionOther = "other"
)

type ConsentItem struct {
	ID       string `yaml:"id" json:"id"`
	Label    string `yaml:"label" json:"label"`
	Required bool   `yaml:"required" json:"required"`
}

type Option struct {
	Value         string `yaml:"value" json:"value"`
	Label         string `yaml:"label" json:"label"`
	AllowFreeText bool   `yaml:"allowFreeText" json:"allowFreeText,omitempty"`
}

type Dependency struct {
	QuestionID      string   `yaml:"questionId" json:"questionId"`
	ExpectedAnswers []string `yaml:"expectedAnswers" json:"expectedAnswers"`
}

type Question struct {
	ID            string       `yaml:"id" json:"id"`
	Prompt        string       `yaml:"prompt" json:"prompt"`
	Type          QuestionType `yaml:"type" json:"type"`
	Required      bool         `yaml:"required" json:"required,omitempty"`
	HelpText      string       `yaml:"helpText" json:"helpText,omitempty"`
	WordLimit     int          `yaml:"wordLimit" json:"wordLimit,omitempty"`
	MaxSelections int          `yaml:"maxSelections" json:"maxSelections,omitempty"`
	MaxFiles      int          `yaml:"maxFiles" json:"maxFiles,omitempty"`
	Options       []Option     `yaml:"options" json:"options,omitempty"`
	DependsOn     *Dependency  `yaml:"dependsOn" json:"dependsOn,omitempty"`
	GroupWith     []string     `yaml:"groupWith" json:"groupWith,omitempty"`
}

// OptionLabel returns the label of a choice value, or the value itself.
func (q Question) OptionLabel(value string) string {
	if q.Type != SingleChoice && q.Type != MultiChoice {
		return value
	}
	for _, o := range q.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

func (q Question) otherAllowsFreeText() bool {
	for _, o := range q.Options {
		if o.Value == OptionOther && o.AllowFreeText {
			return true
		}
	}
	return false
}

type Section struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description,omitempty"`
	Questions   []Question `yaml:"questions" json:"questions"`
}

type Intro struct {
	Title       string        `yaml:"title" json:"title"`
	Description string        `yaml:"description" json:"description"`
	Consent     []ConsentItem `yaml:"consent" json:"consent"`
}

type Definition struct {
	Kind     string    `yaml:"-" json:"kind"`
	Intro    Intro     `yaml:"intro" json:"intro"`
	Sections []Section `yaml:"sections" json:"sections"`

	index map[string]Question
}

// Question looks a question up by id.
func (d *Definition) Question(id string) (Question, bool) {
	q, ok := d.index[id]
	return q, ok
}

// Questions returns every question in declaration order.
func (d *Definition) Questions() []Question {
	var out []Question
	for _, s := range d.Sections {
		out = append(out, s.Questions...)
	}
	return out
}

func (d *Definition) Section(id string) (Section, bool) {
	for _, s := range d.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// Definition kinds.
const (
	KindEdTech      = "edtech"
	KindInstitution = "institution"
)

//go:embed surveys/*.yaml
var surveyFiles embed.FS

var (
	loadOnce    sync.Once
	definitions map[string]*Definition
	loadErr     error
)

// Load returns the embedded definition for kind.
func Load(kind string) (*Definition, error) {
	loadOnce.Do(func() {
		definitions = map[string]*Definition{}
		for _, k := range []string{KindEdTech, KindInstitution} {
			raw, err := surveyFiles.ReadFile("surveys/" + k + ".yaml")
			if err != nil {
				loadErr = fmt.Errorf("read survey %s: %w", k, err)
				return
			}
			def, err := Parse(raw)
			if err != nil {
				loadErr = fmt.Errorf("survey %s: %w", k, err)
				return
			}
			def.Kind = k
			definitions[k] = def
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}
	def, ok := definitions[kind]
	if !ok {
		return nil, fmt.Errorf("unknown survey kind %q", kind)
	}
	return def, nil
}

// Parse decodes a YAML definition and checks its internal references.
func Parse(raw []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	def.index = map[string]Question{}
	for _, s := range def.Sections {
		for _, q := range s.Questions {
			if q.ID == "" {
				return nil, fmt.Errorf("section %s has a question without id", s.ID)
			}
			if _, dup := def.index[q.ID]; dup {
				return nil, fmt.Errorf("duplicate question id %s", q.ID)
			}
			def.index[q.ID] = q
		}
	}
	for _, q := range def.index {
		if q.DependsOn != nil {
			if _, ok := def.index[q.DependsOn.QuestionID]; !ok {
				return nil, fmt.Errorf("question %s depends on unknown question %s", q.ID, q.DependsOn.QuestionID)
			}
		}
	}
	return &def, nil
}
