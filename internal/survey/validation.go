package survey

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Errors maps a question or consent id to a user facing message.
type Errors map[string]string

const (
	msgConsentRequired = "Este consentimiento es obligatorio para continuar."
	msgRequired        = "Este campo es obligatorio."
	msgInvalidURL      = "Ingresa una URL válida."
	msgSelectOne       = "Selecciona una opción."
	msgSelectAtLeast   = "Selecciona al menos una opción."
	msgDescribeOther   = `Describe la opción "Otro".`
	msgNoneExclusive   = `No puedes seleccionar "Ninguno" junto con otras opciones.`
	msgFileRequired    = "Adjunta al menos un archivo."
	msgCertification   = "Debes certificar que las respuestas son fieles a la realidad para enviar el formulario."
)

func msgWordLimit(n int) string {
	return fmt.Sprintf("Máximo %d palabras.", n)
}

func msgMaxSelections(n int) string {
	return fmt.Sprintf("Solo puedes seleccionar hasta %d opciones.", n)
}

func msgMaxFiles(n int) string {
	return fmt.Sprintf("Solo puedes adjuntar hasta %d archivo(s).", n)
}

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][\w+.-]*:`)

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// ValidURL accepts URLs with or without a scheme; a missing scheme is
// treated as https.
func ValidURL(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	candidate := trimmed
	if !schemePrefix.MatchString(trimmed) {
		candidate = "https://" + trimmed
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Scheme == "" {
		return false
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return u.Host != ""
	}
	return true
}

// ValidateIntro checks that every required consent was granted.
func (d *Definition) ValidateIntro(consent map[string]bool) Errors {
	errs := Errors{}
	for _, item := range d.Intro.Consent {
		if item.Required && !consent[item.ID] {
			errs[item.ID] = msgConsentRequired
		}
	}
	return errs
}

// ValidateSection checks the visible questions of a section.
func ValidateSection(section Section, answers Answers) Errors {
	errs := Errors{}
	for _, q := range section.Questions {
		if !IsVisible(q, answers) {
			continue
		}
		if msg := validateQuestion(q, answers[q.ID]); msg != "" {
			errs[q.ID] = msg
		}
	}
	return errs
}

// ValidateAll validates every section of the definition.
func (d *Definition) ValidateAll(answers Answers) Errors {
	errs := Errors{}
	for _, s := range d.Sections {
		for k, v := range ValidateSection(s, answers) {
			errs[k] = v
		}
	}
	return errs
}

func validateQuestion(q Question, a Answer) string {
	switch q.Type {
	case ShortText, LongText:
		value := a.text()
		if q.Required && strings.TrimSpace(value) == "" {
			return msgRequired
		}
		if q.WordLimit > 0 && WordCount(value) > q.WordLimit {
			return msgWordLimit(q.WordLimit)
		}
	case URL:
		value := strings.TrimSpace(a.text())
		if q.Required && value == "" {
			return msgRequired
		}
		if value != "" && !ValidURL(value) {
			return msgInvalidURL
		}
	case SingleChoice:
		if q.Required && (a.Value == nil || *a.Value == "") {
			return msgSelectOne
		}
		if a.Value != nil && *a.Value == OptionOther && q.otherAllowsFreeText() && strings.TrimSpace(a.otherText()) == "" {
			return msgDescribeOther
		}
	case MultiChoice:
		if q.Required && len(a.Values) == 0 {
			return msgSelectAtLeast
		}
		if a.hasValue(OptionNone) && len(a.Values) > 1 {
			return msgNoneExclusive
		}
		if q.MaxSelections > 0 && len(a.Values) > q.MaxSelections {
			return msgMaxSelections(q.MaxSelections)
		}
		if a.hasValue(OptionOther) && q.otherAllowsFreeText() && strings.TrimSpace(a.otherText()) == "" {
			return msgDescribeOther
		}
	case File:
		if q.Required && len(a.Files) == 0 {
			return msgFileRequired
		}
		if q.MaxFiles > 0 && len(a.Files) > q.MaxFiles {
			return msgMaxFiles(q.MaxFiles)
		}
	}
	return ""
}
