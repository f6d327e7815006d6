package survey

import (
	"fmt"
	"math"
	"strings"
)

type SnapshotQuestion struct {
	ID       string `json:"id"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

type SnapshotSection struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Questions []SnapshotQuestion `json:"questions"`
}

// BuildSummarySnapshot renders the visible questions of every section with
// a human readable response.
func (d *Definition) BuildSummarySnapshot(answers Answers) []SnapshotSection {
	out := make([]SnapshotSection, 0, len(d.Sections))
	for _, s := range d.Sections {
		sec := SnapshotSection{ID: s.ID, Title: s.Title, Questions: []SnapshotQuestion{}}
		for _, q := range s.Questions {
			if !IsVisible(q, answers) {
				continue
			}
			var response string
			if a, ok := answers[q.ID]; ok {
				response = FormatAnswer(q, a)
			}
			sec.Questions = append(sec.Questions, SnapshotQuestion{ID: q.ID, Prompt: q.Prompt, Response: response})
		}
		out = append(out, sec)
	}
	return out
}

// BuildSummaryText flattens a snapshot and the consent state into markdown.
func (d *Definition) BuildSummaryText(snapshot []SnapshotSection, consent map[string]bool) string {
	parts := []string{"# Consentimientos"}
	for _, item := range d.Intro.Consent {
		value := "No"
		if consent[item.ID] {
			value = "Sí"
		}
		parts = append(parts, fmt.Sprintf("- %s: %s", item.Label, value))
	}
	parts = append(parts, "")
	for _, s := range snapshot {
		lines := []string{"## " + s.Title}
		for _, q := range s.Questions {
			value := q.Response
			if value == "" {
				value = "Sin respuesta"
			}
			lines = append(lines, fmt.Sprintf("- %s: %s", q.Prompt, value))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// FormatAnswer renders one answer for the summary.
func FormatAnswer(q Question, a Answer) string {
	switch a.Kind {
	case KindText, KindURL:
		return a.text()
	case KindSingle:
		if a.Value == nil || *a.Value == "" {
			return ""
		}
		if *a.Value == OptionOther {
			if a.OtherText != nil {
				return *a.OtherText
			}
			return "Otro (sin especificar)"
		}
		return q.OptionLabel(*a.Value)
	case KindMulti:
		labels := make([]string, 0, len(a.Values))
		for _, v := range a.Values {
			if v == OptionOther {
				if t := a.otherText(); t != "" {
					labels = append(labels, "Otro: "+t)
				} else {
					labels = append(labels, "Otro (sin especificar)")
				}
				continue
			}
			labels = append(labels, q.OptionLabel(v))
		}
		return strings.Join(labels, ", ")
	case KindFile:
		names := make([]string, 0, len(a.Files))
		for _, f := range a.Files {
			names = append(names, fmt.Sprintf("%s (%s)", f.Name, FormatBytes(f.Size)))
		}
		return strings.Join(names, ", ")
	}
	return ""
}

// FormatBytes prints a size with a binary unit, e.g. "1.5 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	idx := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if idx >= len(units) {
		idx = len(units) - 1
	}
	size := float64(n) / math.Pow(1024, float64(idx))
	if size > 10 {
		return fmt.Sprintf("%.0f %s", size, units[idx])
	}
	return fmt.Sprintf("%.1f %s", size, units[idx])
}
