package survey

import "encoding/json"

// IsVisible reports whether q should be shown given the current answers.
// Questions without a dependency are always visible. A dependency matches
// a single choice whose value is expected, or a multi choice with at least
// one expected value; any other answer kind hides the question.
func IsVisible(q Question, answers Answers) bool {
	if q.DependsOn == nil {
		return true
	}
	dep, ok := answers[q.DependsOn.QuestionID]
	if !ok {
		return false
	}
	expected := q.DependsOn.ExpectedAnswers
	switch dep.Kind {
	case KindSingle:
		return dep.Value != nil && contains(expected, *dep.Value)
	case KindMulti:
		for _, v := range dep.Values {
			if contains(expected, v) {
				return true
			}
		}
	}
	return false
}

// PruneHidden returns a copy of answers without the answers of hidden
// questions. Removing one answer can hide its dependants, so passes repeat
// until nothing changes. Answers for ids outside the definition are kept.
func (d *Definition) PruneHidden(answers Answers) Answers {
	cleaned := make(Answers, len(answers))
	for k, v := range answers {
		cleaned[k] = v
	}
	d.prune(cleaned, nil)
	return cleaned
}

// prune deletes hidden answers from normalized in place and calls onRemove
// for every id it drops.
func (d *Definition) prune(normalized Answers, onRemove func(id string)) {
	questions := d.Questions()
	for changed := true; changed; {
		changed = false
		for _, q := range questions {
			if _, ok := normalized[q.ID]; !ok {
				continue
			}
			if !IsVisible(q, normalized) {
				delete(normalized, q.ID)
				changed = true
				if onRemove != nil {
					onRemove(q.ID)
				}
			}
		}
	}
}

// PruneRaw applies PruneHidden to an undecoded answer map and returns the
// kept entries untouched along with the removed ids.
func (d *Definition) PruneRaw(raw map[string]json.RawMessage) (map[string]json.RawMessage, []string) {
	normalized := d.NormalizeAll(raw)
	kept := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		kept[k] = v
	}
	var removed []string
	d.prune(normalized, func(id string) {
		delete(kept, id)
		removed = append(removed, id)
	})
	return kept, removed
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
