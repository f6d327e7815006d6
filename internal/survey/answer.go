package survey

import (
	"encoding/json"
)

type AnswerKind string

const (
	KindText   AnswerKind = "text"
	KindURL    AnswerKind = "url"
	KindSingle AnswerKind = "single"
	KindMulti  AnswerKind = "multi"
	KindFile   AnswerKind = "file"
)

type FileRef struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	Type         string `json:"type,omitempty"`
	AttachmentID string `json:"attachmentId,omitempty"`
}

// Answer is the value stored for one question. Which fields are meaningful
// depends on Kind: Value for text, url and single; Values for multi; Files
// for file. OtherText accompanies the "other" option of choice questions.
type Answer struct {
	Kind      AnswerKind
	Value     *string
	Values    []string
	OtherText *string
	Files     []FileRef
}

// Answers maps question ids to answers.
type Answers map[string]Answer

func Text(v string) Answer { return Answer{Kind: KindText, Value: &v} }

func Link(v string) Answer { return Answer{Kind: KindURL, Value: &v} }

func Single(v string) Answer { return Answer{Kind: KindSingle, Value: &v} }

func Multi(values ...string) Answer { return Answer{Kind: KindMulti, Values: values} }

func Files(files ...FileRef) Answer { return Answer{Kind: KindFile, Files: files} }

func (a Answer) text() string {
	if a.Value == nil {
		return ""
	}
	return *a.Value
}

func (a Answer) otherText() string {
	if a.OtherText == nil {
		return ""
	}
	return *a.OtherText
}

func (a Answer) hasValue(v string) bool {
	for _, x := range a.Values {
		if x == v {
			return true
		}
	}
	return false
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case KindText, KindURL:
		return json.Marshal(struct {
			Kind  AnswerKind `json:"kind"`
			Value string     `json:"value"`
		}{a.Kind, a.text()})
	case KindSingle:
		return json.Marshal(struct {
			Kind      AnswerKind `json:"kind"`
			Value     *string    `json:"value"`
			OtherText *string    `json:"otherText,omitempty"`
		}{a.Kind, a.Value, a.OtherText})
	case KindMulti:
		values := a.Values
		if values == nil {
			values = []string{}
		}
		return json.Marshal(struct {
			Kind      AnswerKind `json:"kind"`
			Values    []string   `json:"values"`
			OtherText *string    `json:"otherText,omitempty"`
		}{a.Kind, values, a.OtherText})
	case KindFile:
		files := a.Files
		if files == nil {
			files = []FileRef{}
		}
		return json.Marshal(struct {
			Kind  AnswerKind `json:"kind"`
			Files []FileRef  `json:"files"`
		}{a.Kind, files})
	}
	return []byte("null"), nil
}

type wireAnswer struct {
	Kind      AnswerKind `json:"kind"`
	Value     *string    `json:"value"`
	Values    []string   `json:"values"`
	OtherText *string    `json:"otherText"`
	Files     []FileRef  `json:"files"`
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	var w wireAnswer
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*a = Answer{Kind: w.Kind, Value: w.Value, Values: w.Values, OtherText: w.OtherText, Files: w.Files}
	return nil
}

// NormalizeAnswer coerces a stored or client supplied value into the answer
// shape of q. Both the tagged form and bare strings or arrays are accepted.
// It reports false for null input and for unknown question types.
func NormalizeAnswer(q Question, raw json.RawMessage) (Answer, bool) {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil || v == nil {
		return Answer{}, false
	}
	obj, isObj := v.(map[string]any)
	str, isStr := v.(string)

	switch q.Type {
	case ShortText, LongText, URL:
		kind := KindText
		if q.Type == URL {
			kind = KindURL
		}
		value := ""
		if isStr {
			value = str
		} else if isObj {
			if s, ok := obj["value"].(string); ok {
				value = s
			}
		}
		return Answer{Kind: kind, Value: &value}, true

	case SingleChoice:
		ans := Answer{Kind: KindSingle}
		if isObj {
			if s, ok := obj["value"].(string); ok {
				ans.Value = &s
			}
			if s, ok := obj["otherText"].(string); ok {
				ans.OtherText = &s
			}
		} else if isStr {
			ans.Value = &str
		}
		return ans, true

	case MultiChoice:
		ans := Answer{Kind: KindMulti, Values: []string{}}
		var list []any
		if isObj {
			list, _ = obj["values"].([]any)
			if s, ok := obj["otherText"].(string); ok {
				ans.OtherText = &s
			}
		} else if arr, ok := v.([]any); ok {
			list = arr
		}
		for _, item := range list {
			if s, ok := item.(string); ok {
				ans.Values = append(ans.Values, s)
			}
		}
		return ans, true

	case File:
		ans := Answer{Kind: KindFile, Files: []FileRef{}}
		if isObj {
			if list, ok := obj["files"].([]any); ok {
				for _, item := range list {
					f, ok := item.(map[string]any)
					if !ok {
						continue
					}
					ref := FileRef{}
					ref.Name, _ = f["name"].(string)
					if size, ok := f["size"].(float64); ok {
						ref.Size = int64(size)
					}
					ref.Type, _ = f["type"].(string)
					ref.AttachmentID, _ = f["attachmentId"].(string)
					ans.Files = append(ans.Files, ref)
				}
			}
		}
		return ans, true
	}
	return Answer{}, false
}

// NormalizeAll converts a raw answer map into Answers, dropping entries for
// unknown questions or with null values.
func (d *Definition) NormalizeAll(raw map[string]json.RawMessage) Answers {
	out := Answers{}
	for id, value := range raw {
		q, ok := d.Question(id)
		if !ok {
			continue
		}
		if ans, ok := NormalizeAnswer(q, value); ok {
			out[id] = ans
		}
	}
	return out
}
