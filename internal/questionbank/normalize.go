package questionbank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Fields is a decoded question object keyed by its raw field names.
type Fields map[string]json.RawMessage

// Normalize converts one raw question object, in any supported legacy shape,
// into the canonical Question. It is the only place legacy representations are
// interpreted; stores call it once at ingestion.
func Normalize(raw json.RawMessage) (Question, error) {
	var f Fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return Question{}, fmt.Errorf("question is not an object: %w", err)
	}
	return NormalizeFields(f)
}

// Rejection describes a question object that Normalize refused. The question
// ID is recovered from the raw object when it has one.
func Rejection(partition string, raw json.RawMessage, err error) ValidationIssue {
	var f Fields
	_ = json.Unmarshal(raw, &f)
	return ValidationIssue{
		QuestionID: f.str("id"),
		Partition:  partition,
		Field:      "question",
		Message:    "rejected at load: " + err.Error(),
	}
}

// NormalizeFields is Normalize over an already-decoded field map.
func NormalizeFields(f Fields) (Question, error) {
	q := Question{
		ID:          f.str("id"),
		TopicID:     f.str("topicId", "topic_id", "topic"),
		Difficulty:  Difficulty(strings.ToLower(f.str("difficulty", "level"))),
		Type:        normalizeType(f.str("type", "questionType", "question_type")),
		Stem:        f.str("stem", "question", "prompt", "text"),
		Explanation: f.str("explanation", "rationale"),
		Tags:        f.list("tags"),
	}

	if q.ID == "" {
		return Question{}, fmt.Errorf("question has no id")
	}

	opts, err := normalizeOptions(f.raw("options", "choices", "answers"))
	if err != nil {
		return Question{}, fmt.Errorf("question %s: %w", q.ID, err)
	}
	q.Options = opts

	if rawAns := f.raw("correctAnswer", "correct_answer", "answer", "correct"); rawAns != nil {
		q.CorrectAnswer = resolveAnswer(rawAns, q.Options)
	}
	if rawMulti := f.raw("correctAnswers", "correct_answers"); rawMulti != nil {
		var items []json.RawMessage
		if err := json.Unmarshal(rawMulti, &items); err != nil {
			return Question{}, fmt.Errorf("question %s: correctAnswers must be a list: %w", q.ID, err)
		}
		for _, item := range items {
			if id := resolveAnswer(item, q.Options); id != "" {
				q.CorrectAnswers = append(q.CorrectAnswers, id)
			}
		}
	}
	// Multi-select questions stored with a single answer field.
	if q.Type == TypeMCQMulti && len(q.CorrectAnswers) == 0 && q.CorrectAnswer != "" {
		q.CorrectAnswers = []string{q.CorrectAnswer}
		q.CorrectAnswer = ""
	}

	q.ExpectedAnswer = f.list("expectedAnswer", "expected_answer", "keyPoints", "key_points")

	if rawCites := f.raw("citations"); rawCites != nil {
		if err := json.Unmarshal(rawCites, &q.Citations); err != nil {
			return Question{}, fmt.Errorf("question %s: malformed citations: %w", q.ID, err)
		}
	}
	if q.Citations == nil {
		q.Citations = []Citation{}
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}

	return q, nil
}

func normalizeType(t string) Type {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "mcq", "multiple_choice", "multiple-choice", "single":
		return TypeMCQ
	case "best-answer", "best_answer", "bestanswer":
		return TypeBestAnswer
	case "mcq_multi", "mcq-multi", "multi", "multiple_select":
		return TypeMCQMulti
	case "short_answer", "short-answer", "shortanswer", "written":
		return TypeShortAnswer
	case "scenario", "scenario_mcq":
		return TypeScenario
	default:
		return Type(t)
	}
}

// normalizeOptions accepts a list of strings or of objects with varying key
// names. Options without an id get a letter by position.
func normalizeOptions(raw json.RawMessage) ([]Option, error) {
	if raw == nil {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("options must be a list: %w", err)
	}

	out := make([]Option, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		var opt Option
		if len(item) > 0 && item[0] == '"' {
			if err := json.Unmarshal(item, &opt.Text); err != nil {
				return nil, fmt.Errorf("option %d: %w", i, err)
			}
		} else {
			var f Fields
			if err := json.Unmarshal(item, &f); err != nil {
				return nil, fmt.Errorf("option %d: %w", i, err)
			}
			opt.ID = f.str("id", "key", "value")
			opt.Text = f.str("text", "content", "option", "label")
			if opt.ID == "" {
				if label := f.str("label"); len(label) == 1 {
					opt.ID = strings.ToLower(label)
					opt.Text = f.str("text", "content", "option")
				}
			}
		}
		if opt.ID == "" {
			opt.ID = letter(i)
		}
		out = append(out, opt)
	}
	return out, nil
}

// resolveAnswer maps a legacy answer key (option id, letter, zero-based index,
// or option text) to a canonical option id. Unresolvable keys are returned
// verbatim so validation can report them.
func resolveAnswer(raw json.RawMessage, opts []Option) string {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n >= 0 && n < len(opts) {
			return opts[n].ID
		}
		return strconv.Itoa(n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	for _, o := range opts {
		if o.ID == s {
			return o.ID
		}
	}
	if len(s) == 1 {
		lower := strings.ToLower(s)
		for _, o := range opts {
			if strings.EqualFold(o.ID, lower) {
				return o.ID
			}
		}
		if idx := int(lower[0]) - 'a'; idx >= 0 && idx < len(opts) {
			return opts[idx].ID
		}
	}
	if idx, err := strconv.Atoi(s); err == nil && idx >= 0 && idx < len(opts) {
		return opts[idx].ID
	}
	for _, o := range opts {
		if o.Text == s {
			return o.ID
		}
	}
	return s
}

func letter(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return "opt" + strconv.Itoa(i+1)
}

// raw returns the first present, non-null field among keys.
func (f Fields) raw(keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := f[k]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return v
		}
	}
	return nil
}

// str returns the first non-empty string field among keys. Numeric values
// are rendered as their literal text.
func (f Fields) str(keys ...string) string {
	for _, k := range keys {
		v, ok := f[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

// list returns the first string-list field among keys. A bare string is
// treated as a one-element list.
func (f Fields) list(keys ...string) []string {
	for _, k := range keys {
		v, ok := f[k]
		if !ok {
			continue
		}
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			return list
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			return []string{s}
		}
	}
	return nil
}
