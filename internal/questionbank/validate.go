package questionbank

import (
	"fmt"
	"strings"
)

// TopicChecker reports whether a topic reference resolves.
type TopicChecker interface {
	HasTopic(id string) bool
}

// ValidationIssue is one problem with one question. Issues are collected, not
// raised individually.
type ValidationIssue struct {
	QuestionID string `json:"questionId"`
	Partition  string `json:"partition,omitempty"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s [%s]: %s", i.QuestionID, i.Field, i.Message)
}

// ValidationError aggregates every issue found in a bank.
type ValidationError struct {
	Issues []ValidationIssue
}

// Error renders validation issues as a multi-line string.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "question validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, issue.String())
	}
	return strings.Join(lines, "\n")
}

// Validate checks one question. topics may be nil to skip topic resolution.
func Validate(q Question, topics TopicChecker) []ValidationIssue {
	var issues []ValidationIssue
	add := func(field, format string, args ...any) {
		issues = append(issues, ValidationIssue{
			QuestionID: q.ID,
			Partition:  q.Partition,
			Field:      field,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	if strings.TrimSpace(q.ID) == "" {
		add("id", "is required")
	}
	if q.TopicID == "" {
		add("topicId", "is required")
	} else if topics != nil && !topics.HasTopic(q.TopicID) {
		add("topicId", "unknown topic %q", q.TopicID)
	}
	if !q.Difficulty.Valid() {
		add("difficulty", "invalid value %q", q.Difficulty)
	}
	if !q.Type.Valid() {
		add("type", "invalid value %q", q.Type)
	}
	if strings.TrimSpace(q.Stem) == "" {
		add("stem", "is required")
	}
	if len(q.Tags) == 0 {
		add("tags", "must not be empty")
	}

	switch {
	case q.Type.IsChoice():
		if len(q.Options) < 2 {
			add("options", "choice question needs at least 2 options, has %d", len(q.Options))
		}
		if q.Type == TypeMCQMulti {
			if len(q.CorrectAnswers) == 0 {
				add("correctAnswers", "is required for %s", q.Type)
			}
			for _, id := range q.CorrectAnswers {
				if !q.HasOption(id) {
					add("correctAnswers", "%q does not match any option", id)
				}
			}
		} else {
			if q.CorrectAnswer == "" {
				add("correctAnswer", "is required for %s", q.Type)
			} else if !q.HasOption(q.CorrectAnswer) {
				add("correctAnswer", "%q does not match any option", q.CorrectAnswer)
			}
		}
	case q.Type == TypeShortAnswer:
		if len(q.ExpectedAnswer) == 0 {
			add("expectedAnswer", "short answer needs at least one key point")
		}
	}

	for i, c := range q.Citations {
		field := fmt.Sprintf("citations[%d]", i)
		if strings.TrimSpace(c.Instrument) == "" {
			add(field, "instrument is required")
		} else if !IsKnownInstrument(c.Instrument) {
			add(field, "unknown instrument %q", c.Instrument)
		}
		if strings.TrimSpace(c.Cite) == "" {
			add(field, "cite is required")
		}
	}

	return issues
}

// ValidateBank validates every question and checks IDs are globally unique.
// It returns nil when the bank is clean.
func ValidateBank(bank *Bank, topics TopicChecker) *ValidationError {
	var issues []ValidationIssue
	seen := make(map[string]string, bank.Len())
	for _, q := range bank.Questions {
		issues = append(issues, Validate(q, topics)...)
		if q.ID == "" {
			continue
		}
		if first, dup := seen[q.ID]; dup {
			issues = append(issues, ValidationIssue{
				QuestionID: q.ID,
				Partition:  q.Partition,
				Field:      "id",
				Message:    fmt.Sprintf("duplicate id (first seen in partition %q)", first),
			})
			continue
		}
		seen[q.ID] = q.Partition
	}
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
