// Package questionbank holds the canonical Question model, the ingestion
// normalizer for legacy shapes, per-question validation and the partitioned
// question stores.
package questionbank

import (
	"sort"
	"strings"
)

// Difficulty grades a question.
type Difficulty string

const (
	Foundation   Difficulty = "foundation"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case Foundation, Intermediate, Advanced:
		return true
	}
	return false
}

// Type is the question format.
type Type string

const (
	TypeMCQ         Type = "mcq"
	TypeBestAnswer  Type = "best-answer"
	TypeMCQMulti    Type = "mcq_multi"
	TypeShortAnswer Type = "short_answer"
	TypeScenario    Type = "scenario"
)

// Valid reports whether t is a known question type.
func (t Type) Valid() bool {
	switch t {
	case TypeMCQ, TypeBestAnswer, TypeMCQMulti, TypeShortAnswer, TypeScenario:
		return true
	}
	return false
}

// IsChoice reports whether the type is answered by picking options.
func (t Type) IsChoice() bool {
	return t == TypeMCQ || t == TypeBestAnswer || t == TypeMCQMulti || t == TypeScenario
}

// Instruments is the closed set of legal instruments a citation may name.
var Instruments = []string{
	"PACE 1984",
	"PACE Code A",
	"PACE Code B",
	"PACE Code C",
	"PACE Code D",
	"PACE Code E",
	"PACE Code F",
	"PACE Code G",
	"PACE Code H",
	"CJPOA 1994",
	"CPIA 1996",
	"Bail Act 1976",
	"Standard Crime Contract",
	"SRA Code of Conduct",
	"SRA Principles",
}

var knownInstruments = func() map[string]bool {
	m := make(map[string]bool, len(Instruments))
	for _, i := range Instruments {
		m[i] = true
	}
	return m
}()

// IsKnownInstrument reports whether name is in the instrument enumeration.
func IsKnownInstrument(name string) bool {
	return knownInstruments[name]
}

// PlaceholderPrefix marks a cite that needs human verification.
const PlaceholderPrefix = "Check:"

// Citation is a legal authority justifying a question's answer.
type Citation struct {
	Instrument string `json:"instrument"`
	Cite       string `json:"cite"`
	Note       string `json:"note,omitempty"`
}

// Valid reports whether both instrument and cite are present.
func (c Citation) Valid() bool {
	return strings.TrimSpace(c.Instrument) != "" && strings.TrimSpace(c.Cite) != ""
}

// IsPlaceholder reports whether the cite still awaits human verification.
func (c Citation) IsPlaceholder() bool {
	return strings.HasPrefix(strings.TrimSpace(c.Cite), PlaceholderPrefix)
}

// SameAs reports whether two citations name the same instrument and cite.
func (c Citation) SameAs(o Citation) bool {
	return c.Instrument == o.Instrument && c.Cite == o.Cite
}

// Option is one answer choice.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a unit of assessable content in canonical shape.
type Question struct {
	ID             string     `json:"id"`
	TopicID        string     `json:"topicId"`
	Difficulty     Difficulty `json:"difficulty"`
	Type           Type       `json:"type"`
	Stem           string     `json:"stem"`
	Options        []Option   `json:"options,omitempty"`
	CorrectAnswer  string     `json:"correctAnswer,omitempty"`
	CorrectAnswers []string   `json:"correctAnswers,omitempty"`
	ExpectedAnswer []string   `json:"expectedAnswer,omitempty"`
	Explanation    string     `json:"explanation"`
	Tags           []string   `json:"tags"`
	Citations      []Citation `json:"citations"`

	// Partition is the collection the question was loaded from or will be written to.
	Partition string `json:"-"`
}

// ValidCitations counts citations with both instrument and cite present.
func (q Question) ValidCitations() int {
	n := 0
	for _, c := range q.Citations {
		if c.Valid() {
			n++
		}
	}
	return n
}

// CitationCompliant reports whether q has at least minCitations citations and every
// citation is well formed.
func (q Question) CitationCompliant(minCitations int) bool {
	return len(q.Citations) >= minCitations && q.ValidCitations() == len(q.Citations)
}

// HasCitation reports whether q already carries an equivalent citation.
func (q Question) HasCitation(c Citation) bool {
	for _, existing := range q.Citations {
		if existing.SameAs(c) {
			return true
		}
	}
	return false
}

// HasOption reports whether id names one of q's options.
func (q Question) HasOption(id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Bank is the merged question collection across partitions, in load order.
type Bank struct {
	Questions []Question
	// Rejected lists question objects and partitions the store could not
	// normalize. They stay in the backing source but are not in Questions.
	Rejected []ValidationIssue
}

// IDs returns the set of existing question IDs, including IDs of rejected
// questions so new questions never reuse them.
func (b *Bank) IDs() map[string]bool {
	ids := make(map[string]bool, len(b.Questions)+len(b.Rejected))
	for _, q := range b.Questions {
		ids[q.ID] = true
	}
	for _, r := range b.Rejected {
		if r.QuestionID != "" {
			ids[r.QuestionID] = true
		}
	}
	return ids
}

// Partition returns the questions belonging to partition, in bank order.
func (b *Bank) Partition(name string) []Question {
	var out []Question
	for _, q := range b.Questions {
		if q.Partition == name {
			out = append(out, q)
		}
	}
	return out
}

// Partitions returns the distinct partition names, sorted.
func (b *Bank) Partitions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range b.Questions {
		if !seen[q.Partition] {
			seen[q.Partition] = true
			out = append(out, q.Partition)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of questions.
func (b *Bank) Len() int {
	return len(b.Questions)
}
