// Package repair tops up questions that carry fewer well-formed citations
// than the policy minimum. It only ever appends citations.
package repair

import (
	"sort"

	"github.com/p-n-ai/psr-academy/internal/coverage"
	"github.com/p-n-ai/psr-academy/internal/curriculum"
	"github.com/p-n-ai/psr-academy/internal/generator"
	"github.com/p-n-ai/psr-academy/internal/questionbank"
	"github.com/p-n-ai/psr-academy/internal/standards"
)

// TopicSource resolves a question's topic for topic-level authorities and keywords.
type TopicSource interface {
	GetTopic(id string) (curriculum.Topic, bool)
}

// Source labels where an appended citation came from.
type Source string

const (
	SourceCriterion Source = "criterion"
	SourceTopic     Source = "topic"
	SourceHeuristic Source = "heuristic"
	SourceFallback  Source = "fallback"
)

// Addition is one appended citation.
type Addition struct {
	Citation questionbank.Citation `json:"citation"`
	Source   Source                `json:"source"`
}

// Change records the citations appended to one question.
type Change struct {
	QuestionID string     `json:"questionId"`
	Partition  string     `json:"partition"`
	Before     int        `json:"before"`
	Added      []Addition `json:"added"`
}

// Result is the outcome of repairing a bank.
type Result struct {
	Bank    *questionbank.Bank
	Changes []Change
}

// Partitions returns the sorted partitions containing repaired questions.
func (r Result) Partitions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range r.Changes {
		if !seen[c.Partition] {
			seen[c.Partition] = true
			out = append(out, c.Partition)
		}
	}
	sort.Strings(out)
	return out
}

// Repairer raises questions to the citation minimum.
type Repairer struct {
	criteria     *coverage.CriteriaIndex
	topics       TopicSource
	heuristics   []Heuristic
	minCitations int
}

// New creates a Repairer. topics may be nil.
func New(criteria []standards.Criterion, topics TopicSource, minCitations int) *Repairer {
	return &Repairer{
		criteria:     coverage.NewCriteriaIndex(criteria),
		topics:       topics,
		heuristics:   DefaultHeuristics,
		minCitations: minCitations,
	}
}

// NeedsRepair reports whether q has fewer well-formed citations than the minimum.
func (r *Repairer) NeedsRepair(q questionbank.Question) bool {
	return q.ValidCitations() < r.minCitations
}

// Repair returns q with citations appended until it reaches the minimum,
// plus what was added. Existing citations keep their order.
func (r *Repairer) Repair(q questionbank.Question) (questionbank.Question, []Addition) {
	if !r.NeedsRepair(q) {
		return q, nil
	}
	out := q
	out.Citations = append(make([]questionbank.Citation, 0, len(q.Citations)+r.minCitations), q.Citations...)

	var added []Addition
	for _, cand := range r.candidates(q) {
		if out.ValidCitations() >= r.minCitations {
			break
		}
		if !cand.Citation.Valid() || out.HasCitation(cand.Citation) {
			continue
		}
		out.Citations = append(out.Citations, cand.Citation)
		added = append(added, cand)
	}
	return out, added
}

// candidates lists citations in preference order: authorities of criteria
// sharing a tag, then the topic's authorities, then keyword heuristics, then
// placeholders.
func (r *Repairer) candidates(q questionbank.Question) []Addition {
	var out []Addition
	for _, c := range r.criteria.Match(q.Tags) {
		for _, a := range c.ExpectedAuthorities {
			out = append(out, Addition{
				Citation: questionbank.Citation{Instrument: a.Instrument, Cite: a.Cite},
				Source:   SourceCriterion,
			})
		}
	}

	terms := append([]string{q.TopicID}, q.Tags...)
	subject := q.TopicID
	if r.topics != nil {
		if t, ok := r.topics.GetTopic(q.TopicID); ok {
			for _, a := range t.Authorities {
				out = append(out, Addition{
					Citation: questionbank.Citation{Instrument: a.Instrument, Cite: a.Cite},
					Source:   SourceTopic,
				})
			}
			terms = append(terms, t.Keywords...)
			if t.Name != "" {
				subject = t.Name
			}
		}
	}

	for _, h := range r.heuristics {
		if !h.Matches(terms) {
			continue
		}
		for _, c := range h.Citations {
			out = append(out, Addition{Citation: c, Source: SourceHeuristic})
		}
	}

	for _, inst := range genericFallback {
		out = append(out, Addition{Citation: generator.Placeholder(inst, subject), Source: SourceFallback})
	}
	return out
}

// RepairBank repairs every deficient question in bank order. The input bank
// is not modified.
func (r *Repairer) RepairBank(bank *questionbank.Bank) Result {
	res := Result{Bank: &questionbank.Bank{
		Questions: make([]questionbank.Question, len(bank.Questions)),
		Rejected:  append([]questionbank.ValidationIssue(nil), bank.Rejected...),
	}}
	for i, q := range bank.Questions {
		fixed, added := r.Repair(q)
		res.Bank.Questions[i] = fixed
		if len(added) > 0 {
			res.Changes = append(res.Changes, Change{
				QuestionID: q.ID,
				Partition:  q.Partition,
				Before:     len(q.Citations),
				Added:      added,
			})
		}
	}
	return res
}
