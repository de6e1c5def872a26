// Package coverage maps questions to criteria by tag intersection and rolls
// the result up into coverage and learner mastery figures.
//
// Index is the single matching implementation: the coverage view, learner
// analytics, the auditor and the seeding orchestrator all call it.
package coverage

import (
	"sort"

	"github.com/p-n-ai/psr-academy/internal/questionbank"
	"github.com/p-n-ai/psr-academy/internal/standards"
)

// Index is a tag → questions multimap over a bank snapshot. Building it costs
// O(total tags); each Match costs O(criterion tags + matches).
type Index struct {
	questions []questionbank.Question
	byTag     map[string][]int
}

// NewIndex indexes questions by every literal tag they carry.
func NewIndex(questions []questionbank.Question) *Index {
	ix := &Index{
		questions: make([]questionbank.Question, 0, len(questions)),
		byTag:     make(map[string][]int),
	}
	for _, q := range questions {
		ix.Add(q)
	}
	return ix
}

// Add folds one more question into the index.
func (ix *Index) Add(q questionbank.Question) {
	pos := len(ix.questions)
	ix.questions = append(ix.questions, q)
	for _, tag := range q.Tags {
		ix.byTag[tag] = append(ix.byTag[tag], pos)
	}
}

// Len returns the number of indexed questions.
func (ix *Index) Len() int {
	return len(ix.questions)
}

// Match returns the questions sharing at least one tag with c, deduplicated
// by question ID and in bank order.
func (ix *Index) Match(c standards.Criterion) []questionbank.Question {
	return ix.MatchTags(c.Tags)
}

// MatchTags is Match over a bare tag set.
func (ix *Index) MatchTags(tags []string) []questionbank.Question {
	var positions []int
	seenPos := make(map[int]bool)
	for _, tag := range tags {
		for _, pos := range ix.byTag[tag] {
			if !seenPos[pos] {
				seenPos[pos] = true
				positions = append(positions, pos)
			}
		}
	}
	sort.Ints(positions)

	out := make([]questionbank.Question, 0, len(positions))
	seenID := make(map[string]bool, len(positions))
	for _, pos := range positions {
		q := ix.questions[pos]
		if seenID[q.ID] {
			continue
		}
		seenID[q.ID] = true
		out = append(out, q)
	}
	return out
}

// MatchCount returns len(Match(c)).
func (ix *Index) MatchCount(c standards.Criterion) int {
	return len(ix.Match(c))
}

// CriteriaIndex is the inverse view: tag → criteria, for finding the criteria
// a given question covers.
type CriteriaIndex struct {
	criteria []standards.Criterion
	byTag    map[string][]int
}

// NewCriteriaIndex indexes criteria by tag, preserving document order.
func NewCriteriaIndex(criteria []standards.Criterion) *CriteriaIndex {
	ci := &CriteriaIndex{
		criteria: criteria,
		byTag:    make(map[string][]int),
	}
	for i, c := range criteria {
		for _, tag := range c.Tags {
			ci.byTag[tag] = append(ci.byTag[tag], i)
		}
	}
	return ci
}

// Match returns the criteria sharing at least one tag with tags, in document order.
func (ci *CriteriaIndex) Match(tags []string) []standards.Criterion {
	seen := make(map[int]bool)
	var positions []int
	for _, tag := range tags {
		for _, pos := range ci.byTag[tag] {
			if !seen[pos] {
				seen[pos] = true
				positions = append(positions, pos)
			}
		}
	}
	sort.Ints(positions)

	out := make([]standards.Criterion, 0, len(positions))
	for _, pos := range positions {
		out = append(out, ci.criteria[pos])
	}
	return out
}
