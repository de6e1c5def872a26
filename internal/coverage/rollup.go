package coverage

import (
	"github.com/p-n-ai/psr-academy/internal/standards"
)

// CoveredThreshold is the number of matching questions at which a criterion
// counts as represented in the structural coverage view. It is deliberately
// independent of the auditor's production minimum.
const CoveredThreshold = 2

// Node levels.
const (
	LevelPart      = "part"
	LevelUnit      = "unit"
	LevelOutcome   = "outcome"
	LevelCriterion = "criterion"
)

// NodeCoverage is the coverage rollup for one tree node.
type NodeCoverage struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Level    string         `json:"level"`
	Total    int            `json:"total"`
	Covered  int            `json:"covered"`
	Percent  float64        `json:"percent"`
	Matches  int            `json:"matches,omitempty"`
	Children []NodeCoverage `json:"children,omitempty"`
}

// Summary is the coverage rollup for the whole standards tree.
type Summary struct {
	Total   int            `json:"total"`
	Covered int            `json:"covered"`
	Percent float64        `json:"percent"`
	Parts   []NodeCoverage `json:"parts"`
}

// Summarize computes structural coverage for every node of doc.
func Summarize(doc *standards.Document, ix *Index) Summary {
	var s Summary
	for _, p := range doc.Parts {
		pn := NodeCoverage{ID: p.ID, Title: p.Title, Level: LevelPart}
		for _, u := range p.Units {
			un := NodeCoverage{ID: u.ID, Title: u.Title, Level: LevelUnit}
			for _, o := range u.Outcomes {
				on := NodeCoverage{ID: o.ID, Title: o.Title, Level: LevelOutcome}
				for _, c := range o.Criteria {
					on.Children = append(on.Children, criterionNode(c, ix))
				}
				for _, cn := range on.Children {
					on.Total += cn.Total
					on.Covered += cn.Covered
				}
				on.Percent = percent(on.Covered, on.Total)
				un.Children = append(un.Children, on)
				un.Total += on.Total
				un.Covered += on.Covered
			}
			un.Percent = percent(un.Covered, un.Total)
			pn.Children = append(pn.Children, un)
			pn.Total += un.Total
			pn.Covered += un.Covered
		}
		pn.Percent = percent(pn.Covered, pn.Total)
		s.Parts = append(s.Parts, pn)
		s.Total += pn.Total
		s.Covered += pn.Covered
	}
	s.Percent = percent(s.Covered, s.Total)
	return s
}

func criterionNode(c standards.Criterion, ix *Index) NodeCoverage {
	matches := ix.MatchCount(c)
	n := NodeCoverage{
		ID:      c.ID,
		Title:   c.Label,
		Level:   LevelCriterion,
		Total:   1,
		Matches: matches,
	}
	if matches >= CoveredThreshold {
		n.Covered = 1
	}
	n.Percent = percent(n.Covered, n.Total)
	return n
}

// Find returns the node with id at any level.
func (s Summary) Find(id string) (NodeCoverage, bool) {
	for _, p := range s.Parts {
		if n, ok := findNode(p, id); ok {
			return n, true
		}
	}
	return NodeCoverage{}, false
}

func findNode(n NodeCoverage, id string) (NodeCoverage, bool) {
	if n.ID == id {
		return n, true
	}
	for _, c := range n.Children {
		if found, ok := findNode(c, id); ok {
			return found, true
		}
	}
	return NodeCoverage{}, false
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}
