package coverage

import (
	"math"
	"sort"

	"github.com/p-n-ai/psr-academy/internal/standards"
)

// Mastery policy.
const (
	MasteryTarget    = 80 // mastery at which a criterion has no gap
	TrendMinAnswered = 5
	ImprovingAt      = 60
	DecliningBelow   = 40
	ReadyScore       = 80
)

// Trend classifies a learner's direction on a criterion.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Progress is a learner's historical record on one criterion.
type Progress struct {
	CriterionID string `json:"criterionId"`
	Answered    int    `json:"answered"`
	Correct     int    `json:"correct"`
}

// Mastery returns round(100 * correct / answered), or 0 with nothing answered.
func (p Progress) Mastery() int {
	if p.Answered <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(p.Correct) / float64(p.Answered)))
}

// Gap returns how far mastery sits below the target.
func (p Progress) Gap() int {
	return max(0, MasteryTarget-p.Mastery())
}

// Trend classifies the record. Fewer than TrendMinAnswered answers is always stable.
func (p Progress) Trend() Trend {
	if p.Answered < TrendMinAnswered {
		return TrendStable
	}
	m := p.Mastery()
	switch {
	case m >= ImprovingAt:
		return TrendImproving
	case m < DecliningBelow:
		return TrendDeclining
	}
	return TrendStable
}

// CriterionAnalytics combines a criterion's bank coverage with one learner's record.
type CriterionAnalytics struct {
	CriterionID string `json:"criterionId"`
	Label       string `json:"label"`
	Matches     int    `json:"matches"`
	HasRecord   bool   `json:"hasRecord"`
	Answered    int    `json:"answered"`
	Correct     int    `json:"correct"`
	Mastery     int    `json:"mastery"`
	Gap         int    `json:"gap"`
	Trend       Trend  `json:"trend"`
}

// Analyze returns analytics for every criterion in document order. Criteria
// without a progress record report zero mastery and a stable trend.
func Analyze(criteria []standards.Criterion, ix *Index, progress map[string]Progress) []CriterionAnalytics {
	out := make([]CriterionAnalytics, 0, len(criteria))
	for _, c := range criteria {
		out = append(out, analyzeOne(c, ix, progress))
	}
	return out
}

func analyzeOne(c standards.Criterion, ix *Index, progress map[string]Progress) CriterionAnalytics {
	a := CriterionAnalytics{
		CriterionID: c.ID,
		Label:       c.Label,
		Matches:     ix.MatchCount(c),
		Trend:       TrendStable,
	}
	p, ok := progress[c.ID]
	if !ok {
		return a
	}
	a.HasRecord = true
	a.Answered = p.Answered
	a.Correct = p.Correct
	a.Mastery = p.Mastery()
	a.Gap = p.Gap()
	a.Trend = p.Trend()
	return a
}

// Weakest returns the criteria with a record and a positive gap, sorted by
// gap descending then mastery ascending. n <= 0 returns all of them.
func Weakest(analytics []CriterionAnalytics, n int) []CriterionAnalytics {
	var weak []CriterionAnalytics
	for _, a := range analytics {
		if a.HasRecord && a.Gap > 0 {
			weak = append(weak, a)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool {
		if weak[i].Gap != weak[j].Gap {
			return weak[i].Gap > weak[j].Gap
		}
		return weak[i].Mastery < weak[j].Mastery
	})
	if n > 0 && len(weak) > n {
		weak = weak[:n]
	}
	return weak
}

// Readiness is the exam readiness figure for one learner.
type Readiness struct {
	Score    int  `json:"score"`
	Mastered int  `json:"mastered"`
	Total    int  `json:"total"`
	Ready    bool `json:"ready"`
}

// ReadinessOf scores the share of all criteria at or above the mastery
// target. Criteria with no record count toward the total.
func ReadinessOf(analytics []CriterionAnalytics) Readiness {
	r := Readiness{Total: len(analytics)}
	for _, a := range analytics {
		if a.HasRecord && a.Mastery >= MasteryTarget {
			r.Mastered++
		}
	}
	if r.Total > 0 {
		r.Score = int(math.Round(100 * float64(r.Mastered) / float64(r.Total)))
		// Compared on the exact ratio; 79.5% rounds to 80 but is not ready.
		r.Ready = r.Mastered*100 >= ReadyScore*r.Total
	}
	return r
}
