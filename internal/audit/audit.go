// Package audit checks the question bank against the coverage and citation
// policies and renders the result as text, JSON and XLSX reports.
package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/p-n-ai/psr-academy/internal/coverage"
	"github.com/p-n-ai/psr-academy/internal/questionbank"
	"github.com/p-n-ai/psr-academy/internal/standards"
)

// Policy constants.
const (
	MinQuestionsPerCriterion = 30
	MinCitationsPerQuestion  = 2
	BoilerplateThreshold     = 20 // distinct questions sharing one option text
)

// Status classifies a criterion's match count.
type Status string

const (
	StatusOK           Status = "OK"
	StatusInsufficient Status = "INSUFFICIENT"
	StatusMissing      Status = "MISSING"
)

// WarningKind names a quality warning. Warnings fail the gate only in strict mode.
type WarningKind string

const (
	WarnPlaceholder       WarningKind = "placeholder_citation"
	WarnAuthorityMismatch WarningKind = "authority_mismatch"
	WarnBoilerplate       WarningKind = "boilerplate"
)

// Options configures an audit run.
type Options struct {
	Strict               bool
	MinQuestions         int
	MinCitations         int
	BoilerplateThreshold int
	// Topics resolves topic references during validation; nil skips that check.
	Topics questionbank.TopicChecker
}

// DefaultOptions returns the production policy.
func DefaultOptions() Options {
	return Options{
		MinQuestions:         MinQuestionsPerCriterion,
		MinCitations:         MinCitationsPerQuestion,
		BoilerplateThreshold: BoilerplateThreshold,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinQuestions <= 0 {
		o.MinQuestions = d.MinQuestions
	}
	if o.MinCitations <= 0 {
		o.MinCitations = d.MinCitations
	}
	if o.BoilerplateThreshold <= 0 {
		o.BoilerplateThreshold = d.BoilerplateThreshold
	}
	return o
}

// CriterionResult is one criterion's line in the report.
type CriterionResult struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Matches   int    `json:"matches"`
	Required  int    `json:"required"`
	Status    Status `json:"status"`
	Compliant int    `json:"citationCompliant"`
	Deficient int    `json:"citationDeficient"`
}

// Shortfall returns how many more matching questions the criterion needs.
func (r CriterionResult) Shortfall() int {
	return max(0, r.Required-r.Matches)
}

// CitationIssue describes one citation-deficient question.
type CitationIssue struct {
	QuestionID string   `json:"questionId"`
	Partition  string   `json:"partition,omitempty"`
	Citations  int      `json:"citations"`
	Valid      int      `json:"valid"`
	Problems   []string `json:"problems"`
}

// Warning is a non-fatal quality finding.
type Warning struct {
	Kind        WarningKind `json:"kind"`
	QuestionID  string      `json:"questionId,omitempty"`
	CriterionID string      `json:"criterionId,omitempty"`
	Message     string      `json:"message"`
}

// Totals are the bank-wide figures.
type Totals struct {
	Criteria          int     `json:"criteria"`
	OK                int     `json:"ok"`
	Insufficient      int     `json:"insufficient"`
	Missing           int     `json:"missing"`
	Questions         int     `json:"questions"`
	Checked           int     `json:"checked"`
	Unmapped          int     `json:"unmapped"`
	CitationCompliant int     `json:"citationCompliant"`
	CitationDeficient int     `json:"citationDeficient"`
	ComplianceRate    float64 `json:"complianceRate"`
	Warnings          int     `json:"warnings"`
	ValidationIssues  int     `json:"validationIssues"`
}

// Report is the full audit result. It carries no timestamps so that two runs
// over the same inputs serialize identically.
type Report struct {
	Strict           bool                           `json:"strict"`
	MinQuestions     int                            `json:"minQuestions"`
	MinCitations     int                            `json:"minCitations"`
	Passed           bool                           `json:"passed"`
	Totals           Totals                         `json:"totals"`
	Criteria         []CriterionResult              `json:"criteria"`
	CitationIssues   []CitationIssue                `json:"citationIssues"`
	Warnings         []Warning                      `json:"warnings"`
	ValidationIssues []questionbank.ValidationIssue `json:"validationIssues"`
}

// Criterion returns the result line for id.
func (r *Report) Criterion(id string) (CriterionResult, bool) {
	for _, c := range r.Criteria {
		if c.ID == id {
			return c, true
		}
	}
	return CriterionResult{}, false
}

// ComplianceFailure is the gate's business failure.
type ComplianceFailure struct {
	Strict            bool
	Insufficient      int
	Missing           int
	CitationDeficient int
	Warnings          int
	ValidationIssues  int
}

func (e *ComplianceFailure) Error() string {
	parts := []string{
		fmt.Sprintf("%d missing", e.Missing),
		fmt.Sprintf("%d insufficient", e.Insufficient),
		fmt.Sprintf("%d citation-deficient", e.CitationDeficient),
	}
	if e.Strict {
		parts = append(parts,
			fmt.Sprintf("%d warnings", e.Warnings),
			fmt.Sprintf("%d validation issues", e.ValidationIssues),
		)
	}
	return "compliance audit failed: " + strings.Join(parts, ", ")
}

// Err returns a *ComplianceFailure when the report did not pass.
func (r *Report) Err() error {
	if r.Passed {
		return nil
	}
	return &ComplianceFailure{
		Strict:            r.Strict,
		Insufficient:      r.Totals.Insufficient,
		Missing:           r.Totals.Missing,
		CitationDeficient: r.Totals.CitationDeficient,
		Warnings:          r.Totals.Warnings,
		ValidationIssues:  r.Totals.ValidationIssues,
	}
}

// Run audits bank against criteria. The tag index is built once; every
// distinct matched question is citation-checked once.
func Run(criteria []standards.Criterion, bank *questionbank.Bank, opts Options) *Report {
	opts = opts.withDefaults()
	ix := coverage.NewIndex(bank.Questions)

	r := &Report{
		Strict:         opts.Strict,
		MinQuestions:   opts.MinQuestions,
		MinCitations:   opts.MinCitations,
		Criteria:       make([]CriterionResult, 0, len(criteria)),
		CitationIssues: []CitationIssue{},
		Warnings:       []Warning{},
	}

	checked := make(map[string]bool)
	var placeholders, mismatches []Warning

	for _, c := range criteria {
		matches := ix.Match(c)
		res := CriterionResult{
			ID:       c.ID,
			Label:    c.Label,
			Matches:  len(matches),
			Required: opts.MinQuestions,
			Status:   classify(len(matches), opts.MinQuestions),
		}
		expected := c.Instruments()

		for _, q := range matches {
			if q.CitationCompliant(opts.MinCitations) {
				res.Compliant++
			} else {
				res.Deficient++
			}

			if len(expected) > 0 && !citesAny(q, expected) {
				mismatches = append(mismatches, Warning{
					Kind:        WarnAuthorityMismatch,
					QuestionID:  q.ID,
					CriterionID: c.ID,
					Message:     fmt.Sprintf("no citation from expected instruments %s", strings.Join(expected, ", ")),
				})
			}

			if checked[q.ID] {
				continue
			}
			checked[q.ID] = true
			if issue, ok := citationIssue(q, opts.MinCitations); ok {
				r.CitationIssues = append(r.CitationIssues, issue)
			}
			if n := placeholderCount(q); n > 0 {
				placeholders = append(placeholders, Warning{
					Kind:       WarnPlaceholder,
					QuestionID: q.ID,
					Message:    fmt.Sprintf("%d placeholder citation(s) awaiting verification", n),
				})
			}
		}

		switch res.Status {
		case StatusOK:
			r.Totals.OK++
		case StatusInsufficient:
			r.Totals.Insufficient++
		case StatusMissing:
			r.Totals.Missing++
		}
		r.Criteria = append(r.Criteria, res)
	}

	r.Warnings = append(r.Warnings, placeholders...)
	r.Warnings = append(r.Warnings, mismatches...)
	r.Warnings = append(r.Warnings, boilerplate(bank.Questions, opts.BoilerplateThreshold)...)

	// Load-time rejections first, then issues in the questions that loaded.
	r.ValidationIssues = append([]questionbank.ValidationIssue{}, bank.Rejected...)
	if verr := questionbank.ValidateBank(bank, opts.Topics); verr != nil {
		r.ValidationIssues = append(r.ValidationIssues, verr.Issues...)
	}

	r.Totals.Criteria = len(criteria)
	r.Totals.Questions = bank.Len()
	r.Totals.Checked = len(checked)
	r.Totals.Unmapped = countUnmapped(bank.Questions, checked)
	r.Totals.CitationDeficient = len(r.CitationIssues)
	r.Totals.CitationCompliant = r.Totals.Checked - r.Totals.CitationDeficient
	if r.Totals.Checked > 0 {
		r.Totals.ComplianceRate = 100 * float64(r.Totals.CitationCompliant) / float64(r.Totals.Checked)
	}
	r.Totals.Warnings = len(r.Warnings)
	r.Totals.ValidationIssues = len(r.ValidationIssues)

	r.Passed = r.Totals.Missing == 0 && r.Totals.Insufficient == 0 && r.Totals.CitationDeficient == 0
	if opts.Strict {
		r.Passed = r.Passed && r.Totals.Warnings == 0 && r.Totals.ValidationIssues == 0
	}
	return r
}

func classify(matches, minQuestions int) Status {
	switch {
	case matches == 0:
		return StatusMissing
	case matches < minQuestions:
		return StatusInsufficient
	}
	return StatusOK
}

func citesAny(q questionbank.Question, instruments []string) bool {
	for _, c := range q.Citations {
		for _, inst := range instruments {
			if c.Instrument == inst {
				return true
			}
		}
	}
	return false
}

func citationIssue(q questionbank.Question, minCitations int) (CitationIssue, bool) {
	if q.CitationCompliant(minCitations) {
		return CitationIssue{}, false
	}
	issue := CitationIssue{
		QuestionID: q.ID,
		Partition:  q.Partition,
		Citations:  len(q.Citations),
		Valid:      q.ValidCitations(),
	}
	if len(q.Citations) < minCitations {
		issue.Problems = append(issue.Problems,
			fmt.Sprintf("has %d citation(s), needs %d", len(q.Citations), minCitations))
	}
	for i, c := range q.Citations {
		switch {
		case strings.TrimSpace(c.Instrument) == "":
			issue.Problems = append(issue.Problems, fmt.Sprintf("citation %d missing instrument", i+1))
		case strings.TrimSpace(c.Cite) == "":
			issue.Problems = append(issue.Problems, fmt.Sprintf("citation %d missing cite", i+1))
		}
	}
	return issue, true
}

func placeholderCount(q questionbank.Question) int {
	n := 0
	for _, c := range q.Citations {
		if c.IsPlaceholder() {
			n++
		}
	}
	return n
}

// boilerplate reports option texts reused verbatim across at least threshold
// distinct questions, most frequent first.
func boilerplate(questions []questionbank.Question, threshold int) []Warning {
	users := make(map[string]map[string]bool)
	for _, q := range questions {
		for _, o := range q.Options {
			text := strings.TrimSpace(o.Text)
			if text == "" {
				continue
			}
			if users[text] == nil {
				users[text] = make(map[string]bool)
			}
			users[text][q.ID] = true
		}
	}

	type repeat struct {
		text  string
		count int
	}
	var repeats []repeat
	for text, qs := range users {
		if len(qs) >= threshold {
			repeats = append(repeats, repeat{text, len(qs)})
		}
	}
	sort.Slice(repeats, func(i, j int) bool {
		if repeats[i].count != repeats[j].count {
			return repeats[i].count > repeats[j].count
		}
		return repeats[i].text < repeats[j].text
	})

	out := make([]Warning, 0, len(repeats))
	for _, rp := range repeats {
		out = append(out, Warning{
			Kind:    WarnBoilerplate,
			Message: fmt.Sprintf("option text %q repeated across %d questions", rp.text, rp.count),
		})
	}
	return out
}

func countUnmapped(questions []questionbank.Question, mapped map[string]bool) int {
	seen := make(map[string]bool)
	n := 0
	for _, q := range questions {
		if mapped[q.ID] || seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		n++
	}
	return n
}
