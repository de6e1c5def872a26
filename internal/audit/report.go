package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/p-n-ai/psr-academy/internal/questionbank"
)

// DefaultDisplayCap bounds each enumerated section of the text report.
const DefaultDisplayCap = 25

// WriteText renders the human-readable report. Each list section shows at
// most displayCap entries; totals are always printed in full.
func WriteText(w io.Writer, r *Report, displayCap int) error {
	if displayCap <= 0 {
		displayCap = DefaultDisplayCap
	}
	p := message.NewPrinter(language.English)
	var b strings.Builder

	title := "Coverage audit"
	if r.Strict {
		title += " (strict)"
	}
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n")
	b.WriteString(p.Sprintf("Policy: %d questions per criterion, %d citations per question\n", r.MinQuestions, r.MinCitations))
	b.WriteString(p.Sprintf("Criteria: %d (OK %d, INSUFFICIENT %d, MISSING %d)\n",
		r.Totals.Criteria, r.Totals.OK, r.Totals.Insufficient, r.Totals.Missing))
	b.WriteString(p.Sprintf("Questions: %d (checked %d, unmapped %d)\n",
		r.Totals.Questions, r.Totals.Checked, r.Totals.Unmapped))
	b.WriteString(p.Sprintf("Citation compliance: %d/%d (%.1f%%)\n",
		r.Totals.CitationCompliant, r.Totals.Checked, r.Totals.ComplianceRate))
	b.WriteString(p.Sprintf("Warnings: %d, validation issues: %d\n", r.Totals.Warnings, r.Totals.ValidationIssues))

	var below []CriterionResult
	for _, c := range r.Criteria {
		if c.Status != StatusOK {
			below = append(below, c)
		}
	}
	section(&b, p, "Criteria below minimum", len(below), displayCap, func(i int) string {
		c := below[i]
		return p.Sprintf("%-12s %s  %s  %d/%d", c.Status, c.ID, c.Label, c.Matches, c.Required)
	})
	section(&b, p, "Citation issues", len(r.CitationIssues), displayCap, func(i int) string {
		ci := r.CitationIssues[i]
		loc := ci.QuestionID
		if ci.Partition != "" {
			loc += " [" + ci.Partition + "]"
		}
		return loc + ": " + strings.Join(ci.Problems, "; ")
	})
	section(&b, p, "Warnings", len(r.Warnings), displayCap, func(i int) string {
		return formatWarning(r.Warnings[i])
	})
	section(&b, p, "Validation issues", len(r.ValidationIssues), displayCap, func(i int) string {
		return formatIssue(r.ValidationIssues[i])
	})

	b.WriteString("\n")
	if r.Passed {
		b.WriteString("RESULT: PASS\n")
	} else {
		b.WriteString("RESULT: FAIL\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, p *message.Printer, name string, total, displayCap int, line func(int) string) {
	if total == 0 {
		return
	}
	b.WriteString(p.Sprintf("\n%s (%d):\n", name, total))
	shown := min(total, displayCap)
	for i := 0; i < shown; i++ {
		b.WriteString("  " + line(i) + "\n")
	}
	if total > shown {
		b.WriteString(p.Sprintf("  ... and %d more\n", total-shown))
	}
}

func formatWarning(w Warning) string {
	var subject []string
	if w.QuestionID != "" {
		subject = append(subject, w.QuestionID)
	}
	if w.CriterionID != "" {
		subject = append(subject, "criterion "+w.CriterionID)
	}
	s := "[" + string(w.Kind) + "] "
	if len(subject) > 0 {
		s += strings.Join(subject, " / ") + ": "
	}
	return s + w.Message
}

func formatIssue(i questionbank.ValidationIssue) string {
	s := i.String()
	if i.Partition != "" {
		s += " [" + i.Partition + "]"
	}
	return s
}

// EncodeJSON renders the JSON artifact. Output is stable for a given report.
func EncodeJSON(r *Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSON writes the structured report to path atomically, creating the
// parent directory if needed.
func WriteJSON(path string, r *Report) error {
	data, err := EncodeJSON(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := questionbank.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
