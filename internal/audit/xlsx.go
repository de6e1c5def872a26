package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary   = "Summary"
	sheetCriteria  = "Criteria"
	sheetCitations = "Citation Issues"
	sheetWarnings  = "Warnings"
)

// BuildWorkbook lays the report out over four sheets. The caller must Close
// the returned file.
func BuildWorkbook(r *Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	for _, name := range []string{sheetCriteria, sheetCitations, sheetWarnings} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	result := "FAIL"
	if r.Passed {
		result = "PASS"
	}
	summary := [][]any{
		{"Metric", "Value"},
		{"Result", result},
		{"Strict", r.Strict},
		{"Min questions per criterion", r.MinQuestions},
		{"Min citations per question", r.MinCitations},
		{"Criteria", r.Totals.Criteria},
		{"OK", r.Totals.OK},
		{"INSUFFICIENT", r.Totals.Insufficient},
		{"MISSING", r.Totals.Missing},
		{"Questions", r.Totals.Questions},
		{"Checked", r.Totals.Checked},
		{"Unmapped", r.Totals.Unmapped},
		{"Citation compliant", r.Totals.CitationCompliant},
		{"Citation deficient", r.Totals.CitationDeficient},
		{"Compliance rate (%)", r.Totals.ComplianceRate},
		{"Warnings", r.Totals.Warnings},
		{"Validation issues", r.Totals.ValidationIssues},
	}

	criteria := [][]any{{"ID", "Label", "Matches", "Required", "Status", "Citation compliant", "Citation deficient"}}
	for _, c := range r.Criteria {
		criteria = append(criteria, []any{c.ID, c.Label, c.Matches, c.Required, string(c.Status), c.Compliant, c.Deficient})
	}

	citations := [][]any{{"Question", "Partition", "Citations", "Valid", "Problems"}}
	for _, ci := range r.CitationIssues {
		citations = append(citations, []any{ci.QuestionID, ci.Partition, ci.Citations, ci.Valid, strings.Join(ci.Problems, "; ")})
	}

	warnings := [][]any{{"Kind", "Question", "Criterion", "Message"}}
	for _, w := range r.Warnings {
		warnings = append(warnings, []any{string(w.Kind), w.QuestionID, w.CriterionID, w.Message})
	}

	for sheet, rows := range map[string][][]any{
		sheetSummary:   summary,
		sheetCriteria:  criteria,
		sheetCitations: citations,
		sheetWarnings:  warnings,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// WriteXLSX saves the report workbook to path.
func WriteXLSX(path string, r *Report) error {
	f, err := BuildWorkbook(r)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create workbook directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}
