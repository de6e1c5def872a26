package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/psr-academy/internal/questionbank"
	"github.com/p-n-ai/psr-academy/internal/standards"
)

func failingReport(t *testing.T, missing int) *Report {
	t.Helper()
	var criteria []standards.Criterion
	for i := 0; i < missing; i++ {
		criteria = append(criteria, criterion(fmt.Sprintf("C%d", i+1), fmt.Sprintf("tag-%d", i+1)))
	}
	bank := &questionbank.Bank{Questions: []questionbank.Question{
		question("lonely", pace[:1], "tag-1"),
	}}
	return Run(criteria, bank, DefaultOptions())
}

func TestWriteText_DisplayCap(t *testing.T) {
	r := failingReport(t, 5)

	var buf bytes.Buffer
	if err := WriteText(&buf, r, 2); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Criteria: 5 (OK 0, INSUFFICIENT 1, MISSING 4)",
		"Criteria below minimum (5):",
		"INSUFFICIENT C1  Criterion C1  1/30",
		"  ... and 3 more",
		"Citation issues (1):",
		"lonely [arrest]: has 1 citation(s), needs 2",
		"RESULT: FAIL",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "C3  Criterion C3") {
		t.Error("display cap should hide the third criterion")
	}
}

func TestWriteText_GroupsLargeNumbers(t *testing.T) {
	r := &Report{MinQuestions: 30, MinCitations: 2, Passed: true}
	r.Totals.Questions = 12345

	var buf bytes.Buffer
	if err := WriteText(&buf, r, 0); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Questions: 12,345") {
		t.Errorf("expected grouped count, got\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "RESULT: PASS") {
		t.Error("expected PASS")
	}
}

func TestWriteJSON(t *testing.T) {
	r := failingReport(t, 2)
	path := filepath.Join(t.TempDir(), "reports", "coverage-audit.json")

	if err := WriteJSON(path, r); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var got Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if got.Passed || got.Totals.Criteria != 2 || len(got.Criteria) != 2 {
		t.Errorf("decoded report = %+v", got)
	}

	// Rewriting an unchanged report leaves identical bytes.
	if err := WriteJSON(path, r); err != nil {
		t.Fatalf("second WriteJSON() error = %v", err)
	}
	again, _ := os.ReadFile(path)
	if !bytes.Equal(data, again) {
		t.Error("report bytes changed between identical writes")
	}
}

func TestWriteXLSX(t *testing.T) {
	r := failingReport(t, 3)
	path := filepath.Join(t.TempDir(), "audit.xlsx")

	if err := WriteXLSX(path, r); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	want := []string{sheetSummary, sheetCriteria, sheetCitations, sheetWarnings}
	if strings.Join(sheets, ",") != strings.Join(want, ",") {
		t.Errorf("sheets = %v, want %v", sheets, want)
	}

	rows, err := f.GetRows(sheetCriteria)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("criteria rows = %d, want header + 3", len(rows))
	}
	if rows[1][0] != "C1" || rows[1][4] != "INSUFFICIENT" {
		t.Errorf("first criterion row = %v", rows[1])
	}

	result, err := f.GetCellValue(sheetSummary, "B2")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if result != "FAIL" {
		t.Errorf("summary result = %q, want FAIL", result)
	}
}
