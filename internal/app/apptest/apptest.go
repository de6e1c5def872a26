// Package apptest builds throwaway content workspaces for command tests.
package apptest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Standards is a one-criterion document tagged "arrest".
const Standards = `{"parts": [{"id": "P1", "title": "Police station", "units": [
  {"id": "U1", "title": "Arrest", "outcomes": [
    {"id": "O1", "title": "Powers", "criteria": [
      {"id": "C1", "label": "Lawful arrest", "summary": "An arrest must satisfy the necessity test",
       "tags": ["arrest"],
       "expectedAuthorities": [{"instrument": "PACE 1984", "cite": "s.24"}, {"instrument": "PACE Code G", "cite": "para 2.2"}]}
    ]}
  ]}
]}]}`

// Partitions routes arrest questions to their own partition.
const Partitions = `default:
  partition: general
  topic: general
routes:
  - tag: arrest
    partition: arrest
    topic: arrest-powers
`

const topics = `id: arrest-powers
name: Arrest powers
keywords: [arrest]
`

// Question renders one short-answer question as partition JSON.
func Question(id string, citations int, tags ...string) string {
	cites := make([]string, 0, citations)
	pool := []string{
		`{"instrument": "PACE 1984", "cite": "s.24"}`,
		`{"instrument": "PACE Code G", "cite": "para 2.2"}`,
		`{"instrument": "PACE Code C", "cite": "para 10.1"}`,
	}
	for i := 0; i < citations; i++ {
		cites = append(cites, pool[i%len(pool)])
	}
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return fmt.Sprintf(`{"id": %q, "topicId": "arrest-powers", "difficulty": "foundation", "type": "short_answer",
  "stem": "Explain %s", "expectedAnswer": ["point"], "tags": [%s], "citations": [%s]}`,
		id, id, strings.Join(quoted, ", "), strings.Join(cites, ", "))
}

// Workspace writes a content tree and points the PSR_ environment at it.
// partitions maps partition name to question JSON objects.
func Workspace(t *testing.T, partitions map[string][]string) string {
	t.Helper()
	dir := t.TempDir()
	write := func(rel, body string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("standards.json", Standards)
	write("partitions.yaml", Partitions)
	write("topics/arrest-powers.yaml", topics)
	for name, qs := range partitions {
		write(filepath.Join("questions", name+".json"), `{"questions": [`+strings.Join(qs, ",\n")+`]}`)
	}

	t.Setenv("PSR_DATABASE_URL", "")
	t.Setenv("PSR_CACHE_URL", "")
	t.Setenv("PSR_CONTENT_STANDARDS_PATH", filepath.Join(dir, "standards.json"))
	t.Setenv("PSR_CONTENT_QUESTIONS_DIR", filepath.Join(dir, "questions"))
	t.Setenv("PSR_CONTENT_TOPICS_DIR", filepath.Join(dir, "topics"))
	t.Setenv("PSR_CONTENT_PARTITIONS_PATH", filepath.Join(dir, "partitions.yaml"))
	t.Setenv("PSR_AUDIT_REPORT_PATH", filepath.Join(dir, "reports", "coverage-audit.json"))
	t.Setenv("PSR_AUDIT_XLSX_PATH", "")
	t.Setenv("PSR_AUDIT_STRICT", "")
	t.Setenv("PSR_LOG_FORMAT", "text")
	t.Setenv("PSR_LOG_LEVEL", "error")
	return dir
}

// Questions returns n questions with the given prefix, citations and tags.
func Questions(prefix string, n, citations int, tags ...string) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Question(fmt.Sprintf("%s-%02d", prefix, i), citations, tags...))
	}
	return out
}
