package standards

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaError reports a malformed standards document. It is fatal to any run.
type SchemaError struct {
	Path   string
	Issues []string
}

func (e *SchemaError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("standards schema error in %s", e.Path)
	}
	return fmt.Sprintf("standards schema error in %s: %s", e.Path, strings.Join(e.Issues, "; "))
}

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// Load reads and validates the standards document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading standards: %w", err)
	}

	doc, err := Parse(data)
	if err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			se.Path = path
		}
		return nil, err
	}

	slog.Info("standards loaded", "path", path, "parts", len(doc.Parts), "criteria", len(doc.Criteria()))
	return doc, nil
}

// Parse validates raw JSON against the document schema and decodes it.
func Parse(data []byte) (*Document, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaError{Path: "<input>", Issues: []string{err.Error()}}
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			issues = append(issues, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
		}
		sort.Strings(issues)
		return nil, &SchemaError{Path: "<input>", Issues: issues}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Path: "<input>", Issues: []string{err.Error()}}
	}

	if dups := duplicateCriterionIDs(&doc); len(dups) > 0 {
		issues := make([]string, 0, len(dups))
		for _, id := range dups {
			issues = append(issues, fmt.Sprintf("duplicate criterion id %q", id))
		}
		return nil, &SchemaError{Path: "<input>", Issues: issues}
	}

	return &doc, nil
}

func duplicateCriterionIDs(doc *Document) []string {
	seen := make(map[string]int)
	var dups []string
	for _, c := range doc.Criteria() {
		seen[c.ID]++
		if seen[c.ID] == 2 {
			dups = append(dups, c.ID)
		}
	}
	return dups
}
