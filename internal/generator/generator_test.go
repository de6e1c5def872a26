package generator

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/p-n-ai/psr-academy/internal/questionbank"
	"github.com/p-n-ai/psr-academy/internal/standards"
)

func arrestCriterion() standards.Criterion {
	return standards.Criterion{
		ID:      "1.2.3",
		Label:   "Necessity test for arrest",
		Summary: "An arrest without warrant requires reasonable grounds to believe it is necessary.",
		Tags:    []string{"arrest", "necessity"},
		ExpectedAuthorities: []standards.Authority{
			{Instrument: "PACE 1984", Cite: "s.24(4)"},
			{Instrument: "PACE Code G", Cite: "para 2.4"},
			{Instrument: "PACE Code C", Cite: "para 10.3"},
		},
	}
}

func questionIDs(qs []questionbank.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestGenerate_Composition(t *testing.T) {
	c := arrestCriterion()
	qs := New(nil).Generate(c, nil)

	if len(qs) != BatchSize {
		t.Fatalf("Generate() produced %d questions, want %d", len(qs), BatchSize)
	}

	prefixes := map[string]int{}
	seen := map[string]bool{}
	for _, q := range qs {
		if seen[q.ID] {
			t.Errorf("duplicate id %s", q.ID)
		}
		seen[q.ID] = true
		prefixes[strings.Split(strings.TrimPrefix(q.ID, "gen-1-2-3-"), "-")[0]]++

		if issues := questionbank.Validate(q, nil); len(issues) > 0 {
			t.Errorf("%s invalid: %v", q.ID, issues)
		}
		if !reflect.DeepEqual(q.Tags, c.Tags) {
			t.Errorf("%s tags = %v, want %v", q.ID, q.Tags, c.Tags)
		}
		if !q.CitationCompliant(CitationsPerQuestion) {
			t.Errorf("%s citations = %+v", q.ID, q.Citations)
		}
		for _, cit := range q.Citations {
			if cit.IsPlaceholder() {
				t.Errorf("%s uses placeholder %q despite expected authorities", q.ID, cit.Cite)
			}
		}
		if strings.Contains(q.Stem, "{") {
			t.Errorf("%s stem has unfilled placeholder: %q", q.ID, q.Stem)
		}
		if q.TopicID != DefaultTopic {
			t.Errorf("%s topic = %q, want %q", q.ID, q.TopicID, DefaultTopic)
		}
	}

	want := map[string]int{"mcq": 10, "scn": 10, "sa": 5, "ns": 5}
	if !reflect.DeepEqual(prefixes, want) {
		t.Errorf("composition = %v, want %v", prefixes, want)
	}
	if qs[0].ID != "gen-1-2-3-mcq-001" {
		t.Errorf("first id = %s", qs[0].ID)
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	c := arrestCriterion()
	g := New(nil)
	existing := map[string]bool{"unrelated": true}

	first := g.Generate(c, existing)
	second := g.Generate(c, existing)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Generate() is not a pure function of its inputs")
	}

	for _, q := range first {
		existing[q.ID] = true
	}
	if again := g.Generate(c, existing); len(again) != 0 {
		t.Errorf("Generate() after first batch produced %d questions, want 0", len(again))
	}
}

func TestGenerate_FallbackCitations(t *testing.T) {
	c := standards.Criterion{ID: "C9", Label: "Right to legal advice", Tags: []string{"advice"}}
	qs := New(func(standards.Criterion) string { return "legal-advice" }).Generate(c, nil)

	for _, q := range qs {
		if len(q.Citations) != 2 {
			t.Fatalf("%s has %d citations", q.ID, len(q.Citations))
		}
		if q.Citations[0].Instrument != "PACE 1984" || q.Citations[1].Instrument != "PACE Code C" {
			t.Errorf("%s instruments = %s, %s", q.ID, q.Citations[0].Instrument, q.Citations[1].Instrument)
		}
		if !q.Citations[0].IsPlaceholder() || !q.Citations[1].IsPlaceholder() {
			t.Errorf("%s fallback cites should be placeholders: %+v", q.ID, q.Citations)
		}
		if q.TopicID != "legal-advice" {
			t.Errorf("%s topic = %q", q.ID, q.TopicID)
		}
	}
}

func TestGenerateN_Shortfall(t *testing.T) {
	c := arrestCriterion()
	g := New(nil)

	qs, err := g.GenerateN(c, nil, 7)
	if err != nil {
		t.Fatalf("GenerateN() error = %v", err)
	}
	full := g.Generate(c, nil)
	if !reflect.DeepEqual(questionIDs(qs), questionIDs(full[:7])) {
		t.Errorf("GenerateN(7) = %v, want plan prefix %v", questionIDs(qs), questionIDs(full[:7]))
	}

	types := map[questionbank.Type]bool{}
	for _, q := range qs {
		types[q.Type] = true
	}
	if len(types) < 3 {
		t.Errorf("partial batch should mix types, got %v", types)
	}
}

func TestGenerateN_ContinuesPastCollisions(t *testing.T) {
	c := arrestCriterion()
	g := New(nil)

	existing := map[string]bool{}
	for _, q := range g.Generate(c, nil) {
		existing[q.ID] = true
	}

	qs, err := g.GenerateN(c, existing, BatchSize)
	if err != nil {
		t.Fatalf("GenerateN() error = %v", err)
	}
	if len(qs) != BatchSize {
		t.Fatalf("GenerateN() produced %d, want %d", len(qs), BatchSize)
	}
	if qs[0].ID != "gen-1-2-3-mcq-011" {
		t.Errorf("first second-round id = %s, want gen-1-2-3-mcq-011", qs[0].ID)
	}
	for _, q := range qs {
		if existing[q.ID] {
			t.Errorf("GenerateN() reused existing id %s", q.ID)
		}
	}
}

func TestGenerateN_Gap(t *testing.T) {
	want := MaxRounds * BatchSize
	qs, err := New(nil).GenerateN(arrestCriterion(), nil, want+1)

	var gap *GenerationGap
	if !errors.As(err, &gap) {
		t.Fatalf("GenerateN() error = %v, want *GenerationGap", err)
	}
	if gap.Requested != want+1 || gap.Produced != want || len(qs) != want {
		t.Errorf("gap = %+v, produced %d", gap, len(qs))
	}
}

func TestGenerateN_Zero(t *testing.T) {
	qs, err := New(nil).GenerateN(arrestCriterion(), nil, 0)
	if err != nil || qs != nil {
		t.Errorf("GenerateN(0) = %v, %v", qs, err)
	}
}

func TestGenerateN_UntaggedCriterion(t *testing.T) {
	c := arrestCriterion()
	c.Tags = nil
	g := New(nil)

	qs, err := g.GenerateN(c, nil, BatchSize)
	var gap *GenerationGap
	if !errors.As(err, &gap) {
		t.Fatalf("GenerateN() error = %v, want *GenerationGap", err)
	}
	if len(qs) != 0 || gap.Produced != 0 || gap.Requested != BatchSize {
		t.Errorf("GenerateN() = %d questions, gap %+v", len(qs), gap)
	}
	if got := g.Generate(c, nil); len(got) != 0 {
		t.Errorf("Generate() = %d questions, want 0", len(got))
	}
}

func TestCitations(t *testing.T) {
	c := arrestCriterion()

	tests := []struct {
		name    string
		c       standards.Criterion
		ordinal int
		want    []string
	}{
		{"cycles from ordinal", c, 0, []string{"PACE 1984", "PACE Code G"}},
		{"wraps around", c, 2, []string{"PACE Code C", "PACE 1984"}},
		{"single authority topped up", standards.Criterion{
			Label:               "Bail",
			ExpectedAuthorities: []standards.Authority{{Instrument: "Bail Act 1976", Cite: "s.4"}},
		}, 0, []string{"Bail Act 1976", "PACE 1984"}},
		{"single PACE authority", standards.Criterion{
			ExpectedAuthorities: []standards.Authority{{Instrument: "PACE 1984", Cite: "s.37"}},
		}, 0, []string{"PACE 1984", "PACE Code C"}},
		{"blank cite ignored", standards.Criterion{
			ExpectedAuthorities: []standards.Authority{{Instrument: "CPIA 1996"}},
		}, 0, []string{"PACE 1984", "PACE Code C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Citations(tt.c, tt.ordinal)
			var instruments []string
			for _, c := range got {
				instruments = append(instruments, c.Instrument)
			}
			if !reflect.DeepEqual(instruments, tt.want) {
				t.Errorf("Citations() = %v, want %v", instruments, tt.want)
			}
		})
	}
}

func TestCitations_SingleAuthority(t *testing.T) {
	c := standards.Criterion{
		Label:               "Lawful arrest",
		Tags:                []string{"arrest"},
		ExpectedAuthorities: []standards.Authority{{Instrument: "PACE 1984", Cite: "s.24"}},
	}

	for ordinal := 0; ordinal < 3; ordinal++ {
		got := Citations(c, ordinal)
		if len(got) != CitationsPerQuestion {
			t.Fatalf("Citations(%d) = %v", ordinal, got)
		}
		if got[0] != (questionbank.Citation{Instrument: "PACE 1984", Cite: "s.24"}) {
			t.Errorf("Citations(%d)[0] = %+v, want the declared authority", ordinal, got[0])
		}
		if got[1].Instrument != "PACE Code C" || !got[1].IsPlaceholder() {
			t.Errorf("Citations(%d)[1] = %+v, want a PACE Code C placeholder", ordinal, got[1])
		}
		if got[0].SameAs(got[1]) {
			t.Errorf("Citations(%d) repeats one authority: %v", ordinal, got)
		}
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"1.2.3":          "1-2-3",
		"PSR-Arrest_01":  "psr-arrest-01",
		"  spaced  out ": "spaced-out",
		"":               "",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
