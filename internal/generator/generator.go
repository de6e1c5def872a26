// Package generator synthesizes compliant questions for a criterion from
// fixed templates. Output is a pure function of the criterion and the set of
// existing IDs: no randomness, no network.
package generator

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/p-n-ai/psr-academy/internal/questionbank"
	"github.com/p-n-ai/psr-academy/internal/standards"
)

// BatchSize is the number of questions in one full round.
const BatchSize = 30

// MaxRounds bounds how far GenerateN continues the plan past ID collisions.
const MaxRounds = 5

// DefaultTopic is used when no topic resolver is configured.
const DefaultTopic = "general"

// kind is one question family in the plan.
type kind struct {
	prefix string
	typ    questionbank.Type
	count  int // per round
}

var (
	kindMCQ      = kind{"mcq", questionbank.TypeMCQ, 10}
	kindScenario = kind{"scn", questionbank.TypeScenario, 10}
	kindShort    = kind{"sa", questionbank.TypeShortAnswer, 5}
	kindNextStep = kind{"ns", questionbank.TypeShortAnswer, 5}
)

// slot is one planned question: a kind and its index within the kind.
type slot struct {
	kind  kind
	index int
}

// roundPlan interleaves kinds so a partial batch still mixes types.
var roundPlan = func() []slot {
	var plan []slot
	for i := 0; i < kindMCQ.count; i++ {
		plan = append(plan, slot{kindMCQ, i}, slot{kindScenario, i})
		if i < kindShort.count {
			plan = append(plan, slot{kindShort, i}, slot{kindNextStep, i})
		}
	}
	return plan
}()

var difficulties = []questionbank.Difficulty{
	questionbank.Foundation,
	questionbank.Intermediate,
	questionbank.Advanced,
}

// GenerationGap reports that fewer questions were produced than requested.
type GenerationGap struct {
	CriterionID string
	Requested   int
	Produced    int
}

func (e *GenerationGap) Error() string {
	return fmt.Sprintf("generated %d of %d questions for criterion %s", e.Produced, e.Requested, e.CriterionID)
}

// Generator builds questions from templates.
type Generator struct {
	// TopicFor resolves the topic reference for questions generated for c.
	TopicFor func(c standards.Criterion) string
	title    cases.Caser
}

// New creates a Generator. topicFor may be nil.
func New(topicFor func(standards.Criterion) string) *Generator {
	return &Generator{
		TopicFor: topicFor,
		title:    cases.Title(language.English),
	}
}

// Generate returns the first round for c, skipping IDs already in existing.
// With an empty existing set it yields exactly BatchSize questions. A
// criterion without tags yields nothing: its questions could never match it.
func (g *Generator) Generate(c standards.Criterion, existing map[string]bool) []questionbank.Question {
	if len(c.Tags) == 0 {
		return nil
	}
	var out []questionbank.Question
	for i, s := range roundPlan {
		q := g.build(c, s, 0, i)
		if existing[q.ID] {
			continue
		}
		out = append(out, q)
	}
	return out
}

// GenerateN returns up to n new questions for c, continuing into later rounds
// when earlier IDs already exist. It returns a *GenerationGap alongside the
// partial batch when n cannot be reached within MaxRounds, and an empty one
// when c has no tags.
func (g *Generator) GenerateN(c standards.Criterion, existing map[string]bool, n int) ([]questionbank.Question, error) {
	if n <= 0 {
		return nil, nil
	}
	if len(c.Tags) == 0 {
		return nil, &GenerationGap{CriterionID: c.ID, Requested: n, Produced: 0}
	}
	out := make([]questionbank.Question, 0, n)
	for round := 0; round < MaxRounds; round++ {
		for i, s := range roundPlan {
			q := g.build(c, s, round, round*len(roundPlan)+i)
			if existing[q.ID] {
				continue
			}
			out = append(out, q)
			if len(out) == n {
				return out, nil
			}
		}
	}
	return out, &GenerationGap{CriterionID: c.ID, Requested: n, Produced: len(out)}
}

// ID returns the deterministic identifier for a criterion, kind prefix and
// 1-based sequence number.
func ID(criterionID, prefix string, seq int) string {
	return fmt.Sprintf("gen-%s-%s-%03d", Slug(criterionID), prefix, seq)
}

// Slug lowercases s and collapses every run of non-alphanumerics to '-'.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// build renders one slot. ordinal is the slot's position across all rounds and
// drives every rotation.
func (g *Generator) build(c standards.Criterion, s slot, round, ordinal int) questionbank.Question {
	seq := round*s.kind.count + s.index + 1
	citations := Citations(c, ordinal)
	topicID := DefaultTopic
	if g.TopicFor != nil {
		if t := g.TopicFor(c); t != "" {
			topicID = t
		}
	}

	v := vars{
		authority: authorityText(citations[0]),
		topic:     g.topicName(c),
		question:  questionText(c),
		scenario:  pick(scenarios, ordinal),
	}

	q := questionbank.Question{
		ID:          ID(c.ID, s.kind.prefix, seq),
		TopicID:     topicID,
		Difficulty:  difficulties[ordinal%len(difficulties)],
		Type:        s.kind.typ,
		Explanation: v.render(explanationTemplate),
		Tags:        append([]string(nil), c.Tags...),
		Citations:   citations,
	}

	switch s.kind {
	case kindMCQ:
		q.Stem = v.render(pick(mcqStems, s.index))
		q.Options, q.CorrectAnswer = options(v.render(correctTemplate), ordinal)
	case kindScenario:
		q.Stem = v.render(pick(scenarioStems, s.index))
		q.Options, q.CorrectAnswer = options(v.render(correctTemplate), ordinal)
	case kindShort:
		q.Stem = v.render(pick(shortStems, s.index))
		q.ExpectedAnswer = v.renderAll(shortKeyPoints)
	case kindNextStep:
		q.Stem = v.render(pick(nextStepStems, s.index))
		q.ExpectedAnswer = v.renderAll(nextStepKeyPoints)
	}
	return q
}

func (g *Generator) topicName(c standards.Criterion) string {
	if c.Label != "" {
		return g.title.String(c.Label)
	}
	return g.title.String(strings.NewReplacer("-", " ", "_", " ").Replace(c.ID))
}

// options places the correct answer among the fixed distractors, rotating its
// position so the key is not always "a".
func options(correct string, ordinal int) ([]questionbank.Option, string) {
	texts := append([]string(nil), distractors...)
	pos := ordinal % (len(texts) + 1)
	texts = append(texts[:pos], append([]string{correct}, texts[pos:]...)...)

	opts := make([]questionbank.Option, len(texts))
	for i, t := range texts {
		opts[i] = questionbank.Option{ID: string(rune('a' + i)), Text: t}
	}
	return opts, opts[pos].ID
}

func questionText(c standards.Criterion) string {
	s := strings.TrimSpace(c.Summary)
	if s == "" {
		s = c.Label
	}
	return strings.TrimRight(s, ". ")
}

func authorityText(c questionbank.Citation) string {
	if c.IsPlaceholder() {
		return c.Instrument
	}
	return c.Instrument + " " + c.Cite
}

func pick(list []string, i int) string {
	return list[i%len(list)]
}
