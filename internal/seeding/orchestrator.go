package seeding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/psr-academy/internal/audit"
	"github.com/p-n-ai/psr-academy/internal/coverage"
	"github.com/p-n-ai/psr-academy/internal/generator"
	"github.com/p-n-ai/psr-academy/internal/questionbank"
	"github.com/p-n-ai/psr-academy/internal/standards"
)

// Seeded records what was generated for one criterion.
type Seeded struct {
	CriterionID string `json:"criterionId"`
	Partition   string `json:"partition"`
	Before      int    `json:"before"`
	Requested   int    `json:"requested"`
	Generated   int    `json:"generated"`
}

// Result summarizes a seeding run.
type Result struct {
	Seeded     []Seeded
	Gaps       []*generator.GenerationGap
	Partitions []string // in the order first written
	Report     *audit.Report
}

// Generated returns the total number of new questions.
func (r *Result) Generated() int {
	n := 0
	for _, s := range r.Seeded {
		n += s.Generated
	}
	return n
}

// Orchestrator drives generation until every criterion meets the minimum.
type Orchestrator struct {
	store  questionbank.Store
	routes *PartitionMap
	gen    *generator.Generator
	audit  audit.Options
}

// New creates an Orchestrator. routes may be nil for the catch-all only.
func New(store questionbank.Store, routes *PartitionMap, auditOpts audit.Options) *Orchestrator {
	if routes == nil {
		routes = DefaultPartitionMap()
	}
	if auditOpts.MinQuestions <= 0 {
		auditOpts.MinQuestions = audit.MinQuestionsPerCriterion
	}
	return &Orchestrator{
		store:  store,
		routes: routes,
		gen:    generator.New(routes.TopicFor),
		audit:  auditOpts,
	}
}

// Run seeds every criterion below the minimum in document order, saving each
// touched partition whole, then reloads the bank and audits it. The returned
// error is non-nil unless the final audit passes and no generation gap occurred.
func (o *Orchestrator) Run(ctx context.Context, criteria []standards.Criterion) (*Result, error) {
	bank, err := o.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}

	ix := coverage.NewIndex(bank.Questions)
	existing := bank.IDs()
	res := &Result{}
	written := make(map[string]bool)
	minQuestions := o.audit.MinQuestions

	for _, c := range criteria {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		before := ix.MatchCount(c)
		if before >= minQuestions {
			continue
		}
		need := minQuestions - before
		route := o.routes.For(c)

		qs, genErr := o.gen.GenerateN(c, existing, need)
		var gap *generator.GenerationGap
		if errors.As(genErr, &gap) {
			slog.Warn("generation gap", "criterion", c.ID, "requested", gap.Requested, "produced", gap.Produced)
			res.Gaps = append(res.Gaps, gap)
		} else if genErr != nil {
			return res, fmt.Errorf("generate for %s: %w", c.ID, genErr)
		}
		if len(qs) == 0 {
			continue
		}

		for i := range qs {
			qs[i].Partition = route.Partition
			existing[qs[i].ID] = true
			ix.Add(qs[i])
		}
		bank.Questions = append(bank.Questions, qs...)

		if err := o.store.SavePartition(ctx, route.Partition, bank.Partition(route.Partition)); err != nil {
			return res, fmt.Errorf("save partition %s: %w", route.Partition, err)
		}
		if !written[route.Partition] {
			written[route.Partition] = true
			res.Partitions = append(res.Partitions, route.Partition)
		}

		res.Seeded = append(res.Seeded, Seeded{
			CriterionID: c.ID,
			Partition:   route.Partition,
			Before:      before,
			Requested:   need,
			Generated:   len(qs),
		})
		slog.Info("seeded criterion",
			"criterion", c.ID,
			"partition", route.Partition,
			"before", before,
			"generated", len(qs),
		)
	}

	final, err := o.store.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("reload question bank: %w", err)
	}
	res.Report = audit.Run(criteria, final, o.audit)

	errs := []error{res.Report.Err()}
	for _, g := range res.Gaps {
		errs = append(errs, g)
	}
	return res, errors.Join(errs...)
}
