package coverage

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"log/slog"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/p-n-ai/psr-academy/internal/platform/cache"
	"github.com/p-n-ai/psr-academy/internal/questionbank"
	"github.com/p-n-ai/psr-academy/internal/standards"
)

// ErrNotFound is returned for unknown node or criterion IDs.
var ErrNotFound = errors.New("not found")

// Service answers the read-only coverage and analytics queries over one
// immutable standards + bank snapshot. Each call builds its own index, so a
// Service is safe for concurrent use.
type Service struct {
	doc         *standards.Document
	criteria    []standards.Criterion
	bank        *questionbank.Bank
	progress    ProgressSource
	cache       cache.Store
	fingerprint string
	group       singleflight.Group
}

// NewService creates a query service. cache may be nil.
func NewService(doc *standards.Document, bank *questionbank.Bank, progress ProgressSource, store cache.Store) *Service {
	if bank == nil {
		bank = &questionbank.Bank{}
	}
	if progress == nil {
		progress = NewMemoryProgress()
	}
	return &Service{
		doc:         doc,
		criteria:    doc.Criteria(),
		bank:        bank,
		progress:    progress,
		cache:       store,
		fingerprint: Fingerprint(doc, bank),
	}
}

// Fingerprint hashes everything the match relation depends on: criterion and
// question IDs with their tags, in order.
func Fingerprint(doc *standards.Document, bank *questionbank.Bank) string {
	h, _ := blake2b.New256(nil) // unkeyed never errors
	for _, c := range doc.Criteria() {
		writeEntry(h, "c", c.ID, c.Tags)
	}
	for _, q := range bank.Questions {
		writeEntry(h, "q", q.ID, q.Tags)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeEntry(h hash.Hash, kind, id string, tags []string) {
	_, _ = h.Write([]byte(kind + "\x00" + id + "\x00"))
	for _, t := range tags {
		_, _ = h.Write([]byte(t + "\x1f"))
	}
	_, _ = h.Write([]byte{'\n'})
}

// Fingerprint returns the snapshot fingerprint.
func (s *Service) Fingerprint() string {
	return s.fingerprint
}

// Coverage returns the structural coverage summary, served from the cache
// when the same snapshot was summarized before. Concurrent misses share one
// computation.
func (s *Service) Coverage(ctx context.Context) (Summary, error) {
	key := "coverage:" + s.fingerprint
	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			slog.Warn("coverage cache read failed", "error", err)
		}
		if ok {
			var sum Summary
			if err := json.Unmarshal(data, &sum); err == nil {
				return sum, nil
			}
			slog.Warn("discarding unreadable cached coverage", "key", key)
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		sum := Summarize(s.doc, NewIndex(s.bank.Questions))
		if s.cache == nil {
			return sum, nil
		}
		data, err := json.Marshal(sum)
		if err != nil {
			return Summary{}, fmt.Errorf("encode coverage: %w", err)
		}
		if err := s.cache.Set(ctx, key, data); err != nil {
			slog.Warn("coverage cache write failed", "error", err)
		}
		return sum, nil
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

// Node returns coverage for one part, unit, outcome or criterion.
func (s *Service) Node(ctx context.Context, id string) (NodeCoverage, error) {
	sum, err := s.Coverage(ctx)
	if err != nil {
		return NodeCoverage{}, err
	}
	n, ok := sum.Find(id)
	if !ok {
		return NodeCoverage{}, fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	return n, nil
}

func (s *Service) analytics(ctx context.Context, learnerID string) ([]CriterionAnalytics, error) {
	progress, err := s.progress.Progress(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("load progress for %s: %w", learnerID, err)
	}
	return Analyze(s.criteria, NewIndex(s.bank.Questions), progress), nil
}

// Weakest returns a learner's n weakest criteria.
func (s *Service) Weakest(ctx context.Context, learnerID string, n int) ([]CriterionAnalytics, error) {
	a, err := s.analytics(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return Weakest(a, n), nil
}

// Readiness returns a learner's exam readiness.
func (s *Service) Readiness(ctx context.Context, learnerID string) (Readiness, error) {
	a, err := s.analytics(ctx, learnerID)
	if err != nil {
		return Readiness{}, err
	}
	return ReadinessOf(a), nil
}

// Criterion returns one criterion's analytics for a learner.
func (s *Service) Criterion(ctx context.Context, learnerID, criterionID string) (CriterionAnalytics, error) {
	c, ok := s.doc.Criterion(criterionID)
	if !ok {
		return CriterionAnalytics{}, fmt.Errorf("criterion %q: %w", criterionID, ErrNotFound)
	}
	progress, err := s.progress.Progress(ctx, learnerID)
	if err != nil {
		return CriterionAnalytics{}, fmt.Errorf("load progress for %s: %w", learnerID, err)
	}
	return analyzeOne(c, NewIndex(s.bank.Questions), progress), nil
}
