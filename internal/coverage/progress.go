package coverage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// ProgressSource supplies a learner's per-criterion records, keyed by criterion ID.
type ProgressSource interface {
	Progress(ctx context.Context, learnerID string) (map[string]Progress, error)
}

// MemoryProgress is an in-process ProgressSource.
type MemoryProgress struct {
	mu       sync.RWMutex
	learners map[string]map[string]Progress
}

func NewMemoryProgress() *MemoryProgress {
	return &MemoryProgress{learners: make(map[string]map[string]Progress)}
}

// Set replaces one criterion record for a learner.
func (m *MemoryProgress) Set(learnerID string, p Progress) error {
	if learnerID == "" || p.CriterionID == "" {
		return fmt.Errorf("learner and criterion ids are required")
	}
	if p.Answered < 0 || p.Correct < 0 || p.Correct > p.Answered {
		return fmt.Errorf("invalid progress %d/%d for %s", p.Correct, p.Answered, p.CriterionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.learners[learnerID] == nil {
		m.learners[learnerID] = make(map[string]Progress)
	}
	m.learners[learnerID][p.CriterionID] = p
	return nil
}

// Record adds one answered question to a learner's record.
func (m *MemoryProgress) Record(learnerID, criterionID string, correct bool) error {
	m.mu.RLock()
	p := m.learners[learnerID][criterionID]
	m.mu.RUnlock()

	p.CriterionID = criterionID
	p.Answered++
	if correct {
		p.Correct++
	}
	return m.Set(learnerID, p)
}

func (m *MemoryProgress) Progress(_ context.Context, learnerID string) (map[string]Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Progress, len(m.learners[learnerID]))
	for id, p := range m.learners[learnerID] {
		out[id] = p
	}
	return out, nil
}

// PostgresProgress reads records from the learner_progress table
// (learner_id, criterion_id, answered, correct).
type PostgresProgress struct {
	pool *pgxpool.Pool
}

func NewPostgresProgress(pool *pgxpool.Pool) (*PostgresProgress, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresProgress{pool: pool}, nil
}

func (s *PostgresProgress) Progress(ctx context.Context, learnerID string) (map[string]Progress, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT criterion_id, answered, correct
		 FROM learner_progress
		 WHERE learner_id = $1`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query learner progress: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Progress)
	for rows.Next() {
		var p Progress
		if err := rows.Scan(&p.CriterionID, &p.Answered, &p.Correct); err != nil {
			return nil, fmt.Errorf("scan learner progress: %w", err)
		}
		out[p.CriterionID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate learner progress: %w", err)
	}
	return out, nil
}
