package questionbank

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbTimeout   = 30 * time.Second
	defaultPart = "general"
)

// PostgresStore reads and writes questions in a relational table whose columns
// mirror the Question fields, with a partition column for routing.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore creates a question store over table.
func NewPostgresStore(pool *pgxpool.Pool, table string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if table == "" {
		table = "questions"
	}
	return &PostgresStore{pool: pool, table: pgx.Identifier{table}.Sanitize()}, nil
}

func (s *PostgresStore) Name() string {
	return "postgres:" + s.table
}

func (s *PostgresStore) Load(ctx context.Context) (*Bank, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT id, topic_id, difficulty, type, stem, options, correct_answer,
		        correct_answers, expected_answer, explanation, tags, citations, partition
		 FROM %s
		 ORDER BY partition ASC, id ASC`, s.table))
	if err != nil {
		return nil, &LoadError{Source: s.Name(), Err: fmt.Errorf("query questions: %w", err)}
	}
	defer rows.Close()

	bank := &Bank{}
	for rows.Next() {
		var (
			id, topicID, difficulty, qtype, stem string
			options, correctAnswers, expected    []byte
			citations                            []byte
			correctAnswer, explanation           *string
			partition                            *string
			tags                                 []string
		)
		if err := rows.Scan(
			&id, &topicID, &difficulty, &qtype, &stem,
			&options, &correctAnswer, &correctAnswers, &expected,
			&explanation, &tags, &citations, &partition,
		); err != nil {
			return nil, &LoadError{Source: s.Name(), Err: fmt.Errorf("scan question: %w", err)}
		}

		f := Fields{
			"id":         mustJSON(id),
			"topicId":    mustJSON(topicID),
			"difficulty": mustJSON(difficulty),
			"type":       mustJSON(qtype),
			"stem":       mustJSON(stem),
			"tags":       mustJSON(tags),
		}
		setRaw(f, "options", options)
		setRaw(f, "correctAnswers", correctAnswers)
		setRaw(f, "expectedAnswer", expected)
		setRaw(f, "citations", citations)
		if correctAnswer != nil {
			f["correctAnswer"] = mustJSON(*correctAnswer)
		}
		if explanation != nil {
			f["explanation"] = mustJSON(*explanation)
		}

		part := defaultPart
		if partition != nil && *partition != "" {
			part = *partition
		}
		q, err := NormalizeFields(f)
		if err != nil {
			slog.Warn("rejecting malformed question row", "id", id, "error", err)
			bank.Rejected = append(bank.Rejected, ValidationIssue{
				QuestionID: id,
				Partition:  part,
				Field:      "question",
				Message:    "rejected at load: " + err.Error(),
			})
			continue
		}
		q.Partition = part
		bank.Questions = append(bank.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, &LoadError{Source: s.Name(), Err: fmt.Errorf("iterate questions: %w", err)}
	}

	slog.Info("question bank loaded", "source", s.Name(), "questions", bank.Len(), "rejected", len(bank.Rejected))
	return bank, nil
}

// SavePartition upserts every question of the partition in one transaction.
// Rows not in questions, including rejected ones, are left as they are.
func (s *PostgresStore) SavePartition(ctx context.Context, partition string, questions []Question) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin partition %s: %w", partition, err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(
		`INSERT INTO %s (id, topic_id, difficulty, type, stem, options, correct_answer,
		                 correct_answers, expected_answer, explanation, tags, citations, partition)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8::jsonb, $9::jsonb, $10, $11, $12::jsonb, $13)
		 ON CONFLICT (id) DO UPDATE SET
		   topic_id = EXCLUDED.topic_id,
		   difficulty = EXCLUDED.difficulty,
		   type = EXCLUDED.type,
		   stem = EXCLUDED.stem,
		   options = EXCLUDED.options,
		   correct_answer = EXCLUDED.correct_answer,
		   correct_answers = EXCLUDED.correct_answers,
		   expected_answer = EXCLUDED.expected_answer,
		   explanation = EXCLUDED.explanation,
		   tags = EXCLUDED.tags,
		   citations = EXCLUDED.citations,
		   partition = EXCLUDED.partition`, s.table)

	for _, q := range questions {
		if _, err := tx.Exec(ctx, query,
			q.ID,
			q.TopicID,
			string(q.Difficulty),
			string(q.Type),
			q.Stem,
			jsonOrNil(q.Options),
			nullIfEmpty(q.CorrectAnswer),
			jsonOrNil(q.CorrectAnswers),
			jsonOrNil(q.ExpectedAnswer),
			q.Explanation,
			q.Tags,
			[]byte(mustJSON(nonNilCitations(q.Citations))),
			partition,
		); err != nil {
			return fmt.Errorf("upsert question %s: %w", q.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit partition %s: %w", partition, err)
	}
	slog.Info("question partition saved", "source", s.Name(), "partition", partition, "questions", len(questions))
	return nil
}

func setRaw(f Fields, key string, b []byte) {
	if len(b) > 0 {
		f[key] = json.RawMessage(b)
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}

func jsonOrNil[T any](v []T) any {
	if len(v) == 0 {
		return nil
	}
	return []byte(mustJSON(v))
}

func nonNilCitations(c []Citation) []Citation {
	if c == nil {
		return []Citation{}
	}
	return c
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
