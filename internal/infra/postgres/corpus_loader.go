package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"railprep/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CorpusLoader reads the static question corpus from Postgres, one JSONB
// row per question.
type CorpusLoader struct {
	pool *pgxpool.Pool
}

func NewCorpusLoader(pool *pgxpool.Pool) *CorpusLoader {
	return &CorpusLoader{pool: pool}
}

func (l *CorpusLoader) LoadAll(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM questions ORDER BY subject, difficulty, id`)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	return questions, nil
}

// Seed upserts questions into the corpus table. Rows are keyed by the
// question's position-independent identity (subject plus prompt), so
// re-seeding the same file is idempotent.
func Seed(ctx context.Context, pool *pgxpool.Pool, questions []domain.Question) (int, error) {
	inserted := 0
	for _, q := range questions {
		data, err := json.Marshal(q)
		if err != nil {
			return inserted, fmt.Errorf("marshal question: %w", err)
		}
		tag, err := pool.Exec(ctx, `
			INSERT INTO questions (subject, difficulty, prompt, data)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (subject, prompt) DO UPDATE SET difficulty = $2, data = $4`,
			q.Subject, string(q.Difficulty), q.Question, data,
		)
		if err != nil {
			return inserted, fmt.Errorf("seed question: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
