package summaryrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
)

// PostgresRepository persists summaries in Postgres. The full response is
// kept as jsonb next to the columns used for listing.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save implements summarizer.Repository.
func (r *PostgresRepository) Save(ctx context.Context, resp summarizer.Response) error {
	id, err := uuid.Parse(resp.ID)
	if err != nil {
		return fmt.Errorf("parse summary id: %w", err)
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO summaries (id, model, final_step, result, total_tokens, cost, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET result = EXCLUDED.result, total_tokens = EXCLUDED.total_tokens, cost = EXCLUDED.cost, payload = EXCLUDED.payload
	`, id, resp.Model, string(resp.FinalStep), resp.Summary.Result, resp.Summary.TotalTokens, resp.Summary.Cost, payload, resp.CreatedAt)
	return err
}

// Get implements summarizer.Repository.
func (r *PostgresRepository) Get(ctx context.Context, id string) (summarizer.Response, bool, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return summarizer.Response{}, false, nil
	}
	var payload []byte
	row := r.pool.QueryRow(ctx, `
		SELECT payload
		FROM summaries
		WHERE id = $1
		LIMIT 1
	`, parsed)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return summarizer.Response{}, false, nil
		}
		return summarizer.Response{}, false, err
	}
	var resp summarizer.Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return summarizer.Response{}, false, fmt.Errorf("decode summary: %w", err)
	}
	return resp, true, nil
}

var _ summarizer.Repository = (*PostgresRepository)(nil)
