package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/0xAmaan/wander-zero-to-dev/internal/domain"
	"github.com/0xAmaan/wander-zero-to-dev/internal/repository"
)

// ListEnvironments returns environments in display order:
// development, staging, production, then anything else.
func (r *Repository) ListEnvironments(ctx context.Context) ([]domain.Environment, error) {
	const query = `SELECT id, name, description, created_at
		FROM environments
		ORDER BY CASE name
			WHEN 'development' THEN 1
			WHEN 'staging' THEN 2
			WHEN 'production' THEN 3
			ELSE 4
		END, name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	environments := make([]domain.Environment, 0)
	for rows.Next() {
		var e domain.Environment
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		environments = append(environments, e)
	}
	return environments, rows.Err()
}

// GetEnvironmentByID loads a single environment.
func (r *Repository) GetEnvironmentByID(ctx context.Context, id int64) (*domain.Environment, error) {
	const query = `SELECT id, name, description, created_at FROM environments WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var e domain.Environment
	if err := row.Scan(&e.ID, &e.Name, &e.Description, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
