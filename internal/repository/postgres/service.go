package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/0xAmaan/wander-zero-to-dev/internal/domain"
	"github.com/0xAmaan/wander-zero-to-dev/internal/repository"
)

const serviceColumns = `id, name, description, repository_url, created_at`

// CreateService inserts a service and fills in its generated id/timestamp.
func (r *Repository) CreateService(ctx context.Context, service *domain.Service) error {
	const query = `INSERT INTO services (name, description, repository_url)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	row := r.pool.QueryRow(ctx, query, service.Name, service.Description, service.RepositoryURL)
	if err := row.Scan(&service.ID, &service.CreatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

// GetServiceByID fetches a single service.
func (r *Repository) GetServiceByID(ctx context.Context, id int64) (*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var s domain.Service
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.RepositoryURL, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListServices returns the full catalog ordered by name.
func (r *Repository) ListServices(ctx context.Context) ([]domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]domain.Service, 0)
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.RepositoryURL, &s.CreatedAt); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// UpdateService applies the non-nil fields of update and returns the row.
func (r *Repository) UpdateService(ctx context.Context, id int64, update domain.ServiceUpdate) (*domain.Service, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.RepositoryURL != nil {
		add("repository_url", *update.RepositoryURL)
	}
	if len(sets) == 0 {
		return nil, repository.ErrInvalidArgument
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE services SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), serviceColumns)
	row := r.pool.QueryRow(ctx, query, args...)
	var s domain.Service
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.RepositoryURL, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapPgError(err)
	}
	return &s, nil
}

// DeleteService removes a service; dependent deployments cascade.
func (r *Repository) DeleteService(ctx context.Context, id int64) error {
	const query = `DELETE FROM services WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
