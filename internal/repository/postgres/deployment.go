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

// CreateDeployment inserts a deployment row and fills in generated fields.
// Status and started_at are set by the caller; metadata must be valid JSON.
func (r *Repository) CreateDeployment(ctx context.Context, deployment *domain.Deployment) error {
	const query = `INSERT INTO deployments (service_id, environment_id, version, status, deployed_by, started_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	row := r.pool.QueryRow(ctx, query,
		deployment.ServiceID,
		deployment.EnvironmentID,
		deployment.Version,
		deployment.Status,
		deployment.DeployedBy,
		deployment.StartedAt,
		deployment.Metadata,
	)
	if err := row.Scan(&deployment.ID); err != nil {
		return mapPgError(err)
	}
	return nil
}

// GetDeploymentByID returns a deployment joined with its service and
// environment details.
func (r *Repository) GetDeploymentByID(ctx context.Context, id int64) (*domain.Deployment, error) {
	const query = `SELECT
			d.id, d.service_id, d.environment_id, d.version, d.status, d.deployed_by,
			d.started_at, d.completed_at, d.error_message, d.metadata,
			s.name, s.description, s.repository_url,
			e.name, e.description
		FROM deployments d
		JOIN services s ON d.service_id = s.id
		JOIN environments e ON d.environment_id = e.id
		WHERE d.id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var d domain.Deployment
	if err := row.Scan(
		&d.ID, &d.ServiceID, &d.EnvironmentID, &d.Version, &d.Status, &d.DeployedBy,
		&d.StartedAt, &d.CompletedAt, &d.ErrorMessage, &d.Metadata,
		&d.ServiceName, &d.ServiceDescription, &d.RepositoryURL,
		&d.EnvironmentName, &d.EnvironmentDesc,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListDeployments returns recent deployments, newest first, narrowed by the
// filter's equality predicates.
func (r *Repository) ListDeployments(ctx context.Context, filter domain.DeploymentFilter) ([]domain.Deployment, error) {
	var b strings.Builder
	b.WriteString(`SELECT
			d.id, d.version, d.status, d.deployed_by,
			d.started_at, d.completed_at, d.error_message, d.metadata,
			s.name, s.description,
			e.name
		FROM deployments d
		JOIN services s ON d.service_id = s.id
		JOIN environments e ON d.environment_id = e.id`)

	args := make([]any, 0, 3)
	conditions := make([]string, 0, 2)
	if filter.Environment != "" {
		args = append(args, filter.Environment)
		conditions = append(conditions, fmt.Sprintf("e.name = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("d.status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		b.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	args = append(args, filter.Limit)
	fmt.Fprintf(&b, " ORDER BY d.started_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deployments := make([]domain.Deployment, 0)
	for rows.Next() {
		var d domain.Deployment
		if err := rows.Scan(
			&d.ID, &d.Version, &d.Status, &d.DeployedBy,
			&d.StartedAt, &d.CompletedAt, &d.ErrorMessage, &d.Metadata,
			&d.ServiceName, &d.ServiceDescription,
			&d.EnvironmentName,
		); err != nil {
			return nil, err
		}
		deployments = append(deployments, d)
	}
	return deployments, rows.Err()
}

// UpdateDeployment applies the non-nil fields of update and returns the
// joined row. CompletedAt is written exactly when the service layer derived
// it from a terminal status.
func (r *Repository) UpdateDeployment(ctx context.Context, id int64, update domain.DeploymentUpdate) (*domain.Deployment, error) {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Version != nil {
		add("version", *update.Version)
	}
	if update.Status != nil {
		add("status", *update.Status)
	}
	if update.DeployedBy != nil {
		add("deployed_by", *update.DeployedBy)
	}
	if update.ErrorMessage != nil {
		add("error_message", *update.ErrorMessage)
	}
	if update.Metadata != nil {
		add("metadata", update.Metadata)
	}
	if update.CompletedAt != nil {
		add("completed_at", *update.CompletedAt)
	}
	if len(sets) == 0 {
		return nil, repository.ErrInvalidArgument
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE deployments SET %s WHERE id = $%d RETURNING id`,
		strings.Join(sets, ", "), len(args))
	var updatedID int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapPgError(err)
	}
	return r.GetDeploymentByID(ctx, updatedID)
}

// DeleteDeployment removes a deployment row.
func (r *Repository) DeleteDeployment(ctx context.Context, id int64) error {
	const query = `DELETE FROM deployments WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
