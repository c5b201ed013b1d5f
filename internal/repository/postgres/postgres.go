package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0xAmaan/wander-zero-to-dev/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.ServiceRepository     = (*Repository)(nil)
	_ repository.EnvironmentRepository = (*Repository)(nil)
	_ repository.DeploymentRepository  = (*Repository)(nil)
)

// mapPgError translates constraint violations into sentinel errors.
// 23503 (foreign key) means a referenced row is gone, which callers treat
// as not-found; 23505/23514/22P02 are bad input.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return repository.ErrNotFound
		case "23505", "23514", "22P02":
			return repository.ErrInvalidArgument
		}
	}
	return err
}
