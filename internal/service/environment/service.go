package environment

import (
	"context"
	"time"

	"log/slog"

	"github.com/0xAmaan/wander-zero-to-dev/internal/cache"
	"github.com/0xAmaan/wander-zero-to-dev/internal/domain"
	"github.com/0xAmaan/wander-zero-to-dev/internal/repository"
)

// Service exposes the seeded deployment targets. The HTTP surface is
// read-only; rows change only through migrations, so no invalidation path
// exists here and entries simply age out of the cache.
type Service struct {
	repo   repository.EnvironmentRepository
	store  cache.Store
	logger *slog.Logger
	ttl    time.Duration
}

// New returns an environment service.
func New(repo repository.EnvironmentRepository, store cache.Store, logger *slog.Logger, ttl time.Duration) Service {
	return Service{repo: repo, store: store, logger: logger, ttl: ttl}
}

// List returns environments in display order, served from cache within the
// TTL window.
func (s Service) List(ctx context.Context) ([]domain.Environment, bool, error) {
	key := cache.ListKey(cache.EntityEnvironments)
	return cache.Fetch(ctx, s.store, key, s.ttl, s.repo.ListEnvironments)
}
