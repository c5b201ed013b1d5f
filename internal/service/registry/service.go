package registry

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/0xAmaan/wander-zero-to-dev/internal/cache"
	"github.com/0xAmaan/wander-zero-to-dev/internal/domain"
	"github.com/0xAmaan/wander-zero-to-dev/internal/repository"
)

// Validation errors surfaced to handlers as 400s.
var (
	ErrNameRequired = errors.New("name is required")
	ErrEmptyUpdate  = errors.New("no fields to update")
)

// Service manages the service catalog behind the read-through cache.
type Service struct {
	repo   repository.ServiceRepository
	store  cache.Store
	logger *slog.Logger
	ttl    time.Duration
}

// New returns a catalog service.
func New(repo repository.ServiceRepository, store cache.Store, logger *slog.Logger, ttl time.Duration) Service {
	return Service{repo: repo, store: store, logger: logger, ttl: ttl}
}

// List returns every service, served from cache within the TTL window.
func (s Service) List(ctx context.Context) ([]domain.Service, bool, error) {
	key := cache.ListKey(cache.EntityServices)
	return cache.Fetch(ctx, s.store, key, s.ttl, s.repo.ListServices)
}

// CreateInput carries the fields accepted on service creation.
type CreateInput struct {
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	RepositoryURL *string `json:"repository_url"`
}

// Create inserts a service and invalidates the services namespace.
func (s Service) Create(ctx context.Context, input CreateInput) (*domain.Service, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	service := &domain.Service{
		Name:          name,
		Description:   input.Description,
		RepositoryURL: input.RepositoryURL,
	}
	if err := s.repo.CreateService(ctx, service); err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.store, s.logger, cache.Namespace(cache.EntityServices))
	s.logger.Info("service created", "service_id", service.ID, "name", service.Name)
	return service, nil
}

// Update applies the present fields and invalidates the services namespace.
func (s Service) Update(ctx context.Context, id int64, update domain.ServiceUpdate) (*domain.Service, error) {
	if update.Empty() {
		return nil, ErrEmptyUpdate
	}
	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		if trimmed == "" {
			return nil, ErrNameRequired
		}
		update.Name = &trimmed
	}
	service, err := s.repo.UpdateService(ctx, id, update)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.store, s.logger, cache.Namespace(cache.EntityServices))
	return service, nil
}

// Delete removes a service. Dependent deployments cascade in the store, so
// both namespaces are invalidated.
func (s Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteService(ctx, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, s.store, s.logger,
		cache.Namespace(cache.EntityServices),
		cache.Namespace(cache.EntityDeployments),
	)
	s.logger.Info("service deleted", "service_id", id)
	return nil
}
