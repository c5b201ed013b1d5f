package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/0xAmaan/wander-zero-to-dev/internal/cache"
	"github.com/0xAmaan/wander-zero-to-dev/internal/domain"
	"github.com/0xAmaan/wander-zero-to-dev/internal/repository"
	"github.com/0xAmaan/wander-zero-to-dev/internal/ws"
)

// Topic is the hub topic deployment mutation events are broadcast on.
const Topic = "deployments"

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// Validation errors surfaced to handlers as 400s.
var (
	ErrMissingFields = errors.New("missing required fields: service_id, environment_id, version, deployed_by")
	ErrEmptyUpdate   = errors.New("no fields to update")
)

// Service manages deployment history behind the read-through cache.
type Service struct {
	deployments  repository.DeploymentRepository
	services     repository.ServiceRepository
	environments repository.EnvironmentRepository
	store        cache.Store
	hub          *ws.Hub
	logger       *slog.Logger
	ttl          time.Duration
}

// New returns a deployment service.
func New(deployments repository.DeploymentRepository, services repository.ServiceRepository, environments repository.EnvironmentRepository, store cache.Store, hub *ws.Hub, logger *slog.Logger, ttl time.Duration) Service {
	return Service{
		deployments:  deployments,
		services:     services,
		environments: environments,
		store:        store,
		hub:          hub,
		logger:       logger,
		ttl:          ttl,
	}
}

// NormalizeLimit clamps a requested row count into [1, maxListLimit],
// defaulting when unset.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// List returns recent deployments narrowed by filter, served from cache
// within the TTL window. The key encodes every filter value, absent ones
// included, so filtered and unfiltered results never alias.
func (s Service) List(ctx context.Context, filter domain.DeploymentFilter) ([]domain.Deployment, bool, error) {
	filter.Limit = NormalizeLimit(filter.Limit)
	key := cache.ListKey(cache.EntityDeployments,
		cache.Filter(filter.Environment),
		cache.Filter(filter.Status),
		strconv.Itoa(filter.Limit),
	)
	return cache.Fetch(ctx, s.store, key, s.ttl, func(ctx context.Context) ([]domain.Deployment, error) {
		return s.deployments.ListDeployments(ctx, filter)
	})
}

// Get returns a single deployment with joined service/environment details.
func (s Service) Get(ctx context.Context, id int64) (*domain.Deployment, bool, error) {
	key := cache.DetailKey(cache.EntityDeployments, id)
	return cache.Fetch(ctx, s.store, key, s.ttl, func(ctx context.Context) (*domain.Deployment, error) {
		return s.deployments.GetDeploymentByID(ctx, id)
	})
}

// CreateInput carries the fields accepted on deployment creation.
type CreateInput struct {
	ServiceID     int64           `json:"service_id"`
	EnvironmentID int64           `json:"environment_id"`
	Version       string          `json:"version"`
	DeployedBy    string          `json:"deployed_by"`
	Metadata      json.RawMessage `json:"metadata"`
}

// Create validates both foreign keys exist, inserts the deployment as
// in_progress, invalidates the deployments namespace and broadcasts the
// creation. The existence checks and the insert are separate statements;
// a referenced row deleted in between surfaces as not-found from the
// insert's FK violation rather than a server error.
func (s Service) Create(ctx context.Context, input CreateInput) (*domain.Deployment, error) {
	if input.ServiceID == 0 || input.EnvironmentID == 0 ||
		strings.TrimSpace(input.Version) == "" || strings.TrimSpace(input.DeployedBy) == "" {
		return nil, ErrMissingFields
	}
	if _, err := s.services.GetServiceByID(ctx, input.ServiceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("service not found: %w", repository.ErrNotFound)
		}
		return nil, err
	}
	if _, err := s.environments.GetEnvironmentByID(ctx, input.EnvironmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("environment not found: %w", repository.ErrNotFound)
		}
		return nil, err
	}

	metadata := input.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}
	deployment := &domain.Deployment{
		ServiceID:     input.ServiceID,
		EnvironmentID: input.EnvironmentID,
		Version:       strings.TrimSpace(input.Version),
		Status:        domain.StatusInProgress,
		DeployedBy:    strings.TrimSpace(input.DeployedBy),
		StartedAt:     time.Now().UTC(),
		Metadata:      metadata,
	}
	if err := s.deployments.CreateDeployment(ctx, deployment); err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.store, s.logger, cache.Namespace(cache.EntityDeployments))
	s.broadcast("deployment.created", deployment.ID, deployment.Status)
	s.logger.Info("deployment created",
		"deployment_id", deployment.ID,
		"service_id", deployment.ServiceID,
		"environment_id", deployment.EnvironmentID,
		"version", deployment.Version,
	)
	return deployment, nil
}

// Update applies the present fields. A transition into a terminal status
// sets completed_at as part of the same update; any other status leaves it
// untouched. Status strings are not validated against a transition table.
func (s Service) Update(ctx context.Context, id int64, update domain.DeploymentUpdate) (*domain.Deployment, error) {
	if update.Empty() {
		return nil, ErrEmptyUpdate
	}
	if update.Status != nil && domain.TerminalStatus(*update.Status) {
		now := time.Now().UTC()
		update.CompletedAt = &now
	}
	deployment, err := s.deployments.UpdateDeployment(ctx, id, update)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.store, s.logger, cache.Namespace(cache.EntityDeployments))
	s.broadcast("deployment.updated", deployment.ID, deployment.Status)
	return deployment, nil
}

// Delete removes a deployment and invalidates the deployments namespace.
func (s Service) Delete(ctx context.Context, id int64) error {
	if err := s.deployments.DeleteDeployment(ctx, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, s.store, s.logger, cache.Namespace(cache.EntityDeployments))
	s.broadcast("deployment.deleted", id, "")
	s.logger.Info("deployment deleted", "deployment_id", id)
	return nil
}

// Event is the payload pushed to hub subscribers on mutations.
type Event struct {
	Type         string    `json:"type"`
	DeploymentID int64     `json:"deployment_id"`
	Status       string    `json:"status,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func (s Service) broadcast(eventType string, deploymentID int64, status string) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(Event{
		Type:         eventType,
		DeploymentID: deploymentID,
		Status:       status,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("encode deployment event", "error", err)
		return
	}
	s.hub.Broadcast(Topic, payload)
}
