package repository

import (
	"context"

	"github.com/0xAmaan/wander-zero-to-dev/internal/domain"
)

// ServiceRepository persists the service catalog.
type ServiceRepository interface {
	CreateService(ctx context.Context, service *domain.Service) error
	GetServiceByID(ctx context.Context, id int64) (*domain.Service, error)
	ListServices(ctx context.Context) ([]domain.Service, error)
	UpdateService(ctx context.Context, id int64, update domain.ServiceUpdate) (*domain.Service, error)
	DeleteService(ctx context.Context, id int64) error
}

// EnvironmentRepository reads deployment targets. Environments are seeded,
// not managed over the API.
type EnvironmentRepository interface {
	ListEnvironments(ctx context.Context) ([]domain.Environment, error)
	GetEnvironmentByID(ctx context.Context, id int64) (*domain.Environment, error)
}

// DeploymentRepository stores deployment history.
type DeploymentRepository interface {
	CreateDeployment(ctx context.Context, deployment *domain.Deployment) error
	GetDeploymentByID(ctx context.Context, id int64) (*domain.Deployment, error)
	ListDeployments(ctx context.Context, filter domain.DeploymentFilter) ([]domain.Deployment, error)
	UpdateDeployment(ctx context.Context, id int64, update domain.DeploymentUpdate) (*domain.Deployment, error)
	DeleteDeployment(ctx context.Context, id int64) error
}
