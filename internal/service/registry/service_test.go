package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/0xAmaan/wander-zero-to-dev/internal/domain"
	"github.com/0xAmaan/wander-zero-to-dev/internal/repository"
)

type fakeStore struct {
	data map[string]string

	deletedPatterns []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := f.data[key]
	return value, ok, nil
}

func (f *fakeStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeStore) DeletePattern(_ context.Context, pattern string) (int64, error) {
	f.deletedPatterns = append(f.deletedPatterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	var deleted int64
	for key := range f.data {
		if strings.HasPrefix(key, prefix) {
			delete(f.data, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) FlushAll(context.Context) error {
	f.data = map[string]string{}
	return nil
}

func (f *fakeStore) Ping(context.Context) (time.Duration, error) { return time.Millisecond, nil }
func (f *fakeStore) Close() error                                { return nil }

type fakeServiceRepo struct {
	services  map[int64]*domain.Service
	nextID    int64
	listCalls int
}

func newFakeServiceRepo() *fakeServiceRepo {
	return &fakeServiceRepo{services: map[int64]*domain.Service{}, nextID: 1}
}

func (f *fakeServiceRepo) CreateService(_ context.Context, service *domain.Service) error {
	service.ID = f.nextID
	service.CreatedAt = time.Now().UTC()
	f.nextID++
	clone := *service
	f.services[service.ID] = &clone
	return nil
}

func (f *fakeServiceRepo) GetServiceByID(_ context.Context, id int64) (*domain.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (f *fakeServiceRepo) ListServices(context.Context) ([]domain.Service, error) {
	f.listCalls++
	out := make([]domain.Service, 0, len(f.services))
	for _, s := range f.services {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeServiceRepo) UpdateService(_ context.Context, id int64, update domain.ServiceUpdate) (*domain.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Name != nil {
		s.Name = *update.Name
	}
	if update.Description != nil {
		s.Description = update.Description
	}
	if update.RepositoryURL != nil {
		s.RepositoryURL = update.RepositoryURL
	}
	clone := *s
	return &clone, nil
}

func (f *fakeServiceRepo) DeleteService(_ context.Context, id int64) error {
	if _, ok := f.services[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.services, id)
	return nil
}

func newTestService() (Service, *fakeServiceRepo, *fakeStore) {
	repo := newFakeServiceRepo()
	store := newFakeStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(repo, store, logger, time.Minute), repo, store
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc, repo, _ := newTestService()

	if _, err := svc.Create(context.Background(), CreateInput{Name: "   "}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	if len(repo.services) != 0 {
		t.Fatal("invalid input must not reach the repository")
	}
}

func TestCreateTrimsNameAndInvalidates(t *testing.T) {
	svc, _, store := newTestService()

	service, err := svc.Create(context.Background(), CreateInput{Name: "  wander-api  "})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if service.Name != "wander-api" {
		t.Fatalf("expected trimmed name, got %q", service.Name)
	}
	if service.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if len(store.deletedPatterns) != 1 || store.deletedPatterns[0] != "cache:services:*" {
		t.Fatalf("expected services namespace invalidation, got %v", store.deletedPatterns)
	}
}

func TestListCachesResults(t *testing.T) {
	svc, repo, _ := newTestService()
	if _, err := svc.Create(context.Background(), CreateInput{Name: "wander-api"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, cached, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if cached {
		t.Fatal("first list reported cached=true")
	}

	_, cached, err = svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if !cached {
		t.Fatal("second list reported cached=false")
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected one repository list, got %d", repo.listCalls)
	}
}

func TestWriteInvalidatesCachedList(t *testing.T) {
	svc, repo, _ := newTestService()
	if _, err := svc.Create(context.Background(), CreateInput{Name: "wander-api"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if _, err := svc.Create(context.Background(), CreateInput{Name: "wander-web"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	services, cached, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if cached {
		t.Fatal("list after a write must be a cache miss")
	}
	if len(services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(services))
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected 2 repository lists, got %d", repo.listCalls)
	}
}

func TestUpdateRejectsEmptyAndBlankName(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Update(context.Background(), 1, domain.ServiceUpdate{}); !errors.Is(err, ErrEmptyUpdate) {
		t.Fatalf("expected ErrEmptyUpdate, got %v", err)
	}

	blank := "   "
	if _, err := svc.Update(context.Background(), 1, domain.ServiceUpdate{Name: &blank}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
}

func TestUpdatePropagatesNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	name := "renamed"
	if _, err := svc.Update(context.Background(), 404, domain.ServiceUpdate{Name: &name}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected repository.ErrNotFound, got %v", err)
	}
}

func TestDeleteInvalidatesServicesAndDeployments(t *testing.T) {
	svc, _, store := newTestService()
	service, err := svc.Create(context.Background(), CreateInput{Name: "wander-api"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	store.deletedPatterns = nil

	if err := svc.Delete(context.Background(), service.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(store.deletedPatterns) != 2 {
		t.Fatalf("expected both namespaces invalidated, got %v", store.deletedPatterns)
	}
	if store.deletedPatterns[0] != "cache:services:*" || store.deletedPatterns[1] != "cache:deployments:*" {
		t.Fatalf("unexpected invalidation patterns: %v", store.deletedPatterns)
	}
}
