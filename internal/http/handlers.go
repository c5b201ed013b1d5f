package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/0xAmaan/wander-zero-to-dev/internal/cache"
	"github.com/0xAmaan/wander-zero-to-dev/internal/domain"
	"github.com/0xAmaan/wander-zero-to-dev/internal/repository"
	"github.com/0xAmaan/wander-zero-to-dev/internal/service/deploy"
	"github.com/0xAmaan/wander-zero-to-dev/internal/service/docker"
	"github.com/0xAmaan/wander-zero-to-dev/internal/service/registry"
)

// pathID extracts the numeric id segment after prefix. The empty-remainder
// and nested-path cases both report false.
func pathID(path, prefix string) (int64, bool) {
	trimmed := strings.TrimPrefix(path, prefix)
	if trimmed == "" || strings.Contains(trimmed, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (r *Router) handleServices(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		services, cached, err := r.registry.List(req.Context())
		if err != nil {
			r.logger.Error("list services failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to fetch services")
			return
		}
		r.recordCacheResult(cache.EntityServices, cached)
		writeList(w, services, cached)
	case http.MethodPost:
		var input registry.CreateInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		service, err := r.registry.Create(req.Context(), input)
		if err != nil {
			switch {
			case errors.Is(err, registry.ErrNameRequired):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, repository.ErrInvalidArgument):
				writeError(w, http.StatusBadRequest, "service could not be created with the given fields")
			default:
				r.logger.Error("create service failed", "error", err)
				writeError(w, http.StatusInternalServerError, "failed to create service")
			}
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"data":    service,
			"message": "service created successfully",
		})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleServiceByID(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req.URL.Path, "/api/services/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid service ID")
		return
	}
	switch req.Method {
	case http.MethodPatch:
		var update domain.ServiceUpdate
		if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		service, err := r.registry.Update(req.Context(), id, update)
		if err != nil {
			switch {
			case errors.Is(err, registry.ErrEmptyUpdate), errors.Is(err, registry.ErrNameRequired):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, repository.ErrInvalidArgument):
				writeError(w, http.StatusBadRequest, "service could not be updated with the given fields")
			case errors.Is(err, repository.ErrNotFound):
				writeError(w, http.StatusNotFound, "service not found")
			default:
				r.logger.Error("update service failed", "service_id", id, "error", err)
				writeError(w, http.StatusInternalServerError, "failed to update service")
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data":    service,
			"message": "service updated successfully",
		})
	case http.MethodDelete:
		if err := r.registry.Delete(req.Context(), id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusNotFound, "service not found")
				return
			}
			r.logger.Error("delete service failed", "service_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete service")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "service deleted successfully"})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleEnvironments(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	environments, cached, err := r.environments.List(req.Context())
	if err != nil {
		r.logger.Error("list environments failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch environments")
		return
	}
	r.recordCacheResult(cache.EntityEnvironments, cached)
	writeList(w, environments, cached)
}

func (r *Router) handleDeployments(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		query := req.URL.Query()
		limit, _ := strconv.Atoi(query.Get("limit"))
		filter := domain.DeploymentFilter{
			Environment: query.Get("environment"),
			Status:      query.Get("status"),
			Limit:       limit,
		}
		deployments, cached, err := r.deployments.List(req.Context(), filter)
		if err != nil {
			r.logger.Error("list deployments failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to fetch deployments")
			return
		}
		r.recordCacheResult(cache.EntityDeployments, cached)
		writeList(w, deployments, cached)
	case http.MethodPost:
		var input deploy.CreateInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		deployment, err := r.deployments.Create(req.Context(), input)
		if err != nil {
			switch {
			case errors.Is(err, deploy.ErrMissingFields):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, repository.ErrInvalidArgument):
				writeError(w, http.StatusBadRequest, "deployment could not be created with the given fields")
			case errors.Is(err, repository.ErrNotFound):
				writeError(w, http.StatusNotFound, err.Error())
			default:
				r.logger.Error("create deployment failed", "error", err)
				writeError(w, http.StatusInternalServerError, "failed to create deployment")
			}
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"data":    deployment,
			"message": "deployment created successfully",
		})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleDeploymentByID(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req.URL.Path, "/api/deployments/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid deployment ID")
		return
	}
	switch req.Method {
	case http.MethodGet:
		deployment, cached, err := r.deployments.Get(req.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusNotFound, "deployment not found")
				return
			}
			r.logger.Error("get deployment failed", "deployment_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to fetch deployment")
			return
		}
		r.recordCacheResult(cache.EntityDeployments, cached)
		writeJSON(w, http.StatusOK, map[string]any{
			"data":   deployment,
			"cached": cached,
		})
	case http.MethodPatch:
		var update domain.DeploymentUpdate
		if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		deployment, err := r.deployments.Update(req.Context(), id, update)
		if err != nil {
			switch {
			case errors.Is(err, deploy.ErrEmptyUpdate):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, repository.ErrInvalidArgument):
				writeError(w, http.StatusBadRequest, "deployment could not be updated with the given fields")
			case errors.Is(err, repository.ErrNotFound):
				writeError(w, http.StatusNotFound, "deployment not found")
			default:
				r.logger.Error("update deployment failed", "deployment_id", id, "error", err)
				writeError(w, http.StatusInternalServerError, "failed to update deployment")
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data":    deployment,
			"message": "deployment updated successfully",
		})
	case http.MethodDelete:
		if err := r.deployments.Delete(req.Context(), id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusNotFound, "deployment not found")
				return
			}
			r.logger.Error("delete deployment failed", "deployment_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete deployment")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "deployment deleted successfully"})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleCacheClear(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodDelete {
		r.methodNotAllowed(w)
		return
	}
	pattern := req.URL.Query().Get("pattern")
	if pattern != "" {
		deleted, err := r.store.DeletePattern(req.Context(), pattern)
		if err != nil {
			r.logger.Error("cache pattern clear failed", "pattern", pattern, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to clear cache")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message":      "cache cleared for pattern: " + pattern,
			"deleted_keys": deleted,
		})
		return
	}
	if err := r.store.FlushAll(req.Context()); err != nil {
		r.logger.Error("cache flush failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "all cache cleared successfully",
		"success": true,
	})
}

func (r *Router) handleCacheStats(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ttl_seconds": int(r.cacheTTL / time.Second),
		"namespaces": []string{
			cache.Namespace(cache.EntityServices),
			cache.Namespace(cache.EntityEnvironments),
			cache.Namespace(cache.EntityDeployments),
		},
		"endpoints": map[string]string{
			"clear":         "DELETE /api/cache",
			"clear_pattern": "DELETE /api/cache?pattern=" + cache.Namespace(cache.EntityDeployments),
		},
	})
}

func (r *Router) handleDockerStatus(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	containers, err := r.docker.Status(req.Context())
	if err != nil {
		r.logger.Error("docker status failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":      "internal server error",
			"message":    "failed to fetch docker status",
			"containers": []docker.ContainerStatus{},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"containers": containers,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleDockerLogs(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	name := strings.TrimPrefix(req.URL.Path, "/api/docker/logs/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "container name required")
		return
	}
	lines, _ := strconv.Atoi(req.URL.Query().Get("lines"))
	logs, err := r.docker.Logs(req.Context(), name, lines)
	if err != nil {
		if errors.Is(err, docker.ErrInvalidName) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		r.logger.Error("docker logs failed", "container", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch container logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"container": name,
		"logs":      logs,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
