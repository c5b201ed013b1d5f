package cache

import (
	"strconv"
	"strings"
)

// Key namespaces, one per entity type. Every key carries the "cache:" prefix
// so pattern invalidation can stay away from unrelated keys in the same
// Redis database.
const (
	prefix = "cache:"

	EntityServices     = "services"
	EntityEnvironments = "environments"
	EntityDeployments  = "deployments"

	// sentinelAll stands in for an absent filter so that filtered and
	// unfiltered list requests can never collide on a key.
	sentinelAll = "all"
)

// Filter normalizes a query filter value for key construction.
func Filter(value string) string {
	if value == "" {
		return sentinelAll
	}
	return value
}

// ListKey builds the cache key for a list query. Filter values must be passed
// in a fixed order by the caller; identical filter sets yield identical keys.
func ListKey(entity string, filters ...string) string {
	parts := make([]string, 0, len(filters)+2)
	parts = append(parts, prefix+entity, "list")
	parts = append(parts, filters...)
	return strings.Join(parts, ":")
}

// DetailKey builds the cache key for a single row.
func DetailKey(entity string, id int64) string {
	return prefix + entity + ":" + strconv.FormatInt(id, 10)
}

// Namespace returns the wildcard matching every key of an entity type,
// used for coarse invalidation after writes.
func Namespace(entity string) string {
	return prefix + entity + ":*"
}
