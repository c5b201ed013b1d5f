package domain

import (
	"encoding/json"
	"time"
)

// Deployment status values. Any string is accepted on update; membership in
// the terminal set is what fixes completed_at.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusRolledBack = "rolled_back"
)

// TerminalStatus reports whether status ends a deployment's lifecycle.
func TerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusRolledBack:
		return true
	}
	return false
}

// Deployment captures a single deployment attempt, joined with the names of
// the service and environment it belongs to for presentation.
type Deployment struct {
	ID            int64           `json:"id"`
	ServiceID     int64           `json:"service_id,omitempty"`
	EnvironmentID int64           `json:"environment_id,omitempty"`
	Version       string          `json:"version"`
	Status        string          `json:"status"`
	DeployedBy    string          `json:"deployed_by"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at"`
	ErrorMessage  *string         `json:"error_message"`
	Metadata      json.RawMessage `json:"metadata"`

	ServiceName        string  `json:"service_name,omitempty"`
	ServiceDescription *string `json:"service_description,omitempty"`
	RepositoryURL      *string `json:"repository_url,omitempty"`
	EnvironmentName    string  `json:"environment_name,omitempty"`
	EnvironmentDesc    *string `json:"environment_description,omitempty"`
}

// DeploymentUpdate captures a partial update; nil fields are left untouched.
// CompletedAt is derived from Status by the service layer, never accepted
// from callers.
type DeploymentUpdate struct {
	Version      *string         `json:"version"`
	Status       *string         `json:"status"`
	DeployedBy   *string         `json:"deployed_by"`
	ErrorMessage *string         `json:"error_message"`
	Metadata     json.RawMessage `json:"metadata"`

	CompletedAt *time.Time `json:"-"`
}

// Empty reports whether the update would change nothing.
func (u DeploymentUpdate) Empty() bool {
	return u.Version == nil && u.Status == nil && u.DeployedBy == nil &&
		u.ErrorMessage == nil && u.Metadata == nil
}

// DeploymentFilter narrows list queries.
type DeploymentFilter struct {
	Environment string
	Status      string
	Limit       int
}
