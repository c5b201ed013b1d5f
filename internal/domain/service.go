package domain

import "time"

// Service represents a deployable application tracked by the dashboard.
type Service struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	RepositoryURL *string   `json:"repository_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// ServiceUpdate captures a partial update; nil fields are left untouched.
type ServiceUpdate struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	RepositoryURL *string `json:"repository_url"`
}

// Empty reports whether the update would change nothing.
func (u ServiceUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.RepositoryURL == nil
}
