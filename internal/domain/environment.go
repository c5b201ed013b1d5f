package domain

import "time"

// Environment represents a deployment target such as dev/staging/prod.
// The name is not constrained to those values; ordering treats anything
// else as "other".
type Environment struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
