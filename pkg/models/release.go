package models

import "time"

// ReleaseStatus constants
const (
	ReleaseStatusPlanned    = "planned"
	ReleaseStatusInProgress = "in-progress"
	ReleaseStatusReleased   = "released"
)

// Release is a shippable version of a project.
type Release struct {
	ID          string     `json:"id" db:"id"`
	WorkspaceID string     `json:"workspace_id" db:"workspace_id"`
	ProjectID   string     `json:"project_id" db:"project_id"`
	Version     string     `json:"version" db:"version" validate:"required"`
	Name        *string    `json:"name,omitempty" db:"name"`
	Status      string     `json:"status" db:"status"`
	ReleaseDate *time.Time `json:"release_date,omitempty" db:"release_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateReleaseRequest is the request body for creating a release
type CreateReleaseRequest struct {
	Version     string     `json:"version" validate:"required"`
	Name        *string    `json:"name,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
}

// UpdateReleaseRequest is the request body for updating a release
type UpdateReleaseRequest struct {
	Version     *string    `json:"version,omitempty"`
	Name        *string    `json:"name,omitempty"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=planned in-progress released"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
}

// ReleaseListResponse is the API response for listing releases
type ReleaseListResponse struct {
	Items      []Release `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
}
