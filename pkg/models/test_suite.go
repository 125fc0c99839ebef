package models

import "time"

// TestSuite groups test cases within a project.
type TestSuite struct {
	ID          string     `json:"id" db:"id"`
	WorkspaceID string     `json:"workspace_id" db:"workspace_id"`
	ProjectID   string     `json:"project_id" db:"project_id"`
	Name        string     `json:"name" db:"name" validate:"required"`
	Description *string    `json:"description,omitempty" db:"description"`
	Position    int        `json:"position" db:"position"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateTestSuiteRequest is the request body for creating a test suite
type CreateTestSuiteRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
	Position    int     `json:"position"`
}

// UpdateTestSuiteRequest is the request body for updating a test suite
type UpdateTestSuiteRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Position    *int    `json:"position,omitempty"`
}

// TestSuiteListResponse is the API response for listing test suites
type TestSuiteListResponse struct {
	Items      []TestSuite `json:"items"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}
