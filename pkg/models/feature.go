package models

import (
	"time"

	"github.com/lib/pq"
)

// FeaturePriority defines how important a feature is to cover
type FeaturePriority string

const (
	FeaturePriorityCritical FeaturePriority = "critical"
	FeaturePriorityHigh     FeaturePriority = "high"
	FeaturePriorityMedium   FeaturePriority = "medium"
	FeaturePriorityLow      FeaturePriority = "low"
)

// Feature is a product capability tracked for test coverage. A feature is
// "covered" iff at least one test case is linked to it. Inactive features are
// excluded from all coverage computation.
type Feature struct {
	ID          string          `json:"id" db:"id"`
	WorkspaceID string          `json:"workspace_id" db:"workspace_id"`
	ProjectID   string          `json:"project_id" db:"project_id"`
	Name        string          `json:"name" db:"name" validate:"required"`
	Description *string         `json:"description,omitempty" db:"description"`
	Modules     pq.StringArray  `json:"modules" db:"modules"`
	Category    *string         `json:"category,omitempty" db:"category"`
	Priority    FeaturePriority `json:"priority" db:"priority"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateFeatureRequest is the request body for creating a feature
type CreateFeatureRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description *string         `json:"description,omitempty"`
	Modules     []string        `json:"modules,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Priority    FeaturePriority `json:"priority" validate:"omitempty,oneof=critical high medium low"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

// QuickCreateFeaturesRequest creates several features from names alone.
// Everything else takes defaults (medium priority, active, no tags).
type QuickCreateFeaturesRequest struct {
	Names []string `json:"names" validate:"required,min=1,dive,required"`
}

// UpdateFeatureRequest is the request body for updating a feature
type UpdateFeatureRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Modules     []string         `json:"modules,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Priority    *FeaturePriority `json:"priority,omitempty" validate:"omitempty,oneof=critical high medium low"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

// FeatureListResponse is the API response for listing features
type FeatureListResponse struct {
	Items      []Feature `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
}

// FeatureLinkSource records how a feature/test-case edge was created
const (
	FeatureLinkSourceManual = "manual"
	FeatureLinkSourceAuto   = "auto"
)

// FeatureLink is the feature/test-case association edge. Unique per
// (feature_id, test_case_id); attaching an existing pair is a no-op.
type FeatureLink struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	FeatureID   string    `json:"feature_id" db:"feature_id"`
	TestCaseID  string    `json:"test_case_id" db:"test_case_id"`
	Source      string    `json:"source" db:"source"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
