package models

import "time"

// BugStatus constants
const (
	BugStatusOpen       = "open"
	BugStatusInProgress = "in-progress"
	BugStatusResolved   = "resolved"
	BugStatusClosed     = "closed"
)

// BugReport tracks a defect, optionally tied to the test case that caught it.
type BugReport struct {
	ID          string           `json:"id" db:"id"`
	WorkspaceID string           `json:"workspace_id" db:"workspace_id"`
	ProjectID   string           `json:"project_id" db:"project_id"`
	Title       string           `json:"title" db:"title" validate:"required"`
	Description *string          `json:"description,omitempty" db:"description"`
	Severity    TestCaseSeverity `json:"severity" db:"severity"`
	Status      string           `json:"status" db:"status"`
	TestCaseID  *string          `json:"test_case_id,omitempty" db:"test_case_id"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time       `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateBugReportRequest is the request body for creating a bug report
type CreateBugReportRequest struct {
	Title       string           `json:"title" validate:"required"`
	Description *string          `json:"description,omitempty"`
	Severity    TestCaseSeverity `json:"severity" validate:"omitempty,oneof=blocker critical major minor trivial"`
	TestCaseID  *string          `json:"test_case_id,omitempty"`
}

// UpdateBugReportRequest is the request body for updating a bug report
type UpdateBugReportRequest struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Severity    *TestCaseSeverity `json:"severity,omitempty" validate:"omitempty,oneof=blocker critical major minor trivial"`
	Status      *string           `json:"status,omitempty" validate:"omitempty,oneof=open in-progress resolved closed"`
	TestCaseID  *string           `json:"test_case_id,omitempty"`
}

// BugReportListResponse is the API response for listing bug reports
type BugReportListResponse struct {
	Items      []BugReport `json:"items"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}
