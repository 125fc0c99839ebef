package models

import "time"

// TestRunStatus constants
const (
	TestRunStatusPending = "pending"
	TestRunStatusRunning = "running"
	TestRunStatusPassed  = "passed"
	TestRunStatusFailed  = "failed"
	TestRunStatusAborted = "aborted"
)

// CaseResultStatus constants
const (
	CaseResultStatusPassed  = "passed"
	CaseResultStatusFailed  = "failed"
	CaseResultStatusSkipped = "skipped"
	CaseResultStatusBlocked = "blocked"
)

// TestRun is an execution of a set of test cases against an environment.
// Stats are recomputed whenever results are recorded.
type TestRun struct {
	ID          string     `json:"id" db:"id"`
	WorkspaceID string     `json:"workspace_id" db:"workspace_id"`
	ProjectID   string     `json:"project_id" db:"project_id"`
	Title       string     `json:"title" db:"title" validate:"required"`
	Status      string     `json:"status" db:"status"`
	Environment *string    `json:"environment,omitempty" db:"environment"`
	TotalCases  int        `json:"total_cases" db:"total_cases"`
	PassedCount int        `json:"passed_count" db:"passed_count"`
	FailedCount int        `json:"failed_count" db:"failed_count"`
	SkippedCount int       `json:"skipped_count" db:"skipped_count"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CaseResult is one test case outcome within a run
type CaseResult struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	RunID       string    `json:"run_id" db:"run_id"`
	TestCaseID  string    `json:"test_case_id" db:"test_case_id"`
	Status      string    `json:"status" db:"status"`
	DurationMS  int64     `json:"duration_ms" db:"duration_ms"`
	Error       *string   `json:"error,omitempty" db:"error"`
	RecordedAt  time.Time `json:"recorded_at" db:"recorded_at"`
}

// CreateTestRunRequest is the request body for creating a test run
type CreateTestRunRequest struct {
	Title       string  `json:"title" validate:"required"`
	Environment *string `json:"environment,omitempty"`
}

// UpdateTestRunRequest is the request body for updating a test run
type UpdateTestRunRequest struct {
	Title       *string `json:"title,omitempty"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=pending running passed failed aborted"`
	Environment *string `json:"environment,omitempty"`
}

// RecordCaseResultRequest is a single incoming case outcome
type RecordCaseResultRequest struct {
	TestCaseID string  `json:"test_case_id" validate:"required"`
	Status     string  `json:"status" validate:"required,oneof=passed failed skipped blocked"`
	DurationMS int64   `json:"duration_ms"`
	Error      *string `json:"error,omitempty"`
}

// TestRunListResponse is the API response for listing test runs
type TestRunListResponse struct {
	Items      []TestRun `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
}
