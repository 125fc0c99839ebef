package models

import "time"

// TestCaseSeverity defines the impact of a test case failing
type TestCaseSeverity string

const (
	TestCaseSeverityBlocker  TestCaseSeverity = "blocker"
	TestCaseSeverityCritical TestCaseSeverity = "critical"
	TestCaseSeverityMajor    TestCaseSeverity = "major"
	TestCaseSeverityMinor    TestCaseSeverity = "minor"
	TestCaseSeverityTrivial  TestCaseSeverity = "trivial"
)

// TestCaseType defines the kind of test
type TestCaseType string

const (
	TestCaseTypeFunctional  TestCaseType = "functional"
	TestCaseTypeRegression  TestCaseType = "regression"
	TestCaseTypeSmoke       TestCaseType = "smoke"
	TestCaseTypeIntegration TestCaseType = "integration"
	TestCaseTypeE2E         TestCaseType = "e2e"
	TestCaseTypeOther       TestCaseType = "other"
)

// AutomationStatus constants
const (
	AutomationStatusManual     = "manual"
	AutomationStatusAutomated  = "automated"
	AutomationStatusToAutomate = "to-automate"
)

// TestCase belongs to exactly one suite; the suite's project is what scopes
// the case into a project's coverage universe.
type TestCase struct {
	ID               string           `json:"id" db:"id"`
	WorkspaceID      string           `json:"workspace_id" db:"workspace_id"`
	SuiteID          string           `json:"suite_id" db:"suite_id"`
	Title            string           `json:"title" db:"title" validate:"required"`
	Description      *string          `json:"description,omitempty" db:"description"`
	Priority         FeaturePriority  `json:"priority" db:"priority"`
	Severity         TestCaseSeverity `json:"severity" db:"severity"`
	Type             TestCaseType     `json:"type" db:"type"`
	AutomationStatus string           `json:"automation_status" db:"automation_status"`
	Preconditions    *string          `json:"preconditions,omitempty" db:"preconditions"`
	Steps            *string          `json:"steps,omitempty" db:"steps"`
	ExpectedResult   *string          `json:"expected_result,omitempty" db:"expected_result"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
	DeletedAt        *time.Time       `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateTestCaseRequest is the request body for creating a test case
type CreateTestCaseRequest struct {
	Title            string           `json:"title" validate:"required"`
	Description      *string          `json:"description,omitempty"`
	Priority         FeaturePriority  `json:"priority" validate:"omitempty,oneof=critical high medium low"`
	Severity         TestCaseSeverity `json:"severity" validate:"omitempty,oneof=blocker critical major minor trivial"`
	Type             TestCaseType     `json:"type" validate:"omitempty,oneof=functional regression smoke integration e2e other"`
	AutomationStatus string           `json:"automation_status" validate:"omitempty,oneof=manual automated to-automate"`
	Preconditions    *string          `json:"preconditions,omitempty"`
	Steps            *string          `json:"steps,omitempty"`
	ExpectedResult   *string          `json:"expected_result,omitempty"`
}

// UpdateTestCaseRequest is the request body for updating a test case
type UpdateTestCaseRequest struct {
	Title            *string           `json:"title,omitempty"`
	Description      *string           `json:"description,omitempty"`
	Priority         *FeaturePriority  `json:"priority,omitempty" validate:"omitempty,oneof=critical high medium low"`
	Severity         *TestCaseSeverity `json:"severity,omitempty" validate:"omitempty,oneof=blocker critical major minor trivial"`
	Type             *TestCaseType     `json:"type,omitempty" validate:"omitempty,oneof=functional regression smoke integration e2e other"`
	AutomationStatus *string           `json:"automation_status,omitempty" validate:"omitempty,oneof=manual automated to-automate"`
	Preconditions    *string           `json:"preconditions,omitempty"`
	Steps            *string           `json:"steps,omitempty"`
	ExpectedResult   *string           `json:"expected_result,omitempty"`
}

// TestCaseListResponse is the API response for listing test cases
type TestCaseListResponse struct {
	Items      []TestCase `json:"items"`
	TotalCount int        `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}
