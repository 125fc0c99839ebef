package testcase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/laurelqa/laurel/pkg/database"
	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

const allColumns = "id, workspace_id, suite_id, title, description, priority, severity, type, automation_status, preconditions, steps, expected_result, created_at, updated_at, deleted_at"

// prefixedColumns qualifies every column with the test_cases alias for joins.
const prefixedColumns = "tc.id, tc.workspace_id, tc.suite_id, tc.title, tc.description, tc.priority, tc.severity, tc.type, tc.automation_status, tc.preconditions, tc.steps, tc.expected_result, tc.created_at, tc.updated_at, tc.deleted_at"

// Repository handles test case persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new test case repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new test case in a suite
func (r *Repository) Create(ctx context.Context, workspaceID, suiteID string, req models.CreateTestCaseRequest) (*models.TestCase, error) {
	ctx, span := tracing.StartSpan(ctx, "testcase.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	tc := &models.TestCase{
		ID:               uuid.New().String(),
		WorkspaceID:      workspaceID,
		SuiteID:          suiteID,
		Title:            req.Title,
		Description:      req.Description,
		Priority:         req.Priority,
		Severity:         req.Severity,
		Type:             req.Type,
		AutomationStatus: req.AutomationStatus,
		Preconditions:    req.Preconditions,
		Steps:            req.Steps,
		ExpectedResult:   req.ExpectedResult,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if tc.Priority == "" {
		tc.Priority = models.FeaturePriorityMedium
	}
	if tc.Severity == "" {
		tc.Severity = models.TestCaseSeverityMajor
	}
	if tc.Type == "" {
		tc.Type = models.TestCaseTypeFunctional
	}
	if tc.AutomationStatus == "" {
		tc.AutomationStatus = models.AutomationStatusManual
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("test_cases")
	sb.Cols("id", "workspace_id", "suite_id", "title", "description", "priority", "severity", "type", "automation_status", "preconditions", "steps", "expected_result", "created_at", "updated_at")
	sb.Values(tc.ID, tc.WorkspaceID, tc.SuiteID, tc.Title, tc.Description, tc.Priority, tc.Severity, tc.Type, tc.AutomationStatus, tc.Preconditions, tc.Steps, tc.ExpectedResult, tc.CreatedAt, tc.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to create test case", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to create test case")
	}

	r.logger.Info("Created test case",
		zap.String("id", tc.ID),
		zap.String("suite_id", suiteID))
	return tc, nil
}

// Get retrieves a test case by ID
func (r *Repository) Get(ctx context.Context, workspaceID, id string) (*models.TestCase, error) {
	ctx, span := tracing.StartSpan(ctx, "testcase.Repository.Get")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM test_cases WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL", allColumns)

	var tc models.TestCase
	if err := r.db.GetContext(ctx, &tc, query, id, workspaceID); err != nil {
		if database.IsNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("test case %s not found", id))
		}
		r.logger.Error("Failed to get test case", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to get test case")
	}

	return &tc, nil
}

// ListBySuite retrieves all test cases in a suite
func (r *Repository) ListBySuite(ctx context.Context, workspaceID, suiteID string) ([]models.TestCase, error) {
	ctx, span := tracing.StartSpan(ctx, "testcase.Repository.ListBySuite")
	defer span.End()

	query := fmt.Sprintf(`SELECT %s FROM test_cases
		WHERE workspace_id = $1 AND suite_id = $2 AND deleted_at IS NULL
		ORDER BY title ASC`, allColumns)

	var cases []models.TestCase
	if err := r.db.SelectContext(ctx, &cases, query, workspaceID, suiteID); err != nil {
		r.logger.Error("Failed to list test cases", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to list test cases")
	}

	return cases, nil
}

// ListByProject retrieves every live test case in a project, resolved through
// the owning suites.
func (r *Repository) ListByProject(ctx context.Context, workspaceID, projectID string) ([]models.TestCase, error) {
	ctx, span := tracing.StartSpan(ctx, "testcase.Repository.ListByProject")
	defer span.End()

	query := fmt.Sprintf(`SELECT %s FROM test_cases tc
		JOIN test_suites ts ON ts.id = tc.suite_id
		WHERE tc.workspace_id = $1 AND ts.project_id = $2
			AND tc.deleted_at IS NULL AND ts.deleted_at IS NULL
		ORDER BY tc.title ASC`, prefixedColumns)

	var cases []models.TestCase
	if err := r.db.SelectContext(ctx, &cases, query, workspaceID, projectID); err != nil {
		r.logger.Error("Failed to list test cases by project", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to list test cases")
	}

	return cases, nil
}

// CountByProject counts every live test case in a project
func (r *Repository) CountByProject(ctx context.Context, workspaceID, projectID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "testcase.Repository.CountByProject")
	defer span.End()

	query := `SELECT COUNT(*) FROM test_cases tc
		JOIN test_suites ts ON ts.id = tc.suite_id
		WHERE tc.workspace_id = $1 AND ts.project_id = $2
			AND tc.deleted_at IS NULL AND ts.deleted_at IS NULL`

	var count int
	if err := r.db.GetContext(ctx, &count, query, workspaceID, projectID); err != nil {
		r.logger.Error("Failed to count test cases", zap.Error(err))
		return 0, echo.NewHTTPError(http.StatusInternalServerError, "failed to count test cases")
	}

	return count, nil
}

// Update updates a test case
func (r *Repository) Update(ctx context.Context, workspaceID, id string, req models.UpdateTestCaseRequest) (*models.TestCase, error) {
	ctx, span := tracing.StartSpan(ctx, "testcase.Repository.Update")
	defer span.End()

	existing, err := r.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Description != nil {
		existing.Description = req.Description
	}
	if req.Priority != nil {
		existing.Priority = *req.Priority
	}
	if req.Severity != nil {
		existing.Severity = *req.Severity
	}
	if req.Type != nil {
		existing.Type = *req.Type
	}
	if req.AutomationStatus != nil {
		existing.AutomationStatus = *req.AutomationStatus
	}
	if req.Preconditions != nil {
		existing.Preconditions = req.Preconditions
	}
	if req.Steps != nil {
		existing.Steps = req.Steps
	}
	if req.ExpectedResult != nil {
		existing.ExpectedResult = req.ExpectedResult
	}
	existing.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("test_cases")
	sb.Set(
		sb.Assign("title", existing.Title),
		sb.Assign("description", existing.Description),
		sb.Assign("priority", existing.Priority),
		sb.Assign("severity", existing.Severity),
		sb.Assign("type", existing.Type),
		sb.Assign("automation_status", existing.AutomationStatus),
		sb.Assign("preconditions", existing.Preconditions),
		sb.Assign("steps", existing.Steps),
		sb.Assign("expected_result", existing.ExpectedResult),
		sb.Assign("updated_at", existing.UpdatedAt),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to update test case", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to update test case")
	}

	return existing, nil
}

// MarkAutomated flips cases to automated status when a runner reports them.
// Missing or already automated cases are left untouched.
func (r *Repository) MarkAutomated(ctx context.Context, workspaceID string, caseIDs []string) error {
	ctx, span := tracing.StartSpan(ctx, "testcase.Repository.MarkAutomated")
	defer span.End()

	if len(caseIDs) == 0 {
		return nil
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("test_cases")
	sb.Set(
		sb.Assign("automation_status", models.AutomationStatusAutomated),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	ids := make([]interface{}, 0, len(caseIDs))
	for _, id := range caseIDs {
		ids = append(ids, id)
	}
	sb.Where(
		sb.Equal("workspace_id", workspaceID),
		sb.In("id", ids...),
		sb.NotEqual("automation_status", models.AutomationStatusAutomated),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to mark test cases automated", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to mark test cases automated")
	}

	return nil
}

// Delete soft deletes a test case and removes its feature links
func (r *Repository) Delete(ctx context.Context, workspaceID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "testcase.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("test_cases")
	sb.Set(sb.Assign("deleted_at", time.Now().UTC()))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete test case", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete test case")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("test case %s not found", id))
	}

	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM feature_links WHERE test_case_id = $1 AND workspace_id = $2", id, workspaceID); err != nil {
		r.logger.Error("Failed to remove links for deleted test case", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to remove test case links")
	}

	r.logger.Info("Deleted test case", zap.String("id", id))
	return nil
}
