package testsuite

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

const allColumns = "id, workspace_id, project_id, name, description, position, created_at, updated_at, deleted_at"

// Repository handles test suite persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new test suite repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new test suite
func (r *Repository) Create(ctx context.Context, workspaceID, projectID string, req models.CreateTestSuiteRequest) (*models.TestSuite, error) {
	ctx, span := tracing.StartSpan(ctx, "testsuite.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	suite := &models.TestSuite{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		Position:    req.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("test_suites")
	sb.Cols("id", "workspace_id", "project_id", "name", "description", "position", "created_at", "updated_at")
	sb.Values(suite.ID, suite.WorkspaceID, suite.ProjectID, suite.Name, suite.Description, suite.Position, suite.CreatedAt, suite.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to create test suite", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to create test suite")
	}

	r.logger.Info("Created test suite",
		zap.String("id", suite.ID),
		zap.String("project_id", projectID))
	return suite, nil
}

// Get retrieves a test suite by ID
func (r *Repository) Get(ctx context.Context, workspaceID, id string) (*models.TestSuite, error) {
	ctx, span := tracing.StartSpan(ctx, "testsuite.Repository.Get")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM test_suites WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL", allColumns)

	var suite models.TestSuite
	if err := r.db.GetContext(ctx, &suite, query, id, workspaceID); err != nil {
		if database.IsNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("test suite %s not found", id))
		}
		r.logger.Error("Failed to get test suite", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to get test suite")
	}

	return &suite, nil
}

// ListByProject retrieves all test suites in a project, position then name order
func (r *Repository) ListByProject(ctx context.Context, workspaceID, projectID string) ([]models.TestSuite, error) {
	ctx, span := tracing.StartSpan(ctx, "testsuite.Repository.ListByProject")
	defer span.End()

	query := fmt.Sprintf(`SELECT %s FROM test_suites
		WHERE workspace_id = $1 AND project_id = $2 AND deleted_at IS NULL
		ORDER BY position ASC, name ASC`, allColumns)

	var suites []models.TestSuite
	if err := r.db.SelectContext(ctx, &suites, query, workspaceID, projectID); err != nil {
		r.logger.Error("Failed to list test suites", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to list test suites")
	}

	return suites, nil
}

// Update updates a test suite
func (r *Repository) Update(ctx context.Context, workspaceID, id string, req models.UpdateTestSuiteRequest) (*models.TestSuite, error) {
	ctx, span := tracing.StartSpan(ctx, "testsuite.Repository.Update")
	defer span.End()

	existing, err := r.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Description != nil {
		existing.Description = req.Description
	}
	if req.Position != nil {
		existing.Position = *req.Position
	}
	existing.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("test_suites")
	sb.Set(
		sb.Assign("name", existing.Name),
		sb.Assign("description", existing.Description),
		sb.Assign("position", existing.Position),
		sb.Assign("updated_at", existing.UpdatedAt),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to update test suite", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to update test suite")
	}

	return existing, nil
}

// Delete soft deletes a test suite
func (r *Repository) Delete(ctx context.Context, workspaceID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "testsuite.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("test_suites")
	sb.Set(sb.Assign("deleted_at", time.Now().UTC()))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete test suite", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete test suite")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("test suite %s not found", id))
	}

	r.logger.Info("Deleted test suite", zap.String("id", id))
	return nil
}
