package bugreport

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

const allColumns = "id, workspace_id, project_id, title, description, severity, status, test_case_id, created_at, updated_at, deleted_at"

// Repository handles bug report persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new bug report repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new bug report
func (r *Repository) Create(ctx context.Context, workspaceID, projectID string, req models.CreateBugReportRequest) (*models.BugReport, error) {
	ctx, span := tracing.StartSpan(ctx, "bugreport.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	bug := &models.BugReport{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		Status:      models.BugStatusOpen,
		TestCaseID:  req.TestCaseID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if bug.Severity == "" {
		bug.Severity = models.TestCaseSeverityMajor
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("bug_reports")
	sb.Cols("id", "workspace_id", "project_id", "title", "description", "severity", "status", "test_case_id", "created_at", "updated_at")
	sb.Values(bug.ID, bug.WorkspaceID, bug.ProjectID, bug.Title, bug.Description, bug.Severity, bug.Status, bug.TestCaseID, bug.CreatedAt, bug.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to create bug report", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to create bug report")
	}

	r.logger.Info("Created bug report",
		zap.String("id", bug.ID),
		zap.String("project_id", projectID))
	return bug, nil
}

// Get retrieves a bug report by ID
func (r *Repository) Get(ctx context.Context, workspaceID, id string) (*models.BugReport, error) {
	ctx, span := tracing.StartSpan(ctx, "bugreport.Repository.Get")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM bug_reports WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL", allColumns)

	var bug models.BugReport
	if err := r.db.GetContext(ctx, &bug, query, id, workspaceID); err != nil {
		if database.IsNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("bug report %s not found", id))
		}
		r.logger.Error("Failed to get bug report", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to get bug report")
	}

	return &bug, nil
}

// ListByProject retrieves bug reports for a project, optionally filtered by status
func (r *Repository) ListByProject(ctx context.Context, workspaceID, projectID string, status *string) ([]models.BugReport, error) {
	ctx, span := tracing.StartSpan(ctx, "bugreport.Repository.ListByProject")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(allColumns)
	sb.From("bug_reports")
	sb.Where(
		sb.Equal("workspace_id", workspaceID),
		sb.Equal("project_id", projectID),
		sb.IsNull("deleted_at"),
	)
	if status != nil {
		sb.Where(sb.Equal("status", *status))
	}
	sb.OrderBy("created_at").Desc()

	query, args := sb.Build()
	var bugs []models.BugReport
	if err := r.db.SelectContext(ctx, &bugs, query, args...); err != nil {
		r.logger.Error("Failed to list bug reports", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to list bug reports")
	}

	return bugs, nil
}

// Update updates a bug report
func (r *Repository) Update(ctx context.Context, workspaceID, id string, req models.UpdateBugReportRequest) (*models.BugReport, error) {
	ctx, span := tracing.StartSpan(ctx, "bugreport.Repository.Update")
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
	if req.Severity != nil {
		existing.Severity = *req.Severity
	}
	if req.Status != nil {
		existing.Status = *req.Status
	}
	if req.TestCaseID != nil {
		existing.TestCaseID = req.TestCaseID
	}
	existing.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("bug_reports")
	sb.Set(
		sb.Assign("title", existing.Title),
		sb.Assign("description", existing.Description),
		sb.Assign("severity", existing.Severity),
		sb.Assign("status", existing.Status),
		sb.Assign("test_case_id", existing.TestCaseID),
		sb.Assign("updated_at", existing.UpdatedAt),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to update bug report", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to update bug report")
	}

	return existing, nil
}

// Delete soft deletes a bug report
func (r *Repository) Delete(ctx context.Context, workspaceID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "bugreport.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("bug_reports")
	sb.Set(sb.Assign("deleted_at", time.Now().UTC()))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete bug report", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete bug report")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("bug report %s not found", id))
	}

	r.logger.Info("Deleted bug report", zap.String("id", id))
	return nil
}
