package testrun

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

const allColumns = "id, workspace_id, project_id, title, status, environment, total_cases, passed_count, failed_count, skipped_count, started_at, finished_at, created_at, updated_at, deleted_at"

const resultColumns = "id, workspace_id, run_id, test_case_id, status, duration_ms, error, recorded_at"

// Repository handles test run and case result persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new test run repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new test run in pending status
func (r *Repository) Create(ctx context.Context, workspaceID, projectID string, req models.CreateTestRunRequest) (*models.TestRun, error) {
	ctx, span := tracing.StartSpan(ctx, "testrun.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	run := &models.TestRun{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		ProjectID:   projectID,
		Title:       req.Title,
		Status:      models.TestRunStatusPending,
		Environment: req.Environment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("test_runs")
	sb.Cols("id", "workspace_id", "project_id", "title", "status", "environment", "total_cases", "passed_count", "failed_count", "skipped_count", "created_at", "updated_at")
	sb.Values(run.ID, run.WorkspaceID, run.ProjectID, run.Title, run.Status, run.Environment, 0, 0, 0, 0, run.CreatedAt, run.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to create test run", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to create test run")
	}

	r.logger.Info("Created test run",
		zap.String("id", run.ID),
		zap.String("project_id", projectID))
	return run, nil
}

// Get retrieves a test run by ID
func (r *Repository) Get(ctx context.Context, workspaceID, id string) (*models.TestRun, error) {
	ctx, span := tracing.StartSpan(ctx, "testrun.Repository.Get")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM test_runs WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL", allColumns)

	var run models.TestRun
	if err := r.db.GetContext(ctx, &run, query, id, workspaceID); err != nil {
		if database.IsNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("test run %s not found", id))
		}
		r.logger.Error("Failed to get test run", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to get test run")
	}

	return &run, nil
}

// ListByProject retrieves test runs for a project, newest first
func (r *Repository) ListByProject(ctx context.Context, workspaceID, projectID string) ([]models.TestRun, error) {
	ctx, span := tracing.StartSpan(ctx, "testrun.Repository.ListByProject")
	defer span.End()

	query := fmt.Sprintf(`SELECT %s FROM test_runs
		WHERE workspace_id = $1 AND project_id = $2 AND deleted_at IS NULL
		ORDER BY created_at DESC`, allColumns)

	var runs []models.TestRun
	if err := r.db.SelectContext(ctx, &runs, query, workspaceID, projectID); err != nil {
		r.logger.Error("Failed to list test runs", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to list test runs")
	}

	return runs, nil
}

// Update updates a test run's title, status, or environment. Moving into a
// running status stamps started_at; moving into a terminal status stamps
// finished_at.
func (r *Repository) Update(ctx context.Context, workspaceID, id string, req models.UpdateTestRunRequest) (*models.TestRun, error) {
	ctx, span := tracing.StartSpan(ctx, "testrun.Repository.Update")
	defer span.End()

	existing, err := r.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Environment != nil {
		existing.Environment = req.Environment
	}
	if req.Status != nil && *req.Status != existing.Status {
		existing.Status = *req.Status
		switch existing.Status {
		case models.TestRunStatusRunning:
			if existing.StartedAt == nil {
				existing.StartedAt = &now
			}
		case models.TestRunStatusPassed, models.TestRunStatusFailed, models.TestRunStatusAborted:
			if existing.FinishedAt == nil {
				existing.FinishedAt = &now
			}
		}
	}
	existing.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("test_runs")
	sb.Set(
		sb.Assign("title", existing.Title),
		sb.Assign("status", existing.Status),
		sb.Assign("environment", existing.Environment),
		sb.Assign("started_at", existing.StartedAt),
		sb.Assign("finished_at", existing.FinishedAt),
		sb.Assign("updated_at", existing.UpdatedAt),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to update test run", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to update test run")
	}

	return existing, nil
}

// RecordResults upserts case results for a run and recomputes the run's
// aggregate counts. A later result for the same case replaces the earlier one.
func (r *Repository) RecordResults(ctx context.Context, workspaceID, runID string, results []models.RecordCaseResultRequest) (*models.TestRun, error) {
	ctx, span := tracing.StartSpan(ctx, "testrun.Repository.RecordResults")
	defer span.End()

	run, err := r.Get(ctx, workspaceID, runID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, res := range results {
		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("case_results")
		sb.Cols("id", "workspace_id", "run_id", "test_case_id", "status", "duration_ms", "error", "recorded_at")
		sb.Values(uuid.New().String(), workspaceID, runID, res.TestCaseID, res.Status, res.DurationMS, res.Error, now)

		query, args := sb.Build()
		query += " ON CONFLICT (run_id, test_case_id) DO UPDATE SET status = EXCLUDED.status, duration_ms = EXCLUDED.duration_ms, error = EXCLUDED.error, recorded_at = EXCLUDED.recorded_at"

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			r.logger.Error("Failed to record case result",
				zap.Error(err),
				zap.String("run_id", runID),
				zap.String("test_case_id", res.TestCaseID))
			return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to record case result")
		}
	}

	return r.recomputeStats(ctx, run)
}

// recomputeStats recounts the run's results and writes the aggregates back.
func (r *Repository) recomputeStats(ctx context.Context, run *models.TestRun) (*models.TestRun, error) {
	query := `SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'passed') AS passed,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
			COUNT(*) FILTER (WHERE status IN ('skipped', 'blocked')) AS skipped
		FROM case_results WHERE run_id = $1 AND workspace_id = $2`

	var stats struct {
		Total   int `db:"total"`
		Passed  int `db:"passed"`
		Failed  int `db:"failed"`
		Skipped int `db:"skipped"`
	}
	if err := r.db.GetContext(ctx, &stats, query, run.ID, run.WorkspaceID); err != nil {
		r.logger.Error("Failed to recompute run stats", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to recompute run stats")
	}

	run.TotalCases = stats.Total
	run.PassedCount = stats.Passed
	run.FailedCount = stats.Failed
	run.SkippedCount = stats.Skipped
	run.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("test_runs")
	sb.Set(
		sb.Assign("total_cases", run.TotalCases),
		sb.Assign("passed_count", run.PassedCount),
		sb.Assign("failed_count", run.FailedCount),
		sb.Assign("skipped_count", run.SkippedCount),
		sb.Assign("updated_at", run.UpdatedAt),
	)
	sb.Where(
		sb.Equal("id", run.ID),
		sb.Equal("workspace_id", run.WorkspaceID),
	)

	updateQuery, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, updateQuery, args...); err != nil {
		r.logger.Error("Failed to persist run stats", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to persist run stats")
	}

	return run, nil
}

// ListResults returns all case results for a run
func (r *Repository) ListResults(ctx context.Context, workspaceID, runID string) ([]models.CaseResult, error) {
	ctx, span := tracing.StartSpan(ctx, "testrun.Repository.ListResults")
	defer span.End()

	query := fmt.Sprintf(`SELECT %s FROM case_results
		WHERE workspace_id = $1 AND run_id = $2
		ORDER BY recorded_at ASC`, resultColumns)

	var results []models.CaseResult
	if err := r.db.SelectContext(ctx, &results, query, workspaceID, runID); err != nil {
		r.logger.Error("Failed to list case results", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to list case results")
	}

	return results, nil
}

// Delete soft deletes a test run
func (r *Repository) Delete(ctx context.Context, workspaceID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "testrun.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("test_runs")
	sb.Set(sb.Assign("deleted_at", time.Now().UTC()))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete test run", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete test run")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("test run %s not found", id))
	}

	r.logger.Info("Deleted test run", zap.String("id", id))
	return nil
}
