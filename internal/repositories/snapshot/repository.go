package snapshot

import (
	"context"
	"fmt"
	"net/http"

	"github.com/huandu/go-sqlbuilder"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/laurelqa/laurel/pkg/database"
	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

const allColumns = "id, workspace_id, project_id, overall_coverage, total_features, covered_features, total_test_cases, gaps_count, analysis, created_at"

// Repository handles coverage snapshot persistence. Snapshots are append-only;
// there is no update or delete path.
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new snapshot repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Insert stores a new snapshot
func (r *Repository) Insert(ctx context.Context, snapshot *models.CoverageSnapshot) error {
	ctx, span := tracing.StartSpan(ctx, "snapshot.Repository.Insert")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("coverage_snapshots")
	sb.Cols("id", "workspace_id", "project_id", "overall_coverage", "total_features", "covered_features", "total_test_cases", "gaps_count", "analysis", "created_at")
	sb.Values(snapshot.ID, snapshot.WorkspaceID, snapshot.ProjectID, snapshot.OverallCoverage, snapshot.TotalFeatures, snapshot.CoveredFeatures, snapshot.TotalTestCases, snapshot.GapsCount, []byte(snapshot.Analysis), snapshot.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to insert coverage snapshot", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to insert coverage snapshot")
	}

	r.logger.Info("Recorded coverage snapshot",
		zap.String("id", snapshot.ID),
		zap.String("project_id", snapshot.ProjectID),
		zap.Int("overall_coverage", snapshot.OverallCoverage))
	return nil
}

// Get retrieves a snapshot by ID
func (r *Repository) Get(ctx context.Context, workspaceID, id string) (*models.CoverageSnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "snapshot.Repository.Get")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM coverage_snapshots WHERE id = $1 AND workspace_id = $2", allColumns)

	var snap models.CoverageSnapshot
	if err := r.db.GetContext(ctx, &snap, query, id, workspaceID); err != nil {
		if database.IsNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("snapshot %s not found", id))
		}
		r.logger.Error("Failed to get coverage snapshot", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to get coverage snapshot")
	}

	return &snap, nil
}

// ListRecent returns up to limit snapshots for a project, newest first
func (r *Repository) ListRecent(ctx context.Context, workspaceID, projectID string, limit int) ([]models.CoverageSnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "snapshot.Repository.ListRecent")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(allColumns)
	sb.From("coverage_snapshots")
	sb.Where(
		sb.Equal("workspace_id", workspaceID),
		sb.Equal("project_id", projectID),
	)
	sb.OrderBy("created_at").Desc()
	sb.Limit(limit)

	query, args := sb.Build()
	var snaps []models.CoverageSnapshot
	if err := r.db.SelectContext(ctx, &snaps, query, args...); err != nil {
		r.logger.Error("Failed to list coverage snapshots", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to list coverage snapshots")
	}

	return snaps, nil
}
