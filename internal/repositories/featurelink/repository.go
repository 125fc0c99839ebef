package featurelink

import (
	"context"
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

const allColumns = "id, workspace_id, feature_id, test_case_id, source, created_at"

// Repository handles feature/test-case link persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new feature link repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Attach inserts the (feature, test case) edge if it does not already exist.
// Inserting an existing pair is a no-op and keeps the stored source, so an
// auto-link run never overwrites a manual link. Reports whether a new edge was
// created.
func (r *Repository) Attach(ctx context.Context, workspaceID, featureID, testCaseID, source string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "featurelink.Repository.Attach")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("feature_links")
	sb.Cols("id", "workspace_id", "feature_id", "test_case_id", "source", "created_at")
	sb.Values(uuid.New().String(), workspaceID, featureID, testCaseID, source, time.Now().UTC())

	query, args := sb.Build()
	query += " ON CONFLICT (feature_id, test_case_id) DO NOTHING"

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to attach feature link",
			zap.Error(err),
			zap.String("feature_id", featureID),
			zap.String("test_case_id", testCaseID))
		return false, echo.NewHTTPError(http.StatusInternalServerError, "failed to attach feature link")
	}

	rows, _ := result.RowsAffected()
	created := rows > 0
	if created {
		r.logger.Debug("Attached feature link",
			zap.String("feature_id", featureID),
			zap.String("test_case_id", testCaseID),
			zap.String("source", source))
	}
	return created, nil
}

// Detach removes the (feature, test case) edge
func (r *Repository) Detach(ctx context.Context, workspaceID, featureID, testCaseID string) error {
	ctx, span := tracing.StartSpan(ctx, "featurelink.Repository.Detach")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("feature_links")
	sb.Where(
		sb.Equal("workspace_id", workspaceID),
		sb.Equal("feature_id", featureID),
		sb.Equal("test_case_id", testCaseID),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to detach feature link", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to detach feature link")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "feature link not found")
	}

	r.logger.Info("Detached feature link",
		zap.String("feature_id", featureID),
		zap.String("test_case_id", testCaseID))
	return nil
}

// ListByFeature returns all links for a feature
func (r *Repository) ListByFeature(ctx context.Context, workspaceID, featureID string) ([]models.FeatureLink, error) {
	ctx, span := tracing.StartSpan(ctx, "featurelink.Repository.ListByFeature")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(allColumns)
	sb.From("feature_links")
	sb.Where(
		sb.Equal("workspace_id", workspaceID),
		sb.Equal("feature_id", featureID),
	)
	sb.OrderBy("created_at").Asc()

	query, args := sb.Build()
	var links []models.FeatureLink
	if err := r.db.SelectContext(ctx, &links, query, args...); err != nil {
		r.logger.Error("Failed to list feature links", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to list feature links")
	}

	return links, nil
}

// CaseIDsByProject returns linked test case IDs keyed by feature ID for every
// feature in the project. Edges pointing at soft-deleted cases are excluded;
// features with no surviving links are absent from the map.
func (r *Repository) CaseIDsByProject(ctx context.Context, workspaceID, projectID string) (map[string][]string, error) {
	ctx, span := tracing.StartSpan(ctx, "featurelink.Repository.CaseIDsByProject")
	defer span.End()

	query := `SELECT fl.feature_id, fl.test_case_id FROM feature_links fl
		JOIN features f ON f.id = fl.feature_id
		JOIN test_cases tc ON tc.id = fl.test_case_id
		WHERE fl.workspace_id = $1 AND f.project_id = $2
			AND f.deleted_at IS NULL AND tc.deleted_at IS NULL
		ORDER BY fl.feature_id, fl.created_at`

	var rows []struct {
		FeatureID  string `db:"feature_id"`
		TestCaseID string `db:"test_case_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, workspaceID, projectID); err != nil {
		r.logger.Error("Failed to load project feature links", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load feature links")
	}

	out := make(map[string][]string, len(rows))
	for _, row := range rows {
		out[row.FeatureID] = append(out[row.FeatureID], row.TestCaseID)
	}
	return out, nil
}
