package feature

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/laurelqa/laurel/pkg/database"
	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

const allColumns = "id, workspace_id, project_id, name, description, modules, category, priority, is_active, created_at, updated_at, deleted_at"

// Repository handles feature persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new feature repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new feature
func (r *Repository) Create(ctx context.Context, workspaceID, projectID string, req models.CreateFeatureRequest) (*models.Feature, error) {
	ctx, span := tracing.StartSpan(ctx, "feature.Repository.Create")
	defer span.End()

	log := r.logger.With(
		zap.String("method", "Create"),
		zap.String("workspace_id", workspaceID),
		zap.String("project_id", projectID),
		zap.String("name", req.Name),
	)

	now := time.Now().UTC()
	feature := &models.Feature{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		Modules:     req.Modules,
		Category:    req.Category,
		Priority:    req.Priority,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if feature.Priority == "" {
		feature.Priority = models.FeaturePriorityMedium
	}
	if req.IsActive != nil {
		feature.IsActive = *req.IsActive
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("features")
	sb.Cols("id", "workspace_id", "project_id", "name", "description", "modules", "category", "priority", "is_active", "created_at", "updated_at")
	sb.Values(feature.ID, feature.WorkspaceID, feature.ProjectID, feature.Name, feature.Description,
		pq.Array([]string(feature.Modules)), feature.Category, feature.Priority, feature.IsActive, feature.CreatedAt, feature.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("Failed to create feature", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to create feature")
	}

	log.Info("Created feature", zap.String("id", feature.ID))
	return feature, nil
}

// Get retrieves a feature by ID
func (r *Repository) Get(ctx context.Context, workspaceID, id string) (*models.Feature, error) {
	ctx, span := tracing.StartSpan(ctx, "feature.Repository.Get")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM features WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL", allColumns)

	var feature models.Feature
	if err := r.db.GetContext(ctx, &feature, query, id, workspaceID); err != nil {
		if database.IsNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("feature %s not found", id))
		}
		r.logger.Error("Failed to get feature", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to get feature")
	}

	return &feature, nil
}

// List retrieves features for a project with pagination. activeOnly filters to
// is_active features when set.
func (r *Repository) List(ctx context.Context, workspaceID, projectID string, activeOnly *bool, page, pageSize int) ([]models.Feature, int, error) {
	ctx, span := tracing.StartSpan(ctx, "feature.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("features")
	countWhere := []string{
		countSb.Equal("workspace_id", workspaceID),
		countSb.Equal("project_id", projectID),
		countSb.IsNull("deleted_at"),
	}
	if activeOnly != nil {
		countWhere = append(countWhere, countSb.Equal("is_active", *activeOnly))
	}
	countSb.Where(countWhere...)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.Error("Failed to count features", zap.Error(err))
		return nil, 0, echo.NewHTTPError(http.StatusInternalServerError, "failed to count features")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(allColumns)
	sb.From("features")
	where := []string{
		sb.Equal("workspace_id", workspaceID),
		sb.Equal("project_id", projectID),
		sb.IsNull("deleted_at"),
	}
	if activeOnly != nil {
		where = append(where, sb.Equal("is_active", *activeOnly))
	}
	sb.Where(where...)
	sb.OrderBy("name ASC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var features []models.Feature
	if err := r.db.SelectContext(ctx, &features, query, args...); err != nil {
		r.logger.Error("Failed to list features", zap.Error(err))
		return nil, 0, echo.NewHTTPError(http.StatusInternalServerError, "failed to list features")
	}

	return features, totalCount, nil
}

// ListActive returns all active features in a project, name ascending.
// Satisfies the coverage engine's FeatureSource.
func (r *Repository) ListActive(ctx context.Context, workspaceID, projectID string) ([]models.Feature, error) {
	ctx, span := tracing.StartSpan(ctx, "feature.Repository.ListActive")
	defer span.End()

	query := fmt.Sprintf(`SELECT %s FROM features
		WHERE workspace_id = $1 AND project_id = $2 AND is_active = TRUE AND deleted_at IS NULL
		ORDER BY name ASC`, allColumns)

	var features []models.Feature
	if err := r.db.SelectContext(ctx, &features, query, workspaceID, projectID); err != nil {
		r.logger.Error("Failed to list active features", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to list active features")
	}

	return features, nil
}

// Update updates a feature
func (r *Repository) Update(ctx context.Context, workspaceID, id string, req models.UpdateFeatureRequest) (*models.Feature, error) {
	ctx, span := tracing.StartSpan(ctx, "feature.Repository.Update")
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
	if req.Modules != nil {
		existing.Modules = req.Modules
	}
	if req.Category != nil {
		existing.Category = req.Category
	}
	if req.Priority != nil {
		existing.Priority = *req.Priority
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	existing.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("features")
	sb.Set(
		sb.Assign("name", existing.Name),
		sb.Assign("description", existing.Description),
		sb.Assign("modules", pq.Array([]string(existing.Modules))),
		sb.Assign("category", existing.Category),
		sb.Assign("priority", existing.Priority),
		sb.Assign("is_active", existing.IsActive),
		sb.Assign("updated_at", existing.UpdatedAt),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to update feature", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to update feature")
	}

	return existing, nil
}

// Delete soft deletes a feature and hard deletes its association edges, so a
// deleted feature never contributes stale links to coverage.
func (r *Repository) Delete(ctx context.Context, workspaceID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "feature.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("features")
	sb.Set(sb.Assign("deleted_at", time.Now().UTC()))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete feature", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete feature")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("feature %s not found", id))
	}

	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM feature_links WHERE feature_id = $1 AND workspace_id = $2", id, workspaceID); err != nil {
		r.logger.Error("Failed to cascade feature link removal", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to remove feature links")
	}

	r.logger.Info("Deleted feature", zap.String("id", id))
	return nil
}
