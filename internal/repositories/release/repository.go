package release

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

const allColumns = "id, workspace_id, project_id, version, name, status, release_date, created_at, updated_at, deleted_at"

// Repository handles release persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new release repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new release in planned status
func (r *Repository) Create(ctx context.Context, workspaceID, projectID string, req models.CreateReleaseRequest) (*models.Release, error) {
	ctx, span := tracing.StartSpan(ctx, "release.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	rel := &models.Release{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		ProjectID:   projectID,
		Version:     req.Version,
		Name:        req.Name,
		Status:      models.ReleaseStatusPlanned,
		ReleaseDate: req.ReleaseDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("releases")
	sb.Cols("id", "workspace_id", "project_id", "version", "name", "status", "release_date", "created_at", "updated_at")
	sb.Values(rel.ID, rel.WorkspaceID, rel.ProjectID, rel.Version, rel.Name, rel.Status, rel.ReleaseDate, rel.CreatedAt, rel.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to create release", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to create release")
	}

	r.logger.Info("Created release",
		zap.String("id", rel.ID),
		zap.String("version", rel.Version))
	return rel, nil
}

// Get retrieves a release by ID
func (r *Repository) Get(ctx context.Context, workspaceID, id string) (*models.Release, error) {
	ctx, span := tracing.StartSpan(ctx, "release.Repository.Get")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM releases WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL", allColumns)

	var rel models.Release
	if err := r.db.GetContext(ctx, &rel, query, id, workspaceID); err != nil {
		if database.IsNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("release %s not found", id))
		}
		r.logger.Error("Failed to get release", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to get release")
	}

	return &rel, nil
}

// ListByProject retrieves all releases in a project, newest first
func (r *Repository) ListByProject(ctx context.Context, workspaceID, projectID string) ([]models.Release, error) {
	ctx, span := tracing.StartSpan(ctx, "release.Repository.ListByProject")
	defer span.End()

	query := fmt.Sprintf(`SELECT %s FROM releases
		WHERE workspace_id = $1 AND project_id = $2 AND deleted_at IS NULL
		ORDER BY created_at DESC`, allColumns)

	var releases []models.Release
	if err := r.db.SelectContext(ctx, &releases, query, workspaceID, projectID); err != nil {
		r.logger.Error("Failed to list releases", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to list releases")
	}

	return releases, nil
}

// Update updates a release. Moving into released status without a release date
// stamps today.
func (r *Repository) Update(ctx context.Context, workspaceID, id string, req models.UpdateReleaseRequest) (*models.Release, error) {
	ctx, span := tracing.StartSpan(ctx, "release.Repository.Update")
	defer span.End()

	existing, err := r.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if req.Version != nil {
		existing.Version = *req.Version
	}
	if req.Name != nil {
		existing.Name = req.Name
	}
	if req.ReleaseDate != nil {
		existing.ReleaseDate = req.ReleaseDate
	}
	if req.Status != nil {
		existing.Status = *req.Status
		if existing.Status == models.ReleaseStatusReleased && existing.ReleaseDate == nil {
			existing.ReleaseDate = &now
		}
	}
	existing.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("releases")
	sb.Set(
		sb.Assign("version", existing.Version),
		sb.Assign("name", existing.Name),
		sb.Assign("status", existing.Status),
		sb.Assign("release_date", existing.ReleaseDate),
		sb.Assign("updated_at", existing.UpdatedAt),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to update release", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to update release")
	}

	return existing, nil
}

// Delete soft deletes a release
func (r *Repository) Delete(ctx context.Context, workspaceID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "release.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("releases")
	sb.Set(sb.Assign("deleted_at", time.Now().UTC()))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete release", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete release")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("release %s not found", id))
	}

	r.logger.Info("Deleted release", zap.String("id", id))
	return nil
}
