package project

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

const allColumns = "id, workspace_id, name, description, status, created_at, updated_at, deleted_at"

// Repository handles project persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new project repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new project
func (r *Repository) Create(ctx context.Context, workspaceID string, req models.CreateProjectRequest) (*models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "project.Repository.Create")
	defer span.End()

	log := r.logger.With(
		zap.String("method", "Create"),
		zap.String("workspace_id", workspaceID),
		zap.String("name", req.Name),
	)

	now := time.Now().UTC()
	project := &models.Project{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ProjectStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("projects")
	sb.Cols("id", "workspace_id", "name", "description", "status", "created_at", "updated_at")
	sb.Values(project.ID, project.WorkspaceID, project.Name, project.Description, project.Status, project.CreatedAt, project.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("Failed to create project", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to create project")
	}

	log.Info("Created project", zap.String("id", project.ID))
	return project, nil
}

// Get retrieves a project by ID
func (r *Repository) Get(ctx context.Context, workspaceID, id string) (*models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "project.Repository.Get")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM projects WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL", allColumns)

	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id, workspaceID); err != nil {
		if database.IsNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("project %s not found", id))
		}
		r.logger.Error("Failed to get project", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to get project")
	}

	return &project, nil
}

// List retrieves projects for a workspace, newest first
func (r *Repository) List(ctx context.Context, workspaceID string, page, pageSize int) ([]models.Project, int, error) {
	ctx, span := tracing.StartSpan(ctx, "project.Repository.List")
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
	countSb.From("projects")
	countSb.Where(
		countSb.Equal("workspace_id", workspaceID),
		countSb.IsNull("deleted_at"),
	)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.Error("Failed to count projects", zap.Error(err))
		return nil, 0, echo.NewHTTPError(http.StatusInternalServerError, "failed to count projects")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(allColumns)
	sb.From("projects")
	sb.Where(
		sb.Equal("workspace_id", workspaceID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		r.logger.Error("Failed to list projects", zap.Error(err))
		return nil, 0, echo.NewHTTPError(http.StatusInternalServerError, "failed to list projects")
	}

	return projects, totalCount, nil
}

// Update updates a project
func (r *Repository) Update(ctx context.Context, workspaceID, id string, req models.UpdateProjectRequest) (*models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "project.Repository.Update")
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
	if req.Status != nil {
		existing.Status = *req.Status
	}
	existing.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("projects")
	sb.Set(
		sb.Assign("name", existing.Name),
		sb.Assign("description", existing.Description),
		sb.Assign("status", existing.Status),
		sb.Assign("updated_at", existing.UpdatedAt),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to update project", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to update project")
	}

	return existing, nil
}

// Delete soft deletes a project
func (r *Repository) Delete(ctx context.Context, workspaceID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "project.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("projects")
	sb.Set(sb.Assign("deleted_at", time.Now().UTC()))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete project")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("project %s not found", id))
	}

	r.logger.Info("Deleted project", zap.String("id", id))
	return nil
}
