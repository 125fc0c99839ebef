package checklist

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

const allColumns = "id, workspace_id, project_id, title, items, created_at, updated_at, deleted_at"

// Repository handles checklist persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new checklist repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new checklist
func (r *Repository) Create(ctx context.Context, workspaceID, projectID string, req models.CreateChecklistRequest) (*models.Checklist, error) {
	ctx, span := tracing.StartSpan(ctx, "checklist.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	cl := &models.Checklist{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		ProjectID:   projectID,
		Title:       req.Title,
		Items:       models.ChecklistItems(req.Items),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("checklists")
	sb.Cols("id", "workspace_id", "project_id", "title", "items", "created_at", "updated_at")
	sb.Values(cl.ID, cl.WorkspaceID, cl.ProjectID, cl.Title, cl.Items, cl.CreatedAt, cl.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to create checklist", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to create checklist")
	}

	r.logger.Info("Created checklist",
		zap.String("id", cl.ID),
		zap.String("project_id", projectID))
	return cl, nil
}

// Get retrieves a checklist by ID
func (r *Repository) Get(ctx context.Context, workspaceID, id string) (*models.Checklist, error) {
	ctx, span := tracing.StartSpan(ctx, "checklist.Repository.Get")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM checklists WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL", allColumns)

	var cl models.Checklist
	if err := r.db.GetContext(ctx, &cl, query, id, workspaceID); err != nil {
		if database.IsNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("checklist %s not found", id))
		}
		r.logger.Error("Failed to get checklist", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to get checklist")
	}

	return &cl, nil
}

// ListByProject retrieves all checklists in a project
func (r *Repository) ListByProject(ctx context.Context, workspaceID, projectID string) ([]models.Checklist, error) {
	ctx, span := tracing.StartSpan(ctx, "checklist.Repository.ListByProject")
	defer span.End()

	query := fmt.Sprintf(`SELECT %s FROM checklists
		WHERE workspace_id = $1 AND project_id = $2 AND deleted_at IS NULL
		ORDER BY created_at DESC`, allColumns)

	var lists []models.Checklist
	if err := r.db.SelectContext(ctx, &lists, query, workspaceID, projectID); err != nil {
		r.logger.Error("Failed to list checklists", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to list checklists")
	}

	return lists, nil
}

// Update updates a checklist. Items replace the stored list wholesale.
func (r *Repository) Update(ctx context.Context, workspaceID, id string, req models.UpdateChecklistRequest) (*models.Checklist, error) {
	ctx, span := tracing.StartSpan(ctx, "checklist.Repository.Update")
	defer span.End()

	existing, err := r.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Items != nil {
		existing.Items = models.ChecklistItems(req.Items)
	}
	existing.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("checklists")
	sb.Set(
		sb.Assign("title", existing.Title),
		sb.Assign("items", existing.Items),
		sb.Assign("updated_at", existing.UpdatedAt),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to update checklist", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to update checklist")
	}

	return existing, nil
}

// Delete soft deletes a checklist
func (r *Repository) Delete(ctx context.Context, workspaceID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "checklist.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("checklists")
	sb.Set(sb.Assign("deleted_at", time.Now().UTC()))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("workspace_id", workspaceID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete checklist", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete checklist")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("checklist %s not found", id))
	}

	r.logger.Info("Deleted checklist", zap.String("id", id))
	return nil
}
