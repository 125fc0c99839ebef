package checklist

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/laurelqa/laurel/internal/repositories/checklist"
	"github.com/laurelqa/laurel/pkg/appcontext"
	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

var validate = validator.New()

// Handler serves checklist routes
type Handler struct {
	repo *checklist.Repository
}

// NewHandler creates a checklist handler
func NewHandler(repo *checklist.Repository) *Handler {
	return &Handler{repo: repo}
}

// Register registers checklist routes on the project group and checklist group
func (h *Handler) Register(projects, checklists *echo.Group) {
	projects.GET("/:projectId/checklists", h.List)
	projects.POST("/:projectId/checklists", h.Create)
	checklists.GET("/:id", h.Get)
	checklists.PUT("/:id", h.Update)
	checklists.DELETE("/:id", h.Delete)
}

// List returns a project's checklists
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "checklist_handler.List")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	lists, err := h.repo.ListByProject(ctx, workspaceID, c.Param("projectId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, lists)
}

// Create creates a new checklist
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "checklist_handler.Create")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req models.CreateChecklistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.repo.Create(ctx, workspaceID, c.Param("projectId"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, created)
}

// Get returns a single checklist
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "checklist_handler.Get")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	cl, err := h.repo.Get(ctx, workspaceID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cl)
}

// Update updates a checklist
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "checklist_handler.Update")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req models.UpdateChecklistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.repo.Update(ctx, workspaceID, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updated)
}

// Delete soft deletes a checklist
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "checklist_handler.Delete")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	if err := h.repo.Delete(ctx, workspaceID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
