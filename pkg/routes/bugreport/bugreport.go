package bugreport

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/laurelqa/laurel/internal/repositories/bugreport"
	"github.com/laurelqa/laurel/pkg/appcontext"
	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

var validate = validator.New()

// Handler serves bug report routes
type Handler struct {
	repo *bugreport.Repository
}

// NewHandler creates a bug report handler
func NewHandler(repo *bugreport.Repository) *Handler {
	return &Handler{repo: repo}
}

// Register registers bug routes on the project group and bug group
func (h *Handler) Register(projects, bugs *echo.Group) {
	projects.GET("/:projectId/bugs", h.List)
	projects.POST("/:projectId/bugs", h.Create)
	bugs.GET("/:id", h.Get)
	bugs.PUT("/:id", h.Update)
	bugs.DELETE("/:id", h.Delete)
}

// List returns a project's bug reports. status= filters by status.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "bugreport_handler.List")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var status *string
	if raw := c.QueryParam("status"); raw != "" {
		status = &raw
	}

	bugs, err := h.repo.ListByProject(ctx, workspaceID, c.Param("projectId"), status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bugs)
}

// Create creates a new bug report
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "bugreport_handler.Create")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req models.CreateBugReportRequest
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

// Get returns a single bug report
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "bugreport_handler.Get")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	bug, err := h.repo.Get(ctx, workspaceID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bug)
}

// Update updates a bug report
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "bugreport_handler.Update")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req models.UpdateBugReportRequest
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

// Delete soft deletes a bug report
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "bugreport_handler.Delete")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	if err := h.repo.Delete(ctx, workspaceID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
