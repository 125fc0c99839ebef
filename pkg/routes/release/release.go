package release

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/laurelqa/laurel/internal/repositories/release"
	"github.com/laurelqa/laurel/pkg/appcontext"
	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

var validate = validator.New()

// Handler serves release routes
type Handler struct {
	repo *release.Repository
}

// NewHandler creates a release handler
func NewHandler(repo *release.Repository) *Handler {
	return &Handler{repo: repo}
}

// Register registers release routes on the project group and release group
func (h *Handler) Register(projects, releases *echo.Group) {
	projects.GET("/:projectId/releases", h.List)
	projects.POST("/:projectId/releases", h.Create)
	releases.GET("/:id", h.Get)
	releases.PUT("/:id", h.Update)
	releases.DELETE("/:id", h.Delete)
}

// List returns a project's releases, newest first
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "release_handler.List")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	releases, err := h.repo.ListByProject(ctx, workspaceID, c.Param("projectId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, releases)
}

// Create creates a new release
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "release_handler.Create")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req models.CreateReleaseRequest
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

// Get returns a single release
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "release_handler.Get")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	rel, err := h.repo.Get(ctx, workspaceID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, rel)
}

// Update updates a release
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "release_handler.Update")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req models.UpdateReleaseRequest
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

// Delete soft deletes a release
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "release_handler.Delete")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	if err := h.repo.Delete(ctx, workspaceID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
