package testrun

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/laurelqa/laurel/internal/repositories/testrun"
	"github.com/laurelqa/laurel/pkg/appcontext"
	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

var validate = validator.New()

// Handler serves test run routes
type Handler struct {
	repo *testrun.Repository
}

// NewHandler creates a test run handler
func NewHandler(repo *testrun.Repository) *Handler {
	return &Handler{repo: repo}
}

// Register registers run routes on the project group and run group
func (h *Handler) Register(projects, runs *echo.Group) {
	projects.GET("/:projectId/runs", h.List)
	projects.POST("/:projectId/runs", h.Create)
	runs.GET("/:id", h.Get)
	runs.PUT("/:id", h.Update)
	runs.DELETE("/:id", h.Delete)
	runs.GET("/:id/results", h.ListResults)
	runs.POST("/:id/results", h.RecordResults)
}

// List returns a project's test runs, newest first
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "testrun_handler.List")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	runs, err := h.repo.ListByProject(ctx, workspaceID, c.Param("projectId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, runs)
}

// Create creates a new test run
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "testrun_handler.Create")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req models.CreateTestRunRequest
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

// Get returns a single test run
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "testrun_handler.Get")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	run, err := h.repo.Get(ctx, workspaceID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, run)
}

// Update updates a test run's metadata or status
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "testrun_handler.Update")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req models.UpdateTestRunRequest
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

// ListResults returns the case results recorded against a run
func (h *Handler) ListResults(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "testrun_handler.ListResults")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	if _, err := h.repo.Get(ctx, workspaceID, c.Param("id")); err != nil {
		return err
	}

	results, err := h.repo.ListResults(ctx, workspaceID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, results)
}

// RecordResults records a batch of case outcomes and returns the run with
// recomputed aggregates
func (h *Handler) RecordResults(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "testrun_handler.RecordResults")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req []models.RecordCaseResultRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one result is required")
	}
	for _, res := range req {
		if err := validate.Struct(res); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	run, err := h.repo.RecordResults(ctx, workspaceID, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, run)
}

// Delete soft deletes a test run
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "testrun_handler.Delete")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	if err := h.repo.Delete(ctx, workspaceID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
