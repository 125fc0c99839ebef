package testcase

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/laurelqa/laurel/internal/repositories/testcase"
	"github.com/laurelqa/laurel/pkg/appcontext"
	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

var validate = validator.New()

// Handler serves test case routes
type Handler struct {
	repo *testcase.Repository
}

// NewHandler creates a test case handler
func NewHandler(repo *testcase.Repository) *Handler {
	return &Handler{repo: repo}
}

// Register registers case routes on the suite, project, and case groups
func (h *Handler) Register(projects, suites, cases *echo.Group) {
	suites.GET("/:suiteId/cases", h.ListBySuite)
	suites.POST("/:suiteId/cases", h.Create)
	projects.GET("/:projectId/cases", h.ListByProject)
	cases.GET("/:id", h.Get)
	cases.PUT("/:id", h.Update)
	cases.DELETE("/:id", h.Delete)
}

// ListBySuite returns a suite's test cases
func (h *Handler) ListBySuite(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "testcase_handler.ListBySuite")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	cases, err := h.repo.ListBySuite(ctx, workspaceID, c.Param("suiteId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cases)
}

// ListByProject returns every test case in a project across all suites
func (h *Handler) ListByProject(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "testcase_handler.ListByProject")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	cases, err := h.repo.ListByProject(ctx, workspaceID, c.Param("projectId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cases)
}

// Create creates a new test case in a suite
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "testcase_handler.Create")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req models.CreateTestCaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.repo.Create(ctx, workspaceID, c.Param("suiteId"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, created)
}

// Get returns a single test case
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "testcase_handler.Get")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	tc, err := h.repo.Get(ctx, workspaceID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tc)
}

// Update updates a test case
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "testcase_handler.Update")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req models.UpdateTestCaseRequest
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

// Delete soft deletes a test case and removes its feature links
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "testcase_handler.Delete")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	if err := h.repo.Delete(ctx, workspaceID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
