package coverage

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/laurelqa/laurel/internal/repositories/feature"
	"github.com/laurelqa/laurel/internal/repositories/snapshot"
	"github.com/laurelqa/laurel/pkg/appcontext"
	"github.com/laurelqa/laurel/pkg/coverage"
	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

// UncoveredSource answers the uncovered-features query, typically backed by
// the graph projection. May be nil when the graph database is disabled.
type UncoveredSource interface {
	UncoveredFeatures(ctx context.Context, workspaceID, projectID string) ([]models.Gap, error)
}

// Handler serves the coverage read surface plus the auto-link and snapshot
// write operations.
type Handler struct {
	aggregator   *coverage.Aggregator
	linker       *coverage.Linker
	recorder     *coverage.Recorder
	features     *feature.Repository
	snapshots    *snapshot.Repository
	uncovered    UncoveredSource
	historyLimit int
	historyMax   int
}

// NewHandler creates a coverage handler. uncovered may be nil. Non-positive
// history limits fall back to the package defaults.
func NewHandler(
	aggregator *coverage.Aggregator,
	linker *coverage.Linker,
	recorder *coverage.Recorder,
	features *feature.Repository,
	snapshots *snapshot.Repository,
	uncovered UncoveredSource,
	historyLimit, historyMax int,
) *Handler {
	if historyLimit < 1 {
		historyLimit = coverage.DefaultHistoryLimit
	}
	if historyMax < 1 {
		historyMax = coverage.MaxHistoryLimit
	}
	return &Handler{
		aggregator:   aggregator,
		linker:       linker,
		recorder:     recorder,
		features:     features,
		snapshots:    snapshots,
		uncovered:    uncovered,
		historyLimit: historyLimit,
		historyMax:   historyMax,
	}
}

// Register registers the project-scoped coverage routes.
func (h *Handler) Register(projects *echo.Group) {
	projects.GET("/:projectId/coverage/statistics", h.Statistics)
	projects.GET("/:projectId/coverage/modules", h.Modules)
	projects.GET("/:projectId/coverage/gaps", h.Gaps)
	projects.GET("/:projectId/coverage/graph/uncovered", h.Uncovered)
	projects.POST("/:projectId/coverage/auto-link", h.AutoLinkAll)
	projects.POST("/:projectId/coverage/features/:featureId/auto-link", h.AutoLinkFeature)
	projects.GET("/:projectId/coverage/snapshots", h.ListSnapshots)
	projects.POST("/:projectId/coverage/snapshots", h.CreateSnapshot)
	projects.GET("/:projectId/coverage/history", h.History)
}

// Statistics returns the composite coverage summary for a project
func (h *Handler) Statistics(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "coverage_handler.Statistics")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	stats, err := h.aggregator.Statistics(ctx, workspaceID, c.Param("projectId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

// Modules returns the per-module coverage breakdown
func (h *Handler) Modules(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "coverage_handler.Modules")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	modules, err := h.aggregator.CoverageByModule(ctx, workspaceID, c.Param("projectId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, modules)
}

// Gaps returns the active features with zero linked test cases
func (h *Handler) Gaps(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "coverage_handler.Gaps")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	gaps, err := h.aggregator.Gaps(ctx, workspaceID, c.Param("projectId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, gaps)
}

// Uncovered answers the gap query from the graph projection
func (h *Handler) Uncovered(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "coverage_handler.Uncovered")
	defer span.End()

	if h.uncovered == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "graph database is not enabled")
	}

	workspaceID := appcontext.GetWorkspaceID(ctx)

	gaps, err := h.uncovered.UncoveredFeatures(ctx, workspaceID, c.Param("projectId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, gaps)
}

// AutoLinkAll runs the auto-link pass over every active feature in a project
func (h *Handler) AutoLinkAll(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "coverage_handler.AutoLinkAll")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	report, err := h.linker.AutoLinkAllFeatures(ctx, workspaceID, c.Param("projectId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, report)
}

// AutoLinkFeature runs the auto-link pass for one feature
func (h *Handler) AutoLinkFeature(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "coverage_handler.AutoLinkFeature")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	feat, err := h.features.Get(ctx, workspaceID, c.Param("featureId"))
	if err != nil {
		return err
	}
	if feat.ProjectID != c.Param("projectId") {
		return echo.NewHTTPError(http.StatusNotFound, "feature not found in project")
	}

	linked, err := h.linker.AutoLinkFeature(ctx, workspaceID, feat.ProjectID, *feat)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"feature_id":    feat.ID,
		"links_created": linked,
	})
}

// ListSnapshots returns recent raw snapshots, newest first
func (h *Handler) ListSnapshots(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "coverage_handler.ListSnapshots")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	snaps, err := h.snapshots.ListRecent(ctx, workspaceID, c.Param("projectId"), h.clampLimit(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, snaps)
}

// CreateSnapshot records a new immutable coverage snapshot
func (h *Handler) CreateSnapshot(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "coverage_handler.CreateSnapshot")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req models.CreateSnapshotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	snap, err := h.recorder.CreateSnapshot(ctx, workspaceID, c.Param("projectId"), req.Analysis)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, snap)
}

// History returns the compact trend projection, newest first
func (h *Handler) History(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "coverage_handler.History")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	points, err := h.recorder.History(ctx, workspaceID, c.Param("projectId"), h.clampLimit(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, points)
}

func (h *Handler) clampLimit(c echo.Context) int {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = h.historyLimit
	}
	if limit > h.historyMax {
		limit = h.historyMax
	}
	return limit
}
