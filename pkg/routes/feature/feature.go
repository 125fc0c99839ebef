package feature

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/laurelqa/laurel/pkg/appcontext"
	"github.com/laurelqa/laurel/pkg/coverage"
	"github.com/laurelqa/laurel/pkg/models"
	"github.com/laurelqa/laurel/pkg/tracing"
)

var validate = validator.New()

// FeatureStore is the feature persistence surface the handler needs.
type FeatureStore interface {
	List(ctx context.Context, workspaceID, projectID string, activeOnly *bool, page, pageSize int) ([]models.Feature, int, error)
	Create(ctx context.Context, workspaceID, projectID string, req models.CreateFeatureRequest) (*models.Feature, error)
	Get(ctx context.Context, workspaceID, id string) (*models.Feature, error)
	Update(ctx context.Context, workspaceID, id string, req models.UpdateFeatureRequest) (*models.Feature, error)
	Delete(ctx context.Context, workspaceID, id string) error
}

// LinkStore is the feature/test-case edge surface the handler needs.
type LinkStore interface {
	ListByFeature(ctx context.Context, workspaceID, featureID string) ([]models.FeatureLink, error)
	Attach(ctx context.Context, workspaceID, featureID, testCaseID, source string) (bool, error)
	Detach(ctx context.Context, workspaceID, featureID, testCaseID string) error
}

// CaseGetter resolves a test case within a workspace.
type CaseGetter interface {
	Get(ctx context.Context, workspaceID, id string) (*models.TestCase, error)
}

// SuiteGetter resolves a test suite within a workspace.
type SuiteGetter interface {
	Get(ctx context.Context, workspaceID, id string) (*models.TestSuite, error)
}

// Handler serves feature routes, including the manual link edge endpoints.
type Handler struct {
	features  FeatureStore
	links     LinkStore
	cases     CaseGetter
	suites    SuiteGetter
	observers []coverage.LinkObserver
}

// NewHandler creates a feature handler
func NewHandler(features FeatureStore, links LinkStore, cases CaseGetter, suites SuiteGetter, observers ...coverage.LinkObserver) *Handler {
	return &Handler{
		features:  features,
		links:     links,
		cases:     cases,
		suites:    suites,
		observers: observers,
	}
}

// Register registers feature routes on the project group and link routes on
// the feature group.
func (h *Handler) Register(projects, features *echo.Group) {
	projects.GET("/:projectId/features", h.List)
	projects.POST("/:projectId/features", h.Create)
	projects.POST("/:projectId/features/quick", h.QuickCreate)
	features.GET("/:id", h.Get)
	features.PUT("/:id", h.Update)
	features.DELETE("/:id", h.Delete)
	features.POST("/:id/activate", h.Activate)
	features.POST("/:id/deactivate", h.Deactivate)
	features.GET("/:id/links", h.ListLinks)
	features.POST("/:id/links/:testCaseId", h.AttachLink)
	features.DELETE("/:id/links/:testCaseId", h.DetachLink)
}

// List returns a project's features. active=true|false filters by activation.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "feature_handler.List")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)
	projectID := c.Param("projectId")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var activeOnly *bool
	if raw := c.QueryParam("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "active must be true or false")
		}
		activeOnly = &parsed
	}

	items, totalCount, err := h.features.List(ctx, workspaceID, projectID, activeOnly, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.FeatureListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	})
}

// Create creates a new feature in a project
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "feature_handler.Create")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req models.CreateFeatureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.features.Create(ctx, workspaceID, c.Param("projectId"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, created)
}

// QuickCreate creates several features from a list of names, with default
// attributes. Blank names are rejected by validation.
func (h *Handler) QuickCreate(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "feature_handler.QuickCreate")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)
	projectID := c.Param("projectId")

	var req models.QuickCreateFeaturesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created := make([]models.Feature, 0, len(req.Names))
	for _, name := range req.Names {
		feat, err := h.features.Create(ctx, workspaceID, projectID, models.CreateFeatureRequest{Name: name})
		if err != nil {
			return err
		}
		created = append(created, *feat)
	}

	return c.JSON(http.StatusCreated, created)
}

// Get returns a single feature
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "feature_handler.Get")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	feat, err := h.features.Get(ctx, workspaceID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, feat)
}

// Update updates a feature
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "feature_handler.Update")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	var req models.UpdateFeatureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.features.Update(ctx, workspaceID, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updated)
}

// Activate marks a feature active so it counts toward coverage again
func (h *Handler) Activate(c echo.Context) error {
	return h.setActive(c, true, "feature_handler.Activate")
}

// Deactivate removes a feature from coverage computation without deleting it
// or its links
func (h *Handler) Deactivate(c echo.Context) error {
	return h.setActive(c, false, "feature_handler.Deactivate")
}

func (h *Handler) setActive(c echo.Context, active bool, spanName string) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, spanName)
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	updated, err := h.features.Update(ctx, workspaceID, c.Param("id"), models.UpdateFeatureRequest{
		IsActive: &active,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updated)
}

// Delete soft deletes a feature and removes its links
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "feature_handler.Delete")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	if err := h.features.Delete(ctx, workspaceID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// ListLinks returns a feature's link edges
func (h *Handler) ListLinks(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "feature_handler.ListLinks")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	if _, err := h.features.Get(ctx, workspaceID, c.Param("id")); err != nil {
		return err
	}

	links, err := h.links.ListByFeature(ctx, workspaceID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, links)
}

// AttachLink manually links a test case to a feature. Linking an already
// linked pair is a no-op; the response reports whether a new edge was created.
func (h *Handler) AttachLink(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "feature_handler.AttachLink")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)
	featureID := c.Param("id")
	testCaseID := c.Param("testCaseId")

	feat, err := h.features.Get(ctx, workspaceID, featureID)
	if err != nil {
		return err
	}
	tc, err := h.cases.Get(ctx, workspaceID, testCaseID)
	if err != nil {
		return err
	}

	// The case's project scope is transitive through its suite. A link
	// across projects would count toward the feature's coverage, so reject
	// it the same way a missing case is rejected.
	suite, err := h.suites.Get(ctx, workspaceID, tc.SuiteID)
	if err != nil {
		return err
	}
	if suite.ProjectID != feat.ProjectID {
		return echo.NewHTTPError(http.StatusNotFound, "test case not found in the feature's project")
	}

	created, err := h.links.Attach(ctx, workspaceID, featureID, testCaseID, models.FeatureLinkSourceManual)
	if err != nil {
		return err
	}

	if created {
		for _, obs := range h.observers {
			obs.LinkCreated(ctx, workspaceID, *feat, *tc)
		}
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, map[string]any{
		"feature_id":   featureID,
		"test_case_id": testCaseID,
		"created":      created,
	})
}

// DetachLink removes a feature/test-case link
func (h *Handler) DetachLink(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "feature_handler.DetachLink")
	defer span.End()

	workspaceID := appcontext.GetWorkspaceID(ctx)

	if err := h.links.Detach(ctx, workspaceID, c.Param("id"), c.Param("testCaseId")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
