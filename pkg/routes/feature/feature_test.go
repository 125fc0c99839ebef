package feature

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurelqa/laurel/pkg/appcontext"
	"github.com/laurelqa/laurel/pkg/models"
)

type fakeBackend struct {
	features map[string]models.Feature
	cases    map[string]models.TestCase
	suites   map[string]models.TestSuite
	links    map[string]map[string]string // feature ID -> case ID -> source
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		features: make(map[string]models.Feature),
		cases:    make(map[string]models.TestCase),
		suites:   make(map[string]models.TestSuite),
		links:    make(map[string]map[string]string),
	}
}

func (b *fakeBackend) List(ctx context.Context, workspaceID, projectID string, activeOnly *bool, page, pageSize int) ([]models.Feature, int, error) {
	var out []models.Feature
	for _, f := range b.features {
		if f.ProjectID == projectID {
			out = append(out, f)
		}
	}
	return out, len(out), nil
}

func (b *fakeBackend) Create(ctx context.Context, workspaceID, projectID string, req models.CreateFeatureRequest) (*models.Feature, error) {
	f := models.Feature{ID: "f-" + req.Name, WorkspaceID: workspaceID, ProjectID: projectID, Name: req.Name, IsActive: true}
	b.features[f.ID] = f
	return &f, nil
}

func (b *fakeBackend) Get(ctx context.Context, workspaceID, id string) (*models.Feature, error) {
	f, ok := b.features[id]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "feature not found")
	}
	return &f, nil
}

func (b *fakeBackend) Update(ctx context.Context, workspaceID, id string, req models.UpdateFeatureRequest) (*models.Feature, error) {
	return b.Get(ctx, workspaceID, id)
}

func (b *fakeBackend) Delete(ctx context.Context, workspaceID, id string) error {
	delete(b.features, id)
	return nil
}

func (b *fakeBackend) ListByFeature(ctx context.Context, workspaceID, featureID string) ([]models.FeatureLink, error) {
	var out []models.FeatureLink
	for caseID, source := range b.links[featureID] {
		out = append(out, models.FeatureLink{FeatureID: featureID, TestCaseID: caseID, Source: source})
	}
	return out, nil
}

func (b *fakeBackend) Attach(ctx context.Context, workspaceID, featureID, testCaseID, source string) (bool, error) {
	if b.links[featureID] == nil {
		b.links[featureID] = make(map[string]string)
	}
	if _, exists := b.links[featureID][testCaseID]; exists {
		return false, nil
	}
	b.links[featureID][testCaseID] = source
	return true, nil
}

func (b *fakeBackend) Detach(ctx context.Context, workspaceID, featureID, testCaseID string) error {
	if _, exists := b.links[featureID][testCaseID]; !exists {
		return echo.NewHTTPError(http.StatusNotFound, "link not found")
	}
	delete(b.links[featureID], testCaseID)
	return nil
}

type caseStore fakeBackend

func (s *caseStore) Get(ctx context.Context, workspaceID, id string) (*models.TestCase, error) {
	tc, ok := s.cases[id]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "test case not found")
	}
	return &tc, nil
}

type suiteStore fakeBackend

func (s *suiteStore) Get(ctx context.Context, workspaceID, id string) (*models.TestSuite, error) {
	suite, ok := s.suites[id]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "test suite not found")
	}
	return &suite, nil
}

type recordingObserver struct {
	pairs [][2]string
}

func (o *recordingObserver) LinkCreated(ctx context.Context, workspaceID string, feature models.Feature, testCase models.TestCase) {
	o.pairs = append(o.pairs, [2]string{feature.ID, testCase.ID})
}

func newTestServer(backend *fakeBackend, obs *recordingObserver) *echo.Echo {
	e := echo.New()
	api := e.Group("/api/v1", appcontext.WorkspaceMiddleware())
	h := NewHandler(backend, backend, (*caseStore)(backend), (*suiteStore)(backend), obs)
	h.Register(api.Group("/projects"), api.Group("/features"))
	return e
}

func attach(e *echo.Echo, featureID, caseID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/features/"+featureID+"/links/"+caseID, nil)
	req.Header.Set(appcontext.WorkspaceHeader, "ws-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAttachLink(t *testing.T) {
	seed := func() *fakeBackend {
		b := newFakeBackend()
		b.features["f1"] = models.Feature{ID: "f1", WorkspaceID: "ws-1", ProjectID: "proj-1", Name: "Login", IsActive: true}
		b.suites["s1"] = models.TestSuite{ID: "s1", WorkspaceID: "ws-1", ProjectID: "proj-1", Name: "Auth suite"}
		b.suites["s2"] = models.TestSuite{ID: "s2", WorkspaceID: "ws-1", ProjectID: "proj-2", Name: "Other project suite"}
		b.cases["c1"] = models.TestCase{ID: "c1", WorkspaceID: "ws-1", SuiteID: "s1", Title: "Login smoke"}
		b.cases["c2"] = models.TestCase{ID: "c2", WorkspaceID: "ws-1", SuiteID: "s2", Title: "Billing export"}
		return b
	}

	t.Run("attach within the project creates a manual link", func(t *testing.T) {
		backend := seed()
		obs := &recordingObserver{}
		e := newTestServer(backend, obs)

		rec := attach(e, "f1", "c1")

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, models.FeatureLinkSourceManual, backend.links["f1"]["c1"])
		require.Len(t, obs.pairs, 1)
		assert.Equal(t, [2]string{"f1", "c1"}, obs.pairs[0])
	})

	t.Run("re-attach is a no-op and does not re-notify", func(t *testing.T) {
		backend := seed()
		obs := &recordingObserver{}
		e := newTestServer(backend, obs)

		require.Equal(t, http.StatusCreated, attach(e, "f1", "c1").Code)
		rec := attach(e, "f1", "c1")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"created":false`)
		assert.Len(t, obs.pairs, 1)
	})

	t.Run("case from another project is rejected", func(t *testing.T) {
		backend := seed()
		obs := &recordingObserver{}
		e := newTestServer(backend, obs)

		// c2 exists in the workspace but its suite belongs to proj-2
		rec := attach(e, "f1", "c2")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, backend.links["f1"])
		assert.Empty(t, obs.pairs)
	})

	t.Run("unknown case is rejected", func(t *testing.T) {
		backend := seed()
		e := newTestServer(backend, &recordingObserver{})

		rec := attach(e, "f1", "missing")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, backend.links["f1"])
	})
}
