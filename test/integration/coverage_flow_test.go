package integration

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/laurelqa/laurel/pkg/coverage"
	"github.com/laurelqa/laurel/pkg/models"
)

// memoryBackend implements the coverage engine's store interfaces in memory
// so the full link/aggregate/snapshot flow runs without Postgres.
type memoryBackend struct {
	mu        sync.Mutex
	features  []models.Feature
	cases     []models.TestCase
	links     map[string]map[string]string // feature -> case -> source
	snapshots []models.CoverageSnapshot
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{links: make(map[string]map[string]string)}
}

func (m *memoryBackend) addFeature(name string, modules []string, active bool) models.Feature {
	f := models.Feature{
		ID:          uuid.New().String(),
		WorkspaceID: "ws-1",
		ProjectID:   "proj-1",
		Name:        name,
		Modules:     modules,
		Priority:    models.FeaturePriorityMedium,
		IsActive:    active,
	}
	m.mu.Lock()
	m.features = append(m.features, f)
	m.mu.Unlock()
	return f
}

func (m *memoryBackend) addCase(suiteID, title string) models.TestCase {
	tc := models.TestCase{
		ID:          uuid.New().String(),
		WorkspaceID: "ws-1",
		SuiteID:     suiteID,
		Title:       title,
	}
	m.mu.Lock()
	m.cases = append(m.cases, tc)
	m.mu.Unlock()
	return tc
}

func (m *memoryBackend) ListActive(ctx context.Context, workspaceID, projectID string) ([]models.Feature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Feature
	for _, f := range m.features {
		if f.IsActive {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryBackend) ListByProject(ctx context.Context, workspaceID, projectID string) ([]models.TestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TestCase(nil), m.cases...), nil
}

func (m *memoryBackend) CountByProject(ctx context.Context, workspaceID, projectID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cases), nil
}

func (m *memoryBackend) Attach(ctx context.Context, workspaceID, featureID, testCaseID, source string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links[featureID] == nil {
		m.links[featureID] = make(map[string]string)
	}
	if _, exists := m.links[featureID][testCaseID]; exists {
		return false, nil
	}
	m.links[featureID][testCaseID] = source
	return true, nil
}

func (m *memoryBackend) CaseIDsByProject(ctx context.Context, workspaceID, projectID string) (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]string)
	for featureID, caseIDs := range m.links {
		for caseID := range caseIDs {
			out[featureID] = append(out[featureID], caseID)
		}
	}
	return out, nil
}

func (m *memoryBackend) Insert(ctx context.Context, snapshot *models.CoverageSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, *snapshot)
	return nil
}

func (m *memoryBackend) ListRecent(ctx context.Context, workspaceID, projectID string, limit int) ([]models.CoverageSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.CoverageSnapshot(nil), m.snapshots...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TestCoverageFlow walks the whole engine: seed a project, run the auto-link
// pass, inspect the module breakdown and gaps, then record a snapshot and
// read the trend history.
func TestCoverageFlow(t *testing.T) {
	ctx := context.Background()
	backend := newMemoryBackend()
	logger := zap.NewNop()

	// Two modules plus an untagged feature; "Search" stays uncovered.
	login := backend.addFeature("Login", []string{"Auth"}, true)
	signup := backend.addFeature("Signup", []string{"Auth"}, true)
	backend.addFeature("Search", []string{"Discovery"}, true)
	export := backend.addFeature("Export", nil, true)
	backend.addFeature("Legacy Import", []string{"Discovery"}, false)

	backend.addCase("suite-1", "Login with valid credentials")
	backend.addCase("suite-1", "login rejects bad password")
	backend.addCase("suite-1", "Signup happy path")
	backend.addCase("suite-2", "Export to CSV")
	backend.addCase("suite-2", "Unrelated smoke check")

	aggregator := coverage.NewAggregator(logger, backend, backend, backend)
	linker := coverage.NewLinker(logger, backend, backend, backend)
	recorder := coverage.NewRecorder(logger, aggregator, backend)

	report, err := linker.AutoLinkAllFeatures(ctx, "ws-1", "proj-1")
	require.NoError(t, err)
	assert.Equal(t, 4, report.FeaturesProcessed)
	assert.Equal(t, 4, report.LinksCreated)
	assert.Equal(t, 2, report.ByFeature[login.ID])
	assert.Equal(t, 1, report.ByFeature[signup.ID])
	assert.Equal(t, 1, report.ByFeature[export.ID])

	// Second pass is a no-op
	report, err = linker.AutoLinkAllFeatures(ctx, "ws-1", "proj-1")
	require.NoError(t, err)
	assert.Equal(t, 0, report.LinksCreated)

	stats, err := aggregator.Statistics(ctx, "ws-1", "proj-1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalFeatures)
	assert.Equal(t, 3, stats.CoveredFeatures)
	assert.Equal(t, 1, stats.UncoveredFeatures)
	assert.Equal(t, 75, stats.OverallCoverage)
	assert.Equal(t, 5, stats.TotalTestCases)
	assert.Equal(t, 1, stats.GapsCount)

	modules, err := aggregator.CoverageByModule(ctx, "ws-1", "proj-1")
	require.NoError(t, err)
	byName := make(map[string]models.ModuleCoverage)
	for _, m := range modules {
		byName[m.Module] = m
	}
	require.Len(t, byName, 3)
	assert.Equal(t, 2, byName["Auth"].TotalFeatures)
	assert.Equal(t, 2, byName["Auth"].CoveredFeatures)
	assert.Equal(t, 100, byName["Auth"].CoveragePercentage)
	assert.Equal(t, 0, byName["Discovery"].CoveredFeatures)
	assert.Equal(t, 0, byName["Discovery"].CoveragePercentage)
	assert.Equal(t, 1, byName[models.ModuleUncategorized].TotalFeatures)
	assert.Equal(t, 100, byName[models.ModuleUncategorized].CoveragePercentage)

	gaps, err := aggregator.Gaps(ctx, "ws-1", "proj-1")
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, "Search", gaps[0].Feature)
	require.NotNil(t, gaps[0].Module)
	assert.Equal(t, "Discovery", *gaps[0].Module)

	analysis := json.RawMessage(`{"summary":"auth is solid","risks":["search untested"]}`)
	snap, err := recorder.CreateSnapshot(ctx, "ws-1", "proj-1", analysis)
	require.NoError(t, err)
	assert.Equal(t, 75, snap.OverallCoverage)
	assert.Equal(t, 1, snap.GapsCount)

	history, err := recorder.History(ctx, "ws-1", "proj-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 75, history[0].Coverage)
	assert.Equal(t, 4, history[0].Features)
	assert.Equal(t, 1, history[0].Gaps)
}

// TestCoverageFlow_ManualLinkSurvivesAutoPass verifies the auto-link pass
// never rewrites a manually created edge.
func TestCoverageFlow_ManualLinkSurvivesAutoPass(t *testing.T) {
	ctx := context.Background()
	backend := newMemoryBackend()
	logger := zap.NewNop()

	feature := backend.addFeature("Checkout", nil, true)
	tc := backend.addCase("suite-1", "Checkout with saved card")

	created, err := backend.Attach(ctx, "ws-1", feature.ID, tc.ID, models.FeatureLinkSourceManual)
	require.NoError(t, err)
	require.True(t, created)

	linker := coverage.NewLinker(logger, backend, backend, backend)
	report, err := linker.AutoLinkAllFeatures(ctx, "ws-1", "proj-1")
	require.NoError(t, err)
	assert.Equal(t, 0, report.LinksCreated)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, models.FeatureLinkSourceManual, backend.links[feature.ID][tc.ID])
}
