package coverage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/laurelqa/laurel/pkg/models"
)

// memoryStore is an in-memory project graph implementing FeatureSource,
// TestCaseSource, LinkStore, and SnapshotStore with the same contracts the
// repositories enforce: workspace scoping, idempotent attach, no removal.
type memoryStore struct {
	mu        sync.Mutex
	features  []models.Feature
	cases     []models.TestCase
	links     map[string]map[string]string // featureID -> caseID -> source
	snapshots []models.CoverageSnapshot
}

func newMemoryStore() *memoryStore {
	return &memoryStore{links: make(map[string]map[string]string)}
}

func (m *memoryStore) addFeature(id, projectID, name string, active bool, modules ...string) models.Feature {
	f := models.Feature{
		ID:          id,
		WorkspaceID: "ws-1",
		ProjectID:   projectID,
		Name:        name,
		Modules:     modules,
		Priority:    models.FeaturePriorityMedium,
		IsActive:    active,
	}
	m.features = append(m.features, f)
	return f
}

func (m *memoryStore) addCase(id, suiteID, title string) models.TestCase {
	tc := models.TestCase{
		ID:          id,
		WorkspaceID: "ws-1",
		SuiteID:     suiteID,
		Title:       title,
	}
	m.cases = append(m.cases, tc)
	return tc
}

func (m *memoryStore) ListActive(ctx context.Context, workspaceID, projectID string) ([]models.Feature, error) {
	var out []models.Feature
	for _, f := range m.features {
		if f.WorkspaceID == workspaceID && f.ProjectID == projectID && f.IsActive {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) ListByProject(ctx context.Context, workspaceID, projectID string) ([]models.TestCase, error) {
	var out []models.TestCase
	for _, tc := range m.cases {
		if tc.WorkspaceID == workspaceID {
			out = append(out, tc)
		}
	}
	return out, nil
}

func (m *memoryStore) CountByProject(ctx context.Context, workspaceID, projectID string) (int, error) {
	cases, _ := m.ListByProject(ctx, workspaceID, projectID)
	return len(cases), nil
}

func (m *memoryStore) Attach(ctx context.Context, workspaceID, featureID, testCaseID, source string) (bool, error) {
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

func (m *memoryStore) CaseIDsByProject(ctx context.Context, workspaceID, projectID string) (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]string, len(m.links))
	for featureID, cases := range m.links {
		ids := make([]string, 0, len(cases))
		for caseID := range cases {
			ids = append(ids, caseID)
		}
		sort.Strings(ids)
		out[featureID] = ids
	}
	return out, nil
}

func (m *memoryStore) Insert(ctx context.Context, snapshot *models.CoverageSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.snapshots {
		if existing.ID == snapshot.ID {
			return fmt.Errorf("snapshot %s already exists", snapshot.ID)
		}
	}
	m.snapshots = append(m.snapshots, *snapshot)
	return nil
}

func (m *memoryStore) ListRecent(ctx context.Context, workspaceID, projectID string, limit int) ([]models.CoverageSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CoverageSnapshot
	for _, s := range m.snapshots {
		if s.WorkspaceID == workspaceID && s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// linkCount returns the total number of edges in the store.
func (m *memoryStore) linkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, cases := range m.links {
		n += len(cases)
	}
	return n
}

// linkedCases returns the sorted case IDs linked to a feature.
func (m *memoryStore) linkedCases(featureID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.links[featureID]))
	for caseID := range m.links[featureID] {
		ids = append(ids, caseID)
	}
	sort.Strings(ids)
	return ids
}
