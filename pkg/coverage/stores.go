package coverage

import (
	"context"

	"github.com/laurelqa/laurel/pkg/models"
)

// The engine reads the project graph through these interfaces. Any
// implementation must enforce workspace scoping on returned entities and keep
// Attach idempotent: attaching an existing (feature, test case) pair is a
// no-op, and nothing here ever removes an edge.

// FeatureSource lists a project's features.
type FeatureSource interface {
	// ListActive returns the project's active features, name ascending.
	ListActive(ctx context.Context, workspaceID, projectID string) ([]models.Feature, error)
}

// TestCaseSource lists and counts a project's test cases across all suites.
type TestCaseSource interface {
	ListByProject(ctx context.Context, workspaceID, projectID string) ([]models.TestCase, error)
	CountByProject(ctx context.Context, workspaceID, projectID string) (int, error)
}

// LinkStore reads and writes feature/test-case association edges.
type LinkStore interface {
	// Attach inserts the edge if absent. Reports whether a new edge was created.
	Attach(ctx context.Context, workspaceID, featureID, testCaseID, source string) (bool, error)
	// CaseIDsByProject returns linked test case IDs keyed by feature ID for
	// every feature in the project. Features with no links may be absent.
	CaseIDsByProject(ctx context.Context, workspaceID, projectID string) (map[string][]string, error)
}

// SnapshotStore persists immutable coverage snapshots.
type SnapshotStore interface {
	Insert(ctx context.Context, snapshot *models.CoverageSnapshot) error
	// ListRecent returns up to limit snapshots, newest first.
	ListRecent(ctx context.Context, workspaceID, projectID string, limit int) ([]models.CoverageSnapshot, error)
}

// LinkObserver is notified when the auto-link engine creates a new edge.
type LinkObserver interface {
	LinkCreated(ctx context.Context, workspaceID string, feature models.Feature, testCase models.TestCase)
}

// SnapshotObserver is notified when a snapshot is recorded.
type SnapshotObserver interface {
	SnapshotCreated(ctx context.Context, snapshot *models.CoverageSnapshot)
}
