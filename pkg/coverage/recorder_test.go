package coverage

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/laurelqa/laurel/pkg/models"
)

func newRecorder(store *memoryStore, observers ...SnapshotObserver) *Recorder {
	return NewRecorder(zap.NewNop(), newAggregator(store), store, observers...)
}

func TestRecorder_CreateSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("captures computed statistics", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "Registration", true)
		store.addFeature("f2", testProject, "Dashboard", true)
		store.addCase("c1", "s1", "Registration happy path")
		_, err := store.Attach(ctx, testWorkspace, "f1", "c1", "manual")
		require.NoError(t, err)

		snap, err := newRecorder(store).CreateSnapshot(ctx, testWorkspace, testProject, nil)
		require.NoError(t, err)

		assert.Equal(t, 50, snap.OverallCoverage)
		assert.Equal(t, 2, snap.TotalFeatures)
		assert.Equal(t, 1, snap.CoveredFeatures)
		assert.Equal(t, 1, snap.TotalTestCases)
		assert.Equal(t, 1, snap.GapsCount)
		assert.NotEmpty(t, snap.ID)
		assert.JSONEq(t, "null", string(snap.Analysis))
	})

	t.Run("external payload overrides overall coverage", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "Login", true)

		payload := json.RawMessage(`{"overall_coverage": 72, "summary": "external analysis", "risks": ["untested checkout"]}`)
		snap, err := newRecorder(store).CreateSnapshot(ctx, testWorkspace, testProject, payload)
		require.NoError(t, err)

		assert.Equal(t, 72, snap.OverallCoverage)
		// computed fields still fill the rest
		assert.Equal(t, 1, snap.TotalFeatures)
		assert.JSONEq(t, string(payload), string(snap.Analysis))
	})

	t.Run("payload without overall_coverage falls back to computed", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "Login", true)
		store.addCase("c1", "s1", "Login smoke")
		_, err := store.Attach(ctx, testWorkspace, "f1", "c1", "manual")
		require.NoError(t, err)

		snap, err := newRecorder(store).CreateSnapshot(ctx, testWorkspace, testProject, json.RawMessage(`{"summary": "looks fine"}`))
		require.NoError(t, err)

		assert.Equal(t, 100, snap.OverallCoverage)
	})
}

type snapshotRecorderObserver struct {
	ids []string
}

func (s *snapshotRecorderObserver) SnapshotCreated(ctx context.Context, snapshot *models.CoverageSnapshot) {
	s.ids = append(s.ids, snapshot.ID)
}

func TestRecorder_ObserverNotified(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	obs := &snapshotRecorderObserver{}

	snap, err := newRecorder(store, obs).CreateSnapshot(ctx, testWorkspace, testProject, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{snap.ID}, obs.ids)
}

func TestRecorder_History(t *testing.T) {
	ctx := context.Background()

	t.Run("newest first with exact count", func(t *testing.T) {
		store := newMemoryStore()
		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		for i, pct := range []int{40, 55, 70} {
			require.NoError(t, store.Insert(ctx, &models.CoverageSnapshot{
				ID:              string(rune('a' + i)),
				WorkspaceID:     testWorkspace,
				ProjectID:       testProject,
				OverallCoverage: pct,
				TotalFeatures:   10,
				GapsCount:       10 - pct/10,
				CreatedAt:       base.AddDate(0, 0, i),
			}))
		}

		points, err := newRecorder(store).History(ctx, testWorkspace, testProject, 30)
		require.NoError(t, err)

		require.Len(t, points, 3)
		assert.Equal(t, "2026-08-03", points[0].Date)
		assert.Equal(t, 70, points[0].Coverage)
		assert.Equal(t, "2026-08-01", points[2].Date)
		assert.Equal(t, 40, points[2].Coverage)
	})

	t.Run("limit truncates and zero limit uses default", func(t *testing.T) {
		store := newMemoryStore()
		base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 40; i++ {
			require.NoError(t, store.Insert(ctx, &models.CoverageSnapshot{
				ID:          string(rune('A' + i)),
				WorkspaceID: testWorkspace,
				ProjectID:   testProject,
				CreatedAt:   base.Add(time.Duration(i) * time.Hour),
			}))
		}

		recorder := newRecorder(store)

		points, err := recorder.History(ctx, testWorkspace, testProject, 5)
		require.NoError(t, err)
		assert.Len(t, points, 5)

		points, err = recorder.History(ctx, testWorkspace, testProject, 0)
		require.NoError(t, err)
		assert.Len(t, points, DefaultHistoryLimit)

		points, err = recorder.History(ctx, testWorkspace, testProject, 500)
		require.NoError(t, err)
		assert.Len(t, points, 40)
	})

	t.Run("limits above MaxHistoryLimit are honored", func(t *testing.T) {
		store := newMemoryStore()
		base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < MaxHistoryLimit+20; i++ {
			require.NoError(t, store.Insert(ctx, &models.CoverageSnapshot{
				ID:          fmt.Sprintf("snap-%d", i),
				WorkspaceID: testWorkspace,
				ProjectID:   testProject,
				CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			}))
		}

		// the HTTP layer clamps to its configured maximum; the engine must
		// not re-cap below what the caller asked for
		points, err := newRecorder(store).History(ctx, testWorkspace, testProject, MaxHistoryLimit+10)
		require.NoError(t, err)
		assert.Len(t, points, MaxHistoryLimit+10)
	})
}
