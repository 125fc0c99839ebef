package coverage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testWorkspace = "ws-1"
	testProject   = "proj-1"
)

func newAggregator(store *memoryStore) *Aggregator {
	return NewAggregator(zap.NewNop(), store, store, store)
}

func TestAggregator_OverallCoverage(t *testing.T) {
	ctx := context.Background()

	t.Run("zero active features returns 0", func(t *testing.T) {
		store := newMemoryStore()
		pct, err := newAggregator(store).OverallCoverage(ctx, testWorkspace, testProject)
		require.NoError(t, err)
		assert.Equal(t, 0, pct)
	})

	t.Run("inactive features are excluded", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "Login", false)
		pct, err := newAggregator(store).OverallCoverage(ctx, testWorkspace, testProject)
		require.NoError(t, err)
		assert.Equal(t, 0, pct)
	})

	t.Run("half covered rounds to 50", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "Registration", true)
		store.addFeature("f2", testProject, "Dashboard", true)
		store.addCase("c1", "s1", "Registration happy path")
		_, err := store.Attach(ctx, testWorkspace, "f1", "c1", "manual")
		require.NoError(t, err)

		pct, err := newAggregator(store).OverallCoverage(ctx, testWorkspace, testProject)
		require.NoError(t, err)
		assert.Equal(t, 50, pct)
	})

	t.Run("one of three rounds to 33", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "A", true)
		store.addFeature("f2", testProject, "B", true)
		store.addFeature("f3", testProject, "C", true)
		store.addCase("c1", "s1", "A test")
		_, err := store.Attach(ctx, testWorkspace, "f1", "c1", "manual")
		require.NoError(t, err)

		pct, err := newAggregator(store).OverallCoverage(ctx, testWorkspace, testProject)
		require.NoError(t, err)
		assert.Equal(t, 33, pct)
	})

	t.Run("two of three rounds to 67", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "A", true)
		store.addFeature("f2", testProject, "B", true)
		store.addFeature("f3", testProject, "C", true)
		store.addCase("c1", "s1", "A test")
		store.addCase("c2", "s1", "B test")
		for _, pair := range [][2]string{{"f1", "c1"}, {"f2", "c2"}} {
			_, err := store.Attach(ctx, testWorkspace, pair[0], pair[1], "manual")
			require.NoError(t, err)
		}

		pct, err := newAggregator(store).OverallCoverage(ctx, testWorkspace, testProject)
		require.NoError(t, err)
		assert.Equal(t, 67, pct)
	})
}

func TestAggregator_Gaps(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	desc := "checkout flow"
	f := store.addFeature("f1", testProject, "Checkout", true, "Payments")
	store.features[0].Description = &desc
	store.addFeature("f2", testProject, "Login", true)
	store.addFeature("f3", testProject, "Search", false) // inactive, never a gap
	store.addCase("c1", "s1", "Login smoke test")
	_, err := store.Attach(ctx, testWorkspace, "f2", "c1", "manual")
	require.NoError(t, err)

	gaps, err := newAggregator(store).Gaps(ctx, testWorkspace, testProject)
	require.NoError(t, err)

	require.Len(t, gaps, 1)
	assert.Equal(t, f.ID, gaps[0].ID)
	assert.Equal(t, "Checkout", gaps[0].Feature)
	require.NotNil(t, gaps[0].Module)
	assert.Equal(t, "Payments", *gaps[0].Module)
	assert.Equal(t, "medium", gaps[0].Priority)
	require.NotNil(t, gaps[0].Description)
	assert.Equal(t, desc, *gaps[0].Description)
}

func TestAggregator_Gaps_CoveredFeatureNeverAppears(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.addFeature("f1", testProject, "Login", true)
	store.addCase("c1", "s1", "Login test")
	_, err := store.Attach(ctx, testWorkspace, "f1", "c1", "manual")
	require.NoError(t, err)

	gaps, err := newAggregator(store).Gaps(ctx, testWorkspace, testProject)
	require.NoError(t, err)
	assert.Empty(t, gaps)
}

func TestAggregator_CoverageByModule(t *testing.T) {
	ctx := context.Background()

	t.Run("partitions active features exactly once", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "Login", true, "Auth")
		store.addFeature("f2", testProject, "Logout", true, "Auth")
		store.addFeature("f3", testProject, "Checkout", true, "Payments")
		store.addFeature("f4", testProject, "Search", true) // no module -> Uncategorized

		modules, err := newAggregator(store).CoverageByModule(ctx, testWorkspace, testProject)
		require.NoError(t, err)

		total := 0
		for _, m := range modules {
			total += m.TotalFeatures
		}
		assert.Equal(t, 4, total)

		names := make([]string, 0, len(modules))
		for _, m := range modules {
			names = append(names, m.Module)
		}
		assert.Equal(t, []string{"Auth", "Payments", "Uncategorized"}, names)
	})

	t.Run("per-module ratio and suite counts", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "Login", true, "Auth")
		store.addFeature("f2", testProject, "Logout", true, "Auth")
		// suite s1 holds 3 cases, only one of which is linked
		store.addCase("c1", "s1", "Login smoke")
		store.addCase("c2", "s1", "Password reset")
		store.addCase("c3", "s1", "Session expiry")
		_, err := store.Attach(ctx, testWorkspace, "f1", "c1", "manual")
		require.NoError(t, err)

		modules, err := newAggregator(store).CoverageByModule(ctx, testWorkspace, testProject)
		require.NoError(t, err)

		require.Len(t, modules, 1)
		auth := modules[0]
		assert.Equal(t, "Auth", auth.Module)
		assert.Equal(t, 2, auth.TotalFeatures)
		assert.Equal(t, 1, auth.CoveredFeatures)
		assert.Equal(t, 50, auth.CoveragePercentage)
		// the whole suite counts, not only the linked case
		assert.Equal(t, 3, auth.TestCasesCount)
	})

	t.Run("suite counted once per feature, not deduplicated across features", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "Login", true, "Auth")
		store.addFeature("f2", testProject, "Logout", true, "Auth")
		store.addCase("c1", "s1", "Login and logout round trip")
		store.addCase("c2", "s1", "Login error banner")
		for _, pair := range [][2]string{{"f1", "c1"}, {"f2", "c1"}} {
			_, err := store.Attach(ctx, testWorkspace, pair[0], pair[1], "manual")
			require.NoError(t, err)
		}

		modules, err := newAggregator(store).CoverageByModule(ctx, testWorkspace, testProject)
		require.NoError(t, err)

		require.Len(t, modules, 1)
		// suite s1 has 2 cases and is reached through both features: 2 + 2
		assert.Equal(t, 4, modules[0].TestCasesCount)
	})

	t.Run("multi-tagged feature lands in its first bucket only", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "SSO Login", true, "Auth", "Enterprise")
		store.addFeature("f2", testProject, "Search", true, "Discovery")

		modules, err := newAggregator(store).CoverageByModule(ctx, testWorkspace, testProject)
		require.NoError(t, err)

		total := 0
		names := make([]string, 0, len(modules))
		for _, m := range modules {
			total += m.TotalFeatures
			names = append(names, m.Module)
		}
		assert.Equal(t, 2, total)
		assert.Equal(t, []string{"Auth", "Discovery"}, names)
	})
}

func TestAggregator_Statistics(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.addFeature("f1", testProject, "Registration", true)
	store.addFeature("f2", testProject, "Dashboard", true)
	store.addCase("c1", "s1", "Registration happy path")
	_, err := store.Attach(ctx, testWorkspace, "f1", "c1", "manual")
	require.NoError(t, err)

	stats, err := newAggregator(store).Statistics(ctx, testWorkspace, testProject)
	require.NoError(t, err)

	assert.Equal(t, 50, stats.OverallCoverage)
	assert.Equal(t, 2, stats.TotalFeatures)
	assert.Equal(t, 1, stats.CoveredFeatures)
	assert.Equal(t, 1, stats.UncoveredFeatures)
	assert.Equal(t, 1, stats.TotalTestCases)
	assert.Equal(t, 1, stats.GapsCount)
}

func TestAggregator_Statistics_TotalTestCasesIsProjectWide(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.addFeature("f1", testProject, "Login", true)
	// no links at all; the total still counts every suite's cases
	store.addCase("c1", "s1", "Unrelated one")
	store.addCase("c2", "s2", "Unrelated two")

	stats, err := newAggregator(store).Statistics(ctx, testWorkspace, testProject)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.OverallCoverage)
	assert.Equal(t, 2, stats.TotalTestCases)
	assert.Equal(t, 1, stats.GapsCount)
}
