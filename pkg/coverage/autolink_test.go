package coverage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/laurelqa/laurel/pkg/models"
)

func newLinker(store *memoryStore, observers ...LinkObserver) *Linker {
	return NewLinker(zap.NewNop(), store, store, store, observers...)
}

func TestLinker_AutoLinkFeature(t *testing.T) {
	ctx := context.Background()

	t.Run("links only case-insensitive title matches", func(t *testing.T) {
		store := newMemoryStore()
		feature := store.addFeature("f1", testProject, "Login", true)
		store.addCase("c1", "s1", "Test user registration flow")
		store.addCase("c2", "s1", "Verify LOGIN form validation")

		created, err := newLinker(store).AutoLinkFeature(ctx, testWorkspace, testProject, feature)
		require.NoError(t, err)

		assert.Equal(t, 1, created)
		assert.Equal(t, []string{"c2"}, store.linkedCases("f1"))
	})

	t.Run("no matches means no writes", func(t *testing.T) {
		store := newMemoryStore()
		feature := store.addFeature("f1", testProject, "Billing", true)
		store.addCase("c1", "s1", "Dashboard widgets render")

		created, err := newLinker(store).AutoLinkFeature(ctx, testWorkspace, testProject, feature)
		require.NoError(t, err)

		assert.Equal(t, 0, created)
		assert.Equal(t, 0, store.linkCount())
	})

	t.Run("idempotent: second pass creates nothing", func(t *testing.T) {
		store := newMemoryStore()
		feature := store.addFeature("f1", testProject, "Login", true)
		store.addCase("c1", "s1", "Login smoke test")
		store.addCase("c2", "s1", "Login error banner")

		linker := newLinker(store)
		first, err := linker.AutoLinkFeature(ctx, testWorkspace, testProject, feature)
		require.NoError(t, err)
		assert.Equal(t, 2, first)

		before := store.linkedCases("f1")
		second, err := linker.AutoLinkFeature(ctx, testWorkspace, testProject, feature)
		require.NoError(t, err)
		assert.Equal(t, 0, second)
		assert.Equal(t, before, store.linkedCases("f1"))
	})

	t.Run("never removes a manual link that does not name-match", func(t *testing.T) {
		store := newMemoryStore()
		feature := store.addFeature("f1", testProject, "Login", true)
		store.addCase("c1", "s1", "Legacy session regression") // manually curated
		store.addCase("c2", "s1", "Login happy path")
		_, err := store.Attach(ctx, testWorkspace, "f1", "c1", models.FeatureLinkSourceManual)
		require.NoError(t, err)

		_, err = newLinker(store).AutoLinkFeature(ctx, testWorkspace, testProject, feature)
		require.NoError(t, err)

		assert.Equal(t, []string{"c1", "c2"}, store.linkedCases("f1"))
	})

	t.Run("blank feature name is skipped", func(t *testing.T) {
		store := newMemoryStore()
		feature := store.addFeature("f1", testProject, "   ", true)
		store.addCase("c1", "s1", "Anything")

		created, err := newLinker(store).AutoLinkFeature(ctx, testWorkspace, testProject, feature)
		require.NoError(t, err)

		assert.Equal(t, 0, created)
		assert.Equal(t, 0, store.linkCount())
	})
}

type recordingObserver struct {
	pairs [][2]string
}

func (r *recordingObserver) LinkCreated(ctx context.Context, workspaceID string, feature models.Feature, testCase models.TestCase) {
	r.pairs = append(r.pairs, [2]string{feature.ID, testCase.ID})
}

func TestLinker_AutoLinkAllFeatures(t *testing.T) {
	ctx := context.Background()

	t.Run("no cross-linking between features", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "Login", true)
		store.addFeature("f2", testProject, "Dashboard", true)
		store.addCase("c1", "s1", "Test login page loads")
		store.addCase("c2", "s1", "Test dashboard widgets")

		report, err := newLinker(store).AutoLinkAllFeatures(ctx, testWorkspace, testProject)
		require.NoError(t, err)

		assert.Equal(t, 2, report.FeaturesProcessed)
		assert.Equal(t, 2, report.LinksCreated)
		assert.Equal(t, []string{"c1"}, store.linkedCases("f1"))
		assert.Equal(t, []string{"c2"}, store.linkedCases("f2"))
	})

	t.Run("inactive features are not processed", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "Login", false)
		store.addCase("c1", "s1", "Login smoke test")

		report, err := newLinker(store).AutoLinkAllFeatures(ctx, testWorkspace, testProject)
		require.NoError(t, err)

		assert.Equal(t, 0, report.FeaturesProcessed)
		assert.Equal(t, 0, store.linkCount())
	})

	t.Run("observers fire once per new edge", func(t *testing.T) {
		store := newMemoryStore()
		store.addFeature("f1", testProject, "Login", true)
		store.addCase("c1", "s1", "Login smoke test")

		obs := &recordingObserver{}
		linker := newLinker(store, obs)

		_, err := linker.AutoLinkAllFeatures(ctx, testWorkspace, testProject)
		require.NoError(t, err)
		_, err = linker.AutoLinkAllFeatures(ctx, testWorkspace, testProject)
		require.NoError(t, err)

		// second pass created nothing, so no second notification
		assert.Equal(t, [][2]string{{"f1", "c1"}}, obs.pairs)
	})
}
