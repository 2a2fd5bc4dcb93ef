package catalog_test

import (
	"path/filepath"
	"testing"

	"codeberg.org/mutker/scadactl/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) catalog.Store {
	t.Helper()

	store, err := catalog.NewRepository(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func names(points []catalog.Point) []string {
	result := make([]string, len(points))
	for i, p := range points {
		result[i] = p.Name
	}
	return result
}

func TestSeedAndList(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Seed(catalog.DefaultPoints()))

	points, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"cv", "freq1", "freq2", "pt1", "pt2", "ft1"}, names(points))

	// Seeding is a no-op once the catalog has content.
	require.NoError(t, store.Seed([]catalog.Point{{Name: "other", XID: "DP_1"}}))
	points, err = store.List()
	require.NoError(t, err)
	assert.Len(t, points, 6)
}

func TestAddDuplicate(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Add(catalog.Point{Name: "pt1", XID: "DP_1", Unit: "bar"}))

	err := store.Add(catalog.Point{Name: "pt1", XID: "DP_2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pt1")
}

func TestUpdate(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Add(catalog.Point{Name: "pt1", XID: "DP_1"}))

	maxVal := 10.0
	require.NoError(t, store.Update(catalog.Point{
		Name:         "pt1",
		XID:          "DP_2",
		FriendlyName: "Pressure 1",
		Unit:         "bar",
		MaxVal:       &maxVal,
	}))

	point, err := store.Get("pt1")
	require.NoError(t, err)
	assert.Equal(t, "DP_2", point.XID)
	assert.Equal(t, "Pressure 1", point.FriendlyName)
	require.NotNil(t, point.MaxVal)
	assert.InDelta(t, 10.0, *point.MaxVal, 1e-9)
	assert.Nil(t, point.MinVal)

	err = store.Update(catalog.Point{Name: "missing"})
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Add(catalog.Point{Name: "pt1", XID: "DP_1"}))
	require.NoError(t, store.Delete("pt1"))

	_, err := store.Get("pt1")
	require.Error(t, err)

	require.Error(t, store.Delete("pt1"))
}

func TestReorderKeepsUnlistedPoints(t *testing.T) {
	store := newStore(t)

	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.Add(catalog.Point{Name: name, XID: "DP_" + name}))
	}

	require.NoError(t, store.Reorder([]string{"c", "a"}))

	points, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "d"}, names(points))

	require.Error(t, store.Reorder(nil))
}

func TestOrderSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	store, err := catalog.NewRepository(path)
	require.NoError(t, err)
	require.NoError(t, store.Add(catalog.Point{Name: "b", XID: "DP_b"}))
	require.NoError(t, store.Add(catalog.Point{Name: "a", XID: "DP_a"}))
	require.NoError(t, store.Reorder([]string{"a", "b"}))
	require.NoError(t, store.Close())

	store, err = catalog.NewRepository(path)
	require.NoError(t, err)
	defer store.Close()

	points, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(points))
}
