package store_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-viewer/internal/layer"
	"github.com/joeblew999/plat-viewer/internal/render"
	"github.com/joeblew999/plat-viewer/internal/store"
	"github.com/joeblew999/plat-viewer/internal/testutil"
)

func groupNames(s *store.Store) []string {
	var out []string
	for _, g := range s.Groups() {
		out = append(out, g.Name())
	}
	return out
}

func visibleBackgrounds(s *store.Store) []string {
	var out []string
	for _, l := range s.Backgrounds() {
		if l.Visible() {
			out = append(out, l.Name())
		}
	}
	return out
}

func requireZDecreasing(t *testing.T, s *store.Store) {
	t.Helper()
	var top []*layer.Layer
	for _, g := range s.Groups() {
		top = append(top, g.Layers()...)
	}
	top = append(top, s.Backgrounds()...)
	for i := 1; i < len(top); i++ {
		require.Greater(t, top[i-1].ZIndex(), top[i].ZIndex(), "%s above %s", top[i-1].Name(), top[i].Name())
	}
	if len(top) > 0 {
		require.Equal(t, 0, top[len(top)-1].ZIndex())
	}
}

func TestInitializeFallsBackToFirstBackground(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())

	require.True(t, s.Initialized())
	require.NotNil(t, s.ActiveBackground())
	assert.Equal(t, "osm", s.ActiveBackground().Name())
	assert.Equal(t, []string{"osm"}, visibleBackgrounds(s))
}

func TestInitializePrefersVisibleBackground(t *testing.T) {
	def := testutil.LayersDef()
	def.BackgroundLayer[1] = testutil.Visible(def.BackgroundLayer[1])
	def.BackgroundLayer[2] = testutil.Visible(def.BackgroundLayer[2])

	s, _ := testutil.Store(t, def)
	assert.Equal(t, "ortho", s.ActiveBackground().Name())
	assert.Equal(t, []string{"ortho"}, visibleBackgrounds(s))
}

func TestInitializeWithoutBackgrounds(t *testing.T) {
	def := testutil.LayersDef()
	def.BackgroundLayer = nil

	s, _ := testutil.Store(t, def)
	assert.Nil(t, s.ActiveBackground())
	assert.Empty(t, s.GetVisibleLayerNames())
}

func TestInitializeAttachesAndOrders(t *testing.T) {
	s, engine := testutil.Store(t, testutil.LayersDef())

	assert.Equal(t, 9, engine.Len())
	requireZDecreasing(t, s)

	roads, _ := s.GetLayerByName("roads")
	assert.Equal(t, 8, roads.ZIndex())
	osm, _ := s.GetLayerByName("osm")
	assert.Equal(t, 2, osm.ZIndex())

	list := engine.Layers()
	assert.Equal(t, "roads", list[0].Name)
	assert.Equal(t, "grey", list[len(list)-1].Name)
}

func TestReinitializeDetachesPrevious(t *testing.T) {
	s, engine := testutil.Store(t, testutil.LayersDef())
	old := s.GetAllLayers()

	bgs, groups := layer.NewFactory().InitializeLayers(testutil.LayersDef())
	s.Initialize(bgs, groups)

	assert.Equal(t, 9, engine.Len())
	for _, l := range old {
		assert.False(t, engine.Attached(l.Handle()), l.Name())
	}
}

func TestSetActiveBackgroundExclusive(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())
	names := []string{"osm", "ortho", "grey"}
	rng := rand.New(rand.NewPCG(3, 4))

	for range 100 {
		name := names[rng.IntN(len(names))]
		s.SetActiveBackgroundByName(name)
		require.Equal(t, []string{name}, visibleBackgrounds(s))
		require.Equal(t, name, s.ActiveBackground().Name())
	}
}

func TestSetActiveBackgroundRejectsOthers(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())

	s.SetActiveBackgroundByName("roads")
	s.SetActiveBackgroundByName("missing")
	s.SetActiveBackground(nil)

	foreign := layer.NewFactory().CreateLayer(testutil.WMS("foreign"))
	s.SetActiveBackground(foreign)

	assert.Equal(t, "osm", s.ActiveBackground().Name())
	assert.Equal(t, []string{"osm"}, visibleBackgrounds(s))
}

func TestOverlayMutatorsRejectBackgrounds(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())
	osm, _ := s.GetLayerByName("osm")

	s.ToggleLayerVisibility("osm")
	s.SetLayerVisibility("ortho", true)
	s.SetLayerOpacity("osm", 0.2)

	assert.True(t, osm.Visible())
	assert.Equal(t, 1.0, osm.Opacity())
	assert.Equal(t, []string{"osm"}, visibleBackgrounds(s))
}

func TestOverlayMutators(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())

	s.ToggleLayerVisibility("roads")
	s.SetLayerVisibility("water", true)
	s.SetLayerOpacity("water", 0.4)
	s.SetLayerVisibility("missing", true)

	assert.Equal(t, []string{"osm", "roads", "water"}, s.GetVisibleLayerNames())
	assert.Equal(t, map[string]float64{"water": 0.4}, s.GetLayerOpacities())

	water, _ := s.GetLayerByName("water")
	assert.Equal(t, 0.4, water.Handle().(*render.HeadlessHandle).State().Opacity)
}

func TestToggleGroupLayerSingleSelect(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())

	s.ToggleGroupLayer("parks")
	s.ToggleGroupLayer("forest")
	assert.Equal(t, []string{"osm", "forest"}, s.GetVisibleLayerNames())
}

func TestGroupVisibility(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())

	s.ToggleGroupVisibility("nature")
	assert.Equal(t, []string{"osm", "parks"}, s.GetVisibleLayerNames())

	s.SetGroupVisibility("traffic", true)
	assert.Equal(t, []string{"osm", "roads", "rail", "parks"}, s.GetVisibleLayerNames())

	s.ToggleGroupVisibility("nature")
	s.ToggleGroupVisibility("missing")
	assert.Equal(t, []string{"osm", "roads", "rail"}, s.GetVisibleLayerNames())
}

func TestAddGroupOnTop(t *testing.T) {
	s, engine := testutil.Store(t, testutil.LayersDef())

	g := testutil.Group(t, layer.GroupConfig{
		Name:   "catalog",
		Layers: []layer.LayerConfig{testutil.WMS("c1"), testutil.WMS("c2")},
	})
	s.AddGroup(g)

	assert.Equal(t, []string{"catalog", "traffic", "nature", "poi"}, groupNames(s))
	assert.Equal(t, 11, engine.Len())

	c1, ok := s.GetLayerByName("c1")
	require.True(t, ok)
	assert.Equal(t, 10, c1.ZIndex())
	owner, ok := s.GetGroupByLayerName("c2")
	require.True(t, ok)
	assert.Same(t, g, owner)
	requireZDecreasing(t, s)

	// Attaching again is idempotent.
	s.AddGroup(g)
	assert.Equal(t, 11, engine.Len())
	assert.Equal(t, []string{"catalog", "traffic", "nature", "poi"}, groupNames(s))
}

func TestRemoveGroup(t *testing.T) {
	s, engine := testutil.Store(t, testutil.LayersDef())
	roads, _ := s.GetLayerByName("roads")
	h := roads.Handle().(*render.HeadlessHandle)

	s.RemoveGroup("traffic")

	assert.Equal(t, []string{"nature", "poi"}, groupNames(s))
	assert.Equal(t, 7, engine.Len())
	assert.False(t, engine.Attached(h))
	assert.True(t, roads.Disposed())
	assert.Equal(t, 1, h.DisposeCount())
	_, ok := s.GetLayerByName("roads")
	assert.False(t, ok)
	_, ok = s.GetGroupByName("traffic")
	assert.False(t, ok)
	requireZDecreasing(t, s)
}

func TestRemoveGroupRestoresSharedLayerName(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())
	traffic, _ := s.GetGroupByName("traffic")
	roads, _ := traffic.Layer("roads")

	s.AddGroup(testutil.Group(t, layer.GroupConfig{Name: "extra", Layers: []layer.LayerConfig{testutil.WMS("roads")}}))
	shadow, _ := s.GetLayerByName("roads")
	require.NotSame(t, roads, shadow)

	s.RemoveGroup("extra")

	got, ok := s.GetLayerByName("roads")
	require.True(t, ok)
	assert.Same(t, roads, got)
	owner, ok := s.GetGroupByLayerName("roads")
	require.True(t, ok)
	assert.Same(t, traffic, owner)

	s.SetLayerVisibility("roads", true)
	assert.True(t, roads.Visible())
	assert.Equal(t, []string{"osm", "roads"}, s.GetVisibleLayerNames())
}

func TestRemoveUnknownGroupIsNoop(t *testing.T) {
	s, engine := testutil.Store(t, testutil.LayersDef())

	assert.NotPanics(t, func() { s.RemoveGroup("missing") })
	assert.Len(t, s.Groups(), 3)
	assert.Equal(t, 9, engine.Len())
}

func TestReorderGroups(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())

	s.ReorderGroups([]string{"poi", "missing", "nature"})
	assert.Equal(t, []string{"poi", "nature", "traffic"}, groupNames(s))
	requireZDecreasing(t, s)

	stations, _ := s.GetLayerByName("stations")
	assert.Equal(t, 8, stations.ZIndex())
}

func TestReorderGroupsProperty(t *testing.T) {
	all := []string{"traffic", "nature", "poi"}
	rng := rand.New(rand.NewPCG(5, 6))
	s, _ := testutil.Store(t, testutil.LayersDef())

	for range 50 {
		prev := groupNames(s)
		names := slices.Clone(all)
		rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
		names = names[:rng.IntN(len(names)+1)]

		s.ReorderGroups(names)
		got := groupNames(s)
		require.Equal(t, names, got[:len(names)])

		rest := []string{}
		for _, n := range prev {
			if !slices.Contains(names, n) {
				rest = append(rest, n)
			}
		}
		require.Equal(t, rest, got[len(names):])
		requireZDecreasing(t, s)
	}
}

func TestVisibleOverlayOrderFollowsGroups(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())
	s.SetLayerVisibility("roads", true)
	s.SetLayerVisibility("stations", true)

	s.ReorderGroups([]string{"poi"})
	assert.Equal(t, []string{"osm", "stations", "roads"}, s.GetVisibleLayerNames())
}

func TestResetDetachesEverything(t *testing.T) {
	s, engine := testutil.Store(t, testutil.LayersDef())
	s.Reset()

	assert.False(t, s.Initialized())
	assert.Zero(t, engine.Len())
	assert.Empty(t, s.GetAllLayers())
	_, ok := s.GetLayerByName("osm")
	assert.False(t, ok)
}

func TestSnapshot(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())
	s.SetLayerVisibility("rail", true)

	snap := s.Snapshot()
	assert.Equal(t, "osm", snap.ActiveBackground)
	require.Len(t, snap.Groups, 3)
	assert.True(t, snap.Groups[0].Visible)
	assert.Equal(t, "rail", snap.Groups[0].Layers[1].Name)
	assert.Equal(t, 7, snap.Groups[0].Layers[1].ZIndex)
	assert.NotEmpty(t, snap.Groups[0].Layers[1].LegendURL)
	assert.Equal(t, []string{"osm", "rail"}, snap.VisibleLayers)
}
