package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joeblew999/plat-viewer/internal/layer"
	"github.com/joeblew999/plat-viewer/internal/store"
	"github.com/joeblew999/plat-viewer/internal/testutil"
)

func TestLayerWatchersFireOnlyOnChange(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())

	var roads, rail []store.LayerState
	s.Signals().WatchLayer("roads", func(st store.LayerState) { roads = append(roads, st) })
	s.Signals().WatchLayer("rail", func(st store.LayerState) { rail = append(rail, st) })

	s.SetLayerVisibility("roads", true)
	s.SetLayerVisibility("roads", true)
	s.SetLayerOpacity("roads", 0.5)

	assert.Equal(t, []store.LayerState{
		{Visible: true, Opacity: 1},
		{Visible: true, Opacity: 0.5},
	}, roads)
	assert.Empty(t, rail)
}

func TestVisibilityChangeDoesNotTouchStructure(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())

	var structure, visible int
	s.Signals().OnStructure(func() { structure++ })
	s.Signals().WatchVisibleNames(func([]string) { visible++ })

	s.ToggleLayerVisibility("roads")
	s.SetActiveBackgroundByName("ortho")
	assert.Equal(t, 0, structure)
	assert.Equal(t, 2, visible)

	s.ReorderGroups([]string{"poi"})
	assert.Equal(t, 1, structure)
	assert.Equal(t, 2, visible, "visible list did not change")
}

func TestVisibleNamesCoalesced(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())

	var got [][]string
	s.Signals().WatchVisibleNames(func(names []string) { got = append(got, names) })

	// Switching backgrounds hides and shows inside one mutation.
	s.SetActiveBackgroundByName("grey")
	s.SetActiveBackgroundByName("grey")
	s.SetLayerOpacity("roads", 0.3)

	assert.Equal(t, [][]string{{"grey"}}, got)
}

func TestDirectLayerMutationPropagates(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())

	var got []store.LayerState
	s.Signals().WatchLayer("parks", func(st store.LayerState) { got = append(got, st) })

	g, _ := s.GetGroupByName("nature")
	g.ToggleLayer("parks")

	assert.Equal(t, []store.LayerState{{Visible: true, Opacity: 1}}, got)
	assert.Contains(t, s.GetVisibleLayerNames(), "parks")
}

func TestUnsubscribe(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())

	var calls int
	unsub := s.Signals().WatchLayer("roads", func(store.LayerState) { calls++ })
	unsubStructure := s.Signals().OnStructure(func() { calls++ })
	assert.Equal(t, 2, s.Signals().Subscribers())

	unsub()
	unsubStructure()
	s.ToggleLayerVisibility("roads")
	s.RemoveGroup("poi")

	assert.Zero(t, calls)
	assert.Zero(t, s.Signals().Subscribers())
}

func TestRemovedGroupLayersStopNotifying(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())
	roads, _ := s.GetLayerByName("roads")

	var calls int
	s.Signals().WatchLayer("roads", func(store.LayerState) { calls++ })
	s.RemoveGroup("traffic")

	roads.SetVisible(true)
	assert.Zero(t, calls)
}

func TestAddGroupNotifiesStructure(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())

	var structure int
	s.Signals().OnStructure(func() { structure++ })
	s.AddGroup(testutil.Group(t, layer.GroupConfig{Name: "extra", Layers: []layer.LayerConfig{testutil.WMS("x")}}))
	s.RemoveGroup("extra")

	assert.Equal(t, 2, structure)
}

func TestSharedLayerNameNotifiesAfterRemove(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())
	s.AddGroup(testutil.Group(t, layer.GroupConfig{Name: "extra", Layers: []layer.LayerConfig{testutil.WMS("roads")}}))

	var got []store.LayerState
	s.Signals().WatchLayer("roads", func(st store.LayerState) { got = append(got, st) })
	s.RemoveGroup("extra")
	s.SetLayerVisibility("roads", true)

	assert.Equal(t, []store.LayerState{{Visible: true, Opacity: 1}}, got)
}

func TestReinitializeNotifiesChangedLayers(t *testing.T) {
	s, _ := testutil.Store(t, testutil.LayersDef())

	var osm, roads []store.LayerState
	s.Signals().WatchLayer("osm", func(st store.LayerState) { osm = append(osm, st) })
	s.Signals().WatchLayer("roads", func(st store.LayerState) { roads = append(roads, st) })

	def := testutil.LayersDef()
	def.BackgroundLayer[1] = testutil.Visible(def.BackgroundLayer[1])
	log, _ := testutil.Logger(t)
	s.Initialize(layer.NewFactory(layer.WithFactoryLogger(log)).InitializeLayers(def))

	assert.Equal(t, "ortho", s.ActiveBackground().Name())
	assert.Equal(t, []store.LayerState{{Visible: false, Opacity: 1}}, osm)
	assert.Empty(t, roads)
}
