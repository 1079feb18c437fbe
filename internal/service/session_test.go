package service_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-viewer/internal/apperr"
	"github.com/joeblew999/plat-viewer/internal/catalog"
	"github.com/joeblew999/plat-viewer/internal/config"
	"github.com/joeblew999/plat-viewer/internal/layer"
	"github.com/joeblew999/plat-viewer/internal/service"
	"github.com/joeblew999/plat-viewer/internal/store"
	"github.com/joeblew999/plat-viewer/internal/testutil"
	"github.com/joeblew999/plat-viewer/internal/urlstate"
)

func newService(t *testing.T, opts ...service.Option) (*service.SessionService, *service.EventBus) {
	t.Helper()
	log, _ := testutil.Logger(t)
	bus := service.NewEventBus()
	prepared := config.Prepared{
		Layers: testutil.LayersDef(),
		Catalog: []layer.GroupConfig{
			{Name: "bikes", Title: "Bikes", Catalog: true, Layers: []layer.LayerConfig{testutil.WMS("lanes")}},
		},
	}
	svc := service.NewSessionService(prepared, append([]service.Option{
		service.WithBus(bus), service.WithLogger(log),
	}, opts...)...)
	t.Cleanup(svc.Close)
	return svc, bus
}

// drain collects the events currently buffered on ch.
func drain(ch <-chan service.Event) []service.Event {
	var out []service.Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func resources(events []service.Event) []service.Resource {
	out := make([]service.Resource, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Resource)
	}
	return out
}

func TestCreateGetDelete(t *testing.T) {
	svc, _ := newService(t)

	sess := svc.Create(nil)
	require.NotEmpty(t, sess.ID())

	got, err := svc.Get(sess.ID())
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, []string{sess.ID()}, svc.List())

	info := sess.Info()
	assert.True(t, info.State.Initialized)
	assert.Equal(t, "osm", info.State.ActiveBackground)
	assert.Len(t, info.State.Groups, 3)
	assert.Nil(t, info.View)

	require.NoError(t, svc.Delete(sess.ID()))
	_, err = svc.Get(sess.ID())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(sess.ID()), apperr.ErrNotFound)

	err = sess.Update(func(*store.Store) error { return nil })
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, sess.Render())
}

func TestSessionsAreIndependent(t *testing.T) {
	svc, _ := newService(t)
	a := svc.Create(nil)
	b := svc.Create(nil)
	assert.NotEqual(t, a.ID(), b.ID())

	require.NoError(t, a.Update(func(st *store.Store) error {
		st.SetLayerVisibility("roads", true)
		return nil
	}))
	assert.Equal(t, []string{"osm", "roads"}, a.VisibleLayers())
	assert.Equal(t, []string{"osm"}, b.VisibleLayers())
}

func TestCreateAppliesQuery(t *testing.T) {
	svc, _ := newService(t, service.WithDefaultView(urlstate.MapState{Zoom: 8, Center: orb.Point{1, 2}}))

	sess := svc.Create(url.Values{
		"layers": {"grey,traffic(1,0:40),nature(0,1,0)"},
		"map":    {"11,467000,5763000"},
	})
	assert.Equal(t, []string{"grey", "roads", "forest"}, sess.VisibleLayers())

	view := sess.View()
	require.NotNil(t, view)
	assert.Equal(t, 11.0, view.Zoom)
	assert.Equal(t, "11,467000,5763000", sess.Info().View.Map)

	plain := svc.Create(nil)
	assert.Equal(t, 8.0, plain.View().Zoom)
}

func TestEncodeAndApply(t *testing.T) {
	svc, _ := newService(t)
	src := svc.Create(nil)
	require.NoError(t, src.Update(func(st *store.Store) error {
		st.SetActiveBackgroundByName("ortho")
		st.SetLayerVisibility("parks", true)
		st.SetLayerOpacity("parks", 0.5)
		return nil
	}))

	values := src.Encode(urlstate.ModeFull)
	assert.Equal(t, "ortho,traffic(0,0),nature(1:50,0,0),poi(0)", values.Get("layers"))

	dst := svc.Create(nil)
	require.NoError(t, dst.Apply(values))
	assert.Equal(t, src.VisibleLayers(), dst.VisibleLayers())
}

func TestEventsPublished(t *testing.T) {
	svc, bus := newService(t)
	sub := bus.Subscribe("")
	defer bus.Unsubscribe(sub)

	sess := svc.Create(nil)
	created := drain(sub.C)
	require.Len(t, created, 1)
	assert.Equal(t, service.Event{Session: sess.ID(), Resource: service.ResourceSession, Action: service.ActionCreated}, created[0])

	require.NoError(t, sess.Update(func(st *store.Store) error {
		st.SetLayerVisibility("roads", true)
		return nil
	}))
	events := drain(sub.C)
	assert.Equal(t, []service.Resource{service.ResourceLayer, service.ResourceVisible}, resources(events))
	assert.Equal(t, "roads", events[0].Name)

	// Opacity changes do not touch the visible names.
	require.NoError(t, sess.Update(func(st *store.Store) error {
		st.SetLayerOpacity("roads", 0.3)
		return nil
	}))
	assert.Equal(t, []service.Resource{service.ResourceLayer}, resources(drain(sub.C)))

	sess.SetView(urlstate.MapState{Zoom: 3})
	assert.Equal(t, []service.Resource{service.ResourceView}, resources(drain(sub.C)))
}

func TestCatalogToggleWatchesNewLayers(t *testing.T) {
	svc, bus := newService(t)
	sess := svc.Create(nil)
	sub := bus.Subscribe("")
	defer bus.Unsubscribe(sub)

	action, err := svc.ToggleCatalog(context.Background(), sess.ID(), "bikes")
	require.NoError(t, err)
	assert.Equal(t, catalog.Added, action)
	assert.Contains(t, resources(drain(sub.C)), service.ResourceStructure)

	items, err := svc.CatalogItems(sess.ID())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Active)

	require.NoError(t, sess.Update(func(st *store.Store) error {
		st.SetLayerVisibility("lanes", true)
		return nil
	}))
	events := drain(sub.C)
	require.NotEmpty(t, events)
	assert.Equal(t, service.ResourceLayer, events[0].Resource)
	assert.Equal(t, "lanes", events[0].Name)

	_, err = svc.ToggleCatalog(context.Background(), sess.ID(), "traffic")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.ToggleCatalog(context.Background(), "nope", "bikes")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCatalogToggleIsAtomic(t *testing.T) {
	svc, _ := newService(t)
	sess := svc.Create(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.ToggleCatalog(ctx, sess.ID(), "bikes")
		}()
		go func() {
			defer wg.Done()
			_ = sess.Update(func(st *store.Store) error {
				st.RemoveGroup("bikes")
				return nil
			})
		}()
	}
	wg.Wait()

	count := 0
	for _, g := range sess.Info().State.Groups {
		if g.Name == "bikes" {
			count++
		}
	}
	_, present := sess.GetGroupByName("bikes")
	assert.LessOrEqual(t, count, 1)
	assert.Equal(t, present, count == 1)
}

func TestSwapGroupOnClosedSession(t *testing.T) {
	svc, _ := newService(t)
	sess := svc.Create(nil)
	require.NoError(t, svc.Delete(sess.ID()))

	built := false
	_, err := sess.SwapGroup("bikes", func() (*layer.Group, error) {
		built = true
		return nil, nil
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.False(t, built)
}

func TestConcurrentUpdates(t *testing.T) {
	svc, _ := newService(t)
	sess := svc.Create(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sess.Update(func(st *store.Store) error {
				st.ToggleLayerVisibility("roads")
				return nil
			})
			_ = sess.Info()
		}()
	}
	wg.Wait()

	// An even number of toggles leaves the layer hidden.
	assert.Equal(t, []string{"osm"}, sess.VisibleLayers())
}

func TestEventBusDropsSlowSubscribers(t *testing.T) {
	bus := service.NewEventBus()
	sub := bus.Subscribe("")
	for i := 0; i < 32; i++ {
		bus.Publish(service.Event{Resource: service.ResourceVisible})
	}
	assert.Len(t, drain(sub.C), 16)
	assert.Equal(t, int64(16), sub.Dropped())
	assert.Equal(t, 1, bus.Subscribers())

	bus.Unsubscribe(sub)
	bus.Unsubscribe(sub)
	assert.Equal(t, 0, bus.Subscribers())
	select {
	case _, ok := <-sub.C:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestEventBusFiltersSession(t *testing.T) {
	bus := service.NewEventBus()
	a := bus.Subscribe("a")
	all := bus.Subscribe("")
	defer bus.Unsubscribe(a)
	defer bus.Unsubscribe(all)

	bus.Publish(service.Event{Session: "a", Resource: service.ResourceView, Action: service.ActionChanged})
	bus.Publish(service.Event{Session: "b", Resource: service.ResourceView, Action: service.ActionChanged})

	got := drain(a.C)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Session)
	assert.Len(t, drain(all.C), 2)
}
