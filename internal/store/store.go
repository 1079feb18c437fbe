// Package store is the authoritative index of the viewer's layers and
// groups. It enforces background exclusivity, assigns draw order and
// propagates display changes to subscribers.
//
// A Store is single-threaded: callers serialise access themselves.
package store

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-viewer/internal/layer"
	"github.com/joeblew999/plat-viewer/internal/render"
)

// Store holds background layers and overlay groups. Overlay groups are
// ordered top to bottom: the first group paints above all others.
type Store struct {
	engine  render.Engine
	log     logrus.FieldLogger
	signals *Signals

	backgrounds []*layer.Layer
	groups      []*layer.Group
	active      *layer.Layer
	initialized bool

	layersByName map[string]*layer.Layer
	groupsByName map[string]*layer.Group
	groupOfLayer map[string]*layer.Group

	// batch defers change notifications until the outermost mutation ends.
	batch      int
	dirty      map[string]*layer.Layer
	structural bool
}

// Option configures a Store.
type Option func(*Store)

// WithEngine sets the render engine handles are built by and attached to.
func WithEngine(e render.Engine) Option {
	return func(s *Store) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithLogger sets the logger for ignored references.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates an empty store. Without WithEngine a Headless engine is used.
func New(opts ...Option) *Store {
	s := &Store{
		log:     logrus.StandardLogger(),
		signals: newSignals(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = render.NewHeadless()
	}
	s.clearIndices()
	return s
}

// Signals returns the store's subscription context.
func (s *Store) Signals() *Signals { return s.signals }

// Engine returns the render engine.
func (s *Store) Engine() render.Engine { return s.engine }

// Initialize replaces the store contents. The active background is the
// first visible background, else the first background, else none; exactly
// that one is shown and all other backgrounds are hidden.
func (s *Store) Initialize(backgrounds []*layer.Layer, groups []*layer.Group) {
	s.mutate(func() {
		if s.initialized {
			s.detachAll()
		}
		s.clearIndices()
		s.backgrounds = slices.Clone(backgrounds)
		s.groups = slices.Clone(groups)

		for _, l := range s.backgrounds {
			s.index(l, nil)
		}
		for _, g := range s.groups {
			s.indexGroup(g)
		}

		s.active = nil
		if i := slices.IndexFunc(s.backgrounds, (*layer.Layer).Visible); i >= 0 {
			s.active = s.backgrounds[i]
		} else if len(s.backgrounds) > 0 {
			s.active = s.backgrounds[0]
		}
		for _, l := range s.backgrounds {
			l.SetVisible(l == s.active)
		}

		s.assignZIndexes()
		for _, l := range s.allLayers() {
			s.attach(l)
		}
		s.initialized = true
		s.signals.reseed(s.layerStates())
		for name, l := range s.layersByName {
			s.dirty[name] = l
		}
		s.structural = true
	})
}

// Reset detaches every render handle and clears all indices. Layers are
// not disposed.
func (s *Store) Reset() {
	s.mutate(func() {
		s.detachAll()
		s.clearIndices()
		s.backgrounds = nil
		s.groups = nil
		s.active = nil
		s.initialized = false
		s.structural = true
	})
}

// Close resets the store, disposes all layers and drops all subscriptions.
func (s *Store) Close() {
	all := s.allLayers()
	s.Reset()
	for _, l := range all {
		l.Dispose()
	}
	s.signals.clear()
}

// Initialized reports whether Initialize ran since the last Reset.
func (s *Store) Initialized() bool { return s.initialized }

// ActiveBackground returns the visible background layer, or nil.
func (s *Store) ActiveBackground() *layer.Layer { return s.active }

// Backgrounds returns the background layers.
func (s *Store) Backgrounds() []*layer.Layer { return slices.Clone(s.backgrounds) }

// Groups returns the overlay groups top to bottom.
func (s *Store) Groups() []*layer.Group { return slices.Clone(s.groups) }

// SetActiveBackground hides all backgrounds and shows l. It is a no-op
// unless l is a background layer of this store.
func (s *Store) SetActiveBackground(l *layer.Layer) {
	if l == nil || !l.IsBackground() || !slices.Contains(s.backgrounds, l) {
		s.log.WithField("layer", layerName(l)).Warn("not a background layer of this store")
		return
	}
	s.mutate(func() {
		for _, bg := range s.backgrounds {
			bg.SetVisible(false)
		}
		l.SetVisible(true)
		s.active = l
	})
}

// SetActiveBackgroundByName is SetActiveBackground by layer name.
func (s *Store) SetActiveBackgroundByName(name string) {
	l, ok := s.layersByName[name]
	if !ok || !l.IsBackground() {
		s.log.WithField("layer", name).Warn("unknown background layer")
		return
	}
	s.SetActiveBackground(l)
}

// ToggleLayerVisibility flips an overlay layer.
func (s *Store) ToggleLayerVisibility(name string) {
	if l := s.overlay(name); l != nil {
		s.mutate(func() { l.SetVisible(!l.Visible()) })
	}
}

// SetLayerVisibility sets an overlay layer's visibility.
func (s *Store) SetLayerVisibility(name string, visible bool) {
	if l := s.overlay(name); l != nil {
		s.mutate(func() { l.SetVisible(visible) })
	}
}

// SetLayerOpacity sets an overlay layer's opacity.
func (s *Store) SetLayerOpacity(name string, opacity float64) {
	if l := s.overlay(name); l != nil {
		s.mutate(func() { l.SetOpacity(opacity) })
	}
}

// ToggleGroupLayer toggles an overlay layer through its group, so
// single-select groups hide the siblings.
func (s *Store) ToggleGroupLayer(name string) {
	g, ok := s.groupOfLayer[name]
	if !ok {
		s.log.WithField("layer", name).Warn("unknown overlay layer")
		return
	}
	s.mutate(func() { g.ToggleLayer(name) })
}

// ToggleGroupVisibility switches a group on when no member is visible and
// off otherwise.
func (s *Store) ToggleGroupVisibility(name string) {
	if g := s.group(name); g != nil {
		s.mutate(func() { g.SetVisible(!g.Visible()) })
	}
}

// SetGroupVisibility switches a group on or off.
func (s *Store) SetGroupVisibility(name string, visible bool) {
	if g := s.group(name); g != nil {
		s.mutate(func() { g.SetVisible(visible) })
	}
}

// AddGroup registers g on top of all overlays and attaches its layers to
// the engine. A group already registered under the same name is removed
// first.
func (s *Store) AddGroup(g *layer.Group) {
	if g == nil {
		return
	}
	s.mutate(func() {
		switch old, ok := s.groupsByName[g.Name()]; {
		case ok && old == g:
			s.groups = slices.DeleteFunc(s.groups, func(x *layer.Group) bool { return x == g })
		case ok:
			s.log.WithField("group", g.Name()).Warn("replacing group with the same name")
			s.removeGroup(g.Name())
		}
		s.indexGroup(g)
		for _, l := range g.Layers() {
			s.signals.remember(l.Name(), stateOf(l))
		}
		s.groups = slices.Insert(s.groups, 0, g)
		s.assignZIndexes()
		for _, l := range g.Layers() {
			s.attach(l)
		}
		s.structural = true
	})
}

// RemoveGroup detaches and disposes the group named name. Unknown names
// are ignored.
func (s *Store) RemoveGroup(name string) {
	if s.group(name) == nil {
		return
	}
	s.mutate(func() {
		s.removeGroup(name)
		s.assignZIndexes()
		s.structural = true
	})
}

// SwapGroup removes the group named name and reports true when it is
// registered. Otherwise it adds the group returned by build; a build error
// leaves the store unchanged.
func (s *Store) SwapGroup(name string, build func() (*layer.Group, error)) (bool, error) {
	if s.group(name) != nil {
		s.RemoveGroup(name)
		return true, nil
	}
	g, err := build()
	if err != nil {
		return false, err
	}
	s.AddGroup(g)
	return false, nil
}

func (s *Store) removeGroup(name string) {
	g := s.groupsByName[name]
	var orphaned []string
	for _, l := range g.Layers() {
		if h := l.Handle(); h != nil {
			s.engine.Detach(h)
		}
		l.OnDisplayChange(nil)
		if s.layersByName[l.Name()] != l {
			continue
		}
		delete(s.layersByName, l.Name())
		delete(s.groupOfLayer, l.Name())
		delete(s.dirty, l.Name())
		orphaned = append(orphaned, l.Name())
	}
	delete(s.groupsByName, name)
	g.Dispose()
	s.groups = slices.DeleteFunc(s.groups, func(x *layer.Group) bool { return x == g })

	// A layer of another group or the background band may share a removed
	// name; it takes the index back.
	for _, n := range orphaned {
		l, owner := s.lookup(n)
		if l == nil {
			s.signals.forget(n)
			continue
		}
		s.index(l, owner)
		s.signals.remember(n, stateOf(l))
	}
}

// lookup scans groups top to bottom, then the backgrounds, for a layer
// named name.
func (s *Store) lookup(name string) (*layer.Layer, *layer.Group) {
	for _, g := range s.groups {
		if l, ok := g.Layer(name); ok {
			return l, g
		}
	}
	for _, l := range s.backgrounds {
		if l.Name() == name {
			return l, nil
		}
	}
	return nil, nil
}

// ReorderGroups puts the named groups first, in the given order, followed
// by all other groups in their previous order. Unknown names are skipped.
func (s *Store) ReorderGroups(names []string) {
	ordered := make([]*layer.Group, 0, len(s.groups))
	seen := make(map[*layer.Group]bool, len(s.groups))
	for _, name := range names {
		g, ok := s.groupsByName[name]
		if !ok {
			s.log.WithField("group", name).Warn("unknown group in order")
			continue
		}
		if seen[g] {
			continue
		}
		seen[g] = true
		ordered = append(ordered, g)
	}
	for _, g := range s.groups {
		if !seen[g] {
			ordered = append(ordered, g)
		}
	}
	s.mutate(func() {
		s.groups = ordered
		s.assignZIndexes()
		s.structural = true
	})
}

// assignZIndexes gives every layer its draw order from its position.
// Overlays count down from the top, backgrounds fill the lowest band.
func (s *Store) assignZIndexes() {
	z := len(s.backgrounds)
	for _, g := range s.groups {
		z += g.Len()
	}
	for _, g := range s.groups {
		for _, l := range g.Layers() {
			z--
			l.SetZIndex(z)
		}
	}
	for _, l := range s.backgrounds {
		z--
		l.SetZIndex(z)
	}
}

func (s *Store) attach(l *layer.Layer) {
	if h := l.RenderHandle(s.engine); h != nil && !s.engine.Attached(h) {
		s.engine.Attach(h)
	}
}

func (s *Store) detachAll() {
	for _, l := range s.allLayers() {
		if h := l.Handle(); h != nil {
			s.engine.Detach(h)
		}
		l.OnDisplayChange(nil)
	}
}

func (s *Store) clearIndices() {
	s.layersByName = make(map[string]*layer.Layer)
	s.groupsByName = make(map[string]*layer.Group)
	s.groupOfLayer = make(map[string]*layer.Group)
	s.dirty = make(map[string]*layer.Layer)
}

func (s *Store) index(l *layer.Layer, g *layer.Group) {
	if prev, dup := s.layersByName[l.Name()]; dup && prev != l {
		s.log.WithField("layer", l.Name()).Warn("duplicate layer name, last one wins")
	}
	s.layersByName[l.Name()] = l
	if g != nil {
		s.groupOfLayer[l.Name()] = g
	}
	l.OnDisplayChange(s.layerChanged)
}

func (s *Store) indexGroup(g *layer.Group) {
	s.groupsByName[g.Name()] = g
	for _, l := range g.Layers() {
		s.index(l, g)
	}
}

func (s *Store) overlay(name string) *layer.Layer {
	l, ok := s.layersByName[name]
	if !ok {
		s.log.WithField("layer", name).Warn("unknown layer")
		return nil
	}
	if l.IsBackground() {
		s.log.WithField("layer", name).Debug("background layers change only through the active background")
		return nil
	}
	return l
}

func (s *Store) group(name string) *layer.Group {
	g, ok := s.groupsByName[name]
	if !ok {
		s.log.WithField("group", name).Warn("unknown group")
		return nil
	}
	return g
}

func (s *Store) layerChanged(l *layer.Layer) {
	s.dirty[l.Name()] = l
	if s.batch == 0 {
		s.flush()
	}
}

// Batch runs fn and publishes the changes made through the store inside it
// once, after fn returns. Batches nest.
func (s *Store) Batch(fn func()) {
	s.mutate(fn)
}

// mutate runs fn and then publishes the changes it made once.
func (s *Store) mutate(fn func()) {
	s.batch++
	defer func() {
		s.batch--
		if s.batch == 0 {
			s.flush()
		}
	}()
	fn()
}

func (s *Store) flush() {
	if s.structural {
		s.structural = false
		s.signals.emitStructure()
	}
	dirty := s.dirty
	s.dirty = make(map[string]*layer.Layer)
	for _, l := range s.allLayers() {
		if _, ok := dirty[l.Name()]; ok {
			s.signals.emitLayer(l.Name(), stateOf(l))
		}
	}
	s.signals.emitVisible(s.GetVisibleLayerNames())
}

func (s *Store) allLayers() []*layer.Layer {
	out := slices.Clone(s.backgrounds)
	for _, g := range s.groups {
		out = append(out, g.Layers()...)
	}
	return out
}

func (s *Store) layerStates() map[string]LayerState {
	states := make(map[string]LayerState, len(s.layersByName))
	for name, l := range s.layersByName {
		states[name] = stateOf(l)
	}
	return states
}

func stateOf(l *layer.Layer) LayerState {
	return LayerState{Visible: l.Visible(), Opacity: l.Opacity()}
}

func layerName(l *layer.Layer) string {
	if l == nil {
		return ""
	}
	return l.Name()
}
