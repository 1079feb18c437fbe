package store

import (
	"maps"
	"slices"
)

// LayerState is the display state observed per layer.
type LayerState struct {
	Visible bool    `json:"visible" doc:"Whether the layer is visible"`
	Opacity float64 `json:"opacity" doc:"Layer opacity (0-1)"`
}

// Signals is the subscription context owned by one Store. Structure
// observers fire on initialize, add, remove, reorder and reset. Layer
// observers fire when that layer's display state actually changed, and
// visible-name observers fire when the list of visible layer names changed.
//
// Callbacks run synchronously on the goroutine that mutated the store.
type Signals struct {
	next      int
	structure map[int]func()
	layers    map[string]map[int]func(LayerState)
	visible   map[int]func([]string)

	lastLayer   map[string]LayerState
	lastVisible []string
}

func newSignals() *Signals {
	return &Signals{
		structure: make(map[int]func()),
		layers:    make(map[string]map[int]func(LayerState)),
		visible:   make(map[int]func([]string)),
		lastLayer: make(map[string]LayerState),
	}
}

// OnStructure registers fn for structural changes.
func (s *Signals) OnStructure(fn func()) (unsubscribe func()) {
	id := s.id()
	s.structure[id] = fn
	return func() { delete(s.structure, id) }
}

// WatchLayer registers fn for display changes of the layer named name.
func (s *Signals) WatchLayer(name string, fn func(LayerState)) (unsubscribe func()) {
	id := s.id()
	if s.layers[name] == nil {
		s.layers[name] = make(map[int]func(LayerState))
	}
	s.layers[name][id] = fn
	return func() {
		delete(s.layers[name], id)
		if len(s.layers[name]) == 0 {
			delete(s.layers, name)
		}
	}
}

// WatchVisibleNames registers fn for changes of the visible layer names.
func (s *Signals) WatchVisibleNames(fn func([]string)) (unsubscribe func()) {
	id := s.id()
	s.visible[id] = fn
	return func() { delete(s.visible, id) }
}

// Subscribers returns the number of registered callbacks.
func (s *Signals) Subscribers() int {
	n := len(s.structure) + len(s.visible)
	for _, m := range s.layers {
		n += len(m)
	}
	return n
}

func (s *Signals) id() int {
	s.next++
	return s.next
}

// reseed drops recorded states of layers that are gone and records new
// layers without notifying anyone. Layers still present keep their last
// published state, so the next flush reports those that changed. The next
// flush always publishes the visible names.
func (s *Signals) reseed(states map[string]LayerState) {
	for name := range s.lastLayer {
		if _, ok := states[name]; !ok {
			delete(s.lastLayer, name)
		}
	}
	for name, st := range states {
		if _, ok := s.lastLayer[name]; !ok {
			s.lastLayer[name] = st
		}
	}
	s.lastVisible = nil
}

func (s *Signals) remember(name string, st LayerState) {
	s.lastLayer[name] = st
}

func (s *Signals) forget(name string) {
	delete(s.lastLayer, name)
}

func (s *Signals) emitStructure() {
	for _, id := range sortedIDs(s.structure) {
		if fn, ok := s.structure[id]; ok {
			fn()
		}
	}
}

func (s *Signals) emitLayer(name string, st LayerState) {
	if prev, ok := s.lastLayer[name]; ok && prev == st {
		return
	}
	s.lastLayer[name] = st
	subs := s.layers[name]
	for _, id := range sortedIDs(subs) {
		if fn, ok := subs[id]; ok {
			fn(st)
		}
	}
}

func (s *Signals) emitVisible(names []string) {
	if s.lastVisible != nil && slices.Equal(s.lastVisible, names) {
		return
	}
	s.lastVisible = append([]string{}, names...)
	for _, id := range sortedIDs(s.visible) {
		if fn, ok := s.visible[id]; ok {
			fn(slices.Clone(s.lastVisible))
		}
	}
}

func (s *Signals) clear() {
	clear(s.structure)
	clear(s.layers)
	clear(s.visible)
	clear(s.lastLayer)
	s.lastVisible = nil
}

// sortedIDs keeps notification order equal to registration order.
func sortedIDs[V any](m map[int]V) []int {
	return slices.Sorted(maps.Keys(m))
}
