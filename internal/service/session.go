package service

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-viewer/internal/apperr"
	"github.com/joeblew999/plat-viewer/internal/catalog"
	"github.com/joeblew999/plat-viewer/internal/config"
	"github.com/joeblew999/plat-viewer/internal/layer"
	"github.com/joeblew999/plat-viewer/internal/render"
	"github.com/joeblew999/plat-viewer/internal/store"
	"github.com/joeblew999/plat-viewer/internal/urlstate"
)

// SessionService manages viewer sessions built from one prepared layer
// definition.
type SessionService struct {
	layers  layer.LayersDef
	catalog *catalog.Catalog
	factory *layer.Factory
	codec   *urlstate.Codec
	bus     *EventBus
	log     logrus.FieldLogger
	view    *urlstate.MapState
	mode    urlstate.Mode

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures a SessionService.
type Option func(*SessionService)

// WithBus sets the bus session events are published on.
func WithBus(b *EventBus) Option {
	return func(s *SessionService) {
		if b != nil {
			s.bus = b
		}
	}
}

// WithLogger sets the logger passed down to stores and codecs.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *SessionService) {
		if log != nil {
			s.log = log
		}
	}
}

// WithDefaultView sets the view new sessions start with.
func WithDefaultView(v urlstate.MapState) Option {
	return func(s *SessionService) { s.view = &v }
}

// WithMode sets the default URL sync mode.
func WithMode(m urlstate.Mode) Option {
	return func(s *SessionService) {
		if m != "" {
			s.mode = m
		}
	}
}

// NewSessionService creates a session service for prepared.
func NewSessionService(prepared config.Prepared, opts ...Option) *SessionService {
	s := &SessionService{
		layers:   prepared.Layers,
		bus:      DefaultBus,
		log:      logrus.StandardLogger(),
		mode:     urlstate.ModeFull,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.factory = layer.NewFactory(layer.WithFactoryLogger(s.log))
	s.codec = urlstate.New(urlstate.WithLogger(s.log))
	s.catalog = catalog.New(prepared.Catalog, catalog.WithFactory(s.factory), catalog.WithLogger(s.log))
	return s
}

// Bus returns the event bus.
func (s *SessionService) Bus() *EventBus { return s.bus }

// Catalog returns the catalog shared by all sessions.
func (s *SessionService) Catalog() *catalog.Catalog { return s.catalog }

// Codec returns the URL codec.
func (s *SessionService) Codec() *urlstate.Codec { return s.codec }

// Mode returns the default URL sync mode.
func (s *SessionService) Mode() urlstate.Mode { return s.mode }

// Create builds a new session and applies the layers, groups and map
// parameters of query to it. query may be nil.
func (s *SessionService) Create(query url.Values) *Session {
	id := uuid.NewString()
	log := s.log.WithField("session", id)
	engine := render.NewHeadless()
	st := store.New(store.WithEngine(engine), store.WithLogger(log))
	st.Initialize(s.factory.InitializeLayers(s.layers))

	sess := &Session{
		id:      id,
		created: time.Now().UTC(),
		store:   st,
		engine:  engine,
		codec:   s.codec,
		bus:     s.bus,
		watches: make(map[string]func()),
	}
	if s.view != nil {
		v := *s.view
		sess.view = &v
	}
	if len(query) > 0 {
		if v := s.codec.Apply(query, st); v != nil {
			sess.view = v
		}
	}
	sess.subscribe()

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	log.WithField("layers", len(st.GetAllLayers())).Info("session created")
	sess.publish(ResourceSession, ActionCreated, "")
	return sess
}

// Get returns the session with id.
func (s *SessionService) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, apperr.ErrNotFound)
	}
	return sess, nil
}

// List returns the IDs of all sessions, sorted.
func (s *SessionService) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.sessions))
}

// Delete closes and removes the session with id.
func (s *SessionService) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %q: %w", id, apperr.ErrNotFound)
	}
	sess.close()
	s.log.WithField("session", id).Info("session deleted")
	sess.publish(ResourceSession, ActionDeleted, "")
	return nil
}

// Close closes every session.
func (s *SessionService) Close() {
	for _, id := range s.List() {
		_ = s.Delete(id)
	}
}

// ToggleCatalog adds or removes a catalog group on the session with id.
func (s *SessionService) ToggleCatalog(ctx context.Context, id, name string) (catalog.Action, error) {
	sess, err := s.Get(id)
	if err != nil {
		return "", err
	}
	if !s.catalog.Has(name) {
		return "", fmt.Errorf("catalog group %q: %w", name, apperr.ErrNotFound)
	}
	return s.catalog.Toggle(ctx, sess, name)
}

// CatalogItems lists the catalog for the session with id.
func (s *SessionService) CatalogItems(id string) ([]catalog.Item, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return s.catalog.Items(sess), nil
}

// Session is one viewer: a store on its own headless engine. All access
// goes through the session mutex.
type Session struct {
	id      string
	created time.Time
	codec   *urlstate.Codec
	bus     *EventBus

	mu      sync.Mutex
	store   *store.Store
	engine  *render.Headless
	view    *urlstate.MapState
	watches map[string]func()
	closed  bool
}

var _ catalog.Target = (*Session)(nil)

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Info returns the session state.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:      s.id,
		Created: s.created,
		View:    viewState(s.view),
		State:   s.store.Snapshot(),
	}
}

// Update runs fn with exclusive access to the store.
func (s *Session) Update(fn func(st *store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session %q closed: %w", s.id, apperr.ErrNotFound)
	}
	return fn(s.store)
}

// View returns the current map view, if any.
func (s *Session) View() *urlstate.MapState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return nil
	}
	v := *s.view
	return &v
}

// SetView replaces the map view.
func (s *Session) SetView(v urlstate.MapState) {
	s.mu.Lock()
	s.view = &v
	s.mu.Unlock()
	s.publish(ResourceView, ActionChanged, "")
}

// Encode writes the session state as URL parameters.
func (s *Session) Encode(mode urlstate.Mode) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codec.Encode(s.store, s.view, mode)
}

// Apply applies URL parameters to the session. A valid map parameter
// replaces the view.
func (s *Session) Apply(values url.Values) error {
	return s.Update(func(st *store.Store) error {
		if v := s.codec.Apply(values, st); v != nil {
			s.view = v
			s.publish(ResourceView, ActionChanged, "")
		}
		return nil
	})
}

// VisibleLayers returns the visible layer names.
func (s *Session) VisibleLayers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.GetVisibleLayerNames()
}

// Render returns the headless render list, topmost first.
func (s *Session) Render() []render.HandleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Layers()
}

// GetGroupByName looks up a group.
func (s *Session) GetGroupByName(name string) (*layer.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.GetGroupByName(name)
}

// SwapGroup removes or adds the group named name under one hold of the
// session mutex.
func (s *Session) SwapGroup(name string, build func() (*layer.Group, error)) (bool, error) {
	var removed bool
	err := s.Update(func(st *store.Store) error {
		var err error
		removed, err = st.SwapGroup(name, build)
		return err
	})
	return removed, err
}

// subscribe forwards store signals to the bus. Callbacks run inside store
// mutations, with the session mutex already held.
func (s *Session) subscribe() {
	sig := s.store.Signals()
	sig.OnStructure(func() {
		s.watchLayers()
		s.publish(ResourceStructure, ActionChanged, "")
	})
	sig.WatchVisibleNames(func([]string) {
		s.publish(ResourceVisible, ActionChanged, "")
	})
	s.watchLayers()
}

// watchLayers keeps one layer watcher per layer in the store.
func (s *Session) watchLayers() {
	present := make(map[string]bool)
	for _, l := range s.store.GetAllLayers() {
		name := l.Name()
		present[name] = true
		if _, ok := s.watches[name]; ok {
			continue
		}
		s.watches[name] = s.store.Signals().WatchLayer(name, func(store.LayerState) {
			s.publish(ResourceLayer, ActionChanged, name)
		})
	}
	for name, unsubscribe := range s.watches {
		if !present[name] {
			unsubscribe()
			delete(s.watches, name)
		}
	}
}

func (s *Session) publish(resource Resource, action Action, name string) {
	s.bus.Publish(Event{Session: s.id, Resource: resource, Action: action, Name: name})
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.store.Close()
	clear(s.watches)
}
