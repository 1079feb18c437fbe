// Package catalog offers optional overlay groups that can be added to and
// removed from a running viewer.
package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-viewer/internal/apperr"
	"github.com/joeblew999/plat-viewer/internal/layer"
)

// Item is one catalog entry.
type Item struct {
	Name        string `json:"name" doc:"Group name"`
	Title       string `json:"title" doc:"Display title"`
	Abstract    string `json:"abstract,omitempty"`
	MetadataURL string `json:"metadataUrl,omitempty"`
	Layers      int    `json:"layers" doc:"Number of layers in the group"`
	Active      bool   `json:"active" doc:"Whether the group is currently on the map"`
}

// Resolver fetches the full definition of a catalog group.
type Resolver interface {
	Resolve(ctx context.Context, name string) (layer.GroupConfig, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, name string) (layer.GroupConfig, error)

func (f ResolverFunc) Resolve(ctx context.Context, name string) (layer.GroupConfig, error) {
	return f(ctx, name)
}

// Target is where toggled groups go. *store.Store implements it.
type Target interface {
	GetGroupByName(name string) (*layer.Group, bool)
	// SwapGroup removes the group named name and reports true when it is
	// present, and otherwise adds the group returned by build. The check
	// and the change happen as one step.
	SwapGroup(name string, build func() (*layer.Group, error)) (removed bool, err error)
}

// Action reports what Toggle did.
type Action string

const (
	Added   Action = "added"
	Removed Action = "removed"
)

// Catalog lists catalog groups and toggles them on targets.
type Catalog struct {
	groups   []layer.GroupConfig
	resolver Resolver
	factory  *layer.Factory
	log      logrus.FieldLogger

	mu       sync.Mutex
	inFlight map[flightKey]struct{}
}

type flightKey struct {
	target Target
	name   string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithResolver replaces the in-memory resolver.
func WithResolver(r Resolver) Option {
	return func(c *Catalog) {
		if r != nil {
			c.resolver = r
		}
	}
}

// WithFactory sets the factory resolved groups are built with.
func WithFactory(f *layer.Factory) Option {
	return func(c *Catalog) {
		if f != nil {
			c.factory = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Catalog) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a catalog over groups. By default groups are resolved from
// that same list.
func New(groups []layer.GroupConfig, opts ...Option) *Catalog {
	c := &Catalog{
		groups:   slices.Clone(groups),
		log:      logrus.StandardLogger(),
		inFlight: make(map[flightKey]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.factory == nil {
		c.factory = layer.NewFactory(layer.WithFactoryLogger(c.log))
	}
	if c.resolver == nil {
		c.resolver = ResolverFunc(c.lookup)
	}
	return c
}

// Items lists the catalog. Active is set for groups present on t; t may
// be nil.
func (c *Catalog) Items(t Target) []Item {
	items := make([]Item, 0, len(c.groups))
	for _, g := range c.groups {
		it := Item{
			Name:        g.Name,
			Title:       g.Title,
			Abstract:    g.Abstract,
			MetadataURL: g.MetadataURL,
			Layers:      len(g.Layers),
		}
		if t != nil {
			_, it.Active = t.GetGroupByName(g.Name)
		}
		items = append(items, it)
	}
	return items
}

// Has reports whether name is a catalog group.
func (c *Catalog) Has(name string) bool {
	return slices.ContainsFunc(c.groups, func(g layer.GroupConfig) bool { return g.Name == name })
}

// Toggle removes the group named name from t if it is there, and otherwise
// resolves, builds and adds it. A toggle of the same name on the same
// target while another one is running fails with apperr.ErrInFlight.
func (c *Catalog) Toggle(ctx context.Context, t Target, name string) (Action, error) {
	key := flightKey{target: t, name: name}
	c.mu.Lock()
	if _, busy := c.inFlight[key]; busy {
		c.mu.Unlock()
		return "", fmt.Errorf("toggle %q: %w", name, apperr.ErrInFlight)
	}
	c.inFlight[key] = struct{}{}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.inFlight, key)
		c.mu.Unlock()
	}()

	// Resolution may block, so it runs before the target is locked. The
	// target decides add or remove again under its own lock.
	var cfg *layer.GroupConfig
	if _, ok := t.GetGroupByName(name); !ok {
		resolved, err := c.resolve(ctx, name)
		if err != nil {
			return "", err
		}
		cfg = &resolved
	}

	removed, err := t.SwapGroup(name, func() (*layer.Group, error) {
		if cfg == nil {
			// Removed by someone else since the check above.
			resolved, err := c.resolve(ctx, name)
			if err != nil {
				return nil, err
			}
			cfg = &resolved
		}
		return c.factory.CreateGroup(*cfg), nil
	})
	if err != nil {
		return "", err
	}
	if removed {
		c.log.WithField("group", name).Info("catalog group removed")
		return Removed, nil
	}
	c.log.WithField("group", name).Info("catalog group added")
	return Added, nil
}

func (c *Catalog) resolve(ctx context.Context, name string) (layer.GroupConfig, error) {
	cfg, err := c.resolver.Resolve(ctx, name)
	if err != nil {
		return layer.GroupConfig{}, fmt.Errorf("resolve catalog group %q: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return layer.GroupConfig{}, err
	}
	return cfg, nil
}

func (c *Catalog) lookup(_ context.Context, name string) (layer.GroupConfig, error) {
	for _, g := range c.groups {
		if g.Name == name {
			return g, nil
		}
	}
	return layer.GroupConfig{}, fmt.Errorf("catalog group %q: %w", name, apperr.ErrNotFound)
}
