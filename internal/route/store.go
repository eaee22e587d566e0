// Package route holds the in-memory catalog of autorun routes. The
// catalog is a recoverable cache over the controller's server-held
// configuration; it is never persisted here.
package route

import (
	"errors"
	"fmt"
	"sync"

	"github.com/motion-console/backend/internal/models"
)

var (
	// ErrNotFound is returned for lookups of unknown route names.
	ErrNotFound = errors.New("route not found")
	// ErrEmptyName rejects rename/select with an empty name.
	ErrEmptyName = errors.New("route name must not be empty")
	// ErrDuplicateName rejects a rename that would collide with
	// another route.
	ErrDuplicateName = errors.New("route name already in use")
)

// Store is the route catalog. Invariants held after every mutation:
// no two entries share a name, the catalog is never empty, and a
// current selection always exists.
type Store struct {
	mu       sync.RWMutex
	routes   []*models.Route
	selected string
}

// NewStore creates a store seeded with the default route.
func NewStore() *Store {
	s := &Store{}
	s.routes = []*models.Route{models.DefaultRoute()}
	s.selected = s.routes[0].Name
	return s
}

// Load replaces the catalog with the server-held routes, seeding the
// default when the server returns none. The previous selection is kept
// when its name survives the reload, otherwise it falls to the first
// route.
func (s *Store) Load(routes []*models.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replacement := make([]*models.Route, 0, len(routes))
	seen := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		if r == nil || r.Name == "" {
			continue
		}
		if _, dup := seen[r.Name]; dup {
			continue
		}
		seen[r.Name] = struct{}{}
		replacement = append(replacement, r.Clone())
	}
	if len(replacement) == 0 {
		replacement = []*models.Route{models.DefaultRoute()}
	}
	s.routes = replacement
	if _, ok := s.indexOf(s.selected); !ok {
		s.selected = s.routes[0].Name
	}
}

// List returns the catalog in insertion order. The returned routes are
// copies; mutating them does not touch the catalog.
func (s *Store) List() []*models.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Route, len(s.routes))
	for i, r := range s.routes {
		out[i] = r.Clone()
	}
	return out
}

// Get looks up a route by exact name.
func (s *Store) Get(name string) (*models.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.indexOf(name)
	if !ok {
		return nil, ErrNotFound
	}
	return s.routes[i].Clone(), nil
}

// Upsert replaces the route with the same name wholesale, or appends
// when the name is new. A route saved with an empty name gets the
// default name. This is the sole edit path, so a bad edit can never
// partially corrupt an existing route.
func (s *Store) Upsert(r *models.Route) *models.Route {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := r.Clone()
	if stored.Name == "" {
		stored.Name = models.DefaultRouteName
	}
	if stored.Points == nil {
		stored.Points = []models.RoutePoint{}
	}
	if i, ok := s.indexOf(stored.Name); ok {
		s.routes[i] = stored
	} else {
		s.routes = append(s.routes, stored)
	}
	return stored.Clone()
}

// Create appends a route with a fresh generated name and catalog
// defaults. Name generation probes route-<n> from len+1 upward,
// skipping any name already taken.
func (s *Store) Create() *models.Route {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := ""
	for n := len(s.routes) + 1; ; n++ {
		candidate := fmt.Sprintf("route-%d", n)
		if _, taken := s.indexOf(candidate); !taken {
			name = candidate
			break
		}
	}
	r := models.DefaultRoute()
	r.Name = name
	s.routes = append(s.routes, r)
	return r.Clone()
}

// Rename changes a route's name. Renaming to the current name is a
// no-op success; an empty or colliding new name fails without touching
// the catalog. A selected route keeps its selection under the new name.
func (s *Store) Rename(name, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newName == "" {
		return ErrEmptyName
	}
	i, ok := s.indexOf(name)
	if !ok {
		return ErrNotFound
	}
	if newName == name {
		return nil
	}
	if _, taken := s.indexOf(newName); taken {
		return ErrDuplicateName
	}
	s.routes[i].Name = newName
	if s.selected == name {
		s.selected = newName
	}
	return nil
}

// Delete removes a route by name. When the last route is deleted the
// default is reseeded so the catalog, and therefore the run-selection
// UI, is never empty.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexOf(name)
	if !ok {
		return ErrNotFound
	}
	s.routes = append(s.routes[:i], s.routes[i+1:]...)
	if len(s.routes) == 0 {
		s.routes = []*models.Route{models.DefaultRoute()}
	}
	if s.selected == name {
		s.selected = s.routes[0].Name
	}
	return nil
}

// Select sets the current route by name.
func (s *Store) Select(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		return ErrEmptyName
	}
	if _, ok := s.indexOf(name); !ok {
		return ErrNotFound
	}
	s.selected = name
	return nil
}

// Selected returns the current route. The selection invariant
// guarantees one always exists.
func (s *Store) Selected() *models.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i, ok := s.indexOf(s.selected); ok {
		return s.routes[i].Clone()
	}
	return s.routes[0].Clone()
}

// SelectedName returns the current selection's name.
func (s *Store) SelectedName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// indexOf finds a route by name. Callers must hold at least the read
// lock.
func (s *Store) indexOf(name string) (int, bool) {
	for i, r := range s.routes {
		if r.Name == name {
			return i, true
		}
	}
	return 0, false
}
