package configurator

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store
type MemoryStore struct {
	mu        sync.RWMutex
	apps      map[int64]*Application
	variables map[int64][]Variable
	nextID    map[string]int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		apps:      make(map[int64]*Application),
		variables: make(map[int64][]Variable),
		nextID:    map[string]int64{"app": 1, "variable": 1},
	}
}

func (s *MemoryStore) List(ctx context.Context) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Application, 0, len(s.apps))
	for _, a := range s.apps {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) Create(ctx context.Context, app *Application) error {
	if err := app.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	app.ID = s.nextID["app"]
	s.nextID["app"]++
	app.CreatedAt, app.UpdatedAt = now, now
	cp := *app
	s.apps[app.ID] = &cp
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, app *Application) error {
	if err := app.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.apps[app.ID]
	if !ok {
		return ErrNotFound
	}
	app.CreatedAt = existing.CreatedAt
	app.UpdatedAt = time.Now()
	cp := *app
	s.apps[app.ID] = &cp
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[id]; !ok {
		return ErrNotFound
	}
	delete(s.apps, id)
	delete(s.variables, id)
	return nil
}

func (s *MemoryStore) Variables(ctx context.Context, appID int64) ([]Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.apps[appID]; !ok {
		return nil, ErrNotFound
	}
	return append([]Variable(nil), s.variables[appID]...), nil
}

// SetVariable adds the variable, or replaces the value of an existing key.
func (s *MemoryStore) SetVariable(ctx context.Context, v *Variable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[v.ApplicationID]; !ok {
		return ErrNotFound
	}
	vars := s.variables[v.ApplicationID]
	for i := range vars {
		if vars[i].Key == v.Key {
			vars[i].Value = v.Value
			v.ID = vars[i].ID
			return nil
		}
	}
	v.ID = s.nextID["variable"]
	s.nextID["variable"]++
	s.variables[v.ApplicationID] = append(vars, *v)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
