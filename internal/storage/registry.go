package storage

import (
	"sync"

	"github.com/sealdb/sealdb/internal/logging"
)

// Registry hands out at most one Engine per storage name. It replaces ambient
// module-level state: callers construct a Registry, inject it, and own its
// lifecycle.
type Registry struct {
	mu      sync.Mutex
	dir     string
	pool    Pool
	engines map[string]*Engine
}

// NewRegistry creates a registry whose database files live under dir
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:     dir,
		pool:    DefaultPool,
		engines: make(map[string]*Engine),
	}
}

// SetPool overrides the connection pool settings applied to engines opened
// after the call. Already-open engines keep their settings.
func (r *Registry) SetPool(pool Pool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pool = pool
}

// Open returns the engine for a storage name, reusing a live one when present.
// Reusing the same name always yields the same underlying data.
func (r *Registry) Open(name string) (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if engine, ok := r.engines[name]; ok {
		return engine, nil
	}

	engine, err := openEngine(name, r.dir, r.pool)
	if err != nil {
		return nil, err
	}

	r.engines[name] = engine
	logging.Debugf("opened storage engine %q at %s", name, engine.Path())

	return engine, nil
}

// Close closes and forgets the named engine
func (r *Registry) Close(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	engine, ok := r.engines[name]
	if !ok {
		return nil
	}

	delete(r.engines, name)

	return engine.Close()
}

// CloseAll closes every open engine, returning the first error encountered
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error

	for name, engine := range r.engines {
		if err := engine.Close(); err != nil && firstErr == nil {
			firstErr = err
		}

		delete(r.engines, name)
	}

	return firstErr
}
