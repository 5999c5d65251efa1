// Package session ties schema parsing, storage initialization, and table
// operation building into one reconfigurable unit. A Session owns no global
// state: the storage registry is injected, the encryption key lives only in
// memory, and every reconfiguration swaps the whole derived state atomically.
package session

import (
	"context"
	"sync"

	"github.com/sealdb/sealdb/internal/crypto"
	"github.com/sealdb/sealdb/internal/errors"
	"github.com/sealdb/sealdb/internal/logging"
	"github.com/sealdb/sealdb/internal/schema"
	"github.com/sealdb/sealdb/internal/storage"
	"github.com/sealdb/sealdb/internal/table"
)

// Config names the storage to open, the schema to apply, and the optional
// encryption key. A nil key means plaintext storage.
type Config struct {
	StorageName string
	SchemaText  string
	Key         *crypto.Key
}

// Session is the top-level data-access handle. It is safe for concurrent use:
// reads see either the previous configuration or the new one, never a mix.
type Session struct {
	registry *storage.Registry

	mu         sync.RWMutex
	generation uint64
	engine     *storage.Engine
	tables     []schema.Table
	ops        map[string]*table.Operations
	initErr    error
	ready      bool
}

// New creates a session bound to the registry and applies the initial
// configuration. The returned session is usable even when initialization
// failed; Ready and InitError report the outcome.
func New(ctx context.Context, registry *storage.Registry, cfg Config) (*Session, error) {
	if registry == nil {
		return nil, errors.New(errors.ErrTypeConfig, "session requires a storage registry")
	}

	s := &Session{registry: registry}

	return s, s.Reconfigure(ctx, cfg)
}

// Reconfigure re-derives the session state from a new configuration: open the
// engine, initialize the schema, rebuild the table operations. Concurrent
// calls are safe; when calls overlap, only the most recent one publishes its
// result and earlier ones discard theirs.
func (s *Session) Reconfigure(ctx context.Context, cfg Config) error {
	if cfg.StorageName == "" {
		return errors.New(errors.ErrTypeConfig, "storage name must not be empty")
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	engine, tables, ops, err := s.initialize(ctx, cfg)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		logging.Debugf("discarding superseded session init for %q", cfg.StorageName)
		return nil
	}

	if err != nil {
		s.initErr = err
		s.ready = false

		return err
	}

	s.engine = engine
	s.tables = tables
	s.ops = ops
	s.initErr = nil
	s.ready = true

	logging.Infof("session ready: storage=%s tables=%d encrypted=%t",
		cfg.StorageName, len(tables), cfg.Key != nil)

	return nil
}

// initialize performs the awaitable part of reconfiguration outside the lock.
// The schema is parsed before any storage work so table-less schema text
// surfaces as a schema error, not as whatever the engine makes of the DDL.
func (s *Session) initialize(ctx context.Context, cfg Config) (*storage.Engine, []schema.Table, map[string]*table.Operations, error) {
	tables := schema.ParseSchema(cfg.SchemaText)
	if len(tables) == 0 {
		return nil, nil, nil, errors.New(errors.ErrTypeSchema, "schema text declares no tables")
	}

	engine, err := s.registry.Open(cfg.StorageName)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := storage.Initialize(ctx, engine, cfg.SchemaText); err != nil {
		return nil, nil, nil, err
	}

	return engine, tables, table.Build(engine, tables, cfg.Key), nil
}

// Table returns the operations for the named table, if the session is ready
// and the table exists.
func (s *Session) Table(name string) (*table.Operations, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil, false
	}

	ops, ok := s.ops[name]

	return ops, ok
}

// Tables returns the table names of the current configuration in declaration
// order. Empty when the session is not ready.
func (s *Session) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil
	}

	names := make([]string, 0, len(s.tables))
	for _, t := range s.tables {
		names = append(names, t.Name)
	}

	return names
}

// Schema returns the parsed table descriptors of the current configuration.
// Like Table and Tables, it reports nothing while the session is not ready.
func (s *Session) Schema() []schema.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil
	}

	out := make([]schema.Table, len(s.tables))
	copy(out, s.tables)

	return out
}

// Engine returns the storage engine behind the session, or nil before the
// first successful initialization.
func (s *Session) Engine() *storage.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.engine
}

// Ready reports whether the last reconfiguration succeeded
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ready
}

// InitError returns the error from the last reconfiguration, nil on success
func (s *Session) InitError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.initErr
}
