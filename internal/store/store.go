// Package store persists whole collections of JSON-serialisable records
// behind a pluggable backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrNotFound = errors.New("store: collection not found")

// Backend stores one opaque payload per collection name. Save must replace
// the previous payload in a single step.
type Backend interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, payload []byte) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Store struct {
	backend Backend
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend: backend,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.backend.Close(ctx)
}

func (s *Store) lock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// Collection is a typed view over one named collection.
type Collection[T any] struct {
	store    *Store
	name     string
	legacy   string
	fallback func() []T
}

func NewCollection[T any](s *Store, name string) *Collection[T] {
	return &Collection[T]{store: s, name: name}
}

// WithLegacy makes Get read from an older key while the primary one is absent.
func (c *Collection[T]) WithLegacy(name string) *Collection[T] {
	c.legacy = name
	return c
}

// WithDefault sets the value returned when nothing usable is persisted.
func (c *Collection[T]) WithDefault(fn func() []T) *Collection[T] {
	c.fallback = fn
	return c
}

func (c *Collection[T]) Name() string {
	return c.name
}

// Get returns the persisted items. Missing or malformed data yields the
// default; only backend failures are returned as errors.
func (c *Collection[T]) Get(ctx context.Context) ([]T, error) {
	items, err := c.load(ctx, c.name)
	if errors.Is(err, ErrNotFound) && c.legacy != "" {
		items, err = c.load(ctx, c.legacy)
	}
	if errors.Is(err, ErrNotFound) {
		return c.defaults(), nil
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Set overwrites the whole collection.
func (c *Collection[T]) Set(ctx context.Context, items []T) error {
	l := c.store.lock(c.name)
	l.Lock()
	defer l.Unlock()
	return c.save(ctx, items)
}

// Update runs a read-modify-write cycle while holding the collection lock.
// Returning an error from fn aborts without writing.
func (c *Collection[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	l := c.store.lock(c.name)
	l.Lock()
	defer l.Unlock()

	items, err := c.Get(ctx)
	if err != nil {
		return err
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	return c.save(ctx, next)
}

func (c *Collection[T]) load(ctx context.Context, name string) ([]T, error) {
	raw, err := c.store.backend.Load(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		c.store.logger.Warn("discarding malformed collection", "collection", name, "error", err)
		return nil, ErrNotFound
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	if err := c.store.backend.Save(ctx, c.name, raw); err != nil {
		c.store.logger.Error("failed to save collection", "collection", c.name, "error", err)
		return fmt.Errorf("save %s: %w", c.name, err)
	}
	return nil
}

func (c *Collection[T]) defaults() []T {
	if c.fallback != nil {
		return c.fallback()
	}
	return []T{}
}

// Document is a singleton object stored under one key.
type Document[T any] struct {
	store *Store
	name  string
}

func NewDocument[T any](s *Store, name string) *Document[T] {
	return &Document[T]{store: s, name: name}
}

// Get returns the zero value when the document is missing or malformed.
func (d *Document[T]) Get(ctx context.Context) (T, error) {
	var v T
	raw, err := d.store.backend.Load(ctx, d.name)
	if errors.Is(err, ErrNotFound) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("load %s: %w", d.name, err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		d.store.logger.Warn("discarding malformed document", "document", d.name, "error", err)
		var zero T
		return zero, nil
	}
	return v, nil
}

func (d *Document[T]) Set(ctx context.Context, v T) error {
	l := d.store.lock(d.name)
	l.Lock()
	defer l.Unlock()

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.name, err)
	}
	if err := d.store.backend.Save(ctx, d.name, raw); err != nil {
		return fmt.Errorf("save %s: %w", d.name, err)
	}
	return nil
}
