package mailtmpl

import (
	"context"
	"io/fs"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/mailkit/pkg/logger"
)

// Registry owns the id to spec mapping and keeps it consistent with the
// backend's loaded state: a spec is registered exactly when it is loaded.
//
// Mutations (Insert, Remove, LoadTemplates, ForEachMut) take an exclusive lock;
// lookups and renders take a shared one.
type Registry struct {
	backend     Backend
	specs       map[string]*Spec
	logger      *slog.Logger
	mu          sync.RWMutex
	fixNewlines bool
}

// NewRegistry creates an empty registry on top of backend.
func NewRegistry(backend Backend, opts ...Option) *Registry {
	r := &Registry{
		backend:     backend,
		specs:       make(map[string]*Spec),
		logger:      logger.NewNope(),
		fixNewlines: !backend.ProducesValidNewlines(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backend returns the rendering backend.
func (r *Registry) Backend() Backend {
	return r.backend
}

// SetFixNewlines turns newline normalization of rendered bodies on or off.
func (r *Registry) SetFixNewlines(fix bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixNewlines = fix
}

// FixesNewlines reports whether rendered bodies are newline-normalized.
func (r *Registry) FixesNewlines() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fixNewlines
}

// Insert registers spec under id and loads it into the backend.
//
// If id is unused and loading fails, nothing is stored. If id is in use, the
// old spec is swapped out and unloaded before the new one is loaded; on
// success the old spec is returned. If that load fails the id is removed.
//
// Whenever Insert returns an error the id is unregistered afterwards. The
// error is an *InsertionError carrying the failed spec and, when one was
// replaced, the old spec. The old spec's backend state is already gone at that
// point and the registry will not restore it.
func (r *Registry) Insert(id string, spec *Spec) (*Spec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, exists := r.specs[id]
	if !exists {
		if err := r.backend.Load(spec); err != nil {
			r.logger.Warn("template spec load failed",
				slog.String("template_id", id),
				slog.String("error", err.Error()),
			)
			return nil, &InsertionError{ID: id, Err: err, Failed: spec}
		}
		r.specs[id] = spec
		r.logger.Debug("template spec inserted", slog.String("template_id", id))
		return nil, nil
	}

	r.specs[id] = spec
	r.backend.Unload(old)
	if err := r.backend.Load(spec); err != nil {
		delete(r.specs, id)
		r.logger.Warn("template spec replacement failed, id removed",
			slog.String("template_id", id),
			slog.String("error", err.Error()),
		)
		return nil, &InsertionError{ID: id, Err: err, Failed: spec, Old: old}
	}

	r.logger.Debug("template spec replaced", slog.String("template_id", id))
	return old, nil
}

// Remove unloads and unregisters the spec under id.
// It reports false and does nothing if id is unused.
func (r *Registry) Remove(id string) (*Spec, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	spec, ok := r.specs[id]
	if !ok {
		return nil, false
	}

	delete(r.specs, id)
	r.backend.Unload(spec)
	r.logger.Debug("template spec removed", slog.String("template_id", id))
	return spec, true
}

// Lookup returns the spec registered under id.
func (r *Registry) Lookup(id string) (*Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[id]
	return spec, ok
}

// Len returns the number of registered specs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.specs)
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.specs))
}

// All iterates over a snapshot of the registered (id, spec) pairs in id order.
// The registry may be mutated while iterating.
func (r *Registry) All() iter.Seq2[string, *Spec] {
	r.mu.RLock()
	snapshot := maps.Clone(r.specs)
	r.mu.RUnlock()

	return func(yield func(string, *Spec) bool) {
		for _, id := range slices.Sorted(maps.Keys(snapshot)) {
			if !yield(id, snapshot[id]) {
				return
			}
		}
	}
}

// ForEachMut calls fn for every registered spec while holding the exclusive
// lock. fn may edit metadata, embeddings, and attachments, but must not
// change Bodies: the backend keys loaded templates on them. fn must not call
// back into the registry.
func (r *Registry) ForEachMut(fn func(id string, spec *Spec)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, spec := range r.specs {
		fn(id, spec)
	}
}

// LoadTemplates reads every spec directory under fsys and inserts the specs
// in id order. It stops at the first failure and returns it; specs inserted
// before the failure stay registered.
func (r *Registry) LoadTemplates(ctx context.Context, fsys fs.FS, settings *LoadSettings) error {
	specs, err := FromDirs(ctx, fsys, settings)
	if err != nil {
		return err
	}

	for _, named := range specs {
		if _, err := r.Insert(named.ID, named.Spec); err != nil {
			return err
		}
	}

	r.logger.InfoContext(ctx, "template specs loaded", slog.Int("count", len(specs)))
	return nil
}
