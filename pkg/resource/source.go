package resource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
)

// ErrNotFound is returned by sources when the key does not exist.
var ErrNotFound = errors.New("resource: not found")

// Source resolves resource keys into resources.
type Source interface {
	// Open returns the resource stored under key.
	// Implementations wrap ErrNotFound when the key is unknown.
	Open(ctx context.Context, key string) (Resource, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, key string) (Resource, error)

// Open implements Source.
func (f SourceFunc) Open(ctx context.Context, key string) (Resource, error) {
	return f(ctx, key)
}

// FSSource serves resources from an fs.FS.
type FSSource struct {
	FS fs.FS
}

// Open implements Source.
func (s FSSource) Open(_ context.Context, key string) (Resource, error) {
	return FromFile(s.FS, key)
}

// FromFile reads a file from fsys into a resource named after its base name.
func FromFile(fsys fs.FS, name string) (Resource, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Resource{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Resource{}, fmt.Errorf("reading %q: %w", name, err)
	}
	base := path.Base(name)
	return New(base, DetectMediaType(base, data), data), nil
}
