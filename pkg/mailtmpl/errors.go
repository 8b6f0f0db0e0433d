package mailtmpl

import (
	"errors"
	"fmt"
)

var (
	// ErrLoadFailed indicates a backend could not compile or register a spec's templates.
	ErrLoadFailed = errors.New("mailtmpl: failed to load templates")

	// ErrAlreadyLoaded indicates a backend was asked to load a spec it already holds.
	ErrAlreadyLoaded = errors.New("mailtmpl: spec already loaded")

	// ErrNotLoaded indicates a backend was asked to render a body it never loaded.
	ErrNotLoaded = errors.New("mailtmpl: body template not loaded")

	// ErrRenderFailed indicates rendering a body variant failed.
	ErrRenderFailed = errors.New("mailtmpl: failed to render template")

	// ErrUnknownTemplate indicates no spec is registered under the requested id.
	ErrUnknownTemplate = errors.New("mailtmpl: unknown template id")

	// ErrUnknownEmbedding indicates a template referenced an embedding that is in no scope.
	ErrUnknownEmbedding = errors.New("mailtmpl: unknown embedding")

	// ErrInvalidSpec indicates a template directory does not describe a valid spec.
	ErrInvalidSpec = errors.New("mailtmpl: invalid template spec")

	// ErrInvalidFrontmatter indicates malformed YAML frontmatter in a template file.
	ErrInvalidFrontmatter = errors.New("mailtmpl: invalid frontmatter")

	// ErrNoRemoteSource indicates spec.yaml referenced a remote key but no source was configured.
	ErrNoRemoteSource = errors.New("mailtmpl: remote resource source not configured")
)

// InsertionError is returned by Registry.Insert when the backend fails to load
// the new spec. It carries the spec that failed and, if the id was in use, the
// spec it replaced. The id is no longer registered when this error is returned,
// and the backend state of Old has already been released.
type InsertionError struct {
	Err    error
	Failed *Spec
	Old    *Spec
	ID     string
}

func (e *InsertionError) Error() string {
	return fmt.Sprintf("mailtmpl: inserting %q: %v", e.ID, e.Err)
}

func (e *InsertionError) Unwrap() error {
	return e.Err
}

// UnknownTemplateError builds the conventional "no such template" error.
// Backends use it to implement Backend.UnknownTemplateID.
func UnknownTemplateError(id string) error {
	return fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
}

// UnknownEmbeddingError builds the error returned when a template references
// an embedding name that none of the render scopes define.
func UnknownEmbeddingError(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownEmbedding, name)
}
