package mailtmpl

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/mailkit/pkg/resource"
)

// LoadSettings controls how FromDirs maps a directory tree to specs.
type LoadSettings struct {
	// Remote resolves `key:` references in the metadata file. Optional.
	Remote resource.Source

	// MediaTypes maps template file extensions to the media type of the rendered body.
	MediaTypes map[string]string

	// TemplateBaseName is the file stem marking a body variant directory. Default: "mail".
	TemplateBaseName string

	// MetadataFile is the optional per-spec YAML file. Default: "spec.yaml".
	MetadataFile string

	// AttachmentsDir holds a spec's attachments. Default: "attachments".
	AttachmentsDir string

	// Order ranks body media types; unlisted types come last. Default: text/plain, text/html.
	Order []string
}

// DefaultLoadSettings returns the settings used when nil is passed to FromDirs.
func DefaultLoadSettings() *LoadSettings {
	return &LoadSettings{
		TemplateBaseName: "mail",
		MetadataFile:     "spec.yaml",
		AttachmentsDir:   "attachments",
		MediaTypes: map[string]string{
			".txt":  "text/plain; charset=utf-8",
			".text": "text/plain; charset=utf-8",
			".html": "text/html; charset=utf-8",
			".htm":  "text/html; charset=utf-8",
			".md":   "text/html; charset=utf-8",
		},
		Order: []string{resource.MediaTypeText, resource.MediaTypeHTML},
	}
}

func (s *LoadSettings) withDefaults() *LoadSettings {
	def := DefaultLoadSettings()
	if s == nil {
		return def
	}
	out := *s
	if out.TemplateBaseName == "" {
		out.TemplateBaseName = def.TemplateBaseName
	}
	if out.MetadataFile == "" {
		out.MetadataFile = def.MetadataFile
	}
	if out.AttachmentsDir == "" {
		out.AttachmentsDir = def.AttachmentsDir
	}
	if len(out.MediaTypes) == 0 {
		out.MediaTypes = def.MediaTypes
	}
	if len(out.Order) == 0 {
		out.Order = def.Order
	}
	return &out
}

// NamedSpec is a spec paired with the id it should be registered under.
type NamedSpec struct {
	Spec *Spec
	ID   string
}

// specFile is the schema of the per-spec metadata file.
type specFile struct {
	Metadata    map[string]any `yaml:",inline"`
	Embeddings  []resourceRef  `yaml:"embeddings"`
	Attachments []resourceRef  `yaml:"attachments"`
}

// resourceRef points at a file inside the spec directory or at a remote key.
type resourceRef struct {
	Name      string `yaml:"name"`
	Path      string `yaml:"path"`
	Key       string `yaml:"key"`
	MediaType string `yaml:"media_type"`
}

// FromDirs treats every top-level directory of fsys as one spec named after
// the directory and returns the specs sorted by id.
//
// Inside a spec directory:
//
//	spec.yaml              optional metadata, extra embeddings and attachments
//	logo.png               shared embedding "logo"
//	text/mail.txt          body variant (text/plain)
//	html/mail.html         body variant (text/html)
//	html/banner.png        embedding "banner", local to the html variant
//	attachments/terms.pdf  attachment
//
// Template files may begin with YAML frontmatter, which is merged into the
// spec metadata. Values from spec.yaml take precedence.
func FromDirs(ctx context.Context, fsys fs.FS, settings *LoadSettings) ([]NamedSpec, error) {
	settings = settings.withDefaults()

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading template root: %w", err)
	}

	var specs []NamedSpec
	for _, entry := range entries {
		if !entry.IsDir() || isHidden(entry.Name()) {
			continue
		}

		spec, err := loadSpecDir(ctx, fsys, entry.Name(), settings)
		if err != nil {
			return nil, fmt.Errorf("loading spec %q: %w", entry.Name(), err)
		}
		specs = append(specs, NamedSpec{ID: entry.Name(), Spec: spec})
	}

	return specs, nil
}

func loadSpecDir(ctx context.Context, fsys fs.FS, dir string, settings *LoadSettings) (*Spec, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	spec := &Spec{
		Metadata:   map[string]any{},
		Embeddings: Embeddings{},
	}

	for _, entry := range entries {
		name := entry.Name()
		full := path.Join(dir, name)

		switch {
		case isHidden(name) || name == settings.MetadataFile:
			continue

		case entry.IsDir() && name == settings.AttachmentsDir:
			attachments, err := readFiles(fsys, full)
			if err != nil {
				return nil, err
			}
			spec.Attachments = append(spec.Attachments, attachments...)

		case entry.IsDir():
			body, metadata, err := loadBodyDir(fsys, full, settings)
			if err != nil {
				return nil, err
			}
			for k, v := range metadata {
				if _, set := spec.Metadata[k]; !set {
					spec.Metadata[k] = v
				}
			}
			spec.Bodies = append(spec.Bodies, body)

		default:
			res, err := resource.FromFile(fsys, full)
			if err != nil {
				return nil, err
			}
			if err := addEmbedding(spec.Embeddings, stem(name), res); err != nil {
				return nil, err
			}
		}
	}

	if len(spec.Bodies) == 0 {
		return nil, fmt.Errorf("%w: no body variant directory with a %q template", ErrInvalidSpec, settings.TemplateBaseName)
	}

	sortBodies(spec.Bodies, settings.Order)

	if err := applySpecFile(ctx, fsys, dir, spec, settings); err != nil {
		return nil, err
	}

	return spec, nil
}

// loadBodyDir reads one body variant directory: the template file plus local embeddings.
func loadBodyDir(fsys fs.FS, dir string, settings *LoadSettings) (BodyVariant, map[string]any, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return BodyVariant{}, nil, err
	}

	body := BodyVariant{Embeddings: Embeddings{}}
	var metadata map[string]any
	found := false

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || isHidden(name) {
			continue
		}
		full := path.Join(dir, name)

		if stem(name) == settings.TemplateBaseName {
			mediaType, ok := settings.MediaTypes[strings.ToLower(path.Ext(name))]
			if !ok {
				continue
			}
			if found {
				return BodyVariant{}, nil, fmt.Errorf("%w: %s has more than one template file", ErrInvalidSpec, dir)
			}

			raw, err := fs.ReadFile(fsys, full)
			if err != nil {
				return BodyVariant{}, nil, err
			}
			meta, source, err := splitFrontmatter(raw)
			if err != nil {
				return BodyVariant{}, nil, fmt.Errorf("%s: %w", full, err)
			}

			metadata = meta
			body.MediaType = mediaType
			body.Source = resource.New(full, resource.DetectMediaType(name, source), source)
			found = true
			continue
		}

		res, err := resource.FromFile(fsys, full)
		if err != nil {
			return BodyVariant{}, nil, err
		}
		if err := addEmbedding(body.Embeddings, stem(name), res); err != nil {
			return BodyVariant{}, nil, err
		}
	}

	if !found {
		return BodyVariant{}, nil, fmt.Errorf("%w: %s has no %q template", ErrInvalidSpec, dir, settings.TemplateBaseName)
	}

	return body, metadata, nil
}

// applySpecFile merges the optional metadata file into spec.
func applySpecFile(ctx context.Context, fsys fs.FS, dir string, spec *Spec, settings *LoadSettings) error {
	raw, err := fs.ReadFile(fsys, path.Join(dir, settings.MetadataFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var file specFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSpec, settings.MetadataFile, err)
	}

	for k, v := range file.Metadata {
		spec.Metadata[k] = v
	}

	for _, ref := range file.Embeddings {
		res, err := resolveRef(ctx, fsys, dir, ref, settings)
		if err != nil {
			return err
		}
		name := ref.Name
		if name == "" {
			name = stem(res.Name())
		}
		if err := addEmbedding(spec.Embeddings, name, res); err != nil {
			return err
		}
	}

	for _, ref := range file.Attachments {
		res, err := resolveRef(ctx, fsys, dir, ref, settings)
		if err != nil {
			return err
		}
		spec.Attachments = append(spec.Attachments, res)
	}

	return nil
}

func resolveRef(ctx context.Context, fsys fs.FS, dir string, ref resourceRef, settings *LoadSettings) (resource.Resource, error) {
	var (
		res resource.Resource
		err error
	)

	switch {
	case ref.Path != "" && ref.Key != "":
		return resource.Resource{}, fmt.Errorf("%w: reference sets both path and key", ErrInvalidSpec)
	case ref.Path != "":
		res, err = resource.FromFile(fsys, path.Join(dir, ref.Path))
	case ref.Key != "":
		if settings.Remote == nil {
			return resource.Resource{}, fmt.Errorf("%w: key %q", ErrNoRemoteSource, ref.Key)
		}
		res, err = settings.Remote.Open(ctx, ref.Key)
	default:
		return resource.Resource{}, fmt.Errorf("%w: reference needs a path or a key", ErrInvalidSpec)
	}
	if err != nil {
		return resource.Resource{}, err
	}

	if ref.Name != "" && ref.Name != res.Name() {
		res = resource.New(ref.Name, res.MediaType(), res.Bytes())
	}
	if ref.MediaType != "" {
		res = res.WithMediaType(ref.MediaType)
	}
	return res, nil
}

func readFiles(fsys fs.FS, dir string) ([]resource.Resource, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var out []resource.Resource
	for _, entry := range entries {
		if entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		res, err := resource.FromFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func addEmbedding(e Embeddings, name string, res resource.Resource) error {
	if _, dup := e[name]; dup {
		return fmt.Errorf("%w: duplicate embedding %q", ErrInvalidSpec, name)
	}
	e[name] = res
	return nil
}

// sortBodies orders bodies by media type rank, then by template path.
func sortBodies(bodies []BodyVariant, order []string) {
	rank := func(mediaType string) int {
		base := resource.BaseMediaType(mediaType)
		for i, mt := range order {
			if resource.BaseMediaType(mt) == base {
				return i
			}
		}
		return len(order)
	}

	slices.SortStableFunc(bodies, func(a, b BodyVariant) int {
		if c := cmp.Compare(rank(a.MediaType), rank(b.MediaType)); c != 0 {
			return c
		}
		return cmp.Compare(a.Source.Name(), b.Source.Name())
	})
}

func stem(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
