package mailtmpl_test

import (
	"context"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl/mailtmpltest"
	"github.com/dmitrymomot/mailkit/pkg/resource"
)

func welcomeFS() fstest.MapFS {
	return fstest.MapFS{
		"welcome/spec.yaml": {Data: []byte(
			"subject: Welcome aboard\n" +
				"embeddings:\n" +
				"  - name: hero\n" +
				"    key: images/hero.png\n",
		)},
		"welcome/logo.png":              {Data: []byte("\x89PNG logo")},
		"welcome/guide.txt":             {Data: []byte("guide")},
		"welcome/html/mail.html":        {Data: []byte("---\nsubject: ignored\npreheader: Hi\n---\n<p>Hello {{embed:logo}} {{embed:banner}}</p>")},
		"welcome/html/banner.png":       {Data: []byte("\x89PNG banner")},
		"welcome/text/mail.txt":         {Data: []byte("Hello")},
		"welcome/attachments/terms.pdf": {Data: []byte("%PDF terms")},
		"welcome/.DS_Store":             {Data: []byte("junk")},
		".git/HEAD":                     {Data: []byte("ref")},
		"reset/text/mail.txt":           {Data: []byte("Reset your password")},
	}
}

func heroSource() resource.Source {
	return resource.SourceFunc(func(_ context.Context, key string) (resource.Resource, error) {
		if key != "images/hero.png" {
			return resource.Resource{}, fmt.Errorf("%w: %s", resource.ErrNotFound, key)
		}
		return resource.New("hero.png", "image/png", []byte("hero")), nil
	})
}

func TestFromDirs(t *testing.T) {
	t.Parallel()

	fsys := welcomeFS()

	specs, err := mailtmpl.FromDirs(context.Background(), fsys, &mailtmpl.LoadSettings{Remote: heroSource()})
	require.NoError(t, err)
	require.Len(t, specs, 2)
	require.Equal(t, "reset", specs[0].ID)
	require.Equal(t, "welcome", specs[1].ID)

	spec := specs[1].Spec

	require.Len(t, spec.Bodies, 2)
	require.Equal(t, "text/plain; charset=utf-8", spec.Bodies[0].MediaType)
	require.Equal(t, "Hello", spec.Bodies[0].Source.String())
	require.Equal(t, "text/html; charset=utf-8", spec.Bodies[1].MediaType)
	require.Equal(t, "<p>Hello {{embed:logo}} {{embed:banner}}</p>", spec.Bodies[1].Source.String())

	require.Equal(t, "Welcome aboard", spec.Metadata["subject"], "spec.yaml wins over frontmatter")
	require.Equal(t, "Hi", spec.Metadata["preheader"])

	require.Equal(t, []string{"guide", "hero", "logo"}, spec.Embeddings.Names())
	require.Equal(t, "hero", spec.Embeddings["hero"].String())
	require.Equal(t, []string{"banner"}, spec.Bodies[1].Embeddings.Names())
	require.Empty(t, spec.Bodies[0].Embeddings)

	require.Len(t, spec.Attachments, 1)
	require.Equal(t, "terms.pdf", spec.Attachments[0].Name())
}

func TestFromDirs_DividerLineIsNotFrontmatter(t *testing.T) {
	t.Parallel()

	receipt := "----------------------------\nYour receipt\n----------------------------\nTotal: {{.Total}}\n"
	fsys := fstest.MapFS{
		"receipt/text/mail.txt": {Data: []byte(receipt)},
	}

	specs, err := mailtmpl.FromDirs(context.Background(), fsys, nil)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	require.Empty(t, specs[0].Spec.Metadata)
	require.Equal(t, receipt, specs[0].Spec.Bodies[0].Source.String())
}

func TestFromDirs_SpecFileAttachments(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"invoice/text/mail.txt": {Data: []byte("Invoice")},
		"invoice/guide.md":      {Data: []byte("# Guide")},
		"invoice/spec.yaml": {Data: []byte(
			"attachments:\n" +
				"  - path: guide.md\n" +
				"    name: handbook.md\n" +
				"    media_type: text/markdown\n",
		)},
	}

	specs, err := mailtmpl.FromDirs(context.Background(), fsys, nil)
	require.NoError(t, err)
	require.Len(t, specs, 1)

	spec := specs[0].Spec
	require.Len(t, spec.Attachments, 1)
	require.Equal(t, "handbook.md", spec.Attachments[0].Name())
	require.Equal(t, "text/markdown", spec.Attachments[0].MediaType())
	require.Equal(t, "# Guide", spec.Attachments[0].String())
}

func TestFromDirs_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fsys    fstest.MapFS
		wantErr error
	}{
		{
			name:    "no body variant",
			fsys:    fstest.MapFS{"empty/logo.png": {Data: []byte("x")}},
			wantErr: mailtmpl.ErrInvalidSpec,
		},
		{
			name:    "body dir without template",
			fsys:    fstest.MapFS{"broken/html/banner.png": {Data: []byte("x")}},
			wantErr: mailtmpl.ErrInvalidSpec,
		},
		{
			name: "two templates in one body dir",
			fsys: fstest.MapFS{
				"dup/html/mail.html": {Data: []byte("a")},
				"dup/html/mail.htm":  {Data: []byte("b")},
			},
			wantErr: mailtmpl.ErrInvalidSpec,
		},
		{
			name: "duplicate embedding name",
			fsys: fstest.MapFS{
				"dup/logo.png":      {Data: []byte("a")},
				"dup/logo.jpg":      {Data: []byte("b")},
				"dup/text/mail.txt": {Data: []byte("c")},
			},
			wantErr: mailtmpl.ErrInvalidSpec,
		},
		{
			name: "bad frontmatter",
			fsys: fstest.MapFS{
				"bad/text/mail.txt": {Data: []byte("---\nsubject: x\n")},
			},
			wantErr: mailtmpl.ErrInvalidFrontmatter,
		},
		{
			name: "remote key without source",
			fsys: fstest.MapFS{
				"remote/text/mail.txt": {Data: []byte("hi")},
				"remote/spec.yaml":     {Data: []byte("embeddings:\n  - key: hero.png\n")},
			},
			wantErr: mailtmpl.ErrNoRemoteSource,
		},
		{
			name: "missing referenced file",
			fsys: fstest.MapFS{
				"ref/text/mail.txt": {Data: []byte("hi")},
				"ref/spec.yaml":     {Data: []byte("attachments:\n  - path: nope.pdf\n")},
			},
			wantErr: resource.ErrNotFound,
		},
		{
			name: "reference with path and key",
			fsys: fstest.MapFS{
				"ref/text/mail.txt": {Data: []byte("hi")},
				"ref/spec.yaml":     {Data: []byte("attachments:\n  - path: a.pdf\n    key: b.pdf\n")},
			},
			wantErr: mailtmpl.ErrInvalidSpec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			specs, err := mailtmpl.FromDirs(context.Background(), tt.fsys, nil)
			require.Nil(t, specs)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegistry_LoadTemplates(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"reset/text/mail.txt":   {Data: []byte("Reset")},
		"welcome/text/mail.txt": {Data: []byte("Hi {{embed:logo}}")},
		"welcome/logo.png":      {Data: []byte("logo")},
	}

	backend := mailtmpltest.New(false)
	reg := mailtmpl.NewRegistry(backend)
	require.NoError(t, reg.LoadTemplates(context.Background(), fsys, nil))
	require.Equal(t, []string{"reset", "welcome"}, reg.IDs())
	require.Equal(t, 2, backend.LoadedCount())

	parts, err := reg.UseTemplate("welcome", nil, sequentialIDs())
	require.NoError(t, err)
	require.Equal(t, "Hi cid:cid-1@test", parts.Bodies[0].Resource.String())
}

func TestRegistry_LoadTemplatesStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"a/text/mail.txt": {Data: []byte("a")},
		"b/text/mail.txt": {Data: []byte("b")},
		"c/text/mail.txt": {Data: []byte("c")},
	}

	backend := mailtmpltest.New(false)
	backend.FailLoad = func(spec *mailtmpl.Spec) error {
		if spec.Bodies[0].Source.String() == "b" {
			return mailtmpl.ErrLoadFailed
		}
		return nil
	}

	reg := mailtmpl.NewRegistry(backend)
	err := reg.LoadTemplates(context.Background(), fsys, nil)
	require.ErrorIs(t, err, mailtmpl.ErrLoadFailed)

	var insErr *mailtmpl.InsertionError
	require.ErrorAs(t, err, &insErr)
	require.Equal(t, "b", insErr.ID)
	require.Equal(t, []string{"a"}, reg.IDs())
}
