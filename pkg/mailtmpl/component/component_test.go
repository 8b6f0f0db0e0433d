package component_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl/component"
	"github.com/dmitrymomot/mailkit/pkg/resource"
)

func textComponent(data any, _ mailtmpl.Scopes) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "Hello "+data.(string)+"\nBye\n")
		return err
	})
}

func htmlComponent(data any, scopes mailtmpl.Scopes) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p>`+templ.EscapeString(data.(string))+`</p><img src="`+string(component.CID(scopes, "logo"))+`">`)
		return err
	})
}

func componentSpec() *mailtmpl.Spec {
	return &mailtmpl.Spec{
		Embeddings: mailtmpl.Embeddings{"logo": resource.FromString("logo.png", "image/png", "png")},
		Bodies: []mailtmpl.BodyVariant{
			{MediaType: "text/plain; charset=utf-8", Source: resource.FromString("text", "", "welcome.text")},
			{MediaType: "text/html; charset=utf-8", Source: resource.FromString("html", "", " welcome.html\n")},
		},
	}
}

func TestBackend_Render(t *testing.T) {
	t.Parallel()

	backend := component.New(component.WithComponents(map[string]component.Factory{
		"welcome.text": textComponent,
	}))
	backend.Register("welcome.html", htmlComponent)

	reg := mailtmpl.NewRegistry(backend)
	require.False(t, reg.FixesNewlines())

	_, err := reg.Insert("welcome", componentSpec())
	require.NoError(t, err)

	ids := mailtmpl.ContextFunc(func() mailtmpl.ContentID { return "logo@test" })
	parts, err := reg.UseTemplate("welcome", "<Ann>", ids)
	require.NoError(t, err)
	require.Equal(t, "Hello <Ann>\r\nBye\r\n", parts.Bodies[0].Resource.String())
	require.Equal(t, `<p>&lt;Ann&gt;</p><img src="cid:logo@test">`, parts.Bodies[1].Resource.String())
}

func TestBackend_UnknownComponent(t *testing.T) {
	t.Parallel()

	backend := component.New()
	backend.Register("welcome.text", textComponent)

	err := backend.Load(componentSpec())
	require.ErrorIs(t, err, mailtmpl.ErrLoadFailed)
	require.ErrorIs(t, err, component.ErrUnknownComponent)
}

func TestBackend_RenderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	backend := component.New()
	backend.Register("welcome.text", textComponent)
	backend.Register("welcome.html", func(any, mailtmpl.Scopes) templ.Component {
		return templ.ComponentFunc(func(context.Context, io.Writer) error { return boom })
	})

	spec := componentSpec()
	require.NoError(t, backend.Load(spec))
	require.ErrorIs(t, backend.Load(spec), mailtmpl.ErrAlreadyLoaded)

	_, err := backend.Render(spec.BodyAt(1), "x", nil)
	require.ErrorIs(t, err, mailtmpl.ErrRenderFailed)
	require.ErrorIs(t, err, boom)

	backend.Unload(spec)
	_, err = backend.Render(spec.BodyAt(0), "x", nil)
	require.ErrorIs(t, err, mailtmpl.ErrNotLoaded)
}

func TestCID(t *testing.T) {
	t.Parallel()

	scopes := mailtmpl.Scopes{{"logo": {Name: "logo", ContentID: "a@b"}}}
	require.Equal(t, templ.SafeURL("cid:a@b"), component.CID(scopes, "logo"))
	require.Empty(t, component.CID(scopes, "missing"))
}
