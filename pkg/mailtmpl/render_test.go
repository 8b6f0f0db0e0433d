package mailtmpl_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl/mailtmpltest"
	"github.com/dmitrymomot/mailkit/pkg/resource"
)

// sequentialIDs hands out cid-1@test, cid-2@test, ...
func sequentialIDs() mailtmpl.Context {
	n := 0
	return mailtmpl.ContextFunc(func() mailtmpl.ContentID {
		n++
		return mailtmpl.ContentID(fmt.Sprintf("cid-%d@test", n))
	})
}

func TestUseTemplate_UnknownID(t *testing.T) {
	t.Parallel()

	reg := mailtmpl.NewRegistry(mailtmpltest.New(false))

	parts, err := reg.UseTemplate("missing", nil, sequentialIDs())
	require.Nil(t, parts)
	require.ErrorIs(t, err, mailtmpl.ErrUnknownTemplate)
	require.Contains(t, err.Error(), `"missing"`)
}

func TestUseTemplate_BodiesInSpecOrder(t *testing.T) {
	t.Parallel()

	backend := mailtmpltest.New(true)
	reg := mailtmpl.NewRegistry(backend)
	spec := mailtmpltest.TextHTMLSpec("plain", "<b>rich</b>")
	spec.Metadata = map[string]any{"subject": "Welcome"}

	_, err := reg.Insert("welcome", spec)
	require.NoError(t, err)

	data := map[string]any{"Name": "Ann"}
	parts, err := reg.UseTemplate("welcome", data, sequentialIDs())
	require.NoError(t, err)

	require.Len(t, parts.Bodies, 2)
	require.Equal(t, "plain", parts.Bodies[0].Resource.String())
	require.Equal(t, "text/plain; charset=utf-8", parts.Bodies[0].MediaType())
	require.Equal(t, "<b>rich</b>", parts.Bodies[1].Resource.String())
	require.Equal(t, "text/html; charset=utf-8", parts.Bodies[1].MediaType())
	require.Equal(t, "Welcome", parts.Metadata["subject"])

	html, ok := parts.Body("text/html")
	require.True(t, ok)
	require.Equal(t, "<b>rich</b>", html.Resource.String())

	_, ok = parts.Body("application/json")
	require.False(t, ok)

	renders := backend.CallsOf(mailtmpltest.OpRender)
	require.Len(t, renders, 2)
	require.Same(t, spec.BodyAt(0), renders[0].Body)
	require.Same(t, spec.BodyAt(1), renders[1].Body)
	require.Equal(t, data, renders[0].Data)
}

func TestUseTemplate_LocalEmbeddingShadowsShared(t *testing.T) {
	t.Parallel()

	reg := mailtmpl.NewRegistry(mailtmpltest.New(true))
	sharedLogo := resource.New("logo.png", "image/png", []byte("shared"))
	localLogo := resource.New("logo.png", "image/png", []byte("local"))

	spec := mailtmpltest.TextHTMLSpec("see {{embed:logo}}", `<img src="{{embed:logo}}">`)
	spec.Embeddings = mailtmpl.Embeddings{"logo": sharedLogo}
	spec.Bodies[1].Embeddings = mailtmpl.Embeddings{"logo": localLogo}

	_, err := reg.Insert("welcome", spec)
	require.NoError(t, err)

	parts, err := reg.UseTemplate("welcome", nil, sequentialIDs())
	require.NoError(t, err)

	// shared ids are allocated first, then each body's local ids
	require.Len(t, parts.SharedEmbeddings, 1)
	shared := parts.SharedEmbeddings[0]
	require.Equal(t, "logo", shared.Name)
	require.Equal(t, mailtmpl.ContentID("cid-1@test"), shared.ContentID)
	require.Equal(t, mailtmpl.DispositionInline, shared.Disposition)
	require.True(t, shared.Resource.Same(sharedLogo))

	require.Equal(t, "see cid:cid-1@test", parts.Bodies[0].Resource.String())
	require.Empty(t, parts.Bodies[0].Embeddings)

	require.Equal(t, `<img src="cid:cid-2@test">`, parts.Bodies[1].Resource.String())
	require.Len(t, parts.Bodies[1].Embeddings, 1)
	require.True(t, parts.Bodies[1].Embeddings[0].Resource.Same(localLogo))
}

func TestUseTemplate_Attachments(t *testing.T) {
	t.Parallel()

	reg := mailtmpl.NewRegistry(mailtmpltest.New(true))
	terms := resource.New("terms.pdf", "application/pdf", []byte("%PDF"))
	spec := mailtmpltest.TextHTMLSpec("a", "b")
	spec.Attachments = []resource.Resource{terms}

	_, err := reg.Insert("welcome", spec)
	require.NoError(t, err)

	parts, err := reg.UseTemplate("welcome", nil, sequentialIDs())
	require.NoError(t, err)
	require.Len(t, parts.Attachments, 1)
	require.Equal(t, mailtmpl.DispositionAttachment, parts.Attachments[0].Disposition)
	require.True(t, parts.Attachments[0].Resource.Same(terms))
	require.NotEmpty(t, parts.Attachments[0].ContentID)
}

func TestUseTemplate_RenderErrorAborts(t *testing.T) {
	t.Parallel()

	reg := mailtmpl.NewRegistry(mailtmpltest.New(true))
	_, err := reg.Insert("welcome", mailtmpltest.TextHTMLSpec("ok", "{{embed:nope}}"))
	require.NoError(t, err)

	parts, err := reg.UseTemplate("welcome", nil, sequentialIDs())
	require.Nil(t, parts)
	require.ErrorIs(t, err, mailtmpl.ErrRenderFailed)
	require.ErrorIs(t, err, mailtmpl.ErrUnknownEmbedding)
}

func TestUseTemplate_FixesNewlines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []mailtmpl.Option
		want string
		// backend newline guarantee
		valid bool
	}{
		{name: "backend without guarantee", want: "a\r\nb\r\n"},
		{name: "backend with guarantee", valid: true, want: "a\nb\n"},
		{name: "forced off", opts: []mailtmpl.Option{mailtmpl.WithFixNewlines(false)}, want: "a\nb\n"},
		{name: "forced on", valid: true, opts: []mailtmpl.Option{mailtmpl.WithFixNewlines(true)}, want: "a\r\nb\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg := mailtmpl.NewRegistry(mailtmpltest.New(tt.valid), tt.opts...)
			_, err := reg.Insert("x", mailtmpltest.TextHTMLSpec("a\nb\n", "a\nb\n"))
			require.NoError(t, err)

			parts, err := reg.UseTemplate("x", nil, sequentialIDs())
			require.NoError(t, err)
			for _, body := range parts.Bodies {
				require.Equal(t, tt.want, body.Resource.String())
			}
		})
	}
}

func TestSimpleContext(t *testing.T) {
	t.Parallel()

	require.Equal(t, "localhost", mailtmpl.NewContext("").Domain())

	ctx := mailtmpl.NewContext("mail.example.com")
	a, b := ctx.NewContentID(), ctx.NewContentID()
	require.NotEqual(t, a, b)
	require.True(t, strings.HasSuffix(a.String(), "@mail.example.com"))
	require.Equal(t, "cid:"+a.String(), a.URL())
	require.Equal(t, "<"+a.String()+">", a.Header())
}

func TestScopes_FirstWins(t *testing.T) {
	t.Parallel()

	local := mailtmpl.Scope{"logo": {Name: "logo", ContentID: "local"}}
	shared := mailtmpl.Scope{
		"logo":   {Name: "logo", ContentID: "shared"},
		"banner": {Name: "banner", ContentID: "banner"},
	}
	scopes := mailtmpl.Scopes{local, shared}

	cid, ok := scopes.ContentID("logo")
	require.True(t, ok)
	require.Equal(t, mailtmpl.ContentID("local"), cid)

	cid, ok = scopes.ContentID("banner")
	require.True(t, ok)
	require.Equal(t, mailtmpl.ContentID("banner"), cid)

	_, ok = scopes.Lookup("missing")
	require.False(t, ok)
}

func TestScopes_URL(t *testing.T) {
	t.Parallel()

	scopes := mailtmpl.Scopes{{"logo": {Name: "logo", ContentID: "abc@example.com"}}}

	url, err := scopes.URL("logo")
	require.NoError(t, err)
	require.Equal(t, "cid:abc@example.com", url)

	_, err = scopes.URL("banner")
	require.ErrorIs(t, err, mailtmpl.ErrUnknownEmbedding)
}
