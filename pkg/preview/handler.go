package preview

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
)

const maxBodySize = 1 << 20

// Renderer renders a registered template. *mailtmpl.Registry implements it.
type Renderer interface {
	UseTemplate(id string, data any, cids mailtmpl.Context) (*mailtmpl.MailParts, error)
}

// Lister lists registered template ids. *mailtmpl.Registry implements it.
type Lister interface {
	IDs() []string
}

// Part describes one rendered body.
type Part struct {
	Name       string      `json:"name"`
	MediaType  string      `json:"media_type"`
	Content    string      `json:"content"`
	Embeddings []Embedding `json:"embeddings,omitempty"`
}

// Embedding describes one bound embedding or attachment.
type Embedding struct {
	Name        string `json:"name,omitempty"`
	Filename    string `json:"filename"`
	MediaType   string `json:"media_type"`
	ContentID   string `json:"content_id"`
	Disposition string `json:"disposition"`
	Size        int    `json:"size"`
}

// RenderResponse is the JSON form of rendered mail parts.
type RenderResponse struct {
	ID               string         `json:"id"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Bodies           []Part         `json:"bodies"`
	SharedEmbeddings []Embedding    `json:"shared_embeddings,omitempty"`
	Attachments      []Embedding    `json:"attachments,omitempty"`
}

type handler struct {
	renderer Renderer
	lister   Lister
	cids     mailtmpl.Context
	logger   *slog.Logger
}

// NewHandler returns the preview router. The readiness probe always checks
// that at least one template is registered. A nil logger discards output.
func NewHandler(renderer Renderer, lister Lister, cids mailtmpl.Context, log *slog.Logger, opts ...Option) http.Handler {
	if log == nil {
		log = logger.NewNope()
	}
	cfg := newConfig(opts...)
	h := &handler{renderer: renderer, lister: lister, cids: cids, logger: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/health/live", LivenessHandler())
	checks := Checks{"templates": TemplatesCheck(lister)}
	for name, fn := range cfg.checks {
		checks[name] = fn
	}
	r.Get("/health/ready", ReadinessHandler(checks, WithTimeout(cfg.timeout), WithLogger(log)))

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/{id}/render", h.render)
		r.Get("/{id}/bodies/{index}", h.body)
	})

	return r
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	ids := h.lister.IDs()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (h *handler) render(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := logger.WithTemplateID(r.Context(), id)

	var data any
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &data); err != nil {
			h.fail(w, r, fmt.Errorf("%w: invalid JSON: %w", ErrBadRequest, err))
			return
		}
	}

	parts, err := h.renderer.UseTemplate(id, data, h.cids)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.DebugContext(ctx, "template rendered", slog.Int("bodies", len(parts.Bodies)))
	writeJSON(w, http.StatusOK, Describe(id, parts))
}

func (h *handler) body(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		h.fail(w, r, fmt.Errorf("%w: invalid body index", ErrBadRequest))
		return
	}

	parts, err := h.renderer.UseTemplate(id, nil, h.cids)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if index >= len(parts.Bodies) {
		h.fail(w, r, fmt.Errorf("%w: %d", ErrNoBody, index))
		return
	}

	part := parts.Bodies[index]
	w.Header().Set("Content-Type", part.MediaType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(part.Resource.Bytes())
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "preview request failed", slog.String("error", err.Error()))
	} else {
		h.logger.DebugContext(r.Context(), "preview request rejected",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, mailtmpl.ErrUnknownTemplate), errors.Is(err, ErrNoBody):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, mailtmpl.ErrRenderFailed), errors.Is(err, mailtmpl.ErrUnknownEmbedding):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Describe converts rendered parts into their JSON description.
func Describe(id string, parts *mailtmpl.MailParts) *RenderResponse {
	resp := &RenderResponse{
		ID:               id,
		Metadata:         parts.Metadata,
		Bodies:           make([]Part, 0, len(parts.Bodies)),
		SharedEmbeddings: describeEmbedded(parts.SharedEmbeddings),
		Attachments:      describeEmbedded(parts.Attachments),
	}
	for _, b := range parts.Bodies {
		resp.Bodies = append(resp.Bodies, Part{
			Name:       b.Resource.Name(),
			MediaType:  b.MediaType(),
			Content:    b.Resource.String(),
			Embeddings: describeEmbedded(b.Embeddings),
		})
	}
	return resp
}

func describeEmbedded(embedded []mailtmpl.Embedded) []Embedding {
	if len(embedded) == 0 {
		return nil
	}
	out := make([]Embedding, len(embedded))
	for i, e := range embedded {
		out[i] = Embedding{
			Name:        e.Name,
			Filename:    e.Resource.Name(),
			MediaType:   e.Resource.MediaType(),
			ContentID:   e.ContentID.String(),
			Disposition: e.Disposition.String(),
			Size:        e.Resource.Size(),
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
