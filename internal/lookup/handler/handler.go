package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mugs/internal/archive"
	"mugs/internal/authz"
	"mugs/internal/lookup/models"
	"mugs/internal/lookup/service"
	peoplemodels "mugs/internal/people/models"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/platform/httputil"
	"mugs/pkg/requestcontext"
)

// Service defines the lookup operations the handler exposes.
type Service interface {
	Create(ctx context.Context, kind models.Kind, data document.Patch) (*models.Lookup, error)
	Get(ctx context.Context, kind models.Kind, lookupID id.ID) (*models.Lookup, error)
	List(ctx context.Context, kind models.Kind) ([]*models.Lookup, error)
	Update(ctx context.Context, kind models.Kind, lookupID id.ID, data document.Patch) (*models.Lookup, error)
	Delete(ctx context.Context, req service.DeleteRequest) (*archive.Record, error)
	Linked(ctx context.Context, kind models.Kind, lookupID id.ID, dependent id.ProfileKind) ([]*peoplemodels.Person, error)
	CountLinked(ctx context.Context, kind models.Kind, lookupID id.ID) (int, error)
}

// Handler wires /roles and /trades to the lookup service.
type Handler struct {
	service Service
	gate    *authz.Gate
	logger  *slog.Logger
}

func New(service Service, gate *authz.Gate, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		gate:    gate,
		logger:  logger,
	}
}

// Register mounts one route group per lookup kind, restricted to staff.
func (h *Handler) Register(r chi.Router) {
	h.mount(r, "/roles", models.KindRole)
	h.mount(r, "/trades", models.KindTrade)
}

func (h *Handler) mount(r chi.Router, prefix string, kind models.Kind) {
	r.Route(prefix, func(r chi.Router) {
		r.Use(h.gate.Require(authz.Staff))
		r.Post("/", h.create(kind))
		r.Get("/", h.list(kind))
		r.Get("/{id}", h.get(kind))
		r.Patch("/{id}", h.update(kind))
		r.Get("/{id}/linked", h.linked(kind))
		r.With(h.gate.RequireDelete(authz.Staff)).Delete("/{id}", h.delete(kind))
	})
}

// LinkedResponse lists the profiles referencing a lookup.
type LinkedResponse struct {
	Total  int                    `json:"total"`
	Linked []*peoplemodels.Person `json:"linked,omitempty"`
}

func (h *Handler) create(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := httputil.DecodePatch(w, r, h.logger)
		if !ok {
			return
		}
		l, err := h.service.Create(r.Context(), kind, data)
		if err != nil {
			h.fail(r.Context(), w, "create", kind, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, l)
	}
}

func (h *Handler) list(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.service.List(r.Context(), kind)
		if err != nil {
			h.fail(r.Context(), w, "list", kind, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, items)
	}
}

func (h *Handler) get(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lookupID, ok := h.lookupID(w, r, kind)
		if !ok {
			return
		}
		l, err := h.service.Get(r.Context(), kind, lookupID)
		if err != nil {
			h.fail(r.Context(), w, "get", kind, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, l)
	}
}

func (h *Handler) update(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lookupID, ok := h.lookupID(w, r, kind)
		if !ok {
			return
		}
		data, ok := httputil.DecodePatch(w, r, h.logger)
		if !ok {
			return
		}
		l, err := h.service.Update(r.Context(), kind, lookupID, data)
		if err != nil {
			h.fail(r.Context(), w, "update", kind, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, l)
	}
}

// linked reports the dependents of a lookup. Without ?kind= it returns the
// count across every dependent kind.
func (h *Handler) linked(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		lookupID, ok := h.lookupID(w, r, kind)
		if !ok {
			return
		}
		raw := r.URL.Query().Get("kind")
		if raw == "" {
			n, err := h.service.CountLinked(ctx, kind, lookupID)
			if err != nil {
				h.fail(ctx, w, "count linked", kind, err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, LinkedResponse{Total: n})
			return
		}
		dependent, err := id.ParseProfileKind(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.Field(dErrors.CodeBadRequest, string(kind), "kind", raw, dErrors.KindEnum, "invalid profile kind"))
			return
		}
		people, err := h.service.Linked(ctx, kind, lookupID, dependent)
		if err != nil {
			h.fail(ctx, w, "linked", kind, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, LinkedResponse{Total: len(people), Linked: people})
	}
}

// delete requires ?replaceWith=; the service reports it missing.
func (h *Handler) delete(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		lookupID, ok := h.lookupID(w, r, kind)
		if !ok {
			return
		}
		var replaceWith id.ID
		if raw := r.URL.Query().Get("replaceWith"); raw != "" {
			parsed, err := id.ParseID(raw)
			if err != nil {
				httputil.WriteError(w, dErrors.Field(dErrors.CodeBadRequest, string(kind), "replaceWith", raw, dErrors.KindObjectID,
					"Cast to ObjectId failed for value \""+raw+"\""))
				return
			}
			replaceWith = parsed
		}
		rec, err := h.service.Delete(ctx, service.DeleteRequest{
			Kind:        kind,
			ID:          lookupID,
			ReplaceWith: replaceWith,
			Actor:       authz.Actor(ctx),
		})
		if err != nil {
			h.fail(ctx, w, "delete", kind, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) lookupID(w http.ResponseWriter, r *http.Request, kind models.Kind) (id.ID, bool) {
	lookupID, err := id.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.WithDefaultEntity(err, string(kind)))
		return id.NilID, false
	}
	return lookupID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, kind models.Kind, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "lookup "+op+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"model", string(kind),
		"error", err,
	)
	httputil.WriteError(w, err)
}
