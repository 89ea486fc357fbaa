package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"mugs/internal/archive"
	"mugs/internal/authz"
	"mugs/internal/people/models"
	"mugs/internal/people/service"
	"mugs/internal/store"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/platform/httputil"
	"mugs/pkg/requestcontext"
)

// Service defines the person operations the handler exposes.
type Service interface {
	Create(ctx context.Context, kind id.ProfileKind, data document.Patch) (*models.Person, error)
	Get(ctx context.Context, kind id.ProfileKind, personID id.ID, depth int) (map[string]any, error)
	List(ctx context.Context, kind id.ProfileKind, q service.ListQuery) ([]map[string]any, int, error)
	Update(ctx context.Context, kind id.ProfileKind, personID id.ID, data document.Patch) (*models.Person, error)
	Delete(ctx context.Context, req service.DeleteRequest) (*archive.Record, error)
}

// Handler wires the /people endpoints to the lifecycle service.
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

// Register mounts the person endpoints. Every route is restricted to staff.
func (h *Handler) Register(r chi.Router) {
	r.Route("/people/{kind}", func(r chi.Router) {
		r.Use(h.gate.Require(authz.Staff))
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Patch("/{id}", h.HandleUpdate)
		r.With(h.gate.RequireDelete(authz.Staff)).Delete("/{id}", h.HandleDelete)
	})
}

// ListResponse is one page of person views.
type ListResponse struct {
	Items  []map[string]any `json:"items"`
	Total  int              `json:"total"`
	Offset int              `json:"offset"`
	Limit  int              `json:"limit"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	data, ok := httputil.DecodePatch(w, r, h.logger)
	if !ok {
		return
	}
	person, err := h.service.Create(ctx, kind, data)
	if err != nil {
		h.fail(ctx, w, "create", kind, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, person)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	q, err := parseListQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, dErrors.WithDefaultEntity(err, string(kind)))
		return
	}
	items, total, err := h.service.List(ctx, kind, q)
	if err != nil {
		h.fail(ctx, w, "list", kind, err)
		return
	}
	if items == nil {
		items = []map[string]any{}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Items: items, Total: total, Offset: q.Offset, Limit: q.Limit})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, personID, ok := h.target(w, r)
	if !ok {
		return
	}
	depth, err := intParam(r.URL.Query(), "depth", 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.service.Get(ctx, kind, personID, depth)
	if err != nil {
		h.fail(ctx, w, "get", kind, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, personID, ok := h.target(w, r)
	if !ok {
		return
	}
	data, ok := httputil.DecodePatch(w, r, h.logger)
	if !ok {
		return
	}
	person, err := h.service.Update(ctx, kind, personID, data)
	if err != nil {
		h.fail(ctx, w, "update", kind, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, person)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, personID, ok := h.target(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Delete(ctx, service.DeleteRequest{
		Kind:  kind,
		ID:    personID,
		Actor: authz.Actor(ctx),
	})
	if err != nil {
		h.fail(ctx, w, "delete", kind, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (id.ProfileKind, bool) {
	kind, err := id.ParseProfileKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown profile kind"))
		return "", false
	}
	return kind, true
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (id.ProfileKind, id.ID, bool) {
	kind, ok := h.kind(w, r)
	if !ok {
		return "", id.NilID, false
	}
	personID, err := id.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.WithDefaultEntity(err, string(kind)))
		return "", id.NilID, false
	}
	return kind, personID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, kind id.ProfileKind, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "person "+op+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"kind", string(kind),
		"error", err,
	)
	httputil.WriteError(w, err)
}

// filterFields are the query parameters List filters on by equality.
var filterFields = []string{"nationalId", "phoneNumber", "email", "firstName", "lastName"}

// refFilterFields are filters whose value is an ObjectID.
var refFilterFields = []string{"role", "trade", "user"}

func parseListQuery(values url.Values) (service.ListQuery, error) {
	var q service.ListQuery
	var err error
	if q.Offset, err = intParam(values, "offset", 0); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(values, "limit", 50); err != nil {
		return q, err
	}
	if q.Depth, err = intParam(values, "depth", 0); err != nil {
		return q, err
	}
	for _, f := range filterFields {
		if v := strings.TrimSpace(values.Get(f)); v != "" {
			if f == "nationalId" {
				v = strings.ToUpper(v)
			}
			q.Filters = append(q.Filters, store.Eq{Field: f, Value: v})
		}
	}
	for _, f := range refFilterFields {
		if v := values.Get(f); v != "" {
			ref, err := id.ParseID(v)
			if err != nil {
				return q, dErrors.Field(dErrors.CodeBadRequest, "", f, v, dErrors.KindObjectID, "Cast to ObjectId failed for value \""+v+"\"")
			}
			q.Filters = append(q.Filters, store.Eq{Field: f, Value: ref})
		}
	}
	return q, nil
}

func intParam(values url.Values, name string, def int) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.Field(dErrors.CodeBadRequest, "", name, raw, dErrors.KindType, name+" must be a non-negative integer")
	}
	return n, nil
}
