package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"mugs/internal/archive"
	"mugs/internal/authz"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/platform/httputil"
	"mugs/pkg/requestcontext"
)

// Service defines the archive reads the handler exposes.
type Service interface {
	Get(ctx context.Context, recordID id.ID) (*archive.Record, error)
	List(ctx context.Context, q archive.Query) ([]*archive.Record, error)
}

// Handler exposes the archive to staff. Records are read-only.
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

func (h *Handler) Register(r chi.Router) {
	r.Route("/archive/{target}", func(r chi.Router) {
		r.Use(h.gate.Require(authz.Staff))
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
	})
}

var targetAliases = map[string]archive.Target{
	"deletedperson":  archive.TargetPerson,
	"deletedpersons": archive.TargetPerson,
	"persons":        archive.TargetPerson,
	"deletedobject":  archive.TargetObject,
	"deletedobjects": archive.TargetObject,
	"objects":        archive.TargetObject,
}

func parseTarget(raw string) (archive.Target, error) {
	t, ok := targetAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "unknown archive target")
	}
	return t, nil
}

// HandleList lists the records of a target, optionally for one ?model=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, err := parseTarget(chi.URLParam(r, "target"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	recs, err := h.service.List(ctx, archive.Query{Target: target, Model: r.URL.Query().Get("model")})
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	if recs == nil {
		recs = []*archive.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, recs)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, err := parseTarget(chi.URLParam(r, "target"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	recordID, err := id.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.WithDefaultEntity(err, string(target)))
		return
	}
	rec, err := h.service.Get(ctx, recordID)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	if rec.Target != target {
		httputil.WriteError(w, dErrors.Missing(string(target), "_id", recordID.Hex()))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	h.logger.ErrorContext(ctx, "archive read failed",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
