package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mugs/internal/auth/models"
	"mugs/internal/auth/service"
	"mugs/internal/authz"
	"mugs/internal/store"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/platform/httputil"
	"mugs/pkg/requestcontext"
)

// Service defines the account operations the handler exposes.
type Service interface {
	StartRegistration(ctx context.Context, req service.StartRegistrationRequest) (*service.StartRegistrationResult, error)
	VerifyRegistration(ctx context.Context, req service.VerifyRegistrationRequest) (*service.VerifyRegistrationResult, error)
	Register(ctx context.Context, req service.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req service.LoginRequest) (*service.LoginResult, error)
	Logout(ctx context.Context, principal *requestcontext.AuthPrincipal) error
	GetUser(ctx context.Context, userID id.ID) (*models.User, error)
	ListUsers(ctx context.Context, filters ...store.Eq) ([]*models.User, error)
	CountUsers(ctx context.Context, filters ...store.Eq) (int, error)
	DeleteUser(ctx context.Context, userID id.ID, actor *models.User) error
	CountActions(ctx context.Context, actorID id.ID, action models.Action, typ string) (int, error)
}

// Handler wires the /auth and /users endpoints to the account service.
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

// deleteUsers is the requirement for removing accounts.
var deleteUsers = authz.Requirement{Roles: []string{"manager"}}

// Register mounts the account endpoints. The registration steps and login are
// public; registration is gated by its own tokens.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register/start", h.HandleStartRegistration)
	r.Post("/auth/register/verify", h.HandleVerifyRegistration)
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/login", h.HandleLogin)
	r.With(h.gate.Require(authz.Authenticated)).Post("/auth/logout", h.HandleLogout)
	r.With(h.gate.Require(authz.Authenticated)).Get("/auth/me", h.HandleMe)

	r.Route("/users", func(r chi.Router) {
		r.With(h.gate.Require(authz.Authenticated)).Get("/me/actions", h.HandleMyActions)
		r.With(h.gate.Require(authz.Staff)).Get("/", h.HandleList)
		r.With(h.gate.Require(authz.Staff)).Get("/count", h.HandleCount)
		r.With(h.gate.Require(authz.Staff)).Get("/{id}", h.HandleGet)
		r.With(h.gate.Require(authz.Authenticated)).Get("/{id}/actions", h.HandleUserActions)
		r.With(h.gate.RequireDelete(deleteUsers)).Delete("/{id}", h.HandleDelete)
	})
}

// ActionsResponse reports how many actions a user performed.
type ActionsResponse struct {
	UserID string        `json:"userId"`
	Action models.Action `json:"actionType"`
	Type   string        `json:"objectType"`
	Count  int           `json:"count"`
}

func (h *Handler) HandleStartRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[service.StartRegistrationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.StartRegistration(ctx, *req)
	if err != nil {
		h.fail(ctx, w, "start registration", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleVerifyRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[service.VerifyRegistrationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.VerifyRegistration(ctx, *req)
	if err != nil {
		h.fail(ctx, w, "verify registration", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[service.RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	user, err := h.service.Register(ctx, *req)
	if err != nil {
		h.fail(ctx, w, "register", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req service.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.Login(ctx, req)
	if err != nil {
		h.fail(ctx, w, "login", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Logout(ctx, requestcontext.Principal(ctx)); err != nil {
		h.fail(ctx, w, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.service.GetUser(ctx, requestcontext.Principal(ctx).UserID)
	if err != nil {
		h.fail(ctx, w, "me", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(ctx, userID)
	if err != nil {
		h.fail(ctx, w, "get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filters, err := userFilters(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	users, err := h.service.ListUsers(ctx, filters...)
	if err != nil {
		h.fail(ctx, w, "list", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filters, err := userFilters(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := h.service.CountUsers(ctx, filters...)
	if err != nil {
		h.fail(ctx, w, "count", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(ctx, userID, authz.Actor(ctx)); err != nil {
		h.fail(ctx, w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleMyActions(w http.ResponseWriter, r *http.Request) {
	h.countActions(w, r, requestcontext.Principal(r.Context()).UserID)
}

// HandleUserActions counts another user's actions. Staff may ask about anyone;
// other callers only about themselves.
func (h *Handler) HandleUserActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if userID != requestcontext.Principal(ctx).UserID {
		if err := h.gate.Authorize(ctx, authz.Staff); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	h.countActions(w, r, userID)
}

func (h *Handler) countActions(w http.ResponseWriter, r *http.Request, userID id.ID) {
	ctx := r.Context()
	q := r.URL.Query()
	action, err := models.ParseAction(q.Get("actionType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	typ := q.Get("objectType")
	if typ == "" {
		typ = models.TypeAll
	}
	n, err := h.service.CountActions(ctx, userID, action, typ)
	if err != nil {
		h.fail(ctx, w, "count actions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ActionsResponse{UserID: userID.Hex(), Action: action, Type: typ, Count: n})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "user "+op+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func userIDParam(w http.ResponseWriter, r *http.Request) (id.ID, bool) {
	userID, err := id.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.WithDefaultEntity(err, models.ModelUser))
		return id.NilID, false
	}
	return userID, true
}

func userFilters(r *http.Request) ([]store.Eq, error) {
	var filters []store.Eq
	q := r.URL.Query()
	for _, f := range service.UserFilterFields {
		raw := q.Get(f)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, dErrors.Field(dErrors.CodeBadRequest, models.ModelUser, f, raw, dErrors.KindType, f+" must be a boolean")
		}
		filters = append(filters, store.Eq{Field: f, Value: v})
	}
	return filters, nil
}
