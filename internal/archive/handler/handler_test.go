package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mugs/internal/archive"
	"mugs/internal/archive/records"
	authmodels "mugs/internal/auth/models"
	"mugs/internal/authz"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	"mugs/pkg/requestcontext"
	"mugs/pkg/testutil"
)

func newRouter(t *testing.T, svc *archive.Service, roles ...string) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			p := &requestcontext.AuthPrincipal{UserID: id.NewID(), Roles: roles}
			next.ServeHTTP(w, req.WithContext(requestcontext.WithPrincipal(req.Context(), p)))
		})
	})
	New(svc, authz.New(nil), logger).Register(r)
	return r
}

func archiveOne(t *testing.T, svc *archive.Service, target archive.Target, model string) *archive.Record {
	t.Helper()
	actor := &authmodels.User{Base: document.Base{ID: id.NewID()}, IsActive: true}
	rec, err := svc.Archive(context.Background(), archive.Request{
		ID:       id.NewID(),
		Model:    model,
		Actor:    actor,
		Target:   target,
		Snapshot: func(context.Context) (map[string]any, error) { return map[string]any{"name": "x"}, nil },
		Remove:   func(context.Context) error { return nil },
	})
	require.NoError(t, err)
	return rec
}

func TestArchiveHandler(t *testing.T) {
	svc := archive.New(records.NewInMemory())
	person := archiveOne(t, svc, archive.TargetPerson, "Admin")
	archiveOne(t, svc, archive.TargetObject, "Role")
	router := newRouter(t, svc, "admin")

	t.Run("list by target and model", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/archive/persons?model=Admin"))
		require.Equal(t, http.StatusOK, w.Code)
		var recs []map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&recs))
		require.Len(t, recs, 1)
		assert.Equal(t, "Admin", recs[0]["model"])
	})

	t.Run("get checks the target", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/archive/DeletedPerson/"+person.ID.Hex()))
		assert.Equal(t, http.StatusOK, w.Code)
		w = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/archive/objects/"+person.ID.Hex()))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown target", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/archive/users"))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("students are refused", func(t *testing.T) {
		w := testutil.DoRequest(newRouter(t, svc, "student"), testutil.NewRequest(t, http.MethodGet, "/archive/persons"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
