package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lookupmodels "mugs/internal/lookup/models"
	"mugs/internal/platform/config"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	"mugs/pkg/testutil"
)

func inMemoryConfig() config.Config {
	return config.Config{
		Server: config.Server{AllowedOrigins: []string{"*"}},
		Auth: config.Auth{
			JWTSigningKey:             "test-signing-key",
			JWTIssuer:                 "mugs",
			JWTAudience:               "mugs-api",
			TokenTTL:                  time.Hour,
			BcryptCost:                4,
			RegistrationTTL:           time.Minute,
			RevocationCleanupInterval: time.Minute,
		},
		People: config.PeopleConfig{
			PropagateToSiblings: true,
			ViewTTL:             time.Minute,
			SweepInterval:       time.Minute,
			OrphanGrace:         time.Hour,
		},
	}
}

func TestPersonnelLifecycleOverHTTP(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := Build(ctx, inMemoryConfig(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	router := a.Router

	var token, rvc string
	var tradeID, studentID string
	sc := testutil.NewScenario(t)

	sc.Given("an admin profile seeded without a user", func(t *testing.T) {
		role, err := a.Lookups.Create(ctx, lookupmodels.KindRole, document.Patch{"name": "Operations"})
		require.NoError(t, err)
		admin, err := a.People.Create(ctx, id.ProfileAdmin, document.Patch{
			"nationalId":  "ad100",
			"firstName":   "Ada",
			"lastName":    "Okafor",
			"phoneNumber": "+15550100",
			"role":        role.ID.Hex(),
		})
		require.NoError(t, err)
		rvc = admin.RVC
		require.NotEmpty(t, rvc)
	})

	sc.Then("registering without a verified token is refused", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register",
			map[string]any{"nationalId": "ad100", "password": "s3cret", "password2": "s3cret"}))
		assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())

		w = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
			map[string]any{"username": "AD100", "password": "s3cret"}))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	sc.When("the admin registers and logs in", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register/start",
			map[string]any{"nationalId": "ad100"}))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		start := testutil.UnmarshalResponse[map[string]any](t, w)
		assert.Equal(t, "Enter RVC for your Admin account.", (*start)["question"])

		w = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register/verify",
			map[string]any{"token": (*start)["token"], "RVC": rvc}))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		verified := testutil.UnmarshalResponse[map[string]any](t, w)

		w = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register",
			map[string]any{"token": (*verified)["token"], "password": "s3cret", "password2": "s3cret"}))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
			map[string]any{"username": "AD100", "password": "s3cret"}))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		login := testutil.UnmarshalResponse[map[string]any](t, w)
		token, _ = (*login)["token"].(string)
		require.NotEmpty(t, token)
	})

	sc.Then("anonymous callers are refused", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/people/admins"))
		testutil.AssertStatusAndError(t, w, http.StatusUnauthorized, "unauthorized")
	})

	sc.Then("a wrong password is refused uniformly", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
			map[string]any{"username": "AD100", "password": "wrong"}))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid credentials", testutil.UnmarshalErrorResponse(t, w)["error_description"])
	})

	sc.When("the admin creates a trade and a student", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/trades",
			map[string]any{"name": "Welding"}), token))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		trade := testutil.UnmarshalResponse[map[string]any](t, w)
		tradeID, _ = (*trade)["id"].(string)

		w = testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/people/students",
			map[string]any{
				"nationalId":  "st200",
				"firstName":   "Sam",
				"lastName":    "Reyes",
				"phoneNumber": "+15550200",
				"trade":       tradeID,
				"address":     map[string]any{"city": "Lagos"},
			}), token))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		student := testutil.UnmarshalResponse[map[string]any](t, w)
		studentID, _ = (*student)["id"].(string)
		assert.NotEmpty(t, (*student)["address"])
	})

	sc.Then("the student is listed and counted against the trade", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/people/students?nationalId=st200"), token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		page := testutil.UnmarshalResponse[map[string]any](t, w)
		assert.EqualValues(t, 1, (*page)["total"])

		w = testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/trades/"+tradeID+"/linked"), token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		testutil.AssertJSONContains(t, w, "total", float64(1))
	})

	sc.Then("a referenced trade cannot be deleted without a replacement", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodDelete, "/trades/"+tradeID), token))
		testutil.AssertStatusAndError(t, w, http.StatusBadRequest, "bad_request")
	})

	sc.When("the student is deleted", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodDelete, "/people/students/"+studentID), token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		testutil.AssertJSONContains(t, w, "target", "DeletedPerson")
	})

	sc.Then("the archive holds the snapshot and the live profile is gone", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/archive/persons?model=Student"), token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		recs := testutil.UnmarshalResponse[[]map[string]any](t, w)
		require.Len(t, *recs, 1)
		assert.Equal(t, studentID, (*recs)[0]["sourceId"])

		w = testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/people/students/"+studentID), token))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	sc.When("the admin logs out", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodPost, "/auth/logout"), token))
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	})

	sc.Then("the revoked token no longer authenticates", func(t *testing.T) {
		w := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/auth/me"), token))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHealthWithoutBackends(t *testing.T) {
	a, err := Build(context.Background(), inMemoryConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	a, err := Build(context.Background(), inMemoryConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("background jobs did not stop")
	}
}
