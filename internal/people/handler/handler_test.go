package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"mugs/internal/archive"
	authmodels "mugs/internal/auth/models"
	"mugs/internal/authz"
	authzmocks "mugs/internal/authz/mocks"
	"mugs/internal/people/handler/mocks"
	"mugs/internal/people/models"
	"mugs/internal/people/service"
	"mugs/internal/store"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/requestcontext"
	"mugs/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type PeopleHandlerSuite struct {
	suite.Suite
	service   *mocks.MockService
	accounts  *authzmocks.MockAccountResolver
	router    chi.Router
	principal *requestcontext.AuthPrincipal
}

func TestPeopleHandlerSuite(t *testing.T) {
	suite.Run(t, new(PeopleHandlerSuite))
}

func (s *PeopleHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.accounts = authzmocks.NewMockAccountResolver(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.principal = &requestcontext.AuthPrincipal{UserID: id.NewID(), Roles: []string{"admin"}}

	s.router = chi.NewRouter()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.principal != nil {
				r = r.WithContext(requestcontext.WithPrincipal(r.Context(), s.principal))
			}
			next.ServeHTTP(w, r)
		})
	})
	New(s.service, authz.New(s.accounts), logger).Register(s.router)
}

func (s *PeopleHandlerSuite) decode(body io.Reader) map[string]any {
	var out map[string]any
	s.Require().NoError(json.NewDecoder(body).Decode(&out))
	return out
}

func (s *PeopleHandlerSuite) TestCreate() {
	s.Run("creates under the parsed kind", func() {
		s.service.EXPECT().
			Create(gomock.Any(), id.ProfileAdmin, document.Patch{"nationalId": "a1"}).
			Return(&models.Person{Kind: id.ProfileAdmin, RVC: "ABC123"}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/people/admins", map[string]any{"nationalId": "a1"})
		w := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusCreated, w.Code)
		s.Equal("ABC123", s.decode(w.Body)["RVC"])
	})

	s.Run("service errors map to status", func() {
		s.service.EXPECT().Create(gomock.Any(), id.ProfileStudent, gomock.Any()).
			Return(nil, dErrors.Required("Student", "trade"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/people/student", map[string]any{})
		w := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, w.Code)
		testutil.AssertAttributed(s.T(), w, "Student", "trade")
		s.Equal(dErrors.KindRequired, s.decode(w.Body)["kind"])
	})

	s.Run("unknown kind is not found", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/people/wizards", map[string]any{})
		s.Equal(http.StatusNotFound, testutil.DoRequest(s.router, req).Code)
	})

	s.Run("students may not create people", func() {
		s.principal = &requestcontext.AuthPrincipal{UserID: id.NewID(), Roles: []string{"student"}}
		defer func() { s.principal = &requestcontext.AuthPrincipal{UserID: id.NewID(), Roles: []string{"admin"}} }()
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/people/admin", map[string]any{})
		w := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusUnauthorized, w.Code)
		s.Equal("You are not Authorized to access this resource", s.decode(w.Body)["error_description"])
	})
}

func (s *PeopleHandlerSuite) TestGetAndList() {
	personID := id.NewID()

	s.Run("get passes depth", func() {
		s.service.EXPECT().Get(gomock.Any(), id.ProfileManager, personID, 1).
			Return(map[string]any{"_id": personID.Hex()}, nil)
		w := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/people/manager/"+personID.Hex()+"?depth=1"))
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("bad id is a cast error", func() {
		w := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/people/manager/nope"))
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal(dErrors.KindObjectID, s.decode(w.Body)["kind"])
	})

	s.Run("bad depth is rejected", func() {
		w := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/people/manager/"+personID.Hex()+"?depth=x"))
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("list parses paging and filters", func() {
		roleID := id.NewID()
		s.service.EXPECT().List(gomock.Any(), id.ProfileAdmin, service.ListQuery{
			Offset: 10,
			Limit:  5,
			Filters: []store.Eq{
				{Field: "nationalId", Value: "A1"},
				{Field: "role", Value: roleID},
			},
		}).Return(nil, 0, nil)
		w := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet,
			"/people/admin?offset=10&limit=5&nationalId=a1&role="+roleID.Hex()))
		s.Equal(http.StatusOK, w.Code)
		body := s.decode(w.Body)
		s.Equal([]any{}, body["items"])
		s.EqualValues(0, body["total"])
	})
}

func (s *PeopleHandlerSuite) TestDelete() {
	personID := id.NewID()
	actor := &authmodels.User{Base: document.Base{ID: s.principal.UserID}, IsActive: true}

	s.Run("resolved actor is passed to the service", func() {
		s.accounts.EXPECT().GetUser(gomock.Any(), s.principal.UserID).Return(actor, nil)
		s.service.EXPECT().Delete(gomock.Any(), service.DeleteRequest{Kind: id.ProfileAdmin, ID: personID, Actor: actor}).
			Return(&archive.Record{ID: id.NewID(), Target: archive.TargetPerson}, nil)
		w := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/people/admin/"+personID.Hex()))
		s.Equal(http.StatusOK, w.Code)
		s.Equal("DeletedPerson", s.decode(w.Body)["target"])
	})

	s.Run("deleted account cannot delete", func() {
		s.accounts.EXPECT().GetUser(gomock.Any(), s.principal.UserID).Return(nil, dErrors.Missing("User", "_id", s.principal.UserID))
		w := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/people/admin/"+personID.Hex()))
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}
