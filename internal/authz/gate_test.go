package authz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	authmodels "mugs/internal/auth/models"
	"mugs/internal/authz/mocks"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/requestcontext"
)

type GateSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	accounts *mocks.MockAccountResolver
	gate     *Gate
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.accounts = mocks.NewMockAccountResolver(s.ctrl)
	s.gate = New(s.accounts)
}

func (s *GateSuite) TearDownTest() {
	s.ctrl.Finish()
}

func withRoles(roles ...string) context.Context {
	return requestcontext.WithPrincipal(context.Background(), &requestcontext.AuthPrincipal{
		UserID: id.NewID(),
		Roles:  roles,
	})
}

func (s *GateSuite) TestAuthorize() {
	cases := []struct {
		name    string
		ctx     context.Context
		req     Requirement
		allowed bool
	}{
		{"allow any admits anonymous", context.Background(), Requirement{AllowAny: true}, true},
		{"anonymous is refused", context.Background(), Staff, false},
		{"anonymous is refused without roles", context.Background(), Authenticated, false},
		{"no roles admits any principal", withRoles(), Authenticated, true},
		{"any mode admits one match", withRoles("admin"), Staff, true},
		{"any mode refuses no match", withRoles("student"), Staff, false},
		{"all mode needs every role", withRoles("manager"), Requirement{Roles: []string{"manager", "admin"}, Mode: ModeAll}, false},
		{"all mode admits every role", withRoles("admin", "manager"), Requirement{Roles: []string{"manager", "admin"}, Mode: ModeAll}, true},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			err := s.gate.Authorize(tc.ctx, tc.req)
			if tc.allowed {
				s.NoError(err)
				return
			}
			s.ErrorIs(err, dErrors.New(dErrors.CodeUnauthorized, msgNotAuthorized))
		})
	}
}

func (s *GateSuite) TestAuthorizeDelete() {
	ctx := withRoles("admin")
	userID := requestcontext.Principal(ctx).UserID

	s.Run("live user is returned", func() {
		user := &authmodels.User{Base: document.Base{ID: userID}, IsActive: true}
		s.accounts.EXPECT().GetUser(ctx, userID).Return(user, nil)
		got, err := s.gate.AuthorizeDelete(ctx, Staff)
		s.Require().NoError(err)
		s.Same(user, got)
	})

	s.Run("deleted account is refused", func() {
		s.accounts.EXPECT().GetUser(ctx, userID).Return(nil, dErrors.Missing("User", "_id", userID))
		_, err := s.gate.AuthorizeDelete(ctx, Staff)
		s.ErrorIs(err, dErrors.New(dErrors.CodeUnauthorized, msgAccountDeleted))
	})

	s.Run("inactive account is refused", func() {
		s.accounts.EXPECT().GetUser(ctx, userID).Return(&authmodels.User{Base: document.Base{ID: userID}}, nil)
		_, err := s.gate.AuthorizeDelete(ctx, Staff)
		s.ErrorIs(err, dErrors.New(dErrors.CodeUnauthorized, msgAccountDeleted))
	})

	s.Run("lookup failures surface", func() {
		s.accounts.EXPECT().GetUser(ctx, userID).Return(nil, errors.New("mongo down"))
		_, err := s.gate.AuthorizeDelete(ctx, Staff)
		s.EqualError(err, "mongo down")
	})

	s.Run("role check runs first", func() {
		_, err := s.gate.AuthorizeDelete(withRoles("student"), Staff)
		s.ErrorIs(err, dErrors.New(dErrors.CodeUnauthorized, msgNotAuthorized))
	})
}

func (s *GateSuite) TestMiddleware() {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Actor(r.Context()) != nil {
			w.Header().Set("X-Actor", Actor(r.Context()).ID.Hex())
		}
		w.WriteHeader(http.StatusNoContent)
	})

	s.Run("require refuses with 401", func() {
		r := httptest.NewRequest(http.MethodGet, "/people/admin", nil)
		w := httptest.NewRecorder()
		s.gate.Require(Staff)(next).ServeHTTP(w, r)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("require delete exposes the actor", func() {
		ctx := withRoles("manager")
		userID := requestcontext.Principal(ctx).UserID
		s.accounts.EXPECT().GetUser(gomock.Any(), userID).
			Return(&authmodels.User{Base: document.Base{ID: userID}, IsActive: true}, nil)

		r := httptest.NewRequest(http.MethodDelete, "/people/admin/x", nil).WithContext(ctx)
		w := httptest.NewRecorder()
		s.gate.RequireDelete(Staff)(next).ServeHTTP(w, r)
		s.Equal(http.StatusNoContent, w.Code)
		s.Equal(userID.Hex(), w.Header().Get("X-Actor"))
	})
}
