package service

import (
	lookupmodels "mugs/internal/lookup/models"
	"mugs/internal/people/models"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

func (s *ServiceSuite) TestUpdateReference() {
	admin := &models.Person{Kind: id.ProfileAdmin, Role: &s.roleID}

	s.Run("empty or current reference changes nothing", func() {
		for _, raw := range []string{"", s.roleID.Hex()} {
			ref, err := s.service.UpdateReference(s.ctx, admin, raw)
			s.Require().NoError(err)
			s.Nil(ref)
		}
	})

	s.Run("another existing role is returned", func() {
		role, err := s.lookups.Create(s.ctx, lookupmodels.KindRole, document.Patch{"name": "ops"})
		s.Require().NoError(err)
		ref, err := s.service.UpdateReference(s.ctx, admin, role.ID.Hex())
		s.Require().NoError(err)
		s.Equal(role.ID, *ref)
	})

	s.Run("unknown role is NotFound and never created", func() {
		_, err := s.service.UpdateReference(s.ctx, admin, id.NewID().Hex())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("malformed id is attributed to the role", func() {
		_, err := s.service.UpdateReference(s.ctx, admin, "not-an-id")
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(string(lookupmodels.KindRole), de.Entity)
	})
}
