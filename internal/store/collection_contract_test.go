package store_test

import (
	"context"
	"errors"

	"github.com/stretchr/testify/suite"

	"mugs/internal/people/models"
	"mugs/internal/schemas"
	"mugs/internal/store"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	"mugs/pkg/platform/sentinel"
)

// CollectionSuite is the behaviour every Collection backend must share. Each
// backend supplies open, which returns an empty collection per test.
type CollectionSuite struct {
	suite.Suite
	open func() store.Collection[*models.Person]
	ctx  context.Context
	coll store.Collection[*models.Person]
}

func (s *CollectionSuite) SetupTest() {
	s.ctx = context.Background()
	s.coll = s.open()
}

func (s *CollectionSuite) person(nationalID, phone string, role *id.ID) *models.Person {
	p := &models.Person{
		Base: document.Base{ID: id.NewID()},
		Kind: id.ProfileAdmin,
		Role: role,
	}
	p.NationalID = nationalID
	p.PhoneNumber = phone
	p.FirstName = "F"
	p.LastName = "L"
	return p
}

func (s *CollectionSuite) mustCreate(p *models.Person) {
	s.Require().NoError(s.coll.Create(s.ctx, p))
}

func (s *CollectionSuite) TestCreateAndFind() {
	roleID := id.NewID()
	p := s.person("A1", "+1", &roleID)
	s.mustCreate(p)

	got, err := s.coll.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("A1", got.NationalID)
	s.Equal(roleID, *got.Role)

	_, err = s.coll.FindByID(s.ctx, id.NewID())
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *CollectionSuite) TestUniqueFields() {
	s.mustCreate(s.person("A1", "+1", nil))

	err := s.coll.Create(s.ctx, s.person("A2", "+1", nil))
	uv, ok := store.AsUniqueViolation(err)
	s.Require().True(ok, "expected unique violation, got %v", err)
	s.Equal("phoneNumber", uv.Field)
	s.True(errors.Is(err, sentinel.ErrAlreadyUsed))
}

func (s *CollectionSuite) TestFilters() {
	roleA, roleB := id.NewID(), id.NewID()
	s.mustCreate(s.person("A1", "+1", &roleA))
	s.mustCreate(s.person("A2", "+2", &roleA))
	s.mustCreate(s.person("A3", "+3", &roleB))

	n, err := s.coll.Count(s.ctx, store.Eq{Field: "role", Value: roleA})
	s.Require().NoError(err)
	s.Equal(2, n)

	found, err := s.coll.Find(s.ctx, store.Eq{Field: "role", Value: roleA}, store.Eq{Field: "nationalId", Value: "A2"})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal("+2", found[0].PhoneNumber)

	one, err := s.coll.FindOne(s.ctx, store.Eq{Field: "phoneNumber", Value: "+3"})
	s.Require().NoError(err)
	s.Equal("A3", one.NationalID)

	_, err = s.coll.FindOne(s.ctx, store.Eq{Field: "phoneNumber", Value: "+9"})
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *CollectionSuite) TestExecute() {
	p := s.person("A1", "+1", nil)
	s.mustCreate(p)

	s.Run("failed validation leaves the document", func() {
		refused := errors.New("refused")
		_, err := s.coll.Execute(s.ctx, p.ID,
			func(*models.Person) error { return refused },
			func(doc *models.Person) { doc.FirstName = "changed" })
		s.ErrorIs(err, refused)

		got, err := s.coll.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal("F", got.FirstName)
	})

	s.Run("mutation is stored and versioned", func() {
		before, err := s.coll.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		updated, err := s.coll.Execute(s.ctx, p.ID, nil, func(doc *models.Person) { doc.FirstName = "G" })
		s.Require().NoError(err)
		s.Equal("G", updated.FirstName)
		s.Equal(before.Version+1, updated.Version)
	})

	s.Run("missing document", func() {
		_, err := s.coll.Execute(s.ctx, id.NewID(), nil, nil)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})
}

func (s *CollectionSuite) TestDeleteWhere() {
	p := s.person("A1", "+1", nil)
	s.mustCreate(p)

	deleted, err := s.coll.DeleteWhere(s.ctx, p.ID, func(doc *models.Person) bool { return doc.User != nil })
	s.Require().NoError(err)
	s.False(deleted)

	deleted, err = s.coll.DeleteWhere(s.ctx, p.ID, func(doc *models.Person) bool { return doc.User == nil })
	s.Require().NoError(err)
	s.True(deleted)

	deleted, err = s.coll.DeleteWhere(s.ctx, p.ID, nil)
	s.Require().NoError(err)
	s.False(deleted)

	s.True(errors.Is(s.coll.Delete(s.ctx, p.ID), sentinel.ErrNotFound))
}

func (s *CollectionSuite) TestReplaceRef() {
	from, to, other := id.NewID(), id.NewID(), id.NewID()
	s.mustCreate(s.person("A1", "+1", &from))
	s.mustCreate(s.person("A2", "+2", &from))
	s.mustCreate(s.person("A3", "+3", &other))

	n, err := s.coll.ReplaceRef(s.ctx, "role", from, to)
	s.Require().NoError(err)
	s.Equal(2, n)

	moved, err := s.coll.Count(s.ctx, store.Eq{Field: "role", Value: to})
	s.Require().NoError(err)
	s.Equal(2, moved)
	left, err := s.coll.Count(s.ctx, store.Eq{Field: "role", Value: from})
	s.Require().NoError(err)
	s.Zero(left)
}

func adminSchema() store.Schema[*models.Person] {
	return schemas.Person(id.ProfileAdmin)
}
