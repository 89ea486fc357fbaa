package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"mugs/internal/people/models"
	"mugs/internal/store"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

// racingCollection fails Create the way a backend does when another writer
// took a unique value after the pre-check passed.
type racingCollection struct {
	store.Collection[*models.Person]
	createErr error
}

func (c *racingCollection) Create(ctx context.Context, doc *models.Person) error {
	if c.createErr != nil {
		return c.createErr
	}
	return c.Collection.Create(ctx, doc)
}

type RepositorySuite struct {
	suite.Suite
	ctx  context.Context
	coll *racingCollection
	repo *store.Repository[*models.Person]
	role id.ID
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.coll = &racingCollection{Collection: store.NewInMemory(adminSchema())}
	s.repo = store.NewRepository[*models.Person](s.coll, nil)
	s.role = id.NewID()
}

func (s *RepositorySuite) admin(nationalID, phone string) *models.Person {
	p := &models.Person{Kind: id.ProfileAdmin, Role: &s.role}
	p.NationalID = nationalID
	p.PhoneNumber = phone
	p.FirstName = "F"
	p.LastName = "L"
	return p
}

func (s *RepositorySuite) TestCreateDocumentStoreRace() {
	s.coll.createErr = &store.UniqueViolation{Field: "nationalId"}

	_, err := s.repo.CreateDocument(s.ctx, s.admin("rc1", "+1"))
	de, ok := dErrors.As(err)
	s.Require().True(ok, "expected domain error, got %v", err)
	s.Equal(dErrors.CodeBadRequest, de.Code)
	s.Equal("Admin", de.Entity)
	s.Equal("nationalId", de.Path)
	s.Equal(dErrors.KindIntegrity, de.Kind)
	s.Equal("RC1", de.Value)
}

func (s *RepositorySuite) TestCreateDocumentStoreFailure() {
	s.coll.createErr = errors.New("connection reset")

	_, err := s.repo.CreateDocument(s.ctx, s.admin("rc2", "+2"))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *RepositorySuite) TestPreview() {
	stored, err := s.repo.CreateDocument(s.ctx, s.admin("pv1", "+10"))
	s.Require().NoError(err)
	_, err = s.repo.CreateDocument(s.ctx, s.admin("pv2", "+11"))
	s.Require().NoError(err)
	allowed := models.UpdateFields(id.ProfileAdmin)

	s.Run("changes are applied to a copy only", func() {
		preview, err := s.repo.Preview(s.ctx, store.UpdateRequest{
			ID: stored.ID, Data: document.Patch{"firstName": "Nyasha"}, AllowedFields: allowed,
		})
		s.Require().NoError(err)
		s.Equal("Nyasha", preview.FirstName)

		current, err := s.repo.GetDocument(s.ctx, stored.ID)
		s.Require().NoError(err)
		s.Equal("F", current.FirstName)
	})

	s.Run("a taken value fails before any write", func() {
		_, err := s.repo.Preview(s.ctx, store.UpdateRequest{
			ID: stored.ID, Data: document.Patch{"phoneNumber": "+11"}, AllowedFields: allowed,
		})
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeBadRequest, de.Code)
		s.Equal("phoneNumber", de.Path)
	})

	s.Run("fields outside the allowlist are forbidden", func() {
		_, err := s.repo.Preview(s.ctx, store.UpdateRequest{
			ID: stored.ID, Data: document.Patch{"RVC": "000000"}, AllowedFields: allowed,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
