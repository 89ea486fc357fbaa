package ownership

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"mugs/internal/people/models"
	"mugs/internal/schemas"
	"mugs/internal/store"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

type ResolverSuite struct {
	suite.Suite
	ctx       context.Context
	addresses *Resolver[*models.Address]
	kin       *Resolver[*models.NextOfKin]
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = context.Background()
	addressRepo := store.NewRepository[*models.Address](store.NewInMemory(schemas.Address()), nil)
	kinRepo := store.NewRepository[*models.NextOfKin](store.NewInMemory(schemas.NextOfKin()), nil)
	s.addresses = New(addressRepo, models.AddressUpdateFields)
	s.kin = New(kinRepo, models.NextOfKinUpdateFields,
		WithHooks(NextOfKinHooks(kinRepo, s.addresses)))
}

func (s *ResolverSuite) address(ref *id.ID) *models.Address {
	s.Require().NotNil(ref)
	addr, err := s.addresses.Get(s.ctx, *ref)
	s.Require().NoError(err)
	return addr
}

func (s *ResolverSuite) requireGone(ref id.ID) {
	_, err := s.addresses.Get(s.ctx, ref)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound), "expected NotFound, got %v", err)
}

// TestSharedAddress walks two admins through sharing one address until the
// last owner leaves.
func (s *ResolverSuite) TestSharedAddress() {
	first := models.AdminOwner(id.NewID())
	second := models.AdminOwner(id.NewID())

	ref, err := s.addresses.AddOrCreate(s.ctx, first, nil, &Input{Data: document.Patch{"city": "Mutare"}})
	s.Require().NoError(err)
	s.Equal("Mutare", s.address(ref).City)

	secondRef, err := s.addresses.AddOrUpdate(s.ctx, second, nil, &Input{ID: ref.Hex()})
	s.Require().NoError(err)
	s.Equal(*ref, *secondRef)

	shared := s.address(ref)
	s.Equal([]id.ID{first.ID, second.ID}, shared.Owners.Admins)
	s.Equal(2, shared.Owners.Count)

	deleted, err := s.addresses.Detach(s.ctx, first, *ref)
	s.Require().NoError(err)
	s.False(deleted)
	s.Equal([]id.ID{second.ID}, s.address(ref).Owners.Admins)

	deleted, err = s.addresses.Detach(s.ctx, second, *ref)
	s.Require().NoError(err)
	s.True(deleted)
	s.requireGone(*ref)

	s.Run("detaching from a reclaimed address is a no-op", func() {
		deleted, err := s.addresses.Detach(s.ctx, second, *ref)
		s.Require().NoError(err)
		s.False(deleted)
	})
}

func (s *ResolverSuite) TestAddOrUpdate() {
	owner := models.StudentOwner(id.NewID())

	s.Run("nothing supplied keeps the current reference", func() {
		current := id.NewID()
		ref, err := s.addresses.AddOrUpdate(s.ctx, owner, &current, nil)
		s.Require().NoError(err)
		s.Equal(current, *ref)
	})

	s.Run("unknown id without data fails NotFound", func() {
		_, err := s.addresses.AddOrUpdate(s.ctx, owner, nil, &Input{ID: id.NewID().Hex()})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("malformed id fails BadRequest", func() {
		_, err := s.addresses.AddOrUpdate(s.ctx, owner, nil, &Input{ID: "nope"})
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeBadRequest, de.Code)
		s.Equal(dErrors.KindObjectID, de.Kind)
	})

	s.Run("unknown id with data creates and releases the previous address", func() {
		previous, err := s.addresses.AddOrCreate(s.ctx, owner, nil, &Input{Data: document.Patch{"city": "Harare"}})
		s.Require().NoError(err)

		ref, err := s.addresses.AddOrUpdate(s.ctx, owner, previous, &Input{
			ID:   id.NewID().Hex(),
			Data: document.Patch{"city": "Gweru"},
		})
		s.Require().NoError(err)
		s.NotEqual(*previous, *ref)
		s.Equal("Gweru", s.address(ref).City)
		s.True(s.address(ref).Owners.Has(owner))
		s.requireGone(*previous)
	})

	s.Run("data without id updates in place", func() {
		current, err := s.addresses.AddOrCreate(s.ctx, owner, nil, &Input{Data: document.Patch{"city": "Harare"}})
		s.Require().NoError(err)

		ref, err := s.addresses.AddOrUpdate(s.ctx, owner, current, &Input{Data: document.Patch{"addressLine1": "12 Main St"}})
		s.Require().NoError(err)
		s.Equal(*current, *ref)
		addr := s.address(ref)
		s.Equal("12 Main St", addr.AddressLine1)
		s.Equal("Harare", addr.City)
	})

	s.Run("same id with data updates in place", func() {
		current, err := s.addresses.AddOrCreate(s.ctx, owner, nil, &Input{Data: document.Patch{"city": "Harare"}})
		s.Require().NoError(err)

		ref, err := s.addresses.AddOrUpdate(s.ctx, owner, current, &Input{ID: current.Hex(), Data: document.Patch{"country": "Zambia"}})
		s.Require().NoError(err)
		s.Equal("Zambia", s.address(ref).Country)
	})

	s.Run("fields outside the allowlist are forbidden", func() {
		current, err := s.addresses.AddOrCreate(s.ctx, owner, nil, &Input{Data: document.Patch{"city": "Harare"}})
		s.Require().NoError(err)

		_, err = s.addresses.AddOrUpdate(s.ctx, owner, current, &Input{Data: document.Patch{"createdAt": "2020-01-01T00:00:00Z"}})
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeForbidden, de.Code)
		s.Equal("createdAt", de.Path)
	})

	s.Run("data without current reference creates", func() {
		ref, err := s.addresses.AddOrUpdate(s.ctx, owner, nil, &Input{Data: document.Patch{"city": "Kadoma"}})
		s.Require().NoError(err)
		s.True(s.address(ref).Owners.Has(owner))
	})
}

func (s *ResolverSuite) TestNewInputStripsBacklinks() {
	in := NewInput(map[string]any{"id": "abc", "owners": map[string]any{"admins": []string{"x"}}, "city": "Bulawayo"})
	s.Equal("abc", in.ID)
	s.Equal(document.Patch{"city": "Bulawayo"}, in.Data)
	s.Nil(NewInput(nil))
}

func (s *ResolverSuite) TestNextOfKinOwnsAddress() {
	owner := models.ManagerOwner(id.NewID())

	s.Run("kin without address gets the default one", func() {
		ref, err := s.kin.AddOrCreate(s.ctx, owner, nil, &Input{Data: document.Patch{
			"firstName": "Rudo", "lastName": "Moyo", "phoneNumber": "+263771000000",
		}})
		s.Require().NoError(err)

		kin, err := s.kin.Get(s.ctx, *ref)
		s.Require().NoError(err)
		s.Equal(models.DefaultRelation, kin.Relation)
		s.True(kin.Owners.Has(owner))

		addr := s.address(kin.Address)
		s.Equal(models.DefaultCity, addr.City)
		s.True(addr.Owners.Has(models.NextOfKinOwner(kin.ID)))

		deleted, err := s.kin.Detach(s.ctx, owner, kin.ID)
		s.Require().NoError(err)
		s.True(deleted)
		s.requireGone(*kin.Address)
	})

	s.Run("kin address is resolved from nested data", func() {
		ref, err := s.kin.AddOrCreate(s.ctx, owner, nil, &Input{Data: document.Patch{
			"firstName": "Tendai", "lastName": "Dube", "phoneNumber": "+263772000000",
			"address": map[string]any{"city": "Masvingo"},
		}})
		s.Require().NoError(err)
		kin, err := s.kin.Get(s.ctx, *ref)
		s.Require().NoError(err)
		s.Equal("Masvingo", s.address(kin.Address).City)

		_, err = s.kin.AddOrUpdate(s.ctx, owner, ref, &Input{Data: document.Patch{
			"relation": "Sister",
			"address":  map[string]any{"city": "Chinhoyi"},
		}})
		s.Require().NoError(err)
		kin, err = s.kin.Get(s.ctx, *ref)
		s.Require().NoError(err)
		s.Equal("Sister", kin.Relation)
		s.Equal("Chinhoyi", s.address(kin.Address).City)
	})

	s.Run("missing required fields are attributed to the kin", func() {
		_, err := s.kin.AddOrCreate(s.ctx, owner, nil, &Input{Data: document.Patch{"firstName": "X"}})
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeBadRequest, de.Code)
		s.Equal(models.ModelNextOfKin, de.Entity)
		s.Equal(dErrors.KindRequired, de.Kind)
	})
}

func (s *ResolverSuite) TestSweepReclaimsOrphans() {
	orphan, err := s.addresses.Create(s.ctx, document.Patch{"city": "Kwekwe"})
	s.Require().NoError(err)
	owned, err := s.addresses.AddOrCreate(s.ctx, models.AdminOwner(id.NewID()), nil, &Input{Data: document.Patch{"city": "Kariba"}})
	s.Require().NoError(err)

	sweeper := NewSweeper(time.Minute, time.Minute, nil, s.kin, s.addresses)

	s.Run("orphans inside the grace period are kept", func() {
		got := sweeper.SweepAt(s.ctx, time.Now())
		s.Equal(0, got[models.ModelAddress])
		s.address(&orphan.ID)
	})

	s.Run("aged orphans are reclaimed", func() {
		got := sweeper.SweepAt(s.ctx, time.Now().Add(2*time.Minute))
		s.Equal(1, got[models.ModelAddress])
		s.requireGone(orphan.ID)
		s.address(owned)
	})
}

func (s *ResolverSuite) TestRestore() {
	owner := models.AdminOwner(id.NewID())
	other := models.AdminOwner(id.NewID())
	previous, err := s.addresses.AddOrCreate(s.ctx, owner, nil, &Input{Data: document.Patch{"city": "Gweru"}})
	s.Require().NoError(err)
	target, err := s.addresses.AddOrCreate(s.ctx, other, nil, &Input{Data: document.Patch{"city": "Masvingo"}})
	s.Require().NoError(err)
	// keep previous alive after owner leaves it
	s.Require().NoError(s.addresses.Attach(s.ctx, other, *previous))

	linked, err := s.addresses.AddOrUpdate(s.ctx, owner, previous, &Input{ID: target.Hex()})
	s.Require().NoError(err)
	s.Require().Equal(*target, *linked)
	s.False(s.address(previous).Owners.Has(owner))

	s.Require().NoError(s.addresses.Restore(s.ctx, owner, previous, linked))
	s.True(s.address(previous).Owners.Has(owner))
	s.False(s.address(target).Owners.Has(owner))

	s.Run("a sub-resource created for the owner is reclaimed", func() {
		created, err := s.addresses.AddOrCreate(s.ctx, owner, nil, &Input{Data: document.Patch{"city": "Kwekwe"}})
		s.Require().NoError(err)
		s.Require().NoError(s.addresses.Restore(s.ctx, owner, nil, created))
		s.requireGone(*created)
	})

	s.Run("a reclaimed previous sub-resource is skipped", func() {
		lone, err := s.addresses.AddOrCreate(s.ctx, owner, nil, &Input{Data: document.Patch{"city": "Chinhoyi"}})
		s.Require().NoError(err)
		linked, err := s.addresses.AddOrUpdate(s.ctx, owner, lone, &Input{ID: target.Hex()})
		s.Require().NoError(err)
		s.requireGone(*lone)

		s.Require().NoError(s.addresses.Restore(s.ctx, owner, lone, linked))
		s.False(s.address(target).Owners.Has(owner))
	})

	s.Run("nothing moved", func() {
		s.NoError(s.addresses.Restore(s.ctx, owner, previous, previous))
		s.True(s.address(previous).Owners.Has(owner))
	})
}
