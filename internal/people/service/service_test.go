package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Lookups,UserAccounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"mugs/internal/archive"
	"mugs/internal/archive/records"
	authmodels "mugs/internal/auth/models"
	lookupmodels "mugs/internal/lookup/models"
	lookupservice "mugs/internal/lookup/service"
	"mugs/internal/people/models"
	"mugs/internal/people/ownership"
	"mugs/internal/people/service/mocks"
	"mugs/internal/schemas"
	"mugs/internal/store"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	users     *mocks.MockUserAccounts
	records   *records.InMemory
	addresses *ownership.Resolver[*models.Address]
	lookups   *lookupservice.Service
	service   *Service
	roleID    id.ID
	tradeID   id.ID
	manager   *authmodels.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.users = mocks.NewMockUserAccounts(s.ctrl)
	s.records = records.NewInMemory()
	archiver := archive.New(s.records)

	repos := make(map[id.ProfileKind]*store.Repository[*models.Person])
	dependents := make(map[id.ProfileKind]store.Collection[*models.Person])
	for _, kind := range id.ProfileKinds {
		coll := store.NewInMemory(schemas.Person(kind))
		repos[kind] = store.NewRepository[*models.Person](coll, archiver)
		dependents[kind] = coll
	}
	lookupRepos := map[lookupmodels.Kind]*store.Repository[*lookupmodels.Lookup]{
		lookupmodels.KindRole:  store.NewRepository[*lookupmodels.Lookup](store.NewInMemory(schemas.Lookup(lookupmodels.KindRole)), archiver),
		lookupmodels.KindTrade: store.NewRepository[*lookupmodels.Lookup](store.NewInMemory(schemas.Lookup(lookupmodels.KindTrade)), archiver),
	}
	lookups := lookupservice.New(lookupRepos, dependents)
	s.lookups = lookups

	addressRepo := store.NewRepository[*models.Address](store.NewInMemory(schemas.Address()), nil)
	kinRepo := store.NewRepository[*models.NextOfKin](store.NewInMemory(schemas.NextOfKin()), nil)
	s.addresses = ownership.New(addressRepo, models.AddressUpdateFields)
	kin := ownership.New(kinRepo, models.NextOfKinUpdateFields,
		ownership.WithHooks(ownership.NextOfKinHooks(kinRepo, s.addresses)))

	s.service = New(DefaultConfig(), repos, s.addresses, kin, lookups, s.users)

	role, err := lookups.Create(s.ctx, lookupmodels.KindRole, document.Patch{"name": "admin-role"})
	s.Require().NoError(err)
	trade, err := lookups.Create(s.ctx, lookupmodels.KindTrade, document.Patch{"name": "Welding"})
	s.Require().NoError(err)
	s.roleID, s.tradeID = role.ID, trade.ID

	s.manager = &authmodels.User{Base: document.Base{ID: id.NewID()}, IsActive: true, IsManager: true, Scope: "manager"}
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) noRegisteredUser() {
	s.users.EXPECT().FindByNationalID(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.Missing(authmodels.ModelUser, "nationalId", "")).AnyTimes()
}

func (s *ServiceSuite) adminData(nationalID, phone string) document.Patch {
	return document.Patch{
		"nationalId":  nationalID,
		"firstName":   "A",
		"lastName":    "B",
		"phoneNumber": phone,
		"role":        s.roleID.Hex(),
	}
}

func (s *ServiceSuite) requireDomainError(err error, code dErrors.Code, entity, path string) *dErrors.Error {
	de, ok := dErrors.As(err)
	s.Require().True(ok, "expected domain error, got %v", err)
	s.Equal(code, de.Code)
	s.Equal(entity, de.Entity)
	s.Equal(path, de.Path)
	return de
}

func (s *ServiceSuite) TestCreate() {
	s.noRegisteredUser()

	s.Run("admin is created with its role and no sub-resources", func() {
		admin, err := s.service.Create(s.ctx, id.ProfileAdmin, s.adminData("ab123", "+100"))
		s.Require().NoError(err)
		s.Equal(s.roleID, *admin.Role)
		s.Nil(admin.Trade)
		s.Nil(admin.Address)
		s.Nil(admin.NextOfKin)
		s.Equal("AB123", admin.NationalID)
		s.Len(admin.RVC, 6)
	})

	s.Run("duplicate national id is rejected", func() {
		_, err := s.service.Create(s.ctx, id.ProfileAdmin, s.adminData("AB123", "+101"))
		de := s.requireDomainError(err, dErrors.CodeBadRequest, "Admin", "nationalId")
		s.Equal(dErrors.KindIntegrity, de.Kind)
	})

	s.Run("student without trade fails required", func() {
		_, err := s.service.Create(s.ctx, id.ProfileStudent, document.Patch{
			"nationalId": "ST1", "firstName": "S", "lastName": "T", "phoneNumber": "+200",
		})
		de := s.requireDomainError(err, dErrors.CodeBadRequest, "Student", "trade")
		s.Equal(dErrors.KindRequired, de.Kind)
	})

	s.Run("admin cannot carry a trade", func() {
		data := s.adminData("AB999", "+999")
		data["trade"] = s.tradeID.Hex()
		_, err := s.service.Create(s.ctx, id.ProfileAdmin, data)
		s.requireDomainError(err, dErrors.CodeForbidden, "Admin", "trade")
	})

	s.Run("unknown keys are ignored on create", func() {
		data := s.adminData("AB200", "+210")
		data["nickname"] = "Ace"
		admin, err := s.service.Create(s.ctx, id.ProfileAdmin, data)
		s.Require().NoError(err)
		s.Equal("AB200", admin.NationalID)
	})

	s.Run("managed fields are refused on create", func() {
		for _, field := range []string{"RVC", "user", "_id"} {
			data := s.adminData("AB201", "+211")
			data[field] = "000000"
			_, err := s.service.Create(s.ctx, id.ProfileAdmin, data)
			de := s.requireDomainError(err, dErrors.CodeForbidden, "Admin", field)
			s.Equal(dErrors.KindUpdate, de.Kind)
		}
	})

	s.Run("unknown role is reported on the admin", func() {
		data := s.adminData("AB124", "+102")
		data["role"] = id.NewID().Hex()
		_, err := s.service.Create(s.ctx, id.ProfileAdmin, data)
		s.requireDomainError(err, dErrors.CodeNotFound, "Admin", "role")
	})

	s.Run("address and next of kin are owned by the new person", func() {
		data := document.Patch{
			"nationalId": "ST2", "firstName": "S", "lastName": "T", "phoneNumber": "+201",
			"trade":   map[string]any{"id": s.tradeID.Hex()},
			"address": map[string]any{"city": "Mutare"},
			"nextOfKin": map[string]any{
				"firstName": "K", "lastName": "N", "phoneNumber": "+300",
			},
		}
		student, err := s.service.Create(s.ctx, id.ProfileStudent, data)
		s.Require().NoError(err)
		s.Require().NotNil(student.Address)
		s.Require().NotNil(student.NextOfKin)

		addr, err := s.addresses.Get(s.ctx, *student.Address)
		s.Require().NoError(err)
		s.Equal([]id.ID{student.ID}, addr.Owners.Students)

		kin, err := s.service.kin.Get(s.ctx, *student.NextOfKin)
		s.Require().NoError(err)
		s.True(kin.Owners.Has(student.Owner()))
	})
}

func (s *ServiceSuite) TestCreateLinksRegisteredUser() {
	user := &authmodels.User{Base: document.Base{ID: id.NewID()}, IsActive: true}
	s.users.EXPECT().FindByNationalID(gomock.Any(), "MG1").Return(user, nil)
	s.users.EXPECT().LinkProfile(gomock.Any(), user.ID, id.ProfileManager, gomock.Any()).Return(nil)

	data := s.adminData("mg1", "+400")
	manager, err := s.service.Create(s.ctx, id.ProfileManager, data)
	s.Require().NoError(err)
	s.Require().NotNil(manager.User)
	s.Equal(user.ID, *manager.User)
}

func (s *ServiceSuite) TestUpdate() {
	s.noRegisteredUser()
	admin, err := s.service.Create(s.ctx, id.ProfileAdmin, s.adminData("AD1", "+500"))
	s.Require().NoError(err)

	s.Run("same role is a no-op", func() {
		updated, err := s.service.Update(s.ctx, id.ProfileAdmin, admin.ID, document.Patch{
			"role": map[string]any{"id": s.roleID.Hex()},
		})
		s.Require().NoError(err)
		s.Equal(s.roleID, *updated.Role)
		s.Equal(admin.UpdatedAt, updated.UpdatedAt)
	})

	s.Run("unknown role is reported on the admin", func() {
		_, err := s.service.Update(s.ctx, id.ProfileAdmin, admin.ID, document.Patch{"role": id.NewID().Hex()})
		s.requireDomainError(err, dErrors.CodeNotFound, "Admin", "role")
	})

	s.Run("fields outside the allowlist are forbidden", func() {
		_, err := s.service.Update(s.ctx, id.ProfileAdmin, admin.ID, document.Patch{"RVC": "000000"})
		de := s.requireDomainError(err, dErrors.CodeForbidden, "Admin", "RVC")
		s.Equal(dErrors.KindUpdate, de.Kind)
	})

	s.Run("scalar fields are applied", func() {
		updated, err := s.service.Update(s.ctx, id.ProfileAdmin, admin.ID, document.Patch{"relation": "Uncle"})
		s.Require().NoError(err)
		s.Equal("Uncle", updated.Relation)
	})

	s.Run("address is shared then modified in place", func() {
		other, err := s.service.Create(s.ctx, id.ProfileAdmin, s.adminData("AD2", "+501"))
		s.Require().NoError(err)

		withAddress, err := s.service.Update(s.ctx, id.ProfileAdmin, admin.ID, document.Patch{
			"address": map[string]any{"city": "Harare"},
		})
		s.Require().NoError(err)
		s.Require().NotNil(withAddress.Address)

		shared, err := s.service.Update(s.ctx, id.ProfileAdmin, other.ID, document.Patch{
			"address": map[string]any{"id": withAddress.Address.Hex()},
		})
		s.Require().NoError(err)
		s.Equal(*withAddress.Address, *shared.Address)

		_, err = s.service.Update(s.ctx, id.ProfileAdmin, other.ID, document.Patch{
			"address": map[string]any{"city": "Bulawayo"},
		})
		s.Require().NoError(err)

		addr, err := s.addresses.Get(s.ctx, *withAddress.Address)
		s.Require().NoError(err)
		s.Equal("Bulawayo", addr.City)
		s.ElementsMatch([]id.ID{admin.ID, other.ID}, addr.Owners.Admins)
	})
}

// TestUpdateRelinkWithDuplicatePhone moves A onto C's address while taking
// B's phone number. The update must fail without moving any address.
func (s *ServiceSuite) TestUpdateRelinkWithDuplicatePhone() {
	s.noRegisteredUser()
	withAddress := func(nationalID, phone, city string) *models.Person {
		p, err := s.service.Create(s.ctx, id.ProfileAdmin, s.adminData(nationalID, phone))
		s.Require().NoError(err)
		p, err = s.service.Update(s.ctx, id.ProfileAdmin, p.ID, document.Patch{"address": map[string]any{"city": city}})
		s.Require().NoError(err)
		s.Require().NotNil(p.Address)
		return p
	}
	a := withAddress("RL1", "+700", "Harare")
	b := withAddress("RL2", "+701", "Bulawayo")
	c := withAddress("RL3", "+702", "Mutare")
	x, z, y := *a.Address, *b.Address, *c.Address

	_, err := s.service.Update(s.ctx, id.ProfileAdmin, a.ID, document.Patch{
		"address":     y.Hex(),
		"phoneNumber": b.PhoneNumber,
	})
	s.requireDomainError(err, dErrors.CodeBadRequest, "Admin", "phoneNumber")

	r, err := s.service.repo(id.ProfileAdmin)
	s.Require().NoError(err)
	stored, err := r.GetDocument(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(x, *stored.Address)
	s.Equal(a.PhoneNumber, stored.PhoneNumber)

	addrX, err := s.addresses.Get(s.ctx, x)
	s.Require().NoError(err)
	s.Equal([]id.ID{a.ID}, addrX.Owners.Admins)

	addrY, err := s.addresses.Get(s.ctx, y)
	s.Require().NoError(err)
	s.Equal([]id.ID{c.ID}, addrY.Owners.Admins)

	addrZ, err := s.addresses.Get(s.ctx, z)
	s.Require().NoError(err)
	s.Equal([]id.ID{b.ID}, addrZ.Owners.Admins)
}

func (s *ServiceSuite) TestUpdateMirrorsIdentity() {
	user := &authmodels.User{Base: document.Base{ID: id.NewID()}, IsActive: true}
	s.users.EXPECT().FindByNationalID(gomock.Any(), "SIB1").Return(user, nil).Times(2)
	s.users.EXPECT().LinkProfile(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).Return(nil).Times(2)

	admin, err := s.service.Create(s.ctx, id.ProfileAdmin, s.adminData("SIB1", "+600"))
	s.Require().NoError(err)
	manager, err := s.service.Create(s.ctx, id.ProfileManager, s.adminData("SIB1", "+600"))
	s.Require().NoError(err)

	user.Profiles = map[id.ProfileKind]id.ID{id.ProfileAdmin: admin.ID, id.ProfileManager: manager.ID}
	s.users.EXPECT().MirrorIdentity(gomock.Any(), user.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ id.ID, identity id.Identity) error {
			s.Equal("Chipo", identity.FirstName)
			return nil
		})
	s.users.EXPECT().GetUser(gomock.Any(), user.ID).Return(user, nil)

	_, err = s.service.Update(s.ctx, id.ProfileAdmin, admin.ID, document.Patch{"firstName": "Chipo"})
	s.Require().NoError(err)

	sibling, err := s.service.GetPerson(s.ctx, id.ProfileManager, manager.ID)
	s.Require().NoError(err)
	s.Equal("Chipo", sibling.FirstName)
	s.Equal(s.roleID, *sibling.Role)
}

func (s *ServiceSuite) TestDelete() {
	s.noRegisteredUser()

	s.Run("archives the admin then removes it", func() {
		admin, err := s.service.Create(s.ctx, id.ProfileAdmin, s.adminData("AB123", "+100"))
		s.Require().NoError(err)

		rec, err := s.service.Delete(s.ctx, DeleteRequest{Kind: id.ProfileAdmin, ID: admin.ID, Actor: s.manager})
		s.Require().NoError(err)
		s.Equal(archive.TargetPerson, rec.Target)

		recs, err := s.records.List(s.ctx, archive.Query{Target: archive.TargetPerson})
		s.Require().NoError(err)
		s.Require().Len(recs, 1)
		s.Equal("Admin", recs[0].Deleted[archive.ModelKey])
		role, ok := recs[0].Deleted["role"].(map[string]any)
		s.Require().True(ok, "role is populated in the snapshot")
		s.Equal("admin-role", role["name"])

		_, err = s.service.GetPerson(s.ctx, id.ProfileAdmin, admin.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("sole-owned address is reclaimed", func() {
		data := s.adminData("AB200", "+700")
		data["address"] = map[string]any{"city": "Gweru"}
		admin, err := s.service.Create(s.ctx, id.ProfileAdmin, data)
		s.Require().NoError(err)

		_, err = s.service.Delete(s.ctx, DeleteRequest{Kind: id.ProfileAdmin, ID: admin.ID, Actor: s.manager})
		s.Require().NoError(err)

		_, err = s.addresses.Get(s.ctx, *admin.Address)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("inactive actor is unauthorized and nothing is archived", func() {
		admin, err := s.service.Create(s.ctx, id.ProfileAdmin, s.adminData("AB300", "+800"))
		s.Require().NoError(err)
		before, err := s.records.List(s.ctx, archive.Query{})
		s.Require().NoError(err)

		inactive := &authmodels.User{Base: document.Base{ID: id.NewID()}, IsActive: false}
		_, err = s.service.Delete(s.ctx, DeleteRequest{Kind: id.ProfileAdmin, ID: admin.ID, Actor: inactive})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		after, err := s.records.List(s.ctx, archive.Query{})
		s.Require().NoError(err)
		s.Len(after, len(before))
		_, err = s.service.GetPerson(s.ctx, id.ProfileAdmin, admin.ID)
		s.NoError(err)
	})
}

func (s *ServiceSuite) TestDeleteUnlinksUser() {
	user := &authmodels.User{Base: document.Base{ID: id.NewID()}, IsActive: true}
	s.users.EXPECT().FindByNationalID(gomock.Any(), "UL1").Return(user, nil)
	s.users.EXPECT().LinkProfile(gomock.Any(), user.ID, id.ProfileAdmin, gomock.Any()).Return(nil)

	admin, err := s.service.Create(s.ctx, id.ProfileAdmin, s.adminData("UL1", "+900"))
	s.Require().NoError(err)

	user.Profiles = map[id.ProfileKind]id.ID{id.ProfileAdmin: admin.ID}
	s.users.EXPECT().GetUser(gomock.Any(), user.ID).Return(user, nil)
	s.users.EXPECT().UnlinkProfile(gomock.Any(), user.ID, id.ProfileAdmin, s.manager).Return(nil)

	rec, err := s.service.Delete(s.ctx, DeleteRequest{Kind: id.ProfileAdmin, ID: admin.ID, Actor: s.manager})
	s.Require().NoError(err)

	snapshotUser, ok := rec.Deleted["user"].(map[string]any)
	s.Require().True(ok)
	profiles, ok := snapshotUser["profiles"].(map[string]any)
	s.Require().True(ok)
	s.Contains(profiles, "admin")
}

func (s *ServiceSuite) TestGet() {
	s.noRegisteredUser()
	admin, err := s.service.Create(s.ctx, id.ProfileAdmin, s.adminData("GT1", "+1000"))
	s.Require().NoError(err)

	s.Run("depth 0 keeps references as ids", func() {
		view, err := s.service.Get(s.ctx, id.ProfileAdmin, admin.ID, 0)
		s.Require().NoError(err)
		s.Equal(s.roleID.Hex(), view["role"])
	})

	s.Run("depth 1 populates the role", func() {
		view, err := s.service.Get(s.ctx, id.ProfileAdmin, admin.ID, 1)
		s.Require().NoError(err)
		role, ok := view["role"].(map[string]any)
		s.Require().True(ok)
		s.Equal("admin-role", role["name"])
	})

	s.Run("other depths are rejected", func() {
		_, err := s.service.Get(s.ctx, id.ProfileAdmin, admin.ID, 2)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("list pages through the kind", func() {
		views, total, err := s.service.List(s.ctx, id.ProfileAdmin, ListQuery{Limit: 10})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Len(views, 1)
	})
}
