// Package schemas describes each model to the store backends: filterable
// fields, unique fields and settable references.
package schemas

import (
	authmodels "mugs/internal/auth/models"
	lookupmodels "mugs/internal/lookup/models"
	"mugs/internal/people/models"
	"mugs/internal/store"
	id "mugs/pkg/domain"
)

func ref(r *id.ID) any {
	if r == nil {
		return id.NilID
	}
	return *r
}

// Person describes the collection of one profile kind.
func Person(kind id.ProfileKind) store.Schema[*models.Person] {
	return store.Schema[*models.Person]{
		Model: string(kind),
		New:   func() *models.Person { return &models.Person{Kind: kind} },
		Fields: map[string]func(*models.Person) any{
			"nationalId":  func(p *models.Person) any { return p.NationalID },
			"phoneNumber": func(p *models.Person) any { return p.PhoneNumber },
			"email":       func(p *models.Person) any { return p.Email },
			"firstName":   func(p *models.Person) any { return p.FirstName },
			"lastName":    func(p *models.Person) any { return p.LastName },
			"user":        func(p *models.Person) any { return ref(p.User) },
			"role":        func(p *models.Person) any { return ref(p.Role) },
			"trade":       func(p *models.Person) any { return ref(p.Trade) },
			"address":     func(p *models.Person) any { return ref(p.Address) },
			"nextOfKin":   func(p *models.Person) any { return ref(p.NextOfKin) },
			"createdBy":   func(p *models.Person) any { return ref(p.CreatedBy) },
			"modifiedBy":  func(p *models.Person) any { return ref(p.ModifiedBy) },
		},
		Unique: []string{"nationalId", "phoneNumber", "email"},
		Refs: map[string]func(*models.Person, id.ID){
			"role":  func(p *models.Person, v id.ID) { p.Role = &v },
			"trade": func(p *models.Person, v id.ID) { p.Trade = &v },
		},
	}
}

func Address() store.Schema[*models.Address] {
	return store.Schema[*models.Address]{
		Model: models.ModelAddress,
		New:   func() *models.Address { return &models.Address{} },
		Fields: map[string]func(*models.Address) any{
			"owners.count": func(a *models.Address) any { return a.Owners.Count },
			"createdBy":    func(a *models.Address) any { return ref(a.CreatedBy) },
			"modifiedBy":   func(a *models.Address) any { return ref(a.ModifiedBy) },
		},
	}
}

func NextOfKin() store.Schema[*models.NextOfKin] {
	return store.Schema[*models.NextOfKin]{
		Model: models.ModelNextOfKin,
		New:   func() *models.NextOfKin { return &models.NextOfKin{} },
		Fields: map[string]func(*models.NextOfKin) any{
			"email":        func(n *models.NextOfKin) any { return n.Email },
			"phoneNumber":  func(n *models.NextOfKin) any { return n.PhoneNumber },
			"address":      func(n *models.NextOfKin) any { return ref(n.Address) },
			"owners.count": func(n *models.NextOfKin) any { return n.Owners.Count },
			"createdBy":    func(n *models.NextOfKin) any { return ref(n.CreatedBy) },
			"modifiedBy":   func(n *models.NextOfKin) any { return ref(n.ModifiedBy) },
		},
		Unique: []string{"email"},
	}
}

func Lookup(kind lookupmodels.Kind) store.Schema[*lookupmodels.Lookup] {
	return store.Schema[*lookupmodels.Lookup]{
		Model: string(kind),
		New:   func() *lookupmodels.Lookup { return &lookupmodels.Lookup{Kind: kind} },
		Fields: map[string]func(*lookupmodels.Lookup) any{
			"name":       func(l *lookupmodels.Lookup) any { return l.Name },
			"createdBy":  func(l *lookupmodels.Lookup) any { return ref(l.CreatedBy) },
			"modifiedBy": func(l *lookupmodels.Lookup) any { return ref(l.ModifiedBy) },
		},
		Unique: []string{"name"},
	}
}

func User() store.Schema[*authmodels.User] {
	return store.Schema[*authmodels.User]{
		Model: authmodels.ModelUser,
		New:   func() *authmodels.User { return &authmodels.User{} },
		Fields: map[string]func(*authmodels.User) any{
			"nationalId":        func(u *authmodels.User) any { return u.NationalID },
			"phoneNumber":       func(u *authmodels.User) any { return u.PhoneNumber },
			"email":             func(u *authmodels.User) any { return u.Email },
			"deletedBy":         func(u *authmodels.User) any { return ref(u.DeletedBy) },
			"isActive":          func(u *authmodels.User) any { return u.IsActive },
			"isDeleted":         func(u *authmodels.User) any { return u.IsDeleted },
			"isAdmin":           func(u *authmodels.User) any { return u.IsAdmin },
			"isManager":         func(u *authmodels.User) any { return u.IsManager },
			"isStudent":         func(u *authmodels.User) any { return u.IsStudent },
			"isTrainingOfficer": func(u *authmodels.User) any { return u.IsTrainingOfficer },
			"createdBy":         func(u *authmodels.User) any { return ref(u.CreatedBy) },
			"modifiedBy":        func(u *authmodels.User) any { return ref(u.ModifiedBy) },
		},
		Unique: []string{"nationalId", "phoneNumber", "email"},
	}
}
