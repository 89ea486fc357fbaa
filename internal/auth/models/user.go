package models

import (
	"slices"
	"strings"
	"time"

	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

const ModelUser = "User"

// User is the authentication identity behind one or more person profiles.
//
// Invariants:
//   - a true role flag always has a matching entry in Profiles, and vice versa
//   - Scope is derived from the flags (see GenerateScope), never set directly
//   - users are never hard-deleted; SoftDelete clears IsActive and sets IsDeleted
type User struct {
	document.Base `bson:",inline"`
	id.Identity   `bson:",inline"`

	PasswordHash      string                   `bson:"password" json:"-"`
	IsAdmin           bool                     `bson:"isAdmin" json:"isAdmin"`
	IsManager         bool                     `bson:"isManager" json:"isManager"`
	IsTrainingOfficer bool                     `bson:"isTrainingOfficer" json:"isTrainingOfficer"`
	IsStudent         bool                     `bson:"isStudent" json:"isStudent"`
	IsActive          bool                     `bson:"isActive" json:"isActive"`
	IsDeleted         bool                     `bson:"isDeleted" json:"isDeleted"`
	Scope             string                   `bson:"scope" json:"scope"`
	Tokens            []string                 `bson:"jwts" json:"-"`
	Profiles          map[id.ProfileKind]id.ID `bson:"profiles" json:"profiles"`
	DeletedBy         *id.ID                   `bson:"deletedBy,omitempty" json:"deletedBy,omitempty"`
	DeletedAt         *time.Time               `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
}

func (u *User) Normalize() {
	u.NormalizeIdentity()
	u.RefreshScope()
}

func (u *User) Validate() error {
	if u.PasswordHash == "" {
		return dErrors.Required(ModelUser, "password")
	}
	return u.ValidateIdentity(ModelUser, "nationalId")
}

// IsLive reports whether the account may act: active and not soft-deleted.
func (u *User) IsLive() bool {
	return u != nil && u.IsActive && !u.IsDeleted
}

// HasFlag reports the role flag for kind.
func (u *User) HasFlag(kind id.ProfileKind) bool {
	switch kind {
	case id.ProfileAdmin:
		return u.IsAdmin
	case id.ProfileManager:
		return u.IsManager
	case id.ProfileTrainingOfficer:
		return u.IsTrainingOfficer
	case id.ProfileStudent:
		return u.IsStudent
	}
	return false
}

func (u *User) setFlag(kind id.ProfileKind, v bool) {
	switch kind {
	case id.ProfileAdmin:
		u.IsAdmin = v
	case id.ProfileManager:
		u.IsManager = v
	case id.ProfileTrainingOfficer:
		u.IsTrainingOfficer = v
	case id.ProfileStudent:
		u.IsStudent = v
	}
}

// LinkProfile records the profile and raises its flag.
func (u *User) LinkProfile(kind id.ProfileKind, profileID id.ID) {
	if u.Profiles == nil {
		u.Profiles = make(map[id.ProfileKind]id.ID)
	}
	u.Profiles[kind] = profileID
	u.setFlag(kind, true)
	u.RefreshScope()
}

// UnlinkProfile drops the profile and lowers its flag.
func (u *User) UnlinkProfile(kind id.ProfileKind) {
	delete(u.Profiles, kind)
	u.setFlag(kind, false)
	u.RefreshScope()
}

func (u *User) HasProfiles() bool {
	return len(u.Profiles) > 0
}

// GenerateScope joins the lowercase tokens of the true flags, in the order
// manager, student, trainingofficer, admin.
func (u *User) GenerateScope() string {
	tokens := make([]string, 0, len(id.ProfileKinds))
	for _, kind := range id.ProfileKinds {
		if u.HasFlag(kind) {
			tokens = append(tokens, kind.ScopeToken())
		}
	}
	return strings.Join(tokens, " ")
}

func (u *User) RefreshScope() {
	u.Scope = u.GenerateScope()
}

// Roles returns the scope as role tokens.
func (u *User) Roles() []string {
	return strings.Fields(u.Scope)
}

func (u *User) AddToken(jti string) {
	if !slices.Contains(u.Tokens, jti) {
		u.Tokens = append(u.Tokens, jti)
	}
}

func (u *User) RemoveToken(jti string) bool {
	i := slices.Index(u.Tokens, jti)
	if i < 0 {
		return false
	}
	u.Tokens = slices.Delete(u.Tokens, i, i+1)
	return true
}

func (u *User) HasToken(jti string) bool {
	return slices.Contains(u.Tokens, jti)
}

// SoftDelete deactivates the account and drops every issued token.
func (u *User) SoftDelete(actor *id.ID, now time.Time) {
	u.IsDeleted = true
	u.IsActive = false
	u.DeletedBy = actor
	u.DeletedAt = &now
	u.Tokens = nil
}

// Restore reactivates a soft-deleted account on re-registration.
func (u *User) Restore() {
	u.IsDeleted = false
	u.IsActive = true
	u.DeletedBy = nil
	u.DeletedAt = nil
}
