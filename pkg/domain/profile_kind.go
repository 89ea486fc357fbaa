package domain

import (
	"strings"

	dErrors "mugs/pkg/domain-errors"
)

// ProfileKind names one of the person collections a User can hold a profile in.
// Invariant: the value must be one of the four supported kinds.
//
// Usage: construct via ParseProfileKind at trust boundaries; direct casting
// bypasses validation.
type ProfileKind string

const (
	ProfileManager         ProfileKind = "Manager"
	ProfileStudent         ProfileKind = "Student"
	ProfileTrainingOfficer ProfileKind = "TrainingOfficer"
	ProfileAdmin           ProfileKind = "Admin"
)

// ProfileKinds lists every kind in scope order.
var ProfileKinds = []ProfileKind{ProfileManager, ProfileStudent, ProfileTrainingOfficer, ProfileAdmin}

var profileKindAliases = map[string]ProfileKind{
	"manager":          ProfileManager,
	"managers":         ProfileManager,
	"student":          ProfileStudent,
	"students":         ProfileStudent,
	"trainingofficer":  ProfileTrainingOfficer,
	"trainingofficers": ProfileTrainingOfficer,
	"admin":            ProfileAdmin,
	"admins":           ProfileAdmin,
}

// ParseProfileKind accepts the model name, the scope token or the plural
// collection name in any case.
//
// Errors: returns CodeInvalidInput when the value names no profile kind.
func ParseProfileKind(s string) (ProfileKind, error) {
	k, ok := profileKindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid profile kind")
	}
	return k, nil
}

func (k ProfileKind) IsValid() bool {
	switch k {
	case ProfileManager, ProfileStudent, ProfileTrainingOfficer, ProfileAdmin:
		return true
	}
	return false
}

// UsesTrade reports whether the kind carries a Trade reference instead of a Role.
func (k ProfileKind) UsesTrade() bool {
	return k == ProfileStudent || k == ProfileTrainingOfficer
}

// ScopeToken is the lowercase role token carried in scopes and tokens.
func (k ProfileKind) ScopeToken() string {
	return strings.ToLower(string(k))
}

// Key is the lowerCamel name used for profile map keys and owner variants.
func (k ProfileKind) Key() string {
	if k == "" {
		return ""
	}
	return strings.ToLower(string(k[:1])) + string(k[1:])
}

// Collection is the plural storage name of the kind.
func (k ProfileKind) Collection() string {
	return strings.ToLower(string(k)) + "s"
}
