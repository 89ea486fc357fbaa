package models

import (
	"strings"

	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

// Kind is the lookup model: Role or Trade.
type Kind string

const (
	KindRole  Kind = "Role"
	KindTrade Kind = "Trade"
)

// UpdateFields is the update allowlist for lookups.
var UpdateFields = []string{"name"}

// Dependents lists the profile kinds that reference a lookup of kind k.
func (k Kind) Dependents() []id.ProfileKind {
	if k == KindTrade {
		return []id.ProfileKind{id.ProfileStudent, id.ProfileTrainingOfficer}
	}
	return []id.ProfileKind{id.ProfileAdmin, id.ProfileManager}
}

// Field is the reference field dependents use for this kind.
func (k Kind) Field() string {
	return strings.ToLower(string(k))
}

// LookupFor returns the lookup kind a profile kind references.
func LookupFor(kind id.ProfileKind) Kind {
	if kind.UsesTrade() {
		return KindTrade
	}
	return KindRole
}

// Lookup is a Role or Trade shared by many profiles.
type Lookup struct {
	document.Base `bson:",inline"`

	Kind Kind   `bson:"kind" json:"kind"`
	Name string `bson:"name" json:"name"`
}

func (l *Lookup) Normalize() {
	l.Name = strings.ToLower(strings.TrimSpace(l.Name))
}

func (l *Lookup) Validate() error {
	if l.Name == "" {
		return dErrors.Required(string(l.Kind), "name")
	}
	return nil
}
