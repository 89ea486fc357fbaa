package models

import (
	"strings"
	"time"

	"mugs/pkg/document"
	id "mugs/pkg/domain"
)

const ModelNextOfKin = "NextOfKin"

// NextOfKinUpdateFields is the update allowlist for next of kin. address is
// resolved through ownership, the rest are patched in place.
var NextOfKinUpdateFields = []string{
	"address", "dob", "email", "firstName", "lastName", "nationalId",
	"phoneNumber", "relation", "sex", "title",
}

const DefaultRelation = "Enter relation"

type NextOfKin struct {
	document.Base `bson:",inline"`
	id.Identity   `bson:",inline"`

	Relation string     `bson:"relation" json:"relation"`
	Dob      *time.Time `bson:"dob,omitempty" json:"dob,omitempty"`
	Address  *id.ID     `bson:"address,omitempty" json:"address,omitempty"`
	Owners   Owners     `bson:"owners" json:"owners"`
}

func (n *NextOfKin) OwnerSet() *Owners { return &n.Owners }

func (n *NextOfKin) Normalize() {
	n.NormalizeIdentity()
	n.Relation = strings.TrimSpace(n.Relation)
	if n.Relation == "" {
		n.Relation = DefaultRelation
	}
}

func (n *NextOfKin) Validate() error {
	return n.ValidateIdentity(ModelNextOfKin, "firstName", "lastName", "phoneNumber")
}
