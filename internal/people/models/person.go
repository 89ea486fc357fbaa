package models

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

// PersonUpdateFields is the update allowlist shared by every profile kind;
// role or trade is appended per kind.
var PersonUpdateFields = []string{
	"address", "dob", "email", "firstName", "lastName", "nationalId",
	"nextOfKin", "phoneNumber", "relation", "sex", "title",
}

// ManagedFields are set by the system and never accepted from callers.
var ManagedFields = []string{
	"id", "_id", "_v", "RVC", "user", "kind",
	"createdBy", "modifiedBy", "createdAt", "updatedAt",
}

// Person is a profile document. Admins and Managers carry Role; Students and
// TrainingOfficers carry Trade. Each kind lives in its own collection.
type Person struct {
	document.Base `bson:",inline"`
	id.Identity   `bson:",inline"`

	Kind      id.ProfileKind `bson:"kind" json:"kind"`
	User      *id.ID         `bson:"user,omitempty" json:"user,omitempty"`
	Dob       *time.Time     `bson:"dob,omitempty" json:"dob,omitempty"`
	RVC       string         `bson:"RVC" json:"RVC"`
	Relation  string         `bson:"relation,omitempty" json:"relation,omitempty"`
	Address   *id.ID         `bson:"address,omitempty" json:"address,omitempty"`
	NextOfKin *id.ID         `bson:"nextOfKin,omitempty" json:"nextOfKin,omitempty"`
	Role      *id.ID         `bson:"role,omitempty" json:"role,omitempty"`
	Trade     *id.ID         `bson:"trade,omitempty" json:"trade,omitempty"`
}

// UpdateFields returns the allowlist for kind.
func UpdateFields(kind id.ProfileKind) []string {
	out := append([]string{}, PersonUpdateFields...)
	return append(out, ReferenceField(kind))
}

// CreateFields returns the creation allowlist for kind. Creation ignores
// other keys unless they are managed fields or the other kind's reference.
func CreateFields(kind id.ProfileKind) []string {
	return UpdateFields(kind)
}

// ReferenceField names the lookup reference a kind carries.
func ReferenceField(kind id.ProfileKind) string {
	if kind.UsesTrade() {
		return "trade"
	}
	return "role"
}

// Reference returns the Role or Trade reference for the person's kind.
func (p *Person) Reference() *id.ID {
	if p.Kind.UsesTrade() {
		return p.Trade
	}
	return p.Role
}

// SetReference sets the Role or Trade reference for the person's kind.
func (p *Person) SetReference(ref id.ID) {
	if p.Kind.UsesTrade() {
		p.Trade = &ref
		return
	}
	p.Role = &ref
}

func (p *Person) Owner() OwnerRef {
	return ProfileOwner(p.Kind, p.ID)
}

func (p *Person) Normalize() {
	p.NormalizeIdentity()
	p.Relation = strings.TrimSpace(p.Relation)
	if p.RVC == "" {
		p.RVC = NewRVC()
	}
}

// Validate checks the schema constraints, including that exactly one of
// role and trade is set for the kind.
func (p *Person) Validate() error {
	model := string(p.Kind)
	if !p.Kind.IsValid() {
		return dErrors.New(dErrors.CodeInternal, "person has no valid kind")
	}
	if p.Reference() == nil {
		return dErrors.Required(model, ReferenceField(p.Kind))
	}
	if p.Kind.UsesTrade() && p.Role != nil {
		return dErrors.NotAllowed(model, "role")
	}
	if !p.Kind.UsesTrade() && p.Trade != nil {
		return dErrors.NotAllowed(model, "trade")
	}
	return p.ValidateIdentity(model, "firstName", "lastName", "phoneNumber", "nationalId")
}

// NewRVC returns a 6-digit registration verification code.
func NewRVC() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "000000"
	}
	s := n.String()
	return strings.Repeat("0", 6-len(s)) + s
}
