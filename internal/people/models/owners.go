package models

import (
	"slices"

	"mugs/pkg/document"
	id "mugs/pkg/domain"
)

// OwnerKind is the variant tag of an owner backlink.
type OwnerKind string

const (
	OwnerAdmin           OwnerKind = "admins"
	OwnerManager         OwnerKind = "managers"
	OwnerStudent         OwnerKind = "students"
	OwnerTrainingOfficer OwnerKind = "trainingOfficers"
	OwnerNextOfKin       OwnerKind = "nextOfKins"
)

// OwnerRef is one backlink: which kind of entity owns the sub-resource, and which one.
type OwnerRef struct {
	Kind OwnerKind
	ID   id.ID
}

func AdminOwner(ownerID id.ID) OwnerRef   { return OwnerRef{Kind: OwnerAdmin, ID: ownerID} }
func ManagerOwner(ownerID id.ID) OwnerRef { return OwnerRef{Kind: OwnerManager, ID: ownerID} }
func StudentOwner(ownerID id.ID) OwnerRef { return OwnerRef{Kind: OwnerStudent, ID: ownerID} }
func TrainingOfficerOwner(ownerID id.ID) OwnerRef {
	return OwnerRef{Kind: OwnerTrainingOfficer, ID: ownerID}
}
func NextOfKinOwner(ownerID id.ID) OwnerRef { return OwnerRef{Kind: OwnerNextOfKin, ID: ownerID} }

// ProfileOwner returns the owner variant for a person profile.
func ProfileOwner(kind id.ProfileKind, ownerID id.ID) OwnerRef {
	switch kind {
	case id.ProfileAdmin:
		return AdminOwner(ownerID)
	case id.ProfileManager:
		return ManagerOwner(ownerID)
	case id.ProfileStudent:
		return StudentOwner(ownerID)
	default:
		return TrainingOfficerOwner(ownerID)
	}
}

// Owners holds the backlinks of a shared sub-resource, one ordered set per
// owner variant. Count is the total number of backlinks and is what orphan
// sweeps filter on.
type Owners struct {
	Admins           []id.ID `bson:"admins" json:"admins"`
	Managers         []id.ID `bson:"managers" json:"managers"`
	Students         []id.ID `bson:"students" json:"students"`
	TrainingOfficers []id.ID `bson:"trainingOfficers" json:"trainingOfficers"`
	NextOfKins       []id.ID `bson:"nextOfKins" json:"nextOfKins"`
	Count            int     `bson:"count" json:"-"`
}

func (o *Owners) slot(kind OwnerKind) *[]id.ID {
	switch kind {
	case OwnerAdmin:
		return &o.Admins
	case OwnerManager:
		return &o.Managers
	case OwnerStudent:
		return &o.Students
	case OwnerTrainingOfficer:
		return &o.TrainingOfficers
	case OwnerNextOfKin:
		return &o.NextOfKins
	}
	return nil
}

// Add inserts ref; reports false if it was already present.
func (o *Owners) Add(ref OwnerRef) bool {
	set := o.slot(ref.Kind)
	if set == nil || slices.Contains(*set, ref.ID) {
		return false
	}
	*set = append(*set, ref.ID)
	o.recount()
	return true
}

// Remove deletes ref; reports false if it was absent.
func (o *Owners) Remove(ref OwnerRef) bool {
	set := o.slot(ref.Kind)
	if set == nil {
		return false
	}
	i := slices.Index(*set, ref.ID)
	if i < 0 {
		return false
	}
	*set = slices.Delete(*set, i, i+1)
	o.recount()
	return true
}

func (o *Owners) Has(ref OwnerRef) bool {
	set := o.slot(ref.Kind)
	return set != nil && slices.Contains(*set, ref.ID)
}

// Empty reports whether every owner set is empty.
func (o *Owners) Empty() bool {
	return o.total() == 0
}

// Refs lists every backlink.
func (o *Owners) Refs() []OwnerRef {
	out := make([]OwnerRef, 0, o.total())
	for _, kind := range []OwnerKind{OwnerAdmin, OwnerManager, OwnerStudent, OwnerTrainingOfficer, OwnerNextOfKin} {
		for _, ownerID := range *o.slot(kind) {
			out = append(out, OwnerRef{Kind: kind, ID: ownerID})
		}
	}
	return out
}

func (o *Owners) total() int {
	return len(o.Admins) + len(o.Managers) + len(o.Students) + len(o.TrainingOfficers) + len(o.NextOfKins)
}

func (o *Owners) recount() {
	o.Count = o.total()
}

// Owned is a sub-resource shared through backlinks.
type Owned interface {
	document.Document
	OwnerSet() *Owners
}
