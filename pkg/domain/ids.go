// Package domain holds identifiers and small value types shared across modules.
package domain

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "mugs/pkg/domain-errors"
)

// ID identifies every persisted document. Documents live in MongoDB, so the
// ObjectID is used directly and serializes as a 24-character hex string.
type ID = primitive.ObjectID

// NilID is the zero ID.
var NilID = primitive.NilObjectID

func NewID() ID {
	return primitive.NewObjectID()
}

// ParseID constructs an ID from external input.
//
// Errors: returns CodeBadRequest with kind ObjectId when the value is empty,
// malformed or the nil ID.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NilID, dErrors.Field(dErrors.CodeBadRequest, "", "_id", s, dErrors.KindObjectID, "id cannot be empty")
	}
	parsed, err := primitive.ObjectIDFromHex(s)
	if err != nil || parsed.IsZero() {
		return NilID, dErrors.Field(dErrors.CodeBadRequest, "", "_id", s, dErrors.KindObjectID,
			"Cast to ObjectId failed for value \""+s+"\"")
	}
	return parsed, nil
}

// SameID compares a reference with a raw id string after normalization.
func SameID(ref *ID, raw string) bool {
	if ref == nil {
		return false
	}
	return strings.EqualFold(ref.Hex(), strings.TrimSpace(raw))
}

// Ref returns a pointer to a copy of id.
func Ref(id ID) *ID {
	return &id
}
