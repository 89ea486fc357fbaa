package service

import (
	"fmt"
	"slices"

	"mugs/internal/people/models"
	"mugs/internal/people/ownership"
	"mugs/pkg/document"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

// personInput splits create or update data into the scalar fields patched
// onto the person and the relations resolved through other entities.
type personInput struct {
	fields    document.Patch
	address   *ownership.Input
	nextOfKin *ownership.Input
	reference string
}

func parseInput(kind id.ProfileKind, data document.Patch) (personInput, error) {
	model := string(kind)
	refField := models.ReferenceField(kind)
	in := personInput{fields: data.Without("address", "nextOfKin", "role", "trade")}

	var err error
	if in.address, err = relationInput(model, "address", data["address"]); err != nil {
		return in, err
	}
	if in.nextOfKin, err = relationInput(model, "nextOfKin", data["nextOfKin"]); err != nil {
		return in, err
	}
	if in.reference, err = referenceInput(model, refField, data[refField]); err != nil {
		return in, err
	}
	return in, nil
}

// creationData keeps the keys creation accepts for kind and drops unknown
// ones. Managed fields and the role or trade a kind cannot carry fail
// Forbidden.
func creationData(kind id.ProfileKind, data document.Patch) (document.Patch, error) {
	allowed := models.CreateFields(kind)
	out := make(document.Patch, len(data))
	for _, k := range data.Keys() {
		switch {
		case slices.Contains(allowed, k):
			out[k] = data[k]
		case slices.Contains(models.ManagedFields, k), k == "role", k == "trade":
			return nil, dErrors.NotAllowed(string(kind), k)
		}
	}
	return out, nil
}

// relationInput accepts an id string or an object of fields with an optional id.
func relationInput(model, path string, v any) (*ownership.Input, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if t == "" {
			return nil, nil
		}
		return &ownership.Input{ID: t}, nil
	case map[string]any:
		return ownership.NewInput(t), nil
	}
	return nil, castError(model, path, v)
}

// referenceInput accepts an id string or an object carrying one under "id".
func referenceInput(model, path string, v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case map[string]any:
		raw, _ := t["id"].(string)
		return raw, nil
	}
	return "", castError(model, path, v)
}

func castError(model, path string, v any) error {
	return dErrors.Field(dErrors.CodeBadRequest, model, path, v, dErrors.KindType,
		fmt.Sprintf("Cast to ObjectId failed for value \"%v\" at path \"%s\"", v, path))
}

func changesIdentity(fields document.Patch) bool {
	for _, f := range id.IdentityFields {
		if _, ok := fields[f]; ok {
			return true
		}
	}
	return false
}

func sameRef(a, b *id.ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
