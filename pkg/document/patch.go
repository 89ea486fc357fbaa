package document

import (
	"encoding/json"
	"errors"
	"maps"
	"slices"

	dErrors "mugs/pkg/domain-errors"
)

// Patch is a field-keyed update using the documents' wire names.
type Patch map[string]any

// Keys returns the patch fields in sorted order.
func (p Patch) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Without returns a copy of p minus the named fields.
func (p Patch) Without(fields ...string) Patch {
	out := make(Patch, len(p))
	for k, v := range p {
		if !slices.Contains(fields, k) {
			out[k] = v
		}
	}
	return out
}

// CheckAllowed fails Forbidden on the first field outside allowed.
func (p Patch) CheckAllowed(model string, allowed []string) error {
	for _, k := range p.Keys() {
		if !slices.Contains(allowed, k) {
			return dErrors.NotAllowed(model, k)
		}
	}
	return nil
}

// Apply decodes the patch onto doc. Only fields present in the patch change;
// a value of the wrong type fails BadRequest with kind "type".
func (p Patch) Apply(model string, doc any) error {
	if len(p) == 0 {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed update")
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return castError(model, err)
	}
	return nil
}

// Decode builds a fresh document from creation data.
func Decode[T any](model string, data Patch) (*T, error) {
	out := new(T)
	if err := data.Apply(model, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToMap renders v through its JSON shape, the shape clients and archives see.
func ToMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func castError(model string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return dErrors.Field(dErrors.CodeBadRequest, model, typeErr.Field, typeErr.Value, dErrors.KindType,
			"Cast to "+typeErr.Type.String()+" failed for path `"+typeErr.Field+"`")
	}
	return dErrors.Field(dErrors.CodeBadRequest, model, "", nil, dErrors.KindType, err.Error())
}
