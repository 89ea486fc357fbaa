package archive

import (
	"maps"

	authmodels "mugs/internal/auth/models"
	"mugs/pkg/document"
)

// credentialKeys never leave the live store.
var credentialKeys = []string{"password", "jwts", "tokens", "_v", "__v"}

// auditKeys are dropped from actor snapshots.
var auditKeys = []string{"createdBy", "createdAt", "modifiedBy", "updatedAt"}

// SanitizeActor renders the deleting user without credentials or audit stamps.
func SanitizeActor(u *authmodels.User) (map[string]any, error) {
	m, err := document.ToMap(u)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(m), nil
}

// SanitizeDocument strips credentials and version markers throughout the
// snapshot and reduces populated audit users to their sanitized form.
func SanitizeDocument(doc map[string]any) map[string]any {
	out := stripKeys(doc)
	for _, key := range []string{"createdBy", "modifiedBy"} {
		if u, ok := out[key].(map[string]any); ok {
			out[key] = sanitizeUser(u)
		}
	}
	return out
}

func sanitizeUser(u map[string]any) map[string]any {
	out := stripKeys(u)
	for _, k := range auditKeys {
		delete(out, k)
	}
	return out
}

func stripKeys(in map[string]any) map[string]any {
	out := maps.Clone(in)
	for _, k := range credentialKeys {
		delete(out, k)
	}
	for k, v := range out {
		switch t := v.(type) {
		case map[string]any:
			out[k] = stripKeys(t)
		case []any:
			items := make([]any, len(t))
			for i, item := range t {
				if m, ok := item.(map[string]any); ok {
					items[i] = stripKeys(m)
				} else {
					items[i] = item
				}
			}
			out[k] = items
		}
	}
	return out
}
