package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "mugs/pkg/domain-errors"
)

// TestParseID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil ObjectIDs"
func TestParseID_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty string", "", true},
		{"whitespace only", "   ", true},
		{"nil id", NilID.Hex(), true},
		{"injection attempt", "'; DROP TABLE users;--", true},
		{"oversized input", strings.Repeat("a", 1000), true},
		{"uuid is not an object id", "550e8400-e29b-41d4-a716-446655440000", true},
		{"valid", "5f1d7a3e9b1e8a2c4d6f8a0b", false},
		{"valid with padding", " 5f1d7a3e9b1e8a2c4d6f8a0b ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSameID(t *testing.T) {
	id := NewID()
	assert.True(t, SameID(&id, id.Hex()))
	assert.True(t, SameID(&id, strings.ToUpper(id.Hex())))
	assert.False(t, SameID(nil, id.Hex()))
	assert.False(t, SameID(&id, NewID().Hex()))
}

func TestParseProfileKind(t *testing.T) {
	for input, want := range map[string]ProfileKind{
		"Admin":            ProfileAdmin,
		"managers":         ProfileManager,
		"trainingOfficers": ProfileTrainingOfficer,
		"STUDENT":          ProfileStudent,
	} {
		got, err := ParseProfileKind(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}

	_, err := ParseProfileKind("janitor")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	assert.True(t, ProfileStudent.UsesTrade())
	assert.False(t, ProfileManager.UsesTrade())
	assert.Equal(t, "trainingOfficer", ProfileTrainingOfficer.Key())
	assert.Equal(t, "trainingofficer", ProfileTrainingOfficer.ScopeToken())
	assert.False(t, ProfileKind("admins").IsValid())
}
