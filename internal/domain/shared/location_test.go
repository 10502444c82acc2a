package shared

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocationID(t *testing.T) {
	branchID := uuid.MustParse("8c1a7c9e-6a43-4b6e-9d3c-5a7b1f2e4d10")
	loc := NewLocationID(branchID)

	assert.Equal(t, "location_8c1a7c9e-6a43-4b6e-9d3c-5a7b1f2e4d10", loc.String())

	got, err := loc.BranchID()
	require.NoError(t, err)
	assert.Equal(t, branchID, got)
}

func TestParseLocationID(t *testing.T) {
	branchID := uuid.New()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "location_" + branchID.String(), false},
		{"missing prefix", branchID.String(), true},
		{"prefix only", "location_", true},
		{"not a uuid", "location_main-street", true},
		{"empty", "", true},
		{"wrong prefix", "branch_" + branchID.String(), true},
		{"uppercase uuid", "location_" + strings.ToUpper(branchID.String()), true},
		{"braced uuid", "location_{" + branchID.String() + "}", true},
		{"urn uuid", "location_urn:uuid:" + branchID.String(), true},
		{"uuid without dashes", "location_" + strings.ReplaceAll(branchID.String(), "-", ""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseLocationID(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLocationID)
				assert.True(t, loc.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, loc.String())
		})
	}
}

func TestNormalizeLocationID(t *testing.T) {
	branchID := uuid.New()

	loc, err := NormalizeLocationID(branchID.String())
	require.NoError(t, err)
	assert.Equal(t, NewLocationID(branchID), loc)

	loc, err = NormalizeLocationID("  location_" + branchID.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, NewLocationID(branchID), loc)

	_, err = NormalizeLocationID("downtown")
	assert.ErrorIs(t, err, ErrInvalidLocationID)
}

func TestNormalizeLocationID_Spellings(t *testing.T) {
	branchID := uuid.New()
	canonical := NewLocationID(branchID)

	for _, input := range []string{
		"location_" + strings.ToUpper(branchID.String()),
		"location_{" + branchID.String() + "}",
		"location_urn:uuid:" + branchID.String(),
		"location_" + strings.ReplaceAll(branchID.String(), "-", ""),
		strings.ToUpper(branchID.String()),
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseLocationID(input)
			assert.ErrorIs(t, err, ErrInvalidLocationID)

			loc, err := NormalizeLocationID(input)
			require.NoError(t, err)
			assert.Equal(t, canonical, loc)
			assert.Equal(t, canonical.String(), loc.String())
		})
	}
}
