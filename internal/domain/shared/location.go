package shared

import (
	"strings"

	"github.com/google/uuid"
)

// LocationPrefix is prepended to a branch id to form a location id
const LocationPrefix = "location_"

// ErrInvalidLocationID is returned for location ids that do not follow location_<branchId>
var ErrInvalidLocationID = NewDomainError("INVALID_LOCATION_ID", "Location id must have the form location_<branchId>")

// LocationID is the secondary scoping key for inventory and sales data.
// Its string form is always "location_" followed by the branch UUID.
type LocationID string

// NewLocationID derives the location id of a branch
func NewLocationID(branchID uuid.UUID) LocationID {
	return LocationID(LocationPrefix + branchID.String())
}

// ParseLocationID validates s and returns it as a LocationID
func ParseLocationID(s string) (LocationID, error) {
	if _, err := BranchIDFromLocation(s); err != nil {
		return "", err
	}
	return LocationID(s), nil
}

// BranchIDFromLocation extracts the branch id from a location id string
func BranchIDFromLocation(s string) (uuid.UUID, error) {
	rest, ok := strings.CutPrefix(s, LocationPrefix)
	if !ok || rest == "" {
		return uuid.Nil, ErrInvalidLocationID
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, WrapDomainError(ErrInvalidLocationID.Code, ErrInvalidLocationID.Message, err)
	}
	// Only the lowercase hyphenated form is accepted so one branch has one key
	if id.String() != rest {
		return uuid.Nil, ErrInvalidLocationID
	}
	return id, nil
}

// NormalizeLocationID accepts a bare branch id or a location id in any
// spelling uuid.Parse understands and returns the canonical location id.
// Used by the integrity fixer for legacy rows.
func NormalizeLocationID(s string) (LocationID, error) {
	rest := strings.TrimPrefix(strings.TrimSpace(s), LocationPrefix)
	id, err := uuid.Parse(rest)
	if err != nil {
		return "", WrapDomainError(ErrInvalidLocationID.Code, ErrInvalidLocationID.Message, err)
	}
	return NewLocationID(id), nil
}

// BranchID returns the branch id encoded in the location id
func (l LocationID) BranchID() (uuid.UUID, error) {
	return BranchIDFromLocation(string(l))
}

// IsZero reports whether the location id is empty
func (l LocationID) IsZero() bool { return l == "" }

func (l LocationID) String() string { return string(l) }
