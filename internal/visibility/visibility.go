// ABOUTME: Expert discoverability: PUBLIC experts are visible to every org, EXCLUSIVE ones to one org.
// ABOUTME: A two-branch predicate; every other combination is invisible.
package visibility

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUnknownVisibility is returned when parsing an unrecognised visibility.
var ErrUnknownVisibility = errors.New("unknown expert visibility")

// ErrExclusiveWithoutOrg is returned by Validate for an EXCLUSIVE expert with
// no owning organization.
var ErrExclusiveWithoutOrg = errors.New("exclusive expert has no owning organization")

// Visibility is an expert's discoverability status.
type Visibility int

const (
	Unspecified Visibility = iota
	Public
	Exclusive
)

// Parse parses "PUBLIC" or "EXCLUSIVE".
func Parse(s string) (Visibility, error) {
	switch s {
	case "PUBLIC":
		return Public, nil
	case "EXCLUSIVE":
		return Exclusive, nil
	}
	return Unspecified, fmt.Errorf("%w: %q", ErrUnknownVisibility, s)
}

func (v Visibility) String() string {
	switch v {
	case Public:
		return "PUBLIC"
	case Exclusive:
		return "EXCLUSIVE"
	default:
		return "UNSPECIFIED"
	}
}

func (v Visibility) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// Expert is the subset of an expert profile that decides visibility.
type Expert struct {
	ID             uuid.UUID     `json:"id"`
	DisplayName    string        `json:"display_name"`
	Visibility     Visibility    `json:"visibility"`
	ExclusiveOrgID uuid.NullUUID `json:"exclusive_org_id"`
}

// Validate rejects experts that could never be shown to anyone by mistake.
func (e Expert) Validate() error {
	switch e.Visibility {
	case Public:
		return nil
	case Exclusive:
		if !e.ExclusiveOrgID.Valid {
			return ErrExclusiveWithoutOrg
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownVisibility, e.Visibility)
	}
}

// VisibleTo reports whether e is discoverable by orgID.
func (e Expert) VisibleTo(orgID uuid.UUID) bool {
	return Visible(e.Visibility, e.ExclusiveOrgID, orgID)
}

// Visible is the discoverability predicate over raw fields.
func Visible(v Visibility, exclusiveOrgID uuid.NullUUID, orgID uuid.UUID) bool {
	switch v {
	case Public:
		return true
	case Exclusive:
		return exclusiveOrgID.Valid && exclusiveOrgID.UUID == orgID
	default:
		return false
	}
}

// Filter returns the experts visible to orgID, preserving order.
func Filter(experts []Expert, orgID uuid.UUID) []Expert {
	out := make([]Expert, 0, len(experts))
	for _, e := range experts {
		if e.VisibleTo(orgID) {
			out = append(out, e)
		}
	}
	return out
}
