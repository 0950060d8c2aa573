// ABOUTME: Closed enumerations for booking access: appearance type, scope, and provisioning.
// ABOUTME: Values are parsed at the boundary; unknown strings never reach the resolver.
package access

import (
	"errors"
	"fmt"
)

// Boundary errors. The resolver itself never fails on missing data; these
// only surface for configurations it refuses to reason about.
var (
	ErrUnknownScope        = errors.New("unknown appearance scope")
	ErrUnknownProvisioning = errors.New("unknown access provisioning")
	ErrUnknownAppearance   = errors.New("unknown appearance type")
	ErrPhoneDisabled       = errors.New("phone appearances are disabled")
)

// AppearanceType is how a participant appears on a booking.
type AppearanceType int

const (
	AppearanceUnspecified AppearanceType = iota
	Online
	InPerson
	Phone
)

var appearanceNames = map[AppearanceType]string{
	Online:   "ONLINE",
	InPerson: "IN_PERSON",
	Phone:    "PHONE",
}

// ParseAppearanceType parses the canonical upper-case name.
func ParseAppearanceType(s string) (AppearanceType, error) {
	for k, v := range appearanceNames {
		if v == s {
			return k, nil
		}
	}
	return AppearanceUnspecified, fmt.Errorf("%w: %q", ErrUnknownAppearance, s)
}

// Valid reports whether a is one of the named appearance types.
func (a AppearanceType) Valid() bool {
	_, ok := appearanceNames[a]
	return ok
}

func (a AppearanceType) String() string {
	if s, ok := appearanceNames[a]; ok {
		return s
	}
	return "UNSPECIFIED"
}

func (a AppearanceType) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AppearanceType) UnmarshalText(b []byte) error {
	v, err := ParseAppearanceType(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Scope says whether a booking's appearance type is fixed for every
// participant or chosen per participant.
type Scope int

const (
	ScopeUnified Scope = iota + 1
	ScopePerParticipant
)

// ParseScope parses "UNIFIED" or "PER_PARTICIPANT".
func ParseScope(s string) (Scope, error) {
	switch s {
	case "UNIFIED":
		return ScopeUnified, nil
	case "PER_PARTICIPANT":
		return ScopePerParticipant, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScope, s)
}

func (s Scope) Valid() bool { return s == ScopeUnified || s == ScopePerParticipant }

func (s Scope) String() string {
	switch s {
	case ScopeUnified:
		return "UNIFIED"
	case ScopePerParticipant:
		return "PER_PARTICIPANT"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

func (s Scope) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Scope) UnmarshalText(b []byte) error {
	v, err := ParseScope(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Provisioning says whether contact details come from the booking's shared
// defaults or are supplied by each participant.
type Provisioning int

const (
	ProvisioningShared Provisioning = iota + 1
	ProvisioningPerParticipant
)

// ParseProvisioning parses "SHARED" or "PER_PARTICIPANT".
func ParseProvisioning(s string) (Provisioning, error) {
	switch s {
	case "SHARED":
		return ProvisioningShared, nil
	case "PER_PARTICIPANT":
		return ProvisioningPerParticipant, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProvisioning, s)
}

func (p Provisioning) Valid() bool {
	return p == ProvisioningShared || p == ProvisioningPerParticipant
}

func (p Provisioning) String() string {
	switch p {
	case ProvisioningShared:
		return "SHARED"
	case ProvisioningPerParticipant:
		return "PER_PARTICIPANT"
	default:
		return fmt.Sprintf("Provisioning(%d)", int(p))
	}
}

func (p Provisioning) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Provisioning) UnmarshalText(b []byte) error {
	v, err := ParseProvisioning(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
