package access

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hassandayeh/NRE-sub001/internal/resolve"
)

// VenueSeparator joins venue name and address for in-person appearances.
const VenueSeparator = ", "

// Contact holds the contact fields shared by participants and booking
// defaults. An empty or whitespace-only field is absent.
type Contact struct {
	JoinURL      string `json:"join_url,omitempty"`
	VenueName    string `json:"venue_name,omitempty"`
	VenueAddress string `json:"venue_address,omitempty"`
	DialInfo     string `json:"dial_info,omitempty"`
}

// For returns the field (or joined fields) matching kind.
func (c Contact) For(kind AppearanceType) string {
	switch kind {
	case Online:
		return c.JoinURL
	case InPerson:
		return resolve.Join(VenueSeparator, c.VenueName, c.VenueAddress)
	case Phone:
		return c.DialInfo
	default:
		return ""
	}
}

// BookingConfig is one participant pool's access configuration. Guests and
// hosts each carry their own.
type BookingConfig struct {
	Scope        Scope          `json:"appearance_scope"`
	Provisioning Provisioning   `json:"access_provisioning"`
	UnifiedType  AppearanceType `json:"unified_type"`
	Defaults     Contact        `json:"defaults"`
}

// DefaultEligible reports whether booking defaults may stand in for a
// participant's missing contact value. Only UNIFIED + SHARED qualifies.
func (c BookingConfig) DefaultEligible() bool {
	return c.Scope == ScopeUnified && c.Provisioning == ProvisioningShared
}

// Validate rejects configurations the resolver cannot reason about.
func (c BookingConfig) Validate(opts Options) error {
	if !c.Scope.Valid() {
		return fmt.Errorf("booking config: %w: %s", ErrUnknownScope, c.Scope)
	}
	if !c.Provisioning.Valid() {
		return fmt.Errorf("booking config: %w: %s", ErrUnknownProvisioning, c.Provisioning)
	}
	if c.Scope == ScopeUnified {
		if err := opts.checkAppearance(c.UnifiedType); err != nil {
			return fmt.Errorf("booking config unified type: %w", err)
		}
	}
	return nil
}

// Participant is a guest or host on a booking.
type Participant struct {
	ID          uuid.UUID      `json:"id"`
	DisplayName string         `json:"display_name"`
	Appearance  AppearanceType `json:"appearance_type"`
	Contact     Contact        `json:"contact"`
}

// Options carries deployment-level switches.
type Options struct {
	PhoneEnabled bool
}

func (o Options) checkAppearance(a AppearanceType) error {
	if !a.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownAppearance, a)
	}
	if a == Phone && !o.PhoneEnabled {
		return ErrPhoneDisabled
	}
	return nil
}
