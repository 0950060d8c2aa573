// ABOUTME: Contact-access resolver: participant's own value -> eligible booking default -> nothing.
// ABOUTME: Pure over a BookingConfig and one Participant; safe for concurrent use.
package access

import (
	"github.com/hassandayeh/NRE-sub001/internal/resolve"
)

// Placeholder is how an access with no value is rendered.
const Placeholder = "—"

// Access is the effective contact payload shown for one participant.
type Access struct {
	Kind AppearanceType `json:"kind"`
	// Value is nil when neither the participant nor an eligible default
	// supplies anything for Kind.
	Value        *string `json:"value"`
	UsedFallback bool    `json:"used_fallback"`
}

// Display returns Value, or Placeholder when there is none.
func (a Access) Display() string {
	if a.Value == nil {
		return Placeholder
	}
	return *a.Value
}

// Resolver computes effective access. The zero Options disable PHONE.
type Resolver struct {
	opts Options
}

// NewResolver returns a Resolver using opts.
func NewResolver(opts Options) *Resolver {
	return &Resolver{opts: opts}
}

// Kind determines the appearance type that applies to p under cfg.
// It fails only when cfg.Scope is unrecognised or the chosen type is unset.
func Kind(cfg BookingConfig, p Participant) (AppearanceType, error) {
	var kind AppearanceType
	switch cfg.Scope {
	case ScopeUnified:
		kind = cfg.UnifiedType
	case ScopePerParticipant:
		kind = p.Appearance
	default:
		return AppearanceUnspecified, ErrUnknownScope
	}
	if !kind.Valid() {
		return AppearanceUnspecified, ErrUnknownAppearance
	}
	return kind, nil
}

// Resolve returns the effective access for p under cfg. A missing value is
// not an error; only an undeterminable kind is.
func (r *Resolver) Resolve(cfg BookingConfig, p Participant) (Access, error) {
	kind, err := Kind(cfg, p)
	if err != nil {
		return Access{}, err
	}
	if kind == Phone && !r.opts.PhoneEnabled {
		return Access{Kind: kind}, nil
	}

	out := resolve.First(
		resolve.NonEmpty(p.Contact.For(kind)),
		resolve.NonEmptyIf(cfg.Defaults.For(kind), cfg.DefaultEligible()),
	)
	a := Access{Kind: kind}
	if out.Found() {
		v := out.Value
		a.Value = &v
		a.UsedFallback = out.Layer == 1
	}
	return a, nil
}

var defaultResolver = NewResolver(Options{PhoneEnabled: true})

// ResolveAccess resolves p under cfg with every appearance type enabled.
func ResolveAccess(cfg BookingConfig, p Participant) (Access, error) {
	return defaultResolver.Resolve(cfg, p)
}
