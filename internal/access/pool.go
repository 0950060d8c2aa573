package access

import (
	"fmt"

	"github.com/google/uuid"
)

// PoolKind distinguishes the guest and host participant pools of a booking.
type PoolKind int

const (
	PoolGuests PoolKind = iota + 1
	PoolHosts
)

func (k PoolKind) String() string {
	switch k {
	case PoolGuests:
		return "guest"
	case PoolHosts:
		return "host"
	default:
		return fmt.Sprintf("PoolKind(%d)", int(k))
	}
}

func (k PoolKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ParsePoolKind parses "guest" or "host".
func ParsePoolKind(s string) (PoolKind, error) {
	switch s {
	case "guest":
		return PoolGuests, nil
	case "host":
		return PoolHosts, nil
	}
	return 0, fmt.Errorf("unknown participant pool %q", s)
}

// Pool is one participant pool together with its own configuration.
type Pool struct {
	Kind         PoolKind
	Config       BookingConfig
	Participants []Participant
}

// Validate checks the pool's configuration and, under per-participant scope,
// every participant's appearance type.
func (p Pool) Validate(opts Options) error {
	if err := p.Config.Validate(opts); err != nil {
		return fmt.Errorf("%s pool: %w", p.Kind, err)
	}
	if p.Config.Scope != ScopePerParticipant {
		return nil
	}
	for _, pt := range p.Participants {
		if err := opts.checkAppearance(pt.Appearance); err != nil {
			return fmt.Errorf("%s %s: %w", p.Kind, pt.ID, err)
		}
	}
	return nil
}

// Booking is a booking's two independently configured pools.
type Booking struct {
	ID     uuid.UUID
	OrgID  uuid.UUID
	Guests Pool
	Hosts  Pool
}

// Entry is one participant's resolved access.
type Entry struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	Access
	Rendered string `json:"display"`
}

// PoolView is the resolved access for a whole pool.
type PoolView struct {
	Pool    PoolKind `json:"pool"`
	Entries []Entry  `json:"entries"`
	// Missing counts participants with no usable contact value.
	Missing int `json:"missing"`
	// Fallbacks counts participants shown a booking default.
	Fallbacks int `json:"fallbacks"`
}

// BookingView is the resolved access for both pools of a booking.
type BookingView struct {
	BookingID uuid.UUID `json:"booking_id"`
	Guests    PoolView  `json:"guests"`
	Hosts     PoolView  `json:"hosts"`
}

// ResolvePool resolves every participant of p against p's own configuration.
func (r *Resolver) ResolvePool(p Pool) (PoolView, error) {
	view := PoolView{Pool: p.Kind, Entries: make([]Entry, 0, len(p.Participants))}
	for _, pt := range p.Participants {
		a, err := r.Resolve(p.Config, pt)
		if err != nil {
			return PoolView{}, fmt.Errorf("%s %s: %w", p.Kind, pt.ID, err)
		}
		if a.Value == nil {
			view.Missing++
		}
		if a.UsedFallback {
			view.Fallbacks++
		}
		view.Entries = append(view.Entries, Entry{
			ParticipantID: pt.ID,
			DisplayName:   pt.DisplayName,
			Access:        a,
			Rendered:      a.Display(),
		})
	}
	return view, nil
}

// ResolveBooking resolves guests against the guest configuration and hosts
// against the host configuration.
func (r *Resolver) ResolveBooking(b Booking) (BookingView, error) {
	guests, err := r.ResolvePool(b.Guests)
	if err != nil {
		return BookingView{}, err
	}
	hosts, err := r.ResolvePool(b.Hosts)
	if err != nil {
		return BookingView{}, err
	}
	return BookingView{BookingID: b.ID, Guests: guests, Hosts: hosts}, nil
}
