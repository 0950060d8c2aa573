// ABOUTME: Permission resolver: OrgRole active gate -> per-org override -> role template -> deny.
// ABOUTME: Pure over caller-supplied rows; safe for concurrent use with a shared Catalog.
package permission

import (
	"time"

	"github.com/google/uuid"

	"github.com/hassandayeh/NRE-sub001/internal/resolve"
)

// OrgRole is an organization's record for one slot. Rows are created lazily
// the first time an organization configures the slot.
type OrgRole struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	Slot      Slot
	Label     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayLabel returns the organization's label, falling back to the
// template name when the organization never set one.
func (r OrgRole) DisplayLabel(c *Catalog) string {
	var name string
	if t, ok := c.Template(r.Slot); ok {
		name = t.Name
	}
	return resolve.First(
		resolve.NonEmpty(r.Label),
		resolve.NonEmpty(name),
	).Or("Role " + r.Slot.String())
}

// Override is an explicit per-organization allow or deny for one capability
// on one OrgRole. A missing row means "defer to the template", not "deny".
type Override struct {
	OrgRoleID  uuid.UUID
	Capability Capability
	Allowed    bool
}

// Query names a single permission decision.
type Query struct {
	OrgID      uuid.UUID
	Slot       Slot
	Capability Capability
}

// Validate rejects queries the resolver refuses to reason about.
func (q Query) Validate() error {
	if !q.Slot.Valid() {
		_, err := ParseSlot(int(q.Slot))
		return err
	}
	return nil
}

// Rows holds exactly the stored rows one decision depends on: the OrgRole for
// (org, slot) and the override for (that role, capability). Either may be nil.
type Rows struct {
	Role     *OrgRole
	Override *Override
}

// Source names the layer that produced a decision.
type Source int

const (
	SourceInactive Source = iota // role missing, inactive, or not the queried org/slot
	SourceOverride               // per-org override row
	SourceTemplate               // global role template grant
	SourceDefault                // nothing matched; fail closed
)

func (s Source) String() string {
	switch s {
	case SourceInactive:
		return "inactive"
	case SourceOverride:
		return "override"
	case SourceTemplate:
		return "template"
	default:
		return "default"
	}
}

// MarshalText encodes the source name for JSON responses.
func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Decision is a resolved permission together with the layer that decided it.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Source  Source `json:"source"`
}

// Resolver answers permission queries against an immutable Catalog.
type Resolver struct {
	catalog *Catalog
}

// NewResolver returns a Resolver backed by c.
func NewResolver(c *Catalog) *Resolver {
	return &Resolver{catalog: c}
}

// Catalog returns the catalog the resolver reads templates from.
func (r *Resolver) Catalog() *Catalog { return r.catalog }

// Resolve reports whether the holder of q.Slot in q.OrgID may perform
// q.Capability, given the rows loaded for that query.
func (r *Resolver) Resolve(q Query, rows Rows) bool {
	return r.Explain(q, rows).Allowed
}

// Explain resolves q and reports which layer decided it.
//
// The active gate runs first: a missing or inactive role, or a role row that
// belongs to a different org or slot than the query, denies everything
// before any override is consulted. An override row is only honoured when it
// belongs to that role and capability.
func (r *Resolver) Explain(q Query, rows Rows) Decision {
	role := rows.Role
	active := q.Slot.Valid() &&
		role != nil &&
		role.Active &&
		role.OrgID == q.OrgID &&
		role.Slot == q.Slot

	var overrideAllowed, hasOverride bool
	if ov := rows.Override; active && ov != nil && ov.OrgRoleID == role.ID && ov.Capability == q.Capability {
		overrideAllowed, hasOverride = ov.Allowed, true
	}

	templateGrant, hasTemplate := r.catalog.Granted(q.Slot, q.Capability)

	// Layer order matches the Source constants.
	out := resolve.First(
		resolve.When(false, !active),
		resolve.When(overrideAllowed, hasOverride),
		resolve.When(templateGrant, hasTemplate),
	)
	if !out.Found() {
		return Decision{Allowed: false, Source: SourceDefault}
	}
	return Decision{Allowed: out.Value, Source: Source(out.Layer)}
}

// Entry is one row of an effective-permission matrix.
type Entry struct {
	Capability Capability `json:"capability"`
	Decision
}

// Effective resolves every known capability for one slot, given the slot's
// OrgRole (nil when never configured) and all of its override rows.
func (r *Resolver) Effective(orgID uuid.UUID, slot Slot, role *OrgRole, overrides []Override) []Entry {
	byCap := make(map[Capability]Override, len(overrides))
	for _, ov := range overrides {
		byCap[ov.Capability] = ov
	}
	caps := KnownCapabilities()
	out := make([]Entry, 0, len(caps))
	for _, c := range caps {
		rows := Rows{Role: role}
		if ov, ok := byCap[c]; ok {
			rows.Override = &ov
		}
		out = append(out, Entry{
			Capability: c,
			Decision:   r.Explain(Query{OrgID: orgID, Slot: slot, Capability: c}, rows),
		})
	}
	return out
}
