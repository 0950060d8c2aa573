// ABOUTME: Checker couples the pure Resolver with a row loader for per-request checks.
// ABOUTME: Loads exactly the OrgRole and override rows a decision names; never caches decisions.
package permission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RowLoader loads the rows a single decision depends on. Implementations
// return nil pointers, not errors, for rows that do not exist.
type RowLoader interface {
	LoadPermissionRows(ctx context.Context, orgID uuid.UUID, slot Slot, capability Capability) (Rows, error)
}

// BindingLoader resolves which slot a user holds in an organization.
// It returns (nil, nil) when the user is not a member.
type BindingLoader interface {
	GetMemberSlot(ctx context.Context, orgID, userID uuid.UUID) (*Slot, error)
}

// Checker answers permission checks for callers that hold only identifiers.
type Checker struct {
	resolver *Resolver
	rows     RowLoader
	bindings BindingLoader
}

// NewChecker returns a Checker. bindings may be nil when callers only use
// Check with an already-known slot.
func NewChecker(r *Resolver, rows RowLoader, bindings BindingLoader) *Checker {
	return &Checker{resolver: r, rows: rows, bindings: bindings}
}

// Check validates q, loads its rows, and resolves it.
func (c *Checker) Check(ctx context.Context, q Query) (Decision, error) {
	if err := q.Validate(); err != nil {
		return Decision{}, err
	}
	rows, err := c.rows.LoadPermissionRows(ctx, q.OrgID, q.Slot, q.Capability)
	if err != nil {
		return Decision{}, fmt.Errorf("load permission rows: %w", err)
	}
	return c.resolver.Explain(q, rows), nil
}

// Authorize resolves capability for userID in orgID. A user with no binding
// in the org is denied with SourceInactive.
func (c *Checker) Authorize(ctx context.Context, orgID, userID uuid.UUID, capability Capability) (Decision, error) {
	if c.bindings == nil {
		return Decision{}, fmt.Errorf("authorize: no binding loader configured")
	}
	slot, err := c.bindings.GetMemberSlot(ctx, orgID, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("load member slot: %w", err)
	}
	if slot == nil {
		return Decision{Allowed: false, Source: SourceInactive}, nil
	}
	return c.Check(ctx, Query{OrgID: orgID, Slot: *slot, Capability: capability})
}
