// ABOUTME: Capability keys checked by the permission resolver.
// ABOUTME: Unknown keys resolve to deny; ParseCapability rejects them only on admin writes.
package permission

import (
	"errors"
	"fmt"
	"slices"
)

// Capability is a named permission such as "booking:view".
type Capability string

// Capabilities known to the system. Role templates and overrides may only
// reference these keys.
const (
	BookingView               Capability = "booking:view"
	BookingCreate             Capability = "booking:create"
	BookingEdit               Capability = "booking:edit"
	BookingDelete             Capability = "booking:delete"
	BookingManageParticipants Capability = "booking:manage_participants"
	DirectoryView             Capability = "directory:view"
	ExpertsManage             Capability = "experts:manage"
	SettingsManage            Capability = "settings:manage"
	RolesManage               Capability = "roles:manage"
	MembersManage             Capability = "members:manage"
	ReportsView               Capability = "reports:view"
)

var knownCapabilities = []Capability{
	BookingView,
	BookingCreate,
	BookingEdit,
	BookingDelete,
	BookingManageParticipants,
	DirectoryView,
	ExpertsManage,
	SettingsManage,
	RolesManage,
	MembersManage,
	ReportsView,
}

// ErrUnknownCapability is returned by ParseCapability for keys the system
// does not define.
var ErrUnknownCapability = errors.New("unknown capability")

// KnownCapabilities returns every defined capability in declaration order.
func KnownCapabilities() []Capability { return slices.Clone(knownCapabilities) }

// Known reports whether c is a defined capability.
func (c Capability) Known() bool { return slices.Contains(knownCapabilities, c) }

// ParseCapability validates s as a defined capability key. Permission checks
// do not call this: an unknown key simply resolves to deny.
func ParseCapability(s string) (Capability, error) {
	c := Capability(s)
	if !c.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCapability, s)
	}
	return c, nil
}
