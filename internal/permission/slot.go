// ABOUTME: RoleSlot type: the closed 1..10 range of configurable role positions per org.
// ABOUTME: Out-of-range slots are rejected at the boundary by ParseSlot, never resolved.
package permission

import (
	"errors"
	"fmt"
	"strconv"
)

// Slot identifies a configurable role position within an organization.
type Slot int

// The slot range is fixed for every organization.
const (
	MinSlot Slot = 1
	MaxSlot Slot = 10
)

// ErrSlotOutOfRange is returned when a slot outside MinSlot..MaxSlot reaches
// a boundary that parses or validates slots.
var ErrSlotOutOfRange = errors.New("role slot out of range")

// ParseSlot converts n to a Slot, rejecting values outside the fixed range.
func ParseSlot(n int) (Slot, error) {
	s := Slot(n)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %d (want %d..%d)", ErrSlotOutOfRange, n, MinSlot, MaxSlot)
	}
	return s, nil
}

// ParseSlotString parses a decimal slot number, e.g. from a URL path segment.
func ParseSlotString(s string) (Slot, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrSlotOutOfRange, s)
	}
	return ParseSlot(n)
}

// Valid reports whether s is within the fixed slot range.
func (s Slot) Valid() bool { return s >= MinSlot && s <= MaxSlot }

func (s Slot) String() string { return strconv.Itoa(int(s)) }

// AllSlots returns every slot in ascending order.
func AllSlots() []Slot {
	out := make([]Slot, 0, MaxSlot)
	for s := MinSlot; s <= MaxSlot; s++ {
		out = append(out, s)
	}
	return out
}
