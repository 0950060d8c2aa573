// Package access resolves the contact details (join link, venue, or dial-in)
// shown for each guest and host on a booking.
//
// The appearance kind comes from the booking when its scope is UNIFIED and
// from the participant otherwise. The participant's own value for that kind
// always wins. A booking default stands in only when the pool is both UNIFIED
// and SHARED; under any per-participant setting a missing value stays
// missing. Guest and host pools are configured and resolved independently.
package access
