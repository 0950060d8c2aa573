// Package permission resolves whether the holder of a role slot in an
// organization may perform a capability.
//
// A decision walks three layers in order: the organization's OrgRole row for
// the slot (missing or inactive denies everything), an optional per-org
// Override for the capability, and the global role template from the
// immutable [Catalog]. Anything that falls through every layer is denied.
//
// The resolver performs no I/O. Callers load the rows named in [Rows] for
// each request, typically through a [Checker], and re-check on every write.
package permission
