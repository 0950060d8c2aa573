// ABOUTME: Ordered override chains shared by the permission and access engines.
// ABOUTME: Layers are consulted left to right; the first layer that supplies a value wins.
package resolve

import "strings"

// Layer reports a value and whether this layer supplied one. A layer that
// supplies nothing defers to the next layer in the chain.
type Layer[T any] func() (T, bool)

// Outcome is the result of walking a chain.
type Outcome[T any] struct {
	Value T
	// Layer is the index of the layer that supplied Value, or -1 when no
	// layer did.
	Layer int
}

// Found reports whether any layer supplied a value.
func (o Outcome[T]) Found() bool { return o.Layer >= 0 }

// Or returns the resolved value, or fallback when no layer supplied one.
func (o Outcome[T]) Or(fallback T) T {
	if o.Found() {
		return o.Value
	}
	return fallback
}

// First walks layers in order and returns the first supplied value. When no
// layer supplies one the zero value is returned with Layer == -1.
func First[T any](layers ...Layer[T]) Outcome[T] {
	for i, l := range layers {
		if l == nil {
			continue
		}
		if v, ok := l(); ok {
			return Outcome[T]{Value: v, Layer: i}
		}
	}
	var zero T
	return Outcome[T]{Value: zero, Layer: -1}
}

// Value returns a layer that always supplies v. Use it as the terminal layer
// of a chain that must never come back empty.
func Value[T any](v T) Layer[T] {
	return func() (T, bool) { return v, true }
}

// When returns a layer that supplies v only when ok is true.
func When[T any](v T, ok bool) Layer[T] {
	return func() (T, bool) {
		if !ok {
			var zero T
			return zero, false
		}
		return v, true
	}
}

// NonEmpty returns a layer that supplies s when it contains anything other
// than whitespace. The supplied value is trimmed.
func NonEmpty(s string) Layer[string] {
	return func() (string, bool) {
		t := strings.TrimSpace(s)
		return t, t != ""
	}
}

// NonEmptyIf is NonEmpty gated by an eligibility flag: an ineligible layer
// never supplies a value, even when s is set.
func NonEmptyIf(s string, eligible bool) Layer[string] {
	if !eligible {
		return nil
	}
	return NonEmpty(s)
}

// Join concatenates the non-blank parts with sep, dropping blank parts so
// that no stray separator is emitted.
func Join(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, sep)
}
