package resolve_test

import (
	"testing"

	"github.com/hassandayeh/NRE-sub001/internal/resolve"
)

func TestFirst_PicksFirstSuppliedLayer(t *testing.T) {
	t.Parallel()
	out := resolve.First(
		resolve.When("skipped", false),
		resolve.NonEmpty("   "),
		resolve.When("second", true),
		resolve.Value("terminal"),
	)
	if !out.Found() {
		t.Fatal("expected a layer to supply a value")
	}
	if out.Value != "second" || out.Layer != 2 {
		t.Errorf("got (%q, %d), want (%q, 2)", out.Value, out.Layer, "second")
	}
}

func TestFirst_EmptyChain(t *testing.T) {
	t.Parallel()
	out := resolve.First[bool]()
	if out.Found() {
		t.Error("empty chain should not find a value")
	}
	if out.Layer != -1 {
		t.Errorf("Layer = %d, want -1", out.Layer)
	}
	if got := out.Or(true); !got {
		t.Error("Or should return the fallback when nothing was found")
	}
}

func TestFirst_NilLayersAreSkipped(t *testing.T) {
	t.Parallel()
	out := resolve.First(
		resolve.NonEmptyIf("https://x", false),
		resolve.NonEmpty("own"),
	)
	if out.Value != "own" || out.Layer != 1 {
		t.Errorf("got (%q, %d), want (%q, 1)", out.Value, out.Layer, "own")
	}
}

func TestNonEmpty_TrimsValue(t *testing.T) {
	t.Parallel()
	v, ok := resolve.NonEmpty("  Studio A \n")()
	if !ok || v != "Studio A" {
		t.Errorf("got (%q, %v), want (%q, true)", v, ok, "Studio A")
	}
}

func TestJoin_DropsBlankParts(t *testing.T) {
	t.Parallel()
	cases := []struct {
		parts []string
		want  string
	}{
		{[]string{"Studio A", ""}, "Studio A"},
		{[]string{"", "1 Main St"}, "1 Main St"},
		{[]string{"Studio A", "1 Main St"}, "Studio A, 1 Main St"},
		{[]string{" ", "\t"}, ""},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := resolve.Join(", ", tc.parts...); got != tc.want {
			t.Errorf("Join(%q) = %q, want %q", tc.parts, got, tc.want)
		}
	}
}
