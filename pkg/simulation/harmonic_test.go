package simulation

import (
	"math"
	"testing"
)

func TestHarmonicSpringInterpolation(t *testing.T) {
	h := NewHarmonic(3, 1.0, 4.0)

	if h.NumStates() != 3 {
		t.Fatalf("Expected 3 states, got %d", h.NumStates())
	}

	// Geometric interpolation puts the middle spring at sqrt(k0*k1)
	if got := h.ReducedPotential(0, []float64{1.0}); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Expected u 0.5 at state 0, got %f", got)
	}
	if got := h.ReducedPotential(1, []float64{1.0}); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("Expected u 1.0 at state 1, got %f", got)
	}
	if got := h.ReducedPotential(2, []float64{1.0}); math.Abs(got-2.0) > 1e-12 {
		t.Errorf("Expected u 2.0 at state 2, got %f", got)
	}
}

func TestHarmonicAnalyticDeltaF(t *testing.T) {
	h := NewHarmonic(5, 1.0, 4.0)

	want := 0.5 * math.Log(4.0)
	if got := h.AnalyticDeltaF(0, 4); math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected dF %f, got %f", want, got)
	}
	if got := h.AnalyticDeltaF(4, 0); math.Abs(got+want) > 1e-12 {
		t.Errorf("Expected reversed dF %f, got %f", -want, got)
	}
	if got := h.AnalyticDeltaF(2, 2); got != 0 {
		t.Errorf("Expected zero dF between identical states, got %f", got)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("test", func() Sampler { return nil }); err != nil {
		t.Fatalf("Failed to register sampler: %v", err)
	}
	if err := r.Register("test", func() Sampler { return nil }); err == nil {
		t.Error("Expected error registering a duplicate sampler")
	}

	if _, err := r.Get("test"); err != nil {
		t.Errorf("Failed to get registered sampler: %v", err)
	}
	if _, err := r.Get("missing"); err == nil {
		t.Error("Expected error for unknown sampler")
	}

	_ = r.Register("alpha", func() Sampler { return nil })
	names := r.List()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "test" {
		t.Errorf("Expected sorted names [alpha test], got %v", names)
	}
}
