package simulation

import "math"

// Harmonic is a one-dimensional harmonic oscillator whose spring constant
// is interpolated geometrically across the alchemical states. Its free
// energy differences are known analytically, which makes it the reference
// system for exercising the samplers without a molecular engine.
type Harmonic struct {
	springConstants []float64
}

// NewHarmonic builds a harmonic system with nStates states interpolating
// the spring constant from k0 at state 0 to k1 at the final state
func NewHarmonic(nStates int, k0, k1 float64) *Harmonic {
	if nStates < 1 {
		nStates = 1
	}
	ks := make([]float64, nStates)
	if nStates == 1 {
		ks[0] = k0
	} else {
		ratio := k1 / k0
		for i := range ks {
			frac := float64(i) / float64(nStates-1)
			ks[i] = k0 * math.Pow(ratio, frac)
		}
	}
	return &Harmonic{springConstants: ks}
}

// NumStates returns the number of alchemical states
func (h *Harmonic) NumStates() int { return len(h.springConstants) }

// ReducedPotential returns u(x) = k/2 * x^2 at the given state
func (h *Harmonic) ReducedPotential(state int, positions []float64) float64 {
	x := positions[0]
	return 0.5 * h.springConstants[state] * x * x
}

// InitialPositions starts the oscillator at the origin
func (h *Harmonic) InitialPositions() []float64 { return []float64{0} }

// AnalyticDeltaF returns the exact free energy difference between two
// states: f_j - f_i = ln(sqrt(k_j / k_i))
func (h *Harmonic) AnalyticDeltaF(i, j int) float64 {
	return 0.5 * math.Log(h.springConstants[j]/h.springConstants[i])
}
