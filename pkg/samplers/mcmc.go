package samplers

import (
	"math"
	"math/rand"

	"github.com/alchemlab/fep-simulations/pkg/simulation"
)

// metropolisMove applies nSteps Gaussian random-walk Metropolis steps to the
// positions at the given alchemical state, in place
func metropolisMove(rng *rand.Rand, sys simulation.System, state int, positions []float64, stepSize float64, nSteps int) {
	u := sys.ReducedPotential(state, positions)

	proposal := make([]float64, len(positions))
	for step := 0; step < nSteps; step++ {
		for i, x := range positions {
			proposal[i] = x + stepSize*rng.NormFloat64()
		}
		uNew := sys.ReducedPotential(state, proposal)
		if uNew <= u || rng.Float64() < math.Exp(u-uNew) {
			copy(positions, proposal)
			u = uNew
		}
	}
}
