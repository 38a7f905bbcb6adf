package sampling

import (
	"fmt"
	"math"
)

// EXP estimates the free energy difference from a set of forward works by
// exponential averaging: dF = -ln <exp(-w)>
func EXP(works []float64) (float64, error) {
	if len(works) == 0 {
		return 0, fmt.Errorf("no work values to estimate from")
	}
	negWorks := make([]float64, len(works))
	for i, w := range works {
		negWorks[i] = -w
	}
	return -(LogSumExp(negWorks) - math.Log(float64(len(works)))), nil
}

// BAR estimates the free energy difference from forward and reverse work
// distributions with the Bennett acceptance ratio, solved by bisection on
// the self-consistency equation.
func BAR(forward, reverse []float64) (float64, error) {
	if len(forward) == 0 || len(reverse) == 0 {
		return 0, fmt.Errorf("BAR requires work values in both directions")
	}

	m := math.Log(float64(len(forward)) / float64(len(reverse)))

	// At the root, the Fermi-weighted forward and reverse counts match.
	residual := func(dF float64) float64 {
		var sumF, sumR float64
		for _, w := range forward {
			sumF += fermi(m + w - dF)
		}
		for _, w := range reverse {
			sumR += fermi(-m + w + dF)
		}
		return sumF - sumR
	}

	// The residual is increasing in dF. Bracket the root starting from the
	// EXP estimates in each direction.
	fwdEXP, _ := EXP(forward)
	revEXP, _ := EXP(reverse)
	lo := math.Min(fwdEXP, -revEXP) - 10
	hi := math.Max(fwdEXP, -revEXP) + 10

	for residual(lo) > 0 {
		lo -= 50
		if lo < -1e6 {
			return 0, fmt.Errorf("failed to bracket BAR solution from below")
		}
	}
	for residual(hi) < 0 {
		hi += 50
		if hi > 1e6 {
			return 0, fmt.Errorf("failed to bracket BAR solution from above")
		}
	}

	for i := 0; i < 200; i++ {
		mid := 0.5 * (lo + hi)
		if residual(mid) < 0 {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < 1e-10 {
			break
		}
	}
	return 0.5 * (lo + hi), nil
}

func fermi(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(x))
}
