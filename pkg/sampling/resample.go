// Package sampling provides the importance sampling numerics shared by the
// free energy samplers: effective sample size diagnostics, particle
// resampling, equilibration detection and work-based free energy
// estimators. Works are dimensionless (reduced by kT) throughout.
package sampling

import (
	"fmt"
	"math"
	"math/rand"
)

// LogSumExp computes log(sum(exp(x_i))) without overflow
func LogSumExp(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}
	maxVal := xs[0]
	for _, x := range xs[1:] {
		if x > maxVal {
			maxVal = x
		}
	}
	if math.IsInf(maxVal, -1) {
		return maxVal
	}
	var sum float64
	for _, x := range xs {
		sum += math.Exp(x - maxVal)
	}
	return maxVal + math.Log(sum)
}

// NormalizedWeights converts accumulated works into normalized importance
// weights w_i proportional to exp(-work_i)
func NormalizedWeights(works []float64) []float64 {
	negWorks := make([]float64, len(works))
	for i, w := range works {
		negWorks[i] = -w
	}
	norm := LogSumExp(negWorks)

	weights := make([]float64, len(works))
	for i, nw := range negWorks {
		weights[i] = math.Exp(nw - norm)
	}
	return weights
}

// ESS computes the effective sample size of Zhou, Johansen and Aston
// (eq 3.15, arXiv:1303.3123) from the accumulated works at the previous
// step and the incremental works at the current one.
func ESS(worksPrev, worksIncremental []float64) float64 {
	prevWeights := NormalizedWeights(worksPrev)

	var num, denom float64
	for i, w := range prevWeights {
		u := math.Exp(-worksIncremental[i])
		num += w * u
		denom += w * w * u * u
	}
	if denom == 0 {
		return 0
	}
	return num * num / denom
}

// CESS computes the conditional effective sample size (eq 3.16,
// arXiv:1303.3123)
func CESS(worksPrev, worksIncremental []float64) float64 {
	prevWeights := NormalizedWeights(worksPrev)

	var num, denom float64
	for i, w := range prevWeights {
		u := math.Exp(-worksIncremental[i])
		num += w * u
		denom += w * u * u
	}
	if denom == 0 {
		return 0
	}
	n := float64(len(prevWeights))
	return n * num * num / denom
}

// MultinomialResample draws particle indices with replacement from the
// multinomial distribution with weights w_i proportional to
// exp(-totalWorks_i). The resampled works are uniform at the mean of the
// input works.
func MultinomialResample(rng *rand.Rand, totalWorks []float64, numResamples int) ([]float64, []int) {
	weights := NormalizedWeights(totalWorks)

	cumulative := make([]float64, len(weights))
	var acc float64
	for i, w := range weights {
		acc += w
		cumulative[i] = acc
	}

	indices := make([]int, numResamples)
	for i := range indices {
		u := rng.Float64() * acc
		lo, hi := 0, len(cumulative)-1
		for lo < hi {
			mid := (lo + hi) / 2
			if cumulative[mid] < u {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		indices[i] = lo
	}

	var mean float64
	for _, w := range totalWorks {
		mean += w
	}
	mean /= float64(len(totalWorks))

	works := make([]float64, numResamples)
	for i := range works {
		works[i] = mean
	}
	return works, indices
}

// ResampleResult reports the outcome of a resampling attempt
type ResampleResult struct {
	Observable float64
	Works      []float64
	Indices    []int
	Resampled  bool
}

// Resample attempts to resample particles when the per-particle normalized
// ESS falls at or below the threshold. When no resampling is triggered the
// works are simply accumulated and the identity index map is returned.
func Resample(rng *rand.Rand, incrementalWorks, cumulativeWorks []float64, threshold float64) (*ResampleResult, error) {
	if len(incrementalWorks) != len(cumulativeWorks) {
		return nil, fmt.Errorf("incremental and cumulative works must have equal length, got %d and %d",
			len(incrementalWorks), len(cumulativeWorks))
	}
	n := len(incrementalWorks)
	if n == 0 {
		return nil, fmt.Errorf("no particles to resample")
	}

	observable := ESS(cumulativeWorks, incrementalWorks) / float64(n)

	totalWorks := make([]float64, n)
	for i := range totalWorks {
		totalWorks[i] = cumulativeWorks[i] + incrementalWorks[i]
	}

	if observable <= threshold {
		works, indices := MultinomialResample(rng, totalWorks, n)
		return &ResampleResult{Observable: 1.0, Works: works, Indices: indices, Resampled: true}, nil
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return &ResampleResult{Observable: observable, Works: totalWorks, Indices: indices, Resampled: false}, nil
}

// SurvivalRate computes the fraction of distinct surviving ancestors at
// each resampling step
func SurvivalRate(ancestries [][]int) []float64 {
	if len(ancestries) == 0 {
		return nil
	}
	numStarting := float64(len(ancestries[0]))

	rates := make([]float64, len(ancestries))
	for step, ancestors := range ancestries {
		distinct := make(map[int]bool, len(ancestors))
		for _, a := range ancestors {
			distinct[a] = true
		}
		rates[step] = float64(len(distinct)) / numStarting
	}
	return rates
}
