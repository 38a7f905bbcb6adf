package sampling

// StatisticalInefficiency computes g = 1 + 2*tau for a timeseries, where
// tau is the integrated autocorrelation time. Summation stops once the
// normalized autocorrelation first drops below zero.
func StatisticalInefficiency(series []float64) float64 {
	n := len(series)
	if n < 3 {
		return 1.0
	}

	var mean float64
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	var variance float64
	for _, v := range series {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)
	if variance == 0 {
		return 1.0
	}

	g := 1.0
	for t := 1; t < n-1; t++ {
		var c float64
		for i := 0; i < n-t; i++ {
			c += (series[i] - mean) * (series[i+t] - mean)
		}
		c /= float64(n-t) * variance
		if c <= 0 {
			break
		}
		g += 2.0 * c * (1.0 - float64(t)/float64(n))
	}

	if g < 1.0 {
		g = 1.0
	}
	return g
}

// DetectEquilibration finds the burn-in index t0 that maximizes the number
// of effectively uncorrelated samples in the remainder of the series. It
// returns t0, the statistical inefficiency g of the production region and
// the effective sample count.
func DetectEquilibration(series []float64) (t0 int, g float64, neff float64) {
	n := len(series)
	if n < 3 {
		return 0, 1.0, float64(n)
	}

	g = 1.0
	neff = 1.0

	// Coarse scan over candidate burn-in points, never discarding the
	// final third of the series.
	maxT0 := 2 * n / 3
	stride := maxT0 / 100
	if stride < 1 {
		stride = 1
	}

	for t := 0; t < maxT0; t += stride {
		gt := StatisticalInefficiency(series[t:])
		nt := float64(n-t) / gt
		if nt > neff {
			t0, g, neff = t, gt, nt
		}
	}
	return t0, g, neff
}

// SubsampleCorrelated returns indices of approximately uncorrelated samples
// taken every ceil(g) entries
func SubsampleCorrelated(series []float64, g float64) []int {
	if g < 1.0 {
		g = 1.0
	}
	stride := int(g)
	if float64(stride) < g {
		stride++
	}

	var indices []int
	for i := 0; i < len(series); i += stride {
		indices = append(indices, i)
	}
	return indices
}
