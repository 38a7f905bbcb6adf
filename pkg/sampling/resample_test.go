package sampling

import (
	"math"
	"math/rand"
	"testing"
)

func TestLogSumExp(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want float64
	}{
		{"empty", nil, math.Inf(-1)},
		{"single", []float64{2.0}, 2.0},
		{"two equal", []float64{0.0, 0.0}, math.Log(2.0)},
		{"large values", []float64{1000.0, 1000.0}, 1000.0 + math.Log(2.0)},
		{"mixed", []float64{0.0, math.Log(2.0)}, math.Log(3.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogSumExp(tt.xs)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestNormalizedWeights(t *testing.T) {
	weights := NormalizedWeights([]float64{1.0, 1.0, 1.0, 1.0})

	var sum float64
	for _, w := range weights {
		if math.Abs(w-0.25) > 1e-12 {
			t.Errorf("Expected uniform weight 0.25, got %f", w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-12 {
		t.Errorf("Expected weights to sum to 1, got %f", sum)
	}

	// Lower work means higher weight
	weights = NormalizedWeights([]float64{0.0, 1.0})
	if weights[0] <= weights[1] {
		t.Errorf("Expected lower work to carry higher weight, got %v", weights)
	}
}

func TestESSUniform(t *testing.T) {
	n := 10
	prev := make([]float64, n)
	incremental := make([]float64, n)

	if got := ESS(prev, incremental); math.Abs(got-float64(n)) > 1e-9 {
		t.Errorf("Expected ESS %d for uniform weights, got %f", n, got)
	}
	if got := CESS(prev, incremental); math.Abs(got-float64(n)) > 1e-9 {
		t.Errorf("Expected CESS %d for uniform weights, got %f", n, got)
	}
}

func TestESSDegenerate(t *testing.T) {
	// One particle dominates, ESS collapses toward 1
	prev := []float64{0.0, 0.0, 0.0, 0.0}
	incremental := []float64{0.0, 100.0, 100.0, 100.0}

	got := ESS(prev, incremental)
	if got > 1.1 {
		t.Errorf("Expected ESS near 1 for a dominant particle, got %f", got)
	}
}

func TestMultinomialResample(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	// The zero-work particle carries essentially all the weight
	totalWorks := []float64{0.0, 100.0, 100.0, 100.0}
	works, indices := MultinomialResample(rng, totalWorks, 4)

	if len(works) != 4 || len(indices) != 4 {
		t.Fatalf("Expected 4 resampled particles, got %d works and %d indices", len(works), len(indices))
	}
	for _, idx := range indices {
		if idx != 0 {
			t.Errorf("Expected every resample to pick particle 0, got %d", idx)
		}
	}

	// Resampled works are uniform at the mean of the inputs
	mean := (0.0 + 100.0 + 100.0 + 100.0) / 4.0
	for _, w := range works {
		if math.Abs(w-mean) > 1e-12 {
			t.Errorf("Expected resampled work %f, got %f", mean, w)
		}
	}
}

func TestMultinomialResampleDeterministic(t *testing.T) {
	works := []float64{0.5, 1.0, 1.5, 2.0}

	_, first := MultinomialResample(rand.New(rand.NewSource(7)), works, 4)
	_, second := MultinomialResample(rand.New(rand.NewSource(7)), works, 4)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Expected identical indices for identical seeds, got %v and %v", first, second)
		}
		if first[i] < 0 || first[i] >= len(works) {
			t.Fatalf("Index %d out of range", first[i])
		}
	}
}

func TestResampleNotTriggered(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	incremental := []float64{0.1, 0.2, 0.3}
	cumulative := []float64{1.0, 1.0, 1.0}

	res, err := Resample(rng, incremental, cumulative, 0.0)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	if res.Resampled {
		t.Error("Expected no resampling at threshold 0")
	}
	for i, w := range res.Works {
		want := cumulative[i] + incremental[i]
		if math.Abs(w-want) > 1e-12 {
			t.Errorf("Expected accumulated work %f, got %f", want, w)
		}
		if res.Indices[i] != i {
			t.Errorf("Expected identity index map, got %v", res.Indices)
		}
	}
}

func TestResampleTriggered(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	incremental := []float64{0.0, 50.0, 50.0}
	cumulative := []float64{0.0, 0.0, 0.0}

	res, err := Resample(rng, incremental, cumulative, 0.99)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	if !res.Resampled {
		t.Fatal("Expected resampling for a collapsed population")
	}
	if res.Observable != 1.0 {
		t.Errorf("Expected observable reset to 1 after resampling, got %f", res.Observable)
	}
	for _, idx := range res.Indices {
		if idx != 0 {
			t.Errorf("Expected the surviving particle to be 0, got %d", idx)
		}
	}
}

func TestResampleInputValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	if _, err := Resample(rng, []float64{1.0}, []float64{1.0, 2.0}, 0.5); err == nil {
		t.Error("Expected error for mismatched work lengths")
	}
	if _, err := Resample(rng, nil, nil, 0.5); err == nil {
		t.Error("Expected error for empty particle population")
	}
}

func TestSurvivalRate(t *testing.T) {
	ancestries := [][]int{
		{0, 0, 1},
		{2, 2, 2},
	}
	rates := SurvivalRate(ancestries)
	if len(rates) != 2 {
		t.Fatalf("Expected 2 rates, got %d", len(rates))
	}
	if math.Abs(rates[0]-2.0/3.0) > 1e-12 {
		t.Errorf("Expected survival 2/3, got %f", rates[0])
	}
	if math.Abs(rates[1]-1.0/3.0) > 1e-12 {
		t.Errorf("Expected survival 1/3, got %f", rates[1])
	}

	if got := SurvivalRate(nil); got != nil {
		t.Errorf("Expected nil rates for empty ancestries, got %v", got)
	}
}
