package samplers

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/alchemlab/fep-simulations/pkg/simulation"
)

// The harmonic reference system has an exact free energy difference of
// 0.5*ln(k1/k0) between its end states, which every sampler should recover.

func TestRegistration(t *testing.T) {
	names := simulation.DefaultRegistry.List()
	want := []string{"nonequilibrium", "repex", "sams"}
	if len(names) != len(want) {
		t.Fatalf("Expected %d registered samplers, got %v", len(want), names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Expected sampler %s at position %d, got %s", name, i, names[i])
		}
	}
}

func TestRunUnconfigured(t *testing.T) {
	sys := simulation.NewHarmonic(4, 1.0, 4.0)
	for _, sampler := range []simulation.Sampler{NewRepex(), NewSAMS(), NewNonequilibrium()} {
		if _, err := sampler.Run(context.Background(), sys); err == nil {
			t.Errorf("Expected error running unconfigured sampler %s", sampler.Name())
		}
	}
}

func TestRunSingleState(t *testing.T) {
	sys := simulation.NewHarmonic(1, 1.0, 4.0)
	for _, sampler := range []simulation.Sampler{NewRepex(), NewSAMS(), NewNonequilibrium()} {
		if err := sampler.Configure(map[string]interface{}{"n_cycles": 10}); err != nil {
			t.Fatalf("Failed to configure %s: %v", sampler.Name(), err)
		}
		if _, err := sampler.Run(context.Background(), sys); err == nil {
			t.Errorf("Expected error running %s with a single state", sampler.Name())
		}
	}
}

func TestRepexRecoversFreeEnergy(t *testing.T) {
	sys := simulation.NewHarmonic(4, 1.0, 4.0)
	want := sys.AnalyticDeltaF(0, 3)

	sampler := NewRepex()
	err := sampler.Configure(map[string]interface{}{
		"n_cycles":                     2000,
		"n_steps_per_move_application": 5,
		"n_equilibration_iterations":   5,
		"move_step_size":               1.0,
		"seed":                         42,
	})
	if err != nil {
		t.Fatalf("Failed to configure sampler: %v", err)
	}

	result, err := sampler.Run(context.Background(), sys)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Cycles != 2000 {
		t.Errorf("Expected 2000 cycles, got %d", result.Cycles)
	}
	if len(result.FreeEnergies) != 4 {
		t.Fatalf("Expected 4 per-state free energies, got %d", len(result.FreeEnergies))
	}
	if result.FreeEnergies[0] != 0 {
		t.Errorf("Expected free energies anchored at state 0, got %f", result.FreeEnergies[0])
	}
	for k := 1; k < len(result.FreeEnergies); k++ {
		if result.FreeEnergies[k] <= result.FreeEnergies[k-1] {
			t.Errorf("Expected increasing free energies for stiffening springs, got %v", result.FreeEnergies)
		}
	}
	if math.Abs(result.DeltaF-want) > 0.1 {
		t.Errorf("Expected free energy near %f, got %f", want, result.DeltaF)
	}
}

func TestRepexWorkSeries(t *testing.T) {
	sys := simulation.NewHarmonic(3, 1.0, 2.0)

	sampler := NewRepex().(*Repex)
	err := sampler.Configure(map[string]interface{}{
		"n_cycles":                     50,
		"n_steps_per_move_application": 2,
		"n_equilibration_iterations":   1,
		"seed":                         1,
	})
	if err != nil {
		t.Fatalf("Failed to configure sampler: %v", err)
	}
	if _, err := sampler.Run(context.Background(), sys); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	forward, reverse := sampler.PairWorks()
	if len(forward) != 2 || len(reverse) != 2 {
		t.Fatalf("Expected work series for 2 neighbor pairs, got %d and %d", len(forward), len(reverse))
	}
	for k := range forward {
		if len(forward[k]) != 50 || len(reverse[k]) != 50 {
			t.Errorf("Expected 50 work samples per pair, got %d and %d", len(forward[k]), len(reverse[k]))
		}
	}
}

func TestSAMSRecoversFreeEnergy(t *testing.T) {
	sys := simulation.NewHarmonic(3, 1.0, 4.0)
	want := sys.AnalyticDeltaF(0, 2)

	sampler := NewSAMS()
	err := sampler.Configure(map[string]interface{}{
		"n_cycles":                     50000,
		"n_steps_per_move_application": 5,
		"n_equilibration_iterations":   5,
		"move_step_size":               1.0,
		"seed":                         42,
	})
	if err != nil {
		t.Fatalf("Failed to configure sampler: %v", err)
	}

	result, err := sampler.Run(context.Background(), sys)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.FreeEnergies[0] != 0 {
		t.Errorf("Expected free energies anchored at state 0, got %f", result.FreeEnergies[0])
	}
	if math.Abs(result.DeltaF-want) > 0.25 {
		t.Errorf("Expected free energy near %f, got %f", want, result.DeltaF)
	}
}

func TestNonequilibriumRecoversFreeEnergy(t *testing.T) {
	sys := simulation.NewHarmonic(11, 1.0, 4.0)
	want := sys.AnalyticDeltaF(0, 10)

	sampler := NewNonequilibrium()
	err := sampler.Configure(map[string]interface{}{
		"n_cycles":                     300,
		"n_steps_per_move_application": 10,
		"n_equilibration_iterations":   20,
		"move_step_size":               1.0,
		"resample_threshold":           0.5,
		"seed":                         42,
	})
	if err != nil {
		t.Fatalf("Failed to configure sampler: %v", err)
	}

	result, err := sampler.Run(context.Background(), sys)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if math.Abs(result.DeltaF-want) > 0.2 {
		t.Errorf("Expected free energy near %f, got %f", want, result.DeltaF)
	}

	forward, reverse := sampler.(*Nonequilibrium).Works()
	if len(forward) != 300 || len(reverse) != 300 {
		t.Errorf("Expected 300 works per direction, got %d and %d", len(forward), len(reverse))
	}
}

func TestNonequilibriumUnknownProtocol(t *testing.T) {
	sampler := NewNonequilibrium()
	err := sampler.Configure(map[string]interface{}{"lambda_protocol": "fancy"})
	if err == nil {
		t.Error("Expected error for unknown lambda protocol")
	}
}

func TestStopBeforeFirstCycle(t *testing.T) {
	sys := simulation.NewHarmonic(4, 1.0, 4.0)

	for _, sampler := range []simulation.Sampler{NewRepex(), NewSAMS()} {
		if err := sampler.Configure(map[string]interface{}{
			"n_cycles":                     1000,
			"n_steps_per_move_application": 2,
			"n_equilibration_iterations":   1,
			"seed":                         1,
		}); err != nil {
			t.Fatalf("Failed to configure %s: %v", sampler.Name(), err)
		}
		if err := sampler.Stop(); err != nil {
			t.Fatalf("Stop failed for %s: %v", sampler.Name(), err)
		}

		_, err := sampler.Run(context.Background(), sys)
		if err == nil {
			t.Fatalf("Expected error from %s stopped before any cycles", sampler.Name())
		}
		if !strings.Contains(err.Error(), "stopped before any cycles") {
			t.Errorf("Expected a clear early-stop error from %s, got %v", sampler.Name(), err)
		}
	}
}

func TestCanceledContext(t *testing.T) {
	sys := simulation.NewHarmonic(4, 1.0, 4.0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sampler := NewRepex()
	if err := sampler.Configure(map[string]interface{}{"n_cycles": 1000}); err != nil {
		t.Fatalf("Failed to configure sampler: %v", err)
	}
	if _, err := sampler.Run(ctx, sys); err == nil {
		t.Error("Expected error running with a canceled context")
	}
}

func TestCheckpointHook(t *testing.T) {
	sys := simulation.NewHarmonic(3, 1.0, 2.0)

	sampler := NewRepex().(*Repex)
	err := sampler.Configure(map[string]interface{}{
		"n_cycles":                     100,
		"n_steps_per_move_application": 2,
		"n_equilibration_iterations":   1,
		"checkpoint_interval":          25,
		"seed":                         1,
	})
	if err != nil {
		t.Fatalf("Failed to configure sampler: %v", err)
	}

	var cycles []int
	sampler.SetCheckpoint(func(cycle int, freeEnergies []float64) error {
		cycles = append(cycles, cycle)
		if len(freeEnergies) != 3 {
			t.Errorf("Expected 3 free energies at checkpoint, got %d", len(freeEnergies))
		}
		return nil
	})

	if _, err := sampler.Run(context.Background(), sys); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []int{25, 50, 75, 100}
	if len(cycles) != len(want) {
		t.Fatalf("Expected %d checkpoints, got %v", len(want), cycles)
	}
	for i := range want {
		if cycles[i] != want[i] {
			t.Errorf("Expected checkpoint at cycle %d, got %d", want[i], cycles[i])
		}
	}
}
