package samplers

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/alchemlab/fep-simulations/pkg/logger"
	"github.com/alchemlab/fep-simulations/pkg/simulation"
)

// SAMS runs a single replica through the expanded ensemble of alchemical
// states, adapting per-state log weights until they estimate the negative
// free energies. The gain decays in two stages: a t^-0.6 burn-in until the
// state histogram flattens, then the asymptotically optimal 1/t schedule.
type SAMS struct {
	opts       *Options
	checkpoint simulation.CheckpointFunc
	stopOnce   sync.Once
	stopChan   chan struct{}
	log        logger.Logger
}

// NewSAMS creates a new self-adjusted mixture sampler
func NewSAMS() simulation.Sampler {
	return &SAMS{
		stopChan: make(chan struct{}),
		log:      logger.WithPrefix("sams"),
	}
}

// Name returns the fe_type identifier
func (s *SAMS) Name() string { return "sams" }

// Description returns a brief description of the sampling scheme
func (s *SAMS) Description() string {
	return "Self-adjusted mixture sampling with adaptive state weights"
}

// Configure sets up the sampler with the provided parameters
func (s *SAMS) Configure(params map[string]interface{}) error {
	opts, err := ValidateAndParse(params)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	s.opts = opts
	return nil
}

// SetCheckpoint installs a checkpoint hook invoked every checkpoint interval
func (s *SAMS) SetCheckpoint(fn simulation.CheckpointFunc) { s.checkpoint = fn }

// Stop gracefully shuts down the sampler
func (s *SAMS) Stop() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	return nil
}

// Run executes SAMS against the provided system
func (s *SAMS) Run(ctx context.Context, sys simulation.System) (*simulation.Result, error) {
	if s.opts == nil {
		return nil, fmt.Errorf("sampler is not configured")
	}
	nStates := sys.NumStates()
	if nStates < 2 {
		return nil, fmt.Errorf("SAMS requires at least 2 states, got %d", nStates)
	}

	rng := rand.New(rand.NewSource(s.opts.Seed))

	positions := append([]float64(nil), sys.InitialPositions()...)
	state := 0

	for iter := 0; iter < s.opts.NEquilibrationIterations; iter++ {
		metropolisMove(rng, sys, state, positions, s.opts.MoveStepSize, s.opts.NStepsPerMoveApplication)
	}

	// freeEnergies[k] is the running estimate of f_k - f_0; the sampler
	// biases each state by -f_k to flatten the state histogram.
	freeEnergies := make([]float64, nStates)
	visits := make([]int, nStates)
	target := 1.0 / float64(nStates)

	burnIn := true
	tSwitch := 0
	cycles := 0

	for cycle := 1; cycle <= s.opts.NCycles; cycle++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.stopChan:
			if cycles == 0 {
				return nil, fmt.Errorf("stopped before any cycles completed")
			}
			s.log.Warn("Sampler stopped before completing all cycles")
			return s.finish(cycles, freeEnergies)
		default:
		}

		metropolisMove(rng, sys, state, positions, s.opts.MoveStepSize, s.opts.NStepsPerMoveApplication)

		// Propose a jump to a neighboring state with the Hastings
		// correction for the boundary states.
		proposed := state
		logQ := 0.0
		switch state {
		case 0:
			proposed = 1
			if proposed < nStates-1 {
				logQ = math.Log(0.5) // reverse move picks between two neighbors
			}
		case nStates - 1:
			proposed = nStates - 2
			if proposed > 0 {
				logQ = math.Log(0.5)
			}
		default:
			if rng.Float64() < 0.5 {
				proposed = state - 1
			} else {
				proposed = state + 1
			}
			if proposed == 0 || proposed == nStates-1 {
				logQ = -math.Log(0.5) // reverse move is deterministic
			}
		}

		logP := sys.ReducedPotential(state, positions) - sys.ReducedPotential(proposed, positions) +
			freeEnergies[proposed] - freeEnergies[state] + logQ
		if logP >= 0 || rng.Float64() < math.Exp(logP) {
			state = proposed
		}
		visits[state]++

		t := float64(cycle)
		var gain float64
		if burnIn {
			gain = math.Pow(t, -0.6)
			if histogramFlat(visits, 0.2) {
				burnIn = false
				tSwitch = cycle
				s.log.Debugf("Switching to asymptotic gain schedule at cycle %d", cycle)
			}
		} else {
			gain = math.Pow(float64(tSwitch), -0.6) * float64(tSwitch) / t
		}

		// Tan's stochastic approximation update on the free energy
		// estimates; re-anchor at state 0.
		for k := range freeEnergies {
			indicator := 0.0
			if k == state {
				indicator = 1.0
			}
			freeEnergies[k] -= gain * (indicator - target) / target
		}
		anchor := freeEnergies[0]
		for k := range freeEnergies {
			freeEnergies[k] -= anchor
		}

		cycles++
		if s.checkpoint != nil && cycles%s.opts.CheckpointInterval == 0 {
			if err := s.checkpoint(cycles, append([]float64(nil), freeEnergies...)); err != nil {
				return nil, fmt.Errorf("checkpoint failed: %w", err)
			}
		}
	}

	return s.finish(cycles, freeEnergies)
}

func (s *SAMS) finish(cycles int, freeEnergies []float64) (*simulation.Result, error) {
	fe := append([]float64(nil), freeEnergies...)
	return &simulation.Result{
		DeltaF:       fe[len(fe)-1],
		FreeEnergies: fe,
		Cycles:       cycles,
	}, nil
}

// histogramFlat reports whether every state has been visited and the least
// visited state has at least ratio times the visits of the most visited one
func histogramFlat(visits []int, ratio float64) bool {
	minV, maxV := visits[0], visits[0]
	for _, v := range visits[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if minV == 0 || maxV == 0 {
		return false
	}
	return float64(minV)/float64(maxV) >= ratio
}
