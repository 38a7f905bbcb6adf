package simulation

import "context"

// System evaluates reduced potentials across the alchemical states of a
// calculation. It is the boundary to the molecular model: a production
// engine binding and the built-in reference systems both satisfy it.
type System interface {
	// NumStates returns the number of alchemical states
	NumStates() int

	// ReducedPotential returns the dimensionless potential u(x) at the
	// given state
	ReducedPotential(state int, positions []float64) float64

	// InitialPositions returns a starting configuration
	InitialPositions() []float64
}

// Result holds the outcome of one sampler run
type Result struct {
	// DeltaF is the estimated free energy difference between the end
	// states, in units of kT
	DeltaF float64

	// FreeEnergies holds the per-state free energies relative to state 0
	FreeEnergies []float64

	// Cycles is the number of production cycles completed
	Cycles int
}

// Sampler defines the interface that all free energy samplers must implement
type Sampler interface {
	// Name returns the fe_type identifier of the sampler
	Name() string

	// Description returns a brief description of the sampling scheme
	Description() string

	// Configure sets up the sampler with the provided parameters
	Configure(params map[string]interface{}) error

	// Run executes the sampler against the provided system
	Run(ctx context.Context, sys System) (*Result, error)

	// Stop gracefully shuts down the sampler
	Stop() error
}

// CheckpointFunc is called after each cycle that completes a checkpoint
// interval. Implementations persist the sampler state; errors abort the run.
type CheckpointFunc func(cycle int, freeEnergies []float64) error
