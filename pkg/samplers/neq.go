package samplers

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/alchemlab/fep-simulations/pkg/logger"
	"github.com/alchemlab/fep-simulations/pkg/protocol"
	"github.com/alchemlab/fep-simulations/pkg/sampling"
	"github.com/alchemlab/fep-simulations/pkg/simulation"
)

// Nonequilibrium anneals a population of particles across the alchemical
// states in both directions, accumulating switching work with
// ESS-triggered multinomial resampling, and estimates the free energy
// difference from the forward and reverse work distributions with BAR.
type Nonequilibrium struct {
	opts       *Options
	proto      *protocol.LambdaProtocol
	checkpoint simulation.CheckpointFunc
	stopOnce   sync.Once
	stopChan   chan struct{}
	log        logger.Logger

	forwardWorks []float64
	reverseWorks []float64
}

// NewNonequilibrium creates a new nonequilibrium switching sampler
func NewNonequilibrium() simulation.Sampler {
	return &Nonequilibrium{
		stopChan: make(chan struct{}),
		log:      logger.WithPrefix("neq"),
	}
}

// Name returns the fe_type identifier
func (n *Nonequilibrium) Name() string { return "nonequilibrium" }

// Description returns a brief description of the sampling scheme
func (n *Nonequilibrium) Description() string {
	return "Nonequilibrium switching with sequential Monte Carlo resampling"
}

// Configure sets up the sampler with the provided parameters
func (n *Nonequilibrium) Configure(params map[string]interface{}) error {
	opts, err := ValidateAndParse(params)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	proto, err := protocol.New(opts.LambdaProtocol)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	n.opts = opts
	n.proto = proto
	return nil
}

// SetCheckpoint installs a checkpoint hook invoked per annealing step
func (n *Nonequilibrium) SetCheckpoint(fn simulation.CheckpointFunc) { n.checkpoint = fn }

// Stop gracefully shuts down the sampler
func (n *Nonequilibrium) Stop() error {
	n.stopOnce.Do(func() { close(n.stopChan) })
	return nil
}

// Run executes nonequilibrium switching against the provided system. The
// number of particles per direction is taken from n_cycles.
func (n *Nonequilibrium) Run(ctx context.Context, sys simulation.System) (*simulation.Result, error) {
	if n.opts == nil {
		return nil, fmt.Errorf("sampler is not configured")
	}
	nStates := sys.NumStates()
	if nStates < 2 {
		return nil, fmt.Errorf("nonequilibrium switching requires at least 2 states, got %d", nStates)
	}

	// The annealing grid mirrors the lambda protocol schedule.
	schedule, err := n.proto.Schedule(nStates)
	if err != nil {
		return nil, err
	}
	n.log.Infof("Annealing over %d lambda windows with the %s protocol", len(schedule), n.proto.Name())

	rng := rand.New(rand.NewSource(n.opts.Seed))

	forwardStates := make([]int, nStates)
	reverseStates := make([]int, nStates)
	for i := 0; i < nStates; i++ {
		forwardStates[i] = i
		reverseStates[i] = nStates - 1 - i
	}

	forward, fwdSurvival, err := n.anneal(ctx, rng, sys, forwardStates)
	if err != nil {
		return nil, err
	}
	reverse, revSurvival, err := n.anneal(ctx, rng, sys, reverseStates)
	if err != nil {
		return nil, err
	}

	if len(fwdSurvival) > 0 {
		n.log.Infof("Particle survival after forward annealing: %.2f", fwdSurvival[len(fwdSurvival)-1])
	}
	if len(revSurvival) > 0 {
		n.log.Infof("Particle survival after reverse annealing: %.2f", revSurvival[len(revSurvival)-1])
	}

	deltaF, err := sampling.BAR(forward, reverse)
	if err != nil {
		return nil, fmt.Errorf("BAR failed on switching works: %w", err)
	}
	n.forwardWorks, n.reverseWorks = forward, reverse

	return &simulation.Result{
		DeltaF:       deltaF,
		FreeEnergies: []float64{0, deltaF},
		Cycles:       n.opts.NCycles,
	}, nil
}

// Works returns the forward and reverse switching work distributions
// collected during the run
func (n *Nonequilibrium) Works() (forward, reverse []float64) {
	return n.forwardWorks, n.reverseWorks
}

// anneal carries a particle population through the given state sequence and
// returns the cumulative works and the survival rate series
func (n *Nonequilibrium) anneal(ctx context.Context, rng *rand.Rand, sys simulation.System, states []int) ([]float64, []float64, error) {
	numParticles := n.opts.NCycles

	particles := make([][]float64, numParticles)
	for i := range particles {
		particles[i] = append([]float64(nil), sys.InitialPositions()...)
		for iter := 0; iter < n.opts.NEquilibrationIterations; iter++ {
			metropolisMove(rng, sys, states[0], particles[i], n.opts.MoveStepSize, n.opts.NStepsPerMoveApplication)
		}
	}

	cumulative := make([]float64, numParticles)
	incremental := make([]float64, numParticles)
	var ancestries [][]int

	bar := logger.NewProgressBar(len(states)-1, "Annealing")
	for step := 1; step < len(states); step++ {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-n.stopChan:
			return nil, nil, fmt.Errorf("sampler stopped before the protocol completed")
		default:
		}

		prev, cur := states[step-1], states[step]
		for i, x := range particles {
			incremental[i] = sys.ReducedPotential(cur, x) - sys.ReducedPotential(prev, x)
		}

		res, err := sampling.Resample(rng, incremental, cumulative, n.opts.ResampleThreshold)
		if err != nil {
			return nil, nil, err
		}
		if res.Resampled {
			n.log.Debugf("Resampled particles at window %d", step)
			reordered := make([][]float64, numParticles)
			for i, idx := range res.Indices {
				reordered[i] = append([]float64(nil), particles[idx]...)
			}
			particles = reordered
		}
		cumulative = res.Works
		ancestries = append(ancestries, res.Indices)

		for i := range particles {
			metropolisMove(rng, sys, cur, particles[i], n.opts.MoveStepSize, n.opts.NStepsPerMoveApplication)
		}
		bar.Increment()

		if n.checkpoint != nil && step%n.opts.CheckpointInterval == 0 {
			mean := 0.0
			for _, w := range cumulative {
				mean += w
			}
			mean /= float64(numParticles)
			if err := n.checkpoint(step, []float64{mean}); err != nil {
				return nil, nil, fmt.Errorf("checkpoint failed: %w", err)
			}
		}
	}

	bar.Finish()
	return cumulative, sampling.SurvivalRate(ancestries), nil
}
