package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alchemlab/fep-simulations/pkg/logger"
	"github.com/alchemlab/fep-simulations/pkg/setup"
	"github.com/alchemlab/fep-simulations/pkg/simulation"
	"github.com/alchemlab/fep-simulations/pkg/storage"
	"github.com/alchemlab/fep-simulations/pkg/utils"

	// Import samplers to register them
	_ "github.com/alchemlab/fep-simulations/pkg/samplers"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a free energy calculation",
	Long:  `Run the phases of a free energy calculation described by a setup file`,
	RunE:  runCalculation,
}

func init() {
	runCmd.Flags().StringP("setup", "s", "", "setup file (YAML)")
	runCmd.Flags().String("fe-type", "", "override the sampling scheme")
	runCmd.Flags().StringSlice("phases", nil, "override the phases to run")
	runCmd.Flags().Int("n-cycles", 0, "override the number of cycles")
	runCmd.Flags().Int("n-states", 0, "override the number of alchemical states")
	runCmd.Flags().String("output-dir", "", "override the trajectory directory")
	runCmd.Flags().Int64("seed", 0, "random seed (default is time-based)")
}

func runCalculation(cmd *cobra.Command, _ []string) error {
	s, setupPath, err := selectSetup(cmd)
	if err != nil {
		return fmt.Errorf("failed to load setup: %w", err)
	}

	phases := s.Phases
	if !cmd.Flags().Changed("phases") {
		phases, err = utils.PromptForPhases(s.Phases)
		if err != nil {
			return fmt.Errorf("failed to select phases: %w", err)
		}
	}

	logger.LogSection("Free Energy Calculation")
	logger.LogKeyValue("Setup", setupPath)
	logger.LogKeyValue("Scheme", s.FEType)
	logger.LogKeyValue("Phases", fmt.Sprintf("%v", phases))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One signal handler covers all phases; it stops whichever sampler is
	// active when the signal arrives.
	var mu sync.Mutex
	var active simulation.Sampler

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		logger.Warn("\nReceived interrupt signal, stopping calculation...")
		mu.Lock()
		if active != nil {
			if err := active.Stop(); err != nil {
				logger.Errorf("Failed to stop sampler: %v", err)
			}
		}
		mu.Unlock()
		cancel()
	}()

	report := &storage.Report{
		SetupFile:   setupPath,
		Temperature: s.Temperature,
	}

	for _, phase := range phases {
		result, runID, err := runPhase(ctx, cmd, s, phase, func(sampler simulation.Sampler) {
			mu.Lock()
			active = sampler
			mu.Unlock()
		})
		if err != nil {
			return fmt.Errorf("phase %s failed: %w", phase, err)
		}
		report.Phases = append(report.Phases, storage.PhaseResult{
			Phase:  phase,
			FEType: s.FEType,
			RunID:  runID,
			DeltaF: result.DeltaF,
			Cycles: result.Cycles,
		})
		logger.Successf("Phase %s complete: ΔF = %+.3f kT over %d cycles", phase, result.DeltaF, result.Cycles)
	}

	if err := storage.WriteReport(storage.ReportPath(s.TrajectoryDirectory, s.TrajectoryPrefix), report); err != nil {
		return err
	}

	storage.PrintSummary(report)
	logger.Success("Calculation completed successfully")
	return nil
}

// runPhase executes one phase of the calculation and returns its result and
// the run identifier of its store
func runPhase(ctx context.Context, cmd *cobra.Command, s *setup.Setup, phase string, onStart func(simulation.Sampler)) (*simulation.Result, string, error) {
	sampler, err := simulation.DefaultRegistry.Get(s.FEType)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get sampler: %w", err)
	}

	params := map[string]interface{}{
		"n_cycles":                     s.NCycles,
		"n_steps_per_move_application": s.NStepsPerMoveApplication,
		"n_equilibration_iterations":   s.NEquilibrationIterations,
		"checkpoint_interval":          s.CheckpointInterval,
		"lambda_protocol":              s.LambdaProtocol,
	}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		params["seed"] = int(seed)
	}

	if err := sampler.Configure(params); err != nil {
		return nil, "", fmt.Errorf("failed to configure sampler: %w", err)
	}

	store, err := storage.NewStore(s.TrajectoryDirectory, s.TrajectoryPrefix, phase, s.CheckpointInterval)
	if err != nil {
		return nil, "", err
	}

	if cp, err := store.LoadCheckpoint(); err != nil {
		return nil, "", err
	} else if cp != nil {
		ok, err := utils.ConfirmOverwrite(store.CheckpointPath())
		if err != nil {
			return nil, "", err
		}
		if !ok {
			return nil, "", fmt.Errorf("refusing to overwrite checkpoint for phase %s", phase)
		}
	}

	if cp, ok := sampler.(interface {
		SetCheckpoint(simulation.CheckpointFunc)
	}); ok {
		cp.SetCheckpoint(func(cycle int, freeEnergies []float64) error {
			logger.Progressf("Phase %s checkpoint at cycle %d", phase, cycle)
			return store.WriteCheckpoint(&storage.Checkpoint{
				FEType:       s.FEType,
				Cycle:        cycle,
				FreeEnergies: freeEnergies,
			})
		})
	}

	// Reference system standing in for the hybrid topology until an engine
	// binding is wired up.
	sys := simulation.NewHarmonic(s.NStates, 1.0, 4.0)

	onStart(sampler)
	logger.LogSubSection(fmt.Sprintf("Phase: %s", phase))
	result, err := sampler.Run(ctx, sys)
	if err != nil {
		return nil, "", err
	}

	if err := writeWorkSeries(store, sampler); err != nil {
		return nil, "", err
	}

	return result, store.RunID(), nil
}

// writeWorkSeries persists whatever work distributions the sampler collected
func writeWorkSeries(store *storage.Store, sampler simulation.Sampler) error {
	if nw, ok := sampler.(interface{ Works() ([]float64, []float64) }); ok {
		forward, reverse := nw.Works()
		if err := store.WriteWorkSeries(store.NeqTrajectoryPath("forward"), forward); err != nil {
			return err
		}
		return store.WriteWorkSeries(store.NeqTrajectoryPath("reverse"), reverse)
	}

	if pw, ok := sampler.(interface{ PairWorks() ([][]float64, [][]float64) }); ok {
		forward, _ := pw.PairWorks()
		for k, works := range forward {
			if err := store.WriteWorkSeries(store.EqTrajectoryPath(k), works); err != nil {
				return err
			}
		}
	}
	return nil
}

// selectSetup resolves the setup file from the flag or by discovery, then
// loads it with environment and CLI overrides applied
func selectSetup(cmd *cobra.Command) (*setup.Setup, string, error) {
	path, _ := cmd.Flags().GetString("setup")
	if path == "" {
		infos, err := utils.DiscoverSetups("")
		if err != nil {
			return nil, "", err
		}
		info, err := utils.PromptForSetup(infos)
		if err != nil {
			return nil, "", err
		}
		path = info.Path
	}

	overrides := map[string]interface{}{}
	if cmd.Flags().Changed("fe-type") {
		v, _ := cmd.Flags().GetString("fe-type")
		overrides["fe_type"] = v
	}
	if cmd.Flags().Changed("phases") {
		v, _ := cmd.Flags().GetStringSlice("phases")
		overrides["phases"] = v
	}
	if cmd.Flags().Changed("n-cycles") {
		v, _ := cmd.Flags().GetInt("n-cycles")
		overrides["n_cycles"] = v
	}
	if cmd.Flags().Changed("n-states") {
		v, _ := cmd.Flags().GetInt("n-states")
		overrides["n_states"] = v
	}
	if cmd.Flags().Changed("output-dir") {
		v, _ := cmd.Flags().GetString("output-dir")
		overrides["trajectory_directory"] = v
	}

	s, err := setup.LoadWithOverrides(path, overrides)
	if err != nil {
		return nil, "", err
	}
	return s, path, nil
}
