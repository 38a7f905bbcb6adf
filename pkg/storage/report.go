package storage

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// PhaseResult summarizes one completed phase. Each phase runs against its
// own store, so the run ID is recorded per phase.
type PhaseResult struct {
	Phase  string  `yaml:"phase"`
	FEType string  `yaml:"fe_type"`
	RunID  string  `yaml:"run_id"`
	DeltaF float64 `yaml:"delta_f"`
	Cycles int     `yaml:"cycles"`
}

// Report summarizes a completed calculation
type Report struct {
	SetupFile   string        `yaml:"setup_file"`
	Phases      []PhaseResult `yaml:"phases"`
	Temperature float64       `yaml:"temperature"`
	CompletedAt time.Time     `yaml:"completed_at"`
}

// BindingDeltaDeltaG returns the relative binding free energy
// (complex minus solvent, in kT) when both phases are present
func (r *Report) BindingDeltaDeltaG() (float64, bool) {
	var complexDF, solventDF float64
	var haveComplex, haveSolvent bool
	for _, p := range r.Phases {
		switch p.Phase {
		case "complex":
			complexDF, haveComplex = p.DeltaF, true
		case "solvent":
			solventDF, haveSolvent = p.DeltaF, true
		}
	}
	if !haveComplex || !haveSolvent {
		return 0, false
	}
	return complexDF - solventDF, true
}

// WriteReport persists the run report next to the trajectories
func WriteReport(path string, report *Report) error {
	report.CompletedAt = time.Now().UTC()

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("error marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	return nil
}

// PrintSummary renders the report to stdout
func PrintSummary(report *Report) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)

	fmt.Println()
	_, _ = bold.Println("Free Energy Summary")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PHASE\tSCHEME\tCYCLES\tΔF (kT)")
	_, _ = fmt.Fprintln(w, "-----\t------\t------\t-------")
	for _, p := range report.Phases {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%+.3f\n", p.Phase, p.FEType, p.Cycles, p.DeltaF)
	}
	_ = w.Flush()

	if ddg, ok := report.BindingDeltaDeltaG(); ok {
		fmt.Println()
		_, _ = green.Printf("ΔΔG (complex - solvent): %+.3f kT\n", ddg)
	}
}
