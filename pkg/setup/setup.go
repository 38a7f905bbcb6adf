package setup

import (
	"fmt"
	"strings"

	"github.com/alchemlab/fep-simulations/pkg/logger"
	"github.com/alchemlab/fep-simulations/pkg/protocol"
)

// Sampling schemes selectable via fe_type.
const (
	FETypeRepex          = "repex"
	FETypeNonequilibrium = "nonequilibrium"
	FETypeSAMS           = "sams"
)

// Calculation phases selectable via phases.
const (
	PhaseComplex = "complex"
	PhaseSolvent = "solvent"
	PhaseVacuum  = "vacuum"
)

// ValidFETypes lists the supported sampling schemes
var ValidFETypes = []string{FETypeRepex, FETypeNonequilibrium, FETypeSAMS}

// ValidPhases lists the supported calculation phases
var ValidPhases = []string{PhaseComplex, PhaseSolvent, PhaseVacuum}

// ValidAtomExpressions lists the supported atom mapping rule identifiers
var ValidAtomExpressions = []string{
	"DefaultAtoms",
	"IntType",
	"AtomicNumber",
	"Aromaticity",
	"Hybridization",
	"HvyDegree",
	"RingMember",
}

// ValidBondExpressions lists the supported bond mapping rule identifiers
var ValidBondExpressions = []string{
	"DefaultBonds",
	"BondOrder",
	"Aromaticity",
	"RingMember",
}

// Setup holds the declarative description of a relative free energy
// calculation. Units are implicit: solvent padding in angstroms, pressure
// in atmospheres, temperature in kelvin, timestep in femtoseconds and
// ionic strength in molar.
type Setup struct {
	// Input structures
	ProteinPDB     string `yaml:"protein_pdb"`
	LigandFile     string `yaml:"ligand_file"`
	OldLigandIndex int    `yaml:"old_ligand_index"`
	NewLigandIndex int    `yaml:"new_ligand_index"`

	// Force fields
	ForcefieldFiles         []string `yaml:"forcefield_files"`
	SmallMoleculeForcefield string   `yaml:"small_molecule_forcefield"`

	// Physical parameters
	SolventPadding float64 `yaml:"solvent_padding"`
	IonicStrength  float64 `yaml:"ionic_strength"`
	Pressure       float64 `yaml:"pressure"`
	Temperature    float64 `yaml:"temperature"`
	Timestep       float64 `yaml:"timestep"`

	// Atom mapping rules. The bond key keeps its historical on-disk
	// spelling; existing setup files depend on it.
	AtomExpression []string `yaml:"atom_expression"`
	BondExpression []string `yaml:"bond_expession"`

	// Sampling scheme and run-length controls
	FEType                   string `yaml:"fe_type"`
	LambdaProtocol           string `yaml:"lambda_protocol"`
	CheckpointInterval       int    `yaml:"checkpoint_interval"`
	NCycles                  int    `yaml:"n_cycles"`
	NStepsPerMoveApplication int    `yaml:"n_steps_per_move_application"`
	NStates                  int    `yaml:"n_states"`
	NEquilibrationIterations int    `yaml:"n_equilibration_iterations"`

	// Output
	TrajectoryDirectory string `yaml:"trajectory_directory"`
	TrajectoryPrefix    string `yaml:"trajectory_prefix"`
	AtomSelection       string `yaml:"atom_selection"`

	// Phases to execute
	Phases []string `yaml:"phases"`

	// Geometry mapping strategy
	UseGivenGeometries       bool    `yaml:"use_given_geometries"`
	GivenGeometriesTolerance float64 `yaml:"given_geometries_tolerance"`
}

// DefaultSetup returns a setup populated with the standard template values
func DefaultSetup() *Setup {
	return &Setup{
		OldLigandIndex: 0,
		NewLigandIndex: 1,
		ForcefieldFiles: []string{
			"amber/ff14SB.xml",
			"amber/tip3p_standard.xml",
			"amber/tip3p_HFE_multivalent.xml",
		},
		SmallMoleculeForcefield: "openff-2.1.0",

		SolventPadding: 9.0,
		IonicStrength:  0.15,
		Pressure:       1.0,
		Temperature:    300.0,
		Timestep:       4.0,

		AtomExpression: []string{"IntType"},
		BondExpression: []string{"DefaultBonds"},

		FEType:                   FETypeRepex,
		LambdaProtocol:           protocol.PresetDefault,
		CheckpointInterval:       500,
		NCycles:                  5000,
		NStepsPerMoveApplication: 250,
		NStates:                  11,
		NEquilibrationIterations: 10,

		TrajectoryDirectory: "lig0to1",
		TrajectoryPrefix:    "out",
		AtomSelection:       "not water",

		Phases: []string{PhaseComplex, PhaseSolvent},

		UseGivenGeometries:       false,
		GivenGeometriesTolerance: 0.2,
	}
}

// Validate checks that the setup describes a runnable calculation
func (s *Setup) Validate() error {
	if s.ProteinPDB == "" {
		return fmt.Errorf("protein_pdb is required")
	}
	if s.LigandFile == "" {
		return fmt.Errorf("ligand_file is required")
	}
	if s.OldLigandIndex < 0 || s.NewLigandIndex < 0 {
		return fmt.Errorf("ligand indices must be non-negative")
	}
	if s.OldLigandIndex == s.NewLigandIndex {
		return fmt.Errorf("old and new ligand indices must differ")
	}
	if len(s.ForcefieldFiles) == 0 {
		return fmt.Errorf("at least one force field file is required")
	}
	if s.SmallMoleculeForcefield == "" {
		return fmt.Errorf("small_molecule_forcefield is required")
	}

	if s.SolventPadding < 0 {
		return fmt.Errorf("solvent padding must be non-negative")
	}
	if s.IonicStrength < 0 {
		return fmt.Errorf("ionic strength must be non-negative")
	}
	if s.Pressure <= 0 {
		return fmt.Errorf("pressure must be positive")
	}
	if s.Temperature <= 0 {
		return fmt.Errorf("temperature must be positive")
	}
	if s.Timestep <= 0 {
		return fmt.Errorf("timestep must be positive")
	}

	if err := validateSubset("atom_expression", s.AtomExpression, ValidAtomExpressions); err != nil {
		return err
	}
	if err := validateSubset("bond_expession", s.BondExpression, ValidBondExpressions); err != nil {
		return err
	}

	if !contains(ValidFETypes, s.FEType) {
		return fmt.Errorf("fe_type must be one of: %s", strings.Join(ValidFETypes, ", "))
	}
	if !contains(protocol.Presets, s.LambdaProtocol) {
		return fmt.Errorf("lambda_protocol must be one of: %s", strings.Join(protocol.Presets, ", "))
	}

	if s.CheckpointInterval <= 0 {
		return fmt.Errorf("checkpoint interval must be positive")
	}
	if s.NCycles <= 0 {
		return fmt.Errorf("number of cycles must be positive")
	}
	if s.NStepsPerMoveApplication <= 0 {
		return fmt.Errorf("steps per move application must be positive")
	}
	if s.NStates < 1 {
		return fmt.Errorf("number of alchemical states must be at least 1")
	}
	if s.NEquilibrationIterations < 0 {
		return fmt.Errorf("number of equilibration iterations must be non-negative")
	}
	if s.NCycles%s.CheckpointInterval != 0 {
		logger.Warnf("checkpoint_interval %d does not divide n_cycles %d, the final cycles will not be checkpointed",
			s.CheckpointInterval, s.NCycles)
	}

	if s.TrajectoryDirectory == "" {
		return fmt.Errorf("trajectory_directory is required")
	}
	if s.TrajectoryPrefix == "" {
		return fmt.Errorf("trajectory_prefix is required")
	}

	if len(s.Phases) == 0 {
		return fmt.Errorf("at least one phase is required")
	}
	seen := make(map[string]bool)
	for _, phase := range s.Phases {
		if !contains(ValidPhases, phase) {
			return fmt.Errorf("phase %q must be one of: %s", phase, strings.Join(ValidPhases, ", "))
		}
		if seen[phase] {
			return fmt.Errorf("phase %q listed more than once", phase)
		}
		seen[phase] = true
	}

	if s.UseGivenGeometries && s.GivenGeometriesTolerance <= 0 {
		return fmt.Errorf("given geometries tolerance must be positive")
	}

	return nil
}

func validateSubset(key string, values, allowed []string) error {
	if len(values) == 0 {
		return fmt.Errorf("%s requires at least one entry", key)
	}
	for _, v := range values {
		if !contains(allowed, v) {
			return fmt.Errorf("%s entry %q must be one of: %s", key, v, strings.Join(allowed, ", "))
		}
	}
	return nil
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// String returns a human-readable representation of the setup
func (s *Setup) String() string {
	return fmt.Sprintf(`Free Energy Setup:
  Protein: %s
  Ligands: %s (old index %d, new index %d)
  Force Fields: %s
  Small Molecule Force Field: %s

Conditions:
  Temperature: %.1f K
  Pressure: %.1f atm
  Timestep: %.1f fs
  Ionic Strength: %.2f M
  Solvent Padding: %.1f A

Sampling:
  Scheme: %s
  Lambda Protocol: %s
  States: %d
  Cycles: %d x %d steps
  Equilibration Iterations: %d
  Checkpoint Interval: %d

Output:
  Directory: %s
  Prefix: %s
  Atom Selection: %s
  Phases: %s`,
		s.ProteinPDB,
		s.LigandFile, s.OldLigandIndex, s.NewLigandIndex,
		strings.Join(s.ForcefieldFiles, ", "),
		s.SmallMoleculeForcefield,
		s.Temperature,
		s.Pressure,
		s.Timestep,
		s.IonicStrength,
		s.SolventPadding,
		s.FEType,
		s.LambdaProtocol,
		s.NStates,
		s.NCycles, s.NStepsPerMoveApplication,
		s.NEquilibrationIterations,
		s.CheckpointInterval,
		s.TrajectoryDirectory,
		s.TrajectoryPrefix,
		s.AtomSelection,
		strings.Join(s.Phases, ", "),
	)
}
