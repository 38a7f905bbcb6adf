// Package protocol defines the per-term lambda schedules used to interpolate
// between the end states of an alchemical free energy calculation.
package protocol

import (
	"fmt"
	"math"

	"github.com/alchemlab/fep-simulations/pkg/logger"
)

// TermFunc maps the global lambda in [0, 1] to the value of one energy term
type TermFunc func(x float64) float64

// Energy terms perturbed over the protocol. Core terms are shared between
// the end states; insert terms belong only to the new ligand and delete
// terms only to the old one.
const (
	TermStericsCore          = "lambda_sterics_core"
	TermElectrostaticsCore   = "lambda_electrostatics_core"
	TermStericsInsert        = "lambda_sterics_insert"
	TermStericsDelete        = "lambda_sterics_delete"
	TermElectrostaticsInsert = "lambda_electrostatics_insert"
	TermElectrostaticsDelete = "lambda_electrostatics_delete"
	TermBonds                = "lambda_bonds"
	TermAngles               = "lambda_angles"
	TermTorsions             = "lambda_torsions"
)

// Terms lists every energy term a complete protocol must define
var Terms = []string{
	TermStericsCore,
	TermElectrostaticsCore,
	TermStericsInsert,
	TermStericsDelete,
	TermElectrostaticsInsert,
	TermElectrostaticsDelete,
	TermBonds,
	TermAngles,
	TermTorsions,
}

// Preset names accepted by New
const (
	PresetDefault   = "default"
	PresetNAMD      = "namd"
	PresetQuarters  = "quarters"
	PresetEleScaled = "ele-scaled"
)

// Presets lists the built-in protocol presets
var Presets = []string{PresetDefault, PresetNAMD, PresetQuarters, PresetEleScaled}

// LambdaProtocol holds a validated set of per-term schedules
type LambdaProtocol struct {
	name      string
	functions map[string]TermFunc
}

func identity(x float64) float64 { return x }

// defaultFunctions turns off the old ligand's interactions over the first
// half of the protocol and turns on the new ligand's over the second half,
// with core and valence terms treated linearly.
func defaultFunctions() map[string]TermFunc {
	return map[string]TermFunc{
		TermStericsCore:        identity,
		TermElectrostaticsCore: identity,
		TermStericsInsert: func(x float64) float64 {
			if x < 0.5 {
				return 2.0 * x
			}
			return 1.0
		},
		TermStericsDelete: func(x float64) float64 {
			if x < 0.5 {
				return 0.0
			}
			return 2.0 * (x - 0.5)
		},
		TermElectrostaticsInsert: func(x float64) float64 {
			if x < 0.5 {
				return 0.0
			}
			return 2.0 * (x - 0.5)
		},
		TermElectrostaticsDelete: func(x float64) float64 {
			if x < 0.5 {
				return 2.0 * x
			}
			return 1.0
		},
		TermBonds:    identity,
		TermAngles:   identity,
		TermTorsions: identity,
	}
}

// namdFunctions follows the hybrid single-dual-topology schedule of
// Jiang, Chipot and Roux (J Chem Inf Model 59, 2019).
func namdFunctions() map[string]TermFunc {
	return map[string]TermFunc{
		TermStericsCore:        identity,
		TermElectrostaticsCore: identity,
		TermStericsInsert: func(x float64) float64 {
			if x < 2.0/3.0 {
				return 1.5 * x
			}
			return 1.0
		},
		TermStericsDelete: func(x float64) float64 {
			if x < 1.0/3.0 {
				return 0.0
			}
			return (x - 1.0/3.0) * 1.5
		},
		TermElectrostaticsInsert: func(x float64) float64 {
			if x < 0.5 {
				return 0.0
			}
			return 2.0 * (x - 0.5)
		},
		TermElectrostaticsDelete: func(x float64) float64 {
			if x < 0.5 {
				return 2.0 * x
			}
			return 1.0
		},
		TermBonds:    identity,
		TermAngles:   identity,
		TermTorsions: identity,
	}
}

// quartersFunctions spends a quarter of the protocol in turn on turning off
// old electrostatics, off old sterics, on new sterics and on new
// electrostatics.
func quartersFunctions() map[string]TermFunc {
	return map[string]TermFunc{
		TermStericsCore:        identity,
		TermElectrostaticsCore: identity,
		TermStericsInsert: func(x float64) float64 {
			switch {
			case x < 0.5:
				return 0.0
			case x > 0.75:
				return 1.0
			default:
				return 4.0 * (x - 0.5)
			}
		},
		TermStericsDelete: func(x float64) float64 {
			switch {
			case x < 0.25:
				return 0.0
			case x > 0.5:
				return 1.0
			default:
				return 4.0 * (x - 0.25)
			}
		},
		TermElectrostaticsInsert: func(x float64) float64 {
			if x < 0.75 {
				return 0.0
			}
			return 4.0 * (x - 0.75)
		},
		TermElectrostaticsDelete: func(x float64) float64 {
			if x < 0.25 {
				return 4.0 * x
			}
			return 1.0
		},
		TermBonds:    identity,
		TermAngles:   identity,
		TermTorsions: identity,
	}
}

// eleScaledFunctions scales the unique electrostatics with sqrt(lambda) so
// the perturbation is linear in energy rather than lambda. All other terms
// fall back to the defaults.
func eleScaledFunctions() map[string]TermFunc {
	return map[string]TermFunc{
		TermElectrostaticsInsert: func(x float64) float64 {
			if x < 0.5 {
				return 0.0
			}
			return math.Sqrt(2.0 * (x - 0.5))
		},
		TermElectrostaticsDelete: func(x float64) float64 {
			if x < 0.5 {
				v := 2.0 * x
				return v * v
			}
			return 1.0
		},
	}
}

// New builds a protocol from a named preset and validates it
func New(name string) (*LambdaProtocol, error) {
	var functions map[string]TermFunc
	switch name {
	case PresetDefault, "":
		name = PresetDefault
		functions = defaultFunctions()
	case PresetNAMD:
		functions = namdFunctions()
	case PresetQuarters:
		functions = quartersFunctions()
	case PresetEleScaled:
		functions = eleScaledFunctions()
	default:
		return nil, fmt.Errorf("unknown lambda protocol %q, allowed values are: default, namd, quarters, ele-scaled", name)
	}
	return newProtocol(name, functions)
}

// NewFromFunctions builds a user-defined protocol from per-term schedules.
// Missing terms are filled in from the default preset.
func NewFromFunctions(functions map[string]TermFunc) (*LambdaProtocol, error) {
	copied := make(map[string]TermFunc, len(functions))
	for term, fn := range functions {
		copied[term] = fn
	}
	return newProtocol("user-defined", copied)
}

func newProtocol(name string, functions map[string]TermFunc) (*LambdaProtocol, error) {
	p := &LambdaProtocol{name: name, functions: functions}
	if err := p.validate(10); err != nil {
		return nil, err
	}
	if err := p.checkNakedCharges(10); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the preset name or "user-defined"
func (p *LambdaProtocol) Name() string { return p.name }

// Value evaluates one term at the given global lambda
func (p *LambdaProtocol) Value(term string, globalLambda float64) float64 {
	return p.functions[term](globalLambda)
}

// validate backfills missing terms from the default preset, requires each
// schedule to run exactly from 0 to 1, and warns about non-monotonic
// schedules rather than rejecting them.
func (p *LambdaProtocol) validate(n int) error {
	defaults := defaultFunctions()

	for _, term := range Terms {
		if _, ok := p.functions[term]; !ok {
			logger.Warnf("Term %s is missing from lambda functions, using the default schedule", term)
			p.functions[term] = defaults[term]
		}

		fn := p.functions[term]
		if fn(0.0) != 0.0 {
			return fmt.Errorf("lambda function %s must start at 0", term)
		}
		if fn(1.0) != 1.0 {
			return fmt.Errorf("lambda function %s must end at 1", term)
		}

		prev := fn(0.0)
		for i := 1; i < n; i++ {
			x := float64(i) / float64(n-1)
			v := fn(x)
			if v < prev {
				logger.Warnf("Lambda function %s is not monotonic as typically expected, simulating anyway", term)
				break
			}
			prev = v
		}
	}
	return nil
}

// checkNakedCharges rejects schedules that leave partial charges without
// steric protection: inserted electrostatics may not appear before inserted
// sterics, and deleted sterics may not vanish before deleted
// electrostatics.
func (p *LambdaProtocol) checkNakedCharges(n int) error {
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		if p.functions[TermElectrostaticsInsert](x) != 0.0 && p.functions[TermStericsInsert](x) == 0.0 {
			return fmt.Errorf("naked charge at lambda %.3f: inserted electrostatics present without inserted sterics", x)
		}
		if p.functions[TermElectrostaticsDelete](x) != 1.0 && p.functions[TermStericsDelete](x) == 1.0 {
			return fmt.Errorf("naked charge at lambda %.3f: deleted sterics removed before deleted electrostatics", x)
		}
	}
	return nil
}
