package samplers

import (
	"github.com/alchemlab/fep-simulations/pkg/logger"
	"github.com/alchemlab/fep-simulations/pkg/simulation"
)

// init registers the samplers under their fe_type identifiers
func init() {
	for name, factory := range map[string]func() simulation.Sampler{
		"repex":          NewRepex,
		"sams":           NewSAMS,
		"nonequilibrium": NewNonequilibrium,
	} {
		if err := simulation.DefaultRegistry.Register(name, factory); err != nil {
			logger.Errorf("Failed to register sampler %s: %v", name, err)
		}
	}
}
