package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alchemlab/fep-simulations/pkg/logger"
	"github.com/alchemlab/fep-simulations/pkg/simulation"
	"github.com/alchemlab/fep-simulations/pkg/utils"

	// Import samplers to register them
	_ "github.com/alchemlab/fep-simulations/pkg/samplers"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available samplers and discovered setup files",
	RunE:  listAvailable,
}

func listAvailable(_ *cobra.Command, _ []string) error {
	logger.LogSection("Samplers")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FE_TYPE\tDESCRIPTION")
	for _, name := range simulation.DefaultRegistry.List() {
		sampler, err := simulation.DefaultRegistry.Get(name)
		if err != nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", sampler.Name(), sampler.Description())
	}
	_ = w.Flush()

	infos, err := utils.DiscoverSetups("")
	if err != nil {
		return err
	}

	logger.LogSection("Setup Files")
	if len(infos) == 0 {
		fmt.Println("No setup files found")
		return nil
	}

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PATH\tFE_TYPE\tSTATES\tCYCLES\tPHASES")
	for _, info := range infos {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%v\n",
			info.Path, info.Setup.FEType, info.Setup.NStates, info.Setup.NCycles, info.Setup.Phases)
	}
	_ = w.Flush()

	return nil
}
