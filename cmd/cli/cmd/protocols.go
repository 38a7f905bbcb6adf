package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alchemlab/fep-simulations/pkg/logger"
	"github.com/alchemlab/fep-simulations/pkg/protocol"
)

var protocolsCmd = &cobra.Command{
	Use:   "protocols",
	Short: "List lambda protocols",
	Long:  `List the built-in lambda protocols, or print the per-term schedule of one protocol on an evenly spaced state grid.`,
	RunE:  showProtocols,
}

var (
	protocolName   string
	protocolStates int
)

func init() {
	protocolsCmd.Flags().StringVarP(&protocolName, "protocol", "p", "", "print the schedule of this protocol")
	protocolsCmd.Flags().IntVarP(&protocolStates, "states", "n", 11, "number of states in the schedule")
}

func showProtocols(_ *cobra.Command, _ []string) error {
	if protocolName == "" {
		logger.LogSection("Lambda Protocols")
		logger.LogList("Built-in presets:", protocol.Presets)
		fmt.Println("\nUse --protocol to print a schedule")
		return nil
	}

	p, err := protocol.New(protocolName)
	if err != nil {
		return err
	}
	schedule, err := p.Schedule(protocolStates)
	if err != nil {
		return err
	}

	logger.LogSection(fmt.Sprintf("Protocol: %s", p.Name()))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprint(w, "LAMBDA")
	for _, term := range protocol.Terms {
		_, _ = fmt.Fprintf(w, "\t%s", term)
	}
	_, _ = fmt.Fprintln(w)
	for _, state := range schedule {
		_, _ = fmt.Fprintf(w, "%.3f", state.GlobalLambda)
		for _, term := range protocol.Terms {
			_, _ = fmt.Fprintf(w, "\t%.3f", state.Values[term])
		}
		_, _ = fmt.Fprintln(w)
	}
	_ = w.Flush()

	return nil
}
