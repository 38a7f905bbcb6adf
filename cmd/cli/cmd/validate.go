package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alchemlab/fep-simulations/pkg/logger"
	"github.com/alchemlab/fep-simulations/pkg/setup"
	"github.com/alchemlab/fep-simulations/pkg/utils"
)

var validateCmd = &cobra.Command{
	Use:   "validate [setup files]",
	Short: "Validate setup files",
	Long:  `Validate one or more setup files without running anything. With no arguments, validates every setup file found beneath the current directory.`,
	RunE:  validateSetups,
}

var validateVerbose bool

func init() {
	validateCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "print the resolved setup")
}

func validateSetups(_ *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		var err error
		paths, err = utils.DiscoverSetupPaths("")
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no setup files found")
		}
	}

	failures := 0
	for _, path := range paths {
		s, err := setup.Load(path)
		if err != nil {
			logger.Errorf("%s: %v", path, err)
			failures++
			continue
		}
		logger.Successf("%s is valid (%s, %d states, %d cycles)", path, s.FEType, s.NStates, s.NCycles)
		if validateVerbose {
			fmt.Println(s.String())
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d setup files failed validation", failures, len(paths))
	}
	return nil
}
