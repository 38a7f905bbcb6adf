package utils

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"golang.org/x/term"

	"github.com/alchemlab/fep-simulations/pkg/setup"
)

// Interactive reports whether prompting the user is possible and allowed.
// FEP_SKIP_PROMPTS=true suppresses prompts for CI and automation.
func Interactive() bool {
	if os.Getenv("FEP_SKIP_PROMPTS") == "true" {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// PromptForSetup asks the user to pick one of the discovered setup files
func PromptForSetup(infos []SetupInfo) (*SetupInfo, error) {
	if len(infos) == 0 {
		return nil, fmt.Errorf("no setup files found")
	}
	if len(infos) == 1 || !Interactive() {
		return &infos[0], nil
	}

	options := make([]string, len(infos))
	descriptions := make(map[string]string, len(infos))
	for i, info := range infos {
		options[i] = info.Path
		descriptions[info.Path] = fmt.Sprintf("%s, %d states", info.Setup.FEType, info.Setup.NStates)
	}

	var selected string
	prompt := &survey.Select{
		Message: "Select setup file:",
		Options: options,
		Description: func(value string, index int) string {
			return descriptions[value]
		},
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return nil, err
	}

	for i := range infos {
		if infos[i].Path == selected {
			return &infos[i], nil
		}
	}
	return nil, fmt.Errorf("setup file not found")
}

// PromptForPhases asks the user which of the configured phases to run,
// returning the defaults when prompting is unavailable
func PromptForPhases(defaults []string) ([]string, error) {
	if !Interactive() {
		return defaults, nil
	}

	var selected []string
	prompt := &survey.MultiSelect{
		Message: "Select phases to run:",
		Options: setup.ValidPhases,
		Default: defaults,
	}
	if err := survey.AskOne(prompt, &selected, survey.WithValidator(survey.Required)); err != nil {
		return nil, err
	}
	return selected, nil
}

// ConfirmOverwrite asks before clobbering an existing checkpoint
func ConfirmOverwrite(path string) (bool, error) {
	if !Interactive() {
		return true, nil
	}

	var confirm bool
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Checkpoint %s exists, overwrite and start fresh?", path),
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirm); err != nil {
		return false, err
	}
	return confirm, nil
}
