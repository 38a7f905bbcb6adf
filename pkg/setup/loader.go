package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alchemlab/fep-simulations/pkg/logger"
	"github.com/alchemlab/fep-simulations/pkg/protocol"
)

// Load reads and validates a setup from a YAML file
func Load(path string) (*Setup, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("setup file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading setup file: %w", err)
	}

	s := DefaultSetup()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("error parsing setup file: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid setup: %w", err)
	}

	return s, nil
}

// Save writes a setup to a YAML file, creating directories as needed
func Save(s *Setup, path string) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid setup: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("error marshaling setup: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing setup file: %w", err)
	}

	return nil
}

// LoadWithOverrides loads a setup and applies environment and CLI overrides
func LoadWithOverrides(path string, cliOverrides map[string]interface{}) (*Setup, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	MergeWithEnvironment(s)

	if cliOverrides != nil {
		MergeWithCLIOverrides(s, cliOverrides)
	}

	// Final validation after overrides
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("setup validation failed after overrides: %w", err)
	}

	return s, nil
}

// MergeWithCLIOverrides applies CLI parameter overrides to the setup
func MergeWithCLIOverrides(s *Setup, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "fe_type":
			if feType, ok := value.(string); ok && contains(ValidFETypes, feType) {
				s.FEType = feType
			}
		case "lambda_protocol":
			if name, ok := value.(string); ok && contains(protocol.Presets, name) {
				s.LambdaProtocol = name
			}
		case "n_states":
			if n, ok := value.(int); ok && n >= 1 {
				s.NStates = n
			}
		case "n_cycles":
			if n, ok := value.(int); ok && n > 0 {
				s.NCycles = n
			}
		case "n_equilibration_iterations":
			if n, ok := value.(int); ok && n >= 0 {
				s.NEquilibrationIterations = n
			}
		case "temperature":
			if t, ok := value.(float64); ok && t > 0 {
				s.Temperature = t
			}
		case "phases":
			if phases, ok := value.([]string); ok && len(phases) > 0 {
				s.Phases = phases
			}
		case "trajectory_directory":
			if dir, ok := value.(string); ok && dir != "" {
				s.TrajectoryDirectory = dir
			}
		case "trajectory_prefix":
			if prefix, ok := value.(string); ok && prefix != "" {
				s.TrajectoryPrefix = prefix
			}
		}
	}
}

// MergeWithEnvironment merges a setup with FEP_* environment variables
func MergeWithEnvironment(s *Setup) {
	if feType := os.Getenv("FEP_FE_TYPE"); feType != "" {
		if contains(ValidFETypes, strings.ToLower(feType)) {
			s.FEType = strings.ToLower(feType)
		} else {
			logger.Warnf("Ignoring unknown FEP_FE_TYPE %q", feType)
		}
	}

	if name := os.Getenv("FEP_LAMBDA_PROTOCOL"); name != "" {
		if contains(protocol.Presets, strings.ToLower(name)) {
			s.LambdaProtocol = strings.ToLower(name)
		} else {
			logger.Warnf("Ignoring unknown FEP_LAMBDA_PROTOCOL %q", name)
		}
	}

	if temp := os.Getenv("FEP_TEMPERATURE"); temp != "" {
		if t, err := strconv.ParseFloat(temp, 64); err == nil && t > 0 {
			s.Temperature = t
		}
	}

	if pressure := os.Getenv("FEP_PRESSURE"); pressure != "" {
		if p, err := strconv.ParseFloat(pressure, 64); err == nil && p > 0 {
			s.Pressure = p
		}
	}

	if states := os.Getenv("FEP_N_STATES"); states != "" {
		if n, err := strconv.Atoi(states); err == nil && n >= 1 {
			s.NStates = n
		}
	}

	if cycles := os.Getenv("FEP_N_CYCLES"); cycles != "" {
		if n, err := strconv.Atoi(cycles); err == nil && n > 0 {
			s.NCycles = n
		}
	}

	if phases := os.Getenv("FEP_PHASES"); phases != "" {
		var parsed []string
		for _, phase := range strings.Split(phases, ",") {
			phase = strings.ToLower(strings.TrimSpace(phase))
			if contains(ValidPhases, phase) {
				parsed = append(parsed, phase)
			} else {
				logger.Warnf("Ignoring unknown phase %q in FEP_PHASES", phase)
			}
		}
		if len(parsed) > 0 {
			s.Phases = parsed
		}
	}

	if dir := os.Getenv("FEP_TRAJECTORY_DIRECTORY"); dir != "" {
		s.TrajectoryDirectory = dir
	}

	if prefix := os.Getenv("FEP_TRAJECTORY_PREFIX"); prefix != "" {
		s.TrajectoryPrefix = prefix
	}
}
