package samplers

import (
	"fmt"
	"time"
)

// Options holds the run-length controls shared by all samplers
type Options struct {
	NCycles                  int
	NStepsPerMoveApplication int
	NEquilibrationIterations int
	CheckpointInterval       int
	LambdaProtocol           string
	ResampleThreshold        float64
	MoveStepSize             float64
	Seed                     int64
}

// ValidateAndParse validates and parses the raw parameters into Options
func ValidateAndParse(params map[string]interface{}) (*Options, error) {
	opts := &Options{
		NCycles:                  1000,
		NStepsPerMoveApplication: 250,
		NEquilibrationIterations: 10,
		CheckpointInterval:       500,
		LambdaProtocol:           "default",
		ResampleThreshold:        0.5,
		MoveStepSize:             0.5,
		Seed:                     time.Now().UnixNano(),
	}

	if v, ok := params["n_cycles"]; ok {
		n, err := toInt(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("n_cycles must be a positive integer")
		}
		opts.NCycles = n
	}

	if v, ok := params["n_steps_per_move_application"]; ok {
		n, err := toInt(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("n_steps_per_move_application must be a positive integer")
		}
		opts.NStepsPerMoveApplication = n
	}

	if v, ok := params["n_equilibration_iterations"]; ok {
		n, err := toInt(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("n_equilibration_iterations must be a non-negative integer")
		}
		opts.NEquilibrationIterations = n
	}

	if v, ok := params["checkpoint_interval"]; ok {
		n, err := toInt(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("checkpoint_interval must be a positive integer")
		}
		opts.CheckpointInterval = n
	}

	if v, ok := params["lambda_protocol"]; ok {
		opts.LambdaProtocol = fmt.Sprintf("%v", v)
	}

	if v, ok := params["resample_threshold"]; ok {
		f, err := toFloat(v)
		if err != nil || f < 0 || f > 1 {
			return nil, fmt.Errorf("resample_threshold must be between 0.0 and 1.0")
		}
		opts.ResampleThreshold = f
	}

	if v, ok := params["move_step_size"]; ok {
		f, err := toFloat(v)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("move_step_size must be positive")
		}
		opts.MoveStepSize = f
	}

	if v, ok := params["seed"]; ok {
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("seed must be an integer")
		}
		opts.Seed = int64(n)
	}

	return opts, nil
}

func toInt(v interface{}) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

func toFloat(v interface{}) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
