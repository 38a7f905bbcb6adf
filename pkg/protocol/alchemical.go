package protocol

import "fmt"

// AlchemicalState holds the per-term lambda values at one point of the
// protocol. A term value of 1 means fully interacting and 0 means
// non-interacting.
type AlchemicalState struct {
	GlobalLambda float64
	Values       map[string]float64
}

// StateAt evaluates every term of the protocol at the given global lambda
func (p *LambdaProtocol) StateAt(globalLambda float64) AlchemicalState {
	values := make(map[string]float64, len(p.functions))
	for term, fn := range p.functions {
		values[term] = fn(globalLambda)
	}
	return AlchemicalState{GlobalLambda: globalLambda, Values: values}
}

// Schedule returns the alchemical states on an evenly spaced global-lambda
// grid running from 0 to 1
func (p *LambdaProtocol) Schedule(nStates int) ([]AlchemicalState, error) {
	if nStates < 1 {
		return nil, fmt.Errorf("number of states must be at least 1")
	}
	if nStates == 1 {
		return []AlchemicalState{p.StateAt(0.0)}, nil
	}

	states := make([]AlchemicalState, nStates)
	for i := 0; i < nStates; i++ {
		states[i] = p.StateAt(float64(i) / float64(nStates-1))
	}
	return states, nil
}
