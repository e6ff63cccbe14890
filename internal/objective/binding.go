package objective

import (
	"fmt"

	"github.com/san-kum/pendulab/internal/physics"
)

// Binding maps episode channels onto the model. Positions are fixed
// contracts: ParamNames orders the optimizer vector, InputChannels follow
// the model inputs (cart, cable), StateChannels the state layout and
// OutputChannels the model outputs. An empty state channel starts at 0.
type Binding struct {
	ParamNames     []string  `yaml:"params" json:"params"`
	InputChannels  []string  `yaml:"inputs" json:"inputs"`
	InputDelays    []float64 `yaml:"input_delays" json:"input_delays"`
	StateChannels  []string  `yaml:"states" json:"states"`
	OutputChannels []string  `yaml:"outputs" json:"outputs"`
	OutputWeights  []float64 `yaml:"output_weights" json:"output_weights"`

	// InitialIndex is the sample the initial state is read from.
	InitialIndex int `yaml:"initial_index" json:"initial_index"`
	// AngleState is recorded in degrees and converted to radians.
	AngleState int `yaml:"angle_state" json:"angle_state"`
}

func DefaultBinding() Binding {
	return Binding{
		ParamNames:     []string{"m_x", "m_y", "c_varphi"},
		InputChannels:  []string{"x_const_mess", "y_const_mess"},
		InputDelays:    []float64{0.3, 0.1},
		StateChannels:  []string{"", "", "y_out_mess", "", "phi_out_mess", "x_out_mess"},
		OutputChannels: []string{"x_out_mess", "y_out_mess", "phi_out_mess"},
		OutputWeights:  []float64{0.2, 0.2, 1},
		InitialIndex:   3,
		AngleState:     physics.IdxAngle,
	}
}

func (b Binding) Validate() error {
	if len(b.InputChannels) != physics.NumInputs {
		return fmt.Errorf("binding: need %d input channels, got %d", physics.NumInputs, len(b.InputChannels))
	}
	if len(b.InputDelays) != len(b.InputChannels) {
		return fmt.Errorf("binding: %d input delays for %d input channels", len(b.InputDelays), len(b.InputChannels))
	}
	if len(b.StateChannels) != physics.NumStates {
		return fmt.Errorf("binding: need %d state channels, got %d", physics.NumStates, len(b.StateChannels))
	}
	if len(b.OutputChannels) == 0 || len(b.OutputChannels) > physics.NumOutputs {
		return fmt.Errorf("binding: need 1 to %d output channels, got %d", physics.NumOutputs, len(b.OutputChannels))
	}
	if len(b.OutputWeights) != len(b.OutputChannels) {
		return fmt.Errorf("binding: %d output weights for %d output channels", len(b.OutputWeights), len(b.OutputChannels))
	}
	if b.InitialIndex < 0 {
		return fmt.Errorf("binding: negative initial index %d", b.InitialIndex)
	}
	if b.AngleState < 0 || b.AngleState >= physics.NumStates {
		return fmt.Errorf("binding: angle state %d out of range", b.AngleState)
	}

	base := physics.DefaultParams()
	for _, name := range b.ParamNames {
		if _, err := base.Get(name); err != nil {
			return fmt.Errorf("binding: %w", err)
		}
	}
	return nil
}

// channels lists every channel the binding reads.
func (b Binding) channels() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(b.InputChannels)+len(b.StateChannels)+len(b.OutputChannels))
	add := func(names []string) {
		for _, n := range names {
			if n != "" && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(b.InputChannels)
	add(b.StateChannels)
	add(b.OutputChannels)
	return out
}
