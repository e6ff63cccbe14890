package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/pendulab/internal/dynamo"
)

// Params is the physical parameter set of the cable cart. Every field has a
// default in DefaultParams; overrides are merged with Override.
type Params struct {
	// Cart mass (kg).
	MX float64 `yaml:"m_x" json:"m_x"`
	// Pendulum bob mass (kg).
	MY float64 `yaml:"m_y" json:"m_y"`
	// Fixed cable reference length used to flip the measured vertical offset (m).
	YMax float64 `yaml:"y_max" json:"y_max"`
	G    float64 `yaml:"g" json:"g"`
	// Angular damping on the pendulum rate.
	CVarphi float64 `yaml:"c_varphi" json:"c_varphi"`
	// Cart friction coefficient.
	CX float64 `yaml:"c_x" json:"c_x"`
	// Drive stiffness of the cart and cable velocity loops.
	KX float64 `yaml:"k_x" json:"k_x"`
	KL float64 `yaml:"k_l" json:"k_l"`
	// Cable rest length added to the controlled length (m).
	L0 float64 `yaml:"l_0" json:"l_0"`
	// Gains from raw command to physical velocity command.
	KVX float64 `yaml:"k_vx" json:"k_vx"`
	KVL float64 `yaml:"k_vl" json:"k_vl"`
	// Output scale applied to the angle channel (after conversion to degrees).
	KPhi float64 `yaml:"k_phi" json:"k_phi"`
	// Travel limits; outside them the corresponding command is zeroed.
	XMin float64 `yaml:"x_min" json:"x_min"`
	XMax float64 `yaml:"x_max" json:"x_max"`
	LMin float64 `yaml:"l_min" json:"l_min"`
	LMax float64 `yaml:"l_max" json:"l_max"`
}

var paramKeys = []string{
	"m_x", "m_y", "y_max", "g", "c_varphi", "c_x", "k_x", "k_l", "l_0",
	"k_vx", "k_vl", "k_phi", "x_min", "x_max", "l_min", "l_max",
}

func DefaultParams() Params {
	return Params{
		MX:      40,
		MY:      3,
		YMax:    1.2,
		G:       9.81,
		CVarphi: 0.12,
		CX:      0.5,
		KX:      250,
		KL:      500,
		L0:      0.23,
		KVX:     3.6,
		KVL:     -1.65,
		KPhi:    0.5,
		XMin:    0,
		XMax:    2.5,
		LMin:    0,
		LMax:    1.3,
	}
}

// Keys lists the parameter names in declaration order.
func Keys() []string {
	keys := make([]string, len(paramKeys))
	copy(keys, paramKeys)
	return keys
}

func (p *Params) field(name string) (*float64, error) {
	switch name {
	case "m_x":
		return &p.MX, nil
	case "m_y":
		return &p.MY, nil
	case "y_max":
		return &p.YMax, nil
	case "g":
		return &p.G, nil
	case "c_varphi":
		return &p.CVarphi, nil
	case "c_x":
		return &p.CX, nil
	case "k_x":
		return &p.KX, nil
	case "k_l":
		return &p.KL, nil
	case "l_0":
		return &p.L0, nil
	case "k_vx":
		return &p.KVX, nil
	case "k_vl":
		return &p.KVL, nil
	case "k_phi":
		return &p.KPhi, nil
	case "x_min":
		return &p.XMin, nil
	case "x_max":
		return &p.XMax, nil
	case "l_min":
		return &p.LMin, nil
	case "l_max":
		return &p.LMax, nil
	default:
		return nil, fmt.Errorf("unknown param: %s", name)
	}
}

func (p Params) Get(name string) (float64, error) {
	f, err := p.field(name)
	if err != nil {
		return 0, err
	}
	return *f, nil
}

func (p *Params) Set(name string, value float64) error {
	f, err := p.field(name)
	if err != nil {
		return err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("param %s: %w: %v", name, dynamo.ErrParameterBounds, value)
	}
	*f = value
	return nil
}

// Map returns every parameter keyed by name.
func (p Params) Map() map[string]float64 {
	m := make(map[string]float64, len(paramKeys))
	for _, k := range paramKeys {
		v, _ := p.Get(k)
		m[k] = v
	}
	return m
}

// Override returns a copy of p with values assigned positionally to names.
func (p Params) Override(names []string, values []float64) (Params, error) {
	if len(names) != len(values) {
		return p, fmt.Errorf("override: %d names for %d values: %w", len(names), len(values), dynamo.ErrDimensionMismatch)
	}
	out := p
	for i, name := range names {
		if err := out.Set(name, values[i]); err != nil {
			return p, err
		}
	}
	return out, nil
}

// Merge applies a keyed override set, e.g. from a config file.
func (p Params) Merge(values map[string]float64) (Params, error) {
	out := p
	for _, k := range paramKeys {
		v, ok := values[k]
		if !ok {
			continue
		}
		if err := out.Set(k, v); err != nil {
			return p, err
		}
	}
	for k := range values {
		if _, err := out.field(k); err != nil {
			return p, err
		}
	}
	return out, nil
}

func (p Params) Validate() error {
	for _, k := range paramKeys {
		v, _ := p.Get(k)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("param %s: %w: %v", k, dynamo.ErrParameterBounds, v)
		}
	}
	if p.XMin > p.XMax {
		return fmt.Errorf("x_min %v > x_max %v: %w", p.XMin, p.XMax, dynamo.ErrParameterBounds)
	}
	if p.LMin > p.LMax {
		return fmt.Errorf("l_min %v > l_max %v: %w", p.LMin, p.LMax, dynamo.ErrParameterBounds)
	}
	return nil
}
