package config

import (
	"fmt"
	"sort"
	"strings"
)

// Preset is a named set of parameter overrides, optionally with a fit
// starting point.
type Preset struct {
	Description string
	Params      map[string]float64
	Initial     []float64
}

var Presets = map[string]map[string]*Preset{
	"masses": {
		"nominal": {
			Description: "cart and bob masses of the lab rig",
			Params:      map[string]float64{"m_x": 40, "m_y": 3},
		},
		"light-bob": {
			Description: "half the bob mass",
			Params:      map[string]float64{"m_y": 1.5},
		},
		"heavy-bob": {
			Description: "double the bob mass",
			Params:      map[string]float64{"m_y": 6},
		},
		"fit-start": {
			Description: "usual starting point for fitting m_x, m_y, c_varphi",
			Initial:     []float64{35, 3.1, 0.7},
		},
	},
	"drive": {
		"nominal": {
			Description: "drive gains and loop stiffness of the lab rig",
			Params:      map[string]float64{"k_vx": 3.6, "k_vl": -1.65, "k_x": 250, "k_l": 500},
		},
		"slow": {
			Description: "reduced command gains",
			Params:      map[string]float64{"k_vx": 2, "k_vl": -1},
		},
		"stiff": {
			Description: "stiffer velocity loops",
			Params:      map[string]float64{"k_x": 500, "k_l": 1000},
		},
	},
	"gains": {
		"degrees": {
			Description: "angle output in plain degrees",
			Params:      map[string]float64{"k_phi": 1},
		},
		"sensor": {
			Description: "angle output scaled like the angle sensor",
			Params:      map[string]float64{"k_phi": 0.5},
		},
	},
}

// GetPreset looks up "group/name".
func GetPreset(ref string) *Preset {
	group, name, ok := strings.Cut(ref, "/")
	if !ok {
		return nil
	}
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	p, ok := groupPresets[name]
	if !ok {
		return nil
	}
	return p
}

func ListGroups() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset layers the preset over c. Preset params win over params
// already set.
func (c *Config) ApplyPreset(ref string) error {
	p := GetPreset(ref)
	if p == nil {
		return fmt.Errorf("unknown preset %q", ref)
	}
	if c.Params == nil {
		c.Params = make(map[string]float64, len(p.Params))
	}
	for k, v := range p.Params {
		c.Params[k] = v
	}
	if p.Initial != nil {
		c.Initial = append([]float64(nil), p.Initial...)
	}
	return nil
}
