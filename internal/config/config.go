package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pendulab/internal/objective"
	"github.com/san-kum/pendulab/internal/optim"
	"github.com/san-kum/pendulab/internal/physics"
	"github.com/san-kum/pendulab/internal/segment"
	"github.com/san-kum/pendulab/internal/sim"
)

const (
	DefaultDataDir  = "runs"
	DefaultDuration = 10.0
	DefaultSamples  = 1000
	DefaultStepAt   = 1.0
)

type Config struct {
	Measurements string             `yaml:"measurements"`
	Data         string             `yaml:"data"`
	Params       map[string]float64 `yaml:"params"`
	Initial      []float64          `yaml:"initial"`
	Penalty      float64            `yaml:"penalty"`
	Workers      int                `yaml:"workers"`

	Segment   segment.Config    `yaml:"segment"`
	Binding   objective.Binding `yaml:"binding"`
	Simulator sim.Config        `yaml:"simulator"`
	Optimizer optim.Settings    `yaml:"optimizer"`
	Simulate  SimulateConfig    `yaml:"simulate"`
}

// SimulateConfig describes the open-loop step experiment.
type SimulateConfig struct {
	Duration  float64   `yaml:"duration"`
	Samples   int       `yaml:"samples"`
	InitState []float64 `yaml:"init_state"`
	StepAt    float64   `yaml:"step_at"`
	CartStep  float64   `yaml:"cart_step"`
	CableStep float64   `yaml:"cable_step"`

	// RampTime > 0 replaces the steps by linear ramps of that length.
	RampTime float64 `yaml:"ramp_time"`
}

func DefaultConfig() *Config {
	return &Config{
		Data:      DefaultDataDir,
		Params:    map[string]float64{},
		Initial:   []float64{35, 3.1, 0.7},
		Penalty:   objective.DefaultPenalty,
		Workers:   1,
		Segment:   segment.DefaultConfig(),
		Binding:   objective.DefaultBinding(),
		Simulator: sim.DefaultConfig(),
		Optimizer: optim.DefaultSettings(),
		Simulate: SimulateConfig{
			Duration:  DefaultDuration,
			Samples:   DefaultSamples,
			InitState: []float64{0, 0, 1.2, 0, 0, 0},
			StepAt:    DefaultStepAt,
			CartStep:  0.1,
			CableStep: -0.1,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// PhysicalParams merges the configured overrides onto the defaults.
func (c *Config) PhysicalParams() (physics.Params, error) {
	p, err := physics.DefaultParams().Merge(c.Params)
	if err != nil {
		return p, err
	}
	return p, p.Validate()
}

func (c *Config) Validate() error {
	if _, err := c.PhysicalParams(); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	if err := c.Segment.Validate(); err != nil {
		return err
	}
	if err := c.Binding.Validate(); err != nil {
		return err
	}
	if err := c.Simulator.Validate(); err != nil {
		return fmt.Errorf("simulator: %w", err)
	}
	if len(c.Initial) != len(c.Binding.ParamNames) {
		return fmt.Errorf("initial has %d values for %d fitted parameters", len(c.Initial), len(c.Binding.ParamNames))
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Simulate.Samples < 2 || c.Simulate.Duration <= 0 {
		return fmt.Errorf("simulate: need duration > 0 and at least 2 samples")
	}
	if len(c.Simulate.InitState) != physics.NumStates {
		return fmt.Errorf("simulate: init_state needs %d values, got %d", physics.NumStates, len(c.Simulate.InitState))
	}
	return nil
}
