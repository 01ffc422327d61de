package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/sim"
)

const (
	DefaultWidth        = 800
	DefaultHeight       = 600
	DefaultObjectWidth  = 30
	DefaultObjectHeight = 30
	DefaultGuideSpacing = 50
	DefaultLogLevel     = "info"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

type Config struct {
	Controller ControllerConfig `yaml:"controller"`
	Plant      PlantConfig      `yaml:"plant"`
	Layout     Layout           `yaml:"layout"`
	LogLevel   string           `yaml:"log_level"`
}

type ControllerConfig struct {
	Reference float64 `yaml:"reference"`
	Kp        float64 `yaml:"kp"`
	Ki        float64 `yaml:"ki"`
	Kd        float64 `yaml:"kd"`
}

type PlantConfig struct {
	Load   float64       `yaml:"load"`
	VMax   float64       `yaml:"v_max"`
	Period time.Duration `yaml:"period"`
}

// Layout is the drawing area in layout units. The vertical axis is inverted:
// 0 is the top edge and Height the bottom.
type Layout struct {
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	ObjectWidth  float64 `yaml:"object_width"`
	ObjectHeight float64 `yaml:"object_height"`
	GuideSpacing float64 `yaml:"guide_spacing"`
}

// Guides returns the y coordinates of the horizontal guide lines, one every
// GuideSpacing units strictly inside the drawing area.
func (l Layout) Guides() []float64 {
	if l.GuideSpacing <= 0 {
		return nil
	}
	var ys []float64
	for y := l.GuideSpacing; y < l.Height; y += l.GuideSpacing {
		ys = append(ys, y)
	}
	return ys
}

func DefaultConfig() *Config {
	return &Config{
		Controller: ControllerConfig{
			Reference: control.DefaultReference,
			Kp:        control.DefaultKp,
			Ki:        control.DefaultKi,
			Kd:        control.DefaultKd,
		},
		Plant: PlantConfig{
			VMax:   sim.DefaultVMax,
			Period: sim.DefaultPeriod,
		},
		Layout: Layout{
			Width:        DefaultWidth,
			Height:       DefaultHeight,
			ObjectWidth:  DefaultObjectWidth,
			ObjectHeight: DefaultObjectHeight,
			GuideSpacing: DefaultGuideSpacing,
		},
		LogLevel: DefaultLogLevel,
	}
}

// Load reads a YAML file on top of the defaults, so omitted keys keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
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

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var err error
	if c.Plant.Period <= 0 {
		err = multierr.Append(err, fmt.Errorf("plant.period must be positive, got %v", c.Plant.Period))
	}
	if c.Plant.VMax <= 0 {
		err = multierr.Append(err, fmt.Errorf("plant.v_max must be positive, got %v", c.Plant.VMax))
	}
	if c.Layout.Width <= 0 {
		err = multierr.Append(err, fmt.Errorf("layout.width must be positive, got %v", c.Layout.Width))
	}
	if c.Layout.ObjectWidth <= 0 || c.Layout.ObjectHeight <= 0 {
		err = multierr.Append(err, errors.New("layout object dimensions must be positive"))
	}
	if c.Layout.GuideSpacing <= 0 {
		err = multierr.Append(err, fmt.Errorf("layout.guide_spacing must be positive, got %v", c.Layout.GuideSpacing))
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"controller.reference", c.Controller.Reference},
		{"controller.kp", c.Controller.Kp},
		{"controller.ki", c.Controller.Ki},
		{"controller.kd", c.Controller.Kd},
		{"plant.load", c.Plant.Load},
		{"plant.v_max", c.Plant.VMax},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			err = multierr.Append(err, fmt.Errorf("%s must be finite, got %v", f.name, f.value))
		}
	}
	if _, berr := c.SimConfig().Bounds(); berr != nil {
		err = multierr.Append(err, berr)
	}
	if !logLevels[c.LogLevel] {
		err = multierr.Append(err, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	return err
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Period:       c.Plant.Period,
		Load:         c.Plant.Load,
		CanvasHeight: c.Layout.Height,
		ObjectHeight: c.Layout.ObjectHeight,
		VMax:         c.Plant.VMax,
	}
}

func (c *Config) Params() control.Params {
	return control.Params{
		Reference: c.Controller.Reference,
		Kp:        c.Controller.Kp,
		Ki:        c.Controller.Ki,
		Kd:        c.Controller.Kd,
	}
}

// ApplyPreset overwrites the controller parameters and load with the named
// preset, leaving the layout and timing untouched.
func (c *Config) ApplyPreset(name string) error {
	p, ok := Presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q (available: %v)", name, ListPresets())
	}
	c.Controller = p.Controller
	c.Plant.Load = p.Load
	return nil
}
