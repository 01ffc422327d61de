package config

import "sort"

// Preset is a named set of gains and load that demonstrates one controller
// behavior on the default plant.
type Preset struct {
	Description string
	Controller  ControllerConfig
	Load        float64
}

var Presets = map[string]Preset{
	"default": {
		Description: "proportional gain 1, settles into a small orbit around the reference",
		Controller:  ControllerConfig{Reference: 300, Kp: 1},
	},
	"proportional": {
		Description: "soft proportional gain, keeps oscillating around the reference",
		Controller:  ControllerConfig{Reference: 300, Kp: 0.05},
	},
	"damped": {
		Description: "derivative term removes the orbit, converges with a 10 unit overshoot",
		Controller:  ControllerConfig{Reference: 300, Kp: 1, Kd: 0.025},
	},
	"overdamped": {
		Description: "heavy derivative term, approaches without overshoot",
		Controller:  ControllerConfig{Reference: 300, Kp: 0.1, Kd: 0.05},
	},
	"load": {
		Description: "constant load with PD control leaves a steady-state offset",
		Controller:  ControllerConfig{Reference: 300, Kp: 0.2, Kd: 0.015},
		Load:        1,
	},
	"integral": {
		Description: "integral term removes the steady-state offset under load",
		Controller:  ControllerConfig{Reference: 300, Kp: 0.2, Ki: 0.05, Kd: 0.015},
		Load:        1,
	},
	"windup": {
		Description: "oversized integral gain winds up during the approach and overshoots badly",
		Controller:  ControllerConfig{Reference: 300, Kp: 0.2, Ki: 0.5, Kd: 0.015},
	},
}

// GetPreset returns a fresh default configuration with the named preset
// applied, or nil when no such preset exists.
func GetPreset(name string) *Config {
	cfg := DefaultConfig()
	if err := cfg.ApplyPreset(name); err != nil {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
