// Package metrics scores a simulation run. Every metric is a sim.Metric and is
// fed one snapshot per tick.
package metrics

import (
	"fmt"
	"sort"

	"github.com/san-kum/pidlab/internal/sim"
)

// Default returns a fresh instance of every metric.
func Default() []sim.Metric {
	return []sim.Metric{
		NewControlEffort(),
		NewIAE(),
		NewOvershoot(),
		NewSaturation(),
		NewSteadyStateError(DefaultSteadyStateWindow),
	}
}

// Names lists the metrics accepted by ByName.
func Names() []string {
	var names []string
	for _, m := range Default() {
		names = append(names, m.Name())
	}
	sort.Strings(names)
	return names
}

// ByName returns a fresh metric with the given name.
func ByName(name string) (sim.Metric, error) {
	for _, m := range Default() {
		if m.Name() == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown metric %q (want one of %v)", name, Names())
}
