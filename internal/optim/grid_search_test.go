package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/edaniels/golog"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/sim"
)

type constantMetric struct{ value float64 }

func (c constantMetric) Name() string         { return "constant" }
func (c constantMetric) Observe(sim.Snapshot) {}
func (c constantMetric) Value() float64       { return c.value }
func (c constantMetric) Reset()               {}

func steadyState() sim.Metric { return metrics.NewSteadyStateError(metrics.DefaultSteadyStateWindow) }

func TestGridSearchFindsDamping(t *testing.T) {
	g, err := NewGridSearch([]string{"Kd"}, [][]float64{{0, 0.025}}, golog.NewTestLogger(t))
	if err != nil {
		t.Fatal(err)
	}

	res, err := g.Search(context.Background(), sim.DefaultConfig(), control.DefaultParams(), 0, 400, steadyState)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if res.Params.Kd != 0.025 {
		t.Errorf("expected kd 0.025, got %v", res.Params.Kd)
	}
	if res.Params.Kp != control.DefaultKp {
		t.Errorf("base kp should be kept, got %v", res.Params.Kp)
	}
	if math.Abs(res.Score) > 1e-6 {
		t.Errorf("expected zero steady-state error, got %v", res.Score)
	}
	if res.Evaluated != 2 {
		t.Errorf("expected 2 evaluations, got %d", res.Evaluated)
	}
}

func TestGridSearchCoversEveryCombination(t *testing.T) {
	g, err := NewGridSearch(
		[]string{"Kp", "Ki", "Kd"},
		[][]float64{{0.1, 0.2}, {0, 0.05}, {0.015, 0.05, 0.1}},
		golog.NewTestLogger(t),
	)
	if err != nil {
		t.Fatal(err)
	}

	res, err := g.Search(context.Background(), sim.DefaultConfig(), control.DefaultParams(), 1, 50,
		func() sim.Metric { return metrics.NewIAE() })
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Evaluated != 12 {
		t.Errorf("expected 12 evaluations, got %d", res.Evaluated)
	}
}

func TestGridSearchTieKeepsFirst(t *testing.T) {
	g, err := NewGridSearch([]string{"Kp"}, [][]float64{{0.3, 0.7, 0.1}}, golog.NewTestLogger(t))
	if err != nil {
		t.Fatal(err)
	}

	res, err := g.Search(context.Background(), sim.DefaultConfig(), control.DefaultParams(), 0, 5,
		func() sim.Metric { return constantMetric{value: 1} })
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Params.Kp != 0.3 {
		t.Errorf("expected first candidate on a tie, got kp %v", res.Params.Kp)
	}
}

func TestGridSearchCanceled(t *testing.T) {
	g, err := NewGridSearch([]string{"Kp"}, [][]float64{{0.1, 0.2}}, golog.NewTestLogger(t))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = g.Search(ctx, sim.DefaultConfig(), control.DefaultParams(), 0, 100, steadyState)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestGridSearchUnknownParam(t *testing.T) {
	g, err := NewGridSearch([]string{"Kx"}, [][]float64{{1}}, golog.NewTestLogger(t))
	if err != nil {
		t.Fatal(err)
	}

	_, err = g.Search(context.Background(), sim.DefaultConfig(), control.DefaultParams(), 0, 10, steadyState)
	if !errors.Is(err, control.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestGridSearchNoFiniteScore(t *testing.T) {
	g, err := NewGridSearch([]string{"Kp"}, [][]float64{{1}}, golog.NewTestLogger(t))
	if err != nil {
		t.Fatal(err)
	}

	_, err = g.Search(context.Background(), sim.DefaultConfig(), control.DefaultParams(), 0, 5,
		func() sim.Metric { return constantMetric{value: math.NaN()} })
	if err == nil {
		t.Error("expected error when every score is NaN")
	}
}

func TestNewGridSearchInvalid(t *testing.T) {
	tests := []struct {
		name   string
		params []string
		ranges [][]float64
	}{
		{"no params", nil, nil},
		{"length mismatch", []string{"Kp", "Ki"}, [][]float64{{1}}},
		{"empty range", []string{"Kp"}, [][]float64{{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGridSearch(tt.params, tt.ranges, nil); !errors.Is(err, ErrEmptyGrid) {
				t.Errorf("expected ErrEmptyGrid, got %v", err)
			}
		})
	}
}
