// Package optim tunes controller gains by exhaustive search over a grid.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/edaniels/golog"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/sim"
)

var ErrEmptyGrid = errors.New("optim: empty grid")

// Result is the best combination found. Lower scores are better.
type Result struct {
	Params    control.Params
	Score     float64
	Evaluated int
}

// GridSearch tries every combination of the given parameter values. Names are
// the ones accepted by control.PID.SetParam.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	logger     golog.Logger
}

func NewGridSearch(params []string, ranges [][]float64, logger golog.Logger) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d names for %d ranges", ErrEmptyGrid, len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: no values for %s", ErrEmptyGrid, params[i])
		}
	}
	if logger == nil {
		logger = golog.Global()
	}
	return &GridSearch{paramNames: params, ranges: ranges, logger: logger}, nil
}

// Search runs one headless simulation of ticks ticks per combination, starting
// from base and load, and scores it with a fresh metric from newMetric.
// Combinations run one after another; on equal scores the first one wins.
func (g *GridSearch) Search(
	ctx context.Context,
	cfg sim.Config,
	base control.Params,
	load float64,
	ticks int,
	newMetric func() sim.Metric,
) (*Result, error) {
	best := &Result{Score: math.Inf(1)}
	found := false

	err := g.searchRecursive(ctx, 0, base, func(p control.Params) error {
		score, err := evaluate(ctx, cfg, p, load, ticks, newMetric())
		if err != nil {
			return err
		}
		best.Evaluated++
		g.logger.Debugw("candidate", "reference", p.Reference, "kp", p.Kp, "ki", p.Ki, "kd", p.Kd, "score", score)

		if !math.IsNaN(score) && score < best.Score {
			best.Params = p
			best.Score = score
			found = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("optim: no candidate produced a finite score")
	}
	return best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current control.Params,
	visit func(control.Params) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return visit(current)
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		pid := control.NewPID(current)
		if err := pid.SetParam(name, val); err != nil {
			return err
		}
		if err := g.searchRecursive(ctx, depth+1, pid.Params(), visit); err != nil {
			return err
		}
	}
	return nil
}

func evaluate(ctx context.Context, cfg sim.Config, p control.Params, load float64, ticks int, m sim.Metric) (float64, error) {
	s, err := sim.New(cfg)
	if err != nil {
		return 0, err
	}
	s.Configure(p, load)
	s.AddMetric(m)

	res, err := s.Run(ctx, ticks)
	if err != nil {
		return 0, err
	}
	return res.Metrics[m.Name()], nil
}
