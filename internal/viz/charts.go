package viz

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/guptarohit/asciigraph"
	"go.uber.org/multierr"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/pidlab/internal/sim"
)

var errNoSnapshots = errors.New("viz: no snapshots to plot")

// createFile opens chart outputs; tests replace it.
var createFile = func(path string) (io.WriteCloser, error) { return os.Create(path) }

func series(snaps []sim.Snapshot) (pos, ref []float64) {
	pos = make([]float64, len(snaps))
	ref = make([]float64, len(snaps))
	for i, s := range snaps {
		pos[i] = s.Plant.Position
		ref[i] = s.Reference
	}
	return pos, ref
}

// PlotASCII renders position against reference. Positions are in canvas
// units, so smaller values are higher on screen.
func PlotASCII(snaps []sim.Snapshot, width, height int) string {
	if len(snaps) == 0 {
		return ""
	}
	pos, ref := series(snaps)
	return asciigraph.PlotMany([][]float64{pos, ref},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
		asciigraph.Caption("position (green) vs reference (red)"),
	)
}

// SavePNG writes a line chart of position and reference over time.
func SavePNG(path string, snaps []sim.Snapshot) (err error) {
	if len(snaps) == 0 {
		return errNoSnapshots
	}

	p := plot.New()
	p.Title.Text = "Position vs reference"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "position"

	pos := make(plotter.XYs, len(snaps))
	ref := make(plotter.XYs, len(snaps))
	for i, s := range snaps {
		pos[i].X, pos[i].Y = s.Time, s.Plant.Position
		ref[i].X, ref[i].Y = s.Time, s.Reference
	}

	posLine, err := plotter.NewLine(pos)
	if err != nil {
		return err
	}
	posLine.LineStyle.Width = vg.Points(2)
	posLine.LineStyle.Color = color.RGBA{R: 0x88, G: 0xAA, B: 0x55, A: 0xFF}

	refLine, err := plotter.NewLine(ref)
	if err != nil {
		return err
	}
	refLine.LineStyle.Width = vg.Points(1.5)
	refLine.LineStyle.Color = color.RGBA{R: 0xAA, G: 0x22, A: 0xFF}
	refLine.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}

	p.Add(plotter.NewGrid(), refLine, posLine)
	p.Legend.Add("position", posLine)
	p.Legend.Add("reference", refLine)

	c := vgimg.NewWith(vgimg.UseWH(8*vg.Inch, 5*vg.Inch), vgimg.UseDPI(96))
	p.Draw(draw.New(c))

	f, err := createFile(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
