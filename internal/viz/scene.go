package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/sim"
)

type layer int

const (
	layerNone layer = iota
	layerGuide
	layerReference
	layerObject
)

const (
	guideDash = 2
	guideGap  = 3
)

// Scene draws a snapshot onto a terminal canvas. Layout coordinates keep the
// screen orientation: y grows downward, so the bottom of the range is drawn at
// the bottom of the canvas.
type Scene struct {
	layout    config.Layout
	guides    *Canvas
	reference *Canvas
	object    *Canvas
}

// NewScene builds a scene of cols x rows terminal cells. Guides are static and
// drawn once.
func NewScene(layout config.Layout, cols, rows int) *Scene {
	s := &Scene{
		layout:    layout,
		guides:    NewCanvas(cols, rows),
		reference: NewCanvas(cols, rows),
		object:    NewCanvas(cols, rows),
	}
	right := s.guides.SubWidth() - 1
	for _, y := range layout.Guides() {
		_, sy := s.project(0, y)
		s.guides.DashedHLine(0, right, sy, guideDash, guideGap)
	}
	return s
}

func (s *Scene) project(x, y float64) (int, int) {
	sx := int(math.Round(x / s.layout.Width * float64(s.object.SubWidth()-1)))
	sy := int(math.Round(y / s.layout.Height * float64(s.object.SubHeight()-1)))
	return sx, sy
}

// Draw replaces the reference line and object disc with the ones in snap.
func (s *Scene) Draw(snap sim.Snapshot) {
	s.reference.Clear()
	s.object.Clear()

	_, ry := s.project(0, snap.Reference)
	s.reference.HLine(0, s.reference.SubWidth()-1, ry)

	cx, cy := s.project(s.layout.Width/2, snap.Plant.Position)
	r := int(math.Round(s.layout.ObjectHeight / 2 / s.layout.Height * float64(s.object.SubHeight())))
	s.object.FillCircle(cx, cy, r)
}

func (s *Scene) top(row, col int) layer {
	switch {
	case !s.object.Empty(row, col):
		return layerObject
	case !s.reference.Empty(row, col):
		return layerReference
	case !s.guides.Empty(row, col):
		return layerGuide
	default:
		return layerNone
	}
}

// Render composites the layers. Each cell keeps the dots of every layer and
// takes the color of the topmost one.
func (s *Scene) Render() string {
	var b strings.Builder
	for row := 0; row < s.object.Height; row++ {
		var run strings.Builder
		current := layerNone
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(layerStyles[current].Render(run.String()))
				run.Reset()
			}
		}
		for col := 0; col < s.object.Width; col++ {
			l := s.top(row, col)
			if l != current {
				flush()
				current = l
			}
			run.WriteRune(s.guides.Grid[row][col] | s.reference.Grid[row][col] | s.object.Grid[row][col])
		}
		flush()
		b.WriteByte('\n')
	}
	return b.String()
}

// Layer is one drawing layer and the color it is rendered in.
type Layer struct {
	Canvas *Canvas
	Color  lipgloss.Color
}

// Layers returns the scene layers, bottom first.
func (s *Scene) Layers() []Layer {
	return []Layer{
		{Canvas: s.guides, Color: DefaultTheme.Guide},
		{Canvas: s.reference, Color: DefaultTheme.Reference},
		{Canvas: s.object, Color: DefaultTheme.Object},
	}
}
