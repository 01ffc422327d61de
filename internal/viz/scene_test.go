package viz

import (
	"strings"
	"testing"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/sim"
)

func TestSceneGuides(t *testing.T) {
	layout := config.DefaultConfig().Layout
	s := NewScene(layout, 40, 30)

	rows := 0
	for y := 0; y < s.guides.SubHeight(); y++ {
		if s.guides.IsSet(0, y) {
			rows++
		}
	}
	if rows != len(layout.Guides()) {
		t.Errorf("expected %d guide rows, got %d", len(layout.Guides()), rows)
	}

	_, gy := s.project(0, 50)
	if !s.guides.IsSet(0, gy) || s.guides.IsSet(guideDash, gy) {
		t.Error("expected a dashed guide at y=50")
	}
}

func TestSceneDraw(t *testing.T) {
	s := NewScene(config.DefaultConfig().Layout, 40, 30)

	s.Draw(sim.Snapshot{Reference: 300, Plant: sim.PlantState{Position: 585}})

	_, ry := s.project(0, 300)
	for x := 0; x < s.reference.SubWidth(); x++ {
		if !s.reference.IsSet(x, ry) {
			t.Fatalf("reference line missing at x=%d", x)
		}
	}

	cx, cy := s.project(400, 585)
	if !s.object.IsSet(cx, cy) {
		t.Error("object missing at the bottom of the range")
	}

	s.Draw(sim.Snapshot{Reference: 200, Plant: sim.PlantState{Position: 300}})
	if s.object.IsSet(cx, cy) {
		t.Error("previous object position not cleared")
	}
	if s.reference.IsSet(0, ry) {
		t.Error("previous reference line not cleared")
	}
	cx, cy = s.project(400, 300)
	if !s.object.IsSet(cx, cy) {
		t.Error("object missing at new position")
	}
}

func TestSceneLayerPrecedence(t *testing.T) {
	s := NewScene(config.DefaultConfig().Layout, 40, 30)
	s.Draw(sim.Snapshot{Reference: 300, Plant: sim.PlantState{Position: 300}})

	cx, cy := s.project(400, 300)
	if got := s.top(cy/4, cx/2); got != layerObject {
		t.Errorf("expected object on top, got %v", got)
	}
	_, ry := s.project(0, 300)
	if got := s.top(ry/4, 0); got != layerReference {
		t.Errorf("expected reference away from object, got %v", got)
	}
}

func TestSceneRender(t *testing.T) {
	s := NewScene(config.DefaultConfig().Layout, 40, 30)
	s.Draw(sim.Snapshot{Reference: 300, Plant: sim.PlantState{Position: 585}})

	if n := strings.Count(s.Render(), "\n"); n != 30 {
		t.Errorf("expected 30 rows, got %d", n)
	}
}
