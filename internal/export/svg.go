// Package export writes rendered scenes to files.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/pidlab/internal/viz"
)

// SceneToSVG converts every lit Braille dot of the scene to a circle, one
// group per layer so the layer colors survive.
func SceneToSVG(scene *viz.Scene, scale float64) string {
	if scene == nil {
		return ""
	}
	layers := scene.Layers()
	if len(layers) == 0 {
		return ""
	}

	width := float64(layers[0].Canvas.SubWidth()) * scale
	height := float64(layers[0].Canvas.SubHeight()) * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, viz.DefaultTheme.Background))

	for _, l := range layers {
		sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", l.Color))
		writeDots(&sb, l.Canvas, scale)
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writeDots(sb *strings.Builder, canvas *viz.Canvas, scale float64) {
	dotRadius := scale * 0.4
	for y := 0; y < canvas.SubHeight(); y++ {
		for x := 0; x < canvas.SubWidth(); x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			sb.WriteString(fmt.Sprintf("<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius))
		}
	}
}

// WriteSVG renders the scene and writes it to path.
func WriteSVG(path string, scene *viz.Scene, scale float64) error {
	return os.WriteFile(path, []byte(SceneToSVG(scene, scale)), 0644)
}
