package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the drawing palette.
type Theme struct {
	Background lipgloss.Color
	Guide      lipgloss.Color
	Reference  lipgloss.Color
	Object     lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color
}

var DefaultTheme = Theme{
	Background: lipgloss.Color("#181818"),
	Guide:      lipgloss.Color("#888888"),
	Reference:  lipgloss.Color("#AA2200"),
	Object:     lipgloss.Color("#88AA55"),
	Text:       lipgloss.Color("#DDDDDD"),
	Muted:      lipgloss.Color("#666666"),
	Accent:     lipgloss.Color("#88AA55"),
}

var (
	canvasStyle      = lipgloss.NewStyle().Padding(1, 2)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(DefaultTheme.Muted).Padding(1, 2).Width(42)
	headerStyle      = lipgloss.NewStyle().Foreground(DefaultTheme.Accent).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(DefaultTheme.Guide).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(DefaultTheme.Text)
	activeParamStyle = lipgloss.NewStyle().Foreground(DefaultTheme.Reference).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(DefaultTheme.Object).Padding(1, 0)
	helpStyle        = lipgloss.NewStyle().Foreground(DefaultTheme.Muted).MarginTop(1)

	statusRunning = lipgloss.NewStyle().Bold(true).Foreground(DefaultTheme.Object)
	statusStopped = lipgloss.NewStyle().Bold(true).Foreground(DefaultTheme.Reference)
)

// layerStyles colors a canvas cell by the topmost layer that lit it.
var layerStyles = map[layer]lipgloss.Style{
	layerNone:      lipgloss.NewStyle().Background(DefaultTheme.Background),
	layerGuide:     lipgloss.NewStyle().Background(DefaultTheme.Background).Foreground(DefaultTheme.Guide),
	layerReference: lipgloss.NewStyle().Background(DefaultTheme.Background).Foreground(DefaultTheme.Reference),
	layerObject:    lipgloss.NewStyle().Background(DefaultTheme.Background).Foreground(DefaultTheme.Object),
}
