package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/session"
	"github.com/san-kum/pidlab/internal/sim"
)

const (
	canvasCols      = 60
	canvasRows      = 30
	historyCapacity = 300
	adjustFactor    = 0.1
)

// Session is the part of *session.Session the UI drives.
type Session interface {
	Start()
	Stop()
	Restart()
	Configure(p control.Params, load float64)
	Params() (control.Params, float64)
	Snapshot() sim.Snapshot
	State() session.RunState
	AddObserver(o sim.Observer)
}

// SnapshotMsg carries a post-tick snapshot from the session into the UI loop.
type SnapshotMsg sim.Snapshot

type lifecycleMsg struct {
	state session.RunState
	snap  sim.Snapshot
}

type tunable struct {
	name string
	step float64 // used when the current value is zero
	get  func(p control.Params, load float64) float64
	set  func(p *control.Params, load *float64, v float64)

	signed bool // may go below zero
}

var tunables = []tunable{
	{
		name: "Reference", step: 10, signed: true,
		get: func(p control.Params, _ float64) float64 { return p.Reference },
		set: func(p *control.Params, _ *float64, v float64) { p.Reference = v },
	},
	{
		name: "Kp", step: 0.05,
		get: func(p control.Params, _ float64) float64 { return p.Kp },
		set: func(p *control.Params, _ *float64, v float64) { p.Kp = v },
	},
	{
		name: "Ki", step: 0.01,
		get: func(p control.Params, _ float64) float64 { return p.Ki },
		set: func(p *control.Params, _ *float64, v float64) { p.Ki = v },
	},
	{
		name: "Kd", step: 0.005,
		get: func(p control.Params, _ float64) float64 { return p.Kd },
		set: func(p *control.Params, _ *float64, v float64) { p.Kd = v },
	},
	{
		name: "Load", step: 0.5, signed: true,
		get: func(_ control.Params, load float64) float64 { return load },
		set: func(_ *control.Params, load *float64, v float64) { *load = v },
	},
}

// Model renders a session. It never touches the simulator directly: snapshots
// arrive as SnapshotMsg and lifecycle changes go through the session.
type Model struct {
	sess      Session
	scene     *Scene
	snap      sim.Snapshot
	state     session.RunState
	params    control.Params
	load      float64
	history   []float64
	selected  int
	autostart bool
}

type ModelOption func(*Model)

// WithAutostart starts the session as soon as the program runs.
func WithAutostart() ModelOption {
	return func(m *Model) { m.autostart = true }
}

func NewModel(sess Session, layout config.Layout, opts ...ModelOption) Model {
	params, load := sess.Params()
	m := Model{
		sess:    sess,
		scene:   NewScene(layout, canvasCols, canvasRows),
		snap:    sess.Snapshot(),
		state:   sess.State(),
		params:  params,
		load:    load,
		history: make([]float64, 0, historyCapacity),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.scene.Draw(m.snap)
	return m
}

func (m Model) Init() tea.Cmd {
	if m.autostart {
		return m.lifecycle(m.sess.Start)
	}
	return nil
}

// lifecycle runs fn off the UI loop. Stop waits for the in-flight tick, and a
// tick may be blocked delivering its SnapshotMsg to this loop.
func (m Model) lifecycle(fn func()) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		fn()
		return lifecycleMsg{state: sess.State(), snap: sess.Snapshot()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.state == session.Running {
				return m, m.lifecycle(m.sess.Stop)
			}
			return m, m.lifecycle(m.sess.Start)
		case "r":
			return m, m.lifecycle(m.sess.Restart)
		case "tab":
			m.selected = (m.selected + 1) % len(tunables)
		case "up", "k":
			m.adjust(1)
		case "down", "j":
			m.adjust(-1)
		}
	case SnapshotMsg:
		m.observe(sim.Snapshot(msg))
	case lifecycleMsg:
		m.state = msg.state
		m.observe(msg.snap)
	}
	return m, nil
}

func (m *Model) observe(snap sim.Snapshot) {
	if snap.Tick == 0 || snap.Tick < m.snap.Tick {
		m.history = m.history[:0]
	}
	m.snap = snap
	if snap.Tick > 0 {
		if len(m.history) == historyCapacity {
			m.history = append(m.history[:0], m.history[1:]...)
		}
		m.history = append(m.history, snap.Plant.Position)
	}
	m.scene.Draw(snap)
}

// adjust moves the selected value by 10%, or by a fixed step from zero.
func (m *Model) adjust(dir float64) {
	t := tunables[m.selected]
	v := t.get(m.params, m.load)
	if v == 0 {
		v = dir * t.step
	} else {
		v += dir * adjustFactor * abs(v)
	}
	if !t.signed && v < 0 {
		v = 0
	}
	t.set(&m.params, &m.load, v)
	m.sess.Configure(m.params, m.load)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func (m Model) View() string {
	canvasView := canvasStyle.Render(m.scene.Render())

	var s strings.Builder
	s.WriteString(headerStyle.Render("PID CONTROLLER") + "\n")
	if m.state == session.Running {
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(statusStopped.Render("STOPPED") + "\n\n")
	}

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("Position"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.snap.Time)) + "\n")
	s.WriteString(labelStyle.Render("Position") + valueStyle.Render(fmt.Sprintf("%.2f", m.snap.Plant.Position)) + "\n")
	s.WriteString(labelStyle.Render("Velocity") + valueStyle.Render(fmt.Sprintf("%.2f", m.snap.Plant.Velocity)) + "\n")
	s.WriteString(labelStyle.Render("PID") + valueStyle.Render(fmt.Sprintf("%.2f", m.snap.Plant.LastControlOutput)) + "\n")
	s.WriteString(labelStyle.Render("Error") + valueStyle.Render(fmt.Sprintf("%.2f", m.snap.Error())) + "\n")

	s.WriteString("\nPARAMETERS\n")
	for i, t := range tunables {
		line := fmt.Sprintf("%-10s %g", t.name, t.get(m.params, m.load))
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Start/Stop R:Restart Q:Quit\nTab:Select  ↑↓:Tune ±10%"))
	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

// Run drives the UI until the user quits, then stops the session.
func Run(sess Session, layout config.Layout, opts ...ModelOption) error {
	p := tea.NewProgram(NewModel(sess, layout, opts...), tea.WithAltScreen())
	sess.AddObserver(sim.ObserverFunc(func(s sim.Snapshot) {
		p.Send(SnapshotMsg(s))
	}))
	_, err := p.Run()
	sess.Stop()
	return err
}
