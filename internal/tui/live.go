// Package tui is the terminal live monitor. It polls the snapshot channel at
// display rate and never slows the simulation down.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/barmaleii77-hub/pneumostab/internal/rig"
	"github.com/barmaleii77-hub/pneumostab/internal/sim"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

const (
	frameInterval = 50 * time.Millisecond
	historyLen    = 120
)

type frameMsg time.Time

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Model drives the live view. Construct with NewModel and hand to
// tea.NewProgram.
type Model struct {
	mgr *sim.Manager

	snap     *sim.StateSnapshot
	pressure []float64 // receiver pressure history, kPa
	angle    []float64 // front-left lever angle history, mrad

	width  int
	height int
	err    error
}

func NewModel(mgr *sim.Manager) *Model {
	return &Model{
		mgr:      mgr,
		pressure: make([]float64, 0, historyLen),
		angle:    make([]float64, 0, historyLen),
		width:    80,
		height:   24,
	}
}

func (m *Model) Init() tea.Cmd { return frame() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case frameMsg:
		if snap, ok := m.mgr.Snapshots().TryGetLatest(); ok {
			if m.snap == nil || snap.Step != m.snap.Step {
				m.snap = snap
				m.push(&m.pressure, snap.ReceiverPressure/1000)
				m.push(&m.angle, snap.Corners[rig.FrontLeft].Angle*1000)
			}
		}
		return m, frame()
	}
	return m, nil
}

func (m *Model) push(hist *[]float64, v float64) {
	*hist = append(*hist, v)
	if len(*hist) > historyLen {
		*hist = (*hist)[1:]
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.err = m.mgr.Stop()
		return m, tea.Quit
	case " ":
		m.mgr.Pause(m.mgr.State() == sim.Running)
	case "s":
		switch m.mgr.State() {
		case sim.Stopped:
			m.err = m.mgr.Start()
		default:
			m.err = m.mgr.Stop()
		}
	case "r":
		if m.err = m.mgr.Reset(); m.err == nil {
			m.snap = nil
			m.pressure = m.pressure[:0]
			m.angle = m.angle[:0]
			m.err = m.mgr.Start()
		}
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder

	stats := m.mgr.Stats()
	b.WriteString(cyan.Render("pneumostab") + "  " + m.stateBadge() + "\n")
	b.WriteString(dim.Render(fmt.Sprintf(
		"t=%.3fs  ticks=%d  faults=%d  overruns=%d  step=%s",
		stats.SimTime, stats.Ticks, stats.Faults, stats.Overruns,
		stats.MeanStepDuration.Round(time.Microsecond))) + "\n\n")

	if m.snap == nil {
		b.WriteString(dim.Render("waiting for first snapshot  (s start, space pause, r reset, q quit)"))
		return b.String()
	}

	b.WriteString(m.cornerTable())
	b.WriteString("\n")

	if len(m.pressure) > 1 {
		b.WriteString(asciigraph.Plot(m.pressure,
			asciigraph.Height(6),
			asciigraph.Width(min(m.width-12, 90)),
			asciigraph.Caption("receiver pressure, kPa")))
		b.WriteString("\n\n")
	}
	if len(m.angle) > 1 {
		b.WriteString(asciigraph.Plot(m.angle,
			asciigraph.Height(6),
			asciigraph.Width(min(m.width-12, 90)),
			asciigraph.Caption("front-left lever angle, mrad")))
		b.WriteString("\n")
	}

	b.WriteString("\n" + dim.Render("s start/stop   space pause   r reset   q quit"))
	if m.err != nil {
		b.WriteString("\n" + red.Render(m.err.Error()))
	}
	return b.String()
}

func (m *Model) stateBadge() string {
	switch m.mgr.State() {
	case sim.Running:
		return green.Render("running")
	case sim.Paused:
		return yellow.Render("paused")
	default:
		return dim.Render("stopped")
	}
}

func (m *Model) cornerTable() string {
	var b strings.Builder
	b.WriteString(dim.Render(fmt.Sprintf("%-12s %10s %10s %10s %10s %10s\n",
		"corner", "angle", "omega", "piston", "p_head", "p_rod")))
	for _, c := range rig.Corners() {
		cs := m.snap.Corners[c]
		b.WriteString(fmt.Sprintf("%-12s %9.2f° %8.3f/s %8.1fmm %8.1fkPa %8.1fkPa\n",
			c.String(),
			cs.Angle*180/math.Pi,
			cs.AngularVelocity,
			cs.PistonPosition*1000,
			cs.HeadPressure/1000,
			cs.RodPressure/1000))
	}
	return b.String()
}
