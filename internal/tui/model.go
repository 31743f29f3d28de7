package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	trafficapp "github.com/skobkin/trafficview/internal/app"
	"github.com/skobkin/trafficview/internal/bus"
	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/device"
	"github.com/skobkin/trafficview/internal/domain"
	"github.com/skobkin/trafficview/internal/render"
)

// Options wires the terminal view to a running session.
type Options struct {
	Animator      *render.Animator
	Bus           bus.MessageBus
	FrameRate     int
	InitialStatus connectors.ConnectionStatus
	Stats         func() device.Stats
	Connect       func() error
	Disconnect    func() error
}

type frameMsg render.Frame

type busMsg struct {
	payload any
	closed  bool
}

type actionDoneMsg struct {
	action string
	err    error
}

// Model is the bubbletea model of the terminal traffic light.
type Model struct {
	opts     Options
	interval time.Duration
	sub      bus.Subscription

	frame   render.Frame
	status  connectors.ConnectionStatus
	failure *connectors.DecodeFailure
	err     error
	stats   device.Stats

	bars  [len(render.AllSignals)]progress.Model
	help  help.Model
	keys  keyMap
	width int
}

// NewModel subscribes to status and decode failures on opts.Bus. Call Close
// once the program has exited.
func NewModel(opts Options) Model {
	rate := opts.FrameRate
	if rate <= 0 {
		rate = render.DefaultFrameRate
	}

	m := Model{
		opts:     opts,
		interval: time.Second / time.Duration(rate),
		status:   opts.InitialStatus,
		help:     help.New(),
		keys:     defaultKeyMap(),
	}
	for i, signal := range render.AllSignals {
		bar := progress.New(progress.WithSolidFill(hueHex(signal)), progress.WithoutPercentage())
		bar.Width = barWidth
		m.bars[i] = bar
	}
	if opts.Animator != nil {
		m.frame = opts.Animator.Peek()
	}
	if opts.Bus != nil {
		m.sub = opts.Bus.Subscribe(connectors.TopicConnStatus, connectors.TopicDecodeFailure)
	}

	return m
}

// Close drops the bus subscription.
func (m Model) Close() {
	if m.opts.Bus == nil || m.sub == nil {
		return
	}
	bus.Release(m.opts.Bus, m.sub, connectors.TopicConnStatus, connectors.TopicDecodeFailure)
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitForEvent())
}

func (m Model) tick() tea.Cmd {
	animator := m.opts.Animator
	if animator == nil {
		return nil
	}

	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return frameMsg(animator.Tick())
	})
}

func (m Model) waitForEvent() tea.Cmd {
	sub := m.sub
	if sub == nil {
		return nil
	}

	return func() tea.Msg {
		raw, ok := <-sub
		if !ok {
			return busMsg{closed: true}
		}

		return busMsg{payload: raw}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case frameMsg:
		m.frame = render.Frame(msg)
		if m.opts.Stats != nil {
			m.stats = m.opts.Stats()
		}
		return m, m.tick()

	case busMsg:
		if msg.closed {
			return m, nil
		}
		switch event := msg.payload.(type) {
		case connectors.ConnectionStatus:
			m.status = event
		case connectors.DecodeFailure:
			m.failure = &event
		}
		return m, m.waitForEvent()

	case actionDoneMsg:
		m.err = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Connect):
			return m, m.toggleConnection()
		}
	}

	return m, nil
}

func (m Model) toggleConnection() tea.Cmd {
	name, action := "connect", m.opts.Connect
	if sessionActive(m.status) {
		name, action = "disconnect", m.opts.Disconnect
	}
	if action == nil {
		return nil
	}

	return func() tea.Msg {
		return actionDoneMsg{action: name, err: action()}
	}
}

func sessionActive(status connectors.ConnectionStatus) bool {
	return status.State == connectors.ConnectionStateConnecting || status.State == connectors.ConnectionStateConnected
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(trafficapp.DisplayName + " " + trafficapp.BuildVersion()))
	b.WriteString("\n")
	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.lampsView())
	b.WriteString("\n\n")
	b.WriteString(m.barsView())
	b.WriteString("\n")
	b.WriteString(trafficapp.ConnectionStatusText(m.status))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(fmt.Sprintf(
		"Lines: %d  States: %d  Decode errors: %d",
		m.stats.Lines, m.stats.States, m.stats.DecodeErrors,
	)))
	b.WriteString("\n")
	if m.failure != nil {
		b.WriteString(subtleStyle.Render(fmt.Sprintf("Last rejected line (%s): %s", m.failure.Kind, m.failure.Line)))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) headerView() string {
	if !m.frame.HasState {
		return "Waiting for device data"
	}

	return fmt.Sprintf("Mode: %s  Light: %s", orDash(m.frame.State.Mode), orDash(m.frame.State.Light))
}

func (m Model) lampsView() string {
	lamps := make([]string, 0, len(render.AllSignals)*2)
	for i, signal := range render.AllSignals {
		if i > 0 {
			lamps = append(lamps, lipgloss.NewStyle().Background(housingColor).Width(2).Height(lampHeight).Render(""))
		}
		lamps = append(lamps, lampStyle(m.frame.Visual.Slot(signal)).Render(""))
	}

	return housingStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, lamps...))
}

// barsView shows the reported brightness once per lamp, like the
// read-only sliders of the desktop view.
func (m Model) barsView() string {
	percent := 0.0
	if m.frame.HasState {
		percent = float64(min(max(m.frame.State.Brightness, 0), domain.MaxBrightness)) / domain.MaxBrightness
	}

	rows := make([]string, 0, len(render.AllSignals))
	for i, signal := range render.AllSignals {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(signalTitle(signal)),
			m.bars[i].ViewAs(percent),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func signalTitle(signal render.Signal) string {
	name := signal.String()
	if name == "" {
		return name
	}

	return strings.ToUpper(name[:1]) + name[1:]
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}

	return value
}
