package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ziima/recuair-cli/internal/device"
	"github.com/ziima/recuair-cli/internal/statuspage"
	"github.com/ziima/recuair-cli/internal/ui"
)

// DefaultInterval is how often the view refreshes the status page.
const DefaultInterval = 5 * time.Second

// StatusFetcher fetches a fresh snapshot from a unit. *device.Client
// satisfies this.
type StatusFetcher interface {
	RefreshStatus(ctx context.Context) (*statuspage.Snapshot, error)
}

// Messages for async operations
type tickMsg time.Time
type statusMsg struct {
	snap *statuspage.Snapshot
	err  error
}

// keyMap defines key bindings for the watch screen
type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Refresh, k.Quit},
	}
}

// Styles local to the watch screen, built on the shared palette
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ui.TextColor).
			Background(ui.PrimaryColor).
			Bold(true).
			Padding(0, 1)

	addressStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor).
			Width(13)

	valueStyle = lipgloss.NewStyle().
			Foreground(ui.TextColor)

	warningStyle = lipgloss.NewStyle().
			Foreground(ui.WarningColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(ui.ErrorColor)

	footerStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor)
)

// Model is the live status screen for a single unit
type Model struct {
	fetcher  StatusFetcher
	device   string
	interval time.Duration

	snap       *statuspage.Snapshot
	err        error
	fetching   bool
	lastUpdate time.Time

	width   int
	height  int
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	quitting bool
}

// New creates a watch model polling the given fetcher
func New(fetcher StatusFetcher, deviceAddr string, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultInterval
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	keys := keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	return Model{
		fetcher:  fetcher,
		device:   deviceAddr,
		interval: interval,
		fetching: true,
		spinner:  s,
		help:     help.New(),
		keys:     keys,
	}
}

// Init starts the first fetch and the spinner
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.spinner.Tick)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if !m.fetching {
				m.fetching = true
				return m, m.fetchCmd()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if !m.fetching {
			m.fetching = true
			return m, m.fetchCmd()
		}

	case statusMsg:
		m.fetching = false
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
			m.lastUpdate = time.Now()
		}
		return m, m.scheduleTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// fetchCmd fetches a fresh snapshot in the background
func (m Model) fetchCmd() tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		snap, err := fetcher.RefreshStatus(context.Background())
		return statusMsg{snap: snap, err: err}
	}
}

// scheduleTick arms the next refresh
func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// View renders the live status screen
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	// Header: unit name and address
	name := m.device
	if m.snap != nil && m.snap.Name != "" {
		name = m.snap.Name
	}
	b.WriteString("\n  ")
	b.WriteString(titleStyle.Render(name))
	b.WriteString("  ")
	b.WriteString(addressStyle.Render(m.device))
	b.WriteString("\n\n")

	switch {
	case m.snap == nil && m.err == nil:
		b.WriteString("  " + m.spinner.View() + " Contacting unit...\n")

	case m.err != nil:
		b.WriteString("  " + errorStyle.Render(device.GetShortErrorMessage(m.err)) + "\n")
		if m.snap != nil {
			b.WriteString(addressStyle.Render("  showing last known state\n"))
			b.WriteString("\n")
			b.WriteString(m.renderReadings())
		}

	default:
		b.WriteString(m.renderReadings())
	}

	// Footer: last update time and help
	b.WriteString("\n")
	if !m.lastUpdate.IsZero() {
		status := fmt.Sprintf("  updated %s", m.lastUpdate.Format("15:04:05"))
		if m.fetching {
			status += "  " + m.spinner.View()
		}
		b.WriteString(footerStyle.Render(status))
		b.WriteString("\n")
	}
	b.WriteString("  " + m.help.View(m.keys) + "\n")

	return b.String()
}

// renderReadings renders the snapshot rows
func (m Model) renderReadings() string {
	snap := m.snap
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	state := "stopped"
	if snap.Running() {
		state = "running"
	}
	row("Mode", fmt.Sprintf("%s (%s)", snap.Mode, state))
	row("Inside", fmt.Sprintf("%s / %s",
		device.FormatQuantity(snap.TemperatureIn, " °C"),
		device.FormatQuantity(snap.HumidityIn, " %")))
	row("Outside", device.FormatQuantity(snap.TemperatureOut, " °C"))
	row("CO2", device.FormatQuantity(snap.CO2PPM, " ppm"))
	row("Filter used", fmt.Sprintf("%d %%", snap.FilterUsed))
	row("Fan output", fmt.Sprintf("%d %%", snap.Fan))
	row("Light", fmt.Sprintf("%d", snap.Light))

	for _, warning := range snap.Warnings {
		b.WriteString("  ")
		b.WriteString(warningStyle.Render(ui.WarningMarker + " " + warning))
		b.WriteString("\n")
	}

	return b.String()
}
