package watch

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ziima/recuair-cli/internal/discovery"
	"github.com/ziima/recuair-cli/internal/ui"
)

// Messages for async operations
type scanStartMsg struct{}
type scanCompleteMsg struct {
	units []*discovery.Unit
	err   error
}

// pickerKeyMap defines key bindings for the unit list
type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// manualKeyMap defines key bindings for manual host entry mode
type manualKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k manualKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k manualKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Confirm, k.Cancel},
	}
}

// scanningKeyMap defines key bindings while a scan is running
type scanningKeyMap struct {
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k scanningKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k scanningKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Manual, k.Quit},
	}
}

// unitItem wraps a Unit for use with bubbles/list
type unitItem struct {
	unit *discovery.Unit
}

// FilterValue implements list.Item; units filter by serial, address or
// hostname.
func (u unitItem) FilterValue() string {
	return u.unit.Serial + " " + u.unit.IP + " " + u.unit.Hostname
}

// Title returns the unit name for list display
func (u unitItem) Title() string {
	if u.unit.Serial == manualSerial {
		return fmt.Sprintf("Manual: %s", u.unit.IP)
	}
	return fmt.Sprintf("Recuair %s", u.unit.Serial)
}

// Description returns unit details for list display
func (u unitItem) Description() string {
	return u.unit.Address()
}

// manualSerial marks units added by hand instead of by discovery
const manualSerial = "manual"

// unitDelegate renders units as cards in the list
type unitDelegate struct {
	width int
}

func (d unitDelegate) Height() int { return 8 }

func (d unitDelegate) Spacing() int { return 1 }

func (d unitDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d unitDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(unitItem)
	if !ok {
		return
	}

	unit := entry.unit
	selected := index == m.Index()

	var content strings.Builder
	if selected {
		marker := lipgloss.NewStyle().Foreground(ui.PrimaryColor).Bold(true)
		content.WriteString(marker.Render("→ " + entry.Title()))
	} else {
		content.WriteString("  " + entry.Title())
	}
	content.WriteString("\n\n")

	content.WriteString(fmt.Sprintf("  Hostname: %s\n", unit.Hostname))
	content.WriteString(fmt.Sprintf("  Address:  %s\n", unit.Address()))
	content.WriteString(fmt.Sprintf("  Seen:     %s", unit.DiscoveredAt.Format("15:04:05")))

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.MutedColor).
		Padding(0, 2).
		MarginLeft(2)

	cardWidth := d.width - 6
	if cardWidth < ui.MinTerminalWidth-6 {
		cardWidth = ui.MinTerminalWidth - 6
	}
	if cardWidth > ui.MaxContentWidth-6 {
		cardWidth = ui.MaxContentWidth - 6
	}
	cardStyle = cardStyle.Width(cardWidth)

	if selected {
		cardStyle = cardStyle.BorderForeground(ui.PrimaryColor)
	}

	fmt.Fprint(w, cardStyle.Render(content.String()))
}

// PickerModel is the unit discovery and selection screen
type PickerModel struct {
	// Discovery state
	Scanning    bool
	UnitList    list.Model
	Selected    bool
	Err         error
	ScanTimeout time.Duration

	// Manual host entry state
	ManualMode bool
	HostInput  textinput.Model

	// UI state
	Width         int
	Height        int
	Spinner       spinner.Model
	ProgressBar   progress.Model
	ScanStartTime time.Time
	Help          help.Model
	Keys          pickerKeyMap
	ManualKeys    manualKeyMap
	ScanningKeys  scanningKeyMap
}

// NewPicker creates a unit picker that scans as soon as it starts
func NewPicker() PickerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	hostInput := textinput.New()
	hostInput.Placeholder = "192.168.1.44"
	hostInput.CharLimit = 64
	hostInput.Width = 30

	progressBar := progress.New(progress.WithDefaultGradient())
	progressBar.Width = 40

	delegate := unitDelegate{width: ui.MinTerminalWidth}
	unitList := list.New([]list.Item{}, delegate, 0, 0)
	unitList.Title = "Discovered Units"
	unitList.SetShowStatusBar(false)
	unitList.SetFilteringEnabled(true)
	unitList.Styles.Title = titleStyle

	keys := pickerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "watch"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Manual: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "manual host"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
	}

	manualKeys := manualKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}

	scanningKeys := scanningKeyMap{
		Manual: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "manual host"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}

	return PickerModel{
		UnitList:     unitList,
		ScanTimeout:  discovery.DefaultScanTimeout,
		HostInput:    hostInput,
		Spinner:      s,
		ProgressBar:  progressBar,
		Help:         help.New(),
		Keys:         keys,
		ManualKeys:   manualKeys,
		ScanningKeys: scanningKeys,
	}
}

// Init starts scanning immediately
func (m PickerModel) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		m.scanCmd(),
		m.Spinner.Tick,
	)
}

// scanCmd performs unit discovery in the background
func (m PickerModel) scanCmd() tea.Cmd {
	timeout := m.ScanTimeout
	return func() tea.Msg {
		scanner := discovery.NewScanner()
		scanner.Timeout = timeout
		units, err := scanner.ScanForUnits()
		return scanCompleteMsg{units: units, err: err}
	}
}

// Update handles messages and updates the model
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		return m.updateNormalMode(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.UnitList.SetWidth(msg.Width - 4)
		m.UnitList.SetHeight(msg.Height - 8)

	case scanStartMsg:
		m.Scanning = true
		m.ScanStartTime = time.Now()

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.units))
		for i, unit := range msg.units {
			items[i] = unitItem{unit: unit}
		}
		m.UnitList.SetItems(items)

	case spinner.TickMsg:
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if !m.ManualMode && !m.Scanning {
		m.UnitList, cmd = m.UnitList.Update(msg)
	}
	return m, cmd
}

// updateNormalMode handles keyboard input on the unit list
func (m PickerModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "esc":
		if !m.Scanning {
			return m, tea.Quit
		}

	case "enter", " ":
		if m.Scanning {
			break
		}
		if m.UnitList.SelectedItem() != nil {
			m.Selected = true
		}
		return m, nil

	case "r":
		if m.Scanning {
			break
		}
		m.UnitList.SetItems([]list.Item{})
		m.Err = nil
		return m, tea.Batch(
			func() tea.Msg { return scanStartMsg{} },
			m.scanCmd(),
			m.Spinner.Tick,
		)

	case "m":
		m.ManualMode = true
		m.HostInput.SetValue("")
		m.HostInput.Focus()
		return m, nil
	}

	// Let the list handle navigation
	var cmd tea.Cmd
	if !m.Scanning {
		m.UnitList, cmd = m.UnitList.Update(msg)
	}
	return m, cmd
}

// updateManualMode handles keyboard input during manual host entry
func (m PickerModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "ctrl+c", "esc":
		m.ManualMode = false
		m.HostInput.SetValue("")
		m.HostInput.Blur()
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.HostInput.Value())
		if value != "" {
			unit := &discovery.Unit{
				IP:           value,
				Port:         discovery.DefaultPort,
				Hostname:     value,
				Serial:       manualSerial,
				DiscoveredAt: time.Now(),
			}
			items := append([]list.Item{unitItem{unit: unit}}, m.UnitList.Items()...)
			m.UnitList.SetItems(items)
			m.UnitList.Select(0)
			m.ManualMode = false
			m.HostInput.SetValue("")
			m.HostInput.Blur()
		}
		return m, nil
	}

	m.HostInput, cmd = m.HostInput.Update(msg)
	return m, cmd
}

// SelectedUnit returns the unit the user picked, or nil
func (m PickerModel) SelectedUnit() *discovery.Unit {
	if !m.Selected {
		return nil
	}
	if item, ok := m.UnitList.SelectedItem().(unitItem); ok {
		return item.unit
	}
	return nil
}

// View renders the picker screen
func (m PickerModel) View() string {
	width := m.Width
	if width == 0 {
		width = ui.MinTerminalWidth
	}

	var content string
	switch {
	case m.ManualMode:
		content = m.renderManualEntry()
	case m.Scanning:
		content = m.renderScanning(width)
	default:
		content = m.renderResults()
	}

	var helpText string
	switch {
	case m.ManualMode:
		helpText = m.Help.View(m.ManualKeys)
	case m.Scanning:
		helpText = m.Help.View(m.ScanningKeys)
	default:
		helpText = m.Help.View(m.Keys)
	}

	return content + "\n  " + helpText + "\n"
}

// renderScanning renders the scan progress display
func (m PickerModel) renderScanning(width int) string {
	elapsed := time.Since(m.ScanStartTime)

	fraction := 1.0
	if m.ScanTimeout > 0 {
		fraction = float64(elapsed) / float64(m.ScanTimeout)
		if fraction > 1 {
			fraction = 1
		}
	}

	title := fmt.Sprintf("%s SEARCHING FOR UNITS", m.Spinner.View())
	subtitle := "Scanning your network for Recuair units..."
	elapsedText := fmt.Sprintf("Elapsed: %ds", int(elapsed.Seconds()))

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		titleStyle.Render(title),
		"",
		addressStyle.Render(subtitle),
		"",
		m.ProgressBar.ViewAs(fraction),
		"",
		addressStyle.Render(elapsedText),
		"",
	)

	return lipgloss.Place(width, 0, lipgloss.Center, lipgloss.Top, content)
}

// renderResults renders the unit list or the empty/error state
func (m PickerModel) renderResults() string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString("  " + errorStyle.Render(fmt.Sprintf("Scan failed: %v", m.Err)))
		b.WriteString("\n\n")
		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Check that your network allows multicast DNS\n")
		b.WriteString("    • Some WiFi access points block device-to-device traffic\n")
		b.WriteString("    • Use 'm' to enter a host manually\n")

	case len(m.UnitList.Items()) == 0:
		b.WriteString("  " + warningStyle.Render(ui.WarningMarker+" No units found on your network"))
		b.WriteString("\n\n")
		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Ensure the unit is powered on and connected to WiFi\n")
		b.WriteString("    • Verify your computer is on the same network as the unit\n")
		b.WriteString("    • Try again with 'r', or use 'm' to enter a host manually\n")

	default:
		b.WriteString(m.UnitList.View())
	}

	return b.String()
}

// renderManualEntry renders the manual host entry dialog
func (m PickerModel) renderManualEntry() string {
	var b strings.Builder
	b.WriteString("\n  Enter the unit's hostname or IP address\n\n")
	b.WriteString("  Host: ")
	b.WriteString(m.HostInput.View())
	b.WriteString("\n")
	return b.String()
}
