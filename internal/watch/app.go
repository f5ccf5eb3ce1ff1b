package watch

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenPicker Screen = "picker"
	ScreenWatch  Screen = "watch"
)

// ClientFactory builds a status fetcher for a unit address the user
// picked on the discovery screen.
type ClientFactory func(address string) (StatusFetcher, error)

// App is the top-level model when watch starts without a device
// argument: a discovery picker first, then the live status screen for
// the picked unit. Esc on the status screen goes back to the picker.
type App struct {
	// Current screen state
	CurrentScreen Screen

	// Screen models
	Picker PickerModel
	Watch  Model

	// Factory builds the client for a picked unit
	Factory ClientFactory

	// Interval is the refresh interval for the status screen
	Interval time.Duration

	// UI state
	Width  int
	Height int
}

// NewApp creates an application model starting at the picker screen
func NewApp(factory ClientFactory, interval time.Duration) App {
	return App{
		CurrentScreen: ScreenPicker,
		Picker:        NewPicker(),
		Factory:       factory,
		Interval:      interval,
	}
}

// Init initializes the starting screen
func (m App) Init() tea.Cmd {
	return m.Picker.Init()
}

// Update handles messages and routes them to the active screen
func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		// Propagate to both screens
		updatedPicker, _ := m.Picker.Update(msg)
		m.Picker = updatedPicker.(PickerModel)
		updatedWatch, _ := m.Watch.Update(msg)
		m.Watch = updatedWatch.(Model)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			// Esc leaves the status screen for the picker; the picker
			// handles its own esc.
			if m.CurrentScreen == ScreenWatch {
				return m.goBack()
			}
		}
	}

	return m.updateCurrentScreen(msg)
}

// updateCurrentScreen routes updates to the currently active screen
func (m App) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.CurrentScreen {
	case ScreenPicker:
		updated, cmd := m.Picker.Update(msg)
		m.Picker = updated.(PickerModel)

		if unit := m.Picker.SelectedUnit(); unit != nil {
			return m.openWatch(unit.Address())
		}
		return m, cmd

	case ScreenWatch:
		updated, cmd := m.Watch.Update(msg)
		m.Watch = updated.(Model)
		return m, cmd
	}

	return m, nil
}

// openWatch transitions to the status screen for the given address
func (m App) openWatch(address string) (tea.Model, tea.Cmd) {
	fetcher, err := m.Factory(address)
	if err != nil {
		// Stay on the picker and show the problem there.
		m.Picker.Selected = false
		m.Picker.Err = err
		return m, nil
	}

	m.Watch = New(fetcher, address, m.Interval)
	if m.Width > 0 {
		updated, _ := m.Watch.Update(tea.WindowSizeMsg{Width: m.Width, Height: m.Height})
		m.Watch = updated.(Model)
	}
	m.CurrentScreen = ScreenWatch
	return m, m.Watch.Init()
}

// goBack returns to the picker and starts a fresh scan
func (m App) goBack() (tea.Model, tea.Cmd) {
	m.Picker = NewPicker()
	m.CurrentScreen = ScreenPicker
	if m.Width > 0 {
		updated, _ := m.Picker.Update(tea.WindowSizeMsg{Width: m.Width, Height: m.Height})
		m.Picker = updated.(PickerModel)
	}
	return m, m.Picker.Init()
}

// View renders the current screen
func (m App) View() string {
	switch m.CurrentScreen {
	case ScreenPicker:
		return m.Picker.View()
	case ScreenWatch:
		return m.Watch.View()
	default:
		return ""
	}
}
