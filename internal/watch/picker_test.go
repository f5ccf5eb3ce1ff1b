package watch

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ziima/recuair-cli/internal/discovery"
)

func testUnit() *discovery.Unit {
	return &discovery.Unit{
		Serial:       "r2000-0451",
		Hostname:     "recuair-r2000-0451.local",
		IP:           "192.168.1.44",
		Port:         80,
		DiscoveredAt: time.Date(2024, 5, 14, 12, 30, 0, 0, time.UTC),
	}
}

func TestNewPicker_Defaults(t *testing.T) {
	m := NewPicker()

	if m.Scanning {
		t.Error("picker should not report scanning before the start message")
	}
	if m.ScanTimeout != discovery.DefaultScanTimeout {
		t.Errorf("ScanTimeout = %v, want %v", m.ScanTimeout, discovery.DefaultScanTimeout)
	}
	if m.Selected {
		t.Error("picker should start with nothing selected")
	}
}

func TestPicker_ScanLifecycle(t *testing.T) {
	m := NewPicker()

	updated, _ := m.Update(scanStartMsg{})
	m = updated.(PickerModel)
	if !m.Scanning {
		t.Error("scan start message should set scanning state")
	}

	updated, _ = m.Update(scanCompleteMsg{units: []*discovery.Unit{testUnit()}})
	m = updated.(PickerModel)
	if m.Scanning {
		t.Error("scan complete message should clear scanning state")
	}
	if got := len(m.UnitList.Items()); got != 1 {
		t.Errorf("list items = %d, want 1", got)
	}
}

func TestPicker_SelectUnit(t *testing.T) {
	m := NewPicker()

	updated, _ := m.Update(scanCompleteMsg{units: []*discovery.Unit{testUnit()}})
	m = updated.(PickerModel)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(PickerModel)

	if !m.Selected {
		t.Fatal("enter should select the highlighted unit")
	}
	unit := m.SelectedUnit()
	if unit == nil {
		t.Fatal("SelectedUnit() = nil after selection")
	}
	if unit.Serial != "r2000-0451" {
		t.Errorf("selected serial = %q, want %q", unit.Serial, "r2000-0451")
	}
}

func TestPicker_EnterWithEmptyListSelectsNothing(t *testing.T) {
	m := NewPicker()

	updated, _ := m.Update(scanCompleteMsg{})
	m = updated.(PickerModel)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(PickerModel)

	if m.Selected {
		t.Error("enter on an empty list should not select anything")
	}
	if m.SelectedUnit() != nil {
		t.Error("SelectedUnit() should be nil for an empty list")
	}
}

func TestPicker_ManualEntry(t *testing.T) {
	m := NewPicker()

	updated, _ := m.Update(scanCompleteMsg{})
	m = updated.(PickerModel)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	m = updated.(PickerModel)
	if !m.ManualMode {
		t.Fatal("'m' should enter manual host entry mode")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("10.0.0.9")})
	m = updated.(PickerModel)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(PickerModel)

	if m.ManualMode {
		t.Error("confirming a host should leave manual mode")
	}
	items := m.UnitList.Items()
	if len(items) != 1 {
		t.Fatalf("list items = %d, want 1", len(items))
	}
	unit := items[0].(unitItem).unit
	if unit.IP != "10.0.0.9" {
		t.Errorf("manual unit IP = %q, want %q", unit.IP, "10.0.0.9")
	}
	if unit.Serial != manualSerial {
		t.Errorf("manual unit serial = %q, want %q", unit.Serial, manualSerial)
	}
}

func TestPicker_ManualEntryCancel(t *testing.T) {
	m := NewPicker()

	updated, _ := m.Update(scanCompleteMsg{})
	m = updated.(PickerModel)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	m = updated.(PickerModel)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(PickerModel)

	if m.ManualMode {
		t.Error("esc should cancel manual entry")
	}
	if len(m.UnitList.Items()) != 0 {
		t.Error("cancelled entry should not add a unit")
	}
}

func TestPicker_ScanErrorView(t *testing.T) {
	m := NewPicker()

	updated, _ := m.Update(scanCompleteMsg{err: errors.New("mdns browse failed")})
	m = updated.(PickerModel)

	view := m.View()
	if !strings.Contains(view, "Scan failed") {
		t.Errorf("view missing scan error, got:\n%s", view)
	}
	if !strings.Contains(view, "multicast DNS") {
		t.Errorf("view missing troubleshooting hints, got:\n%s", view)
	}
}

func TestPicker_NoUnitsView(t *testing.T) {
	m := NewPicker()

	updated, _ := m.Update(scanCompleteMsg{})
	m = updated.(PickerModel)

	view := m.View()
	if !strings.Contains(view, "No units found") {
		t.Errorf("view missing empty state, got:\n%s", view)
	}
}

func TestPicker_ScanningView(t *testing.T) {
	m := NewPicker()

	updated, _ := m.Update(scanStartMsg{})
	m = updated.(PickerModel)

	view := m.View()
	if !strings.Contains(view, "SEARCHING FOR UNITS") {
		t.Errorf("view missing scan banner, got:\n%s", view)
	}
}

func TestPicker_QuitKey(t *testing.T) {
	m := NewPicker()

	updated, _ := m.Update(scanCompleteMsg{})
	m = updated.(PickerModel)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("quit key returned nil command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("quit key command returned %T, want tea.QuitMsg", cmd())
	}
}
