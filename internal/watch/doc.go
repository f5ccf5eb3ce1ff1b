// Package watch implements the live status screen.
//
// The screen polls a unit's status page on a fixed interval and renders
// the readings as they change, keeping at most one request in flight.
// When a refresh fails the last known state stays on screen with a
// short error line above it, so a flaky WiFi link doesn't blank the
// display.
//
// # Usage
//
//	client, err := device.NewClient("192.168.1.44")
//	if err != nil {
//		return err
//	}
//	model := watch.New(client, "192.168.1.44", 5*time.Second)
//	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
//
// Press "r" to refresh immediately, "q" to leave.
//
// # Picking a unit first
//
// NewApp wraps the status screen with a discovery picker: it scans the
// network, lists the units it finds (plus manual host entry on "m"),
// and opens the status screen for the picked one. Esc on the status
// screen returns to the picker.
package watch
