package device

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ziima/recuair-cli/internal/statuspage"
)

// Summary returns a one-line summary of the device state
func Summary(snap *statuspage.Snapshot) string {
	state := "stopped"
	if snap.Running() {
		state = "running"
	}
	return fmt.Sprintf("%s [%s] %s, filter %d%% used, fan %d%%, light %d",
		snap.Name, snap.Mode, state, snap.FilterUsed, snap.Fan, snap.Light)
}

// FormatDetailed returns a full multi-section report of the device state
func FormatDetailed(snap *statuspage.Snapshot) string {
	var b strings.Builder

	b.WriteString("=== Device ===\n")
	b.WriteString(fmt.Sprintf("Name:    %s\n", snap.Name))
	b.WriteString(fmt.Sprintf("Address: %s\n", snap.Device))
	b.WriteString(fmt.Sprintf("Mode:    %s\n", snap.Mode))
	b.WriteString("\n")

	b.WriteString("=== Climate ===\n")
	b.WriteString(fmt.Sprintf("Inside:  %s / %s\n",
		FormatQuantity(snap.TemperatureIn, " °C"),
		FormatQuantity(snap.HumidityIn, " %")))
	b.WriteString(fmt.Sprintf("Outside: %s\n", FormatQuantity(snap.TemperatureOut, " °C")))
	b.WriteString(fmt.Sprintf("CO2:     %s\n", FormatQuantity(snap.CO2PPM, " ppm")))
	b.WriteString("\n")

	b.WriteString("=== Unit ===\n")
	b.WriteString(fmt.Sprintf("Filter used: %d %%\n", snap.FilterUsed))
	b.WriteString(fmt.Sprintf("Fan output:  %d %%\n", snap.Fan))
	b.WriteString(fmt.Sprintf("Light:       %d\n", snap.Light))

	if len(snap.Warnings) > 0 {
		b.WriteString("\n=== Warnings ===\n")
		for _, warning := range snap.Warnings {
			b.WriteString(fmt.Sprintf("  ! %s\n", warning))
		}
	}

	if len(snap.Extra) > 0 {
		b.WriteString("\n=== Device Info ===\n")
		for _, key := range sortedKeys(snap.Extra) {
			b.WriteString(fmt.Sprintf("%-8s %s\n", key+":", snap.Extra[key]))
		}
	}

	return b.String()
}

// FormatCompact returns a single-line format suitable for listing
// several devices
func FormatCompact(snap *statuspage.Snapshot) string {
	warn := ""
	if n := len(snap.Warnings); n > 0 {
		warn = fmt.Sprintf(" [%d warning(s)]", n)
	}
	return fmt.Sprintf("%-16s %-8s in %s / %s  out %s  CO2 %s  filter %d%%  fan %d%%  light %d%s",
		snap.Name, snap.Mode,
		FormatQuantity(snap.TemperatureIn, "°C"),
		FormatQuantity(snap.HumidityIn, "%"),
		FormatQuantity(snap.TemperatureOut, "°C"),
		FormatQuantity(snap.CO2PPM, "ppm"),
		snap.FilterUsed, snap.Fan, snap.Light, warn)
}

// FormatQuantity renders an optional sensor reading with its unit. A
// stopped unit reports no readings; those render as a dash, matching
// the device's own display.
func FormatQuantity(v *int, unit string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d%s", *v, unit)
}

// sortedKeys returns map keys in stable order so output is
// deterministic
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
