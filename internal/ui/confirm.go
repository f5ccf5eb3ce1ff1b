package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm displays a warning box and prompts the user with a y/N question.
// Returns true only when the user answers yes.
func Confirm(title string, warnings []string) bool {
	width := GetTerminalWidth()
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var lines []string

	// Title with warning marker
	titleLine := WarningTextStyle.Render(fmt.Sprintf("   %s  %s", WarningMarker, title))
	lines = append(lines, "")
	lines = append(lines, titleLine)
	lines = append(lines, "")

	// Warning bullet points
	for _, warning := range warnings {
		bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	content := strings.Join(lines, "\n")
	fmt.Println(WarningBoxStyle(width).Render(content))
	fmt.Println()

	// Prompt for confirmation
	fmt.Print(WarningTextStyle.Render("Proceed? [y/N]: "))

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println()
		return false
	}

	input = strings.ToLower(strings.TrimSpace(input))
	if input == "y" || input == "yes" {
		fmt.Println()
		return true
	}

	fmt.Println()
	cancelStyle := lipgloss.NewStyle().Foreground(MutedColor)
	fmt.Println(cancelStyle.Render("  Operation cancelled."))
	fmt.Println()
	return false
}

// ResetFiltersConfirmation is a pre-configured confirmation for clearing
// the filter change notification.
func ResetFiltersConfirmation(deviceName string) bool {
	return Confirm(
		"RESET FILTER NOTIFICATION",
		[]string{
			fmt.Sprintf("This clears the filter change notification on %s", deviceName),
			"Only do this after actually replacing the filters",
			"The unit starts counting filter usage from zero again",
		},
	)
}
