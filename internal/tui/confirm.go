package tui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmDangerousOperation displays a warning box and prompts the user
// to type "I AGREE" to proceed. Returns true only on an exact match.
func ConfirmDangerousOperation(title string, warnings []string) bool {
	width := GetTerminalWidth()

	var lines []string

	titleLine := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true).
		Render(fmt.Sprintf("   %s  WARNING  -  %s", WarningMarker, title))
	lines = append(lines, "", titleLine, "")

	for _, warning := range warnings {
		lines = append(lines, ValueStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	fmt.Println(box)
	fmt.Println()

	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	fmt.Print(promptStyle.Render("To proceed, type \"I AGREE\" and press Enter: "))

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println()
		return false
	}

	if strings.TrimSpace(input) == "I AGREE" {
		fmt.Println()
		return true
	}

	fmt.Println()
	fmt.Println(MutedStyle.Render("  Operation cancelled."))
	fmt.Println()
	return false
}

// FactoryResetConfirmation is the pre-configured prompt for wiping the
// device configuration from the CLI
func FactoryResetConfirmation(configPath string) bool {
	return ConfirmDangerousOperation(
		"FACTORY RESET",
		[]string{
			"This deletes the device configuration at " + configPath,
			"WiFi and MQTT credentials will be lost",
			"The node will boot into configuration mode on its next wake",
		},
	)
}
