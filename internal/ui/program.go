package ui

import (
	"fmt"
	"io"
	"os"
)

// Printer provides methods for printing UI components to a writer.
// This is the primary way commands should output styled content.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(NewHeader(title, command, params).SetWidth(p.width).Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.Println(NewSuccessResult(title, details).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details map[string]string) {
	p.Println(NewWarningResult(title, details).SetWidth(p.width).Render())
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// Package-level convenience functions for commands that write to stdout.

// PrintCommandHeader prints a styled header box for a command
func PrintCommandHeader(title, command string, params map[string]string) {
	NewPrinter(nil).PrintHeader(title, command, params)
}

// PrintSuccess prints a success result box
func PrintSuccess(title string, details map[string]string) {
	NewPrinter(nil).PrintSuccess(title, details)
}

// PrintWarning prints a warning result box
func PrintWarning(title string, details map[string]string) {
	NewPrinter(nil).PrintWarning(title, details)
}

// PrintFailure prints a failure result box with troubleshooting tips
func PrintFailure(title string, err error, troubleshooting []string) {
	NewPrinter(nil).PrintError(title, err, troubleshooting)
}
