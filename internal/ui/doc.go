// Package ui provides terminal UI components for the recuair CLI.
//
// This package uses Lipgloss to render styled terminal output for device
// commands. These components follow a "render once and exit" pattern -
// the interactive live view lives in the watch package.
//
// # Components
//
//   - Header: Command banner showing operation name and parameters
//   - Result: Success/failure/warning boxes with styled information
//   - Confirm: Warning box with a y/N prompt for destructive operations
//   - Printer: Writer-bound convenience wrapper around the above
//
// # Usage Pattern
//
// Commands create a Printer once and push boxes through it:
//
//	printer := ui.NewPrinter(os.Stdout)
//	printer.PrintHeader("Unit Discovery", "recuair-cli scan",
//	    map[string]string{"Timeout": "10s"})
//
//	// ... do work ...
//
//	printer.PrintSuccess("Scan complete", map[string]string{
//	    "Units found": "2",
//	})
//
// All detail and parameter maps render in sorted key order, so output is
// deterministic and scriptable through stable greps.
//
// # Logging Integration
//
// This package expects logging to be controlled via the RECUAIR_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the curated UI output to be displayed cleanly.
package ui
