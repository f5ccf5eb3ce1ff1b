// Package config provides user configuration management for the recuair CLI.
//
// This package manages a YAML-based configuration file that stores named
// Recuair units and application preferences, so commands can say "bedroom"
// instead of an IP address. The configuration follows OS-specific
// conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/recuair/config.yaml or $HOME/.config/recuair/config.yaml
//   - macOS: $HOME/.config/recuair/config.yaml
//   - Windows: %LOCALAPPDATA%\recuair\config.yaml
//
// Setting RECUAIR_CONFIG overrides the location entirely.
//
// # Security
//
// IMPORTANT: This package NEVER stores device passwords. Units that require
// authentication get their password from the RECUAIR_PASSWORD environment
// variable or the --password flag at invocation time.
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Add or update device metadata
//	device := registry.EnsureDevice("bedroom")
//	device.Host = "192.168.1.44"
//	device.Nickname = "Master Bedroom"
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
