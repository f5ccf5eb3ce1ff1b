package config

import (
	"net"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Registry represents the entire user configuration file.
// This stores user-defined metadata for devices and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by user-chosen device name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents user-defined metadata for a single Recuair unit.
// This is keyed by the user-chosen name in the Registry.
type Device struct {
	Host     string    `yaml:"host"`                // IP address or hostname
	Port     int       `yaml:"port,omitempty"`      // Optional; the firmware serves on 80
	Username string    `yaml:"username,omitempty"`  // Basic auth username, if the unit requires one
	Nickname string    `yaml:"nickname,omitempty"`  // Display name, defaults to the registry key
	Serial   string    `yaml:"serial,omitempty"`    // Serial number, filled in by discovery
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
}

// Address returns the host, with the port appended when one is configured.
func (d *Device) Address() string {
	if d.Port != 0 {
		return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	}
	return d.Host
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	TimeoutSeconds  int    `yaml:"timeout_seconds,omitempty"`  // Per-request timeout
	Retries         int    `yaml:"retries,omitempty"`          // Attempts per operation, first try included
	DefaultFormat   string `yaml:"default_format,omitempty"`   // Output format when --format is not given
	DiscoverTimeout int    `yaml:"discover_timeout,omitempty"` // mDNS discovery timeout in seconds
}

// Timeout returns the per-request timeout as a duration.
func (p *Preferences) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			TimeoutSeconds:  2,
			Retries:         3,
			DefaultFormat:   "text",
			DiscoverTimeout: 10,
		},
	}
}

// GetDevice retrieves device metadata by name.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// Resolve looks a device up by name or nickname, case-insensitively.
// Returns the registry key and the device, or false when nothing matches.
func (r *Registry) Resolve(query string) (string, *Device, bool) {
	if device, exists := r.Devices[query]; exists {
		return query, device, true
	}
	for _, name := range r.DeviceNames() {
		device := r.Devices[name]
		if strings.EqualFold(name, query) || strings.EqualFold(device.Nickname, query) {
			return name, device, true
		}
	}
	return "", nil, false
}

// EnsureDevice ensures a device entry exists in the registry.
// If the device doesn't exist, creates a new entry with default values.
// Returns the device entry (existing or newly created).
func (r *Registry) EnsureDevice(name string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[name]; exists {
		return device
	}

	device := &Device{}
	r.Devices[name] = device
	return device
}

// UpdateDeviceLastSeen updates the last seen timestamp and host for a device.
func (r *Registry) UpdateDeviceLastSeen(name, host string) {
	device := r.EnsureDevice(name)
	device.LastSeen = time.Now()
	device.Host = host
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(name, nickname string) {
	device := r.EnsureDevice(name)
	device.Nickname = nickname
}

// DeviceNames returns the registered device names in stable order.
func (r *Registry) DeviceNames() []string {
	names := make([]string, 0, len(r.Devices))
	for name := range r.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OutputFormats maps output format identifiers to descriptions.
// This is used for display and validation purposes.
var OutputFormats = map[string]string{
	"text":    "Multi-section report, one device per block",
	"compact": "One line per device",
	"json":    "Machine-readable snapshot",
}
