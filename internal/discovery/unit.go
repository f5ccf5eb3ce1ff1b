package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Unit represents a discovered Recuair unit on the network
type Unit struct {
	// Serial is the unit serial number (e.g., "r2000-0451")
	Serial string

	// Hostname is the mDNS hostname (e.g., "recuair-r2000-0451.local")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.1.44")
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the unit was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the unit
func (u *Unit) String() string {
	return fmt.Sprintf("Recuair unit %s (%s) at %s:%d", u.Serial, u.Hostname, u.IP, u.Port)
}

// Address returns the unit's address in the form the status client
// accepts: the bare IP, with the port appended when it is not 80.
func (u *Unit) Address() string {
	if u.Port != 0 && u.Port != DefaultPort {
		return net.JoinHostPort(u.IP, strconv.Itoa(u.Port))
	}
	return u.IP
}

// BaseURL returns the HTTP base URL for the unit
func (u *Unit) BaseURL() string {
	return "http://" + u.Address()
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (u *Unit) GetMetadata(key string) string {
	if u.Metadata == nil {
		return ""
	}
	return u.Metadata[key]
}
