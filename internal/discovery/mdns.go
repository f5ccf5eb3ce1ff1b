package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type for Recuair units.
	// The units advertise their web interface as "_http._tcp" services
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for unit discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the default HTTP port for Recuair units
	DefaultPort = 80
)

// serialPattern matches Recuair unit hostnames (e.g., "recuair-r2000-0451.local")
var serialPattern = regexp.MustCompile(`(?i)^recuair-([0-9a-z][0-9a-z-]*)\.local\.?$`)

// Scanner handles mDNS unit discovery
type Scanner struct {
	// Timeout is the maximum time to wait for unit discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForUnits discovers all Recuair units on the local network
// Returns a list of discovered units or an error
func (s *Scanner) ScanForUnits() ([]*Unit, error) {
	return s.ScanForUnitsWithContext(context.Background())
}

// ScanForUnitsWithContext discovers units with a custom context
func (s *Scanner) ScanForUnitsWithContext(ctx context.Context) ([]*Unit, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	units := make([]*Unit, 0)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Collect entries in a goroutine; the resolver closes the channel
	// when browsing stops, so done marks the slice complete.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			unit := s.parseServiceEntry(entry)
			if unit != nil {
				units = append(units, unit)
			}
		}
	}()

	// Start browsing for HTTP services
	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for the timeout, then for the collector to drain
	<-ctx.Done()
	<-done

	return units, nil
}

// WaitForUnit waits for a specific unit by serial number
// Returns the unit or an error if not found within timeout
func (s *Scanner) WaitForUnit(serial string) (*Unit, error) {
	return s.WaitForUnitWithContext(context.Background(), serial)
}

// WaitForUnitWithContext waits for a specific unit with a custom context
func (s *Scanner) WaitForUnitWithContext(ctx context.Context, serial string) (*Unit, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	unitChan := make(chan *Unit, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			unit := s.parseServiceEntry(entry)
			if unit != nil && strings.EqualFold(unit.Serial, serial) {
				unitChan <- unit
				cancel() // Found the unit, cancel context
				return
			}
		}
	}()

	// Start browsing for HTTP services
	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for unit or timeout
	select {
	case unit := <-unitChan:
		return unit, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("unit with serial %s not found within timeout", serial)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Unit
// Returns nil if the entry is not a Recuair unit
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Unit {
	// Check if hostname matches the Recuair pattern (recuair-{serial}.local)
	hostname := entry.HostName
	if hostname == "" {
		return nil
	}

	matches := serialPattern.FindStringSubmatch(hostname)
	if len(matches) < 2 {
		return nil
	}

	serial := strings.ToLower(matches[1])

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	// Get port (default to 80 if not specified)
	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	return &Unit{
		Serial:       serial,
		Hostname:     hostname,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
