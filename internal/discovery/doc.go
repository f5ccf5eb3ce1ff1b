// Package discovery provides mDNS-based discovery of Recuair units.
//
// This package implements multicast DNS (mDNS) service discovery to
// automatically locate Recuair ventilation units on the local network. The
// units advertise their web interface using the "_http._tcp" service type
// under a "recuair-{serial}.local" hostname.
//
// # Discovery Process
//
// The discovery process works as follows:
//  1. Broadcasts mDNS queries on the local network
//  2. Listens for service advertisements from HTTP services
//  3. Filters responses by the Recuair hostname pattern
//  4. Collects unit information (hostname, IP, serial number, TXT metadata)
//  5. Returns a list of discovered units after the timeout period
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	scanner.Timeout = 10 * time.Second
//
//	units, err := scanner.ScanForUnitsWithContext(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, unit := range units {
//	    fmt.Printf("Found: %s at %s (Serial: %s)\n",
//	        unit.Hostname, unit.IP, unit.Serial)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Units must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can run
// simultaneously without interference.
package discovery
