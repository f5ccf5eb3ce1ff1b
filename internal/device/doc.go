// Package device provides an HTTP session client for Recuair
// ventilation units.
//
// Recuair units expose no machine API: the only interface is the HTML
// status page their embedded web server renders, with control forms
// that a browser would submit. This package drives that interface
// programmatically: it fetches and parses the status page (via the
// statuspage package), validates control changes against the forms the
// page actually advertises, and submits them the way a browser would.
//
// # Reads and Writes
//
// Reads (status fetches) are idempotent and retry transient failures
// silently with exponential backoff: refused or reset connections,
// timeouts, and server errors. DNS failures, TLS failures, and device
// refusals fail immediately. The final error carries how many attempts
// were made.
//
// Writes (form submissions) are not idempotent. A submission is only
// retried while the failure provably happened before the request left:
// once the request has started hitting the wire, any failure surfaces
// as an ambiguous outcome and is never replayed automatically. The
// device's answer disambiguates: a redirect (303, or 301 on firmware
// 12) means applied, a plain 200 means refused.
//
// # Sessions
//
// Units with a password set use HTTP Basic Auth and hand out a session
// cookie. The session is established lazily on first use. When the
// device rejects a session mid-use, the client re-authenticates exactly
// once and replays the request; authentication is checked before the
// unit acts, so the replay is safe even for writes.
//
// # Usage Example
//
//	client, err := device.NewClient("192.168.1.44")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	snap, err := client.FetchStatus(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(device.Summary(snap))
//
//	// Switch the unit to automatic mode.
//	snap, err = client.ApplyControl(ctx, device.ModeIntent("auto"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Handling
//
// All failures surface as *Error with a Kind from the fixed taxonomy:
// Unreachable, Device Error, Malformed Page, Invalid Value, Unsupported
// Operation, Ambiguous Outcome. Kinds never change as an error crosses
// layers. Errors wrap their cause for errors.As/Is inspection.
package device
