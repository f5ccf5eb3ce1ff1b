package device

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/ziima/recuair-cli/internal/urls"
)

// Error kinds for device session operations

// ErrorKind represents the category of error that occurred
type ErrorKind int

const (
	// KindUnreachable indicates the device could not be contacted (connection
	// refused or reset, timeout, DNS/TLS failure, or persistent server errors)
	KindUnreachable ErrorKind = iota
	// KindDeviceError indicates the device answered but refused the request
	KindDeviceError
	// KindMalformedPage indicates the device served a page the parser does not
	// recognize (missing landmark, unrendered template)
	KindMalformedPage
	// KindInvalidValue indicates a requested value outside the domain the
	// device advertises for a control
	KindInvalidValue
	// KindUnsupportedOperation indicates the device does not expose the
	// requested control at all
	KindUnsupportedOperation
	// KindAmbiguousOutcome indicates a write whose fate is unknown: the
	// request reached the device but no usable answer came back
	KindAmbiguousOutcome
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindUnreachable:
		return "Unreachable"
	case KindDeviceError:
		return "Device Error"
	case KindMalformedPage:
		return "Malformed Page"
	case KindInvalidValue:
		return "Invalid Value"
	case KindUnsupportedOperation:
		return "Unsupported Operation"
	case KindAmbiguousOutcome:
		return "Ambiguous Outcome"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// NetworkSubtype provides more specific classification for unreachable errors
type NetworkSubtype int

const (
	NetworkGeneral NetworkSubtype = iota
	NetworkTimeout
	NetworkConnectionRefused
	NetworkConnectionReset
	NetworkDNS
	NetworkTLS
	NetworkHostUnreachable
	NetworkNetworkUnreachable
)

// Error represents an error that occurred while talking to a Recuair unit
type Error struct {
	Kind       ErrorKind      // Category of error
	Message    string         // Human-readable error message
	StatusCode int            // HTTP status code (if applicable)
	Err        error          // Underlying error (if any)
	Subtype    NetworkSubtype // More specific network error type
	Device     string         // Device address (for context)
	Retryable  bool           // Whether the error may be retried
	Attempts   int            // How many attempts were made before giving up
	Applied    bool           // The write took effect; only the read-back failed
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s (after %d attempts)", msg, e.Attempts)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Classify analyzes a transport error and returns a more specific error.
// Timeouts, refused and reset connections are transient and retryable;
// DNS and TLS failures are configuration problems and are not.
func Classify(err error, deviceAddr string) *Error {
	if err == nil {
		return nil
	}

	// A canceled context is the caller giving up, not the device failing.
	if errors.Is(err, context.Canceled) {
		return &Error{
			Kind:      KindUnreachable,
			Message:   "request canceled",
			Err:       err,
			Subtype:   NetworkGeneral,
			Device:    deviceAddr,
			Retryable: false,
		}
	}

	// Check for timeout errors
	if os.IsTimeout(err) {
		return &Error{
			Kind:      KindUnreachable,
			Message:   "request timed out",
			Err:       err,
			Subtype:   NetworkTimeout,
			Device:    deviceAddr,
			Retryable: true,
		}
	}

	// Check for DNS errors
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Kind:      KindUnreachable,
			Message:   fmt.Sprintf("cannot resolve %s", dnsErr.Name),
			Err:       err,
			Subtype:   NetworkDNS,
			Device:    deviceAddr,
			Retryable: false,
		}
	}

	// Check for TLS errors
	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	if errors.As(err, &certErr) || errors.As(err, &recordErr) {
		return &Error{
			Kind:      KindUnreachable,
			Message:   "TLS handshake failed",
			Err:       err,
			Subtype:   NetworkTLS,
			Device:    deviceAddr,
			Retryable: false,
		}
	}

	// Check for connection-level errors
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &Error{
				Kind:      KindUnreachable,
				Message:   "device refused connection",
				Err:       err,
				Subtype:   NetworkConnectionRefused,
				Device:    deviceAddr,
				Retryable: true,
			}
		}
		if errors.Is(opErr.Err, syscall.ECONNRESET) {
			return &Error{
				Kind:      KindUnreachable,
				Message:   "connection reset by device",
				Err:       err,
				Subtype:   NetworkConnectionReset,
				Device:    deviceAddr,
				Retryable: true,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &Error{
				Kind:      KindUnreachable,
				Message:   "host unreachable",
				Err:       err,
				Subtype:   NetworkHostUnreachable,
				Device:    deviceAddr,
				Retryable: true,
			}
		}
		if errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &Error{
				Kind:      KindUnreachable,
				Message:   "network unreachable",
				Err:       err,
				Subtype:   NetworkNetworkUnreachable,
				Device:    deviceAddr,
				Retryable: true,
			}
		}
	}

	// Check for URL errors
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Recursively classify the underlying error
		classified := Classify(urlErr.Err, deviceAddr)
		classified.Err = err
		return classified
	}

	// Generic network error
	return &Error{
		Kind:      KindUnreachable,
		Message:   "network error",
		Err:       err,
		Subtype:   NetworkGeneral,
		Device:    deviceAddr,
		Retryable: true,
	}
}

// NewUnreachableError creates a transport-level error with automatic
// classification
func NewUnreachableError(message string, err error) *Error {
	classified := Classify(err, "")
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &Error{
		Kind:      KindUnreachable,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// NewStatusError creates an error from an HTTP status the device answered
// with. Server errors (5xx) are transient and retryable; everything else
// means the device understood and refused.
func NewStatusError(statusCode int, message string) *Error {
	if statusCode >= 500 {
		return &Error{
			Kind:       KindUnreachable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
		}
	}
	return &Error{
		Kind:       KindDeviceError,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  false,
	}
}

// NewMalformedPageError creates an error for a page the parser rejected
func NewMalformedPageError(message string, err error) *Error {
	return &Error{
		Kind:      KindMalformedPage,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

// NewInvalidValueError creates an error for a value outside a control's domain
func NewInvalidValueError(message string) *Error {
	return &Error{
		Kind:      KindInvalidValue,
		Message:   message,
		Retryable: false,
	}
}

// NewUnsupportedOperationError creates an error for a control the device
// does not expose
func NewUnsupportedOperationError(message string) *Error {
	return &Error{
		Kind:      KindUnsupportedOperation,
		Message:   message,
		Retryable: false,
	}
}

// NewAmbiguousOutcomeError creates an error for a write whose fate is
// unknown. Ambiguous writes are never retried automatically.
func NewAmbiguousOutcomeError(message string, err error) *Error {
	return &Error{
		Kind:      KindAmbiguousOutcome,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

// asError extracts an *Error from an error chain
func asError(err error) (*Error, bool) {
	var devErr *Error
	if errors.As(err, &devErr) {
		return devErr, true
	}
	return nil, false
}

// IsUnreachable checks if an error means the device could not be contacted
func IsUnreachable(err error) bool {
	if devErr, ok := asError(err); ok {
		return devErr.Kind == KindUnreachable
	}
	return false
}

// IsDeviceError checks if an error means the device refused the request
func IsDeviceError(err error) bool {
	if devErr, ok := asError(err); ok {
		return devErr.Kind == KindDeviceError
	}
	return false
}

// IsMalformedPage checks if an error means the device served an
// unrecognizable page
func IsMalformedPage(err error) bool {
	if devErr, ok := asError(err); ok {
		return devErr.Kind == KindMalformedPage
	}
	return false
}

// IsInvalidValue checks if an error is a value domain violation
func IsInvalidValue(err error) bool {
	if devErr, ok := asError(err); ok {
		return devErr.Kind == KindInvalidValue
	}
	return false
}

// IsUnsupportedOperation checks if an error means the control is not exposed
func IsUnsupportedOperation(err error) bool {
	if devErr, ok := asError(err); ok {
		return devErr.Kind == KindUnsupportedOperation
	}
	return false
}

// IsAmbiguousOutcome checks if an error left a write's fate unknown
func IsAmbiguousOutcome(err error) bool {
	if devErr, ok := asError(err); ok {
		return devErr.Kind == KindAmbiguousOutcome
	}
	return false
}

// WasApplied reports whether the write behind this error took effect.
// True only when the command was confirmed by the device and just the
// follow-up status read failed.
func WasApplied(err error) bool {
	if devErr, ok := asError(err); ok {
		return devErr.Applied
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if devErr, ok := asError(err); ok {
		return devErr.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	devErr, ok := asError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch devErr.Kind {
	case KindUnreachable:
		switch devErr.Subtype {
		case NetworkTimeout:
			return strings.Join([]string{
				"The device did not respond in time.",
				"Troubleshooting:",
				"  • Check that the unit is powered on",
				"  • Verify your computer is on the same network as the unit",
				"  • Try increasing the timeout (--timeout)",
			}, "\n")

		case NetworkConnectionRefused:
			return strings.Join([]string{
				"The device refused the connection.",
				"Troubleshooting:",
				"  • The unit may be booting - wait a moment and retry",
				"  • Verify the port (the unit serves plain HTTP on port 80)",
				"  • Try rebooting the unit from its power switch",
			}, "\n")

		case NetworkConnectionReset:
			return strings.Join([]string{
				"The device dropped the connection mid-request.",
				"Troubleshooting:",
				"  • The unit's web server restarts under load - retry",
				"  • Avoid polling the unit from several tools at once",
			}, "\n")

		case NetworkDNS:
			return strings.Join([]string{
				"Could not resolve the device hostname.",
				"Troubleshooting:",
				"  • Use the IP address instead of the hostname",
				"  • .local names need mDNS - try 'recuair-cli scan' to find units",
				"  • Verify you're on the same network as the unit",
			}, "\n")

		case NetworkTLS:
			return strings.Join([]string{
				"TLS negotiation with the device failed.",
				"The unit serves plain HTTP only.",
				"Troubleshooting:",
				"  • Drop the https:// prefix from the device address",
			}, "\n")

		case NetworkHostUnreachable:
			hint := []string{
				"The device is not reachable on the network.",
				"Troubleshooting:",
				"  • Verify the device address is correct",
				"  • Check that you're on the same network as the unit",
				"  • Ensure the unit is powered on and connected",
			}
			if devErr.Device != "" {
				hint = append(hint, "  • Try pinging the unit: ping "+devErr.Device)
			}
			return strings.Join(hint, "\n")

		default:
			if devErr.StatusCode >= 500 {
				return strings.Join([]string{
					fmt.Sprintf("The device kept answering with server errors (HTTP %d).", devErr.StatusCode),
					"This is a firmware issue.",
					"Troubleshooting:",
					"  • Try rebooting the unit",
					"  • Check if a firmware update is available",
				}, "\n")
			}
			return strings.Join([]string{
				"Network communication failed.",
				"Troubleshooting:",
				"  • Check your network connection",
				"  • Verify the unit is powered on",
				"  • Ensure you're connected to the correct network",
			}, "\n")
		}

	case KindDeviceError:
		if devErr.StatusCode == 401 || devErr.StatusCode == 403 {
			return strings.Join([]string{
				"The device rejected the credentials.",
				"Troubleshooting:",
				"  • Check the username and password in your configuration",
				"  • Units without a password set must not send credentials",
			}, "\n")
		}
		return strings.Join([]string{
			"The device understood the request but refused it.",
			"Troubleshooting:",
			"  • Check the device's own display for error codes",
			"  • The unit may be in a mode that blocks the command (e.g. a locked panel)",
		}, "\n")

	case KindMalformedPage:
		return strings.Join([]string{
			"The device served a page this tool does not recognize.",
			"Troubleshooting:",
			"  • The unit sometimes serves a half-rendered page - retry the command",
			"  • A firmware update may have changed the page layout",
			"  • Report the page (with the firmware version shown on the unit's display)",
			"    at " + urls.IssueTracker,
		}, "\n")

	case KindInvalidValue:
		return "The requested value is outside what the device accepts. Check the error message for the allowed values."

	case KindUnsupportedOperation:
		return "This unit does not expose the requested control. Firmware versions differ in what they offer."

	case KindAmbiguousOutcome:
		return strings.Join([]string{
			"The command reached the device but its fate is unknown.",
			"It may or may not have been applied.",
			"Troubleshooting:",
			"  • Run 'recuair-cli status' to see the device's current state",
			"  • Re-issue the command only after checking the state",
		}, "\n")

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	devErr, ok := asError(err)
	if !ok {
		return err.Error()
	}

	if devErr.Applied {
		return "Command applied, but the status refresh failed - run 'recuair-cli status' to confirm"
	}

	switch devErr.Kind {
	case KindUnreachable:
		switch devErr.Subtype {
		case NetworkTimeout:
			return "Device not responding (timeout)"
		case NetworkConnectionRefused:
			return "Device refused connection"
		case NetworkConnectionReset:
			return "Device dropped the connection"
		case NetworkDNS:
			return "Cannot resolve device hostname"
		case NetworkTLS:
			return "TLS failed - the unit serves plain HTTP"
		case NetworkHostUnreachable:
			return "Device unreachable - check network connection"
		case NetworkNetworkUnreachable:
			return "Network unreachable - check your connection"
		default:
			if devErr.StatusCode >= 500 {
				return fmt.Sprintf("Device kept failing (HTTP %d)", devErr.StatusCode)
			}
			return "Network error - check connection"
		}
	case KindDeviceError:
		if devErr.StatusCode == 401 || devErr.StatusCode == 403 {
			return "Authentication failed - check credentials"
		}
		if devErr.StatusCode > 0 {
			return fmt.Sprintf("Device refused the request (HTTP %d)", devErr.StatusCode)
		}
		return devErr.Message
	case KindMalformedPage:
		return "Unrecognized status page from device"
	case KindInvalidValue:
		return devErr.Message
	case KindUnsupportedOperation:
		return devErr.Message
	case KindAmbiguousOutcome:
		return "Command outcome unknown - check device status before retrying"
	default:
		return devErr.Message
	}
}
