package device

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"testing"
)

func TestClassify_Timeout(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://192.168.1.44",
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: &timeoutError{},
		},
	}

	devErr := Classify(err, "192.168.1.44")

	if devErr == nil {
		t.Fatal("Expected Error, got nil")
	}
	if devErr.Kind != KindUnreachable {
		t.Errorf("Kind = %v, want %v", devErr.Kind, KindUnreachable)
	}
	if devErr.Subtype != NetworkTimeout {
		t.Errorf("Subtype = %v, want %v", devErr.Subtype, NetworkTimeout)
	}
	if !devErr.Retryable {
		t.Error("Expected timeout error to be retryable")
	}
}

func TestClassify_ConnectionRefused(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://192.168.1.44",
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: syscall.ECONNREFUSED,
		},
	}

	devErr := Classify(err, "192.168.1.44")

	if devErr.Kind != KindUnreachable {
		t.Errorf("Kind = %v, want %v", devErr.Kind, KindUnreachable)
	}
	if devErr.Subtype != NetworkConnectionRefused {
		t.Errorf("Subtype = %v, want %v", devErr.Subtype, NetworkConnectionRefused)
	}
	if !devErr.Retryable {
		t.Error("Expected connection refused error to be retryable")
	}
}

func TestClassify_ConnectionReset(t *testing.T) {
	err := &net.OpError{
		Op:  "read",
		Net: "tcp",
		Err: syscall.ECONNRESET,
	}

	devErr := Classify(err, "192.168.1.44")

	if devErr.Subtype != NetworkConnectionReset {
		t.Errorf("Subtype = %v, want %v", devErr.Subtype, NetworkConnectionReset)
	}
	if !devErr.Retryable {
		t.Error("Expected connection reset error to be retryable")
	}
}

func TestClassify_DNS(t *testing.T) {
	err := &net.DNSError{
		Err:        "no such host",
		Name:       "recuair-0451.local",
		IsNotFound: true,
	}

	devErr := Classify(err, "recuair-0451.local")

	if devErr.Kind != KindUnreachable {
		t.Errorf("Kind = %v, want %v", devErr.Kind, KindUnreachable)
	}
	if devErr.Subtype != NetworkDNS {
		t.Errorf("Subtype = %v, want %v", devErr.Subtype, NetworkDNS)
	}
	if devErr.Retryable {
		t.Error("Expected DNS error to be non-retryable")
	}
	if !strings.Contains(devErr.Message, "recuair-0451.local") {
		t.Errorf("Message = %q, want it to name the host", devErr.Message)
	}
}

func TestClassify_HostUnreachable(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://192.168.1.44",
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: syscall.EHOSTUNREACH,
		},
	}

	devErr := Classify(err, "192.168.1.44")

	if devErr.Subtype != NetworkHostUnreachable {
		t.Errorf("Subtype = %v, want %v", devErr.Subtype, NetworkHostUnreachable)
	}
	if !devErr.Retryable {
		t.Error("Expected host unreachable error to be retryable")
	}
}

func TestClassify_Canceled(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://192.168.1.44",
		Err: context.Canceled,
	}

	devErr := Classify(err, "192.168.1.44")

	if devErr.Retryable {
		t.Error("Expected canceled request to be non-retryable")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", &Error{Kind: KindUnreachable, Subtype: NetworkTimeout, Retryable: true}, true},
		{"server error", NewStatusError(503, "unavailable"), true},
		{"device refusal", NewStatusError(404, "not found"), false},
		{"malformed page", NewMalformedPageError("bad page", nil), false},
		{"invalid value", NewInvalidValueError("out of range"), false},
		{"unsupported operation", NewUnsupportedOperationError("no such control"), false},
		{"ambiguous outcome", NewAmbiguousOutcomeError("unknown fate", nil), false},
		{"plain error", errors.New("something"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewStatusError_RetryableForServerErrors(t *testing.T) {
	err500 := NewStatusError(500, "internal server error")
	if !err500.Retryable {
		t.Error("Expected HTTP 500 error to be retryable")
	}
	if err500.Kind != KindUnreachable {
		t.Errorf("Kind = %v, want %v", err500.Kind, KindUnreachable)
	}

	err404 := NewStatusError(404, "not found")
	if err404.Retryable {
		t.Error("Expected HTTP 404 error to be non-retryable")
	}
	if err404.Kind != KindDeviceError {
		t.Errorf("Kind = %v, want %v", err404.Kind, KindDeviceError)
	}
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
	}{
		{"unreachable", NewUnreachableError("down", nil), IsUnreachable},
		{"device error", NewStatusError(400, "refused"), IsDeviceError},
		{"malformed page", NewMalformedPageError("bad", nil), IsMalformedPage},
		{"invalid value", NewInvalidValueError("bad value"), IsInvalidValue},
		{"unsupported operation", NewUnsupportedOperationError("no control"), IsUnsupportedOperation},
		{"ambiguous outcome", NewAmbiguousOutcomeError("unknown", nil), IsAmbiguousOutcome},
	}

	predicates := map[string]func(error) bool{
		"unreachable":           IsUnreachable,
		"device error":          IsDeviceError,
		"malformed page":        IsMalformedPage,
		"invalid value":         IsInvalidValue,
		"unsupported operation": IsUnsupportedOperation,
		"ambiguous outcome":     IsAmbiguousOutcome,
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.predicate(tt.err) {
				t.Errorf("predicate for %s = false, want true", tt.name)
			}
			// Every other predicate must reject it: kinds never blur.
			for name, pred := range predicates {
				if name == tt.name {
					continue
				}
				if pred(tt.err) {
					t.Errorf("predicate %s matched a %s error", name, tt.name)
				}
			}
			// Predicates see through wrapping.
			wrapped := fmt.Errorf("context: %w", tt.err)
			if !tt.predicate(wrapped) {
				t.Errorf("predicate for %s did not unwrap", tt.name)
			}
		})
	}
}

func TestErrorMessage_AttemptCount(t *testing.T) {
	multi := &Error{Kind: KindUnreachable, Message: "request timed out", Attempts: 3}
	if !strings.Contains(multi.Error(), "after 3 attempts") {
		t.Errorf("Error() = %q, want attempt count", multi.Error())
	}

	single := &Error{Kind: KindUnreachable, Message: "request timed out", Attempts: 1}
	if strings.Contains(single.Error(), "attempt") {
		t.Errorf("Error() = %q, want no attempt count for a single try", single.Error())
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewUnreachableError("request failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find the cause")
	}
}

func TestGetShortErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"timeout",
			&Error{Kind: KindUnreachable, Subtype: NetworkTimeout},
			"Device not responding (timeout)",
		},
		{
			"connection refused",
			&Error{Kind: KindUnreachable, Subtype: NetworkConnectionRefused},
			"Device refused connection",
		},
		{
			"dns",
			&Error{Kind: KindUnreachable, Subtype: NetworkDNS},
			"Cannot resolve device hostname",
		},
		{
			"auth",
			NewStatusError(401, "rejected"),
			"Authentication failed - check credentials",
		},
		{
			"device refusal",
			NewStatusError(400, "refused"),
			"Device refused the request (HTTP 400)",
		},
		{
			"malformed page",
			NewMalformedPageError("bad page", nil),
			"Unrecognized status page from device",
		},
		{
			"invalid value",
			NewInvalidValueError("fan_speed does not accept \"9\""),
			"fan_speed does not accept \"9\"",
		},
		{
			"ambiguous",
			NewAmbiguousOutcomeError("unknown", nil),
			"Command outcome unknown - check device status before retrying",
		},
		{
			"plain error",
			errors.New("plain"),
			"plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetShortErrorMessage(tt.err); got != tt.want {
				t.Errorf("GetShortErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetTroubleshootingHint(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{
			"timeout",
			&Error{Kind: KindUnreachable, Subtype: NetworkTimeout},
			"did not respond in time",
		},
		{
			"dns suggests scan",
			&Error{Kind: KindUnreachable, Subtype: NetworkDNS},
			"recuair-cli scan",
		},
		{
			"tls suggests plain http",
			&Error{Kind: KindUnreachable, Subtype: NetworkTLS},
			"plain HTTP",
		},
		{
			"host unreachable names device",
			&Error{Kind: KindUnreachable, Subtype: NetworkHostUnreachable, Device: "192.168.1.44"},
			"ping 192.168.1.44",
		},
		{
			"persistent server errors",
			&Error{Kind: KindUnreachable, StatusCode: 503},
			"server errors (HTTP 503)",
		},
		{
			"auth",
			NewStatusError(401, "rejected"),
			"rejected the credentials",
		},
		{
			"malformed page",
			NewMalformedPageError("bad", nil),
			"does not recognize",
		},
		{
			"malformed page links issue tracker",
			NewMalformedPageError("bad", nil),
			"github.com/ziima/recuair-cli/issues",
		},
		{
			"ambiguous suggests status check",
			NewAmbiguousOutcomeError("unknown", nil),
			"recuair-cli status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := GetTroubleshootingHint(tt.err)
			if !strings.Contains(hint, tt.contains) {
				t.Errorf("GetTroubleshootingHint() = %q, want it to contain %q", hint, tt.contains)
			}
		})
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnreachable, "Unreachable"},
		{KindDeviceError, "Device Error"},
		{KindMalformedPage, "Malformed Page"},
		{KindInvalidValue, "Invalid Value"},
		{KindUnsupportedOperation, "Unsupported Operation"},
		{KindAmbiguousOutcome, "Ambiguous Outcome"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("ErrorKind.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// timeoutError is a mock error that implements timeout behavior
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
