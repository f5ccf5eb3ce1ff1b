package device

import (
	"fmt"
	"net/url"
	"strings"
)

// BaseURL normalizes a user-supplied device address into a base URL.
// Accepted forms are a bare host or IP, host:port, and a full http://
// or https:// URL. Bare hosts get the http scheme; the firmware serves
// plain HTTP only.
func BaseURL(device string) (string, error) {
	addr := strings.TrimSpace(device)
	if addr == "" {
		return "", NewInvalidValueError("device address is empty")
	}

	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", NewInvalidValueError(fmt.Sprintf("invalid device address %q", device))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", NewInvalidValueError(fmt.Sprintf("unsupported scheme %q in device address %q", u.Scheme, device))
	}
	if u.Host == "" {
		return "", NewInvalidValueError(fmt.Sprintf("invalid device address %q", device))
	}

	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
