package device

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptrace"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziima/recuair-cli/internal/logging"
	"github.com/ziima/recuair-cli/internal/statuspage"
	"github.com/ziima/recuair-cli/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout. The unit answers
	// on the local network within tens of milliseconds; two seconds is
	// generous and keeps failures snappy.
	DefaultTimeout = 2 * time.Second

	// DefaultCacheDuration is how long a fetched snapshot stays valid for
	// control discovery and validation
	DefaultCacheDuration = 30 * time.Second
)

// Client represents an HTTP session with a single Recuair unit.
//
// Reads retry transient failures silently per the retry policy. Writes
// do not: a submission that has already started hitting the wire when a
// failure occurs surfaces as an ambiguous outcome and is never replayed
// automatically.
type Client struct {
	// BaseURL is the base URL for the device (e.g. "http://192.168.1.44")
	BaseURL string

	// Device is the address as the user gave it, used for error context
	Device string

	// Username and Password are HTTP Basic Auth credentials for units
	// with a password set. Empty Username means the unit is open.
	Username string
	Password string

	// HTTPClient is the underlying HTTP client. Its cookie jar carries
	// the device session; the session is established lazily on first use.
	HTTPClient *http.Client

	// Retry controls how transient failures are retried
	Retry RetryPolicy

	// CacheDuration is how long to reuse a fetched snapshot (0 = no cache)
	CacheDuration time.Duration

	// cachedSnap is the last fetched snapshot
	cachedSnap *statuspage.Snapshot

	// cacheTime is when the cache was last updated
	cacheTime time.Time

	// cacheMutex protects the cache fields
	cacheMutex sync.RWMutex

	// sessionMutex serializes session resets during re-authentication
	sessionMutex sync.Mutex
}

// NewClient creates a session client for the given device address. The
// address may be a bare host or IP, host:port, or an http:// URL.
func NewClient(device string) (*Client, error) {
	baseURL, err := BaseURL(device)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, NewUnreachableError("failed to create cookie jar", err)
	}

	return &Client{
		BaseURL: baseURL,
		Device:  device,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
			Jar:     jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// A processed control submission answers with a redirect
				// back to the status page; the redirect status itself is
				// the success signal and must surface instead of being
				// followed.
				if len(via) > 0 && via[0].Method == http.MethodPost {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		Retry:         DefaultRetryPolicy(),
		CacheDuration: DefaultCacheDuration,
	}, nil
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetAuth sets HTTP Basic Auth credentials
func (c *Client) SetAuth(username, password string) {
	c.Username = username
	c.Password = password
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(policy RetryPolicy) {
	c.Retry = policy
}

// SetCacheDuration sets the snapshot cache validity duration.
// Set to 0 to disable caching entirely.
func (c *Client) SetCacheDuration(duration time.Duration) {
	c.CacheDuration = duration
	if duration == 0 {
		c.InvalidateCache()
	}
}

// InvalidateCache clears the cached snapshot, forcing the next
// FetchStatus to fetch fresh data
func (c *Client) InvalidateCache() {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	c.cachedSnap = nil
	c.cacheTime = time.Time{}
}

// FetchStatus retrieves and parses the device status page. A fresh
// cached snapshot is reused when available; see RefreshStatus to force
// a fetch. Transient failures are retried silently per the retry
// policy, and the final error carries the attempt count.
func (c *Client) FetchStatus(ctx context.Context) (*statuspage.Snapshot, error) {
	if c.CacheDuration > 0 {
		c.cacheMutex.RLock()
		if c.cachedSnap != nil && time.Since(c.cacheTime) < c.CacheDuration {
			cached := *c.cachedSnap
			c.cacheMutex.RUnlock()
			return &cached, nil
		}
		c.cacheMutex.RUnlock()
	}

	return c.RefreshStatus(ctx)
}

// RefreshStatus fetches the device status page, bypassing and updating
// the cache
func (c *Client) RefreshStatus(ctx context.Context) (*statuspage.Snapshot, error) {
	policy := c.Retry.normalized()
	bo := policy.NewBackOff()

	var lastErr *Error

	// Retry loop with exponential backoff
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := bo.NextBackOff()
			logging.LogRetry(c.Device, "status fetch", attempt, delay)
			if err := sleepContext(ctx, delay); err != nil {
				lastErr.Attempts = attempt - 1
				return nil, lastErr
			}
		}

		snap, err := c.fetchOnce(ctx)
		if err == nil {
			if c.CacheDuration > 0 {
				c.cacheMutex.Lock()
				c.cachedSnap = snap
				c.cacheTime = time.Now()
				c.cacheMutex.Unlock()
			}
			return snap, nil
		}

		lastErr = intoError(err, c.Device)

		// Don't retry non-retryable errors
		if !lastErr.Retryable {
			lastErr.Attempts = attempt
			return nil, lastErr
		}

		// The caller's context expiring is final even when the underlying
		// error looks transient.
		if ctx.Err() != nil {
			lastErr.Attempts = attempt
			return nil, lastErr
		}
	}

	lastErr.Attempts = policy.MaxAttempts
	return nil, lastErr
}

// fetchOnce performs a single status page fetch
func (c *Client) fetchOnce(ctx context.Context) (*statuspage.Snapshot, error) {
	resp, err := c.sendGet(ctx)
	if err != nil {
		return nil, err
	}

	// The session cookie may have expired or the unit rebooted. Reads are
	// safe to replay, so re-authenticate once and retry - never more.
	if resp.StatusCode == http.StatusUnauthorized {
		drainBody(resp)
		if err := c.renewSession(); err != nil {
			return nil, err
		}
		resp, err = c.sendGet(ctx)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drainBody(resp)
			return nil, NewStatusError(http.StatusUnauthorized, "device rejected the credentials")
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewStatusError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	// The firmware omits the charset from its Content-Type; the body is
	// UTF-8 regardless.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewUnreachableError("failed to read status page", err)
	}

	snap, err := statuspage.ParseBytes(body, c.Device)
	if err != nil {
		return nil, NewMalformedPageError("failed to parse status page", err)
	}
	return snap, nil
}

// sendGet sends a single GET for the status page
func (c *Client) sendGet(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return nil, NewUnreachableError("failed to create GET request", err)
	}
	c.prepare(req)

	logging.LogRequest(c.Device, http.MethodGet, c.BaseURL+"/", nil)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, Classify(err, c.Device)
	}
	logging.LogResponse(c.Device, resp.StatusCode)
	return resp, nil
}

// Submit posts a control form submission to the unit. Writes are not
// idempotent: once the request has started hitting the wire, a failure
// no longer proves anything about the device state and surfaces as an
// ambiguous outcome. Only failures that provably happened before the
// request was sent are retried.
func (c *Client) Submit(ctx context.Context, action string, values url.Values) error {
	policy := c.Retry.normalized()
	bo := policy.NewBackOff()

	var lastErr *Error

	// Retry loop with exponential backoff
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := bo.NextBackOff()
			logging.LogRetry(c.Device, "submission", attempt, delay)
			if err := sleepContext(ctx, delay); err != nil {
				lastErr.Attempts = attempt - 1
				return lastErr
			}
		}

		err := c.submitOnce(ctx, action, values)
		if err == nil {
			// The device state changed; cached discovery is stale.
			c.InvalidateCache()
			return nil
		}

		lastErr = intoError(err, c.Device)

		// Don't retry non-retryable errors. Ambiguous outcomes are always
		// non-retryable.
		if !lastErr.Retryable {
			lastErr.Attempts = attempt
			return lastErr
		}

		if ctx.Err() != nil {
			lastErr.Attempts = attempt
			return lastErr
		}
	}

	lastErr.Attempts = policy.MaxAttempts
	return lastErr
}

// submitOnce performs a single form submission
func (c *Client) submitOnce(ctx context.Context, action string, values url.Values) error {
	resp, wrote, err := c.sendPost(ctx, action, values)
	if err != nil {
		if wrote {
			return ambiguousFrom(err)
		}
		return err
	}

	// Authentication is checked before the unit acts on a submission, so
	// a 401 proves the command was not applied; one replay with a fresh
	// session is safe. Never more than one.
	if resp.StatusCode == http.StatusUnauthorized {
		drainBody(resp)
		if err := c.renewSession(); err != nil {
			return err
		}
		resp, wrote, err = c.sendPost(ctx, action, values)
		if err != nil {
			if wrote {
				return ambiguousFrom(err)
			}
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drainBody(resp)
			return NewStatusError(http.StatusUnauthorized, "device rejected the credentials")
		}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusSeeOther || resp.StatusCode == http.StatusMovedPermanently:
		// A processed command answers with a redirect back to the status
		// page: 303, or 301 on firmware 12.
		return nil
	case resp.StatusCode == http.StatusOK:
		// Serving the page again without a redirect means the unit did
		// not process the command.
		return NewStatusError(http.StatusOK, "unknown error from device")
	case resp.StatusCode >= 500:
		// The response proves the request arrived; what happened before
		// the error did is unknowable.
		return NewAmbiguousOutcomeError(
			fmt.Sprintf("device answered with server error %d after receiving the command", resp.StatusCode), nil)
	default:
		return NewStatusError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}
}

// sendPost sends one POST and reports whether the request had already
// started hitting the wire when an error occurred
func (c *Client) sendPost(ctx context.Context, action string, values url.Values) (resp *http.Response, wrote bool, err error) {
	target, err := c.resolveAction(action)
	if err != nil {
		return nil, false, err
	}

	sent := false
	trace := &httptrace.ClientTrace{
		WroteHeaders: func() { sent = true },
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace),
		http.MethodPost, target, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, false, NewUnreachableError("failed to create POST request", err)
	}
	c.prepare(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	logging.LogRequest(c.Device, http.MethodPost, target, values)

	resp, doErr := c.HTTPClient.Do(req)
	if doErr != nil {
		return nil, sent, Classify(doErr, c.Device)
	}
	logging.LogResponse(c.Device, resp.StatusCode)
	return resp, sent, nil
}

// ApplyControl validates an intent against the device's discovered
// controls, submits it, and returns the refreshed device state. No
// write leaves for the device unless validation passes.
func (c *Client) ApplyControl(ctx context.Context, intent Intent) (*statuspage.Snapshot, error) {
	snap, err := c.FetchStatus(ctx)
	if err != nil {
		return nil, err
	}

	form, values, err := Translate(snap, intent)
	if err != nil {
		return nil, intoError(err, c.Device)
	}

	if err := c.Submit(ctx, form.Action, values); err != nil {
		return nil, err
	}

	fresh, err := c.RefreshStatus(ctx)
	if err != nil {
		// The write went through; only the read-back failed.
		devErr := intoError(err, c.Device)
		devErr.Message = "command applied, but status refresh failed: " + devErr.Message
		devErr.Applied = true
		return nil, devErr
	}
	return fresh, nil
}

// prepare sets the headers every request to the unit carries
func (c *Client) prepare(req *http.Request) {
	req.Header.Set("User-Agent", version.UserAgent())
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}
}

// renewSession discards the session cookie so the next request
// authenticates from scratch
func (c *Client) renewSession() error {
	if c.Username == "" {
		return NewStatusError(http.StatusUnauthorized,
			"device requires authentication and no credentials are configured")
	}

	c.sessionMutex.Lock()
	defer c.sessionMutex.Unlock()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return NewUnreachableError("failed to reset session", err)
	}
	c.HTTPClient.Jar = jar

	logging.Debug("session reset, re-authenticating", zap.String("device", c.Device))
	return nil
}

// resolveAction joins a form action with the device base URL
func (c *Client) resolveAction(action string) (string, error) {
	if action == "" || action == "/" {
		return c.BaseURL + "/", nil
	}

	base, err := url.Parse(c.BaseURL + "/")
	if err != nil {
		return "", NewUnreachableError("invalid device URL", err)
	}
	ref, err := url.Parse(action)
	if err != nil {
		return "", NewInvalidValueError(fmt.Sprintf("form action %q is not a valid URL", action))
	}
	return base.ResolveReference(ref).String(), nil
}

// intoError normalizes an error into an *Error with device context
func intoError(err error, device string) *Error {
	devErr, ok := asError(err)
	if !ok {
		devErr = NewUnreachableError("request failed", err)
	}
	if devErr.Device == "" {
		devErr.Device = device
	}
	return devErr
}

// ambiguousFrom wraps a post-send failure as an ambiguous outcome,
// keeping the transport cause
func ambiguousFrom(err error) *Error {
	cause := err
	if devErr, ok := asError(err); ok && devErr.Err != nil {
		cause = devErr.Err
	}
	return NewAmbiguousOutcomeError("command may or may not have been applied", cause)
}

// drainBody discards and closes a response body so the connection can
// be reused
func drainBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
