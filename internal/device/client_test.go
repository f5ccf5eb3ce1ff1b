package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ziima/recuair-cli/internal/statuspage"
)

// Mock status page - the shape a real unit serves, reduced to the
// landmarks and control forms
const mockStatusPage = `<!DOCTYPE html>
<html><body>
<span class="deviceName">Holly</span>
<div class="container">
  <div class="bigText">21 ˚C / 45 %  8 °C</div>
  <div class="modeBox">Mode: <span>AUTO</span></div>
  <div class="co2Box">CO2: <b>800 ppm</b></div>
  <div class="filterBox"><div style="right:90%"></div></div>
  <div class="filterBox"><div style="right:40%"></div></div>
  <form id="modeForm" action="/" method="post">
    <input type="radio" name="mode" value="auto" checked>
    <input type="radio" name="mode" value="off">
    <input type="radio" name="mode" value="holiday">
    <input type="radio" name="mode" value="bypass">
  </form>
  <form id="fanForm" action="/" method="post">
    <select name="fan_speed">
      <option value="1" selected>1</option>
      <option value="2">2</option>
      <option value="3">3</option>
    </select>
  </form>
  <form id="lightForm" action="/" method="post">
    <input type="range" id="myRange" name="intensity" min="0" max="5" value="2">
    <input type="number" name="r" min="0" max="255" value="255">
    <input type="number" name="g" min="0" max="255" value="255">
    <input type="number" name="b" min="0" max="255" value="255">
  </form>
  <form id="filterForm" action="/" method="post">
    <input type="hidden" name="filterNotification" value="1">
  </form>
</div>
</body></html>`

// Mock unrendered template - the firmware occasionally serves this
const mockUnrenderedPage = `<!DOCTYPE html>
<html><body>
%%content%%
</body></html>`

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(serverURL)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	// Keep test retries fast.
	client.Retry = RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
	return client
}

func TestNewClient(t *testing.T) {
	client, err := NewClient("192.168.1.44")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if client.BaseURL != "http://192.168.1.44" {
		t.Errorf("BaseURL = %s, want http://192.168.1.44", client.BaseURL)
	}
	if client.Device != "192.168.1.44" {
		t.Errorf("Device = %s, want 192.168.1.44", client.Device)
	}
	if client.HTTPClient == nil {
		t.Fatal("HTTPClient should not be nil")
	}
	if client.HTTPClient.Jar == nil {
		t.Error("HTTPClient.Jar should not be nil")
	}
	if client.Retry.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("Retry.MaxAttempts = %d, want %d", client.Retry.MaxAttempts, DefaultMaxAttempts)
	}
}

func TestNewClient_InvalidAddress(t *testing.T) {
	_, err := NewClient("ftp://192.168.1.44")
	if err == nil {
		t.Fatal("NewClient() error = nil, want error")
	}
	if !IsInvalidValue(err) {
		t.Errorf("NewClient() error = %v, want invalid value", err)
	}
}

func TestSetTimeout(t *testing.T) {
	client, _ := NewClient("192.168.1.44")
	client.SetTimeout(5 * time.Second)

	if client.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.HTTPClient.Timeout)
	}
}

func TestSetAuth(t *testing.T) {
	client, _ := NewClient("192.168.1.44")
	client.SetAuth("admin", "secret")

	if client.Username != "admin" {
		t.Errorf("Username = %s, want admin", client.Username)
	}
	if client.Password != "secret" {
		t.Errorf("Password = %s, want secret", client.Password)
	}
}

func TestFetchStatus_Success(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Method != "GET" {
			t.Errorf("Request method = %s, want GET", r.Method)
		}
		fmt.Fprint(w, mockStatusPage)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	snap, err := client.FetchStatus(context.Background())
	if err != nil {
		t.Fatalf("FetchStatus() error = %v", err)
	}

	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}
	if snap.Name != "Holly" {
		t.Errorf("Name = %q, want Holly", snap.Name)
	}
	if snap.Mode != "AUTO" {
		t.Errorf("Mode = %q, want AUTO", snap.Mode)
	}
	if snap.TemperatureIn == nil || *snap.TemperatureIn != 21 {
		t.Errorf("TemperatureIn = %v, want 21", snap.TemperatureIn)
	}
	if snap.FilterUsed != 10 {
		t.Errorf("FilterUsed = %d, want 10", snap.FilterUsed)
	}
	if snap.Fan != 60 {
		t.Errorf("Fan = %d, want 60", snap.Fan)
	}
	if snap.Light != 2 {
		t.Errorf("Light = %d, want 2", snap.Light)
	}
	if len(snap.Forms) != 4 {
		t.Errorf("len(Forms) = %d, want 4", len(snap.Forms))
	}
}

func TestFetchStatus_CachesSnapshot(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, mockStatusPage)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	for i := 0; i < 3; i++ {
		if _, err := client.FetchStatus(context.Background()); err != nil {
			t.Fatalf("FetchStatus() #%d error = %v", i+1, err)
		}
	}

	if requests != 1 {
		t.Errorf("requests = %d, want 1 (cache should absorb repeats)", requests)
	}
}

func TestRefreshStatus_BypassesCache(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, mockStatusPage)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	if _, err := client.FetchStatus(context.Background()); err != nil {
		t.Fatalf("FetchStatus() error = %v", err)
	}
	if _, err := client.RefreshStatus(context.Background()); err != nil {
		t.Fatalf("RefreshStatus() error = %v", err)
	}

	if requests != 2 {
		t.Errorf("requests = %d, want 2", requests)
	}
}

func TestFetchStatus_RetriesTransientFailures(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, mockStatusPage)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	snap, err := client.FetchStatus(context.Background())
	if err != nil {
		t.Fatalf("FetchStatus() error = %v", err)
	}

	if requests != 3 {
		t.Errorf("requests = %d, want 3", requests)
	}
	if snap.Name != "Holly" {
		t.Errorf("Name = %q, want Holly", snap.Name)
	}
}

func TestFetchStatus_ExactlyConfiguredAttempts(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.FetchStatus(context.Background())
	if err == nil {
		t.Fatal("FetchStatus() error = nil, want error")
	}

	if requests != 3 {
		t.Errorf("requests = %d, want exactly 3", requests)
	}
	devErr, ok := asError(err)
	if !ok {
		t.Fatalf("error = %T, want *Error", err)
	}
	if devErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", devErr.Attempts)
	}
	if devErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", devErr.StatusCode)
	}
	if !IsUnreachable(err) {
		t.Errorf("error = %v, want unreachable", err)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("Error() = %q, want attempt count", err.Error())
	}
}

func TestFetchStatus_NoRetryOnDeviceRefusal(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.FetchStatus(context.Background())

	if requests != 1 {
		t.Errorf("requests = %d, want 1 (4xx must not be retried)", requests)
	}
	if !IsDeviceError(err) {
		t.Errorf("error = %v, want device error", err)
	}
}

func TestFetchStatus_MalformedPage(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		io.WriteString(w, mockUnrenderedPage)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.FetchStatus(context.Background())

	if requests != 1 {
		t.Errorf("requests = %d, want 1 (malformed pages must not be retried)", requests)
	}
	if !IsMalformedPage(err) {
		t.Errorf("error = %v, want malformed page", err)
	}

	var perr *statuspage.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("error chain should carry *statuspage.ParseError, got %v", err)
	}
}

func TestFetchStatus_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client := newTestClient(t, serverURL)
	_, err := client.FetchStatus(context.Background())
	if err == nil {
		t.Fatal("FetchStatus() error = nil, want error")
	}

	if !IsUnreachable(err) {
		t.Errorf("error = %v, want unreachable", err)
	}
	devErr, _ := asError(err)
	if devErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3 (refused connections are transient)", devErr.Attempts)
	}
}

func TestFetchStatus_ReauthenticatesOnce(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// The first request hits an expired session.
		if requests == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		username, password, ok := r.BasicAuth()
		if !ok || username != "admin" || password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, mockStatusPage)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.SetAuth("admin", "secret")

	snap, err := client.FetchStatus(context.Background())
	if err != nil {
		t.Fatalf("FetchStatus() error = %v", err)
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2 (one re-auth)", requests)
	}
	if snap.Name != "Holly" {
		t.Errorf("Name = %q, want Holly", snap.Name)
	}
}

func TestFetchStatus_ReauthenticatesOnlyOnce(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.SetAuth("admin", "wrong")

	_, err := client.FetchStatus(context.Background())
	if err == nil {
		t.Fatal("FetchStatus() error = nil, want error")
	}

	if requests != 2 {
		t.Errorf("requests = %d, want exactly 2 (one re-auth, never a loop)", requests)
	}
	if !IsDeviceError(err) {
		t.Errorf("error = %v, want device error", err)
	}
	devErr, _ := asError(err)
	if devErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", devErr.StatusCode)
	}
}

func TestFetchStatus_AuthRequiredWithoutCredentials(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.FetchStatus(context.Background())

	if requests != 1 {
		t.Errorf("requests = %d, want 1 (nothing to re-auth with)", requests)
	}
	if !IsDeviceError(err) {
		t.Errorf("error = %v, want device error", err)
	}
	if !strings.Contains(err.Error(), "no credentials") {
		t.Errorf("error = %v, want it to mention missing credentials", err)
	}
}

func TestSubmit_Success(t *testing.T) {
	requests := 0
	var captured url.Values
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Method != "POST" {
			t.Errorf("Request method = %s, want POST", r.Method)
		}
		contentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		captured = r.PostForm
		w.Header().Set("Location", "/")
		w.WriteHeader(http.StatusSeeOther)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.Submit(context.Background(), "/", url.Values{"fan_speed": {"3"}})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if requests != 1 {
		t.Errorf("requests = %d, want 1 (redirect must not be followed)", requests)
	}
	if contentType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q, want form encoding", contentType)
	}
	if got := captured.Get("fan_speed"); got != "3" {
		t.Errorf("fan_speed = %q, want 3", got)
	}
}

func TestSubmit_Firmware12Redirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Firmware 12 answers a processed command with 301 instead of 303.
		w.Header().Set("Location", "/")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if err := client.Submit(context.Background(), "/", url.Values{"mode": {"auto"}}); err != nil {
		t.Errorf("Submit() error = %v, want nil", err)
	}
}

func TestSubmit_DeviceRejects(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// Serving the page again without a redirect means "not processed".
		fmt.Fprint(w, mockStatusPage)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.Submit(context.Background(), "/", url.Values{"mode": {"auto"}})
	if err == nil {
		t.Fatal("Submit() error = nil, want error")
	}

	if requests != 1 {
		t.Errorf("requests = %d, want 1 (device refusals must not be retried)", requests)
	}
	if !IsDeviceError(err) {
		t.Errorf("error = %v, want device error", err)
	}
	devErr, _ := asError(err)
	if devErr.Message != "unknown error from device" {
		t.Errorf("Message = %q, want %q", devErr.Message, "unknown error from device")
	}
}

func TestSubmit_ServerErrorIsAmbiguous(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.Submit(context.Background(), "/", url.Values{"mode": {"auto"}})
	if err == nil {
		t.Fatal("Submit() error = nil, want error")
	}

	// A 5xx answer proves the command arrived; retrying could apply it
	// twice.
	if requests != 1 {
		t.Errorf("requests = %d, want 1 (ambiguous writes must not be retried)", requests)
	}
	if !IsAmbiguousOutcome(err) {
		t.Errorf("error = %v, want ambiguous outcome", err)
	}
	devErr, _ := asError(err)
	if devErr.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", devErr.Attempts)
	}
}

func TestSubmit_ConnectionDroppedMidRequestIsAmbiguous(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("server does not support hijacking")
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Errorf("Hijack() error = %v", err)
			return
		}
		// Drop the connection after the request arrived, before any
		// response.
		_ = conn.Close()
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.Submit(context.Background(), "/", url.Values{"mode": {"auto"}})
	if err == nil {
		t.Fatal("Submit() error = nil, want error")
	}

	if requests != 1 {
		t.Errorf("requests = %d, want 1 (ambiguous writes must not be retried)", requests)
	}
	if !IsAmbiguousOutcome(err) {
		t.Errorf("error = %v, want ambiguous outcome", err)
	}
}

func TestSubmit_PreSendFailureIsRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client := newTestClient(t, serverURL)
	err := client.Submit(context.Background(), "/", url.Values{"mode": {"auto"}})
	if err == nil {
		t.Fatal("Submit() error = nil, want error")
	}

	// A refused connection proves nothing was sent, so the usual retry
	// policy applies and the outcome stays unambiguous.
	if IsAmbiguousOutcome(err) {
		t.Errorf("error = %v, want plain unreachable, not ambiguous", err)
	}
	if !IsUnreachable(err) {
		t.Errorf("error = %v, want unreachable", err)
	}
	devErr, _ := asError(err)
	if devErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", devErr.Attempts)
	}
}

func TestSubmit_ReauthenticatesOnce(t *testing.T) {
	posts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts++
		if posts == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		username, password, ok := r.BasicAuth()
		if !ok || username != "admin" || password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Location", "/")
		w.WriteHeader(http.StatusSeeOther)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.SetAuth("admin", "secret")

	// Authentication is checked before the unit acts, so replaying the
	// write after a 401 is safe.
	if err := client.Submit(context.Background(), "/", url.Values{"mode": {"auto"}}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if posts != 2 {
		t.Errorf("posts = %d, want 2 (one re-auth)", posts)
	}
}

func TestSubmit_InvalidatesCache(t *testing.T) {
	gets := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			w.Header().Set("Location", "/")
			w.WriteHeader(http.StatusSeeOther)
			return
		}
		gets++
		fmt.Fprint(w, mockStatusPage)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	if _, err := client.FetchStatus(context.Background()); err != nil {
		t.Fatalf("FetchStatus() error = %v", err)
	}
	if err := client.Submit(context.Background(), "/", url.Values{"mode": {"auto"}}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := client.FetchStatus(context.Background()); err != nil {
		t.Fatalf("FetchStatus() error = %v", err)
	}

	if gets != 2 {
		t.Errorf("gets = %d, want 2 (a write must invalidate the cache)", gets)
	}
}

func TestApplyControl_FanSpeedChange(t *testing.T) {
	gets := 0
	posts := 0
	var captured url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			posts++
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm() error = %v", err)
			}
			captured = r.PostForm
			w.Header().Set("Location", "/")
			w.WriteHeader(http.StatusSeeOther)
			return
		}
		gets++
		fmt.Fprint(w, mockStatusPage)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	snap, err := client.ApplyControl(context.Background(), FanSpeedIntent("3"))
	if err != nil {
		t.Fatalf("ApplyControl() error = %v", err)
	}

	if posts != 1 {
		t.Errorf("posts = %d, want exactly 1", posts)
	}
	if gets != 2 {
		t.Errorf("gets = %d, want 2 (discovery + refresh)", gets)
	}
	if got := captured.Get("fan_speed"); got != "3" {
		t.Errorf("fan_speed = %q, want 3", got)
	}
	if snap == nil {
		t.Fatal("ApplyControl() snapshot = nil, want refreshed state")
	}
}

func TestApplyControl_ValidationFailureSendsNoWrite(t *testing.T) {
	gets := 0
	posts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			posts++
			w.WriteHeader(http.StatusSeeOther)
			return
		}
		gets++
		fmt.Fprint(w, mockStatusPage)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ApplyControl(context.Background(), FanSpeedIntent("9"))
	if err == nil {
		t.Fatal("ApplyControl() error = nil, want error")
	}

	if posts != 0 {
		t.Errorf("posts = %d, want 0 (validation failed)", posts)
	}
	if gets != 1 {
		t.Errorf("gets = %d, want 1 (discovery only)", gets)
	}
	if !IsInvalidValue(err) {
		t.Errorf("error = %v, want invalid value", err)
	}
	if !strings.Contains(err.Error(), "one of 1, 2, 3") {
		t.Errorf("error = %v, want it to name the allowed values", err)
	}
}

func TestApplyControl_WarmCacheValidationFailureIsOffline(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, mockStatusPage)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.FetchStatus(context.Background()); err != nil {
		t.Fatalf("FetchStatus() error = %v", err)
	}

	_, err := client.ApplyControl(context.Background(), SetIntent("warp", "9"))
	if !IsUnsupportedOperation(err) {
		t.Errorf("error = %v, want unsupported operation", err)
	}

	if requests != 1 {
		t.Errorf("requests = %d, want 1 (validation against the cached page makes no network calls)", requests)
	}
}

func TestApplyControl_RefreshFailureReportsApplied(t *testing.T) {
	gets := 0
	posts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			posts++
			w.Header().Set("Location", "/")
			w.WriteHeader(http.StatusSeeOther)
			return
		}
		gets++
		if gets == 1 {
			fmt.Fprint(w, mockStatusPage)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ApplyControl(context.Background(), FanSpeedIntent("3"))
	if err == nil {
		t.Fatal("ApplyControl() error = nil, want error")
	}

	if posts != 1 {
		t.Errorf("posts = %d, want 1", posts)
	}
	if !strings.Contains(err.Error(), "command applied, but status refresh failed") {
		t.Errorf("error = %v, want it to state the command was applied", err)
	}
	if !IsUnreachable(err) {
		t.Errorf("error = %v, want the refresh failure's kind preserved", err)
	}
	if !WasApplied(err) {
		t.Errorf("WasApplied(%v) = false, want true", err)
	}
	if WasApplied(NewStatusError(503, "device error")) {
		t.Error("WasApplied() = true for a plain device error")
	}
}

func BenchmarkFetchStatus(b *testing.B) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, mockStatusPage)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		b.Fatalf("NewClient() error = %v", err)
	}
	client.SetCacheDuration(0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := client.FetchStatus(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}
