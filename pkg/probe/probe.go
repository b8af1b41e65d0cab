// Package probe provides the low-level reachability and liveness checks used
// while supervising the PhotoSense backend process.
//
// Two levels of checking are exposed: a raw TCP connect probe, which only
// proves something is bound to the port, and an HTTP health check, which
// proves the backend is actually answering application-level requests. Both
// are single-shot; retry and backoff policy belongs to the caller so that
// attempt counting stays in one place.
package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Endpoint is the network address the backend is expected to bind.
type Endpoint struct {
	Host string
	Port int
}

// Addr returns the endpoint in host:port form.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// URL returns the http URL for the given path on this endpoint.
func (e Endpoint) URL(path string) string {
	return fmt.Sprintf("http://%s%s", e.Addr(), path)
}

// String implements fmt.Stringer.
func (e Endpoint) String() string {
	return e.Addr()
}

// Reachable reports whether a TCP connection to the endpoint succeeds within
// timeout. Any dial error, refusal, or timeout yields false. The probe is
// side-effect free and safe to call concurrently and repeatedly.
func Reachable(endpoint Endpoint, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", endpoint.Addr(), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// HealthChecker issues single application-level liveness requests against a
// backend health path.
type HealthChecker struct {
	path   string
	client *http.Client
}

// NewHealthChecker creates a health checker for the given health path.
// The timeout bounds each individual request.
func NewHealthChecker(path string, timeout time.Duration) *HealthChecker {
	if path == "" {
		path = "/health"
	}
	if timeout == 0 {
		timeout = 1 * time.Second
	}
	return &HealthChecker{
		path: path,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Healthy performs one GET against the endpoint's health path and reports
// whether it returned a success-class status. Network errors, timeouts, and
// non-2xx statuses all report false. Healthy never retries internally.
func (hc *HealthChecker) Healthy(ctx context.Context, endpoint Endpoint) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.URL(hc.path), nil)
	if err != nil {
		return false
	}

	resp, err := hc.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused across polls.
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Path returns the configured health path.
func (hc *HealthChecker) Path() string {
	return hc.path
}
