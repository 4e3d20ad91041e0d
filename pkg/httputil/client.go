// Package httputil provides shared HTTP plumbing for the gateway's
// outbound calls: pooled clients in three timeout tiers and safe response
// body handling. All collaborators (verifier, WhatsApp Cloud API, Safe
// Browsing, embeddings) go through these clients so connections are
// reused instead of re-dialed per message.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize bounds response body reads. Verifier and Cloud API
// responses are small; anything approaching this limit is misbehaving.
const MaxResponseSize = 2 * 1024 * 1024 // 2MB

// Shared transport with connection pooling, safe for concurrent use.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          50,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// TimeoutTier groups outbound operations by latency budget.
type TimeoutTier int

const (
	// TierFast for reputation lookups and webhook replies (5s). A user is
	// waiting on the other end of these.
	TierFast TimeoutTier = iota
	// TierMedium for verifier calls and message sends (12s).
	TierMedium
	// TierSlow for media downloads and embedding requests (30s).
	TierSlow
)

var timeoutDurations = map[TimeoutTier]time.Duration{
	TierFast:   5 * time.Second,
	TierMedium: 12 * time.Second,
	TierSlow:   30 * time.Second,
}

var (
	clientFast   *http.Client
	clientMedium *http.Client
	clientSlow   *http.Client
	clientOnce   sync.Once
)

func initClients() {
	clientFast = &http.Client{Timeout: timeoutDurations[TierFast], Transport: sharedTransport}
	clientMedium = &http.Client{Timeout: timeoutDurations[TierMedium], Transport: sharedTransport}
	clientSlow = &http.Client{Timeout: timeoutDurations[TierSlow], Transport: sharedTransport}
}

// Client returns the shared HTTP client for the given timeout tier.
// Use these instead of creating http.Client instances per request.
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(initClients)
	switch tier {
	case TierFast:
		return clientFast
	case TierSlow:
		return clientSlow
	default:
		return clientMedium
	}
}

// FastClient returns the 5s-timeout client.
func FastClient() *http.Client { return Client(TierFast) }

// MediumClient returns the 12s-timeout client.
func MediumClient() *http.Client { return Client(TierMedium) }

// SlowClient returns the 30s-timeout client.
func SlowClient() *http.Client { return Client(TierSlow) }

// ReadResponseBody reads a response body with a size limit, preventing a
// misbehaving collaborator from exhausting memory.
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadErrorBody reads an error response with a tight limit; error payloads
// have no business being large.
func ReadErrorBody(r io.Reader) ([]byte, error) {
	const maxErrorSize = 64 * 1024
	return io.ReadAll(io.LimitReader(r, maxErrorSize))
}

// DrainAndClose drains and closes a response body so the underlying
// connection returns to the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
