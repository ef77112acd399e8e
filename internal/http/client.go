// Package http builds the pooled HTTP clients shared by the lifecycle
// API client and the storage core.
package http

import (
	nethttp "net/http"

	"golang.org/x/net/http2"

	"github.com/paasops/paas-mcp/internal/constants"
)

// newTransport returns a transport tuned for repeated calls against a
// small set of hosts (the lifecycle API and one storage endpoint).
// Connection reuse matters: every blob in a log window hits the same
// host.
func newTransport() *nethttp.Transport {
	tr := &nethttp.Transport{
		MaxIdleConns:        constants.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: constants.HTTPMaxConnsPerHost,
		MaxConnsPerHost:     constants.HTTPMaxConnsPerHost,
		IdleConnTimeout:     constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout: constants.HTTPTLSHandshakeTimeout,
		// The storage core negotiates gzip itself and must see the
		// Content-Encoding header; transparent decompression would
		// hide it.
		DisableCompression: true,
		ForceAttemptHTTP2:  true,
	}
	_ = http2.ConfigureTransport(tr)
	return tr
}

// NewAPIClient returns the client for lifecycle API calls, with a
// per-request timeout.
func NewAPIClient() *nethttp.Client {
	return &nethttp.Client{
		Transport: newTransport(),
		Timeout:   constants.HTTPRequestTimeout,
	}
}

// NewStreamClient returns the client for blob downloads. No client
// timeout: an hour-sized log blob may legitimately stream for longer
// than any fixed ceiling, so cancellation is the context's job.
func NewStreamClient() *nethttp.Client {
	return &nethttp.Client{
		Transport: newTransport(),
	}
}
