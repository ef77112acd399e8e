// Package blobstore implements a headless client for the subset of the
// Azure Blob Storage REST API this server needs: SAS and Shared Key
// authorization, container/blob enumeration with continuation markers,
// and line-oriented streaming downloads. No vendor SDK is involved; the
// wire format is produced and consumed directly.
package blobstore

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigError indicates a malformed or incomplete connection string or
// account key. It is always a caller bug, never a transient condition.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "storage config: " + e.Reason
}

// StatusError indicates a non-200 response from the storage service.
// A 403 means the service rejected our signature.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Operation, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Operation, e.StatusCode)
}

// ParseError indicates an unparseable list-response body.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parse list response: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// StreamError indicates a socket or decompression failure mid-download.
// Unlike per-line handler errors, these abort the whole operation.
type StreamError struct {
	Op  string
	Err error
}

func (e *StreamError) Error() string {
	return "stream " + e.Op + ": " + e.Err.Error()
}

func (e *StreamError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is a StatusError carrying an HTTP 403,
// i.e. the service rejected the SAS token or Shared Key signature.
func IsAuthError(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusForbidden
	}
	return false
}
