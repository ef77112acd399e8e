package blobstore

import (
	"fmt"
	"strings"

	"github.com/paasops/paas-mcp/internal/constants"
)

// Credentials holds the typed pieces of a storage connection string.
// Immutable once parsed; signing operations require both AccountName
// and AccountKey to be present.
type Credentials struct {
	AccountName    string
	AccountKey     string // base64
	EndpointSuffix string
	Protocol       string
}

// ParseConnectionString parses a semicolon-delimited Key=Value storage
// connection string. AccountName is mandatory; EndpointSuffix and
// DefaultEndpointsProtocol fall back to core.windows.net and https.
// Pure parsing, no network I/O.
func ParseConnectionString(s string) (Credentials, error) {
	fields := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		fields[key] = value
	}

	if fields["AccountName"] == "" {
		return Credentials{}, &ConfigError{Reason: "connection string is missing AccountName"}
	}

	creds := Credentials{
		AccountName:    fields["AccountName"],
		AccountKey:     fields["AccountKey"],
		EndpointSuffix: fields["EndpointSuffix"],
		Protocol:       fields["DefaultEndpointsProtocol"],
	}
	if creds.EndpointSuffix == "" {
		creds.EndpointSuffix = constants.DefaultEndpointSuffix
	}
	if creds.Protocol == "" {
		creds.Protocol = "https"
	}
	return creds, nil
}

// BlobEndpoint returns the account-level blob service URL, e.g.
// https://myaccount.blob.core.windows.net
func (c Credentials) BlobEndpoint() string {
	return fmt.Sprintf("%s://%s.blob.%s", c.Protocol, c.AccountName, c.EndpointSuffix)
}

// ContainerURL returns the URL of a container under this account,
// without any authorization query.
func (c Credentials) ContainerURL(container string) string {
	return c.BlobEndpoint() + "/" + container
}

// requireKey verifies both halves of the signing material are present.
func (c Credentials) requireKey() error {
	if c.AccountName == "" || c.AccountKey == "" {
		return &ConfigError{Reason: "signing requires both AccountName and AccountKey"}
	}
	return nil
}
