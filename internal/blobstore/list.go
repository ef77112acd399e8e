package blobstore

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paasops/paas-mcp/internal/constants"
	"github.com/paasops/paas-mcp/internal/logging"
)

// enumerationResults mirrors the XML body of List Blobs / List
// Containers responses. Only the names and the continuation marker are
// of interest; encoding/xml also takes care of entity decoding
// (&amp; in blob names arrives decoded).
type enumerationResults struct {
	Blobs      []namedEntry `xml:"Blobs>Blob"`
	Containers []namedEntry `xml:"Containers>Container"`
	NextMarker string       `xml:"NextMarker"`
}

type namedEntry struct {
	Name string `xml:"Name"`
}

// Lister enumerates containers and blobs page by page. It performs no
// retries; transient-failure policy belongs to the caller.
type Lister struct {
	client   *http.Client
	log      *logging.Logger
	maxPages int
}

// NewLister creates a Lister with the default page cap.
func NewLister(client *http.Client, log *logging.Logger) *Lister {
	return &Lister{
		client:   client,
		log:      log,
		maxPages: constants.MaxListPages,
	}
}

// SetMaxPages overrides the pagination cap. Values below 1 are ignored.
func (l *Lister) SetMaxPages(n int) {
	if n >= 1 {
		l.maxPages = n
	}
}

// ListBlobs enumerates every blob in the container behind containerURL
// (typically SAS-authorized) and returns fully qualified blob URLs that
// carry the same authorization query.
//
// Pagination follows the NextMarker continuation token until the
// service returns an empty marker or the page cap is hit. On the cap,
// the partial list collected so far is returned with a warning; the
// loop never trusts the service to terminate. Any non-200 page aborts
// with a StatusError and discards partial results.
func (l *Lister) ListBlobs(ctx context.Context, containerURL string) ([]string, error) {
	base, query, err := splitURL(containerURL)
	if err != nil {
		return nil, err
	}

	var blobURLs []string
	marker := ""
	for page := 1; ; page++ {
		requestURL := base + "?" + joinQuery(query, "restype=container&comp=list")
		if marker != "" {
			requestURL += "&marker=" + url.QueryEscape(marker)
		}

		results, err := l.fetchPage(ctx, requestURL, nil)
		if err != nil {
			return nil, err
		}

		for _, blob := range results.Blobs {
			blobURL := base + "/" + blob.Name
			if query != "" {
				blobURL += "?" + query
			}
			blobURLs = append(blobURLs, blobURL)
		}

		marker = results.NextMarker
		if marker == "" {
			return blobURLs, nil
		}
		if page >= l.maxPages {
			l.log.Warnf("blob listing stopped at page cap (%d pages); returning %d blobs collected so far", l.maxPages, len(blobURLs))
			return blobURLs, nil
		}
	}
}

// ListContainers enumerates container names for the account behind
// endpoint (normally creds.BlobEndpoint()) using Shared Key
// authorization. Same pagination contract as ListBlobs.
func (l *Lister) ListContainers(ctx context.Context, endpoint string, creds Credentials) ([]string, error) {
	base := strings.TrimSuffix(endpoint, "/")

	var names []string
	marker := ""
	for page := 1; ; page++ {
		requestURL := base + "/?comp=list"
		if marker != "" {
			requestURL += "&marker=" + url.QueryEscape(marker)
		}

		headers := map[string]string{
			"x-ms-date":    time.Now().UTC().Format(http.TimeFormat),
			"x-ms-version": constants.StorageAPIVersion,
		}
		auth, err := AuthorizationHeader(http.MethodGet, creds, headers)
		if err != nil {
			return nil, err
		}
		headers["Authorization"] = auth

		results, err := l.fetchPage(ctx, requestURL, headers)
		if err != nil {
			return nil, err
		}

		for _, c := range results.Containers {
			names = append(names, c.Name)
		}

		marker = results.NextMarker
		if marker == "" {
			return names, nil
		}
		if page >= l.maxPages {
			l.log.Warnf("container listing stopped at page cap (%d pages); returning %d containers collected so far", l.maxPages, len(names))
			return names, nil
		}
	}
}

// fetchPage issues one list request and decodes the XML body.
func (l *Lister) fetchPage(ctx context.Context, requestURL string, headers map[string]string) (*enumerationResults, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	l.log.Debugf("list request: %s", req.URL.Redacted())

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &StreamError{Op: "list request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError("list", resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &StreamError{Op: "read list response", Err: err}
	}

	var results enumerationResults
	if err := xml.Unmarshal(body, &results); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &results, nil
}

// newStatusError builds a StatusError with a short excerpt of the
// response body, which for storage errors carries the service's XML
// error code.
func newStatusError(operation string, resp *http.Response) *StatusError {
	const maxExcerpt = 512
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxExcerpt))
	return &StatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(excerpt)),
	}
}

// splitURL separates a URL into its pre-query part and raw query.
func splitURL(rawURL string) (base, query string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", &ConfigError{Reason: "invalid container URL: " + err.Error()}
	}
	query = u.RawQuery
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/"), query, nil
}

// joinQuery appends extra parameters to an existing raw query.
func joinQuery(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + "&" + extra
}
