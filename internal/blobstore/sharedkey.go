package blobstore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strings"
)

// standardHeaders are the non-x-ms headers that occupy fixed positions
// in the Shared Key string-to-sign, in mandated order. Date stays empty
// because x-ms-date is supplied instead.
var standardHeaders = []string{
	"Content-Encoding",
	"Content-Language",
	"Content-Length",
	"Content-MD5",
	"Content-Type",
	"Date",
	"If-Modified-Since",
	"If-Match",
	"If-None-Match",
	"If-Unmodified-Since",
	"Range",
}

// AuthorizationHeader builds the Shared Key Authorization header value
// for an account-level list operation. The canonicalization is exact:
// any byte-level deviation changes the signature and the service
// responds 403.
func AuthorizationHeader(method string, creds Credentials, headers map[string]string) (string, error) {
	if err := creds.requireKey(); err != nil {
		return "", err
	}

	key, err := base64.StdEncoding.DecodeString(creds.AccountKey)
	if err != nil {
		return "", &ConfigError{Reason: "account key is not valid base64: " + err.Error()}
	}

	// Case-insensitive lookup table for the caller's headers.
	lower := make(map[string]string, len(headers))
	for name, value := range headers {
		lower[strings.ToLower(name)] = value
	}

	stringToSign := strings.ToUpper(method) + "\n" +
		standardHeaderLines(lower) + "\n" +
		canonicalizedHeaders(lower) + "\n" +
		canonicalizedResource(creds.AccountName)

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(stringToSign))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return "SharedKey " + creds.AccountName + ":" + signature, nil
}

// standardHeaderLines renders the fixed-position header values, empty
// unless explicitly supplied.
func standardHeaderLines(lower map[string]string) string {
	lines := make([]string, len(standardHeaders))
	for i, name := range standardHeaders {
		lines[i] = lower[strings.ToLower(name)]
	}
	return strings.Join(lines, "\n")
}

// canonicalizedHeaders keeps only x-ms-* headers, lowercases the names,
// sorts ascending, and joins as name:value lines.
func canonicalizedHeaders(lower map[string]string) string {
	names := make([]string, 0, len(lower))
	for name := range lower {
		if strings.HasPrefix(name, "x-ms-") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = name + ":" + lower[name]
	}
	return strings.Join(lines, "\n")
}

// canonicalizedResource encodes the account-level list operation:
// the account name on one line, comp:list on the next.
func canonicalizedResource(account string) string {
	return "/" + account + "/\ncomp:list"
}
