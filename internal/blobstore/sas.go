package blobstore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/paasops/paas-mcp/internal/constants"
)

// sasTimeFormat is ISO-8601 UTC truncated to whole seconds. The service
// rejects fractional seconds in the se parameter.
const sasTimeFormat = "2006-01-02T15:04:05Z"

// GenerateSASToken builds a Service SAS query string scoped to one
// container, granting the given permissions (e.g. "rl") until
// now+expiresIn. The returned string has no leading "?".
func GenerateSASToken(creds Credentials, container, permissions string, expiresIn time.Duration) (string, error) {
	if expiresIn <= 0 {
		return "", &ConfigError{Reason: fmt.Sprintf("SAS expiry must be in the future, got %s", expiresIn)}
	}
	expiry := time.Now().UTC().Add(expiresIn).Truncate(time.Second)
	return sasTokenAt(creds, container, permissions, expiry)
}

// sasTokenAt is the deterministic inner form: identical inputs at the
// same second-truncated expiry always produce an identical token.
func sasTokenAt(creds Credentials, container, permissions string, expiry time.Time) (string, error) {
	if err := creds.requireKey(); err != nil {
		return "", err
	}

	key, err := base64.StdEncoding.DecodeString(creds.AccountKey)
	if err != nil {
		return "", &ConfigError{Reason: "account key is not valid base64: " + err.Error()}
	}

	signedExpiry := expiry.UTC().Truncate(time.Second).Format(sasTimeFormat)
	canonicalizedResource := "/blob/" + creds.AccountName + "/" + container

	// Service SAS string-to-sign for version 2023-11-03. Field order is
	// mandated by the service; most fields are intentionally empty.
	stringToSign := strings.Join([]string{
		permissions,           // signedPermissions
		"",                    // signedStart
		signedExpiry,          // signedExpiry
		canonicalizedResource, // canonicalizedResource
		"",                    // signedIdentifier
		"",                    // signedIP
		"https",               // signedProtocol
		constants.StorageAPIVersion, // signedVersion
		"c", // signedResource (container)
		"",  // signedSnapshotTime
		"",  // signedEncryptionScope
		"",  // rscc
		"",  // rscd
		"",  // rsce
		"",  // rscl
		"",  // rsct
	}, "\n")

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(stringToSign))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	// Parameter order is fixed so generated tokens are reproducible.
	token := fmt.Sprintf("sv=%s&sr=c&sp=%s&se=%s&sig=%s&spr=https",
		url.QueryEscape(constants.StorageAPIVersion),
		url.QueryEscape(permissions),
		url.QueryEscape(signedExpiry),
		url.QueryEscape(signature),
	)
	return token, nil
}
