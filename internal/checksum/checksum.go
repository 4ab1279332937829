package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag wraps a checksum in the quotes the ETag/If-Match headers use.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// Unquote strips optional surrounding quotes from an If-Match header value.
func Unquote(etag string) string {
	return strings.Trim(etag, `"`)
}
