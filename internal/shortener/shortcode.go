package shortener

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// GeneratedIDLength is the length of every generated short id.
	GeneratedIDLength = 6

	// digestTruncateLen bytes of the digest are encoded first; if stripping
	// base64 padding leaves fewer than GeneratedIDLength characters, the
	// encoding is recomputed from extendedDigestLen bytes.
	digestTruncateLen = 8
	extendedDigestLen = 12

	customSuffixMinLength = 3
	customSuffixMaxLength = 20

	maxLongURLLength = 2048
)

var (
	// ErrInvalidCustomSuffix is returned when a caller-supplied suffix is not
	// 3-20 characters of [A-Za-z0-9_-].
	ErrInvalidCustomSuffix = errors.New("invalid custom suffix")
	// ErrInvalidURL is returned when the long URL is missing, oversized, or
	// not an acceptable http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
)

var customSuffixPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// GenerateShortID produces a short id for the long URL. A valid custom suffix
// is echoed verbatim; otherwise the id is a 6-character base64url prefix of
// the SHA-256 digest of the URL plus the current nanosecond timestamp. The
// generated id is not unpredictable; uniqueness comes from low collision
// probability plus the creation retry loop.
func GenerateShortID(longURL, customSuffix string) (string, error) {
	if customSuffix != "" {
		if !isValidCustomSuffix(customSuffix) {
			return "", fmt.Errorf("%w: must be %d-%d characters of [A-Za-z0-9_-], got: %q",
				ErrInvalidCustomSuffix, customSuffixMinLength, customSuffixMaxLength, customSuffix)
		}

		return customSuffix, nil
	}

	timestamp := strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
	digest := sha256.Sum256([]byte(longURL + timestamp))

	id := base64.RawURLEncoding.EncodeToString(digest[:digestTruncateLen])
	if len(id) < GeneratedIDLength {
		id = base64.RawURLEncoding.EncodeToString(digest[:extendedDigestLen])
	}

	return id[:GeneratedIDLength], nil
}

func isValidCustomSuffix(suffix string) bool {
	if len(suffix) < customSuffixMinLength || len(suffix) > customSuffixMaxLength {
		return false
	}

	return customSuffixPattern.MatchString(suffix)
}

// IsValidLongURL reports whether the URL is an acceptable redirect target:
// an absolute http(s) URL of at most 2048 characters whose host is not a
// private, loopback, or link-local address.
func IsValidLongURL(longURL string) bool {
	if longURL == "" || len(longURL) > maxLongURLLength {
		return false
	}

	u, err := url.Parse(longURL)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := u.Hostname()
	if host == "" {
		return false
	}

	if strings.EqualFold(host, "localhost") {
		return false
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return false
		}
	}

	return true
}
